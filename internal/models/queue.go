package models

// URLItem 表示抓取队列中的一个URL项
// 用途:
//   - 在channel中传递URL及其在源列表中的序号
//   - 序号用于保持合并输出与源列表的顺序一致
type URLItem struct {
	// URL 完整的URL字符串
	URL string

	// Index URL在源列表中的位置(从0开始)
	Index int
}
