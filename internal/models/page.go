package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// MaxPageSize 单页HTML最大大小 50MB
	MaxPageSize = 50 * 1024 * 1024
)

// PageResult 单个页面的抓取结果
type PageResult struct {
	// 标识信息
	ID  string `json:"id"`  // 结果唯一ID
	URL string `json:"url"` // 页面URL

	// 内容
	Title    string `json:"title"`    // 页面标题
	HTML     string `json:"-"`        // 原始HTML(不写入报告)
	Markdown string `json:"-"`        // 转换后的Markdown(不写入报告)

	// 元数据
	Hash        string    `json:"hash"`         // Markdown内容SHA-256哈希
	Size        int64     `json:"size"`         // Markdown大小(字节)
	FetchMode   FetchMode `json:"fetch_mode"`   // 抓取模式
	IsDuplicate bool      `json:"is_duplicate"` // 内容是否与其他页面重复

	// 执行结果
	Success  bool    `json:"success"`
	Error    string  `json:"error,omitempty"`
	Duration float64 `json:"duration"` // 单页耗时(秒)

	// 时间戳
	FetchedAt time.Time `json:"fetched_at"`
}

// MenuLinksFile 菜单链接发现结果文件
// 保存到 input_files/ 目录,可直接作为批量抓取的输入
type MenuLinksFile struct {
	StartURL        string   `json:"start_url"`         // 起始页面URL
	TotalLinksFound int      `json:"total_links_found"` // 发现的链接总数
	MenuLinks       []string `json:"menu_links"`        // 排序去重后的链接列表
}

// ToJSON 序列化为JSON
func (m *MenuLinksFile) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// FromJSON 从JSON反序列化
func (m *MenuLinksFile) FromJSON(data []byte) error {
	return json.Unmarshal(data, m)
}

// Validate 校验菜单链接文件的完整性
func (m *MenuLinksFile) Validate() error {
	if m.StartURL == "" {
		return fmt.Errorf("起始URL不能为空")
	}
	if m.MenuLinks == nil {
		return fmt.Errorf("menu_links字段缺失")
	}
	return nil
}
