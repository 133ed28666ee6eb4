package crawlers

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/RecoveryAshes/docscrawl/internal/models"
)

// URLQueue 抓取队列管理器
// 职责: 管理待抓取和已完成的URL,支持并发安全的Push/Pop操作
type URLQueue struct {
	// 待处理URL队列
	pendingURLs chan models.URLItem

	// 已完成URL标记集合
	fetchedURLs map[string]bool

	// 保护fetchedURLs的读写锁
	mu sync.RWMutex

	// 队列是否已关闭
	closed bool
}

// NewURLQueue 创建抓取队列实例
func NewURLQueue() *URLQueue {
	return &URLQueue{
		pendingURLs: make(chan models.URLItem, 1000), // buffered channel,容量1000
		fetchedURLs: make(map[string]bool),
		closed:      false,
	}
}

// Push 添加URL到待抓队列
// 检查URL有效性和已完成标记
func (q *URLQueue) Push(urlStr string, index int) error {
	// 检查队列是否已关闭
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("队列已关闭")
	}
	q.mu.RUnlock()

	// 检查URL有效性
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("URL格式无效: %w", err)
	}

	// 检查协议
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("不支持的协议: %s", parsedURL.Scheme)
	}

	// 检查是否已完成(断点恢复场景)
	q.mu.RLock()
	if q.fetchedURLs[urlStr] {
		q.mu.RUnlock()
		return fmt.Errorf("URL已抓取: %s", urlStr)
	}
	q.mu.RUnlock()

	// 添加到队列
	q.pendingURLs <- models.URLItem{
		URL:   urlStr,
		Index: index,
	}

	return nil
}

// Pop 从队列中取出下一个待抓URL
// 从channel读取URL,支持context取消,阻塞等待
func (q *URLQueue) Pop(ctx context.Context) (string, int, bool) {
	select {
	case <-ctx.Done():
		// Context取消
		return "", 0, false
	case item, ok := <-q.pendingURLs:
		if !ok {
			// Channel已关闭
			return "", 0, false
		}
		return item.URL, item.Index, true
	}
}

// MarkFetched 标记URL为已完成
// 读写锁保护fetched map
func (q *URLQueue) MarkFetched(urlStr string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fetchedURLs[urlStr] = true
}

// IsFetched 检查URL是否已完成
func (q *URLQueue) IsFetched(urlStr string) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.fetchedURLs[urlStr]
}

// PendingCount 返回当前待处理URL数量
// 返回len(channel),O(1)时间复杂度
func (q *URLQueue) PendingCount() int {
	return len(q.pendingURLs)
}

// Reset 清空队列,重置所有状态
// 为下一个抓取任务准备全新状态
func (q *URLQueue) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()

	// 清空pending队列 (drain channel)
	for len(q.pendingURLs) > 0 {
		<-q.pendingURLs
	}

	// 清空fetched集合
	q.fetchedURLs = make(map[string]bool)
}

// Close 关闭队列,释放资源
// 关闭channel,后续Push调用应该返回错误
func (q *URLQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		close(q.pendingURLs)
		q.closed = true
	}
}
