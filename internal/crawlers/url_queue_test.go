package crawlers

import (
	"context"
	"testing"
	"time"
)

func TestURLQueue_PushPop(t *testing.T) {
	queue := NewURLQueue()
	defer queue.Close()

	// Push有效URL
	if err := queue.Push("https://example.com/docs/intro", 0); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := queue.Push("https://example.com/docs/api", 1); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	if queue.PendingCount() != 2 {
		t.Errorf("PendingCount() = %v, want 2", queue.PendingCount())
	}

	// Pop按入队顺序取出
	ctx := context.Background()
	urlStr, index, ok := queue.Pop(ctx)
	if !ok {
		t.Fatal("Pop()应成功")
	}
	if urlStr != "https://example.com/docs/intro" || index != 0 {
		t.Errorf("Pop() = (%v, %v), want (https://example.com/docs/intro, 0)", urlStr, index)
	}

	urlStr, index, ok = queue.Pop(ctx)
	if !ok || index != 1 {
		t.Errorf("Pop() = (%v, %v, %v), want index 1", urlStr, index, ok)
	}
}

func TestURLQueue_PushInvalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"不支持的协议", "ftp://example.com/file"},
		{"无协议", "example.com/docs"},
		{"相对路径", "/docs/intro"},
	}

	queue := NewURLQueue()
	defer queue.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := queue.Push(tt.url, 0); err == nil {
				t.Errorf("Push(%q)应返回错误", tt.url)
			}
		})
	}
}

func TestURLQueue_RejectFetched(t *testing.T) {
	queue := NewURLQueue()
	defer queue.Close()

	queue.MarkFetched("https://example.com/docs/intro")

	if !queue.IsFetched("https://example.com/docs/intro") {
		t.Error("IsFetched()应返回true")
	}

	// 已完成的URL不应再入队
	if err := queue.Push("https://example.com/docs/intro", 0); err == nil {
		t.Error("已抓取的URL入队应返回错误")
	}
}

func TestURLQueue_PopContextCancel(t *testing.T) {
	queue := NewURLQueue()
	defer queue.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// 空队列上Pop应在context取消后返回
	_, _, ok := queue.Pop(ctx)
	if ok {
		t.Error("context取消后Pop()应返回false")
	}
}

func TestURLQueue_CloseDrains(t *testing.T) {
	queue := NewURLQueue()

	if err := queue.Push("https://example.com/docs/intro", 0); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	queue.Close()

	ctx := context.Background()

	// 关闭后仍可取出剩余URL
	if _, _, ok := queue.Pop(ctx); !ok {
		t.Error("关闭后应仍能取出已入队的URL")
	}

	// 队列清空后Pop返回false
	if _, _, ok := queue.Pop(ctx); ok {
		t.Error("队列清空后Pop()应返回false")
	}

	// 关闭后Push返回错误
	if err := queue.Push("https://example.com/docs/api", 1); err == nil {
		t.Error("关闭后Push()应返回错误")
	}
}

func TestURLQueue_Reset(t *testing.T) {
	queue := NewURLQueue()
	defer queue.Close()

	_ = queue.Push("https://example.com/a", 0)
	_ = queue.Push("https://example.com/b", 1)
	queue.MarkFetched("https://example.com/c")

	queue.Reset()

	if queue.PendingCount() != 0 {
		t.Errorf("Reset后PendingCount() = %v, want 0", queue.PendingCount())
	}
	if queue.IsFetched("https://example.com/c") {
		t.Error("Reset后已完成标记应被清空")
	}
}
