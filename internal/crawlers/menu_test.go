package crawlers

import (
	"testing"
)

func TestNormalizeMenuLink(t *testing.T) {
	tests := []struct {
		name   string
		link   string
		host   string
		want   string
		wantOK bool
	}{
		{
			name:   "同站链接保留",
			link:   "https://example.com/docs/intro",
			host:   "example.com",
			want:   "https://example.com/docs/intro",
			wantOK: true,
		},
		{
			name:   "去掉fragment",
			link:   "https://example.com/docs/intro#setup",
			host:   "example.com",
			want:   "https://example.com/docs/intro",
			wantOK: true,
		},
		{
			name:   "去掉末尾斜杠",
			link:   "https://example.com/docs/intro/",
			host:   "example.com",
			want:   "https://example.com/docs/intro",
			wantOK: true,
		},
		{
			name:   "跨域链接被过滤",
			link:   "https://other.com/docs",
			host:   "example.com",
			wantOK: false,
		},
		{
			name:   "非HTTP协议被过滤",
			link:   "mailto:dev@example.com",
			host:   "example.com",
			wantOK: false,
		},
		{
			name:   "javascript链接被过滤",
			link:   "javascript:void(0)",
			host:   "example.com",
			wantOK: false,
		},
		{
			name:   "带空白的链接被修剪",
			link:   "  https://example.com/docs/api  ",
			host:   "example.com",
			want:   "https://example.com/docs/api",
			wantOK: true,
		},
		{
			name:   "带端口的同站链接",
			link:   "https://example.com:8080/docs",
			host:   "example.com:8080",
			want:   "https://example.com:8080/docs",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalizeMenuLink(tt.link, tt.host)
			if ok != tt.wantOK {
				t.Fatalf("normalizeMenuLink(%q) ok = %v, want %v", tt.link, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("normalizeMenuLink(%q) = %q, want %q", tt.link, got, tt.want)
			}
		})
	}
}

func TestNewMenuCrawler_DefaultSelectors(t *testing.T) {
	mc := NewMenuCrawler(testCrawlConfig(), nil, nil)
	if len(mc.selectors) == 0 {
		t.Fatal("未指定选择器时应使用默认选择器")
	}

	custom := []string{".custom-nav"}
	mc = NewMenuCrawler(testCrawlConfig(), nil, custom)
	if len(mc.selectors) != 1 || mc.selectors[0] != ".custom-nav" {
		t.Errorf("selectors = %v, want %v", mc.selectors, custom)
	}
}
