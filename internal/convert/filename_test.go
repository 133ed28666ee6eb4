package convert

import (
	"regexp"
	"testing"
)

func TestFilePrefix(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"带路径的文档URL", "https://docs.example.com/guide/intro", "example_docs_guide_intro"},
		{"去掉www和com", "https://www.example.com/api", "example_api"},
		{"仅主机名", "https://docs.example.com", "example_docs"},
		{"org域名", "https://pkg.example.org/reference", "example_pkg_reference"},
		{"路径中的特殊字符", "https://example.com/getting-started/v2.0", "example_getting_started_v2_0"},
		{"尾部斜杠", "https://example.com/docs/", "example_docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilePrefix(tt.url)
			if got != tt.want {
				t.Errorf("FilePrefix(%s) = %s, 期望 %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestSitemapPrefix(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"子域名作为限定词", "https://api.example.com/sitemap.xml", "example_api"},
		{"www不作为限定词", "https://www.example.com/docs/sitemap.xml", "example_docs"},
		{"路径段作为限定词", "https://example.com/docs/sitemap.xml", "example_docs"},
		{"sitemap索引文件", "https://example.com/sitemap_index.xml", "example"},
		{"无限定词", "https://example.com/sitemap.xml", "example"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SitemapPrefix(tt.url)
			if got != tt.want {
				t.Errorf("SitemapPrefix(%s) = %s, 期望 %s", tt.url, got, tt.want)
			}
		})
	}
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp()

	// 格式: 20060102_150405
	matched, err := regexp.MatchString(`^\d{8}_\d{6}$`, ts)
	if err != nil {
		t.Fatal(err)
	}
	if !matched {
		t.Errorf("时间戳格式不正确: %s", ts)
	}
}
