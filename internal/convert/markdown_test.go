package convert

import (
	"strings"
	"testing"
)

func TestProcessContent(t *testing.T) {
	tests := []struct {
		name     string
		markdown string
		url      string
		contains []string
		excludes []string
	}{
		{
			name:     "截掉H1之前的导航内容",
			markdown: "导航栏\n搜索\n\n# 快速开始\n\n正文内容",
			url:      "https://docs.example.com/start",
			contains: []string{"# 快速开始", "## Source\nhttps://docs.example.com/start", "正文内容"},
			excludes: []string{"导航栏", "搜索"},
		},
		{
			name:     "没有H1时补充占位标题",
			markdown: "只有正文没有标题",
			url:      "https://docs.example.com/page",
			contains: []string{"# No Title Found", "## Source", "只有正文没有标题"},
		},
		{
			name:     "截掉反馈区尾部",
			markdown: "# 指南\n\n正文\n\n### Was this page helpful?\n\nYes No\n\n页脚导航",
			url:      "https://docs.example.com/guide",
			contains: []string{"# 指南", "正文"},
			excludes: []string{"Was this page helpful?", "Yes No", "页脚导航"},
		},
		{
			name:     "反馈区标题大小写不敏感",
			markdown: "# 指南\n\n正文\n\n## was this helpful?\n\n投票",
			url:      "https://docs.example.com/guide",
			contains: []string{"正文"},
			excludes: []string{"was this helpful?", "投票"},
		},
		{
			name:     "空URL不插入来源区块",
			markdown: "# 标题\n\n正文",
			url:      "",
			contains: []string{"# 标题", "正文"},
			excludes: []string{"## Source"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProcessContent(tt.markdown, tt.url)

			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("期望包含 %q, 实际输出:\n%s", want, got)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(got, unwanted) {
					t.Errorf("期望不包含 %q, 实际输出:\n%s", unwanted, got)
				}
			}
		})
	}
}

func TestProcessContent_SourceAfterH1(t *testing.T) {
	got := ProcessContent("# 标题\n\n第一段", "https://example.com/doc")

	lines := strings.Split(got, "\n")
	if lines[0] != "# 标题" {
		t.Errorf("第一行应为H1, 实际: %s", lines[0])
	}

	h1Idx := strings.Index(got, "# 标题")
	sourceIdx := strings.Index(got, "## Source")
	bodyIdx := strings.Index(got, "第一段")
	if !(h1Idx < sourceIdx && sourceIdx < bodyIdx) {
		t.Errorf("Source区块应位于H1与正文之间:\n%s", got)
	}
}

func TestCombinePages(t *testing.T) {
	pages := []string{"# 页面A\n\n内容A", "# 页面B\n\n内容B", "", "# 页面C"}

	got := CombinePages(pages)

	if strings.Count(got, "\n---\n") != 2 {
		t.Errorf("三个非空页面应有2个分隔符, 实际输出:\n%s", got)
	}

	aIdx := strings.Index(got, "# 页面A")
	bIdx := strings.Index(got, "# 页面B")
	cIdx := strings.Index(got, "# 页面C")
	if !(aIdx < bIdx && bIdx < cIdx) {
		t.Errorf("合并输出应保持输入顺序:\n%s", got)
	}
}

func TestConverter_Convert(t *testing.T) {
	c := NewConverter()

	html := `<html><body>
		<nav>导航</nav>
		<h1>安装指南</h1>
		<p>第一步: 下载。</p>
		<table><tr><th>平台</th><th>命令</th></tr><tr><td>linux</td><td>apt</td></tr></table>
	</body></html>`

	got, err := c.Convert(html, "https://docs.example.com/install")
	if err != nil {
		t.Fatalf("Convert() 失败: %v", err)
	}

	if !strings.Contains(got, "# 安装指南") {
		t.Errorf("期望H1标题, 实际输出:\n%s", got)
	}
	if !strings.Contains(got, "## Source\nhttps://docs.example.com/install") {
		t.Errorf("期望Source区块, 实际输出:\n%s", got)
	}
	if !strings.Contains(got, "第一步: 下载。") {
		t.Errorf("期望正文段落, 实际输出:\n%s", got)
	}
	// GitHubFlavored插件应保留表格结构
	if !strings.Contains(got, "|") {
		t.Errorf("期望Markdown表格, 实际输出:\n%s", got)
	}
}
