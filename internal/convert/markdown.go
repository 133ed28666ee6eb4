// Package convert 负责HTML到Markdown的转换和文档后处理
package convert

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

const (
	// PageSeparator 合并文档中页面之间的分隔符
	PageSeparator = "\n\n---\n\n"

	// FallbackTitle 页面没有H1标题时的占位标题
	FallbackTitle = "# No Title Found"
)

var (
	// h1Pattern 匹配Markdown一级标题行
	h1Pattern = regexp.MustCompile(`(?m)^# .*$`)

	// feedbackPatterns 匹配文档站常见的反馈区标题
	// 该区及其后的内容(导航、页脚等)全部截断
	feedbackPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?mi)^#{1,6}\s*was this page helpful\?\s*$`),
		regexp.MustCompile(`(?mi)^#{1,6}\s*was this helpful\?\s*$`),
		regexp.MustCompile(`(?mi)^\*{0,2}was this page helpful\?\*{0,2}\s*$`),
	}
)

// Converter HTML到Markdown转换器
type Converter struct {
	converter *md.Converter
}

// NewConverter 创建转换器,启用GitHub风格Markdown插件
// (表格、删除线、任务列表等文档站常见结构)
func NewConverter() *Converter {
	c := md.NewConverter("", true, nil)
	c.Use(plugin.GitHubFlavored())
	return &Converter{converter: c}
}

// Convert 将HTML转换为清理后的Markdown
// 转换后执行后处理: 截取正文、注入来源、去除反馈区尾部
func (c *Converter) Convert(html string, pageURL string) (string, error) {
	raw, err := c.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("HTML转Markdown失败: %w", err)
	}

	return ProcessContent(raw, pageURL), nil
}

// ProcessContent 对单页Markdown做文档化后处理
//
// 处理步骤:
//  1. 截掉第一个H1标题之前的内容(导航、面包屑等)
//  2. 没有H1时补充占位标题
//  3. 在H1后插入 "## Source" 区块记录页面来源
//  4. 截掉 "Was this page helpful?" 反馈区及其后的全部内容
func ProcessContent(markdown string, pageURL string) string {
	content := strings.TrimSpace(markdown)

	// 定位第一个H1
	if loc := h1Pattern.FindStringIndex(content); loc != nil {
		content = content[loc[0]:]
	} else {
		content = FallbackTitle + "\n\n" + content
	}

	// 截掉反馈区尾部
	cutAt := -1
	for _, pattern := range feedbackPatterns {
		if loc := pattern.FindStringIndex(content); loc != nil {
			if cutAt == -1 || loc[0] < cutAt {
				cutAt = loc[0]
			}
		}
	}
	if cutAt > 0 {
		content = strings.TrimSpace(content[:cutAt])
	}

	// 在H1行后插入来源区块
	if pageURL != "" {
		lines := strings.SplitN(content, "\n", 2)
		source := fmt.Sprintf("## Source\n%s", pageURL)
		if len(lines) == 2 {
			content = lines[0] + "\n\n" + source + "\n" + lines[1]
		} else {
			content = lines[0] + "\n\n" + source
		}
	}

	return strings.TrimSpace(content) + "\n"
}

// CombinePages 将多个页面的Markdown合并为单个文档
// 页面之间用水平分隔线隔开,保持输入顺序
func CombinePages(pages []string) string {
	trimmed := make([]string, 0, len(pages))
	for _, p := range pages {
		p = strings.TrimSpace(p)
		if p != "" {
			trimmed = append(trimmed, p)
		}
	}
	return strings.Join(trimmed, PageSeparator) + "\n"
}
