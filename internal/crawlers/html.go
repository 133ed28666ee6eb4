package crawlers

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// ExtractTitle 从HTML中提取页面标题
// 优先使用<title>标签,缺失时回退到第一个<h1>
func ExtractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var firstH1 string

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "h1":
				if firstH1 == "" {
					firstH1 = strings.TrimSpace(textContent(n))
				}
			}
		}

		// 递归处理子节点
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}

	f(doc)

	if title != "" {
		return title
	}
	return firstH1
}

// textContent 递归拼接节点的文本内容
func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}

	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

// ExtractLinks 从HTML字符串提取所有绝对链接
// 相对链接会基于baseURL解析为绝对URL,只保留http/https协议
func ExtractLinks(htmlContent string, baseURL string) ([]string, error) {
	// 解析HTML
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	// 解析baseURL
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("解析baseURL失败: %w", err)
	}

	// 提取链接
	var links []string
	seen := make(map[string]bool)

	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			// 查找href属性
			for _, attr := range n.Attr {
				if attr.Key == "href" {
					linkURL, err := url.Parse(strings.TrimSpace(attr.Val))
					if err != nil {
						continue
					}

					// 转换为绝对URL
					absolute := base.ResolveReference(linkURL)
					if absolute.Scheme != "http" && absolute.Scheme != "https" {
						break
					}

					absoluteStr := absolute.String()
					if !seen[absoluteStr] {
						seen[absoluteStr] = true
						links = append(links, absoluteStr)
					}
					break
				}
			}
		}

		// 递归处理子节点
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}

	f(doc)

	return links, nil
}
