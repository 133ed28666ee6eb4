package convert

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// TimestampFormat 输出文件名中的时间戳格式
const TimestampFormat = "20060102_150405"

var (
	nonAlnumPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

	// genericHostParts 前缀中省略的通用主机名部分
	genericHostParts = map[string]bool{
		"com": true,
		"org": true,
		"net": true,
		"www": true,
	}
)

// Timestamp 返回当前时间的文件名时间戳
func Timestamp() string {
	return time.Now().Format(TimestampFormat)
}

// FilePrefix 从URL推导输出文件名前缀
//
// 规则: 主机名各段倒序排列(去掉com/org/net/www),拼上路径各段,
// 非字母数字字符替换为下划线。
// 例: https://docs.example.com/guide/intro -> example_docs_guide_intro
func FilePrefix(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return sanitizePart(rawURL)
	}

	parts := make([]string, 0, 8)

	hostParts := strings.Split(parsed.Hostname(), ".")
	for i := len(hostParts) - 1; i >= 0; i-- {
		part := strings.ToLower(hostParts[i])
		if genericHostParts[part] || part == "" {
			continue
		}
		parts = append(parts, sanitizePart(part))
	}

	for _, seg := range strings.Split(parsed.Path, "/") {
		if seg == "" {
			continue
		}
		parts = append(parts, sanitizePart(seg))
	}

	if len(parts) == 0 {
		return "docs"
	}
	return strings.Join(parts, "_")
}

// SitemapPrefix 从sitemap URL推导输出文件名前缀
//
// 规则: 主域名加一个限定词。限定词优先取子域名(非www),
// 否则取路径中第一个非sitemap文件名的段。
// 例: https://api.example.com/sitemap.xml -> example_api
//
//	https://example.com/docs/sitemap.xml -> example_docs
func SitemapPrefix(sitemapURL string) string {
	parsed, err := url.Parse(sitemapURL)
	if err != nil || parsed.Host == "" {
		return sanitizePart(sitemapURL)
	}

	hostParts := strings.Split(parsed.Hostname(), ".")

	// 主域名: 倒数第二段(example.com -> example)
	main := ""
	if len(hostParts) >= 2 {
		main = strings.ToLower(hostParts[len(hostParts)-2])
	} else if len(hostParts) == 1 {
		main = strings.ToLower(hostParts[0])
	}

	// 限定词1: 子域名
	qualifier := ""
	if len(hostParts) >= 3 {
		sub := strings.ToLower(hostParts[0])
		if !genericHostParts[sub] {
			qualifier = sub
		}
	}

	// 限定词2: 路径中第一个有意义的段
	if qualifier == "" {
		for _, seg := range strings.Split(parsed.Path, "/") {
			if seg == "" || strings.Contains(strings.ToLower(seg), "sitemap") {
				continue
			}
			qualifier = strings.ToLower(seg)
			break
		}
	}

	if main == "" {
		return "sitemap"
	}
	if qualifier == "" {
		return sanitizePart(main)
	}
	return sanitizePart(main) + "_" + sanitizePart(qualifier)
}

// sanitizePart 将任意字符串段转换为下划线安全形式
func sanitizePart(s string) string {
	return strings.Trim(nonAlnumPattern.ReplaceAllString(s, "_"), "_")
}
