package main

import (
	"fmt"
	"net/url"

	"github.com/RecoveryAshes/docscrawl/internal/models"
)

// ValidateURL 验证URL格式
func ValidateURL(urlStr string) error {
	return models.ValidateURL(urlStr)
}

// ValidateFlags 验证命令行标志
func ValidateFlags(
	targetURL string,
	waitTime int,
	tabs int,
	mode string,
) error {
	// 验证URL
	if targetURL != "" {
		if err := ValidateURL(targetURL); err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}
	}

	// 验证等待时间
	if waitTime < 0 || waitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间,当前值: %d", waitTime)
	}

	// 验证标签页数
	if tabs < 1 || tabs > 20 {
		return fmt.Errorf("标签页数必须在1-20之间,当前值: %d", tabs)
	}

	// 验证模式
	validModes := map[string]bool{
		string(models.ModeBrowser): true,
		string(models.ModeHTTP):    true,
	}
	if !validModes[mode] {
		return fmt.Errorf("无效的抓取模式: %s (有效值: browser, http)", mode)
	}

	return nil
}

// NormalizeURL 规范化URL
func NormalizeURL(urlStr string) (string, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return "", err
	}

	// 如果没有协议,默认使用https
	if parsed.Scheme == "" {
		urlStr = "https://" + urlStr
		parsed, err = url.Parse(urlStr)
		if err != nil {
			return "", err
		}
	}

	return parsed.String(), nil
}
