package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDir 确保目录存在
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败 [%s]: %w", dir, err)
	}
	return nil
}

// SaveMarkdown 将Markdown内容写入输出目录
// 返回实际写入的文件路径
func SaveMarkdown(outputDir string, filename string, content string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("写入Markdown文件失败 [%s]: %w", path, err)
	}

	return path, nil
}

// FormatBytes 将字节数格式化为可读字符串
func FormatBytes(size int64) string {
	switch {
	case size >= 1024*1024*1024:
		return fmt.Sprintf("%.2f GB", float64(size)/(1024*1024*1024))
	case size >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(size)/(1024*1024))
	case size >= 1024:
		return fmt.Sprintf("%.2f KB", float64(size)/1024)
	default:
		return fmt.Sprintf("%d B", size)
	}
}
