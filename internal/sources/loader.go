// Package sources 负责加载和规范化URL源列表
//
// 支持两种输入格式:
//   - 文本文件(.txt等): 每行一个URL,跳过空行和#注释行
//   - JSON文件(.json): 包含menu_links数组的对象(菜单发现命令的输出格式)
//
// 无论来源格式如何,输出都是统一的有序去重URL列表。
package sources

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
)

// InputDir 源文件的备用查找目录
const InputDir = "input_files"

// ErrInputFormat 输入文件格式错误
// 包括: JSON缺少menu_links数组、文本文件过滤后无有效URL
var ErrInputFormat = errors.New("输入文件格式无效")

// SourceKind 源文件类型
type SourceKind string

const (
	KindText SourceKind = "text" // 逐行文本
	KindJSON SourceKind = "json" // menu_links JSON
)

// SourceList 规范化后的URL源列表
type SourceList struct {
	Path    string     // 实际读取的文件路径
	Kind    SourceKind // 源文件类型
	URLs    []string   // 有效URL,去重后保持首次出现顺序
	Skipped int        // 被跳过的无效条目数
}

// Load 读取源文件并规范化为URL列表
//
// 处理流程:
//  1. 解析路径(找不到时回退到input_files/目录)
//  2. 按扩展名选择解析器(.json为menu_links格式,其余按行解析)
//  3. 逐条trim、校验(http/https绝对URL),无效条目记警告并跳过
//  4. 精确字符串去重,保持首次出现顺序
//
// 错误:
//   - 文件不存在: 包装os.Open错误,可用errors.Is(err, os.ErrNotExist)判断
//   - 格式错误或无有效URL: 包装ErrInputFormat
func Load(path string) (*SourceList, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	list := &SourceList{Path: resolved}

	var candidates []string
	if strings.EqualFold(filepath.Ext(resolved), ".json") {
		list.Kind = KindJSON
		candidates, err = readJSONSource(resolved)
	} else {
		list.Kind = KindText
		candidates, err = readTextSource(resolved)
	}
	if err != nil {
		return nil, err
	}

	list.URLs, list.Skipped = normalize(candidates)

	if len(list.URLs) == 0 {
		return nil, fmt.Errorf("文件中没有有效的URL [%s]: %w", resolved, ErrInputFormat)
	}

	utils.Infof("📋 从 %s 加载了 %d 个URL (跳过 %d 个无效条目)", resolved, len(list.URLs), list.Skipped)
	return list, nil
}

// resolvePath 解析源文件路径
// 指定路径不存在时,尝试input_files/目录下的同名文件
func resolvePath(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	fallback := filepath.Join(InputDir, filepath.Base(path))
	if fallback != path {
		if _, err := os.Stat(fallback); err == nil {
			utils.Debugf("源文件在 %s 未找到,使用 %s", path, fallback)
			return fallback, nil
		}
	}

	// 返回原始路径的打开错误,保留os.ErrNotExist语义
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("打开源文件失败: %w", err)
	}
	f.Close()
	return path, nil
}

// readTextSource 逐行读取文本源,跳过空行和#注释行
func readTextSource(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开源文件失败: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取源文件失败: %w", err)
	}

	return lines, nil
}

// readJSONSource 读取menu_links格式的JSON源
// 顶层必须是对象,且包含menu_links数组;其他键(start_url等)被忽略
func readJSONSource(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取源文件失败: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("JSON解析失败 [%s]: %v: %w", path, err, ErrInputFormat)
	}

	raw, ok := doc["menu_links"]
	if !ok {
		return nil, fmt.Errorf("JSON缺少menu_links数组 [%s]: %w", path, ErrInputFormat)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("menu_links不是数组 [%s]: %w", path, ErrInputFormat)
	}

	links := make([]string, 0, len(entries))
	for i, entry := range entries {
		var s string
		if err := json.Unmarshal(entry, &s); err != nil {
			utils.Warnf("跳过非字符串条目 (menu_links[%d])", i)
			links = append(links, "") // 占位,normalize阶段计入跳过数
			continue
		}
		links = append(links, s)
	}

	return links, nil
}

// normalize 对候选条目做trim、校验和精确去重
// 返回有效URL列表(保持首次出现顺序)和跳过的条目数
func normalize(candidates []string) ([]string, int) {
	urls := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	skipped := 0

	for i, candidate := range candidates {
		trimmed := strings.TrimSpace(candidate)
		if trimmed == "" {
			skipped++
			continue
		}

		if err := models.ValidateURL(trimmed); err != nil {
			utils.Warnf("跳过无效URL (条目 %d): %s - %v", i+1, trimmed, err)
			skipped++
			continue
		}

		if seen[trimmed] {
			continue
		}
		seen[trimmed] = true
		urls = append(urls, trimmed)
	}

	return urls, skipped
}
