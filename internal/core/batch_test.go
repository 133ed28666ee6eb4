package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/docscrawl/internal/models"
)

func testBatchConfig() models.CrawlConfig {
	return models.CrawlConfig{
		WaitTime:        1,
		Tabs:            2,
		Mode:            models.ModeHTTP,
		ContinueOnError: true,
	}
}

func TestBatchCrawler_SaveCombined(t *testing.T) {
	t.Run("按源列表顺序合并", func(t *testing.T) {
		bc := NewBatchCrawler("", testBatchConfig(), t.TempDir(), t.TempDir(), nil)

		// 乱序写入,合并输出必须按源列表下标排序
		bc.results[2] = &models.PageResult{URL: "https://example.com/c", Markdown: "# C\n\ncontent-c", Hash: "hc"}
		bc.results[0] = &models.PageResult{URL: "https://example.com/a", Markdown: "# A\n\ncontent-a", Hash: "ha"}

		outputPath, err := bc.saveCombined("urls.txt", "example_test")
		if err != nil {
			t.Fatalf("saveCombined() 错误: %v", err)
		}

		data, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("读取合并输出失败: %v", err)
		}

		content := string(data)
		aPos := strings.Index(content, "content-a")
		cPos := strings.Index(content, "content-c")
		if aPos == -1 || cPos == -1 {
			t.Fatalf("合并输出缺少页面内容: %s", content)
		}
		if aPos > cPos {
			t.Error("合并输出应保持源列表顺序")
		}

		base := filepath.Base(outputPath)
		if !strings.HasPrefix(base, "example_test_docs_content_") {
			t.Errorf("输出文件名前缀错误: %s", base)
		}
	})

	t.Run("重复页面不进入合并输出", func(t *testing.T) {
		bc := NewBatchCrawler("", testBatchConfig(), t.TempDir(), t.TempDir(), nil)

		bc.results[0] = &models.PageResult{URL: "https://example.com/a", Markdown: "# A\n\nsame-content", Hash: "h1"}
		bc.results[1] = &models.PageResult{URL: "https://example.com/b", Markdown: "# B\n\nsame-content", Hash: "h1", IsDuplicate: true}

		outputPath, err := bc.saveCombined("urls.txt", "dup_test")
		if err != nil {
			t.Fatalf("saveCombined() 错误: %v", err)
		}

		data, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatalf("读取合并输出失败: %v", err)
		}

		if strings.Contains(string(data), "# B") {
			t.Error("标记为重复的页面不应出现在合并输出中")
		}
		if !strings.Contains(string(data), "# A") {
			t.Error("首次出现的页面应保留在合并输出中")
		}
	})

	t.Run("没有可合并页面时返回错误", func(t *testing.T) {
		bc := NewBatchCrawler("", testBatchConfig(), t.TempDir(), t.TempDir(), nil)

		if _, err := bc.saveCombined("urls.txt", "empty_test"); err == nil {
			t.Error("期望返回错误, 但成功了")
		}
	})
}

func TestBatchCrawler_InsertResult(t *testing.T) {
	bc := NewBatchCrawler("", testBatchConfig(), t.TempDir(), t.TempDir(), nil)

	first := &models.PageResult{URL: "https://example.com/a", Markdown: "same", Hash: "h1", Size: 4}
	second := &models.PageResult{URL: "https://example.com/b", Markdown: "same", Hash: "h1", Size: 4}

	bc.mu.Lock()
	bc.insertResult(0, first)
	bc.insertResult(1, second)
	bc.mu.Unlock()

	if first.IsDuplicate {
		t.Error("首次出现的哈希不应标记为重复")
	}
	if !second.IsDuplicate {
		t.Error("相同哈希的第二个页面应标记为重复")
	}
	if bc.stats.DuplicatePages != 1 {
		t.Errorf("期望DuplicatePages=1, 实际=%d", bc.stats.DuplicatePages)
	}
	if bc.stats.TotalSize != 4 {
		t.Errorf("重复页面不应计入输出大小, TotalSize=%d", bc.stats.TotalSize)
	}
}

func TestBatchCrawler_PageCacheRoundTrip(t *testing.T) {
	bc := NewBatchCrawler("", testBatchConfig(), t.TempDir(), t.TempDir(), nil)
	bc.pagesDir = t.TempDir()

	page := &models.PageResult{
		URL:       "https://example.com/docs/guide",
		Title:     "Guide",
		Markdown:  "# Guide\n\nhello",
		Hash:      "abc123",
		Size:      15,
		FetchMode: models.ModeHTTP,
		FetchedAt: time.Now(),
	}

	if err := bc.savePageCache(page); err != nil {
		t.Fatalf("savePageCache() 错误: %v", err)
	}

	if err := bc.restoreCachedPage(page.URL, 0); err != nil {
		t.Fatalf("restoreCachedPage() 错误: %v", err)
	}

	restored, ok := bc.results[0]
	if !ok {
		t.Fatal("恢复的页面未写入结果集")
	}
	if restored.Markdown != page.Markdown {
		t.Errorf("期望Markdown='%s', 实际='%s'", page.Markdown, restored.Markdown)
	}
	if restored.Title != "Guide" {
		t.Errorf("期望Title='Guide', 实际='%s'", restored.Title)
	}
	if !restored.Success {
		t.Error("恢复的页面应标记为成功")
	}

	// 缓存缺失时报错,调用方据此重新入队抓取
	if err := bc.restoreCachedPage("https://example.com/missing", 1); err == nil {
		t.Error("期望缓存缺失返回错误, 但成功了")
	}
}

// 所有URL都在检查点中且页面缓存完整时,恢复运行不发起任何网络请求,
// 合并输出仍然覆盖完整的URL列表
func TestBatchCrawler_ResumeRebuildsFullOutput(t *testing.T) {
	docsDir := t.TempDir()
	checkpointDir := t.TempDir()
	prefix := "resume_test"
	urls := []string{
		"https://example.com/docs/alpha",
		"https://example.com/docs/beta",
	}

	cfg := testBatchConfig()
	cfg.Resume = true

	// 模拟上一次运行的产物: 检查点 + 页面缓存
	seed := NewBatchCrawler("", cfg, docsDir, checkpointDir, nil)
	seed.checkpointPath = filepath.Join(checkpointDir, models.CheckpointFilename(prefix))
	seed.pagesDir = filepath.Join(checkpointDir, prefix+"_pages")
	if err := os.MkdirAll(seed.pagesDir, 0755); err != nil {
		t.Fatal(err)
	}

	checkpoint := &models.Checkpoint{
		TaskID:      "resume-task",
		SourceFile:  "urls.txt",
		FetchedURLs: urls,
		FailedURLs:  []string{},
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Config:      cfg,
	}
	if err := checkpoint.SaveToFile(seed.checkpointPath); err != nil {
		t.Fatalf("保存检查点失败: %v", err)
	}

	for i, u := range urls {
		page := &models.PageResult{
			URL:       u,
			Title:     fmt.Sprintf("Page %d", i),
			Markdown:  fmt.Sprintf("# Page %d\n\nbody-%d", i, i),
			Hash:      fmt.Sprintf("hash-%d", i),
			Size:      20,
			FetchMode: models.ModeHTTP,
			FetchedAt: time.Now(),
		}
		if err := seed.savePageCache(page); err != nil {
			t.Fatalf("写入页面缓存失败: %v", err)
		}
	}

	bc := NewBatchCrawler("", cfg, docsDir, checkpointDir, nil)
	outputPath, err := bc.CrawlURLs(urls, "urls.txt", prefix)
	if err != nil {
		t.Fatalf("CrawlURLs() 错误: %v", err)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("读取合并输出失败: %v", err)
	}

	content := string(data)
	for i := range urls {
		marker := fmt.Sprintf("body-%d", i)
		if !strings.Contains(content, marker) {
			t.Errorf("恢复运行的合并输出缺少页面内容: %s", marker)
		}
	}

	pos0 := strings.Index(content, "body-0")
	pos1 := strings.Index(content, "body-1")
	if pos0 > pos1 {
		t.Error("恢复的页面应保持源列表顺序")
	}

	if bc.stats.SkippedPages != 2 {
		t.Errorf("期望SkippedPages=2, 实际=%d", bc.stats.SkippedPages)
	}
	if bc.stats.FailedPages != 0 {
		t.Errorf("恢复运行不应有失败页面, FailedPages=%d", bc.stats.FailedPages)
	}
}
