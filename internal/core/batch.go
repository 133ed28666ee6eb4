package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/RecoveryAshes/docscrawl/internal/convert"
	"github.com/RecoveryAshes/docscrawl/internal/crawlers"
	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/sources"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
	"github.com/google/uuid"
)

// BatchCrawler 批量抓取器
// 职责: 从URL列表文件批量抓取页面,合并为单个Markdown文档
type BatchCrawler struct {
	config         models.CrawlConfig
	sourceFile     string
	docsDir        string
	checkpointDir  string
	headerProvider models.HeaderProvider

	// Markdown转换器
	converter *convert.Converter

	// 抓取队列
	queue *crawlers.URLQueue

	// 抓取器(按模式二选一)
	fetcher        crawlers.PageFetcher
	browserFetcher *crawlers.BrowserFetcher

	// 结果存储: 源列表下标 -> 抓取结果,保证合并输出与输入顺序一致
	results map[int]*models.PageResult

	// 内容哈希表: hash -> 首次出现的URL,用于重复内容检测
	contentHashes map[string]string

	// 失败页面
	failed []models.FailedPageInfo

	// 检查点
	checkpoint     *models.Checkpoint
	checkpointPath string

	// 页面缓存目录: 每个成功页面的Markdown落盘在此,断点恢复时重建合并输出
	pagesDir string

	// 统计
	stats models.TaskStats
	mu    sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBatchCrawler 创建批量抓取器
func NewBatchCrawler(sourceFile string, config models.CrawlConfig, docsDir string, checkpointDir string, headerProvider models.HeaderProvider) *BatchCrawler {
	ctx, cancel := context.WithCancel(context.Background())

	return &BatchCrawler{
		config:         config,
		sourceFile:     sourceFile,
		docsDir:        docsDir,
		checkpointDir:  checkpointDir,
		headerProvider: headerProvider,
		converter:      convert.NewConverter(),
		results:        make(map[int]*models.PageResult),
		contentHashes:  make(map[string]string),
		failed:         make([]models.FailedPageInfo, 0),
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Crawl 执行批量抓取任务
// 执行流程:
//  1. 加载并归一化URL列表
//  2. 恢复检查点(--resume)
//  3. Worker pool并发抓取所有页面
//  4. 按源列表顺序合并为单个Markdown文件
//  5. 生成抓取报告
//
// prefix为空时基于第一个URL自动生成,返回合并输出文件的路径
func (bc *BatchCrawler) Crawl(prefix string) (string, error) {
	// 加载URL列表
	list, err := sources.Load(bc.sourceFile)
	if err != nil {
		return "", err
	}

	if prefix == "" {
		prefix = convert.FilePrefix(list.URLs[0])
	}

	return bc.CrawlURLs(list.URLs, list.Path, prefix)
}

// CrawlURLs 批量抓取给定的URL列表
// Sitemap模式收集URL后走这条路径,prefix决定输出和检查点文件名
func (bc *BatchCrawler) CrawlURLs(urls []string, sourceLabel string, prefix string) (string, error) {
	startTime := time.Now()

	utils.Infof("🚀 开始批量抓取: %d个URL", len(urls))
	utils.Infof("来源: %s", sourceLabel)
	utils.Infof("抓取模式: %s", bc.config.Mode)
	utils.Infof("并发标签页: %d", bc.config.Tabs)

	bc.stats.TotalURLs = len(urls)

	// 创建输出目录
	if err := utils.EnsureDir(bc.docsDir); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := utils.EnsureDir(bc.checkpointDir); err != nil {
		return "", fmt.Errorf("创建检查点目录失败: %w", err)
	}

	// 初始化检查点和页面缓存目录
	bc.checkpointPath = filepath.Join(bc.checkpointDir, models.CheckpointFilename(prefix))
	bc.pagesDir = filepath.Join(bc.checkpointDir, prefix+"_pages")
	if err := utils.EnsureDir(bc.pagesDir); err != nil {
		return "", fmt.Errorf("创建页面缓存目录失败: %w", err)
	}
	if err := bc.initCheckpoint(sourceLabel); err != nil {
		return "", err
	}

	// 初始化抓取队列
	bc.queue = crawlers.NewURLQueue()

	// 初始化抓取器
	if err := bc.initFetcher(); err != nil {
		return "", err
	}
	defer bc.fetcher.Close()
	defer bc.cancel()

	// 计算worker数量
	workers := bc.workerCount()
	utils.Infof("🔧 并发worker数: %d", workers)

	// 进度条
	bar := utils.NewProgressBar(len(urls), "抓取进度")

	// 投递URL,已在检查点中的URL从页面缓存恢复后跳过
	// 缓存缺失时重新入队抓取,保证合并输出始终覆盖完整列表
	go func() {
		for i, u := range urls {
			if bc.checkpoint.IsFetched(u) {
				if restoreErr := bc.restoreCachedPage(u, i); restoreErr != nil {
					utils.Warnf("页面缓存缺失,重新抓取 [%s]: %v", u, restoreErr)
				} else {
					utils.Debugf("检查点中已完成,从缓存恢复: %s", u)
					bc.mu.Lock()
					bc.stats.SkippedPages++
					bc.mu.Unlock()
					_ = bar.Add(1)
					continue
				}
			}

			if err := bc.queue.Push(u, i); err != nil {
				utils.Warnf("URL入队失败 [%s]: %v", u, err)
			}
		}
		// 全部投递完成后关闭队列,worker取空后自然退出
		bc.queue.Close()
	}()

	// Worker pool并发抓取
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			bc.worker(workerID, bar)
		}(w)
	}
	wg.Wait()

	// 合并并保存输出
	outputPath, err := bc.saveCombined(sourceLabel, prefix)
	if err != nil {
		return "", err
	}

	// 统计与报告
	if bc.browserFetcher != nil {
		bc.stats.BrowserRestarts = bc.browserFetcher.Restarts()
	}
	bc.stats.Duration = time.Since(startTime).Seconds()

	bc.generateReport(sourceLabel, prefix, startTime, outputPath)
	bc.printSummary(outputPath)

	return outputPath, nil
}

// initCheckpoint 初始化或恢复检查点
func (bc *BatchCrawler) initCheckpoint(sourcePath string) error {
	if bc.config.Resume {
		cp, err := models.LoadCheckpointFromFile(bc.checkpointPath)
		if err == nil {
			utils.Infof("📦 从检查点恢复: %s (已完成 %d 个URL)", bc.checkpointPath, len(cp.FetchedURLs))
			bc.checkpoint = cp
			return nil
		}
		utils.Warnf("加载检查点失败,从头开始: %v", err)
	}

	bc.checkpoint = &models.Checkpoint{
		TaskID:      uuid.New().String(),
		SourceFile:  sourcePath,
		FetchedURLs: make([]string, 0),
		FailedURLs:  make([]string, 0),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Config:      bc.config,
	}
	return nil
}

// initFetcher 按模式创建抓取器
func (bc *BatchCrawler) initFetcher() error {
	if bc.config.Mode == models.ModeBrowser {
		utils.Infof("🌐 浏览器抓取模式启动")
		bf, err := crawlers.NewBrowserFetcher(bc.config, bc.headerProvider, bc.queue)
		if err != nil {
			return fmt.Errorf("启动浏览器失败: %w", err)
		}
		bc.browserFetcher = bf
		bc.fetcher = bf
		return nil
	}

	utils.Infof("🔍 HTTP抓取模式启动")
	bc.fetcher = crawlers.NewHTTPFetcher(bc.config, bc.headerProvider)
	return nil
}

// workerCount 计算worker数量
// 浏览器模式受资源监控限制,HTTP模式直接使用配置的并发数
func (bc *BatchCrawler) workerCount() int {
	if bc.browserFetcher != nil {
		return bc.browserFetcher.MaxWorkers(bc.config.Tabs)
	}

	workers := bc.config.Tabs
	if workers < 1 {
		workers = 1
	}
	return workers
}

// worker Worker goroutine,从队列拉取URL并抓取
func (bc *BatchCrawler) worker(workerID int, bar interface{ Add(int) error }) {
	for {
		urlStr, index, ok := bc.queue.Pop(bc.ctx)
		if !ok {
			// 队列已关闭或context取消
			return
		}

		// 浏览器模式下按队列长度调整标签页池
		if bc.browserFetcher != nil {
			bc.browserFetcher.AdjustPool(bc.queue.PendingCount())
		}

		err := bc.processURL(urlStr, index)
		if err != nil {
			utils.Warnf("Worker %d 抓取失败 [%s]: %v", workerID, urlStr, err)
			bc.recordFailure(urlStr, err)

			if !bc.config.ContinueOnError {
				utils.Errorf("❌ 抓取失败且continue_on_error=false,停止批量任务")
				bc.cancel()
				_ = bar.Add(1)
				return
			}
		}

		_ = bar.Add(1)

		// URL之间延迟
		if bc.config.BatchDelay > 0 {
			time.Sleep(time.Duration(bc.config.BatchDelay) * time.Second)
		}
	}
}

// processURL 抓取并转换单个URL
func (bc *BatchCrawler) processURL(urlStr string, index int) error {
	result, err := bc.fetcher.Fetch(urlStr)
	if err != nil {
		return err
	}

	// 转换为Markdown
	markdown, err := bc.converter.Convert(result.HTML, result.URL)
	if err != nil {
		return fmt.Errorf("转换Markdown失败: %w", err)
	}

	result.Markdown = markdown
	result.Hash = fmt.Sprintf("%x", sha256.Sum256([]byte(markdown)))
	result.Size = int64(len(markdown))

	// 落盘页面缓存,断点恢复时无需重新抓取
	if cacheErr := bc.savePageCache(result); cacheErr != nil {
		utils.Warnf("保存页面缓存失败 [%s]: %v", result.URL, cacheErr)
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.insertResult(index, result)
	bc.stats.SuccessPages++
	bc.queue.MarkFetched(urlStr)

	// 更新检查点
	bc.checkpoint.Stats = bc.stats
	bc.checkpoint.MarkFetched(urlStr)
	if err := bc.checkpoint.SaveToFile(bc.checkpointPath); err != nil {
		utils.Warnf("保存检查点失败: %v", err)
	}

	utils.Infof("📥 抓取成功: %s (%s)", result.URL, utils.FormatBytes(result.Size))
	return nil
}

// insertResult 写入抓取结果并做内容去重,调用方需持有bc.mu
// 哈希相同的页面标记为重复,不进入合并输出
func (bc *BatchCrawler) insertResult(index int, result *models.PageResult) {
	if existingURL, exists := bc.contentHashes[result.Hash]; exists {
		utils.Debugf("发现重复内容: %s (与 %s 相同)", result.URL, existingURL)
		result.IsDuplicate = true
		bc.stats.DuplicatePages++
	} else {
		bc.contentHashes[result.Hash] = result.URL
		bc.stats.TotalSize += result.Size
	}

	bc.results[index] = result
}

// cachedPage 落盘的单页转换结果
type cachedPage struct {
	URL       string           `json:"url"`
	Title     string           `json:"title"`
	Markdown  string           `json:"markdown"`
	Hash      string           `json:"hash"`
	Size      int64            `json:"size"`
	FetchMode models.FetchMode `json:"fetch_mode"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// pageCachePath 计算URL对应的页面缓存文件路径
func (bc *BatchCrawler) pageCachePath(urlStr string) string {
	sum := sha256.Sum256([]byte(urlStr))
	return filepath.Join(bc.pagesDir, fmt.Sprintf("%x.json", sum[:8]))
}

// savePageCache 持久化单页结果
func (bc *BatchCrawler) savePageCache(result *models.PageResult) error {
	data, err := json.MarshalIndent(&cachedPage{
		URL:       result.URL,
		Title:     result.Title,
		Markdown:  result.Markdown,
		Hash:      result.Hash,
		Size:      result.Size,
		FetchMode: result.FetchMode,
		FetchedAt: result.FetchedAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化页面缓存失败: %w", err)
	}

	return os.WriteFile(bc.pageCachePath(result.URL), data, 0644)
}

// restoreCachedPage 从页面缓存恢复检查点中已完成的URL
func (bc *BatchCrawler) restoreCachedPage(urlStr string, index int) error {
	data, err := os.ReadFile(bc.pageCachePath(urlStr))
	if err != nil {
		return err
	}

	var cached cachedPage
	if err := json.Unmarshal(data, &cached); err != nil {
		return fmt.Errorf("解析页面缓存失败: %w", err)
	}

	result := &models.PageResult{
		URL:       cached.URL,
		Title:     cached.Title,
		Markdown:  cached.Markdown,
		Hash:      cached.Hash,
		Size:      cached.Size,
		FetchMode: cached.FetchMode,
		FetchedAt: cached.FetchedAt,
		Success:   true,
	}

	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.insertResult(index, result)
	return nil
}

// recordFailure 记录失败页面
func (bc *BatchCrawler) recordFailure(urlStr string, err error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	bc.stats.FailedPages++
	bc.failed = append(bc.failed, models.FailedPageInfo{
		URL:       urlStr,
		ErrorType: "fetch_error",
		ErrorMsg:  err.Error(),
	})
	bc.checkpoint.FailedURLs = append(bc.checkpoint.FailedURLs, urlStr)
	if saveErr := bc.checkpoint.SaveToFile(bc.checkpointPath); saveErr != nil {
		utils.Warnf("保存检查点失败: %v", saveErr)
	}
}

// saveCombined 按源列表顺序合并页面并保存
func (bc *BatchCrawler) saveCombined(sourceLabel string, prefix string) (string, error) {
	bc.mu.Lock()
	indices := make([]int, 0, len(bc.results))
	for i := range bc.results {
		indices = append(indices, i)
	}
	sort.Ints(indices)

	pages := make([]string, 0, len(indices))
	for _, i := range indices {
		r := bc.results[i]
		if r.IsDuplicate {
			continue
		}
		pages = append(pages, r.Markdown)
	}
	bc.mu.Unlock()

	if len(pages) == 0 {
		return "", fmt.Errorf("没有成功抓取任何页面 [%s]", sourceLabel)
	}

	combined := convert.CombinePages(pages)
	filename := fmt.Sprintf("%s_docs_content_%s.md", prefix, convert.Timestamp())

	savedPath, err := utils.SaveMarkdown(bc.docsDir, filename, combined)
	if err != nil {
		return "", fmt.Errorf("保存合并Markdown失败: %w", err)
	}

	return savedPath, nil
}

// generateReport 生成抓取报告
func (bc *BatchCrawler) generateReport(sourcePath string, prefix string, startTime time.Time, outputPath string) {
	bc.mu.Lock()
	successPages := make([]models.PageInfo, 0, len(bc.results))
	indices := make([]int, 0, len(bc.results))
	for i := range bc.results {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		r := bc.results[i]
		successPages = append(successPages, models.PageInfo{
			URL:         r.URL,
			Title:       r.Title,
			Size:        r.Size,
			Hash:        r.Hash,
			FetchMode:   r.FetchMode,
			IsDuplicate: r.IsDuplicate,
			FetchedAt:   r.FetchedAt,
		})
	}
	failedPages := make([]models.FailedPageInfo, len(bc.failed))
	copy(failedPages, bc.failed)
	stats := bc.stats
	bc.mu.Unlock()

	report := &models.CrawlReport{
		TaskID:       bc.checkpoint.TaskID,
		SourceFile:   sourcePath,
		Mode:         bc.config.Mode,
		StartTime:    startTime,
		EndTime:      time.Now(),
		Duration:     stats.Duration,
		Stats:        stats,
		SuccessPages: successPages,
		FailedPages:  failedPages,
		OutputFile:   outputPath,
		Config:       bc.config,
	}

	reporter := utils.NewReporter(bc.docsDir, prefix)
	if err := reporter.GenerateReport(report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}
}

// printSummary 输出批量抓取摘要
func (bc *BatchCrawler) printSummary(outputPath string) {
	utils.Infof("")
	utils.Infof("==================== 批量抓取完成 ====================")
	utils.Infof("📊 总URL数: %d", bc.stats.TotalURLs)
	utils.Infof("✅ 成功: %d", bc.stats.SuccessPages)
	utils.Infof("❌ 失败: %d", bc.stats.FailedPages)
	if bc.stats.DuplicatePages > 0 {
		utils.Infof("🔄 重复内容: %d", bc.stats.DuplicatePages)
	}
	if bc.stats.SkippedPages > 0 {
		utils.Infof("📦 断点跳过: %d", bc.stats.SkippedPages)
	}
	if bc.stats.BrowserRestarts > 0 {
		utils.Infof("🔧 浏览器重启: %d", bc.stats.BrowserRestarts)
	}
	utils.Infof("📦 输出大小: %s", utils.FormatBytes(bc.stats.TotalSize))
	utils.Infof("⏱️  总耗时: %.2f秒", bc.stats.Duration)
	utils.Infof("✨ 输出文件: %s", outputPath)
}
