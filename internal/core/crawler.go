package core

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/RecoveryAshes/docscrawl/internal/convert"
	"github.com/RecoveryAshes/docscrawl/internal/crawlers"
	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
)

// Crawler 单页抓取协调器
// 职责: 抓取单个文档页面,转换为Markdown并保存
type Crawler struct {
	task      *models.CrawlTask
	outputDir string

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// Markdown转换器
	converter *convert.Converter
}

// NewCrawler 创建单页抓取协调器
func NewCrawler(targetURL string, config models.CrawlConfig, outputDir string, headerProvider models.HeaderProvider) (*Crawler, error) {
	task, err := models.NewCrawlTask(targetURL, config)
	if err != nil {
		return nil, fmt.Errorf("创建抓取任务失败: %w", err)
	}

	return &Crawler{
		task:           task,
		outputDir:      outputDir,
		headerProvider: headerProvider,
		converter:      convert.NewConverter(),
	}, nil
}

// Crawl 执行单页抓取任务
// 执行流程:
//  1. 创建输出目录
//  2. 按模式抓取页面HTML
//  3. 转换为Markdown并清洗
//  4. 保存到 {outputDir}/{prefix}_{timestamp}.md
//  5. 生成抓取报告
//
// 返回保存的文件路径
func (c *Crawler) Crawl() (string, error) {
	startTime := time.Now()
	now := time.Now()
	c.task.StartedAt = &now
	c.task.Status = models.TaskStatusRunning

	utils.Infof("🚀 开始抓取任务")
	utils.Infof("目标URL: %s", c.task.TargetURL)
	utils.Infof("抓取模式: %s", c.task.Mode)
	utils.Infof("输出目录: %s", c.outputDir)

	// 创建输出目录
	if err := utils.EnsureDir(c.outputDir); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	// 抓取页面
	result, err := c.fetchPage()
	if err != nil {
		c.task.Status = models.TaskStatusFailed
		c.task.ErrorMessage = err.Error()
		return "", err
	}

	// 转换为Markdown
	markdown, err := c.converter.Convert(result.HTML, result.URL)
	if err != nil {
		c.task.Status = models.TaskStatusFailed
		c.task.ErrorMessage = err.Error()
		return "", fmt.Errorf("转换Markdown失败 [%s]: %w", result.URL, err)
	}

	result.Markdown = markdown
	result.Hash = fmt.Sprintf("%x", sha256.Sum256([]byte(markdown)))
	result.Size = int64(len(markdown))

	// 保存Markdown文件
	filename := fmt.Sprintf("%s_%s.md", convert.FilePrefix(result.URL), convert.Timestamp())
	savedPath, err := utils.SaveMarkdown(c.outputDir, filename, markdown)
	if err != nil {
		c.task.Status = models.TaskStatusFailed
		c.task.ErrorMessage = err.Error()
		return "", fmt.Errorf("保存Markdown失败: %w", err)
	}

	// 更新统计
	duration := time.Since(startTime)
	c.task.Stats.TotalURLs = 1
	c.task.Stats.SuccessPages = 1
	c.task.Stats.TotalSize = result.Size
	c.task.Stats.Duration = duration.Seconds()
	doneAt := time.Now()
	c.task.CompletedAt = &doneAt
	c.task.Status = models.TaskStatusCompleted

	// 生成抓取报告
	prefix := convert.FilePrefix(result.URL)
	reporter := utils.NewReporter(c.outputDir, prefix)
	report := &models.CrawlReport{
		TaskID:    c.task.ID,
		TargetURL: c.task.TargetURL,
		Mode:      c.task.Mode,
		StartTime: startTime,
		EndTime:   doneAt,
		Duration:  c.task.Stats.Duration,
		Stats:     c.task.Stats,
		SuccessPages: []models.PageInfo{
			{
				URL:       result.URL,
				Title:     result.Title,
				Size:      result.Size,
				Hash:      result.Hash,
				FetchMode: result.FetchMode,
				FetchedAt: result.FetchedAt,
			},
		},
		FailedPages: []models.FailedPageInfo{},
		OutputFile:  savedPath,
		Config:      c.task.Config,
	}
	if err := reporter.GenerateReport(report); err != nil {
		utils.Warnf("生成报告失败: %v", err)
	}

	utils.Infof("✅ 抓取任务完成")
	utils.Infof("页面标题: %s", result.Title)
	utils.Infof("输出文件: %s (%s)", savedPath, utils.FormatBytes(result.Size))
	utils.Infof("总耗时: %.2f秒", c.task.Stats.Duration)

	return savedPath, nil
}

// fetchPage 按配置的模式抓取页面
func (c *Crawler) fetchPage() (*models.PageResult, error) {
	var fetcher crawlers.PageFetcher

	if c.task.Config.Mode == models.ModeBrowser {
		utils.Infof("🌐 浏览器抓取模式启动")
		queue := crawlers.NewURLQueue()
		defer queue.Close()

		bf, err := crawlers.NewBrowserFetcher(c.task.Config, c.headerProvider, queue)
		if err != nil {
			return nil, fmt.Errorf("启动浏览器失败: %w", err)
		}
		fetcher = bf
		defer func() {
			c.task.Stats.BrowserRestarts = bf.Restarts()
		}()
	} else {
		utils.Infof("🔍 HTTP抓取模式启动")
		fetcher = crawlers.NewHTTPFetcher(c.task.Config, c.headerProvider)
	}
	defer fetcher.Close()

	return fetcher.Fetch(c.task.TargetURL)
}

// GetStats 获取统计信息
func (c *Crawler) GetStats() models.TaskStats {
	return c.task.Stats
}
