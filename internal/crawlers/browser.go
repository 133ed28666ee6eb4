package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
)

// BrowserFetcher 浏览器抓取器(使用Rod)
// 适用于JS渲染的文档站点,页面加载后等待wait_time秒再提取HTML
type BrowserFetcher struct {
	browser *rod.Browser
	config  models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 自适应标签页池
	pagePool        *PagePool
	resourceMonitor *ResourceMonitor
	urlQueue        *URLQueue

	// 浏览器会话管理
	browserRetryCount int // 当前浏览器重启次数
	maxBrowserRetries int // 最大浏览器重启次数(默认3)
	restarts          int // 累计重启次数(统计用)

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBrowserFetcher 创建浏览器抓取器
// urlQueue用于标签页池的动态调整,单页抓取传入空队列即可
func NewBrowserFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider, urlQueue *URLQueue) (*BrowserFetcher, error) {
	ctx, cancel := context.WithCancel(context.Background())

	bf := &BrowserFetcher{
		config:            config,
		headerProvider:    headerProvider,
		urlQueue:          urlQueue,
		browserRetryCount: 0,
		maxBrowserRetries: 3,
		ctx:               ctx,
		cancel:            cancel,
	}

	// 初始化ResourceMonitor
	resourceConfig := ResourceMonitorConfig{
		SafetyReserveMemory: int64(config.SafetyReserveMemory) * 1024 * 1024, // MB转字节
		SafetyThreshold:     int64(config.SafetyThreshold) * 1024 * 1024,
		CPULoadThreshold:    config.CPULoadThreshold,
		MaxTabsLimit:        config.MaxTabsLimit,
		TabMemoryUsage:      100 * 1024 * 1024, // 100MB per tab
	}
	bf.resourceMonitor = NewResourceMonitor(resourceConfig)
	bf.resourceMonitor.StartMonitoring(1 * time.Second)

	// 启动浏览器
	if err := bf.launchBrowser(); err != nil {
		bf.resourceMonitor.StopMonitoring()
		cancel()
		return nil, err
	}

	// 记录证书跳过信息
	utils.Warnf("浏览器已配置为跳过HTTPS证书验证,适用于内网/开发环境的自签名证书")

	bf.pagePool = NewPagePool(bf.browser, bf.resourceMonitor, urlQueue, ctx)

	return bf, nil
}

// Fetch 抓取单个页面
// 支持浏览器崩溃自动重启,最多重试3次
func (bf *BrowserFetcher) Fetch(pageURL string) (*models.PageResult, error) {
	startTime := time.Now()

	var result *models.PageResult
	var err error

	// 浏览器崩溃重试循环
	for attempt := 0; attempt <= bf.maxBrowserRetries; attempt++ {
		result, err = bf.fetchWithBrowser(pageURL)

		// 检测浏览器崩溃
		if errors.Is(err, ErrBrowserCrashed) {
			bf.mu.Lock()
			bf.restarts++
			bf.mu.Unlock()
			utils.Warnf("浏览器崩溃,准备重启(重试%d/%d)", attempt+1, bf.maxBrowserRetries)

			// 如果达到最大重试次数,返回错误
			if attempt == bf.maxBrowserRetries {
				return nil, fmt.Errorf("浏览器崩溃,已达最大重试次数: %w", ErrMaxRetriesReached)
			}

			time.Sleep(2 * time.Second) // 等待2秒后重启
			if restartErr := bf.restartBrowser(); restartErr != nil {
				return nil, fmt.Errorf("重启浏览器失败: %w", restartErr)
			}
			continue
		}

		break
	}

	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(startTime).Seconds()
	result.FetchedAt = time.Now()
	return result, nil
}

// fetchWithBrowser 在浏览器实例中执行抓取逻辑
// 返回ErrBrowserCrashed表示浏览器崩溃,需要重启
func (bf *BrowserFetcher) fetchWithBrowser(pageURL string) (result *models.PageResult, err error) {
	// 使用defer捕获panic,转换为ErrBrowserCrashed
	defer func() {
		if r := recover(); r != nil {
			utils.Errorf("浏览器操作panic: URL=%s, 错误=%v", pageURL, r)
			result = nil
			err = ErrBrowserCrashed
		}
	}()

	utils.Debugf("访问页面: %s", pageURL)

	// 从PagePool获取标签页
	page, pageErr := bf.pagePool.AcquirePage(bf.ctx)
	if pageErr != nil {
		return nil, fmt.Errorf("获取标签页失败 [%s]: %w", pageURL, pageErr)
	}
	defer bf.pagePool.ReleasePage(page)

	// 设置网络拦截,注入自定义HTTP头部
	router := bf.setupHeaderInjection(page)
	if router != nil {
		defer func() {
			if stopErr := router.Stop(); stopErr != nil {
				utils.Debugf("停止请求拦截失败: %v", stopErr)
			}
		}()
	}

	// 导航到目标URL
	if navErr := page.Navigate(pageURL); navErr != nil {
		return nil, fmt.Errorf("导航失败 [%s]: %w", pageURL, navErr)
	}

	// 等待页面加载
	if loadErr := page.WaitLoad(); loadErr != nil {
		return nil, fmt.Errorf("等待页面加载失败 [%s]: %w", pageURL, loadErr)
	}

	// 额外等待时间(等待动态内容渲染)
	time.Sleep(time.Duration(bf.config.WaitTime) * time.Second)

	utils.Debugf("页面加载完成: %s", pageURL)

	// 提取渲染后的HTML
	html, htmlErr := page.HTML()
	if htmlErr != nil {
		return nil, fmt.Errorf("提取页面HTML失败 [%s]: %w", pageURL, htmlErr)
	}
	if html == "" {
		return nil, fmt.Errorf("页面内容为空 [%s]: %w", pageURL, ErrEmptyContent)
	}

	// 提取页面标题
	title := ""
	if obj, evalErr := page.Evaluate(&rod.EvalOptions{JS: `() => document.title`}); evalErr == nil {
		title = obj.Value.Str()
	}

	return &models.PageResult{
		ID:        uuid.New().String(),
		URL:       pageURL,
		Title:     title,
		HTML:      html,
		Size:      int64(len(html)),
		FetchMode: models.ModeBrowser,
		Success:   true,
	}, nil
}

// setupHeaderInjection 设置网络请求拦截,为所有请求注入自定义头部
func (bf *BrowserFetcher) setupHeaderInjection(page *rod.Page) *rod.HijackRouter {
	if bf.headerProvider == nil {
		return nil
	}

	router := page.HijackRequests()

	router.MustAdd("*", func(ctx *rod.Hijack) {
		applyHeaders(bf.headerProvider, func(name, value string) {
			ctx.Request.Req().Header.Set(name, value)
		})

		// 让浏览器继续处理请求(不拦截,只注入头部)
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})

	go router.Run()

	return router
}

// launchBrowser 启动浏览器
func (bf *BrowserFetcher) launchBrowser() error {
	// 配置launcher
	l := launcher.New()

	if bf.config.Headless {
		l = l.Headless(true)
	} else {
		l = l.Headless(false)
	}

	// 添加证书忽略参数,允许访问自签名、过期或主机名不匹配的HTTPS站点
	l = l.Set("ignore-certificate-errors")
	utils.Debugf("浏览器启动参数: --ignore-certificate-errors (跳过TLS证书验证)")

	// 启动浏览器
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	// 连接到浏览器
	bf.browser = rod.New().ControlURL(controlURL)
	if err := bf.browser.Connect(); err != nil {
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// restartBrowser 崩溃后重建浏览器和标签页池
func (bf *BrowserFetcher) restartBrowser() error {
	if bf.pagePool != nil {
		_ = bf.pagePool.Close()
	}
	if bf.browser != nil {
		// 崩溃后的关闭可能失败,忽略错误
		func() {
			defer func() { _ = recover() }()
			bf.browser.MustClose()
		}()
	}

	if err := bf.launchBrowser(); err != nil {
		return err
	}

	bf.pagePool = NewPagePool(bf.browser, bf.resourceMonitor, bf.urlQueue, bf.ctx)
	return nil
}

// AdjustPool 根据待抓URL数量调整标签页池大小
// 批量抓取时由调度方周期性调用
func (bf *BrowserFetcher) AdjustPool(pendingURLCount int) {
	if bf.pagePool != nil {
		bf.pagePool.AdjustSize(pendingURLCount)
	}
}

// MaxWorkers 返回当前资源允许的最大并发worker数
func (bf *BrowserFetcher) MaxWorkers(limit int) int {
	maxTabs := bf.resourceMonitor.CalculateMaxTabs()
	if limit < maxTabs {
		maxTabs = limit
	}
	if maxTabs < 1 {
		maxTabs = 1
	}
	return maxTabs
}

// Restarts 返回累计浏览器重启次数
func (bf *BrowserFetcher) Restarts() int {
	bf.mu.Lock()
	defer bf.mu.Unlock()
	return bf.restarts
}

// Page 创建一个独立标签页,供菜单发现等自定义流程使用
func (bf *BrowserFetcher) Page() (*rod.Page, error) {
	return bf.pagePool.AcquirePage(bf.ctx)
}

// ReleasePage 归还由Page获取的标签页
func (bf *BrowserFetcher) ReleasePage(page *rod.Page) {
	bf.pagePool.ReleasePage(page)
}

// Close 关闭浏览器,释放所有资源
func (bf *BrowserFetcher) Close() error {
	bf.resourceMonitor.StopMonitoring()

	if bf.pagePool != nil {
		_ = bf.pagePool.Close()
	}

	if bf.browser != nil {
		bf.cancel()
		bf.browser.MustClose()
		utils.Debugf("浏览器已关闭")
	}

	return nil
}
