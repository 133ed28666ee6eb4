package crawlers

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
	"github.com/gocolly/colly/v2"
)

// DefaultSitemapDepth sitemap索引递归的默认最大深度
const DefaultSitemapDepth = 10

// SitemapCrawler Sitemap解析器(使用Colly)
// 职责: 解析sitemap.xml,递归展开sitemap索引,收集所有页面URL
type SitemapCrawler struct {
	config models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// sitemap索引递归的最大深度
	maxDepth int

	// URL过滤模式(子串匹配),为空表示不过滤
	patterns []string

	// 收集到的页面URL(保持发现顺序)
	urls []string
	seen map[string]bool
	mu   sync.Mutex
}

// NewSitemapCrawler 创建Sitemap解析器
func NewSitemapCrawler(config models.CrawlConfig, headerProvider models.HeaderProvider, maxDepth int, patterns []string) *SitemapCrawler {
	if maxDepth <= 0 {
		maxDepth = DefaultSitemapDepth
	}

	// 预处理过滤模式: 去掉通配符,保留子串
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(strings.ReplaceAll(p, "*", ""))
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}

	return &SitemapCrawler{
		config:         config,
		headerProvider: headerProvider,
		maxDepth:       maxDepth,
		patterns:       cleaned,
		urls:           make([]string, 0),
		seen:           make(map[string]bool),
	}
}

// Collect 解析sitemap并收集所有页面URL
// sitemap索引(sitemapindex)会被递归展开,直到maxDepth层
func (smc *SitemapCrawler) Collect(sitemapURL string) ([]string, error) {
	utils.Infof("🗺️  开始解析Sitemap: %s", sitemapURL)

	httpTimeout := 30 * time.Second

	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // 跳过证书验证,允许访问自签名证书的站点
			},
		},
		Timeout: httpTimeout,
	}

	// MaxDepth限制sitemap索引的递归层数,默认去重避免循环引用
	c := colly.NewCollector(
		colly.MaxDepth(smc.maxDepth),
	)
	c.SetClient(httpClient)
	c.WithTransport(httpClient.Transport)
	c.SetRequestTimeout(httpTimeout)

	// 应用自定义HTTP头部
	c.OnRequest(func(r *colly.Request) {
		applyHeaders(smc.headerProvider, r.Headers.Set)

		utils.Debugf("访问Sitemap: %s", r.URL.String())
	})

	// 页面URL条目
	c.OnXML("//urlset/url/loc", func(e *colly.XMLElement) {
		pageURL := strings.TrimSpace(e.Text)
		if pageURL == "" {
			return
		}

		if !smc.matchesPatterns(pageURL) {
			utils.Debugf("URL不匹配过滤模式,跳过: %s", pageURL)
			return
		}

		smc.mu.Lock()
		if !smc.seen[pageURL] {
			smc.seen[pageURL] = true
			smc.urls = append(smc.urls, pageURL)
		}
		smc.mu.Unlock()
	})

	// sitemap索引条目,递归展开子sitemap
	c.OnXML("//sitemapindex/sitemap/loc", func(e *colly.XMLElement) {
		childURL := strings.TrimSpace(e.Text)
		if childURL == "" {
			return
		}

		utils.Infof("🔍 发现子Sitemap: %s", childURL)
		if err := e.Request.Visit(childURL); err != nil {
			utils.Warnf("访问子Sitemap失败 [%s]: %v", childURL, err)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		utils.Errorf("Sitemap请求失败 [%s] (HTTP %d): %v", r.Request.URL, r.StatusCode, err)
	})

	if err := c.Visit(sitemapURL); err != nil {
		return nil, fmt.Errorf("访问Sitemap失败 [%s]: %w", sitemapURL, err)
	}
	c.Wait()

	smc.mu.Lock()
	result := make([]string, len(smc.urls))
	copy(result, smc.urls)
	smc.mu.Unlock()

	if len(result) == 0 {
		return nil, fmt.Errorf("Sitemap中没有找到页面URL [%s]", sitemapURL)
	}

	utils.Infof("📊 Sitemap解析完成,共收集 %d 个页面URL", len(result))
	return result, nil
}

// matchesPatterns 检查URL是否匹配过滤模式
// 没有配置模式时匹配所有URL,否则任一模式子串命中即匹配
func (smc *SitemapCrawler) matchesPatterns(pageURL string) bool {
	if len(smc.patterns) == 0 {
		return true
	}

	for _, p := range smc.patterns {
		if strings.Contains(pageURL, p) {
			return true
		}
	}
	return false
}
