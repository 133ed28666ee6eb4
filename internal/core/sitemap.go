package core

import (
	"github.com/RecoveryAshes/docscrawl/internal/convert"
	"github.com/RecoveryAshes/docscrawl/internal/crawlers"
	"github.com/RecoveryAshes/docscrawl/internal/models"
)

// CrawlSitemap 解析sitemap并批量抓取其中的所有页面
// prefix为空时使用站点主域名加限定词,便于区分同站的多个sitemap
func CrawlSitemap(sitemapURL string, config models.CrawlConfig, docsDir string, checkpointDir string, headerProvider models.HeaderProvider, maxDepth int, patterns []string, prefix string) (string, error) {
	smc := crawlers.NewSitemapCrawler(config, headerProvider, maxDepth, patterns)
	urls, err := smc.Collect(sitemapURL)
	if err != nil {
		return "", err
	}

	if prefix == "" {
		prefix = convert.SitemapPrefix(sitemapURL)
	}

	bc := NewBatchCrawler("", config, docsDir, checkpointDir, headerProvider)
	return bc.CrawlURLs(urls, sitemapURL, prefix)
}
