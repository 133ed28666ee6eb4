package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/docscrawl/internal/convert"
	"github.com/RecoveryAshes/docscrawl/internal/crawlers"
	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
)

// DiscoverMenuLinks 发现文档站点的菜单链接并保存为JSON清单
// 生成的文件可直接作为批量抓取(batch命令)的输入
func DiscoverMenuLinks(startURL string, config models.CrawlConfig, inputDir string, headerProvider models.HeaderProvider, selectors []string) (string, error) {
	mc := crawlers.NewMenuCrawler(config, headerProvider, selectors)
	links, err := mc.Discover(startURL)
	if err != nil {
		return "", err
	}

	menuFile := &models.MenuLinksFile{
		StartURL:        startURL,
		TotalLinksFound: len(links),
		MenuLinks:       links,
	}
	if err := menuFile.Validate(); err != nil {
		return "", fmt.Errorf("菜单链接结果无效: %w", err)
	}

	if err := utils.EnsureDir(inputDir); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := menuFile.ToJSON()
	if err != nil {
		return "", fmt.Errorf("序列化菜单链接失败: %w", err)
	}

	filename := fmt.Sprintf("%s_menu_links_%s.json", convert.FilePrefix(startURL), convert.Timestamp())
	outputPath := filepath.Join(inputDir, filename)
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("写入菜单链接文件失败: %w", err)
	}

	utils.Infof("✨ 菜单链接已保存: %s (%d 个链接)", outputPath, len(links))
	return outputPath, nil
}
