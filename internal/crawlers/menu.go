package crawlers

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
	"github.com/go-rod/rod"
)

// DefaultMenuSelectors 菜单容器的默认CSS选择器
// 覆盖常见文档站点的导航结构
var DefaultMenuSelectors = []string{
	"nav",
	"aside",
	".sidebar",
	".menu",
	".toc",
	"[role=navigation]",
}

// 菜单展开的最大尝试轮数
const maxExpandAttempts = 10

// MenuCrawler 菜单链接发现器
// 职责: 从文档站点首页发现导航菜单中的所有同站链接,生成URL清单
type MenuCrawler struct {
	config models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider

	// 菜单容器选择器,为空时使用DefaultMenuSelectors
	selectors []string
}

// NewMenuCrawler 创建菜单链接发现器
func NewMenuCrawler(config models.CrawlConfig, headerProvider models.HeaderProvider, selectors []string) *MenuCrawler {
	if len(selectors) == 0 {
		selectors = DefaultMenuSelectors
	}

	return &MenuCrawler{
		config:         config,
		headerProvider: headerProvider,
		selectors:      selectors,
	}
}

// Discover 发现起始页面菜单中的所有同站链接
// 返回排序去重后的URL列表,起始URL始终包含在内
func (mc *MenuCrawler) Discover(startURL string) ([]string, error) {
	parsedStart, err := url.Parse(startURL)
	if err != nil || parsedStart.Host == "" {
		return nil, fmt.Errorf("起始URL格式无效: %s", startURL)
	}

	utils.Infof("🔍 开始发现菜单链接: %s", startURL)

	var rawLinks []string
	if mc.config.Mode == models.ModeHTTP {
		rawLinks, err = mc.discoverWithHTTP(startURL)
	} else {
		rawLinks, err = mc.discoverWithBrowser(startURL)
	}
	if err != nil {
		return nil, err
	}

	// 归一化并过滤同站链接
	seen := make(map[string]bool)
	links := make([]string, 0, len(rawLinks)+1)

	// 起始URL始终包含
	if normalized, ok := normalizeMenuLink(startURL, parsedStart.Host); ok {
		seen[normalized] = true
		links = append(links, normalized)
	}

	for _, link := range rawLinks {
		normalized, ok := normalizeMenuLink(link, parsedStart.Host)
		if !ok {
			continue
		}
		if !seen[normalized] {
			seen[normalized] = true
			links = append(links, normalized)
		}
	}

	sort.Strings(links)

	utils.Infof("📊 菜单链接发现完成,共 %d 个链接", len(links))
	return links, nil
}

// discoverWithBrowser 浏览器模式发现菜单链接
// 先展开折叠的菜单项,再从菜单容器中提取所有链接
func (mc *MenuCrawler) discoverWithBrowser(startURL string) ([]string, error) {
	queue := NewURLQueue()
	defer queue.Close()

	fetcher, err := NewBrowserFetcher(mc.config, mc.headerProvider, queue)
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	defer fetcher.Close()

	page, err := fetcher.Page()
	if err != nil {
		return nil, fmt.Errorf("获取标签页失败: %w", err)
	}
	defer fetcher.ReleasePage(page)

	// 菜单发现请求同样注入自定义HTTP头部
	if router := fetcher.setupHeaderInjection(page); router != nil {
		defer func() {
			if stopErr := router.Stop(); stopErr != nil {
				utils.Debugf("停止请求拦截失败: %v", stopErr)
			}
		}()
	}

	if err := page.Navigate(startURL); err != nil {
		return nil, fmt.Errorf("导航失败 [%s]: %w", startURL, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("等待页面加载失败 [%s]: %w", startURL, err)
	}

	// 额外等待时间(等待动态菜单渲染)
	time.Sleep(time.Duration(mc.config.WaitTime) * time.Second)

	// 逐轮展开折叠的菜单项,直到没有新的可展开项
	for attempt := 0; attempt < maxExpandAttempts; attempt++ {
		expanded, err := mc.expandMenus(page)
		if err != nil {
			utils.Warnf("展开菜单失败 [%s]: %v", startURL, err)
			break
		}
		if expanded == 0 {
			break
		}

		utils.Debugf("第%d轮展开了 %d 个菜单项", attempt+1, expanded)
		time.Sleep(500 * time.Millisecond)
	}

	// 从菜单容器中提取链接
	result, err := page.Evaluate(&rod.EvalOptions{
		JS: `(selectors) => {
			var anchors = [];
			var seen = {};

			var collect = function(root) {
				var elements = root.querySelectorAll('a[href]');
				for (var i = 0; i < elements.length; i++) {
					var href = elements[i].href;
					if (href && (href.indexOf('http://') === 0 || href.indexOf('https://') === 0) && !seen[href]) {
						seen[href] = true;
						anchors.push(href);
					}
				}
			};

			var matched = false;
			for (var j = 0; j < selectors.length; j++) {
				var containers;
				try {
					containers = document.querySelectorAll(selectors[j]);
				} catch (e) {
					continue;
				}
				for (var k = 0; k < containers.length; k++) {
					matched = true;
					collect(containers[k]);
				}
			}

			// 没有匹配的菜单容器时,回退到整个页面
			if (!matched) {
				collect(document);
			}

			return anchors;
		}`,
		JSArgs: []interface{}{mc.selectors},
	})
	if err != nil {
		return nil, fmt.Errorf("执行JavaScript提取链接失败: %w", err)
	}

	links := []string{}
	if result.Value.Arr() != nil {
		for _, item := range result.Value.Arr() {
			if item.Str() != "" {
				links = append(links, item.Str())
			}
		}
	}

	return links, nil
}

// expandMenus 点击一轮可展开的菜单项,返回本轮展开的数量
func (mc *MenuCrawler) expandMenus(page *rod.Page) (int, error) {
	result, err := page.Evaluate(&rod.EvalOptions{
		JS: `() => {
			var clicked = 0;

			// details元素直接设置open属性
			var details = document.querySelectorAll('details:not([open])');
			for (var i = 0; i < details.length; i++) {
				try {
					details[i].open = true;
					clicked++;
				} catch (e) {
					// ignore
				}
			}

			// aria-expanded=false的可展开项
			var expanders = document.querySelectorAll('[aria-expanded="false"]');
			for (var j = 0; j < expanders.length; j++) {
				try {
					expanders[j].click();
					clicked++;
				} catch (e) {
					// ignore
				}
			}

			return clicked;
		}`,
	})
	if err != nil {
		return 0, fmt.Errorf("执行JavaScript展开菜单失败: %w", err)
	}

	return int(result.Value.Int()), nil
}

// discoverWithHTTP HTTP模式发现菜单链接
// 不执行JS,直接解析静态HTML中的所有链接
func (mc *MenuCrawler) discoverWithHTTP(startURL string) ([]string, error) {
	fetcher := NewHTTPFetcher(mc.config, mc.headerProvider)
	defer fetcher.Close()

	result, err := fetcher.Fetch(startURL)
	if err != nil {
		return nil, err
	}

	return ExtractLinks(result.HTML, startURL)
}

// normalizeMenuLink 归一化菜单链接
// 过滤跨域链接,去掉fragment,去掉末尾斜杠
func normalizeMenuLink(link string, host string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", false
	}

	// 只保留同站链接
	if parsed.Host != host {
		return "", false
	}

	// 去掉fragment(页内锚点指向同一页面)
	parsed.Fragment = ""

	normalized := strings.TrimRight(parsed.String(), "/")
	if normalized == "" {
		return "", false
	}

	return normalized, true
}
