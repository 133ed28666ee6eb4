// Package crawlers 提供文档页面抓取功能
//
// # 概述
//
// crawlers包实现了浏览器(go-rod)和HTTP(Colly)两种页面抓取模式,
// 以及Sitemap解析和菜单链接发现两种URL来源。
// 核心特性包括:按需创建标签页、实时资源监控、崩溃自动重启、自定义头部注入。
//
// # 核心组件
//
// ## PageFetcher (抓取器接口)
//
// 浏览器模式和HTTP模式的统一抽象,调用方按FetchMode选择实现:
//
//	var fetcher PageFetcher
//	if config.Mode == models.ModeBrowser {
//	    fetcher, err = NewBrowserFetcher(config, headerProvider, queue)
//	} else {
//	    fetcher = NewHTTPFetcher(config, headerProvider)
//	}
//	defer fetcher.Close()
//
//	result, err := fetcher.Fetch("https://docs.example.com/guide")
//
// ## BrowserFetcher
//
// 基于go-rod的浏览器抓取器,支持JavaScript渲染和请求头注入。
// 页面加载完成后额外等待wait_time秒,确保动态内容渲染完毕。
// 浏览器崩溃时自动重启,最多重试3次。
//
// ## HTTPFetcher
//
// 基于Colly的HTTP抓取器,不启动浏览器,速度快但无法执行JS。
// 自动解压gzip/deflate/brotli响应,从<title>或首个<h1>提取页面标题。
//
// ## SitemapCrawler
//
// 解析sitemap.xml收集页面URL,sitemap索引(sitemapindex)递归展开,
// 默认最多10层。支持按子串模式过滤URL。
//
//	smc := NewSitemapCrawler(config, headerProvider, 10, []string{"/docs/"})
//	urls, err := smc.Collect("https://docs.example.com/sitemap.xml")
//
// ## MenuCrawler
//
// 从文档站点首页发现导航菜单中的所有同站链接。
// 浏览器模式会先逐轮展开折叠的菜单项(details/aria-expanded),
// 再从nav/aside/.sidebar等菜单容器中提取链接;
// HTTP模式直接解析静态HTML。结果排序去重,始终包含起始URL。
//
//	mc := NewMenuCrawler(config, headerProvider, nil)
//	links, err := mc.Discover("https://docs.example.com")
//
// ## PagePool (标签页池)
//
// 管理浏览器标签页的生命周期,动态调整数量(1-maxTabs)。
// 核心策略:
//   - 启动时创建1个标签页
//   - 根据队列长度按需增长
//   - 队列为空时缩减至1个标签页
//   - 创建前检查ResourceMonitor资源限制
//
// ## ResourceMonitor (资源监控器)
//
// 实时监控系统可用内存和CPU负载,动态计算标签页上限。
// 渐进式降级策略:
//   - 可用内存 < 500MB: 暂停创建新标签页 (警告日志)
//   - 可用内存 < 300MB: 主动缩减至当前标签页数的50% (警告日志)
//   - 可用内存 < 200MB: 紧急缩减至1个标签页 (错误日志)
//
// ## URLQueue (抓取队列)
//
// 并发安全的抓取队列管理器,支持Push/Pop/MarkFetched操作。
// 基于channel实现的待处理队列和map实现的已完成集合,
// 批量抓取的worker pool从该队列拉取URL。
//
//	queue := NewURLQueue()
//	defer queue.Close()
//
//	err := queue.Push("https://docs.example.com/page1", 0)
//	url, index, ok := queue.Pop(ctx)
//	queue.MarkFetched(url)
//
// # 配置参数
//
// ## 资源优化配置 (configs/config.yaml)
//
//	resource:
//	  safety_reserve_memory: 1024  # 系统预留内存(MB)
//	  safety_threshold: 500        # 可用内存阈值(MB)
//	  cpu_load_threshold: 80       # CPU负载阈值(%)
//	  max_tabs_limit: 16           # 绝对最大标签页数
//
//	crawl:
//	  wait_time: 3                 # 页面加载后的等待秒数
//	  tabs: 4                      # 批量抓取的并发标签页数
//	  mode: browser                # browser或http
//
// # 并发安全
//
// 所有核心组件都是并发安全的:
//   - URLQueue: channel + sync.RWMutex
//   - PagePool: channel + sync.Mutex
//   - ResourceMonitor: sync.RWMutex
//   - SitemapCrawler: sync.Mutex
//
// # 错误处理
//
//   - 浏览器崩溃: panic被捕获并转换为ErrBrowserCrashed,自动重启浏览器重试
//   - 空页面: 返回包装了ErrEmptyContent的错误
//   - 资源不足: 日志记录警告/错误信息,暂停创建或主动缩减标签页
package crawlers
