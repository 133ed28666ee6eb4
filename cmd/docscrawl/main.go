package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/RecoveryAshes/docscrawl/internal/core"
	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 命令行参数
var (
	// 全局参数
	configFile string
	verbose    bool
	logLevel   string

	// HTTP头部参数
	headers        []string // 自定义HTTP请求头
	validateConfig bool     // 验证配置文件

	// 抓取参数
	waitTime int
	tabs     int
	headless bool
	mode     string
	docsDir  string

	// 批量处理参数
	batchDelay      int
	continueOnError bool
	resume          bool
	outputPrefix    string

	// Sitemap参数
	sitemapMaxDepth int
	sitemapPatterns []string

	// 菜单发现参数
	menuSelectors []string
	inputDir      string
)

var rootCmd = &cobra.Command{
	Use:   "docscrawl",
	Short: "文档站点抓取和Markdown转换工具",
	Long: `docscrawl - 文档站点抓取和Markdown转换工具 (Go版本)

这是一个专门用于抓取在线文档并转换为Markdown的工具,支持:
  • 浏览器和HTTP两种抓取模式
  • 单页抓取和URL列表批量抓取
  • Sitemap驱动的全站抓取
  • 导航菜单链接自动发现
  • 断点续抓功能
  • 自定义HTTP请求头

使用示例:
  # 单页抓取
  docscrawl crawl https://docs.example.com/guide

  # 批量抓取URL列表
  docscrawl batch urls.txt --tabs 4

  # Sitemap全站抓取
  docscrawl sitemap https://docs.example.com/sitemap.xml --patterns "/docs/"

  # 发现菜单链接
  docscrawl menu https://docs.example.com

  # 自定义HTTP头部
  docscrawl crawl https://docs.example.com -H "Authorization: Bearer token"

  # 验证头部配置文件
  docscrawl --validate-config

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		// 初始化日志系统
		logConfig := utils.LogConfig{
			Level:      config.Logging.Level,
			LogDir:     config.Logging.LogDir,
			MaxSize:    config.Logging.Rotation.MaxSize,
			MaxBackups: config.Logging.Rotation.MaxBackups,
			MaxAge:     config.Logging.Rotation.MaxAge,
			Compress:   config.Logging.Rotation.Compress,
		}

		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		}

		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if verbose {
			utils.Info("详细模式已启用")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// 如果用户请求验证头部配置
		if validateConfig {
			return runValidateConfig()
		}

		return cmd.Help()
	},
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "抓取单个文档页面",
	Long: `抓取单个文档页面,转换为Markdown并保存。

输出文件: {输出目录}/{域名前缀}_{时间戳}.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupSignalHandler()

		targetURL, err := NormalizeURL(args[0])
		if err != nil {
			return fmt.Errorf("无效的目标URL: %w", err)
		}

		crawlConfig, _, headerManager, err := buildCrawlSetup()
		if err != nil {
			return err
		}

		if err := ValidateFlags(targetURL, waitTime, tabs, mode); err != nil {
			return err
		}

		crawler, err := core.NewCrawler(targetURL, crawlConfig, docsDir, headerManager)
		if err != nil {
			return fmt.Errorf("创建抓取器失败: %w", err)
		}

		outputPath, err := crawler.Crawl()
		if err != nil {
			return fmt.Errorf("抓取失败: %w", err)
		}

		// 显示统计结果
		printStats(crawler.GetStats(), outputPath)

		utils.Info("✨ 抓取任务完成!")
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch <url-list-file>",
	Short: "批量抓取URL列表",
	Long: `从URL列表文件批量抓取页面,合并为单个Markdown文档。

支持两种列表格式:
  • 文本文件: 每行一个URL,#开头的行为注释
  • JSON文件: menu命令生成的菜单链接清单(menu_links数组)

文件不存在时会在 input_files/ 目录下二次查找。
输出文件: {输出目录}/{前缀}_docs_content_{时间戳}.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupSignalHandler()

		sourceFile := args[0]
		crawlConfig, appConfig, headerManager, err := buildCrawlSetup()
		if err != nil {
			return err
		}

		if err := ValidateFlags("", waitTime, tabs, mode); err != nil {
			return err
		}

		batchCrawler := core.NewBatchCrawler(sourceFile, crawlConfig, docsDir, appConfig.Output.CheckpointDir, headerManager)

		if _, err := batchCrawler.Crawl(outputPrefix); err != nil {
			return fmt.Errorf("批量抓取失败: %w", err)
		}

		utils.Info("✨ 批量抓取任务完成!")
		return nil
	},
}

var sitemapCmd = &cobra.Command{
	Use:   "sitemap <sitemap-url>",
	Short: "Sitemap驱动的全站抓取",
	Long: `解析sitemap.xml收集所有页面URL,批量抓取并合并为单个Markdown文档。

sitemap索引(sitemapindex)会被递归展开,默认最多10层。
可通过 --patterns 按URL子串过滤页面。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupSignalHandler()

		sitemapURL, err := NormalizeURL(args[0])
		if err != nil {
			return fmt.Errorf("无效的Sitemap URL: %w", err)
		}

		crawlConfig, appConfig, headerManager, err := buildCrawlSetup()
		if err != nil {
			return err
		}

		if err := ValidateFlags(sitemapURL, waitTime, tabs, mode); err != nil {
			return err
		}

		outputPath, err := core.CrawlSitemap(sitemapURL, crawlConfig, docsDir, appConfig.Output.CheckpointDir, headerManager, sitemapMaxDepth, sitemapPatterns, outputPrefix)
		if err != nil {
			return fmt.Errorf("Sitemap抓取失败: %w", err)
		}

		utils.Infof("✨ Sitemap抓取任务完成! 输出: %s", outputPath)
		return nil
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu <start-url>",
	Short: "发现文档站点的菜单链接",
	Long: `从文档站点首页发现导航菜单中的所有同站链接,保存为JSON清单。

浏览器模式会先展开折叠的菜单项再提取链接。
生成的文件可直接作为batch命令的输入:

  docscrawl menu https://docs.example.com
  docscrawl batch input_files/example_docs_menu_links_20260829_120000.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setupSignalHandler()

		startURL, err := NormalizeURL(args[0])
		if err != nil {
			return fmt.Errorf("无效的起始URL: %w", err)
		}

		crawlConfig, _, headerManager, err := buildCrawlSetup()
		if err != nil {
			return err
		}

		if err := ValidateFlags(startURL, waitTime, tabs, mode); err != nil {
			return err
		}

		outputPath, err := core.DiscoverMenuLinks(startURL, crawlConfig, inputDir, headerManager, menuSelectors)
		if err != nil {
			return fmt.Errorf("菜单链接发现失败: %w", err)
		}

		utils.Infof("✨ 菜单链接发现完成! 输出: %s", outputPath)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docscrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
		fmt.Println("Go实现版本 - 文档站点抓取和Markdown转换工具")
	},
}

// buildCrawlSetup 构建抓取配置、应用配置和HTTP头部管理器
func buildCrawlSetup() (models.CrawlConfig, *core.Config, models.HeaderProvider, error) {
	appConfig, err := core.LoadConfig(configFile)
	if err != nil {
		return models.CrawlConfig{}, nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 命令行参数覆盖配置文件
	appConfig.MergeCLIFlags(waitTime, tabs, headless, mode, batchDelay, continueOnError, resume)
	crawlConfig := appConfig.GetCrawlConfig()

	// 创建HTTP头部管理器
	headerManager, err := core.NewHeaderManager(configFile, headers)
	if err != nil {
		return models.CrawlConfig{}, nil, nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}

	return crawlConfig, appConfig, headerManager, nil
}

// runValidateConfig 验证HTTP头部配置
func runValidateConfig() error {
	utils.Info("🔍 验证HTTP头部配置...")

	headerManager, err := core.NewHeaderManager(configFile, headers)
	if err != nil {
		return fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	if err := headerManager.LoadConfig(); err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	if err := headerManager.Validate(); err != nil {
		return fmt.Errorf("配置验证失败: %w", err)
	}

	// 显示合并后的头部(脱敏)
	safeHeaders := headerManager.GetSafeHeaders()
	utils.Info("✅ 配置验证通过!")
	utils.Infof("当前有效的HTTP头部 (%d个):", len(safeHeaders))
	for name, value := range safeHeaders {
		utils.Infof("  %s: %s", name, value)
	}
	return nil
}

// setupSignalHandler 设置信号处理(Ctrl+C优雅退出)
func setupSignalHandler() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		utils.Warnf("\n收到中断信号: %v, 正在优雅关闭...", sig)
		os.Exit(0)
	}()
}

// printStats 打印单页抓取统计结果
func printStats(stats models.TaskStats, outputPath string) {
	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("📊 抓取统计")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("✅ 成功页面: %d\n", stats.SuccessPages)
	fmt.Printf("❌ 失败页面: %d\n", stats.FailedPages)
	if stats.BrowserRestarts > 0 {
		fmt.Printf("🔧 浏览器重启: %d\n", stats.BrowserRestarts)
	}
	fmt.Printf("📦 输出大小: %.2f MB\n", float64(stats.TotalSize)/(1024*1024))
	fmt.Printf("⏱️  总耗时: %.2f秒\n", stats.Duration)
	fmt.Printf("✨ 输出文件: %s\n", outputPath)
	fmt.Println(strings.Repeat("=", 50))
}

func init() {
	// 全局参数
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")

	// HTTP头部参数
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")
	rootCmd.PersistentFlags().BoolVar(&validateConfig, "validate-config", false, "验证配置文件正确性")

	// 抓取参数(各抓取子命令共享)
	for _, cmd := range []*cobra.Command{crawlCmd, batchCmd, sitemapCmd, menuCmd} {
		cmd.Flags().IntVarP(&waitTime, "wait", "w", 3, "页面渲染等待时间(秒)")
		cmd.Flags().IntVar(&tabs, "tabs", 4, "浏览器标签页数量")
		cmd.Flags().BoolVar(&headless, "headless", true, "无头浏览器模式")
		cmd.Flags().StringVarP(&mode, "mode", "m", "browser", "抓取模式 (browser|http)")
	}
	crawlCmd.Flags().StringVarP(&docsDir, "output", "o", "scraped_docs", "Markdown输出目录")
	batchCmd.Flags().StringVarP(&docsDir, "output", "o", "scraped_docs", "Markdown输出目录")
	sitemapCmd.Flags().StringVarP(&docsDir, "output", "o", "scraped_docs", "Markdown输出目录")

	// 批量处理参数
	batchCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理URL间延迟(秒)")
	batchCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")
	batchCmd.Flags().BoolVar(&resume, "resume", false, "从检查点恢复")
	batchCmd.Flags().StringVar(&outputPrefix, "output-prefix", "", "输出文件名前缀,默认基于第一个URL生成")
	sitemapCmd.Flags().IntVar(&batchDelay, "batch-delay", 1, "批量处理URL间延迟(秒)")
	sitemapCmd.Flags().BoolVar(&continueOnError, "continue-on-error", true, "遇到错误继续处理")
	sitemapCmd.Flags().BoolVar(&resume, "resume", false, "从检查点恢复")
	sitemapCmd.Flags().StringVar(&outputPrefix, "output-prefix", "", "输出文件名前缀,默认基于站点域名生成")

	// Sitemap参数
	sitemapCmd.Flags().IntVar(&sitemapMaxDepth, "max-depth", 10, "sitemap索引递归最大深度")
	sitemapCmd.Flags().StringSliceVar(&sitemapPatterns, "patterns", []string{}, "URL过滤模式(子串匹配),可多次指定")

	// 菜单发现参数
	menuCmd.Flags().StringSliceVar(&menuSelectors, "selectors", []string{}, "菜单容器CSS选择器,可多次指定")
	menuCmd.Flags().StringVarP(&inputDir, "output", "o", "input_files", "菜单链接清单输出目录")

	// 添加子命令
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(sitemapCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
