package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/spf13/viper"
)

// Config 应用程序配置
type Config struct {
	Crawl    models.CrawlConfig `mapstructure:"crawl"`
	Logging  LoggingConfig      `mapstructure:"logging"`
	Output   OutputConfig       `mapstructure:"output"`
	Resource ResourceConfig     `mapstructure:"resource"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	DocsDir       string `mapstructure:"docs_dir"`       // Markdown输出目录
	InputDir      string `mapstructure:"input_dir"`      // 菜单链接输出目录
	CheckpointDir string `mapstructure:"checkpoint_dir"` // 检查点目录
}

// ResourceConfig 资源限制配置
type ResourceConfig struct {
	SafetyReserveMemory int `mapstructure:"safety_reserve_memory"` // MB
	SafetyThreshold     int `mapstructure:"safety_threshold"`      // MB
	CPULoadThreshold    int `mapstructure:"cpu_load_threshold"`    // %
	MaxTabsLimit        int `mapstructure:"max_tabs_limit"`
}

// LoadConfig 加载配置文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// 设置配置文件
	if configPath != "" {
		// 使用指定的配置文件
		v.SetConfigFile(configPath)
	} else {
		// 搜索默认位置
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 添加配置搜索路径
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")

		// 用户主目录
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".docscrawl"))
		}
	}

	// 设置默认值
	setDefaults(v)

	// 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// 如果配置文件不存在,使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	// 解析配置
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 抓取配置默认值
	v.SetDefault("crawl.wait_time", 3)
	v.SetDefault("crawl.tabs", 4)
	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.mode", string(models.ModeBrowser))
	v.SetDefault("crawl.batch_delay", 1)
	v.SetDefault("crawl.continue_on_error", true)
	v.SetDefault("crawl.resume", false)

	// 日志配置默认值
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 输出配置默认值
	v.SetDefault("output.docs_dir", "scraped_docs")
	v.SetDefault("output.input_dir", "input_files")
	v.SetDefault("output.checkpoint_dir", "checkpoints")

	// 资源配置默认值
	v.SetDefault("resource.safety_reserve_memory", 1024)
	v.SetDefault("resource.safety_threshold", 500)
	v.SetDefault("resource.cpu_load_threshold", 80)
	v.SetDefault("resource.max_tabs_limit", 16)
}

// GetCrawlConfig 从配置中提取抓取配置(含资源限制)
func (c *Config) GetCrawlConfig() models.CrawlConfig {
	cfg := c.Crawl
	cfg.SafetyReserveMemory = c.Resource.SafetyReserveMemory
	cfg.SafetyThreshold = c.Resource.SafetyThreshold
	cfg.CPULoadThreshold = c.Resource.CPULoadThreshold
	cfg.MaxTabsLimit = c.Resource.MaxTabsLimit
	return cfg
}

// MergeCLIFlags 合并命令行参数到配置
// 命令行参数优先于配置文件
func (c *Config) MergeCLIFlags(
	waitTime int,
	tabs int,
	headless bool,
	mode string,
	batchDelay int,
	continueOnError bool,
	resume bool,
) {
	if waitTime >= 0 {
		c.Crawl.WaitTime = waitTime
	}
	if tabs > 0 {
		c.Crawl.Tabs = tabs
	}
	c.Crawl.Headless = headless
	if mode != "" {
		c.Crawl.Mode = models.FetchMode(mode)
	}
	if batchDelay >= 0 {
		c.Crawl.BatchDelay = batchDelay
	}
	c.Crawl.ContinueOnError = continueOnError
	c.Crawl.Resume = resume
}
