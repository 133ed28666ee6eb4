package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"   // 待执行
	TaskStatusRunning   TaskStatus = "running"   // 执行中
	TaskStatusCompleted TaskStatus = "completed" // 已完成
	TaskStatusFailed    TaskStatus = "failed"    // 失败
	TaskStatusCancelled TaskStatus = "cancelled" // 已取消
)

// FetchMode 页面抓取模式
type FetchMode string

const (
	ModeBrowser FetchMode = "browser" // 无头浏览器渲染(支持JS页面)
	ModeHTTP    FetchMode = "http"    // 纯HTTP抓取
)

// TaskStats 任务统计
type TaskStats struct {
	TotalURLs      int     `json:"total_urls"`      // 总URL数
	SuccessPages   int     `json:"success_pages"`   // 成功抓取页面数
	FailedPages    int     `json:"failed_pages"`    // 失败页面数
	DuplicatePages int     `json:"duplicate_pages"` // 内容重复页面数
	SkippedPages   int     `json:"skipped_pages"`   // 跳过页面数(断点恢复)
	TotalSize      int64   `json:"total_size"`      // Markdown总大小(字节)
	Duration       float64 `json:"duration"`        // 总耗时(秒)
	BrowserRestarts int    `json:"browser_restarts,omitempty"` // 浏览器重启次数
}

// CrawlConfig 抓取配置
type CrawlConfig struct {
	WaitTime        int       `json:"wait_time"`         // 页面渲染等待时间(秒) (默认:3)
	Tabs            int       `json:"tabs"`              // 浏览器标签页数量上限 (默认:4)
	Headless        bool      `json:"headless"`          // 无头模式 (默认:true)
	Mode            FetchMode `json:"mode"`              // 抓取模式 (browser|http)
	BatchDelay      int       `json:"batch_delay"`       // URL之间延迟(秒)
	ContinueOnError bool      `json:"continue_on_error"` // 遇到错误继续
	Resume          bool      `json:"resume"`            // 是否从检查点恢复

	// 资源限制配置
	SafetyReserveMemory int `json:"safety_reserve_memory"` // 安全保留内存(MB)
	SafetyThreshold     int `json:"safety_threshold"`      // 安全阈值(MB)
	CPULoadThreshold    int `json:"cpu_load_threshold"`    // CPU负载阈值(%)
	MaxTabsLimit        int `json:"max_tabs_limit"`        // 绝对最大标签页数
}

// Validate 验证配置
func (c *CrawlConfig) Validate() error {
	if c.WaitTime < 0 || c.WaitTime > 60 {
		return fmt.Errorf("等待时间必须在0-60秒之间")
	}
	if c.Tabs < 1 || c.Tabs > 20 {
		return fmt.Errorf("标签页数必须在1-20之间")
	}
	if c.Mode != ModeBrowser && c.Mode != ModeHTTP {
		return fmt.Errorf("无效的抓取模式: %s", c.Mode)
	}
	if c.BatchDelay < 0 || c.BatchDelay > 300 {
		return fmt.Errorf("批量延迟必须在0-300秒之间")
	}
	return nil
}

// CrawlTask 文档抓取任务
type CrawlTask struct {
	// 基本信息
	ID          string     `json:"id"`                     // 任务唯一ID (UUID)
	TargetURL   string     `json:"target_url"`             // 目标URL
	Domain      string     `json:"domain"`                 // 解析的域名
	CreatedAt   time.Time  `json:"created_at"`             // 创建时间
	StartedAt   *time.Time `json:"started_at,omitempty"`   // 开始时间
	CompletedAt *time.Time `json:"completed_at,omitempty"` // 完成时间

	// 配置参数
	Config CrawlConfig `json:"config"` // 抓取配置

	// 执行状态
	Status TaskStatus `json:"status"` // 任务状态
	Mode   FetchMode  `json:"mode"`   // 抓取模式

	// 统计信息
	Stats TaskStats `json:"stats"` // 任务统计

	// 错误信息
	ErrorMessage string `json:"error_message,omitempty"` // 错误消息
}

// NewCrawlTask 创建新任务
func NewCrawlTask(targetURL string, config CrawlConfig) (*CrawlTask, error) {
	if err := ValidateURL(targetURL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	parsed, _ := url.Parse(targetURL)
	domain := parsed.Host

	return &CrawlTask{
		ID:        generateID(),
		TargetURL: targetURL,
		Domain:    domain,
		CreatedAt: time.Now(),
		Config:    config,
		Status:    TaskStatusPending,
		Mode:      config.Mode,
		Stats:     TaskStats{},
	}, nil
}

// ToJSON 序列化为JSON
func (t *CrawlTask) ToJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// FromJSON 从JSON反序列化
func (t *CrawlTask) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}
