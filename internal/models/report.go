package models

import (
	"encoding/json"
	"time"
)

// CrawlReport 抓取报告
type CrawlReport struct {
	// 任务信息
	TaskID     string    `json:"task_id"`
	SourceFile string    `json:"source_file,omitempty"` // 批量模式的源列表文件
	TargetURL  string    `json:"target_url,omitempty"`  // 单页模式的目标URL
	Mode       FetchMode `json:"mode"`

	// 时间信息
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Duration  float64   `json:"duration"` // 秒

	// 统计信息
	Stats TaskStats `json:"stats"`

	// 页面结果
	SuccessPages []PageInfo       `json:"success_pages"` // 成功抓取的页面
	FailedPages  []FailedPageInfo `json:"failed_pages"`  // 失败页面

	// 输出路径
	OutputFile string `json:"output_file"` // 合并Markdown文件
	ReportDir  string `json:"report_dir"`  // 报告目录

	// 配置快照
	Config CrawlConfig `json:"config"`
}

// PageInfo 成功页面信息
type PageInfo struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	FetchMode   FetchMode `json:"fetch_mode"`
	IsDuplicate bool      `json:"is_duplicate"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// FailedPageInfo 失败页面信息
type FailedPageInfo struct {
	URL       string `json:"url"`
	ErrorType string `json:"error_type"` // timeout, network_error, convert_error等
	ErrorMsg  string `json:"error_msg"`
	Retries   int    `json:"retries"`
}

// ToJSON 序列化为JSON
func (r *CrawlReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// FromJSON 从JSON反序列化
func (r *CrawlReport) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}
