package models

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Checkpoint 批量抓取检查点
// 记录已完成的页面,支持 --resume 断点恢复
type Checkpoint struct {
	// 任务信息
	TaskID     string `json:"task_id"`     // 关联的任务ID
	SourceFile string `json:"source_file"` // 源列表文件路径

	// 进度信息
	FetchedURLs []string `json:"fetched_urls"` // 已成功抓取URL列表
	FailedURLs  []string `json:"failed_urls"`  // 失败URL列表

	// 统计信息
	Stats TaskStats `json:"stats"` // 当前统计

	// 时间戳
	CreatedAt time.Time `json:"created_at"` // 检查点创建时间
	UpdatedAt time.Time `json:"updated_at"` // 最后更新时间

	// 配置快照
	Config CrawlConfig `json:"config"` // 配置快照
}

// CheckpointFilename 生成检查点文件名
func CheckpointFilename(prefix string) string {
	return fmt.Sprintf("checkpoint_%s.json", prefix)
}

// IsFetched 检查URL是否已在检查点中标记为完成
func (c *Checkpoint) IsFetched(urlStr string) bool {
	for _, u := range c.FetchedURLs {
		if u == urlStr {
			return true
		}
	}
	return false
}

// MarkFetched 将URL标记为已完成
func (c *Checkpoint) MarkFetched(urlStr string) {
	if !c.IsFetched(urlStr) {
		c.FetchedURLs = append(c.FetchedURLs, urlStr)
	}
	c.UpdatedAt = time.Now()
}

// ToJSON 序列化为JSON
func (c *Checkpoint) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// FromJSON 从JSON反序列化
func (c *Checkpoint) FromJSON(data []byte) error {
	return json.Unmarshal(data, c)
}

// SaveToFile 保存到文件
func (c *Checkpoint) SaveToFile(filepath string) error {
	data, err := c.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadCheckpointFromFile 从文件加载
func LoadCheckpointFromFile(filepath string) (*Checkpoint, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	var cp Checkpoint
	if err := cp.FromJSON(data); err != nil {
		return nil, err
	}

	return &cp, nil
}
