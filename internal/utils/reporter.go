package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/schollz/progressbar/v3"
)

// Reporter 报告生成器
type Reporter struct {
	outputDir string
	prefix    string
}

// NewReporter 创建报告生成器
func NewReporter(outputDir string, prefix string) *Reporter {
	return &Reporter{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// GenerateReport 生成抓取报告
// 报告写入 {outputDir}/reports/ 目录,包含主报告及成功/失败页面清单
func (r *Reporter) GenerateReport(report *models.CrawlReport) error {
	reportsDir := filepath.Join(r.outputDir, "reports")
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}
	report.ReportDir = reportsDir

	// 保存主报告
	if err := r.saveJSONReport(reportsDir, r.prefix+"_report.json", report); err != nil {
		return err
	}

	// 保存成功页面列表
	if err := r.saveJSONReport(reportsDir, r.prefix+"_success_pages.json", report.SuccessPages); err != nil {
		return err
	}

	// 保存失败页面列表
	if err := r.saveJSONReport(reportsDir, r.prefix+"_failed_pages.json", report.FailedPages); err != nil {
		return err
	}

	Infof("✅ 报告已生成: %s", reportsDir)
	return nil
}

// saveJSONReport 保存JSON报告
func (r *Reporter) saveJSONReport(dir string, filename string, data interface{}) error {
	filepath := filepath.Join(dir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	if err := os.WriteFile(filepath, jsonData, 0644); err != nil {
		return fmt.Errorf("写入报告文件失败: %w", err)
	}

	Debugf("保存报告: %s", filepath)
	return nil
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
