package crawlers

import (
	"errors"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
)

// 错误类型定义
var (
	ErrBrowserCrashed    = errors.New("浏览器崩溃")
	ErrMaxRetriesReached = errors.New("已达最大重试次数")
	ErrEmptyContent      = errors.New("页面内容为空")
)

// PageFetcher 页面抓取器接口
// 浏览器模式和HTTP模式的统一抽象,调用方按FetchMode选择实现
type PageFetcher interface {
	// Fetch 抓取单个页面,返回包含原始HTML的结果
	Fetch(pageURL string) (*models.PageResult, error)

	// Close 释放抓取器持有的资源
	Close() error
}

// applyHeaders 将headerProvider的头部逐个写入请求
// provider为nil时不注入,加载失败记警告后跳过
func applyHeaders(provider models.HeaderProvider, set func(name, value string)) {
	if provider == nil {
		return
	}

	headers, err := provider.GetHeaders()
	if err != nil {
		utils.Warnf("获取HTTP头部失败: %v", err)
		return
	}

	for name, values := range headers {
		if len(values) > 0 {
			set(name, values[0])
		}
	}
}
