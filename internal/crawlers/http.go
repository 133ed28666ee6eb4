package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RecoveryAshes/docscrawl/internal/models"
	"github.com/RecoveryAshes/docscrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"github.com/google/uuid"
)

// HTTPFetcher HTTP抓取器(使用Colly)
// 适用于静态渲染的文档站点,不启动浏览器,速度快但无法执行JS
type HTTPFetcher struct {
	collector *colly.Collector
	config    models.CrawlConfig

	// HTTP头部提供者
	headerProvider models.HeaderProvider
}

// NewHTTPFetcher 创建HTTP抓取器
func NewHTTPFetcher(config models.CrawlConfig, headerProvider models.HeaderProvider) *HTTPFetcher {
	// 创建自定义HTTP客户端,禁用TLS证书验证
	// HTTP超时时间基于配置文件的 wait_time 值(秒),最少10秒
	httpTimeout := time.Duration(config.WaitTime) * time.Second
	if httpTimeout < 10*time.Second {
		httpTimeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true, // 跳过证书验证,允许访问自签名、过期或主机名不匹配的HTTPS站点
			},
		},
		Timeout: httpTimeout,
	}
	utils.Debugf("HTTP抓取器: 超时设置为 %d 秒 (wait_time=%d)", int(httpTimeout.Seconds()), config.WaitTime)

	// 创建Colly collector
	// AllowURLRevisit: 去重由上层负责,同一URL允许重复抓取(断点恢复场景)
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)

	// 设置自定义HTTP客户端 (包含TLS配置和超时设置)
	c.SetClient(httpClient)
	c.WithTransport(httpClient.Transport)
	c.SetRequestTimeout(httpTimeout)
	utils.Debugf("HTTP抓取器: TLS证书验证已禁用,适用于内网/开发环境的自签名证书")

	return &HTTPFetcher{
		collector:      c,
		config:         config,
		headerProvider: headerProvider,
	}
}

// Fetch 抓取单个页面
func (hf *HTTPFetcher) Fetch(pageURL string) (*models.PageResult, error) {
	startTime := time.Now()

	var html string
	var fetchErr error

	// 每次抓取克隆collector,避免回调跨URL串扰
	c := hf.collector.Clone()

	c.OnRequest(func(r *colly.Request) {
		// 应用自定义HTTP头部
		applyHeaders(hf.headerProvider, r.Headers.Set)

		utils.Debugf("访问: %s", r.URL.String())
	})

	c.OnResponse(func(r *colly.Response) {
		contentEncoding := r.Headers.Get("Content-Encoding")

		// 解压响应体(如果有压缩)
		body := r.Body
		if contentEncoding != "" {
			decompressed, err := decompressResponse(contentEncoding, r.Body)
			if err != nil {
				utils.Warnf("解压响应失败 [%s] (编码=%s): %v", pageURL, contentEncoding, err)
				// 解压失败,仍然尝试使用原始body
			} else {
				body = decompressed
				utils.Debugf("成功解压响应 [%s]: 原始=%d bytes, 解压后=%d bytes", pageURL, len(r.Body), len(body))
			}
		}

		html = string(body)
	})

	c.OnError(func(r *colly.Response, err error) {
		fetchErr = fmt.Errorf("请求失败 (HTTP %d): %w", r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("访问页面失败 [%s]: %w", pageURL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("抓取页面失败 [%s]: %w", pageURL, fetchErr)
	}
	if html == "" {
		return nil, fmt.Errorf("页面内容为空 [%s]: %w", pageURL, ErrEmptyContent)
	}
	if int64(len(html)) > models.MaxPageSize {
		return nil, fmt.Errorf("页面超过大小限制 [%s]: %d bytes", pageURL, len(html))
	}

	return &models.PageResult{
		ID:        uuid.New().String(),
		URL:       pageURL,
		Title:     ExtractTitle(html),
		HTML:      html,
		Size:      int64(len(html)),
		FetchMode: models.ModeHTTP,
		Success:   true,
		Duration:  time.Since(startTime).Seconds(),
		FetchedAt: time.Now(),
	}, nil
}

// Close 释放资源
// Colly collector无需显式关闭
func (hf *HTTPFetcher) Close() error {
	return nil
}

// decompressResponse 根据Content-Encoding头部解压响应体
// 支持 gzip, deflate, br (Brotli) 三种压缩格式
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))

	switch encoding {
	case "gzip":
		// GZIP解压
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		// Deflate解压
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		// Brotli解压
		reader := brotli.NewReader(bytes.NewReader(body))
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "":
		// 没有压缩,直接返回原始内容
		return body, nil

	default:
		// 未知编码,返回警告但仍然返回原始内容
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}
