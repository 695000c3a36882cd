package pdf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// defaultFetchTimeout 默认下载超时时间
	defaultFetchTimeout = 30 * time.Second
	// defaultMaxRedirects 默认最大重定向次数
	defaultMaxRedirects = 5
	// defaultMaxSize 默认响应体大小上限(10MiB)
	defaultMaxSize = 10 << 20
	// defaultUserAgent 浏览器风格的User-Agent，部分站点会拒绝非浏览器请求
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// FetcherConfig 远程下载器配置
type FetcherConfig struct {
	Timeout      time.Duration // 请求超时时间
	MaxRedirects int           // 最大重定向次数
	MaxSize      int64         // 响应体大小上限(字节)
	UserAgent    string        // User-Agent请求头
}

// DefaultFetcherConfig 返回默认下载器配置
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Timeout:      defaultFetchTimeout,
		MaxRedirects: defaultMaxRedirects,
		MaxSize:      defaultMaxSize,
		UserAgent:    defaultUserAgent,
	}
}

// Fetcher 远程PDF下载器
// 从外部URL下载PDF字节流并进行格式校验
type Fetcher struct {
	config     FetcherConfig
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewFetcher 创建一个新的远程下载器
func NewFetcher(config FetcherConfig, logger *logrus.Logger) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = defaultFetchTimeout
	}
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = defaultMaxRedirects
	}
	if config.MaxSize <= 0 {
		config.MaxSize = defaultMaxSize
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if logger == nil {
		logger = logrus.New()
	}

	maxRedirects := config.MaxRedirects
	client := &http.Client{
		Timeout: config.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	return &Fetcher{
		config:     config,
		httpClient: client,
		logger:     logger,
	}
}

// Fetch 从URL下载PDF并返回校验通过的字节流
// 失败时按原因映射为超时/不存在/拒绝访问/下载失败错误
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, ErrDownloadTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// 继续处理
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusForbidden:
		return nil, ErrAccessDenied
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrDownloadFailed, resp.StatusCode)
	}

	// 声明的内容类型不是PDF时只记录警告，不中断处理
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "application/pdf") {
		f.logger.WithFields(logrus.Fields{
			"url":          rawURL,
			"content_type": contentType,
		}).Warnf("Content-Type is %s, not application/pdf", contentType)
	}

	// 限制读取大小，防止超大响应耗尽内存
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxSize+1))
	if err != nil {
		if isTimeoutError(err) {
			return nil, ErrDownloadTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if int64(len(data)) > f.config.MaxSize {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrDownloadFailed, f.config.MaxSize)
	}

	// 下载结果同样要通过PDF格式校验，校验错误原样向上传递
	if err := ValidateBuffer(data); err != nil {
		return nil, err
	}

	return data, nil
}

// isTimeoutError 判断错误是否由连接或读取超时引起
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	return false
}
