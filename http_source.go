package gestalt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lifei6671/go-gestalt/loader"
)

// HTTPSource 是一个通过 HTTP(S) 拉取远程配置的 Source 实现。
//
// 格式推断顺序：
//  1. WithHTTPSourceFormat 显式指定
//  2. URL 路径的扩展名（如 /configs/app.yaml）
//  3. 响应头 Content-Type
type HTTPSource struct {
	id      string
	url     string
	method  string
	headers map[string]string
	format  string
	name    string
	client  *http.Client

	// retries 失败后的重试次数，4xx 不重试
	retries uint64

	maxBodySize int64
}

var _ Source = (*HTTPSource)(nil)

// HTTPSourceOption 用于配置 HTTPSource。
type HTTPSourceOption func(*HTTPSource)

// WithHTTPSourceMethod 设置 HTTP 方法，默认 GET。
func WithHTTPSourceMethod(method string) HTTPSourceOption {
	return func(hs *HTTPSource) {
		if strings.TrimSpace(method) == "" {
			return
		}
		hs.method = strings.ToUpper(method)
	}
}

// WithHTTPSourceHeader 添加一个请求头，例如鉴权 token。
func WithHTTPSourceHeader(key, value string) HTTPSourceOption {
	return func(hs *HTTPSource) {
		if hs.headers == nil {
			hs.headers = make(map[string]string)
		}
		hs.headers[key] = value
	}
}

// WithHTTPSourceFormat 显式指定响应内容的格式。
func WithHTTPSourceFormat(format string) HTTPSourceOption {
	return func(hs *HTTPSource) {
		if format == "" {
			return
		}
		hs.format = loader.NormalizeFormat(format)
	}
}

func WithHTTPSourceName(name string) HTTPSourceOption {
	return func(hs *HTTPSource) {
		if strings.TrimSpace(name) == "" {
			return
		}
		hs.name = name
	}
}

// WithHTTPSourceClient 注入自定义 http.Client（TLS、代理等）。
func WithHTTPSourceClient(client *http.Client) HTTPSourceOption {
	return func(hs *HTTPSource) {
		if client != nil {
			hs.client = client
		}
	}
}

// WithHTTPSourceTimeout 在未注入 client 时设置默认 client 的超时，默认 5 秒。
func WithHTTPSourceTimeout(d time.Duration) HTTPSourceOption {
	return func(hs *HTTPSource) {
		if hs.client == nil && d > 0 {
			hs.client = &http.Client{Timeout: d}
		}
	}
}

// WithHTTPSourceRetries 设置请求失败后的重试次数。
func WithHTTPSourceRetries(n uint64) HTTPSourceOption {
	return func(hs *HTTPSource) {
		hs.retries = n
	}
}

// WithHTTPSourceMaxBodySize 设置响应体上限，默认 DefaultMaxBodySize，超出时不重试。
func WithHTTPSourceMaxBodySize(n int64) HTTPSourceOption {
	return func(hs *HTTPSource) {
		if n > 0 {
			hs.maxBodySize = n
		}
	}
}

// NewHTTPSource 创建一个 HTTP 配置源。
//
//	src := NewHTTPSource("https://config.example.com/app.yaml",
//	    WithHTTPSourceHeader("Authorization", "Bearer xxx"),
//	    WithHTTPSourceTimeout(3*time.Second),
//	)
func NewHTTPSource(urlStr string, opts ...HTTPSourceOption) *HTTPSource {
	hs := &HTTPSource{
		id:          newSourceID(),
		url:         strings.TrimSpace(urlStr),
		method:      http.MethodGet,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(hs)
	}
	if hs.name == "" {
		hs.name = hs.url
	}
	if hs.client == nil {
		hs.client = &http.Client{Timeout: 5 * time.Second}
	}
	return hs
}

func (hs *HTTPSource) ID() string { return hs.id }

// Load 实现 Source 接口。ctx 取消时请求立即中止。
func (hs *HTTPSource) Load(ctx context.Context) ([]byte, Metadata, error) {
	if hs.url == "" {
		return nil, Metadata{}, fmt.Errorf("HTTPSource: url is empty")
	}
	u, err := url.ParseRequestURI(hs.url)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("HTTPSource: invalid url %q: %w", hs.url, err)
	}

	var (
		body []byte
		ct   string
	)
	err = retry(ctx, hs.retries, func() error {
		var err error
		body, ct, err = hs.fetch(ctx)
		return err
	})
	if err != nil {
		return nil, Metadata{}, err
	}

	format := hs.format
	if format == "" {
		if f, err := loader.FormatFromPath(u.Path); err == nil {
			format = f
		} else if f, ok := loader.FormatFromContentType(ct); ok {
			format = f
		}
	}
	if format == "" {
		return nil, Metadata{}, fmt.Errorf("HTTPSource: cannot detect format from url/content-type (url=%q)", hs.url)
	}

	return body, Metadata{Format: format, Source: hs.name}, nil
}

func (hs *HTTPSource) fetch(ctx context.Context) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, hs.method, hs.url, nil)
	if err != nil {
		return nil, "", backoff.Permanent(fmt.Errorf("HTTPSource: new request failed: %w", err))
	}
	for k, v := range hs.headers {
		req.Header.Set(k, v)
	}

	resp, err := hs.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("HTTPSource: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("HTTPSource: non-2xx status code: %d", resp.StatusCode)
		if resp.StatusCode < 500 {
			return nil, "", backoff.Permanent(err)
		}
		return nil, "", err
	}

	body, err := readLimited(resp.Body, hs.maxBodySize)
	if errors.Is(err, ErrBodyTooLarge) {
		return nil, "", backoff.Permanent(fmt.Errorf("HTTPSource: %w", err))
	}
	if err != nil {
		return nil, "", fmt.Errorf("HTTPSource: read response body failed: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}
