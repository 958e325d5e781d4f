// Package media 将媒体引用解析为可注入页面的文件
package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/imroc/req/v3"
)

// Fetched 下载结果
type Fetched struct {
	Data        []byte
	ContentType string
}

// Fetcher 按地址下载媒体
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Fetched, error)
}

// FetcherFunc 函数形式的 Fetcher
type FetcherFunc func(ctx context.Context, rawURL string) (*Fetched, error)

func (f FetcherFunc) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	return f(ctx, rawURL)
}

// Router 按地址协议分发到不同的 Fetcher
type Router struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRouter 创建路由，默认支持 http/https 和 file
func NewRouter(httpTimeout time.Duration) *Router {
	r := &Router{fetchers: make(map[string]Fetcher)}
	httpFetcher := NewHTTPFetcher(httpTimeout)
	r.Handle("http", httpFetcher)
	r.Handle("https", httpFetcher)
	r.Handle("file", FileFetcher{})
	return r
}

// Handle 注册协议对应的 Fetcher
func (r *Router) Handle(scheme string, f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[strings.ToLower(scheme)] = f
}

// With 复制一份路由并追加协议，用于单次发布（如页面内的 blob 地址）
func (r *Router) With(scheme string, f Fetcher) *Router {
	r.mu.RLock()
	clone := &Router{fetchers: make(map[string]Fetcher, len(r.fetchers)+1)}
	for k, v := range r.fetchers {
		clone.fetchers[k] = v
	}
	r.mu.RUnlock()
	clone.fetchers[strings.ToLower(scheme)] = f
	return clone
}

func (r *Router) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("解析地址失败: %w", err)
	}
	r.mu.RLock()
	f, ok := r.fetchers[strings.ToLower(u.Scheme)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("不支持的地址协议: %q", u.Scheme)
	}
	return f.Fetch(ctx, rawURL)
}

// HTTPFetcher 通过 HTTP 下载
type HTTPFetcher struct {
	client *req.Client
}

// NewHTTPFetcher 创建 HTTP 下载器
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	client := req.C().
		SetTimeout(timeout).
		SetCommonHeaders(map[string]string{
			"user-agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		})
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("请求 %s 失败: %w", rawURL, err)
	}
	if resp.IsErrorState() {
		return nil, fmt.Errorf("请求 %s 失败: HTTP %d", rawURL, resp.StatusCode)
	}
	return &Fetched{Data: resp.Bytes(), ContentType: resp.GetContentType()}, nil
}

// FileFetcher 读取本地文件（file:// 地址）
type FileFetcher struct{}

func (FileFetcher) Fetch(ctx context.Context, rawURL string) (*Fetched, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("解析地址失败: %w", err)
	}
	path := u.Path
	if path == "" {
		path = u.Opaque
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return &Fetched{Data: data}, nil
}
