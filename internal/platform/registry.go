package platform

import (
	"fmt"
	"sort"
	"sync"

	"Fpublisher/internal/platform/alipay"
	"Fpublisher/internal/platform/netease"
	"Fpublisher/internal/platform/pinduoduo"
	"Fpublisher/internal/platform/pipeline"
	"Fpublisher/internal/platform/sohu"
	"Fpublisher/internal/platform/vivovideo"
	"Fpublisher/internal/platform/yiche"
	"Fpublisher/internal/platform/yidian"
)

// Registry 平台适配器表
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*pipeline.Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]*pipeline.Adapter)}
}

// Register 注册适配器，同名覆盖
func (r *Registry) Register(a *pipeline.Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Platform] = a
}

// Get 按平台名获取
func (r *Registry) Get(platform string) (*pipeline.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[platform]
	if !ok {
		return nil, fmt.Errorf("不支持的平台: %s", platform)
	}
	return a, nil
}

// Match 按页面地址查找适配器，多个命中时取平台名排序后的第一个
func (r *Registry) Match(url string) (*pipeline.Adapter, bool) {
	for _, a := range r.List() {
		if a.Matches(url) {
			return a, true
		}
	}
	return nil, false
}

// List 按平台名排序返回
func (r *Registry) List() []*pipeline.Adapter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*pipeline.Adapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Platform < list[j].Platform })
	return list
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry 内置的全部平台
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		r := NewRegistry()
		for _, a := range []*pipeline.Adapter{
			netease.New(),
			sohu.New(),
			alipay.New(),
			pinduoduo.New(),
			vivovideo.New(),
			yiche.New(),
			yidian.New(),
		} {
			r.Register(a)
		}
		defaultRegistry = r
	})
	return defaultRegistry
}
