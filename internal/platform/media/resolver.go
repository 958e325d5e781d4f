package media

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"sync"

	"Fpublisher/internal/types"
)

// Kind 媒体类别
type Kind int

const (
	KindVideo Kind = iota
	KindImage
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

func (k Kind) defaultExt() string {
	if k == KindVideo {
		return "mp4"
	}
	return "jpg"
}

func (k Kind) defaultMime() string {
	if k == KindVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}

// Resolver 解析媒体引用，单次发布内按引用缓存结果
type Resolver struct {
	fetcher Fetcher

	mu    sync.Mutex
	cache map[*types.MediaRef]*types.File
}

// NewResolver 创建解析器
func NewResolver(fetcher Fetcher) *Resolver {
	return &Resolver{
		fetcher: fetcher,
		cache:   make(map[*types.MediaRef]*types.File),
	}
}

// Resolve 内联文件原样返回；否则下载一次并生成文件名和 MIME
// 下载失败返回 FetchFailure
func (r *Resolver) Resolve(ctx context.Context, ref *types.MediaRef, kind Kind) (*types.File, error) {
	if err := ref.Validate(); err != nil {
		return nil, types.NewMissingInputError("resolve-"+kind.String(), err)
	}
	if ref.Inline != nil {
		return ref.Inline, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.cache[ref]; ok {
		return f, nil
	}

	if r.fetcher == nil {
		return nil, types.NewFetchError("resolve-"+kind.String(), fmt.Errorf("未配置下载器"))
	}
	fetched, err := r.fetcher.Fetch(ctx, ref.SourceURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewCancelledError("resolve-"+kind.String(), ctx.Err())
		}
		return nil, types.NewFetchError("resolve-"+kind.String(), err)
	}

	file := &types.File{
		Name:     FileName(ref, kind),
		MimeType: mimeType(ref, kind, fetched.ContentType),
		Data:     fetched.Data,
	}
	r.cache[ref] = file
	return file, nil
}

// FileName 生成上传文件名：原文件名去扩展名 + 小写扩展名
// 文件名为空时取地址最后一段，没有扩展名时使用类别默认值
func FileName(ref *types.MediaRef, kind Kind) string {
	name := ref.FileName
	if name == "" {
		name = nameFromURL(ref.SourceURL)
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = ""
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	base := strings.TrimSuffix(name, path.Ext(name))
	if ext == "" {
		ext = kind.defaultExt()
	}
	if base == "" {
		base = kind.String()
	}
	return base + "." + ext
}

func nameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "blob" {
		return ""
	}
	return path.Base(u.Path)
}

func mimeType(ref *types.MediaRef, kind Kind, fetched string) string {
	if ref.MimeType != "" {
		return ref.MimeType
	}
	if kind == KindImage && strings.HasPrefix(fetched, "image/") {
		return strings.TrimSpace(strings.SplitN(fetched, ";", 2)[0])
	}
	return kind.defaultMime()
}
