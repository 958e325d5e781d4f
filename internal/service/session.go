package service

import (
	"context"
	"fmt"

	"Fpublisher/internal/config"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/media"
	"Fpublisher/internal/utils"

	"github.com/playwright-community/playwright-go"
)

// Session 一次发布独占的页面
type Session interface {
	Surface() dom.Surface
	// BlobFetcher 在页面内下载 blob: 地址
	BlobFetcher() media.Fetcher
	Screenshot(name string) (string, error)
	Close() error
}

// SessionOpener 打开平台发布页
type SessionOpener interface {
	OpenSession(ctx context.Context, platform, url string) (Session, error)
}

// BrowserSessions 基于浏览器池的会话
type BrowserSessions struct {
	Pool *browser.Pool
}

func (b *BrowserSessions) OpenSession(ctx context.Context, platform, url string) (Session, error) {
	pc, err := b.Pool.Acquire(ctx, platform, config.GetCookiePath(platform), browser.DefaultContextOptions())
	if err != nil {
		return nil, fmt.Errorf("获取浏览器上下文失败: %w", err)
	}
	page, err := pc.Open(url)
	if err != nil {
		_ = pc.Release()
		return nil, err
	}
	utils.InfoWithPlatform(platform, fmt.Sprintf("已打开发布页: %s", url))
	return &browserSession{ctx: pc, page: page}, nil
}

type browserSession struct {
	ctx  *browser.PooledContext
	page playwright.Page
}

func (s *browserSession) Surface() dom.Surface {
	return browser.NewPageSurface(s.page)
}

func (s *browserSession) BlobFetcher() media.Fetcher {
	return browser.NewPageFetcher(s.page)
}

func (s *browserSession) Screenshot(name string) (string, error) {
	return utils.Screenshot(s.page, name)
}

func (s *browserSession) Close() error {
	return s.ctx.Release()
}
