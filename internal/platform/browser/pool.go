package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/utils"

	"github.com/playwright-community/playwright-go"
)

// PoolStats 浏览器池统计信息
type PoolStats struct {
	BrowserCount      int       `json:"browser_count"`        // 当前浏览器实例数
	ContextCount      int       `json:"context_count"`        // 当前上下文总数
	InUseContextCount int       `json:"in_use_context_count"` // 使用中上下文数
	WaitQueueLength   int       `json:"wait_queue_length"`    // 已占用的并发槽位
	MaxBrowsers       int       `json:"max_browsers"`         // 最大浏览器数
	MaxContexts       int       `json:"max_contexts"`         // 每个浏览器的最大上下文数
	Timestamp         time.Time `json:"timestamp"`            // 统计时间戳
}

// Pool 浏览器池，每个发布任务独占一个上下文
type Pool struct {
	maxBrowsers int
	maxContexts int
	headless    bool

	pw       *playwright.Playwright
	browsers []*PooledBrowser
	mutex    sync.Mutex
	slots    chan struct{} // 并发槽位，容量为 maxBrowsers*maxContexts

	stats      PoolStats
	statsMutex sync.RWMutex
}

// PooledBrowser 池化浏览器
type PooledBrowser struct {
	browser  playwright.Browser
	contexts []*PooledContext
	mutex    sync.Mutex
}

// PooledContext 封装的浏览器上下文
type PooledContext struct {
	context    playwright.BrowserContext
	page       playwright.Page
	cookiePath string
	createdAt  time.Time
	parent     *PooledBrowser
	pool       *Pool
	platform   string // 平台标识，用于日志
	released   bool
}

// ContextOptions 上下文选项
type ContextOptions struct {
	UserAgent    string
	Viewport     *playwright.Size
	Locale       string
	TimezoneId   string
	ExtraHeaders map[string]string
	// 启用随机指纹与反检测脚本
	EnableAntiDetect bool
}

// DefaultContextOptions 返回默认上下文选项
func DefaultContextOptions() *ContextOptions {
	return &ContextOptions{
		Locale:           "zh-CN",
		TimezoneId:       "Asia/Shanghai",
		EnableAntiDetect: true,
	}
}

// NewPool 创建浏览器池
func NewPool(maxBrowsers, maxContexts int, headless bool) *Pool {
	if maxBrowsers < 1 {
		maxBrowsers = 1
	}
	if maxContexts < 1 {
		maxContexts = 1
	}
	return &Pool{
		maxBrowsers: maxBrowsers,
		maxContexts: maxContexts,
		headless:    headless,
		browsers:    make([]*PooledBrowser, 0),
		slots:       make(chan struct{}, maxBrowsers*maxContexts),
	}
}

// NewPoolFromConfig 从配置创建浏览器池
func NewPoolFromConfig() *Pool {
	return NewPool(config.Config.MaxBrowsers, config.Config.MaxContexts, config.Config.Headless)
}

// Acquire 获取一个新的上下文，池满时等待，ctx 取消时返回错误
// cookiePath 存在时加载其中的登录态
func (p *Pool) Acquire(ctx context.Context, platform, cookiePath string, options *ContextOptions) (*PooledContext, error) {
	select {
	case p.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	pooled, err := p.newContext(platform, cookiePath, options)
	if err != nil {
		<-p.slots
		return nil, err
	}
	p.updateStats()
	return pooled, nil
}

func (p *Pool) newContext(platform, cookiePath string, options *ContextOptions) (*PooledContext, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if options == nil {
		options = DefaultContextOptions()
	}
	if options.EnableAntiDetect {
		options = RandomFingerprint(options)
	}

	browser, err := p.getOrCreateBrowser()
	if err != nil {
		return nil, err
	}

	pooled, err := browser.createContext(cookiePath, options)
	if err != nil {
		return nil, err
	}
	pooled.pool = p
	pooled.platform = platform
	return pooled, nil
}

// RandomFingerprint 在基础选项上生成随机 UA 与视口
func RandomFingerprint(base *ContextOptions) *ContextOptions {
	chromeVersions := []string{"120", "121", "122", "123", "124", "125"}
	version := chromeVersions[rand.Intn(len(chromeVersions))]

	width := 1920 + rand.Intn(100) - 50
	height := 1080 + rand.Intn(100) - 50

	options := *base
	if options.UserAgent == "" {
		options.UserAgent = fmt.Sprintf(
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%s.0.0.0 Safari/537.36",
			version,
		)
	}
	if options.Viewport == nil {
		options.Viewport = &playwright.Size{Width: width, Height: height}
	}
	if options.Locale == "" {
		options.Locale = "zh-CN"
	}
	if options.TimezoneId == "" {
		options.TimezoneId = "Asia/Shanghai"
	}
	headers := map[string]string{
		"Accept-Language":    "zh-CN,zh;q=0.9,en;q=0.8",
		"Sec-Ch-Ua":          fmt.Sprintf(`"Not_A Brand";v="8", "Chromium";v="%s", "Google Chrome";v="%s"`, version, version),
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
	}
	for k, v := range base.ExtraHeaders {
		headers[k] = v
	}
	options.ExtraHeaders = headers
	return &options
}

// GetStats 获取浏览器池统计信息
func (p *Pool) GetStats() PoolStats {
	p.statsMutex.RLock()
	defer p.statsMutex.RUnlock()
	return p.stats
}

// updateStats 更新统计信息
func (p *Pool) updateStats() {
	p.mutex.Lock()
	stats := PoolStats{
		BrowserCount: len(p.browsers),
		MaxBrowsers:  p.maxBrowsers,
		MaxContexts:  p.maxContexts,
		Timestamp:    time.Now(),
	}
	for _, browser := range p.browsers {
		browser.mutex.Lock()
		stats.ContextCount += len(browser.contexts)
		for _, c := range browser.contexts {
			if !c.released {
				stats.InUseContextCount++
			}
		}
		browser.mutex.Unlock()
	}
	p.mutex.Unlock()
	stats.WaitQueueLength = len(p.slots)

	p.statsMutex.Lock()
	p.stats = stats
	p.statsMutex.Unlock()
}

// Close 关闭浏览器池
func (p *Pool) Close() error {
	p.mutex.Lock()
	for _, browser := range p.browsers {
		browser.mutex.Lock()
		for _, c := range browser.contexts {
			_ = c.context.Close()
		}
		browser.contexts = nil
		browser.mutex.Unlock()
		if err := browser.browser.Close(); err != nil {
			utils.Warn(fmt.Sprintf("[-] 关闭浏览器失败: %v", err))
		}
	}
	p.browsers = make([]*PooledBrowser, 0)

	var err error
	if p.pw != nil {
		err = p.pw.Stop()
		p.pw = nil
	}
	p.mutex.Unlock()

	p.updateStats()
	return err
}

// getOrCreateBrowser 获取有空余容量的浏览器，没有则启动新的
func (p *Pool) getOrCreateBrowser() (*PooledBrowser, error) {
	for _, b := range p.browsers {
		if b.canCreateContext(p.maxContexts) {
			return b, nil
		}
	}

	if len(p.browsers) >= p.maxBrowsers {
		return nil, fmt.Errorf("max browsers reached")
	}

	browser, err := p.launchBrowser()
	if err != nil {
		return nil, err
	}
	pooled := &PooledBrowser{browser: browser, contexts: make([]*PooledContext, 0)}
	p.browsers = append(p.browsers, pooled)
	return pooled, nil
}

// launchBrowser 启动浏览器，playwright 驱动只启动一次
func (p *Pool) launchBrowser() (playwright.Browser, error) {
	if p.pw == nil {
		pw, err := playwright.Run()
		if err != nil {
			return nil, fmt.Errorf("start playwright failed: %w", err)
		}
		p.pw = pw
	}

	launchOptions := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(p.headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
			"--window-size=1920,1080",
			"--disable-infobars",
			"--disable-extensions",
			"--disable-default-apps",
			"--disable-sync",
			"--disable-translate",
		},
	}

	if chromePath := findLocalChrome(); chromePath != "" {
		launchOptions.ExecutablePath = playwright.String(chromePath)
		utils.Info("[-] 浏览器池使用本地 Chrome")
	}

	browser, err := p.pw.Chromium.Launch(launchOptions)
	if err != nil {
		return nil, fmt.Errorf("launch browser failed: %w", err)
	}
	return browser, nil
}

// canCreateContext 检查是否可以创建新上下文
func (b *PooledBrowser) canCreateContext(maxContexts int) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return len(b.contexts) < maxContexts
}

// createContext 创建浏览器上下文
func (b *PooledBrowser) createContext(cookiePath string, options *ContextOptions) (*PooledContext, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	contextOptions := playwright.BrowserNewContextOptions{
		Locale:           playwright.String(options.Locale),
		TimezoneId:       playwright.String(options.TimezoneId),
		ColorScheme:      playwright.ColorSchemeLight,
		ExtraHttpHeaders: options.ExtraHeaders,
		AcceptDownloads:  playwright.Bool(false),
	}
	if options.UserAgent != "" {
		contextOptions.UserAgent = playwright.String(options.UserAgent)
	}
	if options.Viewport != nil {
		contextOptions.Viewport = options.Viewport
	}

	// 加载登录态
	if cookiePath != "" {
		if _, err := os.Stat(cookiePath); err == nil {
			contextOptions.StorageStatePath = playwright.String(cookiePath)
		}
	}

	bctx, err := b.browser.NewContext(contextOptions)
	if err != nil {
		return nil, fmt.Errorf("create context failed: %w", err)
	}

	if options.EnableAntiDetect {
		if err := bctx.AddInitScript(playwright.Script{Content: playwright.String(stealthScript)}); err != nil {
			_ = bctx.Close()
			return nil, fmt.Errorf("inject stealth script failed: %w", err)
		}
	}

	pooled := &PooledContext{
		context:    bctx,
		cookiePath: cookiePath,
		createdAt:  time.Now(),
		parent:     b,
	}
	b.contexts = append(b.contexts, pooled)
	return pooled, nil
}

// Release 保存登录态并关闭上下文，归还并发槽位
func (c *PooledContext) Release() error {
	if c.released {
		return nil
	}
	c.released = true

	platform := c.platform
	if platform == "" {
		platform = "browser"
	}

	if c.cookiePath != "" {
		if err := c.SaveCookies(); err != nil {
			utils.WarnWithPlatform(platform, fmt.Sprintf("保存登录态失败: %v", err))
		}
	}

	if err := c.context.Close(); err != nil {
		utils.WarnWithPlatform(platform, fmt.Sprintf("关闭上下文失败: %v", err))
	}

	c.parent.mutex.Lock()
	for i, other := range c.parent.contexts {
		if other == c {
			c.parent.contexts = append(c.parent.contexts[:i], c.parent.contexts[i+1:]...)
			break
		}
	}
	c.parent.mutex.Unlock()

	if c.pool != nil {
		<-c.pool.slots
		c.pool.updateStats()
	}
	utils.DebugWithPlatform(platform, "浏览器上下文已释放")
	return nil
}

// SaveCookies 将登录态写回文件，页面上的登录续期得以保留
func (c *PooledContext) SaveCookies() error {
	storage, err := c.context.StorageState()
	if err != nil {
		return err
	}
	data, err := json.Marshal(storage)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(c.cookiePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cookie directory failed: %w", err)
		}
	}
	return os.WriteFile(c.cookiePath, data, 0644)
}

// GetPage 获取或创建页面
func (c *PooledContext) GetPage() (playwright.Page, error) {
	if c.page != nil && !c.page.IsClosed() {
		return c.page, nil
	}

	page, err := c.context.NewPage()
	if err != nil {
		return nil, err
	}
	page.SetDefaultTimeout(30000)
	page.SetDefaultNavigationTimeout(60000)

	c.page = page
	return page, nil
}

// Open 打开发布页并检查验证码与风控提示
func (c *PooledContext) Open(url string) (playwright.Page, error) {
	page, err := c.GetPage()
	if err != nil {
		return nil, err
	}
	if _, err := page.Goto(url, playwright.PageGotoOptions{WaitUntil: playwright.WaitUntilStateDomcontentloaded}); err != nil {
		return nil, fmt.Errorf("打开 %s 失败: %w", url, err)
	}
	if detected, kind := DetectCaptcha(page); detected {
		return nil, fmt.Errorf("检测到%s，需要人工处理", kind)
	}
	return page, nil
}

// DetectCaptcha 检测是否出现可见的验证码或风控提示
func DetectCaptcha(page playwright.Page) (bool, string) {
	indicators := []struct {
		selector string
		kind     string
	}{
		{"[class*='captcha']", "验证码"},
		{".geetest_panel", "极验验证"},
		{"iframe[src*='captcha']", "验证码"},
		{"text=请完成安全验证", "安全验证"},
		{"text=拖动滑块", "滑块验证"},
		{"text=访问过于频繁", "访问频繁"},
	}

	for _, item := range indicators {
		loc := page.Locator(item.selector)
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		if visible, _ := loc.First().IsVisible(); visible {
			utils.Warn(fmt.Sprintf("[-] 检测到%s", item.kind))
			return true, item.kind
		}
	}
	return false, ""
}

// findLocalChrome 查找本地 Chrome，FPUBLISHER_CHROME 优先
func findLocalChrome() string {
	paths := []string{
		os.Getenv("FPUBLISHER_CHROME"),
		`C:\Program Files\Google\Chrome\Application\chrome.exe`,
		`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		os.Getenv("LOCALAPPDATA") + `\Google\Chrome\Application\chrome.exe`,
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		"/usr/bin/google-chrome",
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

const stealthScript = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
Object.defineProperty(navigator, 'languages', { get: () => ['zh-CN', 'zh', 'en'] });
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
window.chrome = window.chrome || { runtime: {} };
`
