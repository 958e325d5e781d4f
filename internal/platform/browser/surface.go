package browser

import (
	"context"
	"encoding/base64"
	"fmt"

	"Fpublisher/internal/platform/media"
	"Fpublisher/internal/types"

	"github.com/playwright-community/playwright-go"
)

// 单次元素操作的超时（毫秒），元素已由定位器确认存在
const actionTimeout = 5000

// PageSurface 基于 playwright.Page 的页面操作
type PageSurface struct {
	page playwright.Page
}

// NewPageSurface 创建页面操作对象
func NewPageSurface(page playwright.Page) *PageSurface {
	return &PageSurface{page: page}
}

func (s *PageSurface) first(selector string) playwright.Locator {
	return s.page.Locator(selector).First()
}

func (s *PageSurface) URL() string {
	return s.page.URL()
}

func (s *PageSurface) Count(selector string) (int, error) {
	return s.page.Locator(selector).Count()
}

func (s *PageSurface) HasClass(selector, class string) (bool, error) {
	v, err := s.first(selector).Evaluate(`(el, c) => el.classList.contains(c)`, class)
	if err != nil {
		return false, err
	}
	ok, _ := v.(bool)
	return ok, nil
}

func (s *PageSurface) Click(selector string) error {
	return s.first(selector).Click(playwright.LocatorClickOptions{Timeout: playwright.Float(actionTimeout)})
}

// SetFiles 构造单文件 FileList 并触发冒泡的 change 事件
func (s *PageSurface) SetFiles(selector string, file *types.File) error {
	return s.first(selector).SetInputFiles([]playwright.InputFile{{
		Name:     file.Name,
		MimeType: file.MimeType,
		Buffer:   file.Data,
	}}, playwright.LocatorSetInputFilesOptions{Timeout: playwright.Float(actionTimeout)})
}

func (s *PageSurface) SetValue(selector, value string) error {
	_, err := s.first(selector).Evaluate(setValueScript, value)
	return err
}

func (s *PageSurface) SetText(selector, value string) error {
	_, err := s.first(selector).Evaluate(setTextScript, value)
	return err
}

func (s *PageSurface) Paste(selector, value string) error {
	_, err := s.first(selector).Evaluate(pasteScript, value)
	return err
}

func (s *PageSurface) Press(selector, key string) error {
	return s.first(selector).Press(key, playwright.LocatorPressOptions{Timeout: playwright.Float(actionTimeout)})
}

func (s *PageSurface) FrameworkData(selector, path string) (any, error) {
	return s.first(selector).Evaluate(readHookScript, path)
}

func (s *PageSurface) SetFrameworkData(selector, path string, value any) error {
	_, err := s.first(selector).Evaluate(writeHookScript, map[string]any{"path": path, "value": value})
	return err
}

// PageFetcher 在页面内 fetch，用于只在页面上下文有效的 blob: 地址
type PageFetcher struct {
	page playwright.Page
}

// NewPageFetcher 创建页面内下载器
func NewPageFetcher(page playwright.Page) *PageFetcher {
	return &PageFetcher{page: page}
}

func (f *PageFetcher) Fetch(ctx context.Context, rawURL string) (*media.Fetched, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := f.page.Evaluate(fetchScript, rawURL)
	if err != nil {
		return nil, fmt.Errorf("页面内下载 %s 失败: %w", rawURL, err)
	}
	result, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("页面内下载 %s 返回格式错误", rawURL)
	}
	encoded, _ := result["data"].(string)
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("解码 %s 失败: %w", rawURL, err)
	}
	contentType, _ := result["type"].(string)
	return &media.Fetched{Data: data, ContentType: contentType}, nil
}

// 使用原生 setter，绕过框架对 value 属性的拦截
const setValueScript = `(el, value) => {
  const proto = el instanceof HTMLTextAreaElement ? HTMLTextAreaElement.prototype : HTMLInputElement.prototype;
  const desc = Object.getOwnPropertyDescriptor(proto, 'value');
  el.focus();
  if (desc && desc.set) { desc.set.call(el, value); } else { el.value = value; }
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
}`

const setTextScript = `(el, value) => {
  el.focus();
  el.textContent = value;
  el.dispatchEvent(new Event('input', { bubbles: true }));
  el.dispatchEvent(new Event('change', { bubbles: true }));
}`

const pasteScript = `(el, text) => {
  el.focus();
  const dt = new DataTransfer();
  dt.setData('text/plain', text);
  el.dispatchEvent(new ClipboardEvent('paste', { clipboardData: dt, bubbles: true, cancelable: true }));
}`

const readHookScript = `(el, path) => {
  const vm = el.__vue__;
  if (!vm) throw new Error('element has no vue instance');
  let cur = vm.$data;
  for (const part of path.split('.')) {
    if (cur == null) return null;
    const key = part === '*' ? Object.keys(cur)[0] : part;
    cur = cur[key];
  }
  return cur === undefined ? null : JSON.parse(JSON.stringify(cur));
}`

const writeHookScript = `(el, arg) => {
  const vm = el.__vue__;
  if (!vm) throw new Error('element has no vue instance');
  const parts = arg.path.split('.');
  let cur = vm.$data;
  for (let i = 0; i < parts.length - 1; i++) {
    const key = parts[i] === '*' ? Object.keys(cur)[0] : parts[i];
    cur = cur[key];
    if (cur == null) throw new Error('invalid path ' + arg.path);
  }
  let last = parts[parts.length - 1];
  if (last === '*') last = Object.keys(cur)[0];
  if (typeof vm.$set === 'function') { vm.$set(cur, last, arg.value); } else { cur[last] = arg.value; }
}`

const fetchScript = `async (url) => {
  const resp = await fetch(url);
  if (!resp.ok) throw new Error('HTTP ' + resp.status);
  const blob = await resp.blob();
  const buf = new Uint8Array(await blob.arrayBuffer());
  let bin = '';
  for (let i = 0; i < buf.length; i += 0x8000) {
    bin += String.fromCharCode.apply(null, buf.subarray(i, i + 0x8000));
  }
  return { type: blob.type, data: btoa(bin) };
}`
