// Package domtest 内存中的 dom.Surface 实现，按选择器字符串登记元素
package domtest

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"Fpublisher/internal/types"
)

// Element 假页面上的元素
type Element struct {
	Count   int // 命中数量，0 按 1 处理
	Classes []string
	Value   string
	Text    string
	Files   []*types.File
	Data    map[string]any

	// Err 非空时所有操作返回该错误
	Err error
	// PressErr 按键返回的错误
	PressErr error

	OnClick func(p *Page)
	OnFiles func(p *Page, f *types.File)
	OnWrite func(p *Page, value string)
}

// Action 记录的页面操作
type Action struct {
	Kind     string
	Selector string
	Value    string
}

// Page 假页面
type Page struct {
	mu       sync.Mutex
	url      string
	elements map[string]*Element
	actions  []Action
}

// New 创建假页面
func New(url string) *Page {
	return &Page{url: url, elements: make(map[string]*Element)}
}

// SetURL 修改当前地址
func (p *Page) SetURL(url string) {
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
}

// Add 登记元素，回调中调用也是安全的
func (p *Page) Add(selector string, el *Element) *Element {
	if el == nil {
		el = &Element{}
	}
	p.mu.Lock()
	p.elements[selector] = el
	p.mu.Unlock()
	return el
}

// Remove 移除元素
func (p *Page) Remove(selector string) {
	p.mu.Lock()
	delete(p.elements, selector)
	p.mu.Unlock()
}

// Get 返回已登记的元素
func (p *Page) Get(selector string) *Element {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.elements[selector]
}

// Actions 返回操作记录副本
func (p *Page) Actions() []Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Action, len(p.actions))
	copy(out, p.actions)
	return out
}

// ActionsOf 返回指定类型的操作
func (p *Page) ActionsOf(kind string) []Action {
	var out []Action
	for _, a := range p.Actions() {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// Clicked 选择器是否被点击过
func (p *Page) Clicked(selector string) bool {
	for _, a := range p.ActionsOf("click") {
		if a.Selector == selector {
			return true
		}
	}
	return false
}

func (p *Page) record(kind, selector, value string) {
	p.actions = append(p.actions, Action{Kind: kind, Selector: selector, Value: value})
}

func (p *Page) lookup(selector string) (*Element, error) {
	el, ok := p.elements[selector]
	if !ok {
		return nil, fmt.Errorf("元素不存在: %s", selector)
	}
	if el.Err != nil {
		return nil, el.Err
	}
	return el, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Count(selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	if !ok {
		return 0, nil
	}
	if el.Err != nil {
		return 0, el.Err
	}
	if el.Count <= 0 {
		return 1, nil
	}
	return el.Count, nil
}

func (p *Page) HasClass(selector, class string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, err := p.lookup(selector)
	if err != nil {
		return false, err
	}
	for _, c := range el.Classes {
		if c == class {
			return true, nil
		}
	}
	return false, nil
}

func (p *Page) Click(selector string) error {
	p.mu.Lock()
	el, err := p.lookup(selector)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.record("click", selector, "")
	cb := el.OnClick
	p.mu.Unlock()

	if cb != nil {
		cb(p)
	}
	return nil
}

func (p *Page) SetFiles(selector string, file *types.File) error {
	p.mu.Lock()
	el, err := p.lookup(selector)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	el.Files = []*types.File{file}
	p.record("files", selector, file.Name)
	cb := el.OnFiles
	p.mu.Unlock()

	if cb != nil {
		cb(p, file)
	}
	return nil
}

func (p *Page) write(kind, selector, value string, apply func(el *Element)) error {
	p.mu.Lock()
	el, err := p.lookup(selector)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	apply(el)
	p.record(kind, selector, value)
	cb := el.OnWrite
	p.mu.Unlock()

	if cb != nil {
		cb(p, value)
	}
	return nil
}

func (p *Page) SetValue(selector, value string) error {
	return p.write("value", selector, value, func(el *Element) { el.Value = value })
}

func (p *Page) SetText(selector, value string) error {
	return p.write("text", selector, value, func(el *Element) { el.Text = value })
}

func (p *Page) Paste(selector, value string) error {
	return p.write("paste", selector, value, func(el *Element) { el.Text += value })
}

func (p *Page) Press(selector, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, err := p.lookup(selector)
	if err != nil {
		return err
	}
	p.record("press", selector, key)
	return el.PressErr
}

func (p *Page) FrameworkData(selector, path string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, err := p.lookup(selector)
	if err != nil {
		return nil, err
	}
	parent, key, err := walk(el.Data, path)
	if err != nil {
		return nil, err
	}
	return parent[key], nil
}

func (p *Page) SetFrameworkData(selector, path string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, err := p.lookup(selector)
	if err != nil {
		return err
	}
	parent, key, err := walk(el.Data, path)
	if err != nil {
		return err
	}
	parent[key] = value
	p.record("hook", selector, fmt.Sprintf("%s=%v", path, value))
	return nil
}

// walk 按路径定位到父对象和最后一个键
func walk(data map[string]any, path string) (map[string]any, string, error) {
	if data == nil {
		return nil, "", fmt.Errorf("元素没有框架数据")
	}
	parts := strings.Split(path, ".")
	cur := data
	for i, part := range parts {
		if part == "*" {
			part = firstKey(cur)
			if part == "" {
				return nil, "", fmt.Errorf("路径 %s 为空对象", path)
			}
		}
		if i == len(parts)-1 {
			return cur, part, nil
		}
		next, ok := cur[part].(map[string]any)
		if !ok {
			return nil, "", fmt.Errorf("路径 %s 无效", path)
		}
		cur = next
	}
	return nil, "", fmt.Errorf("路径为空")
}

func firstKey(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}
