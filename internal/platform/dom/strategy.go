package dom

import (
	"fmt"
	"strings"
)

type strategyKind int

const (
	kindCSS strategyKind = iota
	kindText
	kindTextContains
	kindLabel
	kindLabelContains
	kindAttr
	kindXPath
)

// Strategy 元素定位方式，编译为单个 playwright 选择器
type Strategy struct {
	kind    strategyKind
	tag     string
	text    string
	attr    string
	expr    string
	scope   string
	enabled bool
	visible bool
}

// CSS 按 CSS 选择器定位
func CSS(selector string) Strategy {
	return Strategy{kind: kindCSS, expr: selector}
}

// Text 唯一子节点为文本且去空白后等于 text 的元素
func Text(tag, text string) Strategy {
	return Strategy{kind: kindText, tag: tag, text: text}
}

// TextContains 唯一文本节点包含 text 的元素
func TextContains(tag, text string) Strategy {
	return Strategy{kind: kindTextContains, tag: tag, text: text}
}

// Label 整体文本内容等于 text 的元素，适用于内部嵌套 span 的按钮
func Label(tag, text string) Strategy {
	return Strategy{kind: kindLabel, tag: tag, text: text}
}

// LabelContains 整体文本内容包含 text 的元素
func LabelContains(tag, text string) Strategy {
	return Strategy{kind: kindLabelContains, tag: tag, text: text}
}

// Attr 属性值包含 substr 的元素
func Attr(tag, attr, substr string) Strategy {
	return Strategy{kind: kindAttr, tag: tag, attr: attr, text: substr}
}

// XPath 原始 XPath 表达式
func XPath(expr string) Strategy {
	return Strategy{kind: kindXPath, expr: expr}
}

// Enabled 仅匹配未禁用的元素（无 disabled 属性且无 disabled 类）
func (s Strategy) Enabled() Strategy {
	s.enabled = true
	return s
}

// Visible 仅匹配可见元素
func (s Strategy) Visible() Strategy {
	s.visible = true
	return s
}

// Within 限定在 CSS 容器内查找
func (s Strategy) Within(container string) Strategy {
	s.scope = container
	return s
}

// Selector 编译为 playwright 选择器
func (s Strategy) Selector() string {
	var sel string
	switch s.kind {
	case kindCSS:
		sel = "css=" + s.css()
	case kindAttr:
		sel = "css=" + s.attrCSS()
	default:
		sel = "xpath=" + s.xpath()
	}
	if s.scope != "" {
		sel = "css=" + s.scope + " >> " + sel
	}
	if s.visible {
		sel += " >> visible=true"
	}
	return sel
}

func (s Strategy) String() string {
	return s.Selector()
}

func (s Strategy) css() string {
	if !s.enabled {
		return s.expr
	}
	return ":is(" + s.expr + ")" + enabledCSS
}

func (s Strategy) attrCSS() string {
	sel := fmt.Sprintf(`%s[%s*="%s"]`, s.tag, s.attr, cssEscape(s.text))
	if s.enabled {
		sel += enabledCSS
	}
	return sel
}

const enabledCSS = ":not([disabled]):not(.disabled)"

const enabledXPath = `not(@disabled) and not(contains(concat(" ", normalize-space(@class), " "), " disabled "))`

func (s Strategy) xpath() string {
	if s.kind == kindXPath {
		if !s.enabled {
			return s.expr
		}
		return "(" + s.expr + ")[" + enabledXPath + "]"
	}

	tag := s.tag
	if tag == "" {
		tag = "*"
	}
	lit := xpathLiteral(strings.TrimSpace(s.text))

	var pred string
	switch s.kind {
	case kindText:
		pred = "count(node())=1 and normalize-space(text())=" + lit
	case kindTextContains:
		pred = "count(node())=1 and contains(text(), " + lit + ")"
	case kindLabel:
		pred = "normalize-space(.)=" + lit
	case kindLabelContains:
		pred = "contains(normalize-space(.), " + lit + ")"
	}
	if s.enabled {
		pred += " and " + enabledXPath
	}

	prefix := "//"
	if s.scope != "" {
		prefix = ".//"
	}
	return prefix + tag + "[" + pred + "]"
}

// xpathLiteral 生成 XPath 字符串字面量，同时含单双引号时使用 concat
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	args := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			args = append(args, `'"'`)
		}
		if p != "" {
			args = append(args, `"`+p+`"`)
		}
	}
	if len(args) == 1 {
		return args[0]
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}

func cssEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
