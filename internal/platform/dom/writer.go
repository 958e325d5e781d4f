package dom

import (
	"fmt"

	"Fpublisher/internal/types"
)

// Mode 字段写入方式
type Mode int

const (
	// ModeValue 设置 input/textarea 的 value 并触发 input、change
	ModeValue Mode = iota
	// ModeText 设置可编辑元素的文本内容并触发 input、change
	ModeText
	// ModePaste 派发携带 text/plain 的粘贴事件
	ModePaste
)

func (m Mode) String() string {
	switch m {
	case ModeValue:
		return "value"
	case ModeText:
		return "text"
	case ModePaste:
		return "paste"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Hook 框架内部数据的写入位置，仅在 DOM 元素找不到时使用
type Hook struct {
	Selector string
	Path     string
}

// Write 按指定方式写入字段
func Write(s Surface, selector string, mode Mode, value string) error {
	var err error
	switch mode {
	case ModeValue:
		err = s.SetValue(selector, value)
	case ModeText:
		err = s.SetText(selector, value)
	case ModePaste:
		err = s.Paste(selector, value)
	default:
		return fmt.Errorf("未知写入方式: %s", mode)
	}
	if err != nil {
		return fmt.Errorf("写入 %s 失败: %w", selector, err)
	}
	return nil
}

// WriteHook 写入框架内部数据
func WriteHook(s Surface, h Hook, value any) error {
	if err := s.SetFrameworkData(h.Selector, h.Path, value); err != nil {
		return fmt.Errorf("写入 %s %s 失败: %w", h.Selector, h.Path, err)
	}
	return nil
}

// Inject 将单个文件放入文件输入框，Surface 负责触发冒泡的 change 事件
func Inject(s Surface, selector string, file *types.File) error {
	if file == nil {
		return fmt.Errorf("文件为空")
	}
	if err := s.SetFiles(selector, file); err != nil {
		return fmt.Errorf("注入文件 %s 失败: %w", file.Name, err)
	}
	return nil
}
