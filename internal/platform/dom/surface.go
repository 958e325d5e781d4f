// Package dom 页面元素的定位、文件注入与字段写入
package dom

import "Fpublisher/internal/types"

// Surface 以选择器寻址的页面操作，每次调用都重新解析元素
// 选择器为 playwright 选择器语法（css=/xpath= 前缀，可用 >> 链接）
type Surface interface {
	URL() string

	// Count 可用/可见筛选已编译进选择器（Strategy.Enabled/Visible）
	Count(selector string) (int, error)
	HasClass(selector, class string) (bool, error)

	Click(selector string) error
	SetFiles(selector string, file *types.File) error
	SetValue(selector, value string) error
	SetText(selector, value string) error
	Paste(selector, value string) error
	Press(selector, key string) error

	// FrameworkData 读取元素上框架实例（Vue __vue__.$data）的数据，path 以点分隔，* 表示第一个键
	FrameworkData(selector, path string) (any, error)
	// SetFrameworkData 写入框架实例数据
	SetFrameworkData(selector, path string, value any) error
}
