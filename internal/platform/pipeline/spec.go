package pipeline

import (
	"time"

	"Fpublisher/internal/platform/dom"
)

// 标准步骤名，顺序固定
const (
	StepUploadVideo     = "upload-video"
	StepWaitReady       = "wait-ready"
	StepTitle           = "title"
	StepDescription     = "description"
	StepTags            = "tags"
	StepCover           = "cover"
	StepVerticalCover   = "vertical-cover"
	StepFocusImage      = "focus-image"
	StepDeclareOriginal = "declare-original"
	StepSchedule        = "schedule"
	StepSubmit          = "submit"
)

// DefaultMaxTags 平台未声明时的标签上限
const DefaultMaxTags = 5

// Click 点击一个元素，先等待其出现
type Click struct {
	Target   []dom.Strategy
	Wait     dom.Wait
	Optional bool          // 找不到时跳过
	Pause    time.Duration // 点击后等待界面响应
}

// VideoSpec 视频上传
type VideoSpec struct {
	Open  []Click
	Input []dom.Strategy
	Wait  dom.Wait
}

// ReadySpec 上传后编辑表单就绪的判断
// URLContains 非空时地址必须包含它，Any 非空时任一元素存在
type ReadySpec struct {
	Any         []dom.Strategy
	URLContains string
	Wait        dom.Wait
}

// FieldSpec 文本字段
type FieldSpec struct {
	Open   []Click
	Target []dom.Strategy
	Mode   dom.Mode
	Wait   dom.Wait
	MaxLen int       // 按字符截断，0 不限制
	Hook   *dom.Hook // DOM 元素找不到时的框架数据写入
}

// TagMode 标签写入方式
type TagMode int

const (
	// TagsInDescription 以 #标签 追加到简介
	TagsInDescription TagMode = iota
	// TagsJoined 拼接后写入标签输入框
	TagsJoined
	// TagsEach 逐个写入并点击联想结果
	TagsEach
	// TagsHook 合并进框架数据中的标签列表
	TagsHook
)

// TagSpec 标签
type TagSpec struct {
	Mode       TagMode
	Open       []Click
	Input      []dom.Strategy
	InputMode  dom.Mode
	Wait       dom.Wait
	Separator  string // TagsJoined 的分隔符，默认空格
	PressEnter bool

	Suggestion     func(tag string) []dom.Strategy // TagsEach 的联想项
	SuggestionWait dom.Wait

	Hook *dom.Hook // TagsHook 的标签列表位置
}

// ImageSpec 封面、竖版封面、焦点图
// Gate 等待视频上传完成，Loading 等待图片上传结束
type ImageSpec struct {
	Gate       []dom.Strategy
	GateWait   dom.Wait
	Open       []Click
	Input      []dom.Strategy
	InputWait  dom.Wait
	Loading    []dom.Strategy
	SettleWait dom.Wait
	Confirm    []Click
}

// ToggleSpec 声明原创等开关，ActiveClass 用于判断已开启
type ToggleSpec struct {
	Target      []dom.Strategy
	Wait        dom.Wait
	ActiveClass string
}

// ScheduleSpec 定时发布
type ScheduleSpec struct {
	Open   []Click
	Input  []dom.Strategy
	Mode   dom.Mode
	Wait   dom.Wait
	Layout string // 默认 2006-01-02 15:04
}

// SubmitSpec 发布按钮，目标自动附加可用条件
type SubmitSpec struct {
	Target  []dom.Strategy
	Wait    dom.Wait
	Confirm []Click // 二次确认弹窗
}

// Spec 平台声明，nil 的部分不生成对应步骤
type Spec struct {
	Platform   string
	Name       string
	PublishURL string
	Match      []string // 页面地址包含任一即匹配
	MaxTags    int

	Dismiss []dom.Strategy // 弹窗关闭按钮，就绪等待期间和图片步骤前尝试

	Video         VideoSpec
	Ready         ReadySpec
	Title         *FieldSpec
	Description   *FieldSpec
	Tags          *TagSpec
	Cover         *ImageSpec
	VerticalCover *ImageSpec
	FocusImage    *ImageSpec
	Original      *ToggleSpec
	Schedule      *ScheduleSpec
	Submit        *SubmitSpec // nil 表示需要人工发布
}

func (s *Spec) maxTags() int {
	if s.MaxTags > 0 {
		return s.MaxTags
	}
	return DefaultMaxTags
}

func (s *Spec) tagsInDescription() bool {
	return s.Tags != nil && s.Tags.Mode == TagsInDescription
}
