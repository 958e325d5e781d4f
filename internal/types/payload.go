package types

import (
	"context"
	"fmt"
	"time"
)

// File 已在内存中的媒体文件
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Size 返回文件字节数
func (f *File) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// MediaRef 媒体引用，SourceURL 与 Inline 至少存在一个
type MediaRef struct {
	SourceURL string // 远程地址（http/https/s3/file/blob）
	FileName  string // 文件名，用于生成上传文件名
	MimeType  string // 可选，MIME 类型
	Inline    *File  // 可选，已在内存中的文件，存在时不发起下载
}

// Validate 校验媒体引用
func (m *MediaRef) Validate() error {
	if m == nil {
		return fmt.Errorf("媒体引用为空")
	}
	if m.SourceURL == "" && m.Inline == nil {
		return fmt.Errorf("媒体引用缺少地址和文件")
	}
	return nil
}

// ContentPayload 归一化的发布内容，一次发布过程中只读
type ContentPayload struct {
	Title         string
	Description   string
	Tags          []string
	Video         *MediaRef
	Cover         *MediaRef
	VerticalCover *MediaRef // 竖版封面
	FocusImage    *MediaRef // 焦点图
	ScheduledAt   *time.Time
	AutoPublish   bool
}

// Publisher 发布器接口，由调度器和HTTP接口调用
type Publisher interface {
	Publish(ctx context.Context, taskID, platform string, payload *ContentPayload) (*RunSummary, error)
}

// RunSummary 一次发布的简要结果
type RunSummary struct {
	RunID     string `json:"runId"`
	Platform  string `json:"platform"`
	State     string `json:"state"`
	AbortedAt string `json:"abortedAt,omitempty"`
	Reason    string `json:"reason"`
}
