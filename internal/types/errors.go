package types

import (
	"errors"
	"fmt"
)

// ErrorKind 步骤错误类型
type ErrorKind string

const (
	KindMissingInput      ErrorKind = "MissingInput"
	KindElementNotFound   ErrorKind = "ElementNotFound"
	KindUploadTimeout     ErrorKind = "UploadTimeout"
	KindSubmitUnavailable ErrorKind = "SubmitUnavailable"
	KindFetchFailure      ErrorKind = "FetchFailure"
	KindCancelled         ErrorKind = "Cancelled"
)

// 哨兵错误，配合 errors.Is 使用
var (
	ErrMissingInput      = errors.New("missing input")
	ErrElementNotFound   = errors.New("element not found")
	ErrUploadTimeout     = errors.New("upload timeout")
	ErrSubmitUnavailable = errors.New("submit unavailable")
	ErrFetchFailure      = errors.New("fetch failure")
	ErrCancelled         = errors.New("cancelled")
)

var kindSentinels = map[ErrorKind]error{
	KindMissingInput:      ErrMissingInput,
	KindElementNotFound:   ErrElementNotFound,
	KindUploadTimeout:     ErrUploadTimeout,
	KindSubmitUnavailable: ErrSubmitUnavailable,
	KindFetchFailure:      ErrFetchFailure,
	KindCancelled:         ErrCancelled,
}

// AbortCode 流水线终止原因代码
func (k ErrorKind) AbortCode() string {
	switch k {
	case KindMissingInput:
		return "missing-input"
	case KindElementNotFound:
		return "element-not-found"
	case KindUploadTimeout:
		return "upload-timeout"
	case KindSubmitUnavailable:
		return "submit-unavailable"
	case KindFetchFailure:
		return "fetch-failure"
	case KindCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// StepError 步骤错误
type StepError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	if e.Err == nil {
		return []error{kindSentinels[e.Kind]}
	}
	return []error{kindSentinels[e.Kind], e.Err}
}

func newStepError(kind ErrorKind, op string, err error) *StepError {
	return &StepError{Kind: kind, Op: op, Err: err}
}

// NewMissingInputError 缺少必要输入
func NewMissingInputError(op string, err error) *StepError {
	return newStepError(KindMissingInput, op, err)
}

// NewElementNotFoundError 元素未找到
func NewElementNotFoundError(op string, err error) *StepError {
	return newStepError(KindElementNotFound, op, err)
}

// NewUploadTimeoutError 上传未在限定时间内完成
func NewUploadTimeoutError(op string, err error) *StepError {
	return newStepError(KindUploadTimeout, op, err)
}

// NewSubmitUnavailableError 发布按钮不可用
func NewSubmitUnavailableError(op string, err error) *StepError {
	return newStepError(KindSubmitUnavailable, op, err)
}

// NewFetchError 媒体下载失败
func NewFetchError(op string, err error) *StepError {
	return newStepError(KindFetchFailure, op, err)
}

// NewCancelledError 被取消
func NewCancelledError(op string, err error) *StepError {
	return newStepError(KindCancelled, op, err)
}

// KindOf 返回错误对应的类型，未知错误返回空字符串
func KindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}
