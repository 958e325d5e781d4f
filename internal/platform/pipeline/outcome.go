package pipeline

import (
	"fmt"

	"Fpublisher/internal/types"
)

// OutcomeKind 步骤结果类型
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "Success"
	OutcomeSkipped OutcomeKind = "Skipped"
	OutcomeFailed  OutcomeKind = "Failed"
)

// Outcome 步骤结果
// Failed 时 Reason 为错误类型名（如 FetchFailure），Skipped 时为跳过原因
type Outcome struct {
	Kind   OutcomeKind
	Reason string
	Detail string
	Err    error
}

// Success 成功
func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

// SuccessWith 成功并附带说明
func SuccessWith(detail string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Detail: detail}
}

// Skip 跳过
func Skip(reason string) Outcome {
	return Outcome{Kind: OutcomeSkipped, Reason: reason}
}

// Fail 失败，原因取自错误类型
func Fail(err error) Outcome {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	reason := string(types.KindOf(err))
	if reason == "" {
		reason = "Error"
	}
	return Outcome{Kind: OutcomeFailed, Reason: reason, Detail: err.Error(), Err: err}
}

func (o Outcome) String() string {
	if o.Reason == "" {
		return string(o.Kind)
	}
	return fmt.Sprintf("%s(%s)", o.Kind, o.Reason)
}

// abortCode 必需步骤失败时的终止原因
func (o Outcome) abortCode() string {
	return types.KindOf(o.Err).AbortCode()
}

func (o Outcome) cancelled() bool {
	return types.KindOf(o.Err) == types.KindCancelled
}
