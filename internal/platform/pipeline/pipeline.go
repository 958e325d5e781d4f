// Package pipeline 通用的发布步骤流水线，各平台以声明式配置生成步骤
package pipeline

import (
	"context"
	"fmt"
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/media"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"
)

// State 流水线状态
type State string

const (
	StateNotStarted State = "NotStarted"
	StateRunning    State = "Running"
	StateCompleted  State = "Completed"
	StateAborted    State = "Aborted"
)

// Run 单次发布的上下文，步骤之间共享
type Run struct {
	ID       string
	Platform string
	Page     dom.Surface
	Payload  *types.ContentPayload
	Media    *media.Resolver
	Location *time.Location
}

// Step 流水线步骤
// When 为 nil 表示总是执行；返回 false 时不执行也不记录
type Step struct {
	Name     string
	Required bool
	When     func(p *types.ContentPayload) bool
	Action   func(ctx context.Context, run *Run) Outcome
}

// StepResult 单步结果
type StepResult struct {
	Step     string        `json:"step"`
	Outcome  OutcomeKind   `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report 流水线执行报告
type Report struct {
	RunID      string       `json:"runId"`
	Platform   string       `json:"platform"`
	State      State        `json:"state"`
	AbortedAt  string       `json:"abortedAt,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Steps      []StepResult `json:"steps"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
}

// Summary 转为简要结果
func (r *Report) Summary() *types.RunSummary {
	return &types.RunSummary{RunID: r.RunID, Platform: r.Platform, State: string(r.State), AbortedAt: r.AbortedAt, Reason: r.Reason}
}

// Result 返回指定步骤的结果
func (r *Report) Result(step string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s, true
		}
	}
	return StepResult{}, false
}

// Observer 事件回调
type Observer func(types.Event)

// Pipeline 顺序执行步骤，不回滚
type Pipeline struct {
	Platform string
	Steps    []Step
	Observer Observer
}

// emit 订阅者异常只记录日志，不影响流水线
func (p *Pipeline) emit(e types.Event) {
	if p.Observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			utils.WarnWithPlatform(p.Platform, fmt.Sprintf("事件订阅者异常 %s: %v", e.EventType(), r))
		}
	}()
	p.Observer(e)
}

// Execute 执行所有步骤，总是返回报告
// 必需步骤失败或 ctx 取消时中止，可选步骤失败只记录日志
func (p *Pipeline) Execute(ctx context.Context, run *Run) *Report {
	report := &Report{
		RunID:     run.ID,
		Platform:  p.Platform,
		State:     StateRunning,
		Steps:     make([]StepResult, 0, len(p.Steps)),
		StartedAt: time.Now(),
	}

	total := len(p.Steps)
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			p.abort(report, step.Name, types.KindCancelled.AbortCode())
			break
		}
		apply, out := evalWhen(step, run.Payload)
		if !apply {
			continue
		}

		p.emit(types.StepStartedEvent{RunID: run.ID, Platform: p.Platform, Step: step.Name, Index: i, Total: total})

		start := time.Now()
		if out.Kind == "" {
			out = runStep(ctx, step, run)
		}
		result := StepResult{
			Step:     step.Name,
			Outcome:  out.Kind,
			Reason:   out.Reason,
			Detail:   out.Detail,
			Duration: time.Since(start),
		}
		report.Steps = append(report.Steps, result)
		p.logStep(i, total, result)

		p.emit(types.StepFinishedEvent{
			RunID:      run.ID,
			Platform:   p.Platform,
			Step:       step.Name,
			Index:      i,
			Outcome:    string(out.Kind),
			Reason:     out.Reason,
			Detail:     out.Detail,
			DurationMs: result.Duration.Milliseconds(),
		})

		if out.Kind != OutcomeFailed {
			continue
		}
		if out.cancelled() {
			p.abort(report, step.Name, types.KindCancelled.AbortCode())
			break
		}
		if step.Required {
			p.abort(report, step.Name, out.abortCode())
			break
		}
	}

	if report.State == StateRunning {
		report.State = StateCompleted
		utils.SuccessWithPlatform(p.Platform, fmt.Sprintf("[%s] 流水线完成", run.ID))
	}
	report.FinishedAt = time.Now()

	p.emit(types.RunFinishedEvent{
		RunID:     run.ID,
		Platform:  p.Platform,
		State:     string(report.State),
		AbortedAt: report.AbortedAt,
		Reason:    report.Reason,
	})
	return report
}

func (p *Pipeline) abort(report *Report, step, reason string) {
	report.State = StateAborted
	report.AbortedAt = step
	report.Reason = reason
	utils.ErrorWithPlatform(p.Platform, fmt.Sprintf("[%s] 流水线中止于 %s: %s", report.RunID, step, reason))
}

func (p *Pipeline) logStep(i, total int, r StepResult) {
	msg := fmt.Sprintf("[步骤 %d/%d] %s: %s", i+1, total, r.Step, r.Outcome)
	if r.Reason != "" {
		msg += " (" + r.Reason + ")"
	}
	if r.Detail != "" {
		msg += " - " + r.Detail
	}
	switch r.Outcome {
	case OutcomeFailed:
		utils.WarnWithPlatform(p.Platform, msg)
	default:
		utils.InfoWithPlatform(p.Platform, msg)
	}
}

func panicOutcome(r any) Outcome {
	return Outcome{Kind: OutcomeFailed, Reason: "Panic", Detail: fmt.Sprintf("%v", r), Err: fmt.Errorf("panic: %v", r)}
}

// evalWhen When 异常时仍记录该步骤，结果为 Failed
func evalWhen(step Step, payload *types.ContentPayload) (apply bool, out Outcome) {
	if step.When == nil {
		return true, Outcome{}
	}
	defer func() {
		if r := recover(); r != nil {
			apply, out = true, panicOutcome(r)
		}
	}()
	return step.When(payload), Outcome{}
}

func runStep(ctx context.Context, step Step, run *Run) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = panicOutcome(r)
		}
	}()
	if step.Action == nil {
		return Skip("no action")
	}
	return step.Action(ctx, run)
}
