package types

// Event 事件接口
// 流水线通过观察者回调发出事件，服务层据此记录步骤结果
type Event interface {
	EventType() string
}

// StepStartedEvent 步骤开始事件
type StepStartedEvent struct {
	RunID    string `json:"runId"`
	Platform string `json:"platform"`
	Step     string `json:"step"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
}

// EventType 返回事件类型
func (e StepStartedEvent) EventType() string { return "step_started" }

// StepFinishedEvent 步骤结束事件
type StepFinishedEvent struct {
	RunID      string `json:"runId"`
	Platform   string `json:"platform"`
	Step       string `json:"step"`
	Index      int    `json:"index"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail"`
	DurationMs int64  `json:"durationMs"`
}

// EventType 返回事件类型
func (e StepFinishedEvent) EventType() string { return "step_finished" }

// RunFinishedEvent 流水线结束事件
type RunFinishedEvent struct {
	RunID     string `json:"runId"`
	Platform  string `json:"platform"`
	State     string `json:"state"`
	AbortedAt string `json:"abortedAt"`
	Reason    string `json:"reason"`
}

// EventType 返回事件类型
func (e RunFinishedEvent) EventType() string { return "run_finished" }

// TaskStatusChangedEvent 任务状态变更事件
type TaskStatusChangedEvent struct {
	TaskID    string `json:"taskId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
}

// EventType 返回事件类型
func (e TaskStatusChangedEvent) EventType() string { return "task_status_changed" }
