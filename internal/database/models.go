package database

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusAborted   TaskStatus = "aborted"
	// TaskStatusFailed 流水线未能启动，如浏览器或平台不可用
	TaskStatusFailed TaskStatus = "failed"
)

// PublishTask 发布任务，Payload 为同步数据 JSON
type PublishTask struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Platform     string     `gorm:"index;size:32" json:"platform"`
	Payload      string     `gorm:"type:text" json:"payload"`
	Priority     int        `json:"priority"`
	ScheduleTime time.Time  `gorm:"index" json:"scheduleTime"`
	Status       TaskStatus `gorm:"index;size:16" json:"status"`
	RunID        string     `gorm:"size:36" json:"runId,omitempty"`
	AbortedAt    string     `json:"abortedAt,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`

	Steps []StepRecord `gorm:"foreignKey:TaskID" json:"steps,omitempty"`
}

// StepRecord 单个步骤的执行结果
type StepRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaskID     string    `gorm:"index;size:36" json:"taskId"`
	RunID      string    `gorm:"index;size:36" json:"runId"`
	Seq        int       `json:"seq"`
	Step       string    `gorm:"size:32" json:"step"`
	Outcome    string    `gorm:"size:16" json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MediaFile 导入到本地媒体目录的文件
type MediaFile struct {
	ID        int    `gorm:"primaryKey" json:"id"`
	Filename  string `json:"filename"`
	FilePath  string `json:"filePath"`
	FileSize  int64  `json:"fileSize"`
	MimeType  string `json:"mimeType"`
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail,omitempty"`
	CreatedAt string `json:"createdAt"`
}
