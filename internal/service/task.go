package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Fpublisher/internal/database"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTaskNotFound 任务不存在
var ErrTaskNotFound = errors.New("task not found")

// TaskService 发布任务的增删查
type TaskService struct {
	db       *gorm.DB
	registry *platform.Registry
	location *time.Location
}

func NewTaskService(db *gorm.DB, registry *platform.Registry, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{db: db, registry: registry, location: loc}
}

// CreateTask 校验平台和 payload 后入库，runAt 为零值时立即执行
func (s *TaskService) CreateTask(ctx context.Context, platformName string, payload []byte, runAt time.Time, priority int) (*database.PublishTask, error) {
	if _, err := s.registry.Get(platformName); err != nil {
		return nil, err
	}
	parsed, err := types.ParsePayload(payload, s.location)
	if err != nil {
		return nil, fmt.Errorf("invalid payload: %w", err)
	}
	// 统一存为 RFC3339 定时时间，执行时不再依赖时区配置
	normalized, err := types.EncodePayload(parsed)
	if err != nil {
		return nil, fmt.Errorf("encode payload failed: %w", err)
	}
	if runAt.IsZero() {
		runAt = time.Now()
	}

	task := &database.PublishTask{
		ID:           uuid.NewString(),
		Platform:     platformName,
		Payload:      string(normalized),
		Priority:     priority,
		ScheduleTime: runAt,
		Status:       database.TaskStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("save task failed: %w", err)
	}
	return task, nil
}

// GetTask 返回任务及其步骤记录
func (s *TaskService) GetTask(ctx context.Context, id string) (*database.PublishTask, error) {
	var task database.PublishTask
	err := s.db.WithContext(ctx).
		Preload("Steps", func(tx *gorm.DB) *gorm.DB { return tx.Order("id ASC") }).
		First(&task, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query task failed: %w", err)
	}
	return &task, nil
}

// ListTasks 按创建时间倒序，status 为空时不过滤
func (s *TaskService) ListTasks(ctx context.Context, status database.TaskStatus, limit int) ([]database.PublishTask, error) {
	if limit <= 0 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var tasks []database.PublishTask
	if err := q.Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("query tasks failed: %w", err)
	}
	return tasks, nil
}

// Payload 解析任务中保存的 payload
func (s *TaskService) Payload(task *database.PublishTask) (*types.ContentPayload, error) {
	return types.ParsePayload([]byte(task.Payload), s.location)
}
