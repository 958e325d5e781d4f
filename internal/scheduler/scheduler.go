package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Fpublisher/internal/database"
	"Fpublisher/internal/platform/pipeline"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler 定时扫描到期任务并交给工作协程发布
// 每个工作协程同一时间只执行一条流水线
type Scheduler struct {
	db        *gorm.DB
	publisher types.Publisher
	workers   int
	spec      string
	location  *time.Location

	cron      *cron.Cron
	taskQueue chan string
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	running   bool
	observer  func(types.Event)
}

// NewScheduler spec 为 cron 表达式，如 "@every 10s"
func NewScheduler(db *gorm.DB, publisher types.Publisher, workers int, spec string, loc *time.Location) *Scheduler {
	if workers <= 0 {
		workers = 1
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		db:        db,
		publisher: publisher,
		workers:   workers,
		spec:      spec,
		location:  loc,
		taskQueue: make(chan string, 100),
	}
}

// SetObserver 订阅任务状态变更
func (s *Scheduler) SetObserver(fn func(types.Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.spec, s.checkPendingTasks); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}
	s.cron = c
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.running = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}
	c.Start()

	// 启动时先处理一次积压的任务
	go s.checkPendingTasks()

	utils.Info(fmt.Sprintf("[+] 调度器已启动，工作线程数: %d，扫描周期: %s", s.workers, s.spec))
	return nil
}

// Stop 停止扫描并取消执行中的流水线，等待工作协程退出
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(10 * time.Second):
		utils.Warn("[!] 等待定时扫描结束超时")
	}
	s.cancel()
	s.wg.Wait()

	utils.Info("[+] 调度器已停止")
}

// Enqueue 立即排队，队列满时等下一次扫描
func (s *Scheduler) Enqueue(taskID string) {
	select {
	case s.taskQueue <- taskID:
		utils.Debug(fmt.Sprintf("[+] 任务已加入队列: %s", taskID))
	default:
		utils.Warn(fmt.Sprintf("[!] 任务队列已满，等待下次扫描: %s", taskID))
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case taskID := <-s.taskQueue:
			s.executeTask(s.ctx, taskID)
		}
	}
}

func (s *Scheduler) checkPendingTasks() {
	var tasks []database.PublishTask
	if err := s.db.Select("id").
		Where("status = ? AND schedule_time <= ?", database.TaskStatusPending, time.Now()).
		Order("priority DESC, schedule_time ASC").
		Find(&tasks).Error; err != nil {
		utils.Error(fmt.Sprintf("[-] 查询待执行任务失败: %v", err))
		return
	}

	for _, task := range tasks {
		select {
		case s.taskQueue <- task.ID:
		default:
			return
		}
	}
}

// claim 把任务从 pending 改为 running，重复排队的任务只会执行一次
func (s *Scheduler) claim(taskID string) (bool, error) {
	result := s.db.Model(&database.PublishTask{}).
		Where("id = ? AND status = ?", taskID, database.TaskStatusPending).
		Updates(map[string]any{"status": database.TaskStatusRunning, "updated_at": time.Now()})
	return result.RowsAffected == 1, result.Error
}

func (s *Scheduler) executeTask(ctx context.Context, taskID string) {
	ok, err := s.claim(taskID)
	if err != nil {
		utils.Error(fmt.Sprintf("[-] 领取任务失败 %s: %v", taskID, err))
		return
	}
	if !ok {
		return
	}
	s.emit(taskID, database.TaskStatusPending, database.TaskStatusRunning)

	var task database.PublishTask
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		utils.Error(fmt.Sprintf("[-] 读取任务失败 %s: %v", taskID, err))
		s.markFailed(taskID, err)
		return
	}

	payload, err := types.ParsePayload([]byte(task.Payload), s.location)
	if err != nil {
		s.finish(&task, database.TaskStatusFailed, nil, err)
		return
	}

	summary, err := s.publisher.Publish(ctx, task.ID, task.Platform, payload)
	switch {
	case err != nil:
		s.finish(&task, database.TaskStatusFailed, nil, err)
	case summary.State == string(pipeline.StateCompleted):
		s.finish(&task, database.TaskStatusCompleted, summary, nil)
	default:
		s.finish(&task, database.TaskStatusAborted, summary, errors.New(summary.Reason))
	}
}

func (s *Scheduler) finish(task *database.PublishTask, status database.TaskStatus, summary *types.RunSummary, cause error) {
	now := time.Now()
	task.Status = status
	task.UpdatedAt = now
	task.CompletedAt = &now
	task.Error = ""
	if cause != nil {
		task.Error = cause.Error()
	}
	if summary != nil {
		task.RunID = summary.RunID
		task.AbortedAt = summary.AbortedAt
	}

	if err := s.db.Save(task).Error; err != nil {
		utils.Error(fmt.Sprintf("[-] 保存任务状态失败 %s: %v", task.ID, err))
	}
	s.emit(task.ID, database.TaskStatusRunning, status)

	msg := fmt.Sprintf("[+] 任务 %s 结束: %s", task.ID, status)
	if task.Error != "" {
		msg += " (" + task.Error + ")"
	}
	if status == database.TaskStatusCompleted {
		utils.SuccessWithPlatform(task.Platform, msg)
	} else {
		utils.WarnWithPlatform(task.Platform, msg)
	}
}

// markFailed 已领取但读不到完整记录的任务只更新状态列，避免停留在 running
func (s *Scheduler) markFailed(taskID string, cause error) {
	now := time.Now()
	err := s.db.Model(&database.PublishTask{}).
		Where("id = ? AND status = ?", taskID, database.TaskStatusRunning).
		Updates(map[string]any{
			"status":       database.TaskStatusFailed,
			"error":        cause.Error(),
			"completed_at": now,
			"updated_at":   now,
		}).Error
	if err != nil {
		utils.Error(fmt.Sprintf("[-] 保存任务状态失败 %s: %v", taskID, err))
	}
	s.emit(taskID, database.TaskStatusRunning, database.TaskStatusFailed)
}

func (s *Scheduler) emit(taskID string, from, to database.TaskStatus) {
	s.mu.RLock()
	fn := s.observer
	s.mu.RUnlock()
	if fn != nil {
		fn(types.TaskStatusChangedEvent{TaskID: taskID, OldStatus: string(from), NewStatus: string(to)})
	}
}
