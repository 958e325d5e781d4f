package service

import (
	"context"
	"fmt"
	"time"

	"Fpublisher/internal/database"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/media"
	"Fpublisher/internal/platform/pipeline"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PublishService 打开平台发布页并执行适配器流水线
type PublishService struct {
	db       *gorm.DB
	sessions SessionOpener
	registry *platform.Registry
	fetcher  *media.Router

	Location   *time.Location
	RunTimeout time.Duration
	// Screenshots 中止时截图
	Screenshots bool
	// Observer 额外的事件订阅者
	Observer pipeline.Observer
}

// NewPublishService db 为 nil 时不记录步骤
func NewPublishService(db *gorm.DB, sessions SessionOpener, registry *platform.Registry, fetcher *media.Router) *PublishService {
	return &PublishService{
		db:       db,
		sessions: sessions,
		registry: registry,
		fetcher:  fetcher,
		Location: time.Local,
	}
}

// Publish 打开平台默认发布页执行
func (s *PublishService) Publish(ctx context.Context, taskID, platformName string, payload *types.ContentPayload) (*types.RunSummary, error) {
	report, err := s.PublishPage(ctx, taskID, platformName, "", payload)
	if err != nil {
		return nil, err
	}
	return report.Summary(), nil
}

// PublishPage url 为空时使用适配器的发布页
// 返回错误表示流水线没有开始，步骤失败体现在报告里
func (s *PublishService) PublishPage(ctx context.Context, taskID, platformName, url string, payload *types.ContentPayload) (*pipeline.Report, error) {
	adapter, err := s.registry.Get(platformName)
	if err != nil {
		return nil, err
	}
	if url == "" {
		url = adapter.PublishURL
	}
	if !adapter.Matches(url) {
		utils.WarnWithPlatform(platformName, fmt.Sprintf("地址与平台不匹配: %s", url))
	}

	if s.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.RunTimeout)
		defer cancel()
	}

	session, err := s.sessions.OpenSession(ctx, platformName, url)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			utils.WarnWithPlatform(platformName, fmt.Sprintf("关闭页面失败: %v", err))
		}
	}()

	run := &pipeline.Run{
		ID:       uuid.NewString(),
		Platform: platformName,
		Page:     session.Surface(),
		Payload:  payload,
		Media:    media.NewResolver(s.fetcher.With("blob", session.BlobFetcher())),
		Location: s.Location,
	}
	utils.InfoWithPlatform(platformName, fmt.Sprintf("开始发布 run=%s task=%s", run.ID, taskID))

	report := adapter.Pipeline(s.observe(taskID)).Execute(ctx, run)

	if report.State == pipeline.StateAborted && s.Screenshots {
		if _, err := session.Screenshot(platformName + "_" + report.AbortedAt); err != nil {
			utils.WarnWithPlatform(platformName, fmt.Sprintf("中止截图失败: %v", err))
		}
	}
	return report, nil
}

// observe 把步骤结果写入数据库，再转给外部订阅者
func (s *PublishService) observe(taskID string) pipeline.Observer {
	seq := 0
	return func(e types.Event) {
		if fin, ok := e.(types.StepFinishedEvent); ok && s.db != nil && taskID != "" {
			seq++
			rec := &database.StepRecord{
				TaskID:     taskID,
				RunID:      fin.RunID,
				Seq:        seq,
				Step:       fin.Step,
				Outcome:    fin.Outcome,
				Reason:     fin.Reason,
				Detail:     fin.Detail,
				DurationMs: fin.DurationMs,
			}
			if err := s.db.Create(rec).Error; err != nil {
				utils.WarnWithPlatform(fin.Platform, fmt.Sprintf("保存步骤记录失败: %v", err))
			}
		}
		if s.Observer != nil {
			s.Observer(e)
		}
	}
}
