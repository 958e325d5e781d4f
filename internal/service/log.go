package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"Fpublisher/internal/types"
)

// LogService 日志服务
type LogService struct {
	logs         []types.SimpleLog
	mutex        sync.RWMutex
	limit        int              // 最大保留日志条数
	deduplicator *LogDeduplicator // 日志归并器
	enableDedup  bool             // 是否启用归并
	stop         chan struct{}
	stopOnce     sync.Once
}

// NewLogService 创建日志服务
func NewLogService() *LogService {
	s := &LogService{
		logs:         make([]types.SimpleLog, 0, 500),
		limit:        500,
		deduplicator: NewLogDeduplicator(),
		enableDedup:  true, // 默认启用归并
		stop:         make(chan struct{}),
	}
	// 启动定时刷新协程
	go s.startFlushLoop()
	return s
}

// startFlushLoop 启动定时刷新循环
func (s *LogService) startFlushLoop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.flushPending()
		}
	}
}

// Close 停止定时刷新，并输出尚未归并完的日志
func (s *LogService) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.flushPending()
	})
}

// flushPending 刷新待归并的日志
func (s *LogService) flushPending() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.enableDedup {
		s.appendMerged(s.deduplicator.FlushAll())
	}
}

// appendMerged 追加日志并截断到上限，调用方持有写锁
func (s *LogService) appendMerged(merged []MergedLog) {
	for _, m := range merged {
		s.logs = append(s.logs, m.SimpleLog)
	}
	// 超过限制时，移除最旧的日志
	if len(s.logs) > s.limit {
		s.logs = s.logs[len(s.logs)-s.limit:]
	}
}

// Add 添加日志（实现 LogServiceInterface 接口）
func (s *LogService) Add(log types.SimpleLog) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// 如果启用了归并，使用归并器处理
	if s.enableDedup {
		s.appendMerged(s.deduplicator.Process(log))
		return
	}
	s.appendMerged([]MergedLog{{SimpleLog: log}})
}

// Query 查询日志
func (s *LogService) Query(query types.LogQuery) []types.SimpleLog {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	limit := query.Limit
	if limit <= 0 {
		limit = 100
	}

	result := make([]types.SimpleLog, 0, limit)

	// 倒序遍历，最新的在前面
	for i := len(s.logs) - 1; i >= 0 && len(result) < limit; i-- {
		log := s.logs[i]

		// 关键词筛选
		if query.Keyword != "" && !strings.Contains(log.Message, query.Keyword) {
			continue
		}

		// 平台筛选
		if query.Platform != "" && log.Platform != query.Platform {
			continue
		}

		// 级别筛选
		if query.Level != "" && log.Level != query.Level {
			continue
		}

		result = append(result, log)
	}

	return result
}

// GetAll 获取所有日志
func (s *LogService) GetAll(limit int) []types.SimpleLog {
	if limit <= 0 {
		limit = 100
	}

	return s.Query(types.LogQuery{Limit: limit})
}

// Clear 清空日志
func (s *LogService) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.logs = make([]types.SimpleLog, 0, s.limit)
	// 同时清空归并器
	if s.deduplicator != nil {
		s.deduplicator.FlushAll()
	}
}

// Count 获取日志数量
func (s *LogService) Count() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.logs)
}

// SetDedupEnabled 设置是否启用日志归并
func (s *LogService) SetDedupEnabled(enabled bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	// 如果关闭归并，先输出所有待归并的日志
	if !enabled && s.enableDedup {
		s.appendMerged(s.deduplicator.FlushAll())
	}

	s.enableDedup = enabled
}

// IsDedupEnabled 获取归并是否启用
func (s *LogService) IsDedupEnabled() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.enableDedup
}

// GetPendingDedupCount 获取待归并的日志组数量
func (s *LogService) GetPendingDedupCount() int {
	if s.deduplicator == nil {
		return 0
	}
	return s.deduplicator.Pending()
}

// GetPlatforms 获取所有有日志的平台列表
func (s *LogService) GetPlatforms() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	platformMap := make(map[string]bool)
	for _, log := range s.logs {
		if log.Platform != "" {
			platformMap[log.Platform] = true
		}
	}

	platforms := make([]string, 0, len(platformMap))
	for platform := range platformMap {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}
