package service

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"Fpublisher/internal/types"
)

// MergeRule 同类日志在窗口内合并为一条汇总
type MergeRule struct {
	Name      string
	Pattern   *regexp.Regexp
	Window    time.Duration
	Limit     int  // 单组最多累计条数，达到后另起一组
	KeepFirst bool // 首条原样输出，其后只输出汇总
}

// MergedLog 归并后的日志
type MergedLog struct {
	types.SimpleLog
	IsMerged    bool   `json:"isMerged"`
	RepeatCount int    `json:"repeatCount"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// burst 一段时间内命中同一规则的日志
type burst struct {
	rule  *MergeRule
	first types.SimpleLog
	last  types.SimpleLog
	count int
	seen  time.Time
}

// LogDeduplicator 按平台和级别归并发布过程中反复出现的告警
type LogDeduplicator struct {
	mu     sync.Mutex
	rules  []MergeRule
	bursts map[string]*burst
}

func NewLogDeduplicator() *LogDeduplicator {
	return &LogDeduplicator{rules: pipelineRules(), bursts: make(map[string]*burst)}
}

// pipelineRules 发布流程中会成串出现的消息
func pipelineRules() []MergeRule {
	return []MergeRule{
		// 逐个添加标签时每个标签各报一次
		{Name: "tags", Pattern: regexp.MustCompile(`未找到标签联想项|点击标签联想项失败|标签回车失败`), Window: 20 * time.Second, Limit: 50, KeepFirst: true},
		// 浏览器被关闭后回收页面和上下文的连锁报错
		{Name: "teardown", Pattern: regexp.MustCompile(`关闭(页面|上下文)失败|保存登录态失败`), Window: 30 * time.Second, Limit: 100, KeepFirst: true},
		{Name: "history", Pattern: regexp.MustCompile(`保存步骤记录失败`), Window: 30 * time.Second, Limit: 50},
		{Name: "observer", Pattern: regexp.MustCompile(`事件订阅者异常`), Window: 10 * time.Second, Limit: 50, KeepFirst: true},
	}
}

// levelOf 优先取结构化级别，否则看消息里的 [LEVEL] 前缀
func levelOf(log types.SimpleLog) string {
	if log.Level != "" {
		return string(log.Level)
	}
	msg := strings.ToLower(log.Message)
	for _, l := range []types.LogLevel{types.LogLevelError, types.LogLevelWarn, types.LogLevelDebug, types.LogLevelSuccess} {
		if strings.Contains(msg, "["+string(l)+"]") {
			return string(l)
		}
	}
	return string(types.LogLevelInfo)
}

func (d *LogDeduplicator) match(message string) *MergeRule {
	for i := range d.rules {
		if d.rules[i].Pattern.MatchString(message) {
			return &d.rules[i]
		}
	}
	return nil
}

// Process 返回需要立即写入的日志，命中规则的日志先暂存
func (d *LogDeduplicator) Process(log types.SimpleLog) []MergedLog {
	rule := d.match(log.Message)
	if rule == nil {
		return []MergedLog{{SimpleLog: log}}
	}

	at, err := time.Parse("15:04:05", log.Time)
	if err != nil {
		at = time.Now()
	}
	key := rule.Name + "|" + log.Platform + "|" + levelOf(log)

	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.bursts[key]
	if ok && at.Sub(b.seen) <= rule.Window && b.count < rule.Limit {
		b.count++
		b.last = log
		b.seen = at
		return nil
	}
	var out []MergedLog
	if ok {
		out = b.release()
	}
	d.bursts[key] = &burst{rule: rule, first: log, last: log, count: 1, seen: at}
	return out
}

func (b *burst) release() []MergedLog {
	if b.count == 1 {
		return []MergedLog{{SimpleLog: b.first, RepeatCount: 1}}
	}
	summary := b.first
	if b.rule.KeepFirst {
		summary.Message = fmt.Sprintf("  ↳ 该消息在 %s 内重复出现 %d 次 (%s ~ %s)", b.rule.Window, b.count, b.first.Time, b.last.Time)
	} else {
		summary.Message = fmt.Sprintf("%s (重复出现 %d 次)", b.first.Message, b.count)
	}
	merged := MergedLog{SimpleLog: summary, IsMerged: true, RepeatCount: b.count, StartTime: b.first.Time, EndTime: b.last.Time}
	if !b.rule.KeepFirst {
		return []MergedLog{merged}
	}
	return []MergedLog{{SimpleLog: b.first, RepeatCount: 1}, merged}
}

// FlushAll 输出全部暂存的日志
func (d *LogDeduplicator) FlushAll() []MergedLog {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []MergedLog
	for key, b := range d.bursts {
		out = append(out, b.release()...)
		delete(d.bursts, key)
	}
	return out
}

// Pending 暂存中的分组数
func (d *LogDeduplicator) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.bursts)
}
