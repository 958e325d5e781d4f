// Package poll 提供固定间隔的条件轮询
package poll

import (
	"context"
	"time"
)

const (
	// FastInterval 元素存在性检查的默认间隔
	FastInterval = 300 * time.Millisecond
	// SlowInterval 上传进度检查的默认间隔
	SlowInterval = time.Second
)

// Condition 轮询条件
type Condition struct {
	Predicate func() bool
	Interval  time.Duration
	Timeout   time.Duration
}

// Attempts 按次数和间隔构造条件，与页面脚本里"最多 N 次，每次间隔 d"的写法对应
func Attempts(n int, interval time.Duration, predicate func() bool) Condition {
	if n < 1 {
		n = 1
	}
	return Condition{
		Predicate: predicate,
		Interval:  interval,
		Timeout:   time.Duration(n-1) * interval,
	}
}

// Await 立即检查一次条件，之后每隔 Interval 检查，直到为真或超过 Timeout
// 条件函数 panic 视为 false；ctx 取消时返回 (false, ctx.Err())
func Await(ctx context.Context, c Condition) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if check(c.Predicate) {
		return true, nil
	}

	interval := c.Interval
	if interval <= 0 {
		interval = FastInterval
	}
	deadline := time.Now().Add(c.Timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
		if check(c.Predicate) {
			return true, nil
		}
	}
}

// Sleep 等待 d 或 ctx 取消
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func check(predicate func() bool) (ok bool) {
	if predicate == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	return predicate()
}
