package dom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Fpublisher/internal/types"
	"Fpublisher/internal/utils/poll"
)

// Match 定位结果，只保存选择器，操作前由 Surface 重新解析
type Match struct {
	Selector string
	Strategy Strategy
}

// Wait 等待参数，对应"最多 Attempts 次，每次间隔 Interval"
type Wait struct {
	Attempts int
	Interval time.Duration
}

// Condition 转为轮询条件
func (w Wait) Condition(predicate func() bool) poll.Condition {
	interval := w.Interval
	if interval <= 0 {
		interval = poll.FastInterval
	}
	return poll.Attempts(w.Attempts, interval, predicate)
}

// Duration 最长等待时间
func (w Wait) Duration() time.Duration {
	return w.Condition(nil).Timeout
}

// Locate 按顺序尝试各定位方式，返回第一个当前存在的元素
// 只读且不阻塞，选择器报错按未找到处理
func Locate(s Surface, strategies ...Strategy) (Match, bool) {
	for _, st := range strategies {
		sel := st.Selector()
		n, err := s.Count(sel)
		if err != nil || n == 0 {
			continue
		}
		return Match{Selector: sel, Strategy: st}, true
	}
	return Match{}, false
}

// Exists 任一定位方式命中即为真
func Exists(s Surface, strategies ...Strategy) bool {
	_, ok := Locate(s, strategies...)
	return ok
}

// AwaitLocate 轮询直到任一定位方式命中
// 超时返回 ElementNotFound，ctx 取消返回 Cancelled
func AwaitLocate(ctx context.Context, s Surface, wait Wait, strategies ...Strategy) (Match, error) {
	var m Match
	ok, err := poll.Await(ctx, wait.Condition(func() bool {
		var found bool
		m, found = Locate(s, strategies...)
		return found
	}))
	if err != nil {
		return Match{}, types.NewCancelledError("locate", err)
	}
	if !ok {
		return Match{}, types.NewElementNotFoundError("locate", fmt.Errorf("%s", describe(strategies)))
	}
	return m, nil
}

// AwaitGone 轮询直到所有定位方式都不再命中
func AwaitGone(ctx context.Context, s Surface, wait Wait, strategies ...Strategy) (bool, error) {
	ok, err := poll.Await(ctx, wait.Condition(func() bool {
		return !Exists(s, strategies...)
	}))
	if err != nil {
		return false, types.NewCancelledError("await-gone", err)
	}
	return ok, nil
}

func describe(strategies []Strategy) string {
	sels := make([]string, 0, len(strategies))
	for _, st := range strategies {
		sels = append(sels, st.Selector())
	}
	return strings.Join(sels, " | ")
}
