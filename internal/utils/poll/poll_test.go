package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwait_ImmediateTrue(t *testing.T) {
	start := time.Now()
	ok, err := Await(context.Background(), Condition{
		Predicate: func() bool { return true },
		Interval:  time.Second,
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAwait_PanicCountsAsFalse(t *testing.T) {
	var calls int32
	ok, err := Await(context.Background(), Condition{
		Predicate: func() bool {
			atomic.AddInt32(&calls, 1)
			panic("boom")
		},
		Interval: 10 * time.Millisecond,
		Timeout:  50 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestAwait_BecomesTrue(t *testing.T) {
	var calls int32
	ok, err := Await(context.Background(), Condition{
		Predicate: func() bool { return atomic.AddInt32(&calls, 1) >= 3 },
		Interval:  5 * time.Millisecond,
		Timeout:   time.Second,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestAwait_Timeout(t *testing.T) {
	ok, err := Await(context.Background(), Condition{
		Predicate: func() bool { return false },
		Interval:  5 * time.Millisecond,
		Timeout:   30 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAwait_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	ok, err := Await(ctx, Condition{
		Predicate: func() bool { return false },
		Interval:  5 * time.Millisecond,
		Timeout:   10 * time.Second,
	})
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttempts(t *testing.T) {
	c := Attempts(20, 500*time.Millisecond, nil)
	assert.Equal(t, 500*time.Millisecond, c.Interval)
	assert.Equal(t, 19*500*time.Millisecond, c.Timeout)

	assert.Equal(t, time.Duration(0), Attempts(0, time.Second, nil).Timeout)
}
