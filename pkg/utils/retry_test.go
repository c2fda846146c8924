package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock 手动推进的假时钟，Sleep直接推进时间
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Since(t time.Time) time.Duration { return c.now.Sub(t) }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) { c.now = c.now.Add(d) }

func TestRetrierSucceedsFirstTry(t *testing.T) {
	InitLogger(LogLevelQuiet, "")

	clock := newFakeClock()
	r := NewRetrier(10*time.Second, time.Second, clock)

	callCount := 0
	err := r.Do(context.Background(), "test_success", func() error {
		callCount++
		return nil
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount) // 应该只调用一次就成功
}

func TestRetrierRetriesUntilSuccess(t *testing.T) {
	InitLogger(LogLevelQuiet, "")

	clock := newFakeClock()
	r := NewRetrier(10*time.Second, time.Second, clock)

	callCount := 0
	err := r.Do(context.Background(), "test_retry", func() error {
		callCount++
		if callCount < 3 {
			return errors.New("预期错误")
		}
		return nil
	}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount) // 应该在第三次调用时成功
}

func TestRetrierGivesUpAfterWindow(t *testing.T) {
	InitLogger(LogLevelQuiet, "")

	clock := newFakeClock()
	r := NewRetrier(3*time.Second, time.Second, clock)

	callCount := 0
	testErr := errors.New("总是失败")
	err := r.Do(context.Background(), "test_window", func() error {
		callCount++
		return testErr
	}, nil)

	assert.Error(t, err)
	assert.ErrorIs(t, err, testErr) // 最后一次的原始错误应在error chain中
	// 窗口3秒、间隔1秒：第4次尝试前Since已达窗口
	assert.Equal(t, 4, callCount)
}

func TestRetrierStopsWhenDependencyDead(t *testing.T) {
	InitLogger(LogLevelQuiet, "")

	clock := newFakeClock()
	r := NewRetrier(time.Hour, time.Second, clock)

	callCount := 0
	err := r.Do(context.Background(), "test_dead", func() error {
		callCount++
		return errors.New("区间不可用")
	}, func() bool {
		return false // 后台任务已死
	})

	assert.Error(t, err)
	assert.Equal(t, 1, callCount) // 依赖死亡应立即停止重试
}

func TestRetrierObservesCancellation(t *testing.T) {
	InitLogger(LogLevelQuiet, "")

	clock := newFakeClock()
	r := NewRetrier(time.Hour, time.Second, clock)

	ctx, cancel := context.WithCancel(context.Background())

	callCount := 0
	err := r.Do(ctx, "test_cancel", func() error {
		callCount++
		cancel() // 第一次失败时取消
		return errors.New("预期错误")
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, callCount)
}
