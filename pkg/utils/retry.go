package utils

import (
	"context"
	"fmt"
	"time"
)

// PipelineError 是转录流水线错误的基础类型
type PipelineError struct {
	Message string
	Cause   error
}

// Error 实现error接口
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

// Unwrap 支持error chain
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewError 创建一个新的PipelineError
func NewError(message string, cause error) error {
	return &PipelineError{
		Message: message,
		Cause:   cause,
	}
}

// Retrier 在限定时间窗口内按固定间隔重试操作
// 直播缓冲尚未写满目标区间属于预期的瞬时失败，靠轮询等待缓冲增长即可恢复
type Retrier struct {
	Window   time.Duration // 重试窗口，超过后放弃
	Interval time.Duration // 两次尝试之间的等待
	Clock    Clock
}

// NewRetrier 创建新的重试器
func NewRetrier(window, interval time.Duration, clock Clock) *Retrier {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &Retrier{
		Window:   window,
		Interval: interval,
		Clock:    clock,
	}
}

// Do 执行fn直到成功或窗口耗尽
// alive为非nil时，每轮失败后检查依赖的后台任务是否还活着，死亡则立即放弃
func (r *Retrier) Do(ctx context.Context, operation string, fn func() error, alive func() bool) error {
	start := r.Clock.Now()
	attempt := 0

	for {
		attempt++
		err := fn()
		if err == nil {
			if attempt > 1 {
				Debug("操作 %s 在第 %d 次尝试后成功", operation, attempt)
			}
			return nil
		}

		if ctx.Err() != nil {
			return NewError(fmt.Sprintf("操作 %s 被取消", operation), err)
		}

		if alive != nil && !alive() {
			return NewError(fmt.Sprintf("操作 %s 的后台依赖已退出，停止重试", operation), err)
		}

		if r.Clock.Since(start) >= r.Window {
			return NewError(
				fmt.Sprintf("操作 %s 在 %.1f 秒内尝试 %d 次后仍然失败",
					operation, r.Window.Seconds(), attempt),
				err)
		}

		Debug("操作 %s 失败 (尝试 %d): %v，%.1f 秒后重试", operation, attempt, err, r.Interval.Seconds())
		r.Clock.Sleep(ctx, r.Interval)
	}
}
