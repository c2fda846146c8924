package utils

import (
	"context"
	"time"
)

// Clock 抽象时间操作，便于在测试中注入假时钟
type Clock interface {
	// Now 返回当前时间
	Now() time.Time
	// Since 返回自t以来经过的时间
	Since(t time.Time) time.Duration
	// Sleep 等待d时长，上下文取消时提前返回
	Sleep(ctx context.Context, d time.Duration)
}

// SystemClock 基于真实时间的Clock实现
type SystemClock struct{}

// NewSystemClock 创建系统时钟
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now 返回当前时间
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// Since 返回自t以来经过的时间
func (c *SystemClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Sleep 等待d时长，上下文取消时提前返回
func (c *SystemClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
