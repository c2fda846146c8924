// Package scheduler 实现直播转录的核心节拍循环
//
// 循环按固定步长推进片段序号：每个tick先切片、再转录、然后等待下一个
// 节拍点。切片和转录都可能慢于实时，循环落后时立即开始下一个tick，
// 片段序号不跳号、不重置，保证转录覆盖直播的每一段时间。
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/segment"
	"github.com/ccp-p/live-asr-cli/pkg/transcribe"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// Sink 接收产出的转录行
type Sink func(models.TranscriptLine)

// Stats 是循环的运行统计
type Stats struct {
	Ticks              int     // 已执行的tick数
	Emitted            int     // 成功产出的转录行数
	ExtractFailures    int     // 重试窗口耗尽的切片失败数
	TranscribeFailures int     // 引擎失败数
	Elapsed            float64 // 循环启动以来的秒数
}

// Scheduler 驱动 切片->转录->等待 的节拍循环
type Scheduler struct {
	Step        time.Duration // 每个片段的步长
	MaxDuration time.Duration // 运行时长上限，0表示不限

	clock       utils.Clock
	extractor   segment.Extractor
	transcriber transcribe.Transcriber
	sink        Sink

	mu        sync.Mutex
	loopStart time.Time
	running   bool
	stats     Stats
}

// New 创建节拍循环
func New(config *models.Config, extractor segment.Extractor, transcriber transcribe.Transcriber,
	sink Sink, clock utils.Clock) *Scheduler {

	if clock == nil {
		clock = utils.NewSystemClock()
	}

	return &Scheduler{
		Step:        time.Duration(config.StepSeconds) * time.Second,
		MaxDuration: time.Duration(config.MaxDuration) * time.Second,
		clock:       clock,
		extractor:   extractor,
		transcriber: transcriber,
		sink:        sink,
	}
}

// Run 执行循环直到取消或达到时长上限
//
// 启动后先无条件等待一个完整步长，让片段0有数据可切。取消只在tick边界
// 处观察：进行中的tick总是先完成（或耗尽切片重试窗口）再退出
func (s *Scheduler) Run(ctx context.Context) error {
	utils.Info("缓冲中，等待 %.0f 秒...", s.Step.Seconds())
	s.clock.Sleep(ctx, s.Step)

	loopStart := s.clock.Now()
	s.mu.Lock()
	s.loopStart = loopStart
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	for i := 0; ; i++ {
		// tick边界：进入下一个tick前观察取消
		if ctx.Err() != nil {
			utils.Info("收到取消，停止转录循环")
			return nil
		}

		s.runTick(ctx, i)

		// 节拍控制：tick i结束后等到 (i+1)*step，这是对直播源的背压，
		// 处理快于步长的部分靠等待吸收，慢于步长时立即进入下一个tick
		target := time.Duration(i+1) * s.Step
		if wait := target - s.clock.Since(loopStart); wait > 0 {
			s.clock.Sleep(ctx, wait)
		}

		// 终止条件在节拍等待之后检查，每个tick一次
		if ctx.Err() != nil {
			utils.Info("收到取消，停止转录循环")
			return nil
		}
		if s.MaxDuration > 0 && s.clock.Since(loopStart) >= s.MaxDuration {
			utils.Info("达到最大时长 %.0f 秒，停止转录循环", s.MaxDuration.Seconds())
			return nil
		}
	}
}

// runTick 执行一个tick：切片、转录、产出
// 任何一步失败都只记录日志，不中断循环、不影响节拍
func (s *Scheduler) runTick(ctx context.Context, index int) {
	s.mu.Lock()
	s.stats.Ticks++
	s.mu.Unlock()

	utils.Debug("tick %d 开始", index)

	segmentPath, err := s.extractor.Extract(ctx, index)
	if err != nil {
		utils.Warn("片段%d切片失败，本段无输出: %v", index, err)
		s.mu.Lock()
		s.stats.ExtractFailures++
		s.mu.Unlock()
		return
	}

	line, err := s.transcriber.Transcribe(ctx, segmentPath, index)
	if err != nil {
		utils.Warn("片段%d转录失败，本段无输出: %v", index, err)
		s.mu.Lock()
		s.stats.TranscribeFailures++
		s.mu.Unlock()
		return
	}

	if s.sink != nil {
		s.sink(line)
	}

	s.mu.Lock()
	s.stats.Emitted++
	s.mu.Unlock()
}

// Stats 返回当前运行统计的快照
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.stats
	if s.running {
		out.Elapsed = s.clock.Since(s.loopStart).Seconds()
	}
	return out
}
