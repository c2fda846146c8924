// Package controller 组装并驱动一次直播转录会话
package controller

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ccp-p/live-asr-cli/internal/ui"
	"github.com/ccp-p/live-asr-cli/internal/watcher"
	"github.com/ccp-p/live-asr-cli/internal/web"
	"github.com/ccp-p/live-asr-cli/pkg/capture"
	"github.com/ccp-p/live-asr-cli/pkg/export"
	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/scheduler"
	"github.com/ccp-p/live-asr-cli/pkg/segment"
	"github.com/ccp-p/live-asr-cli/pkg/transcribe"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// LiveController 持有一次会话的全部组件，负责启动、关停和清理
type LiveController struct {
	Config    *models.Config
	SessionID string

	Store       *models.TranscriptStore
	Printer     *ui.TranscriptPrinter
	Capturer    capture.Capturer
	Monitor     *watcher.BufferMonitor
	Scheduler   *scheduler.Scheduler
	Transcriber *transcribe.WhisperTranscriber
	WebServer   *web.Server

	TempDir string

	ctx        context.Context
	cancelFunc context.CancelFunc

	mu      sync.Mutex
	cleanup []func() // 清理函数列表，逆序执行

	startTime time.Time
}

// NewLiveController 创建会话控制器
// 配置在这里完成最终验证，之后在整个运行期间不再修改
func NewLiveController(config *models.Config) (*LiveController, error) {
	ctx, cancel := context.WithCancel(context.Background())

	lc := &LiveController{
		Config:     config,
		SessionID:  uuid.New().String()[:8],
		Store:      models.NewTranscriptStore(),
		ctx:        ctx,
		cancelFunc: cancel,
	}

	// 初始化日志
	level := utils.VerbosityToLevel(config.Verbosity)
	if err := utils.InitLogger(level, config.LogFile); err != nil {
		cancel()
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	if err := config.Validate(); err != nil {
		cancel()
		return nil, err
	}

	// 创建临时目录，存放缓冲文件和片段槽位
	tempDir, err := os.MkdirTemp(config.TempDir, "live-asr-")
	if err != nil {
		cancel()
		return nil, fmt.Errorf("创建临时目录失败: %w", err)
	}
	lc.TempDir = tempDir
	lc.addCleanup(func() { os.RemoveAll(tempDir) })

	lc.initComponents()
	lc.setupSignalHandlers()

	return lc, nil
}

// initComponents 初始化所有组件
func (lc *LiveController) initComponents() {
	config := lc.Config

	bufferPath := filepath.Join(lc.TempDir,
		fmt.Sprintf("whisper-live-%s.%s", lc.SessionID, config.Format))
	segmentPath := filepath.Join(lc.TempDir,
		fmt.Sprintf("whisper-live-%s-segment.wav", lc.SessionID))

	// 流抓取
	lc.Capturer = capture.NewFFmpegCapturer(config.StreamURL, bufferPath, config.MaxDuration)

	// 缓冲停滞监控：超过两个步长无写入即判定抓取停滞
	monitor, err := watcher.NewBufferMonitor(bufferPath,
		time.Duration(2*config.StepSeconds)*time.Second)
	if err != nil {
		// fsnotify不可用时退化为只依赖进程存活探测
		utils.Warn("创建缓冲监控失败，跳过停滞检测: %v", err)
	}
	lc.Monitor = monitor

	// 片段提取：重试窗口内轮询等待缓冲增长，抓取死亡时立即放弃
	clock := utils.NewSystemClock()
	retrier := utils.NewRetrier(
		time.Duration(config.RetryWindowSeconds())*time.Second,
		time.Duration(config.RetryDelayMs)*time.Millisecond,
		clock,
	)
	alive := func() bool {
		if !lc.Capturer.Alive() {
			return false
		}
		if lc.Monitor != nil && !lc.Monitor.Healthy() {
			return false
		}
		return true
	}
	extractor := segment.NewFFmpegExtractor(bufferPath, segmentPath, config.StepSeconds, retrier, alive)

	// 转录引擎
	lc.Transcriber = transcribe.NewWhisperTranscriber(config)

	// 输出端：终端打印 + 累积存储
	lc.Printer = ui.NewTranscriptPrinter(config.OutputMode, config.Verbosity)
	sink := func(line models.TranscriptLine) {
		lc.Store.Append(line)
		lc.Printer.PrintLine(line)
	}

	lc.Scheduler = scheduler.New(config, extractor, lc.Transcriber, sink, clock)

	// 实时字幕HTTP服务（可选）
	if config.WebPort > 0 {
		lc.WebServer = web.NewServer(config.WebPort, lc.Store, lc.status)
	}
}

// CheckDependencies 启动前检查外部工具是否就位
func (lc *LiveController) CheckDependencies() error {
	if !utils.CheckFFmpeg() {
		return fmt.Errorf("未检测到ffmpeg，请确保ffmpeg已安装并添加到系统路径")
	}

	if err := lc.Transcriber.CheckReady(); err != nil {
		return err
	}

	return nil
}

// Run 执行会话直到取消或达到时长上限
func (lc *LiveController) Run() error {
	defer lc.Cleanup()

	lc.startTime = time.Now()

	// 启动后台抓取任务
	if err := lc.Capturer.Start(lc.ctx); err != nil {
		return err
	}
	lc.addCleanup(lc.Capturer.Stop)

	if lc.Monitor != nil {
		if err := lc.Monitor.Start(); err != nil {
			utils.Warn("启动缓冲监控失败，跳过停滞检测: %v", err)
			lc.Monitor = nil
		} else {
			lc.addCleanup(lc.Monitor.Stop)
		}
	}

	if lc.WebServer != nil {
		lc.WebServer.Start()
		lc.addCleanup(lc.WebServer.Stop)
	}

	// 核心循环，阻塞到会话结束
	err := lc.Scheduler.Run(lc.ctx)

	lc.exportTranscript()
	lc.printSummary()

	return err
}

// status 供HTTP接口读取的运行状态快照
func (lc *LiveController) status() web.Status {
	stats := lc.Scheduler.Stats()
	return web.Status{
		SessionID: lc.SessionID,
		StreamURL: lc.Config.StreamURL,
		Model:     lc.Config.Model,
		Language:  lc.Config.Language,
		StepS:     lc.Config.StepSeconds,
		Ticks:     stats.Ticks,
		Emitted:   stats.Emitted,
		Elapsed:   stats.Elapsed,
	}
}

// exportTranscript 会话结束时把累积的转录结果导出为字幕文件
func (lc *LiveController) exportTranscript() {
	if lc.Config.OutputFolder == "" || lc.Store.Len() == 0 {
		return
	}

	lines := lc.Store.Lines()

	if _, err := export.NewSRTExporter(lc.Config.OutputFolder).ExportSRT(lines, lc.SessionID); err != nil {
		utils.Error("导出SRT失败: %v", err)
	}
	if _, err := export.NewJSONExporter(lc.Config.OutputFolder, lc.Config.Language).ExportJSON(lines, lc.SessionID); err != nil {
		utils.Error("导出JSON失败: %v", err)
	}
}

// printSummary 打印会话统计
func (lc *LiveController) printSummary() {
	stats := lc.Scheduler.Stats()
	utils.Info("会话 %s 结束: %d个tick, 产出%d行, 切片失败%d次, 转录失败%d次, 用时%s",
		lc.SessionID, stats.Ticks, stats.Emitted,
		stats.ExtractFailures, stats.TranscribeFailures,
		utils.FormatTimeDuration(time.Since(lc.startTime).Seconds()))
}

// addCleanup 添加清理函数
func (lc *LiveController) addCleanup(cleanup func()) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.cleanup = append(lc.cleanup, cleanup)
}

// Cleanup 逆序执行所有清理函数
func (lc *LiveController) Cleanup() {
	lc.mu.Lock()
	fns := make([]func(), len(lc.cleanup))
	copy(fns, lc.cleanup)
	lc.cleanup = nil
	lc.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// Stop 主动取消会话
func (lc *LiveController) Stop() {
	lc.cancelFunc()
}

// setupSignalHandlers 注册中断信号处理
func (lc *LiveController) setupSignalHandlers() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		utils.Info("接收到中断信号，正在停止...")
		lc.cancelFunc()
	}()
}
