// Package capture 负责把直播流持续抓取到本地缓冲文件
package capture

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// Capturer 抽象流抓取任务，便于在测试中替换真实的ffmpeg进程
type Capturer interface {
	// Start 启动后台抓取任务，启动失败立即返回错误
	Start(ctx context.Context) error
	// Stop 终止后台抓取任务
	Stop()
	// Alive 报告抓取任务是否仍在运行
	Alive() bool
	// BufferPath 返回缓冲文件路径
	BufferPath() string
}

// FFmpegCapturer 用ffmpeg把直播流转写为持续增长的16kHz单声道PCM缓冲文件
type FFmpegCapturer struct {
	URL         string // 直播流地址
	MaxDuration int    // 抓取时长上限（秒），0表示不限
	FFmpegPath  string // ffmpeg可执行文件，空则使用PATH中的ffmpeg

	bufferPath string
	cmd        *exec.Cmd
	done       chan struct{}
	mu         sync.Mutex
	started    bool
	exited     bool
}

// NewFFmpegCapturer 创建新的ffmpeg抓取器
func NewFFmpegCapturer(url, bufferPath string, maxDuration int) *FFmpegCapturer {
	return &FFmpegCapturer{
		URL:         url,
		MaxDuration: maxDuration,
		bufferPath:  bufferPath,
		done:        make(chan struct{}),
	}
}

// BufferPath 返回缓冲文件路径
func (c *FFmpegCapturer) BufferPath() string {
	return c.bufferPath
}

// Start 启动抓取进程，在会话的生命周期内持续向缓冲文件追加音频
func (c *FFmpegCapturer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return fmt.Errorf("抓取任务已启动")
	}

	args := []string{
		"-loglevel", "quiet",
		"-y",
		"-re", // 按实时速率读取直播流
		"-probesize", "32",
		"-i", c.URL,
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
	}
	if c.MaxDuration > 0 {
		args = append(args, "-t", strconv.Itoa(c.MaxDuration))
	}
	args = append(args, c.bufferPath)

	bin := c.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	c.cmd = exec.Command(bin, args...)

	if err := c.cmd.Start(); err != nil {
		return fmt.Errorf("启动流抓取失败: %w", err)
	}
	c.started = true

	utils.Info("流抓取已启动: %s -> %s (pid=%d)", c.URL, c.bufferPath, c.cmd.Process.Pid)

	// 后台回收进程，记录退出状态
	go func() {
		err := c.cmd.Wait()

		c.mu.Lock()
		c.exited = true
		c.mu.Unlock()
		close(c.done)

		if err != nil && ctx.Err() == nil {
			utils.Warn("流抓取进程异常退出: %v", err)
		} else {
			utils.Debug("流抓取进程已退出")
		}
	}()

	return nil
}

// Alive 报告抓取进程是否仍在运行
func (c *FFmpegCapturer) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && !c.exited
}

// Stop 终止抓取进程：先发SIGTERM，短暂等待后强制杀死
// 必须在进程退出前不返回，避免遗留占用网络连接的孤儿进程
func (c *FFmpegCapturer) Stop() {
	c.mu.Lock()
	if !c.started || c.exited {
		c.mu.Unlock()
		return
	}
	proc := c.cmd.Process
	c.mu.Unlock()

	utils.Debug("正在终止流抓取进程 (pid=%d)", proc.Pid)
	_ = proc.Signal(syscall.SIGTERM)

	select {
	case <-c.done:
	case <-time.After(3 * time.Second):
		utils.Warn("流抓取进程未响应SIGTERM，强制终止")
		_ = proc.Kill()
		<-c.done
	}
}
