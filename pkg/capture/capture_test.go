package capture

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ccp-p/live-asr-cli/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestNewFFmpegCapturer(t *testing.T) {
	c := NewFFmpegCapturer("http://example.com/stream", "/tmp/buffer.wav", 60)

	assert.Equal(t, "http://example.com/stream", c.URL)
	assert.Equal(t, "/tmp/buffer.wav", c.BufferPath())
	assert.Equal(t, 60, c.MaxDuration)
	assert.False(t, c.Alive()) // 未启动时不算存活
}

func TestStartWithMissingBinary(t *testing.T) {
	utils.InitLogger(utils.LogLevelQuiet, "")

	bufferPath := filepath.Join(t.TempDir(), "buffer.wav")
	c := NewFFmpegCapturer("http://example.com/stream", bufferPath, 0)
	c.FFmpegPath = "/nonexistent/ffmpeg"

	err := c.Start(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "启动流抓取失败")
	assert.False(t, c.Alive())
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	c := NewFFmpegCapturer("http://example.com/stream", "/tmp/buffer.wav", 0)

	// 未启动时Stop不应panic或阻塞
	c.Stop()
	assert.False(t, c.Alive())
}

func TestDoubleStartRejected(t *testing.T) {
	utils.InitLogger(utils.LogLevelQuiet, "")

	bufferPath := filepath.Join(t.TempDir(), "buffer.wav")
	c := NewFFmpegCapturer("http://example.com/stream", bufferPath, 0)
	c.FFmpegPath = "/nonexistent/ffmpeg"

	_ = c.Start(context.Background())
	c.mu.Lock()
	c.started = true // 模拟已启动状态
	c.mu.Unlock()

	err := c.Start(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "已启动")
}
