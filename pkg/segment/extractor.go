// Package segment 从持续增长的缓冲文件中切出固定时长的音频片段
package segment

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// 边界回退量：除首个片段外，起点向前挪半秒，找回上一边界被切掉的词
const boundaryCorrection = 0.5

// Extractor 定义片段提取接口
type Extractor interface {
	// Extract 提取第index个片段，成功时返回片段文件路径
	Extract(ctx context.Context, index int) (string, error)
}

// runFunc 执行外部命令并返回其诊断输出（stderr）
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpegExtractor 用ffmpeg从缓冲文件中按索引切出16kHz单声道片段
// 缓冲文件由抓取进程并发追加；请求的区间尚未写入时ffmpeg会输出诊断信息，
// 这属于预期的瞬时失败，在重试窗口内轮询等待缓冲增长
type FFmpegExtractor struct {
	BufferPath  string // 缓冲文件路径（只读）
	SegmentPath string // 片段槽位路径，每个tick覆盖写
	StepSeconds int    // 片段时长（秒）
	FFmpegPath  string // ffmpeg可执行文件，空则使用PATH中的ffmpeg

	retrier *utils.Retrier
	alive   func() bool // 抓取任务存活探测，nil表示不检查
	run     runFunc
}

// NewFFmpegExtractor 创建新的片段提取器
// alive 为抓取任务存活探测，重试期间抓取进程死亡则立即放弃
func NewFFmpegExtractor(bufferPath, segmentPath string, stepSeconds int,
	retrier *utils.Retrier, alive func() bool) *FFmpegExtractor {

	e := &FFmpegExtractor{
		BufferPath:  bufferPath,
		SegmentPath: segmentPath,
		StepSeconds: stepSeconds,
		retrier:     retrier,
		alive:       alive,
	}
	e.run = e.runFFmpeg
	return e
}

// SetRunner 替换命令执行函数，测试用
func (e *FFmpegExtractor) SetRunner(run func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	e.run = run
}

// Offset 计算第index个片段在源音频中的起始偏移（秒）
// 片段0从0开始；之后的片段起点回退0.5秒，与上一片段尾部重叠
func Offset(index, stepSeconds int) float64 {
	if index == 0 {
		return 0
	}
	return float64(index*stepSeconds) - boundaryCorrection
}

// Extract 提取第index个片段，在重试窗口内轮询直到成功
// 成功时片段保证为step秒、16kHz、单声道、16位PCM
func (e *FFmpegExtractor) Extract(ctx context.Context, index int) (string, error) {
	op := fmt.Sprintf("提取片段%d", index)

	err := e.retrier.Do(ctx, op, func() error {
		return e.extractOnce(ctx, index)
	}, e.alive)
	if err != nil {
		return "", err
	}

	return e.SegmentPath, nil
}

// extractOnce 执行一次切片尝试
// 判定标准：任何诊断输出都算失败，只有静默完成才认为区间完整
func (e *FFmpegExtractor) extractOnce(ctx context.Context, index int) error {
	offset := Offset(index, e.StepSeconds)

	args := []string{
		"-loglevel", "error",
		"-noaccurate_seek",
		"-i", e.BufferPath,
		"-y",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-ss", formatSeconds(offset),
		"-t", strconv.Itoa(e.StepSeconds),
		e.SegmentPath,
	}

	bin := e.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}

	diagnostic, err := e.run(ctx, bin, args...)
	if err != nil {
		return fmt.Errorf("切片失败: %w: %s", err, strings.TrimSpace(string(diagnostic)))
	}
	if len(bytes.TrimSpace(diagnostic)) > 0 {
		return fmt.Errorf("切片产生诊断输出: %s", strings.TrimSpace(string(diagnostic)))
	}

	return nil
}

// runFFmpeg 执行ffmpeg并收集stderr诊断输出
// 不绑定ctx：取消只在tick边界生效，进行中的切片调用总是执行完毕
func (e *FFmpegExtractor) runFFmpeg(_ context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	utils.Debug("ffmpeg切片用时 %.2f 秒", time.Since(start).Seconds())

	return stderr.Bytes(), err
}

// formatSeconds 把秒数格式化为ffmpeg接受的定点表示
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 1, 64)
}
