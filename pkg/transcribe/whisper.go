package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/segment"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// runFunc 执行外部命令并返回其标准输出
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// WhisperTranscriber 通过whisper-cli子进程执行转录
type WhisperTranscriber struct {
	WhisperRoot string // whisper.cpp根目录
	Model       string // 模型标识，如 small、base.en
	Language    string // 语言代码
	OutputMode  string // models.OutputModeText 或 models.OutputModeJSON
	Threads     int    // 解码线程数
	StepSeconds int    // 片段步长，用于换算片段在直播中的时间

	run runFunc
}

// NewWhisperTranscriber 根据会话配置创建whisper-cli转录器
func NewWhisperTranscriber(config *models.Config) *WhisperTranscriber {
	t := &WhisperTranscriber{
		WhisperRoot: config.WhisperRoot,
		Model:       config.Model,
		Language:    config.Language,
		OutputMode:  config.OutputMode,
		Threads:     config.Threads,
		StepSeconds: config.StepSeconds,
	}
	t.run = t.runWhisper
	return t
}

// ModelPath 返回模型文件路径
func (t *WhisperTranscriber) ModelPath() string {
	return filepath.Join(t.WhisperRoot, "models", fmt.Sprintf("ggml-%s.bin", t.Model))
}

// CLIPath 返回whisper-cli可执行文件路径
// 优先使用whisper.cpp构建目录下的二进制，找不到时退回PATH
func (t *WhisperTranscriber) CLIPath() string {
	built := filepath.Join(t.WhisperRoot, "build", "bin", "whisper-cli")
	if utils.CheckExecutable(built) {
		return built
	}

	if path, ok := utils.LookupTool("whisper-cli"); ok {
		return path
	}
	return built
}

// CheckReady 检查whisper-cli和模型文件是否就位，用于启动前验证
func (t *WhisperTranscriber) CheckReady() error {
	cli := t.CLIPath()
	if !utils.CheckExecutable(cli) {
		return fmt.Errorf("找不到whisper-cli: %s", cli)
	}

	modelPath := t.ModelPath()
	if !utils.CheckFileExists(modelPath) {
		return fmt.Errorf("找不到模型文件: %s", modelPath)
	}

	return nil
}

// Transcribe 调用whisper-cli转录片段，返回本片段的转录行
func (t *WhisperTranscriber) Transcribe(ctx context.Context, segmentPath string, index int) (models.TranscriptLine, error) {
	line := models.TranscriptLine{
		Index: index,
		Start: segment.Offset(index, t.StepSeconds),
	}
	line.End = line.Start + float64(t.StepSeconds)

	args := []string{
		"-t", strconv.Itoa(t.Threads),
		"-m", t.ModelPath(),
		"-f", segmentPath,
		"--language", t.Language,
	}
	if t.OutputMode == models.OutputModeJSON {
		args = append(args, "-poai")
	} else {
		args = append(args, "--no-timestamps", "-otxt")
	}

	start := time.Now()
	stdout, err := t.run(ctx, t.CLIPath(), args...)
	if err != nil {
		return models.TranscriptLine{}, fmt.Errorf("whisper-cli执行失败: %w", err)
	}
	utils.Debug("片段%d转录用时 %.2f 秒", index, time.Since(start).Seconds())

	if t.OutputMode == models.OutputModeJSON {
		parseStructured(&line, stdout)
	} else {
		line.Text = lastNonEmptyLine(stdout)
	}

	return line, nil
}

// runWhisper 执行whisper-cli并返回标准输出
// 不绑定ctx：取消只在tick边界生效，进行中的转录调用总是执行完毕
func (t *WhisperTranscriber) runWhisper(_ context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}

	return stdout.Bytes(), nil
}

// openaiRecord 对应whisper-cli -poai输出的一条JSON记录
type openaiRecord struct {
	Text     string `json:"text"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// parseStructured 解析-poai模式的输出
// 输出是逐行的JSON记录，片段内时间换算为直播内的绝对时间
func parseStructured(line *models.TranscriptLine, stdout []byte) {
	line.Raw = strings.TrimSpace(string(stdout))

	var texts []string
	for _, raw := range strings.Split(line.Raw, "\n") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		var rec openaiRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			utils.Debug("忽略无法解析的引擎输出行: %s", raw)
			continue
		}

		if text := strings.TrimSpace(rec.Text); text != "" {
			texts = append(texts, text)
		}
		for _, seg := range rec.Segments {
			line.Segments = append(line.Segments, models.TranscriptSegment{
				Start: line.Start + seg.Start,
				End:   line.Start + seg.End,
				Text:  strings.TrimSpace(seg.Text),
			})
		}
	}

	line.Text = strings.Join(texts, " ")
}

// lastNonEmptyLine 取stdout的最后一个非空行
// whisper-cli在-otxt模式下把识别文本打印在输出末尾
func lastNonEmptyLine(stdout []byte) string {
	lines := strings.Split(string(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if text := strings.TrimSpace(lines[i]); text != "" {
			return text
		}
	}
	return ""
}
