// Package ui 负责终端输出：欢迎信息和实时转录行
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// PrintWelcome 打印欢迎信息
func PrintWelcome(config *models.Config) {
	fmt.Println()
	color.Cyan("================================")
	color.Cyan("   直播流实时转录 - Go 实现版本   ")
	color.Cyan("================================")
	fmt.Println()
	fmt.Printf("流地址: %s\n", config.StreamURL)
	fmt.Printf("步长: %d秒, 模型: %s, 语言: %s\n", config.StepSeconds, config.Model, config.Language)
	if config.MaxDuration > 0 {
		fmt.Printf("最大时长: %s\n", utils.FormatTimeDuration(float64(config.MaxDuration)))
	}
	fmt.Println()
}

// TranscriptPrinter 把转录行写到终端
// 转录文本走stdout，与走stderr的日志互不干扰，方便重定向
type TranscriptPrinter struct {
	mode      string // models.OutputModeText 或 models.OutputModeJSON
	verbosity int

	mu  sync.Mutex
	out io.Writer
}

// NewTranscriptPrinter 创建转录行打印器
func NewTranscriptPrinter(mode string, verbosity int) *TranscriptPrinter {
	return &TranscriptPrinter{
		mode:      mode,
		verbosity: verbosity,
		out:       os.Stdout,
	}
}

// SetOutput 替换输出目标，测试用
func (p *TranscriptPrinter) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
}

// PrintLine 输出一条转录行
// 纯文本模式：每个片段一行，不带时间戳
// 结构化模式：每个片段一个JSON对象
func (p *TranscriptPrinter) PrintLine(line models.TranscriptLine) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.mode == models.OutputModeJSON {
		data, err := json.Marshal(line)
		if err != nil {
			utils.Error("序列化转录行失败: %v", err)
			return
		}
		fmt.Fprintln(p.out, string(data))
		return
	}

	if line.Text == "" {
		return // 静音片段不输出空行
	}

	if p.verbosity > 0 {
		prefix := color.New(color.FgCyan).Sprintf("[%s]", utils.FormatClockTime(line.Start))
		fmt.Fprintf(p.out, "%s %s\n", prefix, line.Text)
	} else {
		fmt.Fprintln(p.out, line.Text)
	}
}
