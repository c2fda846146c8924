// Package transcribe 调用whisper.cpp的whisper-cli对音频片段解码
package transcribe

import (
	"context"

	"github.com/ccp-p/live-asr-cli/pkg/models"
)

// Transcriber 定义转录引擎接口，便于在测试中替换真实的whisper-cli进程
type Transcriber interface {
	// Transcribe 转录segmentPath指向的片段，index为片段序号
	Transcribe(ctx context.Context, segmentPath string, index int) (models.TranscriptLine, error)
}
