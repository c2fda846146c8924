package models

import (
	"strings"
	"sync"
)

// TranscriptSegment 表示片段内的一个带时间的句子
type TranscriptSegment struct {
	Start float64 `json:"start"` // 开始时间（秒，相对直播开始）
	End   float64 `json:"end"`   // 结束时间（秒）
	Text  string  `json:"text"`  // 该段文字
}

// TranscriptLine 表示一个片段的转录结果，产出后立即交给输出端，不再修改
type TranscriptLine struct {
	Index    int                 `json:"index"`              // 片段序号
	Start    float64             `json:"start"`              // 片段在直播中的开始时间（秒）
	End      float64             `json:"end"`                // 片段在直播中的结束时间（秒）
	Text     string              `json:"text"`               // 合并后的文本
	Segments []TranscriptSegment `json:"segments,omitempty"` // 结构化模式下的分句
	Raw      string              `json:"raw,omitempty"`      // 引擎原始输出，便于调试
}

// TranscriptStore 按产出顺序累积转录行，供实时查看和结束时导出
type TranscriptStore struct {
	mu    sync.RWMutex
	lines []TranscriptLine
}

// NewTranscriptStore 创建空的转录存储
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{
		lines: make([]TranscriptLine, 0),
	}
}

// Append 追加一条转录行
func (s *TranscriptStore) Append(line TranscriptLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
}

// Lines 返回当前所有转录行的副本
func (s *TranscriptStore) Lines() []TranscriptLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TranscriptLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len 返回已累积的转录行数
func (s *TranscriptStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

// FullText 返回合并后的完整文本
func (s *TranscriptStore) FullText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var builder strings.Builder
	for _, line := range s.lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString(" ")
		}
		builder.WriteString(text)
	}
	return builder.String()
}
