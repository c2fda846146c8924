package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// SRTExporter 负责将转录结果导出为SRT字幕文件
type SRTExporter struct {
	OutputFolder string
}

// NewSRTExporter 创建一个新的SRT导出器
func NewSRTExporter(outputFolder string) *SRTExporter {
	return &SRTExporter{
		OutputFolder: outputFolder,
	}
}

// FormatSRTTime 将秒数格式化为SRT时间格式 (HH:MM:SS,mmm)
func (e *SRTExporter) FormatSRTTime(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int(math.Mod(seconds, 3600) / 60)
	secs := int(seconds) % 60
	milliseconds := int((seconds - float64(int(seconds))) * 1000)

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, milliseconds)
}

// GenerateSRTContent 生成SRT格式内容
// 有分句信息时每句一条字幕，否则整个片段一条
func (e *SRTExporter) GenerateSRTContent(lines []models.TranscriptLine) string {
	var srtLines []string
	entry := 0

	appendEntry := func(start, end float64, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}

		if end <= start {
			// 确保结束时间大于开始时间
			end = start + 1.0
		}

		entry++
		srtLines = append(srtLines, fmt.Sprintf("%d", entry))
		srtLines = append(srtLines, fmt.Sprintf("%s --> %s", e.FormatSRTTime(start), e.FormatSRTTime(end)))
		srtLines = append(srtLines, text)
		srtLines = append(srtLines, "") // 空行分隔
	}

	for _, line := range lines {
		if len(line.Segments) > 0 {
			for _, seg := range line.Segments {
				appendEntry(seg.Start, seg.End, seg.Text)
			}
		} else {
			appendEntry(line.Start, line.End, line.Text)
		}
	}

	return strings.Join(srtLines, "\n")
}

// ExportSRT 导出SRT格式字幕文件
func (e *SRTExporter) ExportSRT(lines []models.TranscriptLine, sessionID string) (string, error) {
	// 创建输出文件夹
	if err := os.MkdirAll(e.OutputFolder, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	outputFile := filepath.Join(e.OutputFolder, fmt.Sprintf("%s.srt", sessionID))

	// 生成SRT内容
	srtContent := e.GenerateSRTContent(lines)

	// 写入文件
	if err := os.WriteFile(outputFile, []byte(srtContent), 0644); err != nil {
		return "", fmt.Errorf("写入SRT文件失败: %w", err)
	}

	utils.Info("已导出SRT字幕: %s", outputFile)
	return outputFile, nil
}
