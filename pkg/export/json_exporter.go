package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// TranscriptResult 表示整个转录结果
type TranscriptResult struct {
	Language string                     `json:"language,omitempty"` // 语言代码（如 "en"、"zh"）
	FullText string                     `json:"full_text"`          // 完整合并后的文本（用于摘要）
	Segments []models.TranscriptSegment `json:"segments"`           // 分段结构，适合前端显示时间轴字幕等
}

// JSONExporter 负责将转录结果导出为JSON文件
type JSONExporter struct {
	OutputFolder string
	Language     string
}

// NewJSONExporter 创建一个新的JSON导出器
func NewJSONExporter(outputFolder, language string) *JSONExporter {
	return &JSONExporter{
		OutputFolder: outputFolder,
		Language:     language,
	}
}

// GenerateJSONContent 根据转录行生成TranscriptResult结构
func (e *JSONExporter) GenerateJSONContent(lines []models.TranscriptLine) TranscriptResult {
	result := TranscriptResult{
		Language: e.Language,
		Segments: make([]models.TranscriptSegment, 0),
	}

	// 构建完整文本和分段
	var fullTextBuilder strings.Builder

	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}

		// 添加到完整文本
		if fullTextBuilder.Len() > 0 {
			fullTextBuilder.WriteString(" ")
		}
		fullTextBuilder.WriteString(text)

		// 有分句时逐句输出，否则整个片段一段
		if len(line.Segments) > 0 {
			result.Segments = append(result.Segments, line.Segments...)
		} else {
			endTime := line.End
			if endTime <= line.Start {
				endTime = line.Start + 1.0
			}
			result.Segments = append(result.Segments, models.TranscriptSegment{
				Start: line.Start,
				End:   endTime,
				Text:  text,
			})
		}
	}

	result.FullText = fullTextBuilder.String()

	return result
}

// ExportJSON 导出JSON格式文件
func (e *JSONExporter) ExportJSON(lines []models.TranscriptLine, sessionID string) (string, error) {
	// 创建输出文件夹
	if err := os.MkdirAll(e.OutputFolder, 0755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}

	outputFile := filepath.Join(e.OutputFolder, fmt.Sprintf("%s_json.txt", sessionID))

	// 生成JSON内容
	jsonContent := e.GenerateJSONContent(lines)

	jsonData, err := json.MarshalIndent(jsonContent, "", "  ")
	if err != nil {
		return "", fmt.Errorf("JSON编码失败: %w", err)
	}

	// 写入文件
	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		return "", fmt.Errorf("写入JSON文件失败: %w", err)
	}

	utils.Info("已导出JSON文件: %s", outputFile)
	return outputFile, nil
}
