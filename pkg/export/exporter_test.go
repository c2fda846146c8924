package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func testLines() []models.TranscriptLine {
	return []models.TranscriptLine{
		{Index: 0, Start: 0, End: 30, Text: "first segment"},
		{Index: 1, Start: 29.5, End: 59.5, Text: "second segment", Segments: []models.TranscriptSegment{
			{Start: 29.5, End: 40, Text: "second"},
			{Start: 40, End: 59.5, Text: "segment"},
		}},
		{Index: 2, Start: 59.5, End: 89.5, Text: "   "}, // 空文本被跳过
	}
}

func TestFormatSRTTime(t *testing.T) {
	e := NewSRTExporter("")

	assert.Equal(t, "00:00:00,000", e.FormatSRTTime(0))
	assert.Equal(t, "00:00:29,500", e.FormatSRTTime(29.5))
	assert.Equal(t, "01:01:01,250", e.FormatSRTTime(3661.25))
}

func TestGenerateSRTContent(t *testing.T) {
	e := NewSRTExporter("")
	content := e.GenerateSRTContent(testLines())

	// 片段0整段一条，片段1按分句两条，空文本片段被跳过
	assert.Contains(t, content, "1\n00:00:00,000 --> 00:00:30,000\nfirst segment")
	assert.Contains(t, content, "2\n00:00:29,500 --> 00:00:40,000\nsecond")
	assert.Contains(t, content, "3\n00:00:40,000 --> 00:00:59,500\nsegment")
	assert.NotContains(t, content, "00:00:59,500 --> 00:01:29,500")
}

func TestExportSRT(t *testing.T) {
	utils.InitLogger(utils.LogLevelQuiet, "")

	tempDir, err := os.MkdirTemp("", "srt_test")
	assert.NoError(t, err)
	defer os.RemoveAll(tempDir)

	e := NewSRTExporter(tempDir)
	path, err := e.ExportSRT(testLines(), "session-abc")
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "session-abc.srt"), path)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "1\n"))
}

func TestGenerateJSONContent(t *testing.T) {
	e := NewJSONExporter("", "en")
	result := e.GenerateJSONContent(testLines())

	assert.Equal(t, "en", result.Language)
	assert.Equal(t, "first segment second segment", result.FullText)
	// 片段0一段 + 片段1两句
	assert.Len(t, result.Segments, 3)
	assert.Equal(t, 29.5, result.Segments[1].Start)
}

func TestExportJSON(t *testing.T) {
	utils.InitLogger(utils.LogLevelQuiet, "")

	tempDir, err := os.MkdirTemp("", "json_test")
	assert.NoError(t, err)
	defer os.RemoveAll(tempDir)

	e := NewJSONExporter(tempDir, "en")
	path, err := e.ExportJSON(testLines(), "session-abc")
	assert.NoError(t, err)

	data, err := os.ReadFile(path)
	assert.NoError(t, err)

	var result TranscriptResult
	assert.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "first segment second segment", result.FullText)
}
