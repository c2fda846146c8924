package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
	"github.com/stretchr/testify/assert"
)

func TestPrintLinePlainMode(t *testing.T) {
	utils.InitLogger(utils.LogLevelQuiet, "")

	p := NewTranscriptPrinter(models.OutputModeText, 0)
	var buf bytes.Buffer
	p.SetOutput(&buf)

	p.PrintLine(models.TranscriptLine{Index: 0, Start: 0, Text: "hello world"})
	p.PrintLine(models.TranscriptLine{Index: 1, Start: 29.5, Text: ""}) // 静音片段无输出

	assert.Equal(t, "hello world\n", buf.String())
}

func TestPrintLinePlainModeVerbose(t *testing.T) {
	utils.InitLogger(utils.LogLevelQuiet, "")

	p := NewTranscriptPrinter(models.OutputModeText, 1)
	var buf bytes.Buffer
	p.SetOutput(&buf)

	p.PrintLine(models.TranscriptLine{Index: 1, Start: 29.5, Text: "hello"})

	// verbose模式带片段开始时间前缀
	assert.Contains(t, buf.String(), "00:00:29.500")
	assert.Contains(t, buf.String(), "hello")
}

func TestPrintLineJSONMode(t *testing.T) {
	utils.InitLogger(utils.LogLevelQuiet, "")

	p := NewTranscriptPrinter(models.OutputModeJSON, 0)
	var buf bytes.Buffer
	p.SetOutput(&buf)

	p.PrintLine(models.TranscriptLine{Index: 2, Start: 59.5, End: 89.5, Text: "hello"})

	// 每行一个完整的JSON对象
	var line models.TranscriptLine
	assert.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line))
	assert.Equal(t, 2, line.Index)
	assert.Equal(t, "hello", line.Text)
}
