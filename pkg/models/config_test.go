package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, DefaultStreamURL, config.StreamURL)
	assert.Equal(t, 30, config.StepSeconds)
	assert.Equal(t, "small", config.Model)
	assert.Equal(t, "en", config.Language)
	assert.Equal(t, 0, config.MaxDuration)
	assert.Equal(t, OutputModeText, config.OutputMode)

	// 默认配置必须能通过验证
	assert.NoError(t, config.Validate())
}

func TestValidateInvalidModel(t *testing.T) {
	config := NewDefaultConfig()
	config.Model = "gigantic"

	err := config.Validate()
	assert.Error(t, err)

	var vErr *ConfigValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "Model", vErr.Field)
	// 错误信息中应包含可用模型列表
	assert.Contains(t, err.Error(), "small")
	assert.Contains(t, err.Error(), "large-v3")
}

func TestValidateRanges(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"步长为0", func(c *Config) { c.StepSeconds = 0 }, "StepSeconds"},
		{"步长过大", func(c *Config) { c.StepSeconds = 7200 }, "StepSeconds"},
		{"负的最大时长", func(c *Config) { c.MaxDuration = -1 }, "MaxDuration"},
		{"空URL", func(c *Config) { c.StreamURL = "" }, "StreamURL"},
		{"空语言", func(c *Config) { c.Language = "" }, "Language"},
		{"未知输出模式", func(c *Config) { c.OutputMode = "xml" }, "OutputMode"},
		{"非法端口", func(c *Config) { c.WebPort = 70000 }, "WebPort"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tc.modify(config)

			err := config.Validate()
			assert.Error(t, err)

			var vErr *ConfigValidationError
			assert.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestIsValidModel(t *testing.T) {
	assert.True(t, IsValidModel("tiny"))
	assert.True(t, IsValidModel("base.en"))
	assert.True(t, IsValidModel("large-v3-turbo"))
	assert.False(t, IsValidModel(""))
	assert.False(t, IsValidModel("Small")) // 大小写敏感
	assert.False(t, IsValidModel("huge"))
}

func TestRetryWindowSeconds(t *testing.T) {
	config := NewDefaultConfig()
	config.StepSeconds = 15

	// 未配置时默认为2倍步长
	assert.Equal(t, 30, config.RetryWindowSeconds())

	config.RetryWindow = 5
	assert.Equal(t, 5, config.RetryWindowSeconds())
}

func TestLoadAndSaveConfig(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "config_test")
	assert.NoError(t, err)
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "config.json")

	config := NewDefaultConfig()
	config.Model = "base"
	config.StepSeconds = 10
	assert.NoError(t, config.SaveToFile(path))

	loaded := NewDefaultConfig()
	assert.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "base", loaded.Model)
	assert.Equal(t, 10, loaded.StepSeconds)

	// 不存在的文件应返回错误
	assert.Error(t, loaded.LoadFromFile(filepath.Join(tempDir, "missing.json")))
}
