package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// 输出模式常量
const (
	OutputModeText = "txt"  // 纯文本：每个片段一行，不带时间戳
	OutputModeJSON = "json" // 结构化：whisper-cli的OpenAI风格JSON输出
)

// DefaultStreamURL 未指定URL时使用的预设公共流
const DefaultStreamURL = "http://a.files.bbci.co.uk/media/live/manifesto/audio/simulcast/hls/nonuk/sbr_low/ak/bbc_world_service.m3u8"

// ValidModels 是受支持的whisper.cpp模型标识集合
var ValidModels = []string{
	"tiny", "tiny.en",
	"base", "base.en",
	"small", "small.en",
	"medium", "medium.en",
	"large-v1", "large-v2", "large-v3", "large-v3-turbo",
}

// IsValidModel 检查模型标识是否在受支持集合内
func IsValidModel(model string) bool {
	for _, m := range ValidModels {
		if m == model {
			return true
		}
	}
	return false
}

// ValidModelList 返回受支持模型的展示字符串
func ValidModelList() string {
	return strings.Join(ValidModels, " ")
}

// Config 表示一次直播转录会话的配置，运行开始后不再修改
type Config struct {
	StreamURL    string `json:"stream_url"`     // 直播流地址
	Format       string `json:"format"`         // 缓冲文件的容器格式
	StepSeconds  int    `json:"step_seconds"`   // 每个片段的时长（秒）
	Model        string `json:"model"`          // whisper.cpp模型标识
	Language     string `json:"language"`       // 语言代码
	MaxDuration  int    `json:"max_duration"`   // 最大运行时长（秒），0表示不限
	Verbosity    int    `json:"verbosity"`      // 0抑制信息日志，>0开启
	OutputMode   string `json:"output_mode"`    // txt或json
	WhisperRoot  string `json:"whisper_root"`   // whisper.cpp根目录，用于定位whisper-cli和模型
	Threads      int    `json:"threads"`        // whisper-cli线程数
	TempDir      string `json:"temp_dir"`       // 临时文件目录，空则使用系统临时目录
	OutputFolder string `json:"output_folder"`  // 结束时导出字幕的目录，空则不导出
	WebPort      int    `json:"web_port"`       // 实时字幕HTTP服务端口，0表示关闭
	RetryWindow  int    `json:"retry_window_s"` // 片段提取重试窗口（秒），0表示2倍步长
	RetryDelayMs int    `json:"retry_delay_ms"` // 片段提取重试间隔（毫秒）
	LogFile      string `json:"log_file"`       // 日志文件路径
}

// ConfigValidationError 表示配置验证错误
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("配置验证错误: %s - %s", e.Field, e.Message)
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		StreamURL:    DefaultStreamURL,
		Format:       "wav",
		StepSeconds:  30,
		Model:        "small",
		Language:     "en",
		MaxDuration:  0,
		Verbosity:    0,
		OutputMode:   OutputModeText,
		WhisperRoot:  filepath.Join(home, "whisper.cpp"),
		Threads:      8,
		TempDir:      "",
		OutputFolder: "",
		WebPort:      0,
		RetryWindow:  0,
		RetryDelayMs: 500,
	}
}

// Validate 验证配置是否有效
func (c *Config) Validate() error {
	if c.StreamURL == "" {
		return &ConfigValidationError{"StreamURL", "不能为空"}
	}

	if c.StepSeconds < 1 || c.StepSeconds > 3600 {
		return &ConfigValidationError{"StepSeconds", "必须在1-3600秒之间"}
	}

	if !IsValidModel(c.Model) {
		return &ConfigValidationError{"Model",
			fmt.Sprintf("未知模型 %q，可用模型: %s", c.Model, ValidModelList())}
	}

	if c.Language == "" {
		return &ConfigValidationError{"Language", "不能为空"}
	}

	if c.MaxDuration < 0 {
		return &ConfigValidationError{"MaxDuration", "不能为负数"}
	}

	if c.OutputMode != OutputModeText && c.OutputMode != OutputModeJSON {
		return &ConfigValidationError{"OutputMode",
			fmt.Sprintf("必须是 %s 或 %s", OutputModeText, OutputModeJSON)}
	}

	if c.Threads < 1 || c.Threads > 64 {
		return &ConfigValidationError{"Threads", "必须在1-64之间"}
	}

	if c.WebPort < 0 || c.WebPort > 65535 {
		return &ConfigValidationError{"WebPort", "必须在0-65535之间"}
	}

	if c.RetryDelayMs < 10 || c.RetryDelayMs > 10000 {
		return &ConfigValidationError{"RetryDelayMs", "必须在10-10000毫秒之间"}
	}

	return nil
}

// RetryWindowSeconds 返回生效的重试窗口：未配置时默认为2倍步长
func (c *Config) RetryWindowSeconds() int {
	if c.RetryWindow > 0 {
		return c.RetryWindow
	}
	return 2 * c.StepSeconds
}

// LoadFromFile 从JSON文件加载配置
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	return nil
}

// SaveToFile 保存配置到文件
func (c *Config) SaveToFile(path string) error {
	// 确保目录存在
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}
