package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/ccp-p/live-asr-cli/internal/controller"
	"github.com/ccp-p/live-asr-cli/internal/ui"
	"github.com/ccp-p/live-asr-cli/pkg/models"
)

var (
	configFile = flag.String("config", "", "配置文件路径")
	logFile    = flag.String("log-file", "", "日志文件路径")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 || args[0] != "run" {
		printUsage()
		return 1
	}

	// 加载配置：默认值 <- 配置文件 <- 位置参数
	config := models.NewDefaultConfig()
	if *configFile != "" {
		if err := config.LoadFromFile(*configFile); err != nil {
			color.Red("加载配置文件失败: %v", err)
			return 1
		}
	}
	config.LogFile = *logFile

	if err := applyArgs(config, args[1:]); err != nil {
		color.Red("%v", err)
		printUsage()
		return 1
	}

	// 创建控制器，其中完成配置验证和日志初始化
	lc, err := controller.NewLiveController(config)
	if err != nil {
		color.Red("%v", err)
		var vErr *models.ConfigValidationError
		if errors.As(err, &vErr) && vErr.Field == "Model" {
			fmt.Fprintf(os.Stderr, "可用模型: %s\n", models.ValidModelList())
		}
		return 1
	}

	// 检查外部依赖
	if err := lc.CheckDependencies(); err != nil {
		color.Red("%v", err)
		lc.Cleanup()
		return 1
	}

	if config.Verbosity > 0 {
		ui.PrintWelcome(config)
	}

	// 启动失败（如流抓取无法启动）返回1，正常结束和取消都返回0
	if err := lc.Run(); err != nil {
		color.Red("%v", err)
		return 1
	}

	return 0
}

// applyArgs 把位置参数套用到配置上
// 顺序: <url> [step_s] [model] [language] [max_duration] [verbosity] [output_mode]
func applyArgs(config *models.Config, args []string) error {
	if len(args) > 7 {
		return fmt.Errorf("参数过多: %d个", len(args))
	}

	if len(args) >= 1 {
		config.StreamURL = args[0]
	}
	if len(args) >= 2 {
		step, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("step_s必须是整数: %q", args[1])
		}
		config.StepSeconds = step
	}
	if len(args) >= 3 {
		config.Model = args[2]
	}
	if len(args) >= 4 {
		config.Language = args[3]
	}
	if len(args) >= 5 {
		maxDuration, err := strconv.Atoi(args[4])
		if err != nil {
			return fmt.Errorf("max_duration必须是整数: %q", args[4])
		}
		config.MaxDuration = maxDuration
	}
	if len(args) >= 6 {
		verbosity, err := strconv.Atoi(args[5])
		if err != nil {
			return fmt.Errorf("verbosity必须是整数: %q", args[5])
		}
		config.Verbosity = verbosity
	}
	if len(args) >= 7 {
		mode, err := parseOutputMode(args[6])
		if err != nil {
			return err
		}
		config.OutputMode = mode
	}

	return nil
}

// parseOutputMode 解析输出模式参数，兼容0/1数字写法
func parseOutputMode(arg string) (string, error) {
	switch arg {
	case models.OutputModeText, "0":
		return models.OutputModeText, nil
	case models.OutputModeJSON, "1":
		return models.OutputModeJSON, nil
	default:
		return "", fmt.Errorf("output_mode必须是 %s 或 %s: %q",
			models.OutputModeText, models.OutputModeJSON, arg)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `用法: livetrans [选项] run <url> [step_s] [model] [language] [max_duration] [verbosity] [output_mode]

位置参数:
  url           直播流地址，默认使用预设公共流
  step_s        每个片段的时长（秒），默认30
  model         whisper.cpp模型标识，默认small
  language      语言代码，默认en
  max_duration  最大运行时长（秒），0表示不限，默认0
  verbosity     0抑制信息日志，>0开启，默认0
  output_mode   txt纯文本 / json结构化，默认txt

选项:
`)
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\n可用模型: %s\n", models.ValidModelList())
}
