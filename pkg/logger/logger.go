package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger 在 Init 之前丢弃所有输出
var Logger = discard()

func discard() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ParseLevel 解析日志级别，无法识别时返回 warn
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.WarnLevel
	}
}

// Init 初始化 zerolog 日志
// level: 日志级别 ("debug", "info", "warn", "error")
// file: 日志文件路径，为空时仅输出到控制台
//
// 控制台日志写到 stderr，stdout 留给进度行和结果预览。
func Init(level string, file string) error {
	return InitWithWriter(os.Stderr, level, file)
}

// InitWithWriter 与 Init 相同，但控制台输出写到 console
func InitWithWriter(console io.Writer, level string, file string) error {
	var output io.Writer = zerolog.ConsoleWriter{Out: console, TimeFormat: "2006-01-02 15:04:05"}

	if file != "" {
		fileWriter, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		output = zerolog.MultiLevelWriter(output, fileWriter)
	}

	logger := zerolog.New(output).With().Timestamp().Logger().Level(ParseLevel(level))
	Logger = &logger
	return nil
}

// Get 返回全局 logger 实例
// 如果 logger 未初始化，返回一个默认的 logger（输出到 /dev/null）
func Get() *zerolog.Logger {
	if Logger == nil {
		Logger = discard()
	}
	return Logger
}
