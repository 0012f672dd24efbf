package internal

import "time"

const (
	// 版本号，写入导出文件的元数据
	Version = "0.1.0"

	// 配置文件默认目录
	DefaultConfigDir = "$HOME/.image-manager"

	// 进度刷新间隔
	DefaultProgressInterval = 100 * time.Millisecond

	// 错误和预览列表最多展示的条数
	MaxDisplayItems = 10

	// 重名文件最多尝试的后缀数
	MaxFilenameAttempts = 1000

	// 缓冲区大小
	DefaultBufferSize = 1000

	// 相似度预设
	DefaultThresholdLow    = 0.80
	DefaultThresholdMedium = 0.90
	DefaultThresholdHigh   = 0.95
)
