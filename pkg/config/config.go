package config

import (
	"runtime"
	"time"

	"github.com/spf13/viper"

	"github.com/moyu-x/image-manager/internal"
)

type Config struct {
	Logging struct {
		Level string
		File  string
	}
	Progress struct {
		Interval time.Duration
	}
	Display struct {
		MaxItems int `mapstructure:"max_items"`
	}
	Engine struct {
		Workers    int
		SkipHidden bool `mapstructure:"skip_hidden"`
	}
	Duplicates struct {
		Thresholds struct {
			Low    float64
			Medium float64
			High   float64
		}
	}
	Export struct {
		OrganizeFormat   string `mapstructure:"organize_format"`
		DuplicatesFormat string `mapstructure:"duplicates_format"`
	}
}

// Threshold 返回预设等级对应的相似度
func (c *Config) Threshold(level internal.ThresholdLevel) float64 {
	switch level {
	case internal.LevelLow:
		return c.Duplicates.Thresholds.Low
	case internal.LevelHigh:
		return c.Duplicates.Thresholds.High
	default:
		return c.Duplicates.Thresholds.Medium
	}
}

// Load 读取配置文件，找不到配置文件时使用默认值
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom 从指定文件读取配置，file 为空时按默认路径搜索
func LoadFrom(file string) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(internal.DefaultConfigDir)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/image-manager")
	}

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.file", "")
	v.SetDefault("progress.interval", internal.DefaultProgressInterval)
	v.SetDefault("display.max_items", internal.MaxDisplayItems)
	v.SetDefault("engine.workers", runtime.NumCPU())
	v.SetDefault("engine.skip_hidden", false)
	v.SetDefault("duplicates.thresholds.low", internal.DefaultThresholdLow)
	v.SetDefault("duplicates.thresholds.medium", internal.DefaultThresholdMedium)
	v.SetDefault("duplicates.thresholds.high", internal.DefaultThresholdHigh)
	v.SetDefault("export.organize_format", "csv")
	v.SetDefault("export.duplicates_format", "json")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var loaded Config
	if err := v.Unmarshal(&loaded); err != nil {
		return nil, err
	}

	if loaded.Progress.Interval <= 0 {
		loaded.Progress.Interval = internal.DefaultProgressInterval
	}
	if loaded.Display.MaxItems <= 0 {
		loaded.Display.MaxItems = internal.MaxDisplayItems
	}
	if loaded.Engine.Workers <= 0 {
		loaded.Engine.Workers = runtime.NumCPU()
	}

	return &loaded, nil
}
