package internal

import (
	"sort"
	"strings"

	"github.com/moyu-x/image-manager/internal/errors"
)

// 重复检测模式
type DuplicateMode string

const (
	ModeSizeFiltered DuplicateMode = "size_filtered"
	ModeComplete     DuplicateMode = "complete"
)

// ParseDuplicateMode 解析 --mode 参数，空字符串返回默认模式
func ParseDuplicateMode(s string) (DuplicateMode, error) {
	switch DuplicateMode(strings.ToLower(s)) {
	case "", ModeSizeFiltered:
		return ModeSizeFiltered, nil
	case ModeComplete:
		return ModeComplete, nil
	}
	return "", errors.InvalidInput("unsupported duplicate mode %q (size_filtered|complete)", s)
}

// 相似度预设等级
type ThresholdLevel string

const (
	LevelLow    ThresholdLevel = "low"
	LevelMedium ThresholdLevel = "medium"
	LevelHigh   ThresholdLevel = "high"
)

func ParseThresholdLevel(s string) (ThresholdLevel, error) {
	switch l := ThresholdLevel(strings.ToLower(s)); l {
	case LevelLow, LevelMedium, LevelHigh:
		return l, nil
	}
	return "", errors.InvalidInput("unsupported sensitivity %q (low|medium|high)", s)
}

// 支持的图片格式
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
	FormatTIFF ImageFormat = "tiff"
	FormatWebP ImageFormat = "webp"
	FormatBMP  ImageFormat = "bmp"
	FormatICO  ImageFormat = "ico"
)

// AllFormats 是未指定 --format 时引擎接受的全部格式
var AllFormats = []ImageFormat{FormatJPEG, FormatPNG, FormatGIF, FormatTIFF, FormatWebP, FormatBMP, FormatICO}

func ParseImageFormat(s string) (ImageFormat, error) {
	switch f := ImageFormat(strings.ToLower(s)); f {
	case "jpg":
		return FormatJPEG, nil
	case FormatJPEG, FormatPNG, FormatGIF, FormatTIFF, FormatWebP, FormatBMP, FormatICO:
		return f, nil
	}
	return "", errors.InvalidInput("unsupported image format %q (jpeg|png|gif|tiff|webp|bmp|ico)", s)
}

// DateBuckets 日期 -> 文件列表，日期格式为 YYYY-MM-DD 或 YYYY/MM/DD
type DateBuckets map[string][]string

// Total 所有日期下的文件总数
func (b DateBuckets) Total() int {
	total := 0
	for _, files := range b {
		total += len(files)
	}
	return total
}

// Keys 按字典序返回日期
func (b DateBuckets) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DuplicateGroup 一组相似的文件
type DuplicateGroup struct {
	Files      []string
	Similarity float64
}

type DuplicateGroups []DuplicateGroup

func (g DuplicateGroups) Total() int {
	total := 0
	for _, group := range g {
		total += len(group.Files)
	}
	return total
}
