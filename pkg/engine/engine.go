// Package engine 扫描图片目录，查找相似图片或按拍摄日期分组。
// 所有操作都是同步的，运行期间把阶段和进度写入 progress.Handle。
package engine

import (
	"fmt"
	"runtime"

	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/pkg/logger"
	"github.com/moyu-x/image-manager/pkg/progress"
	"github.com/moyu-x/image-manager/pkg/scanner"
)

type Config struct {
	Recursive  bool
	Formats    []internal.ImageFormat // 为空表示全部支持的格式
	Threshold  float64
	Mode       internal.DuplicateMode
	Workers    int
	SkipHidden bool // 跳过以 "." 开头的文件和目录
}

type Engine struct {
	cfg    Config
	fs     afero.Fs
	walker *scanner.FileWalker
}

func New(cfg Config) *Engine {
	return NewWithFs(afero.NewOsFs(), cfg)
}

func NewWithFs(fs afero.Fs, cfg Config) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Mode == "" {
		cfg.Mode = internal.ModeSizeFiltered
	}
	walker := scanner.NewFileWalker(fs, cfg.Recursive)
	walker.SkipHidden = cfg.SkipHidden

	return &Engine{
		cfg:    cfg,
		fs:     fs,
		walker: walker,
	}
}

func (e *Engine) scan(dir string, h *progress.Handle) ([]scanner.Image, []error, error) {
	h.SetPhase(progress.PhaseScanning)
	logger.Get().Info().Msgf("开始扫描目录: %s (递归: %v)", dir, e.cfg.Recursive)

	total, err := e.walker.CountFiles(dir)
	if err != nil {
		logger.Get().Error().Err(err).Msgf("扫描目录失败: %s", dir)
		return nil, nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	seen := 0
	images, errs, err := e.walker.FindImages(dir, e.cfg.Formats, func(path string) {
		seen++
		h.SetProgress(seen, total, path)
	})
	if err != nil {
		logger.Get().Error().Err(err).Msgf("扫描目录失败: %s", dir)
		return nil, errs, fmt.Errorf("scan %s: %w", dir, err)
	}

	logger.Get().Info().Msgf("扫描完成，找到 %d 张图片，%d 个错误", len(images), len(errs))
	return images, errs, nil
}
