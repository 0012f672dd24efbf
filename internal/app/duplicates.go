package app

import (
	"time"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/engine"
	"github.com/moyu-x/image-manager/pkg/logger"
	"github.com/moyu-x/image-manager/pkg/progress"
	"github.com/moyu-x/image-manager/pkg/validation"
)

type DuplicatesOptions struct {
	Directory    string
	Recursive    bool
	Threshold    *float64 // nil 表示未指定
	Sensitivity  string
	ExportPath   string
	ExportFormat string
	Mode         string
	Verbose      bool
}

type DuplicatesReport struct {
	Groups    internal.DuplicateGroups
	Errors    []error
	Threshold float64
	Mode      internal.DuplicateMode
	Elapsed   time.Duration
	ExportErr error
}

// RunDuplicates 加载配置和日志后执行 duplicates
func RunDuplicates(opts *DuplicatesOptions) (*DuplicatesReport, error) {
	r, err := setup(opts.Verbose)
	if err != nil {
		return nil, err
	}
	return r.Duplicates(opts)
}

// threshold --sensitivity 优先于 --threshold，都没有时使用 medium
func (r *Runner) threshold(opts *DuplicatesOptions) (float64, error) {
	if opts.Sensitivity != "" {
		level, err := internal.ParseThresholdLevel(opts.Sensitivity)
		if err != nil {
			return 0, err
		}
		return r.Config.Threshold(level), nil
	}
	if opts.Threshold != nil {
		return *opts.Threshold, nil
	}
	return r.Config.Threshold(internal.LevelMedium), nil
}

func (r *Runner) Duplicates(opts *DuplicatesOptions) (*DuplicatesReport, error) {
	if err := validation.Duplicates(validation.DuplicatesArgs{
		Directory: opts.Directory,
		Threshold: opts.Threshold,
	}); err != nil {
		return nil, err
	}

	threshold, err := r.threshold(opts)
	if err != nil {
		return nil, err
	}
	if err := validation.Threshold(threshold); err != nil {
		return nil, err
	}

	mode, err := internal.ParseDuplicateMode(opts.Mode)
	if err != nil {
		return nil, err
	}

	format, err := exportFormat(opts.ExportFormat, r.Config.Export.DuplicatesFormat)
	if err != nil {
		return nil, err
	}

	logger.Get().Info().Msgf("查找重复图片: %s (阈值: %.2f, 模式: %s)", opts.Directory, threshold, mode)

	eng := r.NewEngine(engine.Config{
		Recursive:  opts.Recursive,
		Threshold:  threshold,
		Mode:       mode,
		Workers:    r.Config.Engine.Workers,
		SkipHidden: r.Config.Engine.SkipHidden,
	})

	report := &DuplicatesReport{Threshold: threshold, Mode: mode}
	var engineErr error
	report.Elapsed = r.observe("Scanning for duplicates...", func(h *progress.Handle) {
		report.Groups, report.Errors, engineErr = eng.FindDuplicates(opts.Directory, h)
	})
	if engineErr != nil {
		logger.Get().Error().Err(engineErr).Msg("查找重复图片失败")
		return nil, errors.OperationFailed(engineErr, "failed to find duplicate images")
	}

	p := r.presenter()
	p.Elapsed("Duplicate detection", report.Elapsed)
	p.DuplicatesPreview(report.Groups, threshold)
	p.Errors("Processing Errors", report.Errors)

	if opts.ExportPath != "" {
		doc := r.builder().Duplicates(report.Groups, threshold, mode, opts.Directory)
		report.ExportErr = r.exportDocument(p, doc, opts.ExportPath, format)
	}

	return report, nil
}
