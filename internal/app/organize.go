package app

import (
	"time"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/engine"
	"github.com/moyu-x/image-manager/pkg/logger"
	"github.com/moyu-x/image-manager/pkg/materialize"
	"github.com/moyu-x/image-manager/pkg/progress"
	"github.com/moyu-x/image-manager/pkg/validation"
)

type OrganizeOptions struct {
	Directory    string
	Recursive    bool
	Format       string
	ExportPath   string
	ExportFormat string
	TargetPath   string
	Copy         bool
	Verbose      bool
}

type OrganizeReport struct {
	Buckets   internal.DateBuckets
	Errors    []error
	Elapsed   time.Duration
	ExportErr error
	Copy      *materialize.Result
}

// RunOrganize 加载配置和日志后执行 organize
func RunOrganize(opts *OrganizeOptions) (*OrganizeReport, error) {
	r, err := setup(opts.Verbose)
	if err != nil {
		return nil, err
	}
	return r.Organize(opts)
}

func (r *Runner) Organize(opts *OrganizeOptions) (*OrganizeReport, error) {
	if err := validation.Organize(validation.OrganizeArgs{
		Directory:  opts.Directory,
		TargetPath: opts.TargetPath,
		Copy:       opts.Copy,
	}); err != nil {
		return nil, err
	}

	var formats []internal.ImageFormat
	if opts.Format != "" {
		f, err := internal.ParseImageFormat(opts.Format)
		if err != nil {
			return nil, err
		}
		formats = []internal.ImageFormat{f}
	}

	format, err := exportFormat(opts.ExportFormat, r.Config.Export.OrganizeFormat)
	if err != nil {
		return nil, err
	}

	logger.Get().Info().Msgf("整理目录: %s", opts.Directory)
	if opts.TargetPath != "" {
		logger.Get().Info().Msgf("目标目录: %s (复制: %v)", opts.TargetPath, opts.Copy)
	}

	eng := r.NewEngine(engine.Config{
		Recursive:  opts.Recursive,
		Formats:    formats,
		Workers:    r.Config.Engine.Workers,
		SkipHidden: r.Config.Engine.SkipHidden,
	})

	report := &OrganizeReport{}
	var engineErr error
	report.Elapsed = r.observe("Scanning directory...", func(h *progress.Handle) {
		report.Buckets, report.Errors, engineErr = eng.OrganizeByDate(opts.Directory, h)
	})
	if engineErr != nil {
		logger.Get().Error().Err(engineErr).Msg("整理失败")
		return nil, errors.OperationFailed(engineErr, "failed to organize images")
	}
	if report.Buckets == nil {
		report.Buckets = internal.DateBuckets{}
	}

	p := r.presenter()
	p.Elapsed("Organization", report.Elapsed)
	p.OrganizePreview(report.Buckets, len(report.Errors), opts.Directory, opts.TargetPath)
	p.Errors("Processing Errors", report.Errors)

	if opts.ExportPath != "" {
		doc := r.builder().Organize(report.Buckets, opts.Directory, opts.TargetPath)
		report.ExportErr = r.exportDocument(p, doc, opts.ExportPath, format)
	}

	if opts.Copy {
		if opts.TargetPath == "" {
			return report, validation.ErrCopyWithoutTarget()
		}

		copier := materialize.NewCopier(r.Fs)
		copier.ProgressOut = r.Status
		result, err := copier.CopyToTarget(report.Buckets, opts.TargetPath)
		if err != nil {
			return report, err
		}
		report.Copy = result

		p.CopySummary(opts.TargetPath, result.Total())
		p.Errors("Copy Errors", result.Errors)
	}

	return report, nil
}
