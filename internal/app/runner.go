// Package app 实现 organize 与 duplicates 两个命令的完整流程：
// 参数校验 → 调用引擎（同时显示进度）→ 预览结果 → 导出 → 复制 → 汇总。
package app

import (
	"io"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/config"
	"github.com/moyu-x/image-manager/pkg/engine"
	"github.com/moyu-x/image-manager/pkg/export"
	"github.com/moyu-x/image-manager/pkg/logger"
	"github.com/moyu-x/image-manager/pkg/presenter"
	"github.com/moyu-x/image-manager/pkg/progress"
)

// Engine 执行实际扫描的外部能力，运行期间向 Handle 写入进度
type Engine interface {
	FindDuplicates(dir string, h *progress.Handle) (internal.DuplicateGroups, []error, error)
	OrganizeByDate(dir string, h *progress.Handle) (internal.DateBuckets, []error, error)
}

// Runner 持有命令执行需要的全部依赖
type Runner struct {
	Config    *config.Config
	Out       io.Writer // 结果预览
	Status    io.Writer // 进度行和复制进度条
	Fs        afero.Fs
	NewEngine func(engine.Config) Engine
	Now       func() time.Time
}

func NewRunner(cfg *config.Config) *Runner {
	return &Runner{
		Config: cfg,
		Out:    os.Stdout,
		Status: os.Stdout,
		Fs:     afero.NewOsFs(),
		NewEngine: func(c engine.Config) Engine {
			return engine.New(c)
		},
		Now: time.Now,
	}
}

// setup 读取配置并初始化日志，verbose 时强制 debug 级别
func setup(verbose bool) (*Runner, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.InvalidInput("failed to load configuration").WithCause(err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	if err := logger.Init(level, cfg.Logging.File); err != nil {
		return nil, errors.IO(cfg.Logging.File, err, "failed to open log file")
	}

	logger.Get().Debug().Msg("加载配置完成")
	return NewRunner(cfg), nil
}

func (r *Runner) presenter() *presenter.Presenter {
	p := presenter.New(r.Out, r.Config.Display.MaxItems)
	p.Fs = r.Fs
	return p
}

func (r *Runner) builder() *export.Builder {
	b := export.NewBuilder()
	b.Fs = r.Fs
	if r.Now != nil {
		b.Now = r.Now
	}
	return b
}

// observe 在监视器运行期间调用 fn。返回前 Handle 已完成且监视器已退出，
// 调用方之后的输出不会和进度行交错。
func (r *Runner) observe(message string, fn func(h *progress.Handle)) time.Duration {
	h := progress.NewHandle()
	monitor := progress.StartMonitor(h, r.Status, r.Config.Progress.Interval, message)

	start := time.Now()
	func() {
		defer h.Complete()
		fn(h)
	}()
	elapsed := time.Since(start)

	monitor.Wait()
	return elapsed
}

// exportDocument 导出失败只影响导出这一步，错误会显示并返回给调用方记录
func (r *Runner) exportDocument(p *presenter.Presenter, doc *export.Document, path string, format export.Format) error {
	if err := export.Export(r.Fs, doc, path, format); err != nil {
		logger.Get().Error().Err(err).Msgf("导出失败: %s", path)
		p.Errors("Export Error", []error{err})
		return err
	}
	p.ExportSummary(format.Name(), path)
	return nil
}

func exportFormat(flag, configured string) (export.Format, error) {
	if flag == "" {
		flag = configured
	}
	return export.ParseFormat(flag)
}
