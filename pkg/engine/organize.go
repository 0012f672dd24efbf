package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/hasher"
	"github.com/moyu-x/image-manager/pkg/logger"
	"github.com/moyu-x/image-manager/pkg/progress"
)

// DateLayout 日期分组键的格式
const DateLayout = "2006-01-02"

// CaptureDate 优先读取 EXIF 拍摄时间，没有时使用文件修改时间
func CaptureDate(fs afero.Fs, path string) (time.Time, error) {
	f, err := fs.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	if x, err := exif.Decode(f); err == nil {
		if t, err := x.DateTime(); err == nil && !t.IsZero() {
			return t, nil
		}
	} else {
		logger.Get().Trace().Err(err).Msgf("没有可用的 EXIF 信息: %s", path)
	}

	info, err := fs.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// OrganizeByDate 把图片按拍摄日期 (YYYY-MM-DD) 分组，每组内路径有序
func (e *Engine) OrganizeByDate(dir string, h *progress.Handle) (internal.DateBuckets, []error, error) {
	defer h.Complete()

	images, errs, err := e.scan(dir, h)
	if err != nil {
		return nil, errs, err
	}

	tasks := make([]hasher.Task, len(images))
	for i, img := range images {
		tasks[i] = hasher.Task{Index: i, Path: img.Path, Size: img.Size}
	}

	h.SetPhase(progress.PhaseOrganizing)
	pool := hasher.NewPool(e.cfg.Workers, func(t hasher.Task) (time.Time, error) {
		return CaptureDate(e.fs, t.Path)
	})
	results, err := pool.Run(tasks, func(done int, r hasher.Result[time.Time]) {
		h.SetProgress(done, len(tasks), r.Path)
	})
	if err != nil {
		return nil, errs, fmt.Errorf("start date workers: %w", err)
	}

	buckets := internal.DateBuckets{}
	for _, r := range results {
		if r.Error != nil {
			logger.Get().Warn().Err(r.Error).Msgf("读取日期失败: %s", r.Path)
			errs = append(errs, errors.Processing(r.Path, r.Error, "failed to determine date"))
			continue
		}
		key := r.Value.Format(DateLayout)
		buckets[key] = append(buckets[key], r.Path)
	}
	for _, files := range buckets {
		sort.Strings(files)
	}

	logger.Get().Info().Msgf("按日期分组完成: %d 个日期，%d 个文件", len(buckets), buckets.Total())
	return buckets, errs, nil
}
