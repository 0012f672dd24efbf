package engine

import (
	"fmt"
	"sort"

	"github.com/corona10/goimagehash"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/hasher"
	"github.com/moyu-x/image-manager/pkg/logger"
	"github.com/moyu-x/image-manager/pkg/progress"
	"github.com/moyu-x/image-manager/pkg/scanner"
)

// unit 内容完全相同的一组文件，以第一个文件为代表参与感知比较
type unit struct {
	files      []string
	format     internal.ImageFormat
	similarity float64
	hash       *goimagehash.ImageHash
}

// FindDuplicates 查找相似图片。内容哈希相同的文件相似度为 1.0；
// 其余文件用 pHash 与组内第一个文件比较，相似度不低于阈值即归入该组。
func (e *Engine) FindDuplicates(dir string, h *progress.Handle) (internal.DuplicateGroups, []error, error) {
	defer h.Complete()

	images, errs, err := e.scan(dir, h)
	if err != nil {
		return nil, errs, err
	}

	buckets := e.candidateBuckets(images)

	units, hashErrs, err := e.exactUnits(buckets, h)
	if err != nil {
		return nil, errs, err
	}
	errs = append(errs, hashErrs...)

	groups, cmpErrs, err := e.compare(units, h)
	if err != nil {
		return nil, errs, err
	}
	errs = append(errs, cmpErrs...)

	logger.Get().Info().Msgf("找到 %d 组相似图片，共 %d 个文件", len(groups), groups.Total())
	return groups, errs, nil
}

// candidateBuckets size_filtered 模式下只保留大小相同的文件组，
// complete 模式下所有图片放在一个组里
func (e *Engine) candidateBuckets(images []scanner.Image) [][]scanner.Image {
	if e.cfg.Mode == internal.ModeComplete {
		if len(images) < 2 {
			return nil
		}
		return [][]scanner.Image{images}
	}

	bySize := make(map[int64][]scanner.Image)
	for _, img := range images {
		bySize[img.Size] = append(bySize[img.Size], img)
	}

	sizes := make([]int64, 0, len(bySize))
	for size, imgs := range bySize {
		if len(imgs) >= 2 {
			sizes = append(sizes, size)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })

	buckets := make([][]scanner.Image, 0, len(sizes))
	for _, size := range sizes {
		buckets = append(buckets, bySize[size])
	}
	logger.Get().Debug().Msgf("按大小筛选后剩余 %d 个候选组", len(buckets))
	return buckets
}

// exactUnits 并行计算内容哈希，并把每个候选组内哈希相同的文件合并成 unit
func (e *Engine) exactUnits(buckets [][]scanner.Image, h *progress.Handle) ([][]*unit, []error, error) {
	var tasks []hasher.Task
	for _, bucket := range buckets {
		for _, img := range bucket {
			tasks = append(tasks, hasher.Task{Index: len(tasks), Path: img.Path, Size: img.Size})
		}
	}

	h.SetPhase(progress.PhaseHashing)
	pool := hasher.NewPool(e.cfg.Workers, func(t hasher.Task) (uint64, error) {
		return hasher.CalculateHash(e.fs, t.Path)
	})
	results, err := pool.Run(tasks, func(done int, r hasher.Result[uint64]) {
		h.SetProgress(done, len(tasks), r.Path)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start hash workers: %w", err)
	}

	var errs []error
	out := make([][]*unit, 0, len(buckets))
	i := 0
	for _, bucket := range buckets {
		byHash := make(map[uint64]*unit)
		var units []*unit
		for _, img := range bucket {
			r := results[i]
			i++
			if r.Error != nil {
				logger.Get().Warn().Err(r.Error).Msgf("计算哈希失败: %s", r.Path)
				errs = append(errs, errors.Processing(r.Path, r.Error, "failed to hash file"))
				continue
			}
			if u, ok := byHash[r.Value]; ok {
				u.files = append(u.files, img.Path)
				continue
			}
			u := &unit{files: []string{img.Path}, format: img.Format, similarity: 1.0}
			byHash[r.Value] = u
			units = append(units, u)
		}
		out = append(out, units)
	}
	return out, errs, nil
}

// compare 对每个候选组内的 unit 做感知哈希比较并生成最终分组
func (e *Engine) compare(buckets [][]*unit, h *progress.Handle) (internal.DuplicateGroups, []error, error) {
	var tasks []hasher.Task
	var targets []*unit
	for _, units := range buckets {
		if len(units) < 2 {
			continue
		}
		for _, u := range units {
			// ico 没有解码器，只参与内容哈希比较
			if u.format == internal.FormatICO {
				continue
			}
			tasks = append(tasks, hasher.Task{Index: len(tasks), Path: u.files[0]})
			targets = append(targets, u)
		}
	}

	h.SetPhase(progress.PhaseComparing)
	var errs []error
	if len(tasks) > 0 {
		pool := hasher.NewPool(e.cfg.Workers, func(t hasher.Task) (*goimagehash.ImageHash, error) {
			return hasher.PerceptualHash(e.fs, t.Path)
		})
		results, err := pool.Run(tasks, func(done int, r hasher.Result[*goimagehash.ImageHash]) {
			h.SetProgress(done, len(tasks), r.Path)
		})
		if err != nil {
			return nil, nil, fmt.Errorf("start compare workers: %w", err)
		}
		for i, r := range results {
			if r.Error != nil {
				logger.Get().Warn().Err(r.Error).Msgf("解码图片失败: %s", r.Path)
				errs = append(errs, errors.Processing(r.Path, r.Error, "failed to decode image"))
				continue
			}
			targets[i].hash = r.Value
		}
	}

	var groups internal.DuplicateGroups
	for _, units := range buckets {
		groups = append(groups, e.merge(units)...)
	}

	for i := range groups {
		sort.Strings(groups[i].Files)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Files[0] < groups[j].Files[0] })
	return groups, errs, nil
}

func (e *Engine) merge(units []*unit) internal.DuplicateGroups {
	var groups internal.DuplicateGroups
	merged := make([]bool, len(units))

	for i, anchor := range units {
		if merged[i] {
			continue
		}
		files := append([]string(nil), anchor.files...)
		similarity := anchor.similarity

		if anchor.hash != nil {
			for j := i + 1; j < len(units); j++ {
				other := units[j]
				if merged[j] || other.hash == nil {
					continue
				}
				s, err := hasher.Similarity(anchor.hash, other.hash)
				if err != nil {
					logger.Get().Debug().Err(err).Msgf("比较失败: %s <-> %s", anchor.files[0], other.files[0])
					continue
				}
				if s >= e.cfg.Threshold {
					merged[j] = true
					files = append(files, other.files...)
					if s < similarity {
						similarity = s
					}
				}
			}
		}

		if len(files) >= 2 {
			groups = append(groups, internal.DuplicateGroup{Files: files, Similarity: similarity})
		}
	}
	return groups
}
