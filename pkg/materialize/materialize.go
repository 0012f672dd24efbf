package materialize

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/logger"
)

const BufferSize = 8192

// Copier 把按日期整理的文件复制到 target/<year>/<month>/<day>/ 下。
// 复制是尽力而为的：单个文件失败只记录错误，不影响其他文件。
type Copier struct {
	Fs          afero.Fs
	ProgressOut io.Writer
}

// Result 实际写入的文件和累积的错误
type Result struct {
	Copied internal.DateBuckets
	Errors []error
}

// Total 实际复制成功的文件数
func (r *Result) Total() int {
	return r.Copied.Total()
}

func NewCopier(fs afero.Fs) *Copier {
	return &Copier{
		Fs:          fs,
		ProgressOut: io.Discard,
	}
}

// ParseDateKey 按 "-" 或 "/" 把日期拆成三段，段数不是 3 时 ok 为 false。
// 段的内容不做检查，空段也算一段。
func ParseDateKey(key string) (year, month, day string, ok bool) {
	parts := strings.Split(strings.ReplaceAll(key, "/", "-"), "-")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// CopyToTarget 复制所有文件。只有目标根目录无法创建时才返回错误。
func (c *Copier) CopyToTarget(buckets internal.DateBuckets, target string) (*Result, error) {
	result := &Result{Copied: internal.DateBuckets{}}

	total := buckets.Total()
	if total == 0 {
		return result, nil
	}

	if err := c.Fs.MkdirAll(target, 0755); err != nil {
		logger.Get().Error().Err(err).Msgf("创建目标目录失败: %s", target)
		return nil, errors.IO(target, err, "failed to create target directory")
	}

	out := c.ProgressOut
	if out == nil {
		out = io.Discard
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("Copying files..."),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	for _, date := range buckets.Keys() {
		files := buckets[date]

		year, month, day, ok := ParseDateKey(date)
		if !ok {
			logger.Get().Warn().Msgf("无法解析日期，跳过 %d 个文件: %s", len(files), date)
			result.Errors = append(result.Errors,
				errors.Processing(date, nil, "skipped %d files with unparseable date key", len(files)))
			_ = bar.Add(len(files))
			result.Copied[date] = []string{}
			continue
		}

		dateDir := filepath.Join(target, year, month, day)
		if err := c.Fs.MkdirAll(dateDir, 0755); err != nil {
			result.Errors = append(result.Errors, errors.IO(dateDir, err, "failed to create directory"))
			_ = bar.Add(len(files))
			continue
		}

		written := make([]string, 0, len(files))
		for _, file := range files {
			bar.Describe(fmt.Sprintf("Copying %s", filepath.Base(file)))

			dst, err := c.copyOne(file, filepath.Join(dateDir, filepath.Base(file)))
			if err != nil {
				logger.Get().Error().Err(err).Msgf("复制文件失败: %s", file)
				result.Errors = append(result.Errors, err)
			} else {
				logger.Get().Debug().Msgf("已复制: %s -> %s", file, dst)
				written = append(written, dst)
			}
			_ = bar.Add(1)
		}
		result.Copied[date] = written
	}

	_ = bar.Finish()

	logger.Get().Info().Msgf("复制完成: %d/%d 个文件, %d 个错误", result.Total(), total, len(result.Errors))
	return result, nil
}

func (c *Copier) copyOne(src, dst string) (string, error) {
	in, err := c.Fs.Open(src)
	if err != nil {
		return "", errors.Processing(src, err, "failed to open source file")
	}
	defer in.Close()

	out, finalPath, err := CreateUnique(c.Fs, dst)
	if err != nil {
		return "", err
	}

	buf := make([]byte, BufferSize)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		out.Close()
		// 文件是本次创建的，删除不完整的副本
		_ = c.Fs.Remove(finalPath)
		return "", errors.Processing(src, err, "failed to copy to %s", finalPath)
	}
	if err := out.Close(); err != nil {
		_ = c.Fs.Remove(finalPath)
		return "", errors.Processing(src, err, "failed to copy to %s", finalPath)
	}

	if info, err := c.Fs.Stat(src); err == nil {
		if err := c.Fs.Chmod(finalPath, info.Mode().Perm()); err != nil {
			logger.Get().Warn().Err(err).Msgf("设置文件权限失败: %s", finalPath)
		}
	}

	return finalPath, nil
}

// CreateUnique 以独占方式创建 path；已存在时依次尝试 name_1.ext、name_2.ext ...
// “已存在”的创建错误本身就是冲突信号，不依赖事先的存在性检查。
func CreateUnique(fs afero.Fs, path string) (afero.File, string, error) {
	f, err := createExclusive(fs, path)
	if err == nil {
		return f, path, nil
	}
	if !os.IsExist(err) {
		return nil, "", errors.Processing(path, err, "failed to create destination file")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// .hidden 之类的文件名没有扩展名
		stem, ext = base, ""
	}

	for i := 1; i <= internal.MaxFilenameAttempts; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		f, err := createExclusive(fs, candidate)
		if err == nil {
			if i == 1 {
				logger.Get().Debug().Msgf("目标文件已存在，重命名为: %s", candidate)
			}
			return f, candidate, nil
		}
		if !os.IsExist(err) {
			return nil, "", errors.Processing(candidate, err, "failed to create destination file")
		}
	}

	return nil, "", errors.ResourceExhausted(path,
		"too many files with similar names exist (limit: %d)", internal.MaxFilenameAttempts)
}

func createExclusive(fs afero.Fs, path string) (afero.File, error) {
	return fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
}
