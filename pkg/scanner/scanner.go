// Package scanner 遍历目录并按文件头识别图片格式。
package scanner

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/logger"
)

// HeaderSize 文件类型检测需要读取的字节数
const HeaderSize = 261

type FileWalker struct {
	Fs         afero.Fs
	Recursive  bool
	SkipHidden bool // 跳过以 "." 开头的文件和目录
}

func NewFileWalker(fs afero.Fs, recursive bool) *FileWalker {
	return &FileWalker{
		Fs:        fs,
		Recursive: recursive,
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Walk 对每个普通文件调用 callback。无法访问的子项会被跳过，
// 只有根目录本身不可访问时才返回错误。
func (w *FileWalker) Walk(root string, callback func(path string, info os.FileInfo) error) error {
	if _, err := w.Fs.Stat(root); err != nil {
		return err
	}

	return afero.Walk(w.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Get().Warn().Err(err).Msgf("跳过无法访问的路径: %s", path)
			return nil
		}

		if info.IsDir() {
			if path == root {
				return nil
			}
			if !w.Recursive || (w.SkipHidden && isHidden(info.Name())) {
				return filepath.SkipDir
			}
			return nil
		}

		if w.SkipHidden && isHidden(info.Name()) {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		return callback(path, info)
	})
}

// CountFiles 统计 Walk 会访问的文件数，用于计算扫描进度
func (w *FileWalker) CountFiles(root string) (int, error) {
	count := 0
	err := w.Walk(root, func(path string, info os.FileInfo) error {
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Get().Debug().Msgf("文件统计完成，%s 下共 %d 个文件", root, count)
	return count, nil
}

// Image 一个被识别出的图片文件
type Image struct {
	Path   string
	Size   int64
	Format internal.ImageFormat
}

// DetectFormat 读取文件头判断图片格式，不是支持的图片时 ok 为 false
func DetectFormat(fs afero.Fs, path string) (format internal.ImageFormat, ok bool, err error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", false, err
	}
	defer file.Close()

	head := make([]byte, HeaderSize)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", false, err
	}

	kind, err := filetype.Match(head[:n])
	if err != nil || kind == filetype.Unknown {
		return "", false, nil
	}

	switch kind.Extension {
	case "jpg":
		return internal.FormatJPEG, true, nil
	case "png":
		return internal.FormatPNG, true, nil
	case "gif":
		return internal.FormatGIF, true, nil
	case "tif":
		return internal.FormatTIFF, true, nil
	case "webp":
		return internal.FormatWebP, true, nil
	case "bmp":
		return internal.FormatBMP, true, nil
	case "ico":
		return internal.FormatICO, true, nil
	}
	return "", false, nil
}

// FindImages 返回 root 下格式属于 formats 的图片（formats 为空表示全部），
// 按路径排序。单个文件读取失败记为 Processing 错误。
func (w *FileWalker) FindImages(root string, formats []internal.ImageFormat, onFile func(path string)) ([]Image, []error, error) {
	allowed := make(map[internal.ImageFormat]bool, len(formats))
	for _, f := range formats {
		allowed[f] = true
	}

	var images []Image
	var errs []error

	err := w.Walk(root, func(path string, info os.FileInfo) error {
		if onFile != nil {
			onFile(path)
		}

		format, ok, err := DetectFormat(w.Fs, path)
		if err != nil {
			logger.Get().Warn().Err(err).Msgf("读取文件失败: %s", path)
			errs = append(errs, errors.Processing(path, err, "failed to read file"))
			return nil
		}
		if !ok || (len(allowed) > 0 && !allowed[format]) {
			return nil
		}

		images = append(images, Image{Path: path, Size: info.Size(), Format: format})
		return nil
	})
	if err != nil {
		return nil, errs, err
	}

	sort.Slice(images, func(i, j int) bool { return images[i].Path < images[j].Path })
	logger.Get().Debug().Msgf("在 %s 中找到 %d 张图片", root, len(images))
	return images, errs, nil
}
