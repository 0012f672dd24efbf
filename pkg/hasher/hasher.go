// Package hasher 计算文件的内容哈希和感知哈希。
package hasher

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/corona10/goimagehash"
	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/moyu-x/image-manager/pkg/logger"
)

// HashBits 感知哈希的位数，相似度 = 1 - 距离/HashBits
const HashBits = 64

// CalculateHash 计算文件内容的 xxHash
func CalculateHash(fs afero.Fs, filePath string) (uint64, error) {
	logger.Get().Debug().Msgf("计算文件哈希: %s", filePath)

	file, err := fs.Open(filePath)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	hash := xxhash.New()
	if _, err := io.Copy(hash, file); err != nil {
		return 0, err
	}

	result := hash.Sum64()
	logger.Get().Trace().Msgf("文件哈希计算完成: %s -> %x", filePath, result)
	return result, nil
}

// PerceptualHash 解码图片并计算 pHash
func PerceptualHash(fs afero.Fs, filePath string) (*goimagehash.ImageHash, error) {
	file, err := fs.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	return goimagehash.PerceptionHash(img)
}

// Similarity 两个感知哈希的相似度，范围 [0, 1]
func Similarity(a, b *goimagehash.ImageHash) (float64, error) {
	distance, err := a.Distance(b)
	if err != nil {
		return 0, err
	}
	return 1 - float64(distance)/HashBits, nil
}
