// Package validation 在任何修改磁盘的操作之前检查命令参数。
// 所有函数都没有副作用，可以重复调用。
package validation

import (
	"os"
	"path/filepath"

	"github.com/moyu-x/image-manager/internal/errors"
)

// Directory 检查路径存在且是目录
func Directory(path, description string) error {
	if path == "" {
		return errors.InvalidInput("%s is required", description)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.InvalidInput("%s does not exist", description).WithPath(path)
		}
		return errors.InvalidInput("%s cannot be accessed", description).WithPath(path).WithCause(err)
	}

	if !info.IsDir() {
		return errors.InvalidInput("%s is not a directory", description).WithPath(path)
	}

	return nil
}

// canonical 解析符号链接并返回绝对路径，失败时退回到原路径
func canonical(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		return filepath.Clean(resolved)
	}
	return abs
}

// DifferentDirectories 源目录和目标目录不能是同一个物理目录，
// 否则复制到扫描源会造成无限增长。
func DifferentDirectories(source, target string) error {
	if canonical(source) == canonical(target) {
		return errors.InvalidInput("source and target directories cannot be the same").WithPath(target)
	}

	sourceInfo, err := os.Stat(source)
	if err != nil {
		return nil
	}
	targetInfo, err := os.Stat(target)
	if err != nil {
		return nil
	}
	if os.SameFile(sourceInfo, targetInfo) {
		return errors.InvalidInput("source and target directories cannot be the same").WithPath(target)
	}

	return nil
}

// Threshold 相似度必须位于 [0.0, 1.0]
func Threshold(threshold float64) error {
	if !(threshold >= 0.0 && threshold <= 1.0) {
		return errors.InvalidInput("similarity threshold must be between 0.0 and 1.0, got: %v", threshold)
	}
	return nil
}

// OrganizeArgs organize 命令需要校验的参数
type OrganizeArgs struct {
	Directory  string
	TargetPath string
	Copy       bool
}

// Organize 校验 organize 命令参数
func Organize(args OrganizeArgs) error {
	if err := Directory(args.Directory, "source directory"); err != nil {
		return err
	}

	if args.TargetPath != "" {
		if info, err := os.Stat(args.TargetPath); err == nil && info.IsDir() {
			if err := DifferentDirectories(args.Directory, args.TargetPath); err != nil {
				return err
			}
		}
	}

	if args.Copy && args.TargetPath == "" {
		return ErrCopyWithoutTarget()
	}

	return nil
}

// ErrCopyWithoutTarget --copy 必须配合 --target-path
func ErrCopyWithoutTarget() error {
	return errors.InvalidInput("--copy flag requires --target-path to be specified")
}

// DuplicatesArgs duplicates 命令需要校验的参数
type DuplicatesArgs struct {
	Directory string
	Threshold *float64
}

// Duplicates 校验 duplicates 命令参数
func Duplicates(args DuplicatesArgs) error {
	if err := Directory(args.Directory, "source directory"); err != nil {
		return err
	}

	if args.Threshold != nil {
		if err := Threshold(*args.Threshold); err != nil {
			return err
		}
	}

	return nil
}
