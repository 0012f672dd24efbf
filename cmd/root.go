package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/moyu-x/image-manager/internal"
)

var rootCmd = &cobra.Command{
	Use:   "image-manager",
	Short: "按拍摄日期整理图片并查找相似图片",
	Long: `Image Manager 是一个管理本地图片目录的命令行工具。

主要功能:
- organize: 按拍摄日期（EXIF，缺失时使用修改时间）对图片分组，可复制到 target/年/月/日
- duplicates: 通过内容哈希和感知哈希查找相同或相似的图片
- 两个命令都可以把结果导出为 CSV、JSON、YAML 或 Parquet`,
	SilenceUsage: true,
}

// Execute 由 main.main 调用，出错时以状态码 1 退出
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(internal.Version),
	); err != nil {
		os.Exit(1)
	}
}
