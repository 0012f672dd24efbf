package cmd

import (
	"github.com/spf13/cobra"

	"github.com/moyu-x/image-manager/internal/app"
)

var organizeCmd = &cobra.Command{
	Use:   "organize <directory>",
	Short: "按拍摄日期整理图片",
	Long: `扫描目录中的图片并按拍摄日期 (YYYY-MM-DD) 分组预览。
指定 --copy 和 --target-path 时，把图片复制到 target/<年>/<月>/<日>/，
重名文件自动添加 _1、_2 ... 后缀，不会覆盖已有文件。`,
	Args: cobra.ExactArgs(1),
	RunE: runOrganize,
}

func runOrganize(cmd *cobra.Command, args []string) error {
	recursive, _ := cmd.Flags().GetBool("recursive")
	format, _ := cmd.Flags().GetString("format")
	exportPath, _ := cmd.Flags().GetString("export")
	exportFormat, _ := cmd.Flags().GetString("export-format")
	targetPath, _ := cmd.Flags().GetString("target-path")
	copyFiles, _ := cmd.Flags().GetBool("copy")
	verbose, _ := cmd.Flags().GetBool("verbose")

	_, err := app.RunOrganize(&app.OrganizeOptions{
		Directory:    args[0],
		Recursive:    recursive,
		Format:       format,
		ExportPath:   exportPath,
		ExportFormat: exportFormat,
		TargetPath:   targetPath,
		Copy:         copyFiles,
		Verbose:      verbose,
	})
	return err
}

func init() {
	organizeCmd.Flags().BoolP("recursive", "r", false, "递归扫描子目录")
	organizeCmd.Flags().String("format", "", "只处理指定格式: jpeg|png|gif|tiff|webp|bmp|ico")
	organizeCmd.Flags().String("export", "", "导出结果的文件路径")
	organizeCmd.Flags().String("export-format", "", "导出格式: csv|json|yaml|parquet（默认 csv）")
	organizeCmd.Flags().String("target-path", "", "整理后的目标目录")
	organizeCmd.Flags().Bool("copy", false, "把图片复制到目标目录（需要 --target-path）")
	organizeCmd.Flags().BoolP("verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(organizeCmd)
}
