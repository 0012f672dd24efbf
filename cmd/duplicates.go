package cmd

import (
	"github.com/spf13/cobra"

	"github.com/moyu-x/image-manager/internal/app"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <directory>",
	Short: "查找相同或相似的图片",
	Long: `扫描目录中的图片，内容哈希 (xxHash) 相同的文件直接视为重复，
其余图片用感知哈希比较，相似度不低于阈值的归为一组。
size_filtered 模式只比较大小相同的文件，complete 模式比较所有图片。`,
	Args: cobra.ExactArgs(1),
	RunE: runDuplicates,
}

func runDuplicates(cmd *cobra.Command, args []string) error {
	recursive, _ := cmd.Flags().GetBool("recursive")
	sensitivity, _ := cmd.Flags().GetString("sensitivity")
	exportPath, _ := cmd.Flags().GetString("export")
	exportFormat, _ := cmd.Flags().GetString("export-format")
	mode, _ := cmd.Flags().GetString("mode")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var threshold *float64
	if cmd.Flags().Changed("threshold") {
		t, _ := cmd.Flags().GetFloat64("threshold")
		threshold = &t
	}

	_, err := app.RunDuplicates(&app.DuplicatesOptions{
		Directory:    args[0],
		Recursive:    recursive,
		Threshold:    threshold,
		Sensitivity:  sensitivity,
		ExportPath:   exportPath,
		ExportFormat: exportFormat,
		Mode:         mode,
		Verbose:      verbose,
	})
	return err
}

func init() {
	duplicatesCmd.Flags().BoolP("recursive", "r", false, "递归扫描子目录")
	duplicatesCmd.Flags().Float64("threshold", 0.9, "相似度阈值 0.0-1.0")
	duplicatesCmd.Flags().String("sensitivity", "", "预设阈值: low|medium|high，优先于 --threshold")
	duplicatesCmd.Flags().String("export", "", "导出结果的文件路径")
	duplicatesCmd.Flags().String("export-format", "", "导出格式: csv|json|yaml|parquet（默认 json）")
	duplicatesCmd.Flags().String("mode", "size_filtered", "比较模式: size_filtered|complete")
	duplicatesCmd.Flags().BoolP("verbose", "v", false, "输出调试日志")

	rootCmd.AddCommand(duplicatesCmd)
}
