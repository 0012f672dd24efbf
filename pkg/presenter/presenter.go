// Package presenter 把命令结果渲染到终端。
package presenter

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal"
)

type Presenter struct {
	Out      io.Writer
	MaxItems int
	Fs       afero.Fs
}

func New(out io.Writer, maxItems int) *Presenter {
	if maxItems <= 0 {
		maxItems = internal.MaxDisplayItems
	}
	return &Presenter{
		Out:      out,
		MaxItems: maxItems,
		Fs:       afero.NewOsFs(),
	}
}

func (p *Presenter) println(a ...any) {
	fmt.Fprintln(p.Out, a...)
}

func (p *Presenter) printf(format string, a ...any) {
	fmt.Fprintf(p.Out, format, a...)
}

func (p *Presenter) separator() {
	p.println(separatorStyle.Render(strings.Repeat("─", 50)))
}

// Banner 标题加分隔线
func (p *Presenter) Banner(title string) {
	p.println(titleStyle.Render(title))
	p.separator()
}

// Elapsed 例如 "✓ Organization completed in 1.2s"
func (p *Presenter) Elapsed(label string, d time.Duration) {
	p.println(successStyle.Render(fmt.Sprintf("✓ %s completed in %s", label, formatDuration(d))))
}

// OrganizePreview 按日期列出将要整理的文件。没有图片时只在扫描也没有出错的情况下提示，
// 有错误时由 Errors 负责说明。
func (p *Presenter) OrganizePreview(buckets internal.DateBuckets, scanErrors int, source, target string) {
	if buckets.Total() == 0 {
		if scanErrors == 0 {
			p.println(hintStyle.Render("No supported images found in directory"))
		}
		return
	}

	p.Banner("Organization Preview")
	p.println(labelStyle.Render(fmt.Sprintf("Found %d images across %d dates", buckets.Total(), len(buckets))))

	base := filepath.Base(filepath.Clean(source))
	if target != "" {
		base = filepath.Base(filepath.Clean(target))
	}

	for _, date := range buckets.Keys() {
		files := buckets[date]
		p.printf("%s %s\n", labelStyle.Render(date), hintStyle.Render(fmt.Sprintf("(%d files) → %s/%s/", len(files), base, date)))
		for i, file := range files {
			if i == p.MaxItems {
				p.println(hintStyle.Render(fmt.Sprintf("   ... and %d more files", len(files)-p.MaxItems)))
				break
			}
			p.printf("   %d. %s\n", i+1, filePathStyle.Render(filepath.Base(file)))
		}
	}
}

// DuplicatesPreview 列出每组相似图片及其大小
func (p *Presenter) DuplicatesPreview(groups internal.DuplicateGroups, threshold float64) {
	p.Banner("Duplicate Detection Preview")
	if len(groups) == 0 {
		p.println(hintStyle.Render("No duplicate images found"))
		return
	}

	p.println(labelStyle.Render(fmt.Sprintf("Found %d duplicate groups (%d files, similarity threshold: %.1f%%)",
		len(groups), groups.Total(), threshold*100)))

	for i, group := range groups {
		p.println(labelStyle.Render(fmt.Sprintf("Group %d (%d files, %.1f%% similar)",
			i+1, len(group.Files), group.Similarity*100)))
		for j, file := range group.Files {
			p.printf("   %d. %s %s\n", j+1, filePathStyle.Render(file), hintStyle.Render("("+p.fileSize(file)+")"))
		}
	}
}

// Errors 最多显示 MaxItems 条，其余只给出数量
func (p *Presenter) Errors(title string, errs []error) {
	if len(errs) == 0 {
		return
	}

	p.println(errorTitleStyle.Render(fmt.Sprintf("%s (%d)", title, len(errs))))
	for i, err := range errs {
		if i == p.MaxItems {
			p.println(hintStyle.Render(fmt.Sprintf("   ... and %d more errors", len(errs)-p.MaxItems)))
			break
		}
		p.printf("   • %v\n", err)
	}
}

func (p *Presenter) ExportSummary(format, path string) {
	p.println(successStyle.Render(fmt.Sprintf("✓ Exported results to %s (%s)", path, format)))
}

func (p *Presenter) CopySummary(target string, copied int) {
	p.println(successStyle.Render(fmt.Sprintf("✓ Copied %d files to %s", copied, target)))
}

func (p *Presenter) fileSize(path string) string {
	info, err := p.Fs.Stat(path)
	if err != nil {
		return "unknown size"
	}
	return formatBytes(info.Size())
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
