// Package export 把 organize / duplicates 的结果写成 CSV、JSON、YAML 或 Parquet 文件。
package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal/errors"
	"github.com/moyu-x/image-manager/pkg/logger"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// Name 用于用户可见的提示
func (f Format) Name() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatJSON:
		return "JSON"
	case FormatYAML:
		return "YAML"
	case FormatParquet:
		return "Parquet"
	default:
		return strings.ToUpper(string(f))
	}
}

// ParseFormat 不区分大小写，yml 视为 yaml
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "parquet":
		return FormatParquet, nil
	default:
		return "", errors.InvalidInput("unsupported export format: %s (expected csv, json, yaml or parquet)", s)
	}
}

// Exporter 把 Document 序列化到 w
type Exporter interface {
	Export(doc *Document, w io.Writer) error
}

func exporterFor(format Format) (Exporter, error) {
	switch format {
	case FormatCSV:
		return CSVExporter{}, nil
	case FormatJSON:
		return JSONExporter{Indent: "  "}, nil
	case FormatYAML:
		return YAMLExporter{}, nil
	case FormatParquet:
		return ParquetExporter{}, nil
	default:
		return nil, errors.InvalidInput("unsupported export format: %s", format)
	}
}

// Export 创建 path 并写入 doc。文件无法创建或写入时返回 IO 错误，
// 序列化失败时返回 Serialization 错误。
func Export(fs afero.Fs, doc *Document, path string, format Format) error {
	exporter, err := exporterFor(format)
	if err != nil {
		return err
	}

	f, err := fs.Create(path)
	if err != nil {
		return errors.IO(path, err, "failed to create export file")
	}

	w := bufio.NewWriter(f)
	if err := exporter.Export(doc, w); err != nil {
		f.Close()
		if errors.KindOf(err) == errors.KindUnknown {
			err = errors.Serialization(err, "failed to write %s export", format.Name())
		}
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.IO(path, err, "failed to write export file")
	}
	if err := f.Close(); err != nil {
		return errors.IO(path, err, "failed to close export file")
	}

	logger.Get().Info().Msgf("已导出 %d 条记录到 %s (%s)", doc.Data.RecordCount(), path, format.Name())
	return nil
}
