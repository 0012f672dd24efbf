package export

import (
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/moyu-x/image-manager/internal/errors"
)

// ParquetExporter 只写记录表，元数据写进文件的 key/value metadata
type ParquetExporter struct{}

func (ParquetExporter) Export(doc *Document, w io.Writer) error {
	switch p := doc.Data.(type) {
	case *OrganizePayload:
		return writeParquet(w, doc.Metadata, p.FileRecords)
	case *DuplicatesPayload:
		return writeParquet(w, doc.Metadata, p.FileRecords)
	default:
		return errors.Serialization(nil, "unsupported payload for Parquet export: %T", doc.Data)
	}
}

func writeParquet[T any](w io.Writer, meta Metadata, records []T) error {
	pw := parquet.NewGenericWriter[T](w,
		parquet.KeyValueMetadata("command", meta.Command),
		parquet.KeyValueMetadata("run_id", meta.RunID),
		parquet.KeyValueMetadata("version", meta.Version),
		parquet.KeyValueMetadata("source_directory", meta.SourceDirectory),
	)
	if _, err := pw.Write(records); err != nil {
		return errors.Serialization(err, "failed to write parquet rows")
	}
	if err := pw.Close(); err != nil {
		return errors.Serialization(err, "failed to close parquet writer")
	}
	return nil
}
