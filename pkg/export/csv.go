package export

import (
	"fmt"
	"io"

	"github.com/moyu-x/image-manager/internal/errors"
)

const (
	organizeCSVHeader   = "Original Path,Target Path,Date Directory,File Name,File Size (bytes),File Extension"
	duplicatesCSVHeader = "Group ID,File Path,Position in Group,Group Size,Similarity,File Size (bytes),File Extension"
)

// CSVExporter 每条记录一行。字符串字段统一加双引号，数字不加，
// 相似度保留 4 位小数。encoding/csv 只在需要时才加引号，所以这里手写。
type CSVExporter struct{}

func (CSVExporter) Export(doc *Document, w io.Writer) error {
	switch p := doc.Data.(type) {
	case *OrganizePayload:
		return writeOrganizeCSV(w, p.FileRecords)
	case *DuplicatesPayload:
		return writeDuplicatesCSV(w, p.FileRecords)
	default:
		return errors.Serialization(nil, "unsupported payload for CSV export: %T", doc.Data)
	}
}

func writeOrganizeCSV(w io.Writer, records []OrganizeRecord) error {
	if _, err := fmt.Fprintln(w, organizeCSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%s,%s,%s,%s,%d,%s\n",
			quote(r.OriginalPath), quote(r.TargetPath), quote(r.DateDirectory), quote(r.FileName),
			r.FileSizeBytes, quote(r.FileExtension)); err != nil {
			return err
		}
	}
	return nil
}

func writeDuplicatesCSV(w io.Writer, records []DuplicateRecord) error {
	if _, err := fmt.Fprintln(w, duplicatesCSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(w, "%s,%s,%d,%d,%.4f,%d,%s\n",
			quote(r.GroupID), quote(r.FilePath), r.PositionInGroup, r.GroupSize,
			r.Similarity, r.FileSizeBytes, quote(r.FileExtension)); err != nil {
			return err
		}
	}
	return nil
}

// quote 只在两端加双引号，内容原样保留
func quote(s string) string {
	return `"` + s + `"`
}
