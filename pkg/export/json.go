package export

import (
	"encoding/json"
	"io"

	"github.com/moyu-x/image-manager/internal/errors"
)

// JSONExporter 输出带缩进的完整 Document
type JSONExporter struct {
	Indent string
}

func (e JSONExporter) Export(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	if e.Indent != "" {
		enc.SetIndent("", e.Indent)
	}
	if err := enc.Encode(doc); err != nil {
		return errors.Serialization(err, "failed to encode JSON")
	}
	return nil
}
