package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/moyu-x/image-manager/internal/errors"
)

// YAMLExporter 与 JSON 的结构相同
type YAMLExporter struct{}

func (YAMLExporter) Export(doc *Document, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Serialization(err, "failed to encode YAML")
	}
	if err := enc.Close(); err != nil {
		return errors.Serialization(err, "failed to encode YAML")
	}
	return nil
}
