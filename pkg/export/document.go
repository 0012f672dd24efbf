package export

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/pkg/logger"
)

// Document 导出文件的完整内容：元数据 + 按命令区分的记录
type Document struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Data     Payload  `json:"data" yaml:"data"`
}

type Metadata struct {
	Timestamp       time.Time      `json:"timestamp" yaml:"timestamp"`
	RunID           string         `json:"run_id" yaml:"run_id"`
	Command         string         `json:"command" yaml:"command"`
	Version         string         `json:"version" yaml:"version"`
	SourceDirectory string         `json:"source_directory" yaml:"source_directory"`
	TotalProcessed  int            `json:"total_processed" yaml:"total_processed"`
	CommandMetadata map[string]any `json:"command_metadata" yaml:"command_metadata"`
}

type PayloadKind string

const (
	KindOrganize   PayloadKind = "Organize"
	KindDuplicates PayloadKind = "Duplicates"
)

// Payload 是 OrganizePayload 或 DuplicatesPayload
type Payload interface {
	Kind() PayloadKind
	RecordCount() int
}

type OrganizeRecord struct {
	OriginalPath  string `json:"original_path" yaml:"original_path" parquet:"original_path"`
	TargetPath    string `json:"target_path" yaml:"target_path" parquet:"target_path"`
	DateDirectory string `json:"date_directory" yaml:"date_directory" parquet:"date_directory"`
	FileName      string `json:"file_name" yaml:"file_name" parquet:"file_name"`
	FileSizeBytes int64  `json:"file_size_bytes" yaml:"file_size_bytes" parquet:"file_size_bytes"`
	FileExtension string `json:"file_extension" yaml:"file_extension" parquet:"file_extension"`
}

type DuplicateRecord struct {
	FilePath        string  `json:"file_path" yaml:"file_path" parquet:"file_path"`
	GroupID         string  `json:"group_id" yaml:"group_id" parquet:"group_id"`
	PositionInGroup int     `json:"position_in_group" yaml:"position_in_group" parquet:"position_in_group"`
	GroupSize       int     `json:"group_size" yaml:"group_size" parquet:"group_size"`
	Similarity      float64 `json:"similarity" yaml:"similarity" parquet:"similarity"`
	FileSizeBytes   int64   `json:"file_size_bytes" yaml:"file_size_bytes" parquet:"file_size_bytes"`
	FileExtension   string  `json:"file_extension" yaml:"file_extension" parquet:"file_extension"`
}

type TargetConfig struct {
	BasePath *string `json:"base_path" yaml:"base_path"`
}

type OrganizePayload struct {
	FileRecords  []OrganizeRecord `json:"file_records" yaml:"file_records"`
	TargetConfig TargetConfig     `json:"target_config" yaml:"target_config"`
}

func (p *OrganizePayload) Kind() PayloadKind { return KindOrganize }
func (p *OrganizePayload) RecordCount() int  { return len(p.FileRecords) }

func (p *OrganizePayload) MarshalJSON() ([]byte, error) {
	type alias OrganizePayload
	return json.Marshal(struct {
		Type PayloadKind `json:"type"`
		alias
	}{KindOrganize, alias(*p)})
}

func (p *OrganizePayload) MarshalYAML() (any, error) {
	type alias OrganizePayload
	return struct {
		Type  PayloadKind `yaml:"type"`
		alias `yaml:",inline"`
	}{KindOrganize, alias(*p)}, nil
}

type DuplicatesPayload struct {
	FileRecords         []DuplicateRecord `json:"file_records" yaml:"file_records"`
	SimilarityThreshold float64           `json:"similarity_threshold" yaml:"similarity_threshold"`
}

func (p *DuplicatesPayload) Kind() PayloadKind { return KindDuplicates }
func (p *DuplicatesPayload) RecordCount() int  { return len(p.FileRecords) }

func (p *DuplicatesPayload) MarshalJSON() ([]byte, error) {
	type alias DuplicatesPayload
	return json.Marshal(struct {
		Type PayloadKind `json:"type"`
		alias
	}{KindDuplicates, alias(*p)})
}

func (p *DuplicatesPayload) MarshalYAML() (any, error) {
	type alias DuplicatesPayload
	return struct {
		Type  PayloadKind `yaml:"type"`
		alias `yaml:",inline"`
	}{KindDuplicates, alias(*p)}, nil
}

// UnmarshalJSON 按 data.type 还原具体的 Payload
func (d *Document) UnmarshalJSON(b []byte) error {
	var raw struct {
		Metadata Metadata        `json:"metadata"`
		Data     json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var tag struct {
		Type PayloadKind `json:"type"`
	}
	if err := json.Unmarshal(raw.Data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case KindOrganize:
		var p OrganizePayload
		if err := json.Unmarshal(raw.Data, &p); err != nil {
			return err
		}
		d.Data = &p
	case KindDuplicates:
		var p DuplicatesPayload
		if err := json.Unmarshal(raw.Data, &p); err != nil {
			return err
		}
		d.Data = &p
	default:
		return fmt.Errorf("unknown payload type %q", tag.Type)
	}

	d.Metadata = raw.Metadata
	return nil
}

// Builder 把结果集合展开成 Document
type Builder struct {
	Fs      afero.Fs
	Now     func() time.Time
	Version string
}

func NewBuilder() *Builder {
	return &Builder{
		Fs:      afero.NewOsFs(),
		Now:     time.Now,
		Version: internal.Version,
	}
}

func (b *Builder) metadata(command, source string, total int) Metadata {
	return Metadata{
		Timestamp:       b.Now().UTC(),
		RunID:           uuid.NewString(),
		Command:         command,
		Version:         b.Version,
		SourceDirectory: source,
		TotalProcessed:  total,
		CommandMetadata: map[string]any{},
	}
}

func (b *Builder) fileSize(path string) int64 {
	info, err := b.Fs.Stat(path)
	if err != nil {
		logger.Get().Debug().Err(err).Msgf("读取文件大小失败: %s", path)
		return 0
	}
	return info.Size()
}

// dirName 返回目录名，无法得到有效名称时返回 "untitled"
func dirName(path string) string {
	name := filepath.Base(filepath.Clean(path))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "untitled"
	}
	return name
}

func fileName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "unknown"
	}
	return name
}

func fileExtension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}

// TargetPath 导出用的目标路径 {目标目录名或源目录名}/{日期}/{文件名}，
// 只用于展示，与实际复制的位置无关
func TargetPath(source, target, date, name string) string {
	base := dirName(source)
	if target != "" {
		base = dirName(target)
	}
	return fmt.Sprintf("%s/%s/%s", base, date, name)
}

// Organize 展开 organize 的结果。日期按字典序，每个日期内保持原顺序。
func (b *Builder) Organize(buckets internal.DateBuckets, source, target string) *Document {
	records := make([]OrganizeRecord, 0, buckets.Total())

	for _, date := range buckets.Keys() {
		for _, file := range buckets[date] {
			name := fileName(file)
			records = append(records, OrganizeRecord{
				OriginalPath:  file,
				TargetPath:    TargetPath(source, target, date, name),
				DateDirectory: date,
				FileName:      name,
				FileSizeBytes: b.fileSize(file),
				FileExtension: fileExtension(file),
			})
		}
	}

	meta := b.metadata("organize", source, len(records))
	payload := &OrganizePayload{FileRecords: records}
	if target != "" {
		t := target
		payload.TargetConfig.BasePath = &t
		meta.CommandMetadata["target_path"] = target
	}

	return &Document{Metadata: meta, Data: payload}
}

// Duplicates 展开重复组，group_id 为 group_1、group_2 ...，组内位置从 1 开始
func (b *Builder) Duplicates(groups internal.DuplicateGroups, threshold float64, mode internal.DuplicateMode, source string) *Document {
	records := make([]DuplicateRecord, 0, groups.Total())

	for i, group := range groups {
		groupID := fmt.Sprintf("group_%d", i+1)
		for pos, file := range group.Files {
			records = append(records, DuplicateRecord{
				FilePath:        file,
				GroupID:         groupID,
				PositionInGroup: pos + 1,
				GroupSize:       len(group.Files),
				Similarity:      group.Similarity,
				FileSizeBytes:   b.fileSize(file),
				FileExtension:   fileExtension(file),
			})
		}
	}

	meta := b.metadata("duplicates", source, len(records))
	meta.CommandMetadata["similarity_threshold"] = threshold
	meta.CommandMetadata["duplicate_groups_count"] = len(groups)
	if mode != "" {
		meta.CommandMetadata["mode"] = string(mode)
	}

	return &Document{
		Metadata: meta,
		Data: &DuplicatesPayload{
			FileRecords:         records,
			SimilarityThreshold: threshold,
		},
	}
}

// NewOrganizeDocument 使用真实文件系统和当前时间构造 organize 导出
func NewOrganizeDocument(buckets internal.DateBuckets, source, target string) *Document {
	return NewBuilder().Organize(buckets, source, target)
}

// NewDuplicatesDocument 使用真实文件系统和当前时间构造 duplicates 导出
func NewDuplicatesDocument(groups internal.DuplicateGroups, threshold float64, mode internal.DuplicateMode, source string) *Document {
	return NewBuilder().Duplicates(groups, threshold, mode, source)
}
