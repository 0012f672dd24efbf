package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("12345"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/photos/b.png", []byte("1234567890"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/photos/sub/c.jpg", []byte("1"), 0644))

	return &Builder{
		Fs:      fs,
		Now:     func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
		Version: "test",
	}
}

func sampleBuckets() internal.DateBuckets {
	return internal.DateBuckets{
		"2024-01-15": {"/photos/b.png"},
		"2023-05-01": {"/photos/a.jpg", "/photos/sub/c.jpg"},
	}
}

func sampleGroups() internal.DuplicateGroups {
	return internal.DuplicateGroups{
		{Files: []string{"/photos/a.jpg", "/photos/sub/c.jpg"}, Similarity: 1.0},
		{Files: []string{"/photos/b.png", "/photos/missing.png", "/photos/a.jpg"}, Similarity: 0.93751},
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"csv":     FormatCSV,
		"CSV":     FormatCSV,
		"json":    FormatJSON,
		"yml":     FormatYAML,
		"yaml":    FormatYAML,
		"parquet": FormatParquet,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("xml")
	assert.True(t, errors.IsKind(err, errors.KindInvalidInput))
}

func TestBuilderOrganize(t *testing.T) {
	doc := testBuilder(t).Organize(sampleBuckets(), "/photos", "/sorted")

	assert.Equal(t, "organize", doc.Metadata.Command)
	assert.Equal(t, 3, doc.Metadata.TotalProcessed)
	assert.NotEmpty(t, doc.Metadata.RunID)
	assert.Equal(t, "/sorted", doc.Metadata.CommandMetadata["target_path"])

	p, ok := doc.Data.(*OrganizePayload)
	require.True(t, ok)
	require.Len(t, p.FileRecords, 3)
	require.NotNil(t, p.TargetConfig.BasePath)
	assert.Equal(t, "/sorted", *p.TargetConfig.BasePath)

	// 日期按字典序展开，日期内保持原顺序
	assert.Equal(t, "/photos/a.jpg", p.FileRecords[0].OriginalPath)
	assert.Equal(t, "/photos/sub/c.jpg", p.FileRecords[1].OriginalPath)
	assert.Equal(t, "/photos/b.png", p.FileRecords[2].OriginalPath)

	r := p.FileRecords[0]
	assert.Equal(t, "sorted/2023-05-01/a.jpg", r.TargetPath)
	assert.Equal(t, "2023-05-01", r.DateDirectory)
	assert.Equal(t, "a.jpg", r.FileName)
	assert.Equal(t, int64(5), r.FileSizeBytes)
	assert.Equal(t, "jpg", r.FileExtension)
}

func TestBuilderOrganize_NoTarget(t *testing.T) {
	doc := testBuilder(t).Organize(sampleBuckets(), "/photos", "")
	p := doc.Data.(*OrganizePayload)

	assert.Nil(t, p.TargetConfig.BasePath)
	assert.Equal(t, "photos/2024-01-15/b.png", p.FileRecords[2].TargetPath)
	_, has := doc.Metadata.CommandMetadata["target_path"]
	assert.False(t, has)
}

func TestTargetPath(t *testing.T) {
	assert.Equal(t, "untitled/2023-05-01/a.jpg", TargetPath("/", "", "2023-05-01", "a.jpg"))
	assert.Equal(t, "out/2023-05-01/a.jpg", TargetPath("/photos", "/tmp/out/", "2023-05-01", "a.jpg"))
}

func TestBuilderDuplicates(t *testing.T) {
	groups := sampleGroups()
	doc := testBuilder(t).Duplicates(groups, 0.9, internal.ModeSizeFiltered, "/photos")

	assert.Equal(t, "duplicates", doc.Metadata.Command)
	assert.Equal(t, groups.Total(), doc.Metadata.TotalProcessed)
	assert.Equal(t, 0.9, doc.Metadata.CommandMetadata["similarity_threshold"])
	assert.Equal(t, 2, doc.Metadata.CommandMetadata["duplicate_groups_count"])

	p, ok := doc.Data.(*DuplicatesPayload)
	require.True(t, ok)
	require.Len(t, p.FileRecords, 5)
	assert.Equal(t, 0.9, p.SimilarityThreshold)

	first := p.FileRecords[0]
	assert.Equal(t, "group_1", first.GroupID)
	assert.Equal(t, 1, first.PositionInGroup)
	assert.Equal(t, 2, first.GroupSize)
	assert.Equal(t, 1.0, first.Similarity)

	last := p.FileRecords[4]
	assert.Equal(t, "group_2", last.GroupID)
	assert.Equal(t, 3, last.PositionInGroup)
	assert.Equal(t, 3, last.GroupSize)

	// 无法读取的文件大小记为 0
	assert.Equal(t, int64(0), p.FileRecords[3].FileSizeBytes)
	assert.Equal(t, "png", p.FileRecords[3].FileExtension)
}

func TestCSVExport_Organize(t *testing.T) {
	doc := testBuilder(t).Organize(sampleBuckets(), "/photos", "/sorted")

	var buf bytes.Buffer
	require.NoError(t, CSVExporter{}.Export(doc, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, organizeCSVHeader, lines[0])
	assert.Equal(t, `"/photos/a.jpg","sorted/2023-05-01/a.jpg","2023-05-01","a.jpg",5,"jpg"`, lines[1])
}

func TestCSVExport_Duplicates(t *testing.T) {
	doc := testBuilder(t).Duplicates(sampleGroups(), 0.9, internal.ModeComplete, "/photos")

	var buf bytes.Buffer
	require.NoError(t, CSVExporter{}.Export(doc, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, duplicatesCSVHeader, lines[0])
	assert.Equal(t, `"group_1","/photos/a.jpg",1,2,1.0000,5,"jpg"`, lines[1])
	assert.Equal(t, `"group_2","/photos/b.png",1,3,0.9375,10,"png"`, lines[3])
}

func TestCSVQuote(t *testing.T) {
	assert.Equal(t, `"a "b", c"`, quote(`a "b", c`))
	assert.Equal(t, `""`, quote(""))
}

func TestCSVExport_PathWithQuote(t *testing.T) {
	doc := testBuilder(t).Duplicates(internal.DuplicateGroups{
		{Files: []string{`/p/a"b.jpg`, "/p/c.jpg"}, Similarity: 1},
	}, 0.9, internal.ModeComplete, "/p")

	var buf bytes.Buffer
	require.NoError(t, CSVExporter{}.Export(doc, &buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"group_1","/p/a"b.jpg",1,2,1.0000,0,"jpg"`, lines[1])
}

func TestJSONExport_RoundTrip(t *testing.T) {
	doc := testBuilder(t).Duplicates(sampleGroups(), 0.85, internal.ModeSizeFiltered, "/photos")

	var buf bytes.Buffer
	require.NoError(t, JSONExporter{Indent: "  "}.Export(doc, &buf))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	data := raw["data"].(map[string]any)
	assert.Equal(t, "Duplicates", data["type"])
	assert.Equal(t, 0.85, data["similarity_threshold"])

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, doc.Metadata.RunID, decoded.Metadata.RunID)
	assert.Equal(t, doc.Data, decoded.Data)
}

func TestJSONExport_OrganizeNullTarget(t *testing.T) {
	doc := testBuilder(t).Organize(sampleBuckets(), "/photos", "")

	var buf bytes.Buffer
	require.NoError(t, JSONExporter{}.Export(doc, &buf))
	assert.Contains(t, buf.String(), `"type":"Organize"`)
	assert.Contains(t, buf.String(), `"target_config":{"base_path":null}`)

	var decoded Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, KindOrganize, decoded.Data.Kind())
	assert.Equal(t, 3, decoded.Data.RecordCount())
}

func TestYAMLExport(t *testing.T) {
	doc := testBuilder(t).Organize(sampleBuckets(), "/photos", "/sorted")

	var buf bytes.Buffer
	require.NoError(t, YAMLExporter{}.Export(doc, &buf))

	var raw struct {
		Metadata struct {
			Command        string `yaml:"command"`
			TotalProcessed int    `yaml:"total_processed"`
		} `yaml:"metadata"`
		Data struct {
			Type        string           `yaml:"type"`
			FileRecords []OrganizeRecord `yaml:"file_records"`
		} `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "organize", raw.Metadata.Command)
	assert.Equal(t, 3, raw.Metadata.TotalProcessed)
	assert.Equal(t, "Organize", raw.Data.Type)
	assert.Len(t, raw.Data.FileRecords, 3)
}

func TestParquetExport(t *testing.T) {
	doc := testBuilder(t).Duplicates(sampleGroups(), 0.9, internal.ModeSizeFiltered, "/photos")

	var buf bytes.Buffer
	require.NoError(t, ParquetExporter{}.Export(doc, &buf))

	pf, err := parquet.OpenFile(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, int64(5), pf.NumRows())

	reader := parquet.NewGenericReader[DuplicateRecord](pf)
	defer reader.Close()

	rows := make([]DuplicateRecord, 10)
	n, _ := reader.Read(rows)
	require.Equal(t, 5, n)
	assert.Equal(t, "group_1", rows[0].GroupID)
	assert.Equal(t, "/photos/a.jpg", rows[0].FilePath)

	value, ok := pf.Lookup("command")
	assert.True(t, ok)
	assert.Equal(t, "duplicates", value)
}

func TestExport_RecordCountsMatchAcrossFormats(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := testBuilder(t).Duplicates(sampleGroups(), 0.9, internal.ModeSizeFiltered, "/photos")

	require.NoError(t, Export(fs, doc, "/out/report.csv", FormatCSV))
	require.NoError(t, Export(fs, doc, "/out/report.json", FormatJSON))

	csvData, err := afero.ReadFile(fs, "/out/report.csv")
	require.NoError(t, err)
	csvRows := len(strings.Split(strings.TrimRight(string(csvData), "\n"), "\n")) - 1

	jsonData, err := afero.ReadFile(fs, "/out/report.json")
	require.NoError(t, err)
	var decoded Document
	require.NoError(t, json.Unmarshal(jsonData, &decoded))

	assert.Equal(t, decoded.Data.RecordCount(), csvRows)
	assert.Equal(t, sampleGroups().Total(), csvRows)
}

func TestExport_CreateFails(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	doc := testBuilder(t).Organize(sampleBuckets(), "/photos", "")

	err := Export(fs, doc, "/out/report.csv", FormatCSV)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindIO))
}

func TestNewDocuments_UseRealFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "photo.jpeg")
	require.NoError(t, os.WriteFile(file, []byte("abc"), 0644))

	doc := NewOrganizeDocument(internal.DateBuckets{"2023-05-01": {file}}, dir, "")
	p := doc.Data.(*OrganizePayload)
	require.Len(t, p.FileRecords, 1)
	assert.Equal(t, int64(3), p.FileRecords[0].FileSizeBytes)
	assert.Equal(t, "jpeg", p.FileRecords[0].FileExtension)
	assert.Equal(t, internal.Version, doc.Metadata.Version)

	dups := NewDuplicatesDocument(internal.DuplicateGroups{{Files: []string{file, file}, Similarity: 1}}, 0.95, internal.ModeComplete, dir)
	assert.Equal(t, 2, dups.Data.RecordCount())
	assert.Equal(t, "complete", dups.Metadata.CommandMetadata["mode"])
	assert.NotEqual(t, doc.Metadata.RunID, dups.Metadata.RunID)
}
