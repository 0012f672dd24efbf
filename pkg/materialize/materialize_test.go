package materialize

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyu-x/image-manager/internal"
	"github.com/moyu-x/image-manager/internal/errors"
)

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644))
}

func TestParseDateKey(t *testing.T) {
	tests := []struct {
		key              string
		year, month, day string
		ok               bool
	}{
		{"2023-05-01", "2023", "05", "01", true},
		{"2023/05/01", "2023", "05", "01", true},
		{"2023-05/01", "2023", "05", "01", true},
		{"2023-05", "", "", "", false},
		{"2023-05-01-02", "", "", "", false},
		{"unknown", "", "", "", false},
		{"2023--01", "2023", "", "01", true},
		{"", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			y, m, d, ok := ParseDateKey(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.year, y)
			assert.Equal(t, tt.month, m)
			assert.Equal(t, tt.day, d)
		})
	}
}

func TestCreateUnique_Sequence(t *testing.T) {
	fs := afero.NewMemMapFs()
	base := "/target/2023/05/01/photo.jpg"
	writeFile(t, fs, base, "existing")

	f1, p1, err := CreateUnique(fs, base)
	require.NoError(t, err)
	f1.Close()
	assert.Equal(t, "/target/2023/05/01/photo_1.jpg", p1)

	f2, p2, err := CreateUnique(fs, base)
	require.NoError(t, err)
	f2.Close()
	assert.Equal(t, "/target/2023/05/01/photo_2.jpg", p2)

	content, err := afero.ReadFile(fs, base)
	require.NoError(t, err)
	assert.Equal(t, "existing", string(content), "existing file must not be overwritten")
}

func TestCreateUnique_NoConflict(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/target", 0755))

	f, p, err := CreateUnique(fs, "/target/a.png")
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, "/target/a.png", p)
}

func TestCreateUnique_HiddenFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/target/.hidden", "x")

	f, p, err := CreateUnique(fs, "/target/.hidden")
	require.NoError(t, err)
	f.Close()
	assert.Equal(t, "/target/.hidden_1", p)
}

func TestCreateUnique_Exhausted(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/target/a.jpg", "x")
	for i := 1; i <= internal.MaxFilenameAttempts; i++ {
		writeFile(t, fs, fmt.Sprintf("/target/a_%d.jpg", i), "x")
	}

	_, _, err := CreateUnique(fs, "/target/a.jpg")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindResourceExhausted))
}

func TestCopyToTarget(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/a.jpg", "aaa")
	writeFile(t, fs, "/src/b.jpg", "bbb")
	writeFile(t, fs, "/src/sub/a.jpg", "second a")
	writeFile(t, fs, "/src/c.png", "ccc")

	buckets := internal.DateBuckets{
		"2023-05-01": {"/src/a.jpg", "/src/b.jpg", "/src/sub/a.jpg"},
		"2024/01/15": {"/src/c.png"},
	}

	copier := NewCopier(fs)
	result, err := copier.CopyToTarget(buckets, "/target")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 4, result.Total())

	assert.Equal(t, []string{
		"/target/2023/05/01/a.jpg",
		"/target/2023/05/01/b.jpg",
		"/target/2023/05/01/a_1.jpg",
	}, result.Copied["2023-05-01"])
	assert.Equal(t, []string{"/target/2024/01/15/c.png"}, result.Copied["2024/01/15"])

	content, err := afero.ReadFile(fs, "/target/2023/05/01/a_1.jpg")
	require.NoError(t, err)
	assert.Equal(t, "second a", string(content))
}

func TestCopyToTarget_NeverOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/a.jpg", "new")
	writeFile(t, fs, "/target/2023/05/01/a.jpg", "old")

	result, err := NewCopier(fs).CopyToTarget(internal.DateBuckets{"2023-05-01": {"/src/a.jpg"}}, "/target")
	require.NoError(t, err)

	require.Len(t, result.Copied["2023-05-01"], 1)
	written := result.Copied["2023-05-01"][0]
	assert.NotEqual(t, "/target/2023/05/01/a.jpg", written)

	old, err := afero.ReadFile(fs, "/target/2023/05/01/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))
}

func TestCopyToTarget_BestEffort(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/ok.jpg", "ok")

	buckets := internal.DateBuckets{
		"2023-05-01": {"/src/missing.jpg", "/src/ok.jpg"},
		"unknown":    {"/src/ok.jpg"},
	}

	result, err := NewCopier(fs).CopyToTarget(buckets, "/target")
	require.NoError(t, err)

	assert.Equal(t, []string{"/target/2023/05/01/ok.jpg"}, result.Copied["2023-05-01"])
	skipped, ok := result.Copied["unknown"]
	assert.True(t, ok, "malformed date bucket is still listed")
	assert.Empty(t, skipped, "malformed date bucket must not copy anything")
	assert.Len(t, result.Errors, 2)
	for _, e := range result.Errors {
		assert.True(t, errors.IsKind(e, errors.KindProcessing), "unexpected error kind: %v", e)
	}
}

func TestCopyToTarget_NamesExhaustedForOneFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/a.jpg", "a")
	writeFile(t, fs, "/src/b.jpg", "b")
	writeFile(t, fs, "/target/2023/05/01/a.jpg", "x")
	for i := 1; i <= internal.MaxFilenameAttempts; i++ {
		writeFile(t, fs, fmt.Sprintf("/target/2023/05/01/a_%d.jpg", i), "x")
	}

	buckets := internal.DateBuckets{"2023-05-01": {"/src/a.jpg", "/src/b.jpg"}}
	result, err := NewCopier(fs).CopyToTarget(buckets, "/target")
	require.NoError(t, err)

	assert.Equal(t, []string{"/target/2023/05/01/b.jpg"}, result.Copied["2023-05-01"])
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.IsKind(result.Errors[0], errors.KindResourceExhausted))

	content, err := afero.ReadFile(fs, "/target/2023/05/01/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "b", string(content))
}

func TestCopyToTarget_EmptySegmentDate(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/src/a.jpg", "a")

	result, err := NewCopier(fs).CopyToTarget(internal.DateBuckets{"2023--01": {"/src/a.jpg"}}, "/target")
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"/target/2023/01/a.jpg"}, result.Copied["2023--01"])
}

func TestCopyToTarget_Empty(t *testing.T) {
	fs := afero.NewMemMapFs()

	result, err := NewCopier(fs).CopyToTarget(internal.DateBuckets{}, "/target")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total())

	exists, err := afero.DirExists(fs, "/target")
	require.NoError(t, err)
	assert.False(t, exists, "nothing to copy should not create the target")
}

func TestCopyToTarget_OsFs(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "src")
	target := filepath.Join(tempDir, "target")
	require.NoError(t, os.MkdirAll(src, 0755))
	file := filepath.Join(src, "img.jpg")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0600))

	result, err := NewCopier(afero.NewOsFs()).CopyToTarget(internal.DateBuckets{"2022-12-31": {file}}, target)
	require.NoError(t, err)
	require.Len(t, result.Copied["2022-12-31"], 1)

	dst := filepath.Join(target, "2022", "12", "31", "img.jpg")
	assert.Equal(t, dst, result.Copied["2022-12-31"][0])

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
