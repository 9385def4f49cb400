package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestOpenReader_ExtractsZip(t *testing.T) {
	work := t.TempDir()
	data := zipBytes(t, map[string]string{
		"questions.xlsx":    "sheet",
		"images/map.png":    "png",
		"nested/other.xlsx": "nested sheet",
		"._questions.xlsx":  "resource fork",
		"notes/readme.txt":  "txt",
	})

	b, err := OpenReader(work, bytes.NewReader(data), "bundle.zip", Limits{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, filepath.Join(b.Dir, "questions.xlsx"), b.SheetPath)
	assert.True(t, strings.HasPrefix(b.Dir, work))
	content, err := os.ReadFile(filepath.Join(b.Dir, "images", "map.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(content))

	require.NoError(t, b.Close())
	_, err = os.Stat(b.Dir)
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenReader_BareSheet(t *testing.T) {
	b, err := OpenReader(t.TempDir(), strings.NewReader("sheet"), "Questions.XLSX", Limits{})
	require.NoError(t, err)
	defer b.Close()

	content, err := os.ReadFile(b.SheetPath)
	require.NoError(t, err)
	assert.Equal(t, "sheet", string(content))
}

func TestOpenReader_Errors(t *testing.T) {
	work := t.TempDir()

	_, err := OpenReader(work, strings.NewReader("x"), "notes.txt", Limits{})
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = OpenReader(work, strings.NewReader("not a zip"), "bundle.zip", Limits{})
	assert.True(t, errors.Is(err, ErrArchiveUnreadable))

	_, err = OpenReader(work, bytes.NewReader(zipBytes(t, map[string]string{"readme.txt": "x"})), "bundle.zip", Limits{})
	assert.True(t, errors.Is(err, ErrNoSheetFile))

	_, err = OpenReader(work, bytes.NewReader(zipBytes(t, map[string]string{"../evil.xlsx": "x"})), "bundle.zip", Limits{})
	assert.True(t, errors.Is(err, ErrArchiveUnreadable))

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed opens must clean up their temp dirs")
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(t.TempDir(), filepath.Join(t.TempDir(), "missing.zip"), Limits{})
	assert.True(t, errors.Is(err, ErrInputMissing))
}

func TestOpenReader_EntriesNamedLikeTheUpload(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"questions.xlsx": "sheet",
		"upload.zip":     "inner archive",
		".upload.zip":    "hidden inner archive",
	})

	b, err := OpenReader(t.TempDir(), bytes.NewReader(data), "upload.zip", Limits{})
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, filepath.Join(b.Dir, "questions.xlsx"), b.SheetPath)
	for name, want := range map[string]string{"upload.zip": "inner archive", ".upload.zip": "hidden inner archive"} {
		content, err := os.ReadFile(filepath.Join(b.Dir, name))
		require.NoError(t, err)
		assert.Equal(t, want, string(content))
	}

	_, err = OpenReader(t.TempDir(), bytes.NewReader(zipBytes(t, map[string]string{
		"questions.xlsx": "sheet",
		"../upload.zip":  "overwrite",
	})), "bundle.zip", Limits{})
	assert.True(t, errors.Is(err, ErrArchiveUnreadable))
}

func TestOpenReader_UnpackedSizeLimit(t *testing.T) {
	work := t.TempDir()
	data := zipBytes(t, map[string]string{
		"questions.xlsx": "sheet",
		"images/big.bmp": strings.Repeat("\x00", 1<<20),
	})
	require.Less(t, len(data), 64<<10, "fixture must compress well")

	_, err := OpenReader(work, bytes.NewReader(data), "bundle.zip", Limits{MaxUnpackedBytes: 64 << 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBundleTooLarge), "got %v", err)

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	assert.Empty(t, entries)

	b, err := OpenReader(work, bytes.NewReader(data), "bundle.zip", Limits{MaxUnpackedBytes: 2 << 20})
	require.NoError(t, err)
	require.NoError(t, b.Close())
}

func TestOpenReader_EntryCountLimit(t *testing.T) {
	files := map[string]string{"questions.xlsx": "sheet"}
	for i := 0; i < 10; i++ {
		files[fmt.Sprintf("images/%d.png", i)] = "png"
	}
	data := zipBytes(t, files)

	_, err := OpenReader(t.TempDir(), bytes.NewReader(data), "bundle.zip", Limits{MaxEntries: 5})
	assert.True(t, errors.Is(err, ErrBundleTooLarge), "got %v", err)

	b, err := OpenReader(t.TempDir(), bytes.NewReader(data), "bundle.zip", Limits{MaxEntries: 11})
	require.NoError(t, err)
	require.NoError(t, b.Close())
}
