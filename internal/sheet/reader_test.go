package sheet

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	// a second sheet must be ignored
	_, err := f.NewSheet("Ignored")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Ignored", "A1", "noise"))
	return f
}

func TestReadFile_FirstSheetOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.xlsx")
	f := writeWorkbook(t, [][]any{
		{"#", "QType", "QName", "QText", "Options", "Answer"},
		{1, "multichoice", "Q1", "Pick", "a|b", 2},
	})
	require.NoError(t, f.SaveAs(path))

	rows, err := ReadFile(path)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "multichoice", "Q1", "Pick", "a|b", "2"}, rows[1])
}

func TestRead_FromBuffer(t *testing.T) {
	f := writeWorkbook(t, [][]any{
		{"header"},
		{nil, "essay", "Q1", "Write"},
	})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	rows, err := Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"", "essay", "Q1", "Write"}, rows[1])
}

func TestReadFile_LegacyXLS(t *testing.T) {
	rows, err := ReadFile(filepath.Join("testdata", "questions.xls"))
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"#", "type", "name", "text", "options", "answer", "mark"},
		{"1", "multichoice", "Capital", "Where is Paris?", "Paris|Rome|Berlin", "1", "2"},
		nil,
		{"3", "truefalse", "Sky", "The sky is blue", "True|False", "1"},
	}, rows)
}

func TestReadFile_FormatFollowsContent(t *testing.T) {
	legacy, err := os.ReadFile(filepath.Join("testdata", "questions.xls"))
	require.NoError(t, err)
	renamed := filepath.Join(t.TempDir(), "questions.xlsx")
	require.NoError(t, os.WriteFile(renamed, legacy, 0o644))

	rows, err := ReadFile(renamed)
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	f := writeWorkbook(t, [][]any{{"header"}, {nil, "essay", "Q1", "Write"}})
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	modern := filepath.Join(t.TempDir(), "questions.xls")
	require.NoError(t, os.WriteFile(modern, buf.Bytes(), 0o644))

	rows, err = ReadFile(modern)
	require.NoError(t, err)
	assert.Equal(t, []string{"", "essay", "Q1", "Write"}, rows[1])
}

func TestReadFile_CorruptWorkbooks(t *testing.T) {
	dir := t.TempDir()
	truncated := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 8)...)
	cases := map[string][]byte{
		"truncated.xls": truncated,
		"garbage.xlsx":  []byte("not a workbook"),
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, content, 0o644))

		_, err := ReadFile(path)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrCorruptWorkbook), "%s: %v", name, err)
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}
