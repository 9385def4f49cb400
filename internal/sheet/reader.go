package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

var (
	ErrNoSheets        = errors.New("workbook has no sheets")
	ErrCorruptWorkbook = errors.New("workbook is corrupt")
)

// oleSignature opens every OLE2 compound file, which is how binary .xls
// workbooks are stored.
var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ReadFile returns every row of the first sheet of the workbook at path.
// The header row is included; trailing empty cells are trimmed.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read is ReadFile for an open workbook. The format comes from the content,
// not the file name: binary .xls workbooks go to the BIFF decoder and
// everything else to excelize.
func Read(r io.ReadSeeker) ([][]string, error) {
	legacy, err := isLegacy(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	if legacy {
		return readLegacy(r)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptWorkbook, err)
	}
	defer f.Close()

	return readFirstSheet(f)
}

func isLegacy(r io.ReadSeeker) (bool, error) {
	head := make([]byte, len(oleSignature))
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return n == len(head) && bytes.Equal(head, oleSignature), nil
}

func readFirstSheet(f *excelize.File) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}
