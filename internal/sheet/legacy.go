package sheet

import (
	"fmt"
	"io"

	"github.com/extrame/xls"
)

// legacyCharset only applies to BIFF5 workbooks; BIFF8 strings carry their
// own encoding.
const legacyCharset = "utf-8"

// readLegacy reads sheet 0 of a binary .xls workbook into the same grid
// excelize produces. The decoder panics on some malformed records; those
// panics surface as ErrCorruptWorkbook.
func readLegacy(r io.ReadSeeker) (rows [][]string, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("%w: %v", ErrCorruptWorkbook, p)
		}
	}()

	wb, err := xls.OpenReader(r, legacyCharset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptWorkbook, err)
	}
	if wb == nil {
		return nil, fmt.Errorf("%w: no workbook stream", ErrCorruptWorkbook)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrNoSheets
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, ErrNoSheets
	}

	rows = make([][]string, 0, int(ws.MaxRow)+1)
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for c := row.FirstCol(); c < row.LastCol(); c++ {
			cells[c] = row.Col(c)
		}
		rows = append(rows, trimCells(cells))
	}

	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

func trimCells(cells []string) []string {
	end := len(cells)
	for end > 0 && cells[end-1] == "" {
		end--
	}
	if end == 0 {
		return nil
	}
	return cells[:end]
}
