package importer

import "strings"

// Positional column contract shared by every question type.
const (
	ColUnused = iota
	ColType
	ColName
	ColText
	ColOptions
	ColKey
	ColDefaultMark
	ColTagPrimary
	ColTagSecondary
)

var columnNames = map[int]string{
	ColUnused:       "unused",
	ColType:         "type",
	ColName:         "name",
	ColText:         "text",
	ColOptions:      "options",
	ColKey:          "answer_key",
	ColDefaultMark:  "default_mark",
	ColTagPrimary:   "tag_primary",
	ColTagSecondary: "tag_secondary",
}

// ColumnName returns the diagnostic name of a positional column.
func ColumnName(col int) string {
	if name, ok := columnNames[col]; ok {
		return name
	}
	return "column"
}

// Row is one decoded data row. Number is the 1-based sheet row number.
type Row struct {
	Number int
	Cells  []string
}

// Cell returns the raw value at col, or "" when the row is shorter.
func (r Row) Cell(col int) string {
	if col < 0 || col >= len(r.Cells) {
		return ""
	}
	return r.Cells[col]
}

// Tags returns the two tag cells verbatim.
func (r Row) Tags() [2]string {
	return [2]string{r.Cell(ColTagPrimary), r.Cell(ColTagSecondary)}
}

// splitOptions splits a "|" delimited options blob.
func (r Row) splitOptions() []string {
	return strings.Split(r.Cell(ColOptions), "|")
}

// RowsFromGrid drops the header row and numbers the remaining rows by their
// sheet position (the first data row is row 2).
func RowsFromGrid(grid [][]string) []Row {
	if len(grid) < 2 {
		return nil
	}
	rows := make([]Row, 0, len(grid)-1)
	for i := 1; i < len(grid); i++ {
		rows = append(rows, Row{Number: i + 1, Cells: grid[i]})
	}
	return rows
}
