package importer

import (
	"errors"
	"fmt"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

// ErrSkip marks a row that produces no question. It is never an import failure.
var ErrSkip = errors.New("row skipped")

var (
	ErrKeyMissing    = errors.New("answer key has no option index")
	ErrKeyOutOfRange = errors.New("answer key references a missing option")
)

// SkipError explains why a row was skipped.
type SkipError struct {
	Row    int
	Column string
	Value  string
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("row %d skipped (%s): %s: %v", e.Row, e.Column, e.Reason, e.Err)
	}
	return fmt.Sprintf("row %d skipped (%s): %s", e.Row, e.Column, e.Reason)
}

func (e *SkipError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrSkip, e.Err}
	}
	return []error{ErrSkip}
}

// ValidationError converts the skip into the import report shape.
func (e *SkipError) ValidationError() models.ImportValidationError {
	return models.ImportValidationError{
		Row:     e.Row,
		Column:  e.Column,
		Message: e.Reason,
		Value:   e.Value,
		Code:    models.CodeRowSkipped,
	}
}

func skipRow(row Row, col int, reason string, cause error) *SkipError {
	return &SkipError{
		Row:    row.Number,
		Column: ColumnName(col),
		Value:  row.Cell(col),
		Reason: reason,
		Err:    cause,
	}
}
