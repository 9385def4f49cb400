package importer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

// Result is the outcome of dispatching one sheet.
type Result struct {
	TotalRows  int
	Questions  []*models.Question
	RowNumbers []int // sheet row of each question
	Skipped    []models.ImportValidationError
}

// Dispatcher routes rows to the builder named by their type tag.
type Dispatcher struct {
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger}
}

// Dispatch builds questions row by row. Rows lacking a type, name or text,
// rows with an unknown type and rows a builder rejects are skipped; the
// surviving questions keep row order.
func (d *Dispatcher) Dispatch(ctx context.Context, rows []Row, n *Normalizer) *Result {
	result := &Result{TotalRows: len(rows)}

	for _, row := range rows {
		q, err := d.buildRow(ctx, row, n)
		if err != nil {
			var skip *SkipError
			if !errors.As(err, &skip) {
				skip = &SkipError{Row: row.Number, Column: ColumnName(ColType), Reason: "build failed", Err: err}
			}
			d.logger.Debug("Skipping row",
				"row", skip.Row,
				"column", skip.Column,
				"reason", skip.Reason)
			result.Skipped = append(result.Skipped, skip.ValidationError())
			continue
		}
		result.Questions = append(result.Questions, q)
		result.RowNumbers = append(result.RowNumbers, row.Number)
	}

	return result
}

func (d *Dispatcher) buildRow(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	for _, col := range []int{ColType, ColName, ColText} {
		if row.Cell(col) == "" {
			return nil, skipRow(row, col, "required cell is empty", nil)
		}
	}

	qtype, ok := models.ParseQuestionType(row.Cell(ColType))
	if !ok {
		return nil, skipRow(row, ColType, "unsupported question type", nil)
	}
	builder := BuilderFor(qtype)
	if builder == nil {
		return nil, skipRow(row, ColType, "unsupported question type", nil)
	}

	q, err := builder.Build(ctx, row, n)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, skipRow(row, ColType, "builder produced no question", nil)
	}
	return q, nil
}
