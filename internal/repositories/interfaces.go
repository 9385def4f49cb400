package repositories

import (
	"context"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

type QuestionFilters struct {
	JobID     string               `json:"job_id"`
	Type      *models.QuestionType `json:"type"`
	CreatedBy string               `json:"created_by"`
	Limit     int                  `json:"limit"`
	Offset    int                  `json:"offset"`
}

// QuestionRepository persists questions produced by an import job.
type QuestionRepository interface {
	// CreateBatch stores the questions of one job atomically, preserving
	// their order in Sequence.
	CreateBatch(ctx context.Context, jobID, ownerID, mediaScopeID string, questions []*models.Question) ([]*models.QuestionRecord, error)
	List(ctx context.Context, filters QuestionFilters) ([]*models.QuestionRecord, int64, error)
	DeleteByJob(ctx context.Context, jobID string) error
}
