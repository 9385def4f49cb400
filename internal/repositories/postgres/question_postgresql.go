package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/question-import-service/internal/models"
	"github.com/SAP-F-2025/question-import-service/internal/repositories"
)

const defaultListLimit = 100

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

// Migrate creates or updates the imported questions table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.QuestionRecord{}); err != nil {
		return fmt.Errorf("failed to migrate imported questions: %w", err)
	}
	return nil
}

// CreateBatch inserts every question of a job in one transaction
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, jobID, ownerID, mediaScopeID string, questions []*models.Question) ([]*models.QuestionRecord, error) {
	if len(questions) == 0 {
		return nil, nil
	}

	records := make([]*models.QuestionRecord, 0, len(questions))
	for i, question := range questions {
		record, err := repositories.ToRecord(question, jobID, ownerID, mediaScopeID, i+1)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	err := q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(records, 100).Error; err != nil {
			return fmt.Errorf("failed to create imported questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// List returns stored questions matching filters, in import order
func (q *QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.QuestionRecord, int64, error) {
	query := q.db.WithContext(ctx).Model(&models.QuestionRecord{})
	if filters.JobID != "" {
		query = query.Where("job_id = ?", filters.JobID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.CreatedBy != "" {
		query = query.Where("created_by = ?", filters.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count imported questions: %w", err)
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var records []*models.QuestionRecord
	err := query.Order("job_id, sequence").
		Limit(limit).
		Offset(filters.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list imported questions: %w", err)
	}
	return records, total, nil
}

// DeleteByJob removes every question stored for a job
func (q *QuestionPostgreSQL) DeleteByJob(ctx context.Context, jobID string) error {
	err := q.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Delete(&models.QuestionRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete questions for job %s: %w", jobID, err)
	}
	return nil
}
