package models

import (
	"time"

	"gorm.io/datatypes"
)

type ImportJobStatus string

const (
	ImportPending    ImportJobStatus = "pending"
	ImportProcessing ImportJobStatus = "processing"
	ImportCompleted  ImportJobStatus = "completed"
	ImportFailed     ImportJobStatus = "failed"
)

// ImportJob tracks one bundle import. Jobs live in the cache, not the database.
type ImportJob struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`

	// File info
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`

	Status ImportJobStatus `json:"status"`

	// Processing info
	TotalRows     int `json:"total_rows"`
	ProcessedRows int `json:"processed_rows"`
	SuccessCount  int `json:"success_count"`
	SkippedCount  int `json:"skipped_count"`

	MediaScopeID string                  `json:"media_scope_id,omitempty"`
	Errors       []ImportValidationError `json:"errors,omitempty"`
	FailureCause string                  `json:"failure_cause,omitempty"`

	// Timestamps
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ImportValidationError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

const (
	CodeRowSkipped       = "row_skipped"
	CodeValidationFailed = "validation_failed"
)

// QuestionRecord is the persisted form of an imported question.
type QuestionRecord struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	JobID    string       `json:"job_id" gorm:"not null;size:36;index"`
	Sequence int          `json:"sequence" gorm:"not null"`
	Type     QuestionType `json:"type" gorm:"not null;size:32;index"`
	Name     string       `json:"name" gorm:"not null;size:255"`

	QuestionText       string     `json:"question_text" gorm:"type:text"`
	QuestionTextFormat TextFormat `json:"question_text_format" gorm:"size:16"`
	MediaScopeID       *string    `json:"media_scope_id" gorm:"size:36;index"`

	DefaultMark float64        `json:"default_mark" gorm:"not null;default:1"`
	Penalty     float64        `json:"penalty" gorm:"not null;default:0"`
	Tags        datatypes.JSON `json:"tags" gorm:"type:jsonb"`    // [2]string
	Content     datatypes.JSON `json:"content" gorm:"type:jsonb"` // type-specific payload

	CreatedBy string    `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (QuestionRecord) TableName() string {
	return "imported_questions"
}
