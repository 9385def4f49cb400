package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

// EventType represents different types of import events
type EventType string

const (
	EventQuestionsImported EventType = "questions.imported"
	EventImportFailed      EventType = "questions.import_failed"
)

const (
	eventSource  = "question-import-service"
	eventVersion = "1.0"
)

// ImportEvent is the envelope published for every import outcome
type ImportEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type QuestionsImportedEvent struct {
	JobID         string                      `json:"job_id"`
	OwnerID       string                      `json:"owner_id"`
	FileName      string                      `json:"file_name"`
	MediaScopeID  string                      `json:"media_scope_id,omitempty"`
	QuestionCount int                         `json:"question_count"`
	SkippedCount  int                         `json:"skipped_count"`
	QuestionTypes map[models.QuestionType]int `json:"question_types"`
}

type ImportFailedEvent struct {
	JobID    string `json:"job_id"`
	OwnerID  string `json:"owner_id"`
	FileName string `json:"file_name"`
	Cause    string `json:"cause"`
}

func newEvent(t EventType, data interface{}) *ImportEvent {
	return &ImportEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// NewQuestionsImported summarizes a completed job.
func NewQuestionsImported(job *models.ImportJob, questions []*models.Question) *ImportEvent {
	counts := make(map[models.QuestionType]int)
	for _, q := range questions {
		counts[q.Type]++
	}
	return newEvent(EventQuestionsImported, QuestionsImportedEvent{
		JobID:         job.ID,
		OwnerID:       job.OwnerID,
		FileName:      job.FileName,
		MediaScopeID:  job.MediaScopeID,
		QuestionCount: len(questions),
		SkippedCount:  job.SkippedCount,
		QuestionTypes: counts,
	})
}

func NewImportFailed(job *models.ImportJob) *ImportEvent {
	return newEvent(EventImportFailed, ImportFailedEvent{
		JobID:    job.ID,
		OwnerID:  job.OwnerID,
		FileName: job.FileName,
		Cause:    job.FailureCause,
	})
}
