package repositories

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

// ToRecord flattens a built question into its table row.
func ToRecord(q *models.Question, jobID, ownerID, mediaScopeID string, sequence int) (*models.QuestionRecord, error) {
	tags, err := json.Marshal(q.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tags: %w", err)
	}
	content, err := json.Marshal(q.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s content: %w", q.Type, err)
	}

	record := &models.QuestionRecord{
		JobID:              jobID,
		Sequence:           sequence,
		Type:               q.Type,
		Name:               q.Name,
		QuestionText:       q.QuestionText.Text,
		QuestionTextFormat: q.QuestionText.Format,
		DefaultMark:        q.DefaultMark,
		Penalty:            q.Penalty,
		Tags:               datatypes.JSON(tags),
		Content:            datatypes.JSON(content),
		CreatedBy:          ownerID,
	}
	if mediaScopeID != "" {
		record.MediaScopeID = &mediaScopeID
	}
	return record, nil
}

// DecodeContent restores the typed payload stored in a record.
func DecodeContent(r *models.QuestionRecord) (models.QuestionContent, error) {
	var content models.QuestionContent
	switch r.Type {
	case models.MultiChoice:
		content = &models.MultiChoiceContent{}
	case models.TrueFalse:
		content = &models.TrueFalseContent{}
	case models.ShortAnswer:
		content = &models.ShortAnswerContent{}
	case models.Essay:
		content = &models.EssayContent{}
	case models.GapSelect:
		content = &models.GapSelectContent{}
	case models.DDWtoS:
		content = &models.DDWtoSContent{}
	case models.Match:
		content = &models.MatchContent{}
	default:
		return nil, fmt.Errorf("unknown question type %q", r.Type)
	}
	if err := json.Unmarshal(r.Content, content); err != nil {
		return nil, fmt.Errorf("failed to decode %s content: %w", r.Type, err)
	}
	return content, nil
}
