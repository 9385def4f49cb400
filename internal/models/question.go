package models

import "strings"

type QuestionType string

const (
	MultiChoice QuestionType = "multichoice"
	TrueFalse   QuestionType = "truefalse"
	ShortAnswer QuestionType = "shortanswer"
	Essay       QuestionType = "essay"
	GapSelect   QuestionType = "gapselect"
	DDWtoS      QuestionType = "ddwtos"
	Match       QuestionType = "match"
)

// QuestionTypes lists every type the importer can build, in sheet documentation order.
var QuestionTypes = []QuestionType{MultiChoice, TrueFalse, ShortAnswer, Essay, GapSelect, DDWtoS, Match}

// ParseQuestionType matches a sheet type tag case-insensitively after trimming.
func ParseQuestionType(tag string) (QuestionType, bool) {
	candidate := QuestionType(strings.ToLower(strings.TrimSpace(tag)))
	for _, t := range QuestionTypes {
		if t == candidate {
			return t, true
		}
	}
	return "", false
}

type TextFormat string

const FormatHTML TextFormat = "html"

const (
	DefaultMark    = 1.0
	DefaultPenalty = 0.33
)

// TextField is a rich-text value. ItemID is only set when the text references
// stored media.
type TextField struct {
	Text   string     `json:"text"`
	Format TextFormat `json:"format,omitempty" validate:"text_format"`
	ItemID string     `json:"item_id,omitempty"`
}

func (f TextField) IsEmpty() bool {
	return f.Text == "" && f.Format == "" && f.ItemID == ""
}

// HTMLText returns an HTML field without media.
func HTMLText(text string) TextField {
	return TextField{Text: text, Format: FormatHTML}
}

type AnswerOption struct {
	Text     TextField `json:"text"`
	Fraction float64   `json:"fraction" validate:"gte=0,lte=1"`
	Feedback TextField `json:"feedback"`
}

type Choice struct {
	Text        string `json:"text"`
	ChoiceGroup int    `json:"choice_group"`
}

type CombinedFeedback struct {
	Correct          TextField `json:"correct_feedback"`
	PartiallyCorrect TextField `json:"partially_correct_feedback"`
	Incorrect        TextField `json:"incorrect_feedback"`
}

// Question is the canonical record produced for one sheet row. Content holds
// the type-specific payload and always agrees with Type.
type Question struct {
	Type            QuestionType    `json:"type" validate:"required,question_type"`
	Name            string          `json:"name" validate:"required,max=255"`
	QuestionText    TextField       `json:"question_text"`
	DefaultMark     float64         `json:"default_mark" validate:"gt=0"`
	Penalty         float64         `json:"penalty" validate:"gte=0,lte=1"`
	Tags            [2]string       `json:"tags"`
	GeneralFeedback TextField       `json:"general_feedback"`
	Content         QuestionContent `json:"content" validate:"required"`
}

// QuestionContent is implemented by the per-type payloads below.
type QuestionContent interface {
	QuestionType() QuestionType
}

type MultiChoiceContent struct {
	Options      []AnswerOption `json:"options"`
	SingleAnswer bool           `json:"single_answer"`
	CombinedFeedback
}

func (*MultiChoiceContent) QuestionType() QuestionType { return MultiChoice }

type TrueFalseContent struct {
	CorrectAnswer bool      `json:"correct_answer"`
	FeedbackTrue  TextField `json:"feedback_true"`
	FeedbackFalse TextField `json:"feedback_false"`
}

func (*TrueFalseContent) QuestionType() QuestionType { return TrueFalse }

type ShortAnswerContent struct {
	Answer        AnswerOption `json:"answer"`
	CaseSensitive bool         `json:"case_sensitive"`
}

func (*ShortAnswerContent) QuestionType() QuestionType { return ShortAnswer }

type EssayContent struct {
	ResponseFormat      string    `json:"response_format"`
	ResponseRequired    bool      `json:"response_required"`
	ResponseFieldLines  int       `json:"response_field_lines"`
	Attachments         int       `json:"attachments"`
	AttachmentsRequired int       `json:"attachments_required"`
	GraderInfo          TextField `json:"grader_info"`
	ResponseTemplate    TextField `json:"response_template"`
}

func (*EssayContent) QuestionType() QuestionType { return Essay }

// ChoiceSet is shared by the gap-fill style types.
type ChoiceSet struct {
	Choices     []Choice `json:"choices"`
	AnswerCount int      `json:"answer_count"`
	CombinedFeedback
}

type GapSelectContent struct {
	ChoiceSet
}

func (*GapSelectContent) QuestionType() QuestionType { return GapSelect }

type DDWtoSContent struct {
	ChoiceSet
}

func (*DDWtoSContent) QuestionType() QuestionType { return DDWtoS }

type MatchContent struct {
	Subquestions []TextField `json:"subquestions"`
	Subanswers   []string    `json:"subanswers"`
	CombinedFeedback
}

func (*MatchContent) QuestionType() QuestionType { return Match }
