package importer

import (
	"context"
	"strings"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

// Builder turns one row into a question of a single type. A nil question is
// always paired with a *SkipError.
type Builder interface {
	Type() models.QuestionType
	Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error)
}

// BuilderFor returns the builder for t, or nil for an unknown type.
func BuilderFor(t models.QuestionType) Builder {
	switch t {
	case models.MultiChoice:
		return multiChoiceBuilder{}
	case models.TrueFalse:
		return trueFalseBuilder{}
	case models.ShortAnswer:
		return shortAnswerBuilder{}
	case models.Essay:
		return essayBuilder{}
	case models.GapSelect:
		return gapSelectBuilder{}
	case models.DDWtoS:
		return ddwtosBuilder{}
	case models.Match:
		return matchBuilder{}
	default:
		return nil
	}
}

// newQuestion fills the fields every type shares.
func newQuestion(ctx context.Context, qtype models.QuestionType, row Row, n *Normalizer) *models.Question {
	return &models.Question{
		Type:            qtype,
		Name:            questionName(row),
		QuestionText:    n.Body(ctx, row.Cell(ColText)),
		DefaultMark:     defaultMark(row),
		Penalty:         models.DefaultPenalty,
		Tags:            row.Tags(),
		GeneralFeedback: models.HTMLText(""),
	}
}

func requireOptions(row Row) error {
	if row.Cell(ColOptions) == "" {
		return skipRow(row, ColOptions, "options column is empty", nil)
	}
	return nil
}

type multiChoiceBuilder struct{}

func (multiChoiceBuilder) Type() models.QuestionType { return models.MultiChoice }

func (multiChoiceBuilder) Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	if err := requireOptions(row); err != nil {
		return nil, err
	}
	texts := row.splitOptions()
	key, err := ParseKey(row.Cell(ColKey), len(texts))
	if err != nil {
		return nil, skipRow(row, ColKey, "invalid answer key", err)
	}

	q := newQuestion(ctx, models.MultiChoice, row, n)
	options := make([]models.AnswerOption, len(texts))
	for i, text := range texts {
		options[i] = models.AnswerOption{
			Text:     n.Field(ctx, text),
			Fraction: key.Fractions[i],
		}
	}
	q.Content = &models.MultiChoiceContent{
		Options:      options,
		SingleAnswer: key.IsSingle(),
	}
	return q, nil
}

type trueFalseBuilder struct{}

func (trueFalseBuilder) Type() models.QuestionType { return models.TrueFalse }

// Build looks up the keyed option literal; the question is true only when
// that literal reads "true".
func (trueFalseBuilder) Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	if err := requireOptions(row); err != nil {
		return nil, err
	}
	texts := row.splitOptions()
	index, ok := keyIndex(row.Cell(ColKey))
	if !ok {
		return nil, skipRow(row, ColKey, "invalid answer key", ErrKeyMissing)
	}
	if index < 1 || index > len(texts) {
		return nil, skipRow(row, ColKey, "invalid answer key", ErrKeyOutOfRange)
	}

	q := newQuestion(ctx, models.TrueFalse, row, n)
	q.Content = &models.TrueFalseContent{
		CorrectAnswer: strings.EqualFold(strings.TrimSpace(texts[index-1]), "true"),
	}
	return q, nil
}

type shortAnswerBuilder struct{}

func (shortAnswerBuilder) Type() models.QuestionType { return models.ShortAnswer }

// Build keeps a single case-insensitive answer worth full credit.
func (shortAnswerBuilder) Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	if err := requireOptions(row); err != nil {
		return nil, err
	}
	answer := escapeHTML(strings.TrimSpace(row.Cell(ColKey)))
	if answer == "" {
		return nil, skipRow(row, ColKey, "answer column is empty", nil)
	}

	q := newQuestion(ctx, models.ShortAnswer, row, n)
	q.Content = &models.ShortAnswerContent{
		Answer: models.AnswerOption{
			Text:     models.TextField{Text: answer},
			Fraction: 1,
		},
	}
	return q, nil
}

const essayResponseLines = 15

type essayBuilder struct{}

func (essayBuilder) Type() models.QuestionType { return models.Essay }

func (essayBuilder) Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	q := newQuestion(ctx, models.Essay, row, n)
	q.Penalty = 0
	q.Content = &models.EssayContent{
		ResponseFormat:     "editor",
		ResponseRequired:   true,
		ResponseFieldLines: essayResponseLines,
	}
	return q, nil
}

// choiceSet puts every option into choice group 1.
func choiceSet(row Row) models.ChoiceSet {
	texts := row.splitOptions()
	choices := make([]models.Choice, len(texts))
	for i, text := range texts {
		choices[i] = models.Choice{Text: text, ChoiceGroup: 1}
	}
	return models.ChoiceSet{Choices: choices, AnswerCount: len(choices)}
}

type gapSelectBuilder struct{}

func (gapSelectBuilder) Type() models.QuestionType { return models.GapSelect }

func (gapSelectBuilder) Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	if err := requireOptions(row); err != nil {
		return nil, err
	}
	q := newQuestion(ctx, models.GapSelect, row, n)
	q.Content = &models.GapSelectContent{ChoiceSet: choiceSet(row)}
	return q, nil
}

type ddwtosBuilder struct{}

func (ddwtosBuilder) Type() models.QuestionType { return models.DDWtoS }

func (ddwtosBuilder) Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	if err := requireOptions(row); err != nil {
		return nil, err
	}
	q := newQuestion(ctx, models.DDWtoS, row, n)
	q.Content = &models.DDWtoSContent{ChoiceSet: choiceSet(row)}
	return q, nil
}

const matchSeparator = "->"

type matchBuilder struct{}

func (matchBuilder) Type() models.QuestionType { return models.Match }

// Build pairs "subquestion->answer" items. An empty subquestion is a
// distractor answer.
func (matchBuilder) Build(ctx context.Context, row Row, n *Normalizer) (*models.Question, error) {
	if err := requireOptions(row); err != nil {
		return nil, err
	}
	pairs := row.splitOptions()
	split := make([][]string, len(pairs))
	for i, pair := range pairs {
		parts := strings.Split(pair, matchSeparator)
		if len(parts) < 2 {
			return nil, skipRow(row, ColOptions, "match pair is missing \"->\"", nil)
		}
		split[i] = parts
	}

	q := newQuestion(ctx, models.Match, row, n)
	content := &models.MatchContent{
		Subquestions: make([]models.TextField, len(split)),
		Subanswers:   make([]string, len(split)),
	}
	for i, parts := range split {
		content.Subquestions[i] = n.Body(ctx, parts[0])
		content.Subanswers[i] = parts[1]
	}
	q.Content = content
	return q, nil
}
