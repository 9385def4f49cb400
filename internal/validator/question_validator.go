package validator

import (
	"fmt"
	"math"

	"github.com/SAP-F-2025/question-import-service/internal/models"
)

const fractionTolerance = 1e-6

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks the invariants a built question must satisfy
// beyond its struct tags.
func (v *QuestionValidator) ValidateQuestion(q *models.Question) ValidationErrors {
	var errs ValidationErrors
	if q == nil {
		return append(errs, ValidationError{Field: "question", Message: "is required"})
	}
	if q.Content == nil {
		return append(errs, ValidationError{Field: "content", Message: "is required"})
	}
	if q.Content.QuestionType() != q.Type {
		return append(errs, ValidationError{
			Field:   "content",
			Message: fmt.Sprintf("does not match question type %s", q.Type),
			Value:   string(q.Content.QuestionType()),
		})
	}
	return v.ValidateContent(q.Content)
}

// ValidateContent validates question content based on its type
func (v *QuestionValidator) ValidateContent(content models.QuestionContent) ValidationErrors {
	switch c := content.(type) {
	case *models.MultiChoiceContent:
		return v.validateMultiChoice(c)
	case *models.TrueFalseContent:
		return nil
	case *models.ShortAnswerContent:
		return v.validateShortAnswer(c)
	case *models.EssayContent:
		return v.validateEssay(c)
	case *models.GapSelectContent:
		return v.validateChoiceSet(&c.ChoiceSet)
	case *models.DDWtoSContent:
		return v.validateChoiceSet(&c.ChoiceSet)
	case *models.MatchContent:
		return v.validateMatch(c)
	default:
		return ValidationErrors{{Field: "content", Message: fmt.Sprintf("unsupported content %T", content)}}
	}
}

// ValidateBatch validates multiple questions, prefixing fields with the
// question position.
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) ValidationErrors {
	var errs ValidationErrors
	for i, q := range questions {
		for _, e := range v.ValidateQuestion(q) {
			e.Field = fmt.Sprintf("questions[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	return errs
}

func (v *QuestionValidator) validateMultiChoice(c *models.MultiChoiceContent) ValidationErrors {
	var errs ValidationErrors
	if len(c.Options) == 0 {
		return append(errs, ValidationError{Field: "content.options", Message: "must have at least 1 option"})
	}

	sum, correct := 0.0, 0
	for i, opt := range c.Options {
		if opt.Fraction < 0 || opt.Fraction > 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("content.options[%d].fraction", i),
				Message: "must be between 0 and 1",
				Value:   opt.Fraction,
			})
		}
		if opt.Fraction > 0 {
			correct++
		}
		sum += opt.Fraction
	}

	if math.Abs(sum-1) > fractionTolerance {
		errs = append(errs, ValidationError{Field: "content.options", Message: "fractions must sum to 1", Value: sum})
	}
	if c.SingleAnswer && correct != 1 {
		errs = append(errs, ValidationError{
			Field:   "content.single_answer",
			Message: "single answer questions need exactly one correct option",
			Value:   correct,
		})
	}
	return errs
}

func (v *QuestionValidator) validateShortAnswer(c *models.ShortAnswerContent) ValidationErrors {
	var errs ValidationErrors
	if c.Answer.Text.Text == "" {
		errs = append(errs, ValidationError{Field: "content.answer.text", Message: "is required"})
	}
	if c.Answer.Fraction != 1 {
		errs = append(errs, ValidationError{Field: "content.answer.fraction", Message: "must be 1", Value: c.Answer.Fraction})
	}
	return errs
}

func (v *QuestionValidator) validateEssay(c *models.EssayContent) ValidationErrors {
	if c.ResponseFieldLines <= 0 {
		return ValidationErrors{{Field: "content.response_field_lines", Message: "must be greater than 0", Value: c.ResponseFieldLines}}
	}
	return nil
}

func (v *QuestionValidator) validateChoiceSet(c *models.ChoiceSet) ValidationErrors {
	var errs ValidationErrors
	if len(c.Choices) == 0 {
		return append(errs, ValidationError{Field: "content.choices", Message: "must have at least 1 choice"})
	}
	if c.AnswerCount != len(c.Choices) {
		errs = append(errs, ValidationError{Field: "content.answer_count", Message: "must equal the number of choices", Value: c.AnswerCount})
	}
	for i, ch := range c.Choices {
		if ch.ChoiceGroup != 1 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("content.choices[%d].choice_group", i),
				Message: "must be 1",
				Value:   ch.ChoiceGroup,
			})
		}
	}
	return errs
}

func (v *QuestionValidator) validateMatch(c *models.MatchContent) ValidationErrors {
	if len(c.Subquestions) == 0 {
		return ValidationErrors{{Field: "content.subquestions", Message: "must have at least 1 pair"}}
	}
	if len(c.Subquestions) != len(c.Subanswers) {
		return ValidationErrors{{
			Field:   "content.subanswers",
			Message: "must pair with every subquestion",
			Value:   len(c.Subanswers),
		}}
	}
	return nil
}
