package validator

import (
	"fmt"
	"strings"

	apperrors "github.com/studypilot/assessment-service/internal/errors"
	"github.com/studypilot/assessment-service/internal/models"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion checks the content rules of a single question. Field
// names in the returned errors are prefixed with prefix.
func (v *QuestionValidator) ValidateQuestion(prefix string, question models.Question) ValidationErrors {
	if question == nil {
		return ValidationErrors{*apperrors.NewValidationErrorWithRule(prefix, "is required", "required", nil)}
	}

	c := &contentChecker{prefix: prefix}
	if strings.TrimSpace(question.Base().Text) == "" {
		c.fail("question", "is required", "required", question.Base().Text)
	}
	question.Accept(c)
	return c.errs
}

// ValidateQuiz validates every question of the quiz. An empty quiz is valid.
// The returned error wraps apperrors.ErrInvalidQuiz and ValidationErrors.
func (v *QuestionValidator) ValidateQuiz(quiz *models.Quiz) error {
	if quiz == nil {
		return fmt.Errorf("%w: quiz is missing", apperrors.ErrInvalidQuiz)
	}

	var errs ValidationErrors
	for i, question := range quiz.Questions() {
		errs = append(errs, v.ValidateQuestion(fmt.Sprintf("questions[%d]", i), question)...)
	}
	if len(errs) > 0 {
		return apperrors.NewInvalidQuizError(errs)
	}
	return nil
}

// ValidatePayload decodes and validates a wire quiz in one step.
func (v *QuestionValidator) ValidatePayload(payload models.QuizPayload) (*models.Quiz, error) {
	var errs ValidationErrors
	for i, qp := range payload.Questions {
		if !qp.Type.IsValid() {
			errs = append(errs, *apperrors.NewValidationErrorWithRule(
				fmt.Sprintf("questions[%d].type", i),
				"must be a valid question type (mcq, fill_blank, short_answer)",
				"question_type", qp.Type))
		}
	}
	if len(errs) > 0 {
		return nil, apperrors.NewInvalidQuizError(errs)
	}

	quiz, err := payload.ToQuiz()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidQuiz, err)
	}
	if err := v.ValidateQuiz(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// contentChecker applies the per-variant rules.
type contentChecker struct {
	prefix string
	errs   ValidationErrors
}

func (c *contentChecker) fail(field, message, rule string, value interface{}) {
	c.errs = append(c.errs, *apperrors.NewValidationErrorWithRule(c.prefix+"."+field, message, rule, value))
}

func (c *contentChecker) VisitMCQ(q *models.MCQQuestion) {
	if len(q.Options) < 2 {
		c.fail("options", "must have at least 2 options", "min", len(q.Options))
	}
	if q.CorrectAnswer == "" {
		c.fail("correct_answer", "is required", "required", q.CorrectAnswer)
		return
	}
	if !q.HasOption(q.CorrectAnswer) {
		c.fail("correct_answer",
			fmt.Sprintf("correct answer '%s' does not match any option", q.CorrectAnswer),
			"option_member", q.CorrectAnswer)
	}
}

func (c *contentChecker) VisitFillBlank(q *models.FillBlankQuestion) {
	if strings.TrimSpace(q.CorrectAnswer) == "" {
		c.fail("correct_answer", "is required", "required", q.CorrectAnswer)
	}
}

func (c *contentChecker) VisitShortAnswer(q *models.ShortAnswerQuestion) {
	if strings.TrimSpace(q.ExpectedAnswer) == "" {
		c.fail("expected_answer", "is required", "required", q.ExpectedAnswer)
	}
}
