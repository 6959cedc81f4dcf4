package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/studypilot/assessment-service/internal/errors"
	"github.com/studypilot/assessment-service/internal/models"
)

func mcq(correct string, options ...string) *models.MCQQuestion {
	return &models.MCQQuestion{
		QuestionBase:  models.QuestionBase{Text: "Capital of France?"},
		Options:       options,
		CorrectAnswer: correct,
	}
}

func TestQuestionValidator_ValidateQuiz(t *testing.T) {
	v := NewQuestionValidator()

	tests := []struct {
		name       string
		quiz       *models.Quiz
		wantFields []string
	}{
		{
			name: "valid mixed quiz",
			quiz: models.NewQuiz(
				mcq("Paris", "Paris", "Lyon"),
				&models.FillBlankQuestion{QuestionBase: models.QuestionBase{Text: "2+2=__"}, CorrectAnswer: "4"},
				&models.ShortAnswerQuestion{QuestionBase: models.QuestionBase{Text: "Why?"}, ExpectedAnswer: "Because", KeyPoints: []string{"x"}},
			),
		},
		{
			name: "empty quiz is valid",
			quiz: models.NewQuiz(),
		},
		{
			name:       "mcq correct answer not among options",
			quiz:       models.NewQuiz(mcq("Marseille", "Paris", "Lyon")),
			wantFields: []string{"questions[0].correct_answer"},
		},
		{
			name:       "mcq option match is case-sensitive",
			quiz:       models.NewQuiz(mcq("paris", "Paris", "Lyon")),
			wantFields: []string{"questions[0].correct_answer"},
		},
		{
			name:       "mcq with a single option",
			quiz:       models.NewQuiz(mcq("Paris", "Paris")),
			wantFields: []string{"questions[0].options"},
		},
		{
			name: "blank text and missing answers",
			quiz: models.NewQuiz(
				mcq("A", "A", "B"),
				&models.FillBlankQuestion{QuestionBase: models.QuestionBase{Text: " "}},
				&models.ShortAnswerQuestion{QuestionBase: models.QuestionBase{Text: "Why?"}},
			),
			wantFields: []string{"questions[1].question", "questions[1].correct_answer", "questions[2].expected_answer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateQuiz(tt.quiz)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidQuiz))

			var ve ValidationErrors
			require.True(t, errors.As(err, &ve))
			var fields []string
			for _, e := range ve {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.wantFields, fields)
		})
	}
}

func TestQuestionValidator_ValidatePayload(t *testing.T) {
	v := NewQuestionValidator()

	t.Run("decodes a valid payload", func(t *testing.T) {
		quiz, err := v.ValidatePayload(models.QuizPayload{Questions: []models.QuestionPayload{
			{Type: models.QuestionTypeMCQ, Question: "Q", Options: []string{"A", "B"}, CorrectAnswer: "B"},
		}})
		require.NoError(t, err)
		assert.Equal(t, 1, quiz.Len())
		assert.Equal(t, models.QuestionTypeMCQ, quiz.At(0).Type())
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		_, err := v.ValidatePayload(models.QuizPayload{Questions: []models.QuestionPayload{
			{Type: "essay", Question: "Q"},
		}})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidQuiz))
	})
}

func TestValidator_GenerationParams(t *testing.T) {
	v := New()

	valid := models.GenerationParams{
		DocumentID:    "doc-1",
		NumQuestions:  5,
		Difficulty:    models.DifficultyMedium,
		QuestionTypes: []string{"mix"},
	}
	assert.NoError(t, v.Validate(valid))

	invalid := valid
	invalid.NumQuestions = 21
	invalid.Difficulty = "impossible"
	invalid.QuestionTypes = []string{"essay"}

	err := v.Validate(invalid)
	require.Error(t, err)

	var ve ValidationErrors
	require.True(t, errors.As(err, &ve))
	rules := map[string]string{}
	for _, e := range ve {
		rules[e.Field] = e.Rule
	}
	assert.Equal(t, "max", rules["num_questions"])
	assert.Equal(t, "difficulty", rules["difficulty"])
	assert.Equal(t, "requested_type", rules["question_types[0]"])
}
