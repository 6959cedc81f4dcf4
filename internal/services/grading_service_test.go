package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/llm"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/validator"
)

func validGradeRequest() *grading.ShortAnswerRequest {
	return &grading.ShortAnswerRequest{
		Question:       "Why is the sky blue?",
		UserAnswer:     "Because blue light scatters more",
		ExpectedAnswer: "Rayleigh scattering of shorter wavelengths",
		KeyPoints:      []string{"scattering", "wavelength"},
	}
}

func TestGradingService_WithLLMGrader(t *testing.T) {
	provider := llm.NewMockProvider(llm.MockReply{
		Text: "```json\n{\"score\": 85, \"feedback\": \"Good\", \"points_covered\": [\"scattering\"], \"points_missed\": [\"wavelength\"]}\n```",
	})
	grader := llm.NewShortAnswerGrader(provider, llm.GraderOptions{}, testLogger())
	service := NewGradingService(grader, time.Second, testLogger(), validator.New())

	record, err := service.GradeShortAnswer(context.Background(), validGradeRequest())
	require.NoError(t, err)
	assert.Equal(t, 85, record.Score)
	assert.Equal(t, models.BandGood, record.Band())
	assert.Equal(t, []string{"wavelength"}, record.PointsMissed)
	assert.Equal(t, 1, provider.CallCount())
}

func TestGradingService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing fields", func(t *testing.T) {
		service := NewGradingService(grading.SemanticGraderFunc(func(context.Context, grading.ShortAnswerRequest) (*models.GradeRecord, error) {
			t.Fatal("grader must not be called")
			return nil, nil
		}), 0, testLogger(), validator.New())

		_, err := service.GradeShortAnswer(ctx, &grading.ShortAnswerRequest{Question: "q"})
		assert.True(t, IsValidation(err))
	})

	t.Run("grader failure", func(t *testing.T) {
		service := NewGradingService(grading.SemanticGraderFunc(func(context.Context, grading.ShortAnswerRequest) (*models.GradeRecord, error) {
			return nil, errors.New("rate limited")
		}), 0, testLogger(), validator.New())

		_, err := service.GradeShortAnswer(ctx, validGradeRequest())
		assert.ErrorIs(t, err, ErrGraderUnavailable)
	})

	t.Run("out of range score", func(t *testing.T) {
		service := NewGradingService(grading.SemanticGraderFunc(func(context.Context, grading.ShortAnswerRequest) (*models.GradeRecord, error) {
			return &models.GradeRecord{Score: 140}, nil
		}), 0, testLogger(), validator.New())

		_, err := service.GradeShortAnswer(ctx, validGradeRequest())
		assert.ErrorIs(t, err, ErrGraderUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		service := NewGradingService(grading.SemanticGraderFunc(func(ctx context.Context, _ grading.ShortAnswerRequest) (*models.GradeRecord, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}), 10*time.Millisecond, testLogger(), validator.New())

		_, err := service.GradeShortAnswer(ctx, validGradeRequest())
		assert.ErrorIs(t, err, ErrGraderUnavailable)
	})
}
