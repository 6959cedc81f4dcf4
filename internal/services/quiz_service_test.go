package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	apperrors "github.com/studypilot/assessment-service/internal/errors"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/repositories"
	"github.com/studypilot/assessment-service/internal/repositories/memory"
	"github.com/studypilot/assessment-service/internal/validator"
)

// MockQuizRepository is a mock implementation of QuizRepository
type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Create(ctx context.Context, quiz *models.QuizRecord) error {
	args := m.Called(ctx, quiz)
	return args.Error(0)
}

func (m *MockQuizRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.QuizRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuizRecord), args.Error(1)
}

func (m *MockQuizRepository) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.QuizRecord, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*models.QuizRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuizRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func samplePayload() []models.QuestionPayload {
	return []models.QuestionPayload{
		{Type: models.QuestionTypeMCQ, Question: "2+2?", Options: []string{"3", "4"}, CorrectAnswer: "4"},
		{Type: models.QuestionTypeFillBlank, Question: "Capital of France is ___", CorrectAnswer: "Paris"},
		{Type: models.QuestionTypeShortAnswer, Question: "Why is the sky blue?", ExpectedAnswer: "Rayleigh scattering", KeyPoints: []string{"scattering", "wavelength"}},
	}
}

func sampleRegisterRequest() *RegisterQuizRequest {
	return &RegisterQuizRequest{
		Title: "Basics",
		Params: models.GenerationParams{
			DocumentID:    "doc-1",
			NumQuestions:  3,
			Difficulty:    models.DifficultyEasy,
			QuestionTypes: []string{models.RequestedTypeMix},
		},
		Questions: samplePayload(),
	}
}

func TestQuizService_RegisterAndGet(t *testing.T) {
	service := NewQuizService(memory.NewQuizMemory(), testLogger(), validator.New())
	ctx := context.Background()

	created, err := service.Register(ctx, sampleRegisterRequest())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, 3, created.QuestionCount)
	assert.Equal(t, []models.QuestionType{
		models.QuestionTypeMCQ, models.QuestionTypeFillBlank, models.QuestionTypeShortAnswer,
	}, created.QuestionTypes)

	fetched, err := service.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "doc-1", fetched.DocumentID)
	require.Len(t, fetched.Questions, 3)
	assert.Equal(t, []string{"scattering", "wavelength"}, fetched.Questions[2].KeyPoints)

	quiz, err := service.LoadQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, quiz.Len())
	assert.Equal(t, models.QuestionTypeFillBlank, quiz.At(1).Type())

	list, err := service.List(ctx, repositories.QuizFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, repositories.DefaultListLimit, list.Limit)
	assert.Empty(t, list.Quizzes[0].Questions)

	require.NoError(t, service.Delete(ctx, created.ID))
	_, err = service.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizService_RegisterValidation(t *testing.T) {
	service := NewQuizService(memory.NewQuizMemory(), testLogger(), validator.New())
	ctx := context.Background()

	t.Run("bad generation params", func(t *testing.T) {
		req := sampleRegisterRequest()
		req.Params.NumQuestions = 50
		req.Params.Difficulty = "extreme"

		_, err := service.Register(ctx, req)
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		var verrs ValidationErrors
		require.ErrorAs(t, err, &verrs)
		fields := make([]string, 0, len(verrs))
		for _, e := range verrs {
			fields = append(fields, e.Field)
		}
		assert.Contains(t, fields, "params.num_questions")
		assert.Contains(t, fields, "params.difficulty")
	})

	t.Run("invalid question content", func(t *testing.T) {
		req := sampleRegisterRequest()
		req.Questions[0].CorrectAnswer = "5"

		_, err := service.Register(ctx, req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidQuiz)
		assert.True(t, IsValidation(err))
	})

	t.Run("question type not requested", func(t *testing.T) {
		req := sampleRegisterRequest()
		req.Params.QuestionTypes = []string{"mcq", "fill_blank"}

		_, err := service.Register(ctx, req)
		require.Error(t, err)
		assert.True(t, IsBusinessRule(err))
	})
}

func TestQuizService_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("not found is mapped", func(t *testing.T) {
		repo := &MockQuizRepository{}
		repo.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrQuizNotFound)
		service := NewQuizService(repo, testLogger(), validator.New())

		_, err := service.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrQuizNotFound)
		assert.True(t, IsNotFound(err))

		_, err = service.LoadQuiz(ctx, id)
		assert.ErrorIs(t, err, ErrQuizNotFound)
		repo.AssertExpectations(t)
	})

	t.Run("create failure is wrapped", func(t *testing.T) {
		repo := &MockQuizRepository{}
		repo.On("Create", mock.Anything, mock.AnythingOfType("*models.QuizRecord")).Return(errors.New("connection refused"))
		service := NewQuizService(repo, testLogger(), validator.New())

		_, err := service.Register(ctx, sampleRegisterRequest())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create quiz")
		assert.False(t, IsValidation(err))
	})

	t.Run("corrupt stored quiz", func(t *testing.T) {
		repo := &MockQuizRepository{}
		repo.On("GetByID", mock.Anything, id).Return(&models.QuizRecord{ID: id, Questions: []byte(`{"questions":[{"type":"essay"}]}`)}, nil)
		service := NewQuizService(repo, testLogger(), validator.New())

		_, err := service.LoadQuiz(ctx, id)
		assert.ErrorIs(t, err, ErrQuizUnreadable)
	})

	t.Run("list clamps paging", func(t *testing.T) {
		repo := &MockQuizRepository{}
		repo.On("List", mock.Anything, repositories.QuizFilters{Limit: repositories.MaxListLimit, Offset: 0}).
			Return([]*models.QuizRecord{}, int64(0), nil)
		service := NewQuizService(repo, testLogger(), validator.New())

		resp, err := service.List(ctx, repositories.QuizFilters{Limit: 1000, Offset: -5})
		require.NoError(t, err)
		assert.Equal(t, repositories.MaxListLimit, resp.Limit)
		repo.AssertExpectations(t)
	})
}
