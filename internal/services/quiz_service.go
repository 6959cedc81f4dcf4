package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/repositories"
	"github.com/studypilot/assessment-service/internal/validator"
	"gorm.io/datatypes"
)

type quizService struct {
	repo      repositories.QuizRepository
	logger    *ServiceLogger
	validator *validator.Validator
}

func NewQuizService(repo repositories.QuizRepository, logger *slog.Logger, validator *validator.Validator) QuizService {
	return &quizService{
		repo:      repo,
		logger:    NewServiceLogger(logger, LogConfig{Service: "assessment", Component: "quiz"}),
		validator: validator,
	}
}

// ===== CORE OPERATIONS =====

func (s *quizService) Register(ctx context.Context, req *RegisterQuizRequest) (resp *QuizResponse, err error) {
	op := s.logger.WithOperation(ctx, "register_quiz")
	defer func() {
		var id uuid.UUID
		if resp != nil {
			id = resp.ID
		}
		op.LogResult(id, "quiz", err)
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.validator.Question().ValidatePayload(models.QuizPayload{Questions: req.Questions})
	if err != nil {
		return nil, err
	}

	requested := req.Params.ExpandedTypes()
	for i, question := range quiz.Questions() {
		if !slices.Contains(requested, question.Type()) {
			return nil, NewBusinessRuleError("question_type_not_requested",
				fmt.Sprintf("question %d has type %s which was not requested", i, question.Type()),
				map[string]any{"index": i, "type": question.Type(), "requested": requested})
		}
	}

	questionsJSON, err := json.Marshal(quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz: %w", err)
	}
	typesJSON, err := json.Marshal(requested)
	if err != nil {
		return nil, fmt.Errorf("failed to encode question types: %w", err)
	}

	record := &models.QuizRecord{
		ID:            uuid.New(),
		Title:         req.Title,
		DocumentID:    req.Params.DocumentID,
		Difficulty:    req.Params.Difficulty,
		Topic:         req.Params.Topic,
		QuestionTypes: datatypes.JSON(typesJSON),
		Questions:     datatypes.JSON(questionsJSON),
		QuestionCount: quiz.Len(),
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	return s.buildQuizResponse(record, quiz), nil
}

func (s *quizService) GetByID(ctx context.Context, id uuid.UUID) (*QuizResponse, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrQuizNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	quiz, err := record.Quiz()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizUnreadable, err)
	}
	return s.buildQuizResponse(record, quiz), nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error) {
	filters.Limit = repositories.NormalizeLimit(filters.Limit)
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	records, total, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}

	resp := &QuizListResponse{
		Quizzes: make([]QuizResponse, 0, len(records)),
		Total:   total,
		Limit:   filters.Limit,
		Offset:  filters.Offset,
	}
	for _, record := range records {
		resp.Quizzes = append(resp.Quizzes, *s.buildQuizResponse(record, nil))
	}
	return resp, nil
}

func (s *quizService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	op := s.logger.WithOperation(ctx, "delete_quiz")
	defer func() { op.LogResult(id, "quiz", err) }()

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrQuizNotFound) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to delete quiz: %w", err)
	}
	return nil
}

func (s *quizService) LoadQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrQuizNotFound) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	quiz, err := record.Quiz()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuizUnreadable, err)
	}
	return quiz, nil
}

// ===== HELPERS =====

// buildQuizResponse omits the questions when quiz is nil (list views).
func (s *quizService) buildQuizResponse(record *models.QuizRecord, quiz *models.Quiz) *QuizResponse {
	resp := &QuizResponse{
		ID:            record.ID,
		Title:         record.Title,
		DocumentID:    record.DocumentID,
		Difficulty:    record.Difficulty,
		Topic:         record.Topic,
		QuestionCount: record.QuestionCount,
		CreatedAt:     record.CreatedAt,
	}

	if len(record.QuestionTypes) > 0 {
		if err := json.Unmarshal(record.QuestionTypes, &resp.QuestionTypes); err != nil {
			s.logger.Logger().Warn("Stored question types are unreadable", "quiz_id", record.ID, "error", err)
		}
	}
	if quiz != nil {
		resp.Questions = quiz.Payload().Questions
	}
	return resp
}
