package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/validator"
)

type gradingService struct {
	grader    grading.SemanticGrader
	timeout   time.Duration
	logger    *ServiceLogger
	validator *validator.Validator
}

// NewGradingService serves the grader's own request contract. A zero timeout
// leaves the call bounded only by ctx.
func NewGradingService(grader grading.SemanticGrader, timeout time.Duration, logger *slog.Logger, validator *validator.Validator) GradingService {
	return &gradingService{
		grader:    grader,
		timeout:   timeout,
		logger:    NewServiceLogger(logger, LogConfig{Service: "assessment", Component: "grading"}),
		validator: validator,
	}
}

// GradeShortAnswer returns the grader's record as is. Unlike a session, a
// failed call is reported to the caller rather than replaced by a fallback.
func (s *gradingService) GradeShortAnswer(ctx context.Context, req *grading.ShortAnswerRequest) (record *models.GradeRecord, err error) {
	op := s.logger.WithOperation(ctx, "grade_short_answer")
	defer func() { op.LogResult(uuid.Nil, "short_answer", err) }()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	record, err = s.grader.GradeShortAnswer(ctx, *req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraderUnavailable, err)
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGraderUnavailable, err)
	}
	return record, nil
}
