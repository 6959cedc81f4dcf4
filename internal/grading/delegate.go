package grading

import (
	"context"

	"github.com/studypilot/assessment-service/internal/models"
)

// ShortAnswerRequest is the input of a semantic grading call.
type ShortAnswerRequest struct {
	UserAnswer     string   `json:"user_answer" validate:"required"`
	ExpectedAnswer string   `json:"expected_answer" validate:"required"`
	KeyPoints      []string `json:"key_points"`
	Question       string   `json:"question" validate:"required"`
}

// SemanticGrader scores a free-text answer against the expected content.
// Implementations may fail or return a record outside the contract; callers
// treat both the same way.
type SemanticGrader interface {
	GradeShortAnswer(ctx context.Context, req ShortAnswerRequest) (*models.GradeRecord, error)
}

// SemanticGraderFunc adapts a function to SemanticGrader.
type SemanticGraderFunc func(ctx context.Context, req ShortAnswerRequest) (*models.GradeRecord, error)

func (f SemanticGraderFunc) GradeShortAnswer(ctx context.Context, req ShortAnswerRequest) (*models.GradeRecord, error) {
	return f(ctx, req)
}

// NewShortAnswerRequest builds the delegate request for question q.
func NewShortAnswerRequest(q *models.ShortAnswerQuestion, userAnswer string) ShortAnswerRequest {
	return ShortAnswerRequest{
		UserAnswer:     userAnswer,
		ExpectedAnswer: q.ExpectedAnswer,
		KeyPoints:      append([]string{}, q.KeyPoints...),
		Question:       q.Text,
	}
}

// normalizeRecord replaces nil slices so records serialize as [] rather
// than null.
func normalizeRecord(r models.GradeRecord) models.GradeRecord {
	if r.PointsCovered == nil {
		r.PointsCovered = []string{}
	}
	if r.PointsMissed == nil {
		r.PointsMissed = []string{}
	}
	return r
}
