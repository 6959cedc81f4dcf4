package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/models"
)

var ErrQuizNotFound = errors.New("quiz not found")

// QuizFilters narrows List results. Zero values mean no filter.
type QuizFilters struct {
	DocumentID string             `json:"document_id"`
	Difficulty *models.Difficulty `json:"difficulty"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`
	SortOrder  string             `json:"sort_order"` // "asc", "desc" by created_at
}

// QuizRepository stores quizzes handed over by the generator.
type QuizRepository interface {
	Create(ctx context.Context, quiz *models.QuizRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.QuizRecord, error)
	List(ctx context.Context, filters QuizFilters) ([]*models.QuizRecord, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// NormalizeLimit clamps a requested page size.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}
