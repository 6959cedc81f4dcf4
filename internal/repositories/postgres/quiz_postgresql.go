package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

// Create stores a quiz, assigning an ID when the record has none
func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.QuizRecord) error {
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}

	if err := q.db.WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetByID retrieves a quiz by ID
func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.QuizRecord, error) {
	var quiz models.QuizRecord
	err := q.db.WithContext(ctx).First(&quiz, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repositories.ErrQuizNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz %s: %w", id, err)
	}
	return &quiz, nil
}

// List retrieves quizzes with filtering and pagination
func (q *QuizPostgreSQL) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.QuizRecord, int64, error) {
	query := q.applyFilters(q.db.WithContext(ctx).Model(&models.QuizRecord{}), filters)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quizzes: %w", err)
	}

	var quizzes []*models.QuizRecord
	if err := q.applyPaginationAndSort(query, filters).Find(&quizzes).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list quizzes: %w", err)
	}
	return quizzes, total, nil
}

// Delete removes a quiz
func (q *QuizPostgreSQL) Delete(ctx context.Context, id uuid.UUID) error {
	result := q.db.WithContext(ctx).Delete(&models.QuizRecord{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete quiz %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrQuizNotFound
	}
	return nil
}

func (q *QuizPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	if filters.DocumentID != "" {
		query = query.Where("document_id = ?", filters.DocumentID)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	return query
}

func (q *QuizPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.QuizFilters) *gorm.DB {
	order := "created_at DESC"
	if filters.SortOrder == "asc" {
		order = "created_at ASC"
	}
	return query.
		Order(order).
		Limit(repositories.NormalizeLimit(filters.Limit)).
		Offset(max(filters.Offset, 0))
}
