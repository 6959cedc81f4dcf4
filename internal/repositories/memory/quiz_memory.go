package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/repositories"
)

// QuizMemory keeps quizzes in process memory. It backs the service when no
// database is configured and is used in tests.
type QuizMemory struct {
	mu      sync.RWMutex
	quizzes map[uuid.UUID]models.QuizRecord
}

func NewQuizMemory() repositories.QuizRepository {
	return &QuizMemory{quizzes: make(map[uuid.UUID]models.QuizRecord)}
}

func (m *QuizMemory) Create(ctx context.Context, quiz *models.QuizRecord) error {
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[quiz.ID] = *quiz
	return nil
}

func (m *QuizMemory) GetByID(ctx context.Context, id uuid.UUID) (*models.QuizRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	quiz, ok := m.quizzes[id]
	if !ok {
		return nil, repositories.ErrQuizNotFound
	}
	return &quiz, nil
}

func (m *QuizMemory) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.QuizRecord, int64, error) {
	m.mu.RLock()
	var matched []*models.QuizRecord
	for _, quiz := range m.quizzes {
		if filters.DocumentID != "" && quiz.DocumentID != filters.DocumentID {
			continue
		}
		if filters.Difficulty != nil && quiz.Difficulty != *filters.Difficulty {
			continue
		}
		quiz := quiz
		matched = append(matched, &quiz)
	}
	m.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if filters.SortOrder == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	offset := min(max(filters.Offset, 0), len(matched))
	end := min(offset+repositories.NormalizeLimit(filters.Limit), len(matched))
	return matched[offset:end], total, nil
}

func (m *QuizMemory) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.quizzes[id]; !ok {
		return repositories.ErrQuizNotFound
	}
	delete(m.quizzes, id)
	return nil
}
