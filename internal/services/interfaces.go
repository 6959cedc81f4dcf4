package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/repositories"
)

// QuizService stores quizzes handed over by the generator.
type QuizService interface {
	Register(ctx context.Context, req *RegisterQuizRequest) (*QuizResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*QuizResponse, error)
	List(ctx context.Context, filters repositories.QuizFilters) (*QuizListResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// LoadQuiz returns the decoded quiz ready to be configured on a session.
	LoadQuiz(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
}

// SessionService owns the live assessment sessions.
type SessionService interface {
	Create(ctx context.Context, req *ConfigureSessionRequest) (*models.SessionSnapshot, error)
	Configure(ctx context.Context, id uuid.UUID, req *ConfigureSessionRequest) (*models.SessionSnapshot, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SessionSnapshot, error)
	SetAnswer(ctx context.Context, id uuid.UUID, index int, answer string) (*models.SessionSnapshot, error)
	Submit(ctx context.Context, id uuid.UUID, wait bool) (*SubmitResponse, error)
	Reset(ctx context.Context, id uuid.UUID) (*models.SessionSnapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Result(ctx context.Context, id uuid.UUID) (*models.GradingResult, error)
	Count() int
	// Sweep drops sessions untouched since cutoff and returns how many went.
	Sweep(ctx context.Context, cutoff time.Time) int
}

// GradingService exposes the semantic grader directly.
type GradingService interface {
	GradeShortAnswer(ctx context.Context, req *grading.ShortAnswerRequest) (*models.GradeRecord, error)
}

// ImportExportService converts quizzes from spreadsheets and session results
// to spreadsheets.
type ImportExportService interface {
	ImportQuizFromFile(ctx context.Context, reader io.Reader, filename string) (*ImportResult, error)
	ImportQuizFromCSV(ctx context.Context, reader io.Reader) (*ImportResult, error)
	ImportQuizFromExcel(ctx context.Context, reader io.Reader) (*ImportResult, error)

	ExportSessionResultsToExcel(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
	ExportSessionResultsToCSV(ctx context.Context, sessionID uuid.UUID) ([]byte, error)
}

// ===== REQUESTS =====

type RegisterQuizRequest struct {
	Title     string                   `json:"title" validate:"omitempty,max=200"`
	Params    models.GenerationParams  `json:"params"`
	Questions []models.QuestionPayload `json:"questions" validate:"dive"`
}

// ConfigureSessionRequest names a stored quiz or carries one inline. Both
// empty on Create yields an unconfigured session.
type ConfigureSessionRequest struct {
	QuizID *uuid.UUID          `json:"quiz_id,omitempty"`
	Quiz   *models.QuizPayload `json:"quiz,omitempty"`
}

// ===== RESPONSES =====

type QuizResponse struct {
	ID            uuid.UUID                `json:"id"`
	Title         string                   `json:"title"`
	DocumentID    string                   `json:"document_id"`
	Difficulty    models.Difficulty        `json:"difficulty"`
	Topic         string                   `json:"topic,omitempty"`
	QuestionTypes []models.QuestionType    `json:"question_types"`
	QuestionCount int                      `json:"question_count"`
	Questions     []models.QuestionPayload `json:"questions,omitempty"`
	CreatedAt     time.Time                `json:"created_at"`
}

type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// SubmitResponse is returned by Submit. Result is set once grading has
// finished; otherwise Pending is true and the client polls the session.
type SubmitResponse struct {
	Session *models.SessionSnapshot `json:"session"`
	Result  *models.GradingResult   `json:"result,omitempty"`
	Pending bool                    `json:"pending"`
}

type ImportResult struct {
	TotalRows    int                `json:"total_rows"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       ValidationErrors   `json:"errors,omitempty"`
	Quiz         models.QuizPayload `json:"quiz"`
}
