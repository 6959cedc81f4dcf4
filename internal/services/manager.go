package services

import (
	"log/slog"
	"time"

	"github.com/studypilot/assessment-service/internal/events"
	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/metrics"
	"github.com/studypilot/assessment-service/internal/repositories"
	"github.com/studypilot/assessment-service/internal/session"
	"github.com/studypilot/assessment-service/internal/validator"
)

// ServiceManager gives handlers access to every service.
type ServiceManager interface {
	Quiz() QuizService
	Session() SessionService
	Grading() GradingService
	ImportExport() ImportExportService
}

// Dependencies carries what the services need from the outside world.
type Dependencies struct {
	QuizRepo      repositories.QuizRepository
	Assessor      session.Assessor
	Grader        grading.SemanticGrader
	GraderTimeout time.Duration
	Publisher     events.EventPublisher
	Validator     *validator.Validator
	Logger        *slog.Logger
	Metrics       *metrics.Metrics
}

type serviceManager struct {
	quiz         QuizService
	session      SessionService
	grading      GradingService
	importExport ImportExportService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewMockEventPublisher(deps.Logger)
	}

	quizService := NewQuizService(deps.QuizRepo, deps.Logger, deps.Validator)
	sessionService := NewSessionService(deps.Assessor, quizService, deps.Publisher, deps.Validator, deps.Logger, deps.Metrics)

	return &serviceManager{
		quiz:         quizService,
		session:      sessionService,
		grading:      NewGradingService(deps.Grader, deps.GraderTimeout, deps.Logger, deps.Validator),
		importExport: NewImportExportService(sessionService, deps.Logger, deps.Validator),
	}
}

func (m *serviceManager) Quiz() QuizService                 { return m.quiz }
func (m *serviceManager) Session() SessionService           { return m.session }
func (m *serviceManager) Grading() GradingService           { return m.grading }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
