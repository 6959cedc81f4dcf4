package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/events"
	"github.com/studypilot/assessment-service/internal/metrics"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/session"
	"github.com/studypilot/assessment-service/internal/validator"
)

const eventPublishTimeout = 5 * time.Second

type sessionService struct {
	assessor  session.Assessor
	quizzes   QuizService
	publisher events.EventPublisher
	validator *validator.Validator
	metrics   *metrics.Metrics
	logger    *ServiceLogger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session.Session
}

func NewSessionService(
	assessor session.Assessor,
	quizzes QuizService,
	publisher events.EventPublisher,
	validator *validator.Validator,
	logger *slog.Logger,
	m *metrics.Metrics,
) SessionService {
	return &sessionService{
		assessor:  assessor,
		quizzes:   quizzes,
		publisher: publisher,
		validator: validator,
		metrics:   m,
		logger:    NewServiceLogger(logger, LogConfig{Service: "assessment", Component: "session"}),
		sessions:  make(map[uuid.UUID]*session.Session),
	}
}

// ===== LIFECYCLE =====

func (s *sessionService) Create(ctx context.Context, req *ConfigureSessionRequest) (snap *models.SessionSnapshot, err error) {
	op := s.logger.WithOperation(ctx, "create_session")
	id := uuid.New()
	defer func() {
		s.metrics.SessionOperation("create", err)
		op.LogResult(id, "session", err)
	}()

	sess := session.New(s.assessor, session.Config{
		ID:          id,
		Logger:      s.logger.Logger(),
		OnSubmitted: s.onSubmitted,
		OnGraded:    s.onGraded,
	})

	if req != nil && (req.QuizID != nil || req.Quiz != nil) {
		if err := s.configure(ctx, sess, req); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.sessions[id] = sess
	active := len(s.sessions)
	s.mu.Unlock()
	s.metrics.SetActiveSessions(active)

	return snapshotOf(sess), nil
}

func (s *sessionService) Configure(ctx context.Context, id uuid.UUID, req *ConfigureSessionRequest) (snap *models.SessionSnapshot, err error) {
	defer func() { s.metrics.SessionOperation("configure", err) }()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := s.configure(ctx, sess, req); err != nil {
		return nil, err
	}
	return snapshotOf(sess), nil
}

func (s *sessionService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	op := s.logger.WithOperation(ctx, "delete_session")
	defer func() {
		s.metrics.SessionOperation("delete", err)
		op.LogResult(id, "session", err)
	}()

	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	active := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	// Cancels any grading still running for the session.
	sess.Reset()
	s.metrics.SetActiveSessions(active)
	return nil
}

func (s *sessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle since before cutoff. Sessions still grading are
// kept; they are touched again once the result commits.
func (s *sessionService) Sweep(ctx context.Context, cutoff time.Time) int {
	s.mu.Lock()
	var expired []*session.Session
	for id, sess := range s.sessions {
		if sess.GradingInProgress() || !sess.UpdatedAt().Before(cutoff) {
			continue
		}
		delete(s.sessions, id)
		expired = append(expired, sess)
	}
	active := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Reset()
	}
	if len(expired) > 0 {
		s.metrics.SetActiveSessions(active)
		s.logger.Logger().Info("Swept idle sessions", "removed", len(expired), "active", active)
	}
	return len(expired)
}

// ===== ANSWERING =====

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*models.SessionSnapshot, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return snapshotOf(sess), nil
}

func (s *sessionService) SetAnswer(ctx context.Context, id uuid.UUID, index int, answer string) (snap *models.SessionSnapshot, err error) {
	defer func() { s.metrics.SessionOperation("set_answer", err) }()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if err := sess.SetAnswer(index, answer); err != nil {
		return nil, err
	}
	return snapshotOf(sess), nil
}

// ===== SUBMISSION =====

// Submit starts grading. With wait it blocks until the result is ready or
// ctx ends; an expired or cancelled ctx yields a pending response, not an
// error, since grading carries on regardless.
func (s *sessionService) Submit(ctx context.Context, id uuid.UUID, wait bool) (resp *SubmitResponse, err error) {
	op := s.logger.WithOperation(ctx, "submit_session")
	defer func() {
		s.metrics.SessionOperation("submit", err)
		op.LogResult(id, "session", err)
	}()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if wait {
		result, err := sess.Submit(ctx)
		switch {
		case err == nil:
			return &SubmitResponse{Session: snapshotOf(sess), Result: result}, nil
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return &SubmitResponse{Session: snapshotOf(sess), Pending: true}, nil
		default:
			return nil, err
		}
	}

	done, err := sess.Start(ctx)
	if err != nil {
		return nil, err
	}

	select {
	case <-done:
		if result, ok := sess.Result(); ok {
			return &SubmitResponse{Session: snapshotOf(sess), Result: result}, nil
		}
	default:
	}
	return &SubmitResponse{Session: snapshotOf(sess), Pending: true}, nil
}

func (s *sessionService) Result(ctx context.Context, id uuid.UUID) (*models.GradingResult, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	if result, ok := sess.Result(); ok {
		return result, nil
	}
	if sess.GradingInProgress() {
		return nil, ErrGradingPending
	}
	return nil, ErrSessionNotGraded
}

// ===== RESET =====

func (s *sessionService) Reset(ctx context.Context, id uuid.UUID) (snap *models.SessionSnapshot, err error) {
	op := s.logger.WithOperation(ctx, "reset_session")
	defer func() {
		s.metrics.SessionOperation("reset", err)
		op.LogResult(id, "session", err)
	}()

	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	previous := sess.State()
	sess.Reset()
	s.publish(ctx, events.NewSessionResetEvent(id, string(previous)))

	return snapshotOf(sess), nil
}

// ===== HELPERS =====

func (s *sessionService) lookup(id uuid.UUID) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) configure(ctx context.Context, sess *session.Session, req *ConfigureSessionRequest) error {
	quiz, quizID, err := s.resolveQuiz(ctx, req)
	if err != nil {
		return err
	}
	if err := sess.Configure(quiz, quizID); err != nil {
		return err
	}

	s.publish(ctx, events.NewSessionConfiguredEvent(sess.ID(), quizID, quiz.Len()))
	return nil
}

// resolveQuiz loads a stored quiz or validates an inline one.
func (s *sessionService) resolveQuiz(ctx context.Context, req *ConfigureSessionRequest) (*models.Quiz, *uuid.UUID, error) {
	switch {
	case req == nil || (req.QuizID == nil && req.Quiz == nil):
		return nil, nil, ErrQuizSourceEmpty
	case req.QuizID != nil && req.Quiz != nil:
		return nil, nil, fmt.Errorf("%w: quiz_id and quiz are mutually exclusive", ErrValidationFailed)
	case req.QuizID != nil:
		quiz, err := s.quizzes.LoadQuiz(ctx, *req.QuizID)
		if err != nil {
			return nil, nil, err
		}
		quizID := *req.QuizID
		return quiz, &quizID, nil
	default:
		if err := s.validator.Validate(req.Quiz); err != nil {
			return nil, nil, err
		}
		quiz, err := s.validator.Question().ValidatePayload(*req.Quiz)
		if err != nil {
			return nil, nil, err
		}
		return quiz, nil, nil
	}
}

func (s *sessionService) onSubmitted(id uuid.UUID, questions, answered int) {
	ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
	defer cancel()
	s.publish(ctx, events.NewSessionSubmittedEvent(id, questions, answered))
}

// onGraded runs on the grading goroutine once a result is committed.
func (s *sessionService) onGraded(id uuid.UUID, result *models.GradingResult) {
	ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
	defer cancel()

	summary := result.Summary
	fallbacks := result.Outcomes.Fallbacks(summary.Total)
	for _, index := range fallbacks {
		question := ""
		if index < len(result.Review) {
			question = result.Review[index].Question
		}
		s.publish(ctx, events.NewGradingFallbackEvent(id, index, question))
	}

	s.publish(ctx, events.NewSessionGradedEvent(id, summary.Correct, summary.Total, summary.Percentage, fallbacks))
}

// publish never fails the calling operation; events are best effort.
func (s *sessionService) publish(ctx context.Context, event *events.AssessmentEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Logger().Warn("Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}

func snapshotOf(sess *session.Session) *models.SessionSnapshot {
	snap := sess.Snapshot()
	return &snap
}
