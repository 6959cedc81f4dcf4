package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/studypilot/assessment-service/internal/models"
	"github.com/studypilot/assessment-service/internal/validator"
)

// Assessor grades a frozen answer map against a quiz.
type Assessor interface {
	Assess(ctx context.Context, quiz *models.Quiz, answers models.AnswerMap) *models.GradingResult
}

// SubmittedHook is called once per grading pass, before grading starts and
// outside the session lock.
type SubmittedHook func(id uuid.UUID, questions, answered int)

// GradedHook is called once per committed grading pass, outside the session
// lock.
type GradedHook func(id uuid.UUID, result *models.GradingResult)

type Config struct {
	ID          uuid.UUID
	Logger      *slog.Logger
	OnSubmitted SubmittedHook
	OnGraded    GradedHook
}

// Session drives one learner through configure, answer, submit and reset.
// All methods are safe for concurrent use.
//
// Every reset bumps the generation; a grading pass started under an older
// generation is cancelled and its result is dropped when it arrives.
type Session struct {
	id        uuid.UUID
	assessor  Assessor
	validator *validator.QuestionValidator
	logger    *slog.Logger
	onSubmit  SubmittedHook
	onGraded  GradedHook

	mu         sync.Mutex
	state      models.SessionState
	quiz       *models.Quiz
	quizID     *uuid.UUID
	answers    models.AnswerMap
	result     *models.GradingResult
	generation uint64
	cancel     context.CancelFunc
	done       chan struct{}
	createdAt  time.Time
	updatedAt  time.Time
}

func New(assessor Assessor, cfg Config) *Session {
	id := cfg.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now().UTC()

	return &Session{
		id:        id,
		assessor:  assessor,
		validator: validator.NewQuestionValidator(),
		logger:    logger.With("session_id", id.String()),
		onSubmit:  cfg.OnSubmitted,
		onGraded:  cfg.OnGraded,
		state:     models.SessionConfiguring,
		answers:   models.AnswerMap{},
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

// ===== CONFIGURATION =====

// Configure loads a quiz. It is only accepted in the configuring state, and
// an invalid quiz leaves the session unchanged.
func (s *Session) Configure(quiz *models.Quiz, quizID *uuid.UUID) error {
	if err := s.validator.ValidateQuiz(quiz); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.SessionConfiguring {
		return ErrAlreadyConfigured
	}

	s.quiz = quiz
	s.quizID = quizID
	s.answers = models.AnswerMap{}
	s.result = nil
	s.transition(models.SessionGenerated)

	s.logger.Info("Session configured", "questions", quiz.Len())
	return nil
}

// ===== ANSWERS =====

// SetAnswer records the learner's answer for question index, replacing any
// earlier answer.
func (s *Session) SetAnswer(index int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.state == models.SessionConfiguring:
		return ErrNoQuiz
	case s.state.Frozen():
		return ErrStaleSubmission
	}

	if !s.quiz.InRange(index) {
		return fmt.Errorf("%w: %d (quiz has %d questions)", ErrIndexOutOfRange, index, s.quiz.Len())
	}

	s.answers[index] = text
	if s.state == models.SessionGenerated {
		s.transition(models.SessionAnswering)
	} else {
		s.updatedAt = time.Now().UTC()
	}
	return nil
}

// ===== SUBMISSION =====

// Start freezes the answers and launches the grading pass, or joins the pass
// already running. The returned channel is closed when that pass resolves.
// Grading is detached from ctx's cancellation; only Reset stops it.
func (s *Session) Start(ctx context.Context) (<-chan struct{}, error) {
	done, _, err := s.start(ctx)
	return done, err
}

// Submit starts grading if needed and waits for the result. Repeated calls
// never start a second pass. ctx bounds only the wait.
func (s *Session) Submit(ctx context.Context) (*models.GradingResult, error) {
	done, generation, err := s.start(ctx)
	if err != nil {
		return nil, err
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || s.result == nil {
		return nil, ErrReset
	}
	return s.result, nil
}

func (s *Session) start(ctx context.Context) (chan struct{}, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case models.SessionConfiguring:
		return nil, 0, ErrNoQuiz
	case models.SessionGrading, models.SessionGraded:
		return s.done, s.generation, nil
	case models.SessionGenerated:
		// Submitting without answers still passes through answering.
		s.transition(models.SessionAnswering)
	}

	answers := s.answers.Clone()
	gradingCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	s.transition(models.SessionGrading)

	s.logger.Info("Submitting answers for grading",
		"questions", s.quiz.Len(),
		"answered", len(answers),
		"generation", s.generation)

	go s.grade(gradingCtx, s.generation, s.quiz, answers, s.done)

	return s.done, s.generation, nil
}

func (s *Session) grade(ctx context.Context, generation uint64, quiz *models.Quiz, answers models.AnswerMap, done chan struct{}) {
	defer close(done)

	if s.onSubmit != nil {
		answered := 0
		for i := 0; i < quiz.Len(); i++ {
			if _, ok := answers.Answered(i); ok {
				answered++
			}
		}
		s.onSubmit(s.id, quiz.Len(), answered)
	}

	result := s.assessor.Assess(ctx, quiz, answers)
	if !s.commit(generation, result) {
		s.logger.Info("Discarding grading result from a reset session", "generation", generation)
		return
	}

	s.logger.Info("Session graded",
		"correct", result.Summary.Correct,
		"total", result.Summary.Total,
		"percentage", result.Summary.Percentage)

	if s.onGraded != nil {
		s.onGraded(s.id, result)
	}
}

func (s *Session) commit(generation uint64, result *models.GradingResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != generation || s.state != models.SessionGrading {
		return false
	}

	s.result = result
	s.cancel()
	s.cancel = nil
	s.transition(models.SessionGraded)
	return true
}

// ===== RESET =====

// Reset discards the quiz, answers and any result in one step and returns
// the session to configuring. Outstanding grader calls are cancelled.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	previous := s.state
	s.generation++
	s.quiz = nil
	s.quizID = nil
	s.answers = models.AnswerMap{}
	s.result = nil
	s.done = nil
	s.transition(models.SessionConfiguring)

	s.logger.Info("Session reset", "previous_state", previous, "generation", s.generation)
}

// ===== QUERIES =====

func (s *Session) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// GradingInProgress is true from submit until every grading call resolved.
func (s *Session) GradingInProgress() bool {
	return s.State() == models.SessionGrading
}

// Result returns the graded result, if the session is graded.
func (s *Session) Result() (*models.GradingResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != models.SessionGraded {
		return nil, false
	}
	return s.result, true
}

// UpdatedAt is the time of the last state change or answer edit.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Quiz returns the configured quiz, or nil.
func (s *Session) Quiz() *models.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

func (s *Session) Snapshot() models.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := models.SessionSnapshot{
		ID:                s.id,
		QuizID:            s.quizID,
		State:             s.state,
		GradingInProgress: s.state == models.SessionGrading,
		Generation:        s.generation,
		QuestionCount:     s.quiz.Len(),
		Quiz:              s.quiz,
		Answers:           s.answers.Clone(),
		CreatedAt:         s.createdAt,
		UpdatedAt:         s.updatedAt,
	}
	if s.state == models.SessionGraded {
		snap.Result = s.result
	}
	return snap
}

func (s *Session) transition(to models.SessionState) {
	s.logger.Debug("Session state change", "from", s.state, "to", to)
	s.state = to
	s.updatedAt = time.Now().UTC()
}
