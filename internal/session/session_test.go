package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/studypilot/assessment-service/internal/errors"
	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/models"
)

// gatedGrader blocks every call until release is closed.
type gatedGrader struct {
	release chan struct{}
	calls   int32
	score   int
}

func newGatedGrader(score int) *gatedGrader {
	return &gatedGrader{release: make(chan struct{}), score: score}
}

func (g *gatedGrader) GradeShortAnswer(ctx context.Context, req grading.ShortAnswerRequest) (*models.GradeRecord, error) {
	atomic.AddInt32(&g.calls, 1)
	select {
	case <-g.release:
		return &models.GradeRecord{Score: g.score, Feedback: "ok"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newTestSession(grader grading.SemanticGrader) *Session {
	return New(grading.NewOrchestrator(grader, grading.Options{}, nil, nil), Config{})
}

func mixedQuiz() *models.Quiz {
	return models.NewQuiz(
		&models.MCQQuestion{QuestionBase: models.QuestionBase{Text: "m"}, Options: []string{"A", "B"}, CorrectAnswer: "A"},
		&models.FillBlankQuestion{QuestionBase: models.QuestionBase{Text: "f"}, CorrectAnswer: "Paris"},
		&models.ShortAnswerQuestion{QuestionBase: models.QuestionBase{Text: "s"}, ExpectedAnswer: "e", KeyPoints: []string{"x"}},
	)
}

func TestSession_HappyPath(t *testing.T) {
	grader := newGatedGrader(60)
	close(grader.release)
	s := newTestSession(grader)

	assert.Equal(t, models.SessionConfiguring, s.State())
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	assert.Equal(t, models.SessionGenerated, s.State())

	require.NoError(t, s.SetAnswer(0, "A"))
	assert.Equal(t, models.SessionAnswering, s.State())
	require.NoError(t, s.SetAnswer(1, "Rome"))
	require.NoError(t, s.SetAnswer(2, "an answer"))

	result, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.SessionGraded, s.State())
	assert.False(t, s.GradingInProgress())
	assert.InDelta(t, 1.6, result.Summary.Correct, 1e-9)
	assert.Equal(t, 3, result.Summary.Total)
	require.NotNil(t, result.Summary.Percentage)
	assert.Equal(t, 53, *result.Summary.Percentage)

	stored, ok := s.Result()
	require.True(t, ok)
	assert.Same(t, result, stored)
}

func TestSession_ConfigureRejectsInvalidQuiz(t *testing.T) {
	s := newTestSession(newGatedGrader(0))

	err := s.Configure(models.NewQuiz(&models.MCQQuestion{
		QuestionBase:  models.QuestionBase{Text: "m"},
		Options:       []string{"A", "B"},
		CorrectAnswer: "C",
	}), nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidQuiz))
	assert.Equal(t, models.SessionConfiguring, s.State())
}

func TestSession_ConfigureTwice(t *testing.T) {
	s := newTestSession(newGatedGrader(0))
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	assert.ErrorIs(t, s.Configure(mixedQuiz(), nil), ErrAlreadyConfigured)
}

func TestSession_SetAnswerErrors(t *testing.T) {
	s := newTestSession(newGatedGrader(0))

	assert.ErrorIs(t, s.SetAnswer(0, "A"), ErrNoQuiz)

	require.NoError(t, s.Configure(mixedQuiz(), nil))
	assert.ErrorIs(t, s.SetAnswer(3, "A"), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.SetAnswer(-1, "A"), ErrIndexOutOfRange)
	assert.Equal(t, models.SessionGenerated, s.State())

	require.NoError(t, s.SetAnswer(0, "B"))
	require.NoError(t, s.SetAnswer(0, "A"))
	assert.Equal(t, models.AnswerMap{0: "A"}, s.Snapshot().Answers)
}

func TestSession_AnswersFreezeOnSubmit(t *testing.T) {
	grader := newGatedGrader(100)
	s := newTestSession(grader)
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	require.NoError(t, s.SetAnswer(2, "text"))

	_, err := s.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, s.GradingInProgress())
	assert.ErrorIs(t, s.SetAnswer(0, "A"), ErrStaleSubmission)

	_, ok := s.Result()
	assert.False(t, ok, "no result while grading is outstanding")

	close(grader.release)
	result, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.SetAnswer(0, "A"), ErrStaleSubmission)
	assert.Equal(t, models.AnswerMap{2: "text"}, result.Answers)
}

func TestSession_SubmitIsIdempotent(t *testing.T) {
	grader := newGatedGrader(80)
	s := newTestSession(grader)
	require.NoError(t, s.Configure(models.NewQuiz(
		&models.ShortAnswerQuestion{QuestionBase: models.QuestionBase{Text: "s"}, ExpectedAnswer: "e", KeyPoints: []string{"x", "y"}},
	), nil))
	require.NoError(t, s.SetAnswer(0, "answer"))

	var wg sync.WaitGroup
	results := make([]*models.GradingResult, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := s.Submit(context.Background())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&grader.calls) == 1 }, time.Second, 5*time.Millisecond)
	close(grader.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&grader.calls))
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
	assert.InDelta(t, 0.8, results[0].Summary.Correct, 1e-9)

	again, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Same(t, results[0], again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&grader.calls))
}

func TestSession_SubmitFromGeneratedWithNoAnswers(t *testing.T) {
	s := newTestSession(newGatedGrader(0))
	require.NoError(t, s.Configure(mixedQuiz(), nil))

	result, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Summary.Correct)
	require.NotNil(t, result.Summary.Percentage)
	assert.Equal(t, 0, *result.Summary.Percentage)
}

func TestSession_EmptyQuiz(t *testing.T) {
	s := newTestSession(newGatedGrader(0))
	require.NoError(t, s.Configure(models.NewQuiz(), nil))

	result, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Summary.Total)
	assert.True(t, result.Summary.NoQuestions)
	assert.Nil(t, result.Summary.Percentage)
}

func TestSession_SubmitWithoutQuiz(t *testing.T) {
	s := newTestSession(newGatedGrader(0))
	_, err := s.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNoQuiz)
}

func TestSession_SubmitWaitBoundedByContext(t *testing.T) {
	grader := newGatedGrader(50)
	s := newTestSession(grader)
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	require.NoError(t, s.SetAnswer(2, "x"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Submit(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The pass keeps running after the caller gave up.
	assert.True(t, s.GradingInProgress())
	close(grader.release)

	result, err := s.Submit(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Summary.Correct, 1e-9)
}

func TestSession_ResetDiscardsInFlightGrading(t *testing.T) {
	grader := newGatedGrader(100)
	var graded int32
	s := New(grading.NewOrchestrator(grader, grading.Options{}, nil, nil), Config{
		OnGraded: func(id uuid.UUID, result *models.GradingResult) { atomic.AddInt32(&graded, 1) },
	})
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	require.NoError(t, s.SetAnswer(2, "x"))

	done, err := s.Start(context.Background())
	require.NoError(t, err)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&grader.calls) == 1 }, time.Second, 5*time.Millisecond)

	s.Reset()
	assert.Equal(t, models.SessionConfiguring, s.State())
	assert.False(t, s.GradingInProgress())

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cancelled grading pass did not finish")
	}

	snap := s.Snapshot()
	assert.Nil(t, snap.Quiz)
	assert.Empty(t, snap.Answers)
	assert.Nil(t, snap.Result)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.Equal(t, int32(0), atomic.LoadInt32(&graded))

	// A freshly configured session is untouched by the old pass.
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	assert.Equal(t, models.SessionGenerated, s.State())
	assert.Empty(t, s.Snapshot().Answers)
}

func TestSession_ResetWhileWaitingReturnsErrReset(t *testing.T) {
	grader := newGatedGrader(100)
	s := newTestSession(grader)
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	require.NoError(t, s.SetAnswer(2, "x"))

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background())
		errCh <- err
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&grader.calls) == 1 }, time.Second, 5*time.Millisecond)
	s.Reset()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrReset)
	case <-time.After(time.Second):
		t.Fatal("submit did not return after reset")
	}
}

func TestSession_ResetAfterGraded(t *testing.T) {
	grader := newGatedGrader(100)
	close(grader.release)
	s := newTestSession(grader)
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	s.Reset()

	_, ok := s.Result()
	assert.False(t, ok)
	assert.Equal(t, models.SessionConfiguring, s.State())
	assert.ErrorIs(t, s.SetAnswer(0, "A"), ErrNoQuiz)
}

func TestSession_Hooks(t *testing.T) {
	grader := newGatedGrader(100)
	close(grader.release)

	id := uuid.New()
	var gotID uuid.UUID
	var gotResult *models.GradingResult
	var submits, gotQuestions, gotAnswered int
	s := New(grading.NewOrchestrator(grader, grading.Options{}, nil, nil), Config{
		ID: id,
		OnSubmitted: func(sid uuid.UUID, questions, answered int) {
			submits++
			gotQuestions, gotAnswered = questions, answered
		},
		OnGraded: func(sid uuid.UUID, result *models.GradingResult) {
			gotID = sid
			gotResult = result
		},
	})
	require.NoError(t, s.Configure(mixedQuiz(), nil))
	require.NoError(t, s.SetAnswer(0, "A"))
	require.NoError(t, s.SetAnswer(1, "   "))

	result, err := s.Submit(context.Background())
	require.NoError(t, err)
	_, err = s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, submits)
	assert.Equal(t, 3, gotQuestions)
	assert.Equal(t, 1, gotAnswered)
	assert.Equal(t, id, gotID)
	assert.Same(t, result, gotResult)
}
