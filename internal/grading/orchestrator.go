package grading

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/studypilot/assessment-service/internal/metrics"
	"github.com/studypilot/assessment-service/internal/models"
)

// Options tunes how short answers are dispatched to the semantic grader.
type Options struct {
	// MaxConcurrent caps in-flight grader calls; zero means no cap.
	MaxConcurrent int
	// DelegateTimeout sets a deadline on the ctx passed to each grader call;
	// zero means no timeout. It is cooperative: a grader that ignores ctx runs
	// to completion and its answer is used.
	DelegateTimeout time.Duration
}

// Orchestrator grades every question of a quiz. Deterministic questions are
// graded inline; answered short answers are sent to the semantic grader
// concurrently, each in isolation.
type Orchestrator struct {
	grader  SemanticGrader
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewOrchestrator(grader SemanticGrader, opts Options, logger *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		grader:  grader,
		opts:    opts,
		logger:  logger.With("component", "grading_orchestrator"),
		metrics: m,
	}
}

// ===== GRADING PASS =====

// Grade produces the outcome table for quiz given answers. It returns only
// after every grader call has resolved, successfully or with a fallback.
// Cancelling ctx makes outstanding calls fail, which yields fallbacks.
func (o *Orchestrator) Grade(ctx context.Context, quiz *models.Quiz, answers models.AnswerMap) models.OutcomeTable {
	n := quiz.Len()
	slots := make([]models.Outcome, n)

	d := &dispatcher{
		orchestrator: o,
		ctx:          ctx,
		answers:      answers,
		slots:        slots,
	}
	if o.opts.MaxConcurrent > 0 {
		d.sem = make(chan struct{}, o.opts.MaxConcurrent)
	}

	for i := 0; i < n; i++ {
		d.index = i
		quiz.At(i).Accept(d)
	}
	d.wg.Wait()

	table := make(models.OutcomeTable, n)
	for i, outcome := range slots {
		if outcome != nil {
			table[i] = outcome
		}
	}

	o.logger.Debug("Grading pass finished",
		"questions", n,
		"delegated", d.delegated,
		"outcomes", len(table))

	return table
}

// Assess grades quiz and aggregates the result.
func (o *Orchestrator) Assess(ctx context.Context, quiz *models.Quiz, answers models.AnswerMap) *models.GradingResult {
	start := time.Now()
	table := o.Grade(ctx, quiz, answers)
	summary := Aggregate(quiz, answers, table)

	o.metrics.ObserveGradingPass(time.Since(start))
	o.metrics.ObserveScore(summary.Percentage)

	return &models.GradingResult{
		Summary:  summary,
		Outcomes: table,
		Answers:  answers.Clone(),
		Review:   BuildReview(quiz, answers, table),
		GradedAt: time.Now().UTC(),
	}
}

// dispatcher routes each question to the right grading path. Each short
// answer goroutine writes only its own slot.
type dispatcher struct {
	orchestrator *Orchestrator
	ctx          context.Context
	answers      models.AnswerMap
	slots        []models.Outcome
	sem          chan struct{}
	wg           sync.WaitGroup
	index        int
	delegated    int
}

func (d *dispatcher) VisitMCQ(q *models.MCQQuestion) {
	d.slots[d.index] = models.BinaryOutcome{Correct: Grade(q, d.answers[d.index])}
}

func (d *dispatcher) VisitFillBlank(q *models.FillBlankQuestion) {
	d.slots[d.index] = models.BinaryOutcome{Correct: Grade(q, d.answers[d.index])}
}

func (d *dispatcher) VisitShortAnswer(q *models.ShortAnswerQuestion) {
	raw, answered := d.answers.Answered(d.index)
	if !answered {
		return
	}

	d.delegated++
	d.wg.Add(1)
	go func(index int) {
		defer d.wg.Done()
		d.slots[index] = d.orchestrator.gradeShortAnswer(d.ctx, d.sem, index, q, raw)
	}(d.index)
}

// ===== SHORT ANSWERS =====

func (o *Orchestrator) gradeShortAnswer(ctx context.Context, sem chan struct{}, index int, q *models.ShortAnswerQuestion, raw string) (outcome models.Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			outcome = o.fallback(index, q, fmt.Errorf("grader panicked: %v", r), start)
		}
	}()

	if sem != nil {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
		case <-ctx.Done():
			return o.fallback(index, q, ctx.Err(), start)
		}
	}

	callCtx := ctx
	if o.opts.DelegateTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.opts.DelegateTimeout)
		defer cancel()
	}

	record, err := o.grader.GradeShortAnswer(callCtx, NewShortAnswerRequest(q, raw))
	if err == nil {
		err = record.Validate()
	}
	if err != nil {
		return o.fallback(index, q, err, start)
	}

	o.metrics.ObserveDelegate("success", time.Since(start))
	return models.ScoredOutcome{Record: normalizeRecord(*record)}
}

func (o *Orchestrator) fallback(index int, q *models.ShortAnswerQuestion, err error, start time.Time) models.Outcome {
	o.logger.Warn("Short answer grading failed, using fallback record",
		"question_index", index,
		"error", err)
	o.metrics.ObserveDelegate("fallback", time.Since(start))

	return models.ScoredOutcome{
		Record:   models.FallbackGradeRecord(q.KeyPoints),
		Fallback: true,
	}
}
