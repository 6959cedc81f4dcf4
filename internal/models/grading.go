package models

import (
	"fmt"
	"math"
	"time"
)

// FallbackFeedback labels a short answer that could not be graded.
const FallbackFeedback = "Failed to grade automatically"

// GradeRecord is the semantic grader's verdict on one short answer.
type GradeRecord struct {
	Score         int      `json:"score"`
	Feedback      string   `json:"feedback"`
	PointsCovered []string `json:"points_covered"`
	PointsMissed  []string `json:"points_missed"`
}

// Validate rejects payloads outside the grader contract.
func (r *GradeRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("grade record is missing")
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score %d outside [0,100]", r.Score)
	}
	return nil
}

// FallbackGradeRecord is substituted when the grader fails for a question.
func FallbackGradeRecord(keyPoints []string) GradeRecord {
	missed := append([]string{}, keyPoints...)
	return GradeRecord{
		Score:         0,
		Feedback:      FallbackFeedback,
		PointsCovered: []string{},
		PointsMissed:  missed,
	}
}

type ScoreBand string

const (
	BandGood    ScoreBand = "good"
	BandPartial ScoreBand = "partial"
	BandPoor    ScoreBand = "poor"
)

// Band buckets the score for display.
func (r GradeRecord) Band() ScoreBand {
	switch {
	case r.Score >= 80:
		return BandGood
	case r.Score >= 60:
		return BandPartial
	default:
		return BandPoor
	}
}

// ===== OUTCOMES =====

// Outcome is the per-question grading result: BinaryOutcome for
// deterministic questions, ScoredOutcome for short answers.
type Outcome interface {
	// Credit is the contribution to the aggregate, in [0,1].
	Credit() float64
	AcceptOutcome(v OutcomeVisitor)
	isOutcome()
}

type OutcomeVisitor interface {
	VisitBinary(o BinaryOutcome)
	VisitScored(o ScoredOutcome)
}

type BinaryOutcome struct {
	Correct bool `json:"is_correct"`
}

func (o BinaryOutcome) Credit() float64 {
	if o.Correct {
		return 1
	}
	return 0
}

func (o BinaryOutcome) AcceptOutcome(v OutcomeVisitor) { v.VisitBinary(o) }
func (o BinaryOutcome) isOutcome()                     {}

type ScoredOutcome struct {
	Record GradeRecord `json:"record"`
	// Fallback marks a record substituted after a grader failure.
	Fallback bool `json:"fallback"`
}

func (o ScoredOutcome) Credit() float64 {
	return float64(o.Record.Score) / 100
}

func (o ScoredOutcome) AcceptOutcome(v OutcomeVisitor) { v.VisitScored(o) }
func (o ScoredOutcome) isOutcome()                     {}

// OutcomeTable maps question index to outcome. Unanswered short answers have
// no entry.
type OutcomeTable map[int]Outcome

// Fallbacks returns the indices graded with a fallback record, ascending.
func (t OutcomeTable) Fallbacks(total int) []int {
	var out []int
	for i := 0; i < total; i++ {
		if o, ok := t[i].(ScoredOutcome); ok && o.Fallback {
			out = append(out, i)
		}
	}
	return out
}

// ScoreSummary is the aggregate result of a graded quiz. Percentage is nil
// when the quiz has no questions.
type ScoreSummary struct {
	Correct     float64 `json:"correct"`
	Total       int     `json:"total"`
	Percentage  *int    `json:"percentage"`
	NoQuestions bool    `json:"no_questions,omitempty"`
}

// PercentageValue returns the percentage and whether it is defined.
func (s ScoreSummary) PercentageValue() (int, bool) {
	if s.Percentage == nil {
		return 0, false
	}
	return *s.Percentage, true
}

// String renders the summary the way the results screen shows it.
func (s ScoreSummary) String() string {
	if p, ok := s.PercentageValue(); ok {
		return fmt.Sprintf("%s / %d (%d%%)", formatCorrect(s.Correct), s.Total, p)
	}
	return fmt.Sprintf("%s / %d (no questions)", formatCorrect(s.Correct), s.Total)
}

func formatCorrect(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

// QuestionReview is the per-question detail shown after grading.
type QuestionReview struct {
	Index          int          `json:"index"`
	Type           QuestionType `json:"type"`
	Question       string       `json:"question"`
	Explanation    string       `json:"explanation,omitempty"`
	UserAnswer     string       `json:"user_answer"`
	Answered       bool         `json:"answered"`
	CorrectAnswer  string       `json:"correct_answer,omitempty"`
	ExpectedAnswer string       `json:"expected_answer,omitempty"`
	IsCorrect      *bool        `json:"is_correct,omitempty"`
	Grade          *GradeRecord `json:"grade,omitempty"`
	Band           ScoreBand    `json:"band,omitempty"`
	Fallback       bool         `json:"fallback,omitempty"`
	Credit         float64      `json:"credit"`
}

// GradingResult is everything a graded session exposes.
type GradingResult struct {
	Summary  ScoreSummary     `json:"summary"`
	Outcomes OutcomeTable     `json:"-"`
	Answers  AnswerMap        `json:"answers"`
	Review   []QuestionReview `json:"review"`
	GradedAt time.Time        `json:"graded_at"`
}
