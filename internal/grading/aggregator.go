package grading

import (
	"math"

	"github.com/studypilot/assessment-service/internal/models"
)

// Aggregate reduces an outcome table to a score summary. Questions without an
// answer contribute nothing regardless of the table. The result depends only
// on its inputs.
func Aggregate(quiz *models.Quiz, answers models.AnswerMap, table models.OutcomeTable) models.ScoreSummary {
	total := quiz.Len()

	var sum float64
	for i := 0; i < total; i++ {
		if _, ok := answers[i]; !ok {
			continue
		}
		if outcome, ok := table[i]; ok && outcome != nil {
			sum += clampCredit(outcome.Credit())
		}
	}

	summary := models.ScoreSummary{
		Correct: roundHalfUp(sum*10) / 10,
		Total:   total,
	}
	if total == 0 {
		summary.NoQuestions = true
		return summary
	}

	// The percentage comes from the unrounded sum; Correct is display rounding.
	percentage := int(roundHalfUp(sum / float64(total) * 100))
	summary.Percentage = &percentage
	return summary
}

func clampCredit(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

// roundHalfUp rounds x.5 toward +Inf.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
