package grading

import (
	"strings"

	"github.com/studypilot/assessment-service/internal/models"
)

// Grade compares a raw answer with the question's answer key. Both sides are
// trimmed; MCQ keys compare case-sensitively, fill-blank keys do not. A blank
// answer is never correct.
func Grade(q models.DeterministicQuestion, raw string) bool {
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return false
	}

	key := q.AnswerKey()
	expected := strings.TrimSpace(key.Value)
	if key.CaseSensitive {
		return answer == expected
	}
	return strings.EqualFold(answer, expected)
}
