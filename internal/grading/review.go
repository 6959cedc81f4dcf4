package grading

import (
	"github.com/studypilot/assessment-service/internal/models"
)

// BuildReview lists, per question, what the learner answered and how it was
// judged.
func BuildReview(quiz *models.Quiz, answers models.AnswerMap, table models.OutcomeTable) []models.QuestionReview {
	reviews := make([]models.QuestionReview, 0, quiz.Len())

	for i, q := range quiz.Questions() {
		raw, answered := answers.Answered(i)
		review := models.QuestionReview{
			Index:       i,
			Type:        q.Type(),
			Question:    q.Base().Text,
			Explanation: q.Base().Explanation,
			UserAnswer:  raw,
			Answered:    answered,
		}

		models.MatchQuestion(q,
			func(q *models.MCQQuestion) struct{} {
				review.CorrectAnswer = q.CorrectAnswer
				return struct{}{}
			},
			func(q *models.FillBlankQuestion) struct{} {
				review.CorrectAnswer = q.CorrectAnswer
				return struct{}{}
			},
			func(q *models.ShortAnswerQuestion) struct{} {
				review.ExpectedAnswer = q.ExpectedAnswer
				return struct{}{}
			},
		)

		if outcome, ok := table[i]; ok && outcome != nil {
			outcome.AcceptOutcome(&reviewFiller{review: &review})
			if _, inMap := answers[i]; inMap {
				review.Credit = clampCredit(outcome.Credit())
			}
		}

		reviews = append(reviews, review)
	}

	return reviews
}

type reviewFiller struct {
	review *models.QuestionReview
}

func (f *reviewFiller) VisitBinary(o models.BinaryOutcome) {
	correct := o.Correct
	f.review.IsCorrect = &correct
}

func (f *reviewFiller) VisitScored(o models.ScoredOutcome) {
	record := o.Record
	f.review.Grade = &record
	f.review.Band = record.Band()
	f.review.Fallback = o.Fallback
}
