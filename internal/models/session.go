package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionState string

const (
	SessionConfiguring SessionState = "configuring"
	SessionGenerated   SessionState = "generated"
	SessionAnswering   SessionState = "answering"
	SessionGrading     SessionState = "grading"
	SessionGraded      SessionState = "graded"
)

// AcceptsAnswers reports whether answers may still change in this state.
func (s SessionState) AcceptsAnswers() bool {
	return s == SessionGenerated || s == SessionAnswering
}

// Frozen reports whether the answer map has been frozen by a submit.
func (s SessionState) Frozen() bool {
	return s == SessionGrading || s == SessionGraded
}

// SessionSnapshot is a consistent, read-only view of a session.
type SessionSnapshot struct {
	ID                uuid.UUID      `json:"id"`
	QuizID            *uuid.UUID     `json:"quiz_id,omitempty"`
	State             SessionState   `json:"state"`
	GradingInProgress bool           `json:"grading_in_progress"`
	Generation        uint64         `json:"generation"`
	QuestionCount     int            `json:"question_count"`
	Quiz              *Quiz          `json:"quiz,omitempty"`
	Answers           AnswerMap      `json:"answers"`
	Result            *GradingResult `json:"result,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
