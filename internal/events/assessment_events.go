package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	eventSource  = "assessment-service"
	eventVersion = "1.0"
)

// EventType represents the lifecycle events an assessment session emits
type EventType string

const (
	// Session events
	EventSessionConfigured EventType = "session.configured"
	EventSessionSubmitted  EventType = "session.submitted"
	EventSessionGraded     EventType = "session.graded"
	EventSessionReset      EventType = "session.reset"

	// Grading events
	EventGradingFallback EventType = "grading.fallback"
)

// AssessmentEvent is the envelope for every published event
type AssessmentEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session event payloads

type SessionConfiguredEvent struct {
	SessionID     string  `json:"session_id"`
	QuizID        *string `json:"quiz_id,omitempty"`
	QuestionCount int     `json:"question_count"`
}

type SessionSubmittedEvent struct {
	SessionID     string `json:"session_id"`
	QuestionCount int    `json:"question_count"`
	Answered      int    `json:"answered"`
}

type SessionGradedEvent struct {
	SessionID   string  `json:"session_id"`
	Correct     float64 `json:"correct"`
	Total       int     `json:"total"`
	Percentage  *int    `json:"percentage"`
	NoQuestions bool    `json:"no_questions,omitempty"`
	Fallbacks   []int   `json:"fallbacks,omitempty"`
}

type SessionResetEvent struct {
	SessionID     string `json:"session_id"`
	PreviousState string `json:"previous_state"`
}

// Grading event payloads

type GradingFallbackEvent struct {
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
	Question      string `json:"question"`
}

func newEvent(eventType EventType, data interface{}) *AssessmentEvent {
	return &AssessmentEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewSessionConfiguredEvent(sessionID uuid.UUID, quizID *uuid.UUID, questionCount int) *AssessmentEvent {
	data := SessionConfiguredEvent{
		SessionID:     sessionID.String(),
		QuestionCount: questionCount,
	}
	if quizID != nil {
		id := quizID.String()
		data.QuizID = &id
	}
	return newEvent(EventSessionConfigured, data)
}

func NewSessionSubmittedEvent(sessionID uuid.UUID, questionCount, answered int) *AssessmentEvent {
	return newEvent(EventSessionSubmitted, SessionSubmittedEvent{
		SessionID:     sessionID.String(),
		QuestionCount: questionCount,
		Answered:      answered,
	})
}

func NewSessionGradedEvent(sessionID uuid.UUID, correct float64, total int, percentage *int, fallbacks []int) *AssessmentEvent {
	return newEvent(EventSessionGraded, SessionGradedEvent{
		SessionID:   sessionID.String(),
		Correct:     correct,
		Total:       total,
		Percentage:  percentage,
		NoQuestions: total == 0,
		Fallbacks:   fallbacks,
	})
}

func NewSessionResetEvent(sessionID uuid.UUID, previousState string) *AssessmentEvent {
	return newEvent(EventSessionReset, SessionResetEvent{
		SessionID:     sessionID.String(),
		PreviousState: previousState,
	})
}

func NewGradingFallbackEvent(sessionID uuid.UUID, index int, question string) *AssessmentEvent {
	return newEvent(EventGradingFallback, GradingFallbackEvent{
		SessionID:     sessionID.String(),
		QuestionIndex: index,
		Question:      question,
	})
}
