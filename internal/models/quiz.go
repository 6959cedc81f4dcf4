package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Quiz is an ordered, index-stable sequence of questions. It is not mutated
// after construction.
type Quiz struct {
	questions []Question
}

func NewQuiz(questions ...Question) *Quiz {
	return &Quiz{questions: append([]Question(nil), questions...)}
}

// Len returns the number of questions.
func (q *Quiz) Len() int {
	if q == nil {
		return 0
	}
	return len(q.questions)
}

// At returns the question at index i.
func (q *Quiz) At(i int) Question {
	return q.questions[i]
}

// InRange reports whether i addresses a question of this quiz.
func (q *Quiz) InRange(i int) bool {
	return i >= 0 && i < q.Len()
}

// Questions returns a copy of the question slice.
func (q *Quiz) Questions() []Question {
	if q == nil {
		return nil
	}
	return append([]Question(nil), q.questions...)
}

// QuizPayload is the wire form of a quiz.
type QuizPayload struct {
	Questions []QuestionPayload `json:"questions" validate:"dive"`
}

// ToQuiz converts the payload into typed questions.
func (p QuizPayload) ToQuiz() (*Quiz, error) {
	questions := make([]Question, 0, len(p.Questions))
	for i, qp := range p.Questions {
		q, err := qp.ToQuestion()
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		questions = append(questions, q)
	}
	return NewQuiz(questions...), nil
}

// Payload returns the wire form of the quiz.
func (q *Quiz) Payload() QuizPayload {
	p := QuizPayload{Questions: make([]QuestionPayload, 0, q.Len())}
	for _, question := range q.Questions() {
		p.Questions = append(p.Questions, PayloadOf(question))
	}
	return p
}

func (q *Quiz) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.Payload())
}

func (q *Quiz) UnmarshalJSON(data []byte) error {
	var p QuizPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	decoded, err := p.ToQuiz()
	if err != nil {
		return err
	}
	q.questions = decoded.questions
	return nil
}

// AnswerMap maps a question index to the learner's raw answer. A missing key
// means the question was not answered.
type AnswerMap map[int]string

// Clone returns an independent copy.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Answered returns the raw answer at i and whether it counts as answered.
// Blank answers count as unanswered.
func (m AnswerMap) Answered(i int) (string, bool) {
	raw, ok := m[i]
	if !ok || strings.TrimSpace(raw) == "" {
		return raw, false
	}
	return raw, true
}

// ===== GENERATION PARAMETERS =====

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// RequestedTypeMix asks the generator for every question type.
const RequestedTypeMix = "mix"

// GenerationParams are the inputs the quiz source was given to produce a quiz.
type GenerationParams struct {
	DocumentID    string     `json:"document_id" validate:"required"`
	NumQuestions  int        `json:"num_questions" validate:"min=1,max=20"`
	Difficulty    Difficulty `json:"difficulty" validate:"required,difficulty"`
	Topic         string     `json:"topic,omitempty" validate:"omitempty,max=200"`
	QuestionTypes []string   `json:"question_types" validate:"required,min=1,dive,requested_type"`
}

// ExpandedTypes resolves "mix" to the concrete question types.
func (p GenerationParams) ExpandedTypes() []QuestionType {
	seen := make(map[QuestionType]bool)
	var out []QuestionType
	add := func(t QuestionType) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range p.QuestionTypes {
		if t == RequestedTypeMix {
			for _, all := range QuestionTypes {
				add(all)
			}
			continue
		}
		add(QuestionType(t))
	}
	return out
}

// QuizRecord is a quiz received from the generator, as stored.
type QuizRecord struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string         `json:"title" gorm:"size:200"`
	DocumentID    string         `json:"document_id" gorm:"not null;index"`
	Difficulty    Difficulty     `json:"difficulty" gorm:"size:16"`
	Topic         string         `json:"topic,omitempty" gorm:"size:200"`
	QuestionTypes datatypes.JSON `json:"question_types" gorm:"type:jsonb"` // []QuestionType
	Questions     datatypes.JSON `json:"questions" gorm:"type:jsonb;not null"`
	QuestionCount int            `json:"question_count"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (QuizRecord) TableName() string {
	return "quizzes"
}

// Quiz decodes the stored questions.
func (r *QuizRecord) Quiz() (*Quiz, error) {
	var quiz Quiz
	if err := json.Unmarshal(r.Questions, &quiz); err != nil {
		return nil, fmt.Errorf("failed to decode stored quiz %s: %w", r.ID, err)
	}
	return &quiz, nil
}
