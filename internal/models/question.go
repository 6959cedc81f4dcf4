package models

import (
	"encoding/json"
	"fmt"
)

type QuestionType string

const (
	QuestionTypeMCQ         QuestionType = "mcq"
	QuestionTypeFillBlank   QuestionType = "fill_blank"
	QuestionTypeShortAnswer QuestionType = "short_answer"
)

// QuestionTypes lists every supported variant in wire order.
var QuestionTypes = []QuestionType{
	QuestionTypeMCQ,
	QuestionTypeFillBlank,
	QuestionTypeShortAnswer,
}

func (t QuestionType) IsValid() bool {
	for _, known := range QuestionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Question is the closed set of quiz question variants. Code that needs to
// branch on the variant goes through Accept, so a new variant fails to
// compile until every QuestionVisitor handles it.
type Question interface {
	Type() QuestionType
	Base() QuestionBase
	Accept(v QuestionVisitor)
	isQuestion()
}

// QuestionVisitor has one method per Question variant.
type QuestionVisitor interface {
	VisitMCQ(q *MCQQuestion)
	VisitFillBlank(q *FillBlankQuestion)
	VisitShortAnswer(q *ShortAnswerQuestion)
}

// DeterministicQuestion is implemented only by variants that can be graded
// by string comparison.
type DeterministicQuestion interface {
	Question
	AnswerKey() AnswerKey
}

// AnswerKey is the reference answer of a deterministic question together
// with its comparison rule.
type AnswerKey struct {
	Value         string
	CaseSensitive bool
}

// QuestionBase holds the fields shared by every variant.
type QuestionBase struct {
	Text        string `json:"question"`
	Explanation string `json:"explanation,omitempty"`
}

type MCQQuestion struct {
	QuestionBase
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

type FillBlankQuestion struct {
	QuestionBase
	CorrectAnswer string `json:"correct_answer"`
}

type ShortAnswerQuestion struct {
	QuestionBase
	ExpectedAnswer string   `json:"expected_answer"`
	KeyPoints      []string `json:"key_points"`
}

func (q *MCQQuestion) Type() QuestionType       { return QuestionTypeMCQ }
func (q *MCQQuestion) Base() QuestionBase       { return q.QuestionBase }
func (q *MCQQuestion) Accept(v QuestionVisitor) { v.VisitMCQ(q) }
func (q *MCQQuestion) isQuestion()              {}

// AnswerKey for MCQ is an exact, case-sensitive match on the option text.
func (q *MCQQuestion) AnswerKey() AnswerKey {
	return AnswerKey{Value: q.CorrectAnswer, CaseSensitive: true}
}

// HasOption reports whether s is one of the options verbatim.
func (q *MCQQuestion) HasOption(s string) bool {
	for _, opt := range q.Options {
		if opt == s {
			return true
		}
	}
	return false
}

func (q *FillBlankQuestion) Type() QuestionType       { return QuestionTypeFillBlank }
func (q *FillBlankQuestion) Base() QuestionBase       { return q.QuestionBase }
func (q *FillBlankQuestion) Accept(v QuestionVisitor) { v.VisitFillBlank(q) }
func (q *FillBlankQuestion) isQuestion()              {}

func (q *FillBlankQuestion) AnswerKey() AnswerKey {
	return AnswerKey{Value: q.CorrectAnswer, CaseSensitive: false}
}

func (q *ShortAnswerQuestion) Type() QuestionType       { return QuestionTypeShortAnswer }
func (q *ShortAnswerQuestion) Base() QuestionBase       { return q.QuestionBase }
func (q *ShortAnswerQuestion) Accept(v QuestionVisitor) { v.VisitShortAnswer(q) }
func (q *ShortAnswerQuestion) isQuestion()              {}

// MatchQuestion dispatches q to the function for its variant and returns the
// result. All three functions are required.
func MatchQuestion[T any](
	q Question,
	mcq func(*MCQQuestion) T,
	fillBlank func(*FillBlankQuestion) T,
	shortAnswer func(*ShortAnswerQuestion) T,
) T {
	m := &matcher[T]{mcq: mcq, fillBlank: fillBlank, shortAnswer: shortAnswer}
	q.Accept(m)
	return m.result
}

type matcher[T any] struct {
	mcq         func(*MCQQuestion) T
	fillBlank   func(*FillBlankQuestion) T
	shortAnswer func(*ShortAnswerQuestion) T
	result      T
}

func (m *matcher[T]) VisitMCQ(q *MCQQuestion)                 { m.result = m.mcq(q) }
func (m *matcher[T]) VisitFillBlank(q *FillBlankQuestion)     { m.result = m.fillBlank(q) }
func (m *matcher[T]) VisitShortAnswer(q *ShortAnswerQuestion) { m.result = m.shortAnswer(q) }

// ===== WIRE FORMAT =====

// QuestionPayload is the flat JSON shape produced by the quiz generator.
type QuestionPayload struct {
	Type           QuestionType `json:"type" validate:"required,question_type"`
	Question       string       `json:"question" validate:"required"`
	Explanation    string       `json:"explanation,omitempty"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswer  string       `json:"correct_answer,omitempty"`
	ExpectedAnswer string       `json:"expected_answer,omitempty"`
	KeyPoints      []string     `json:"key_points,omitempty"`
}

// ToQuestion builds the typed variant. Content rules (option membership and
// so on) are checked by the validator, not here.
func (p QuestionPayload) ToQuestion() (Question, error) {
	base := QuestionBase{Text: p.Question, Explanation: p.Explanation}

	switch p.Type {
	case QuestionTypeMCQ:
		return &MCQQuestion{
			QuestionBase:  base,
			Options:       append([]string(nil), p.Options...),
			CorrectAnswer: p.CorrectAnswer,
		}, nil
	case QuestionTypeFillBlank:
		return &FillBlankQuestion{QuestionBase: base, CorrectAnswer: p.CorrectAnswer}, nil
	case QuestionTypeShortAnswer:
		return &ShortAnswerQuestion{
			QuestionBase:   base,
			ExpectedAnswer: p.ExpectedAnswer,
			KeyPoints:      append([]string(nil), p.KeyPoints...),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported question type %q", p.Type)
	}
}

// PayloadOf flattens a typed question back to its wire shape.
func PayloadOf(q Question) QuestionPayload {
	p := QuestionPayload{
		Type:        q.Type(),
		Question:    q.Base().Text,
		Explanation: q.Base().Explanation,
	}
	q.Accept(payloadFiller{&p})
	return p
}

type payloadFiller struct{ p *QuestionPayload }

func (f payloadFiller) VisitMCQ(q *MCQQuestion) {
	f.p.Options = append([]string(nil), q.Options...)
	f.p.CorrectAnswer = q.CorrectAnswer
}

func (f payloadFiller) VisitFillBlank(q *FillBlankQuestion) {
	f.p.CorrectAnswer = q.CorrectAnswer
}

func (f payloadFiller) VisitShortAnswer(q *ShortAnswerQuestion) {
	f.p.ExpectedAnswer = q.ExpectedAnswer
	f.p.KeyPoints = append([]string(nil), q.KeyPoints...)
}

// MarshalQuestion encodes a question in its wire form.
func MarshalQuestion(q Question) ([]byte, error) {
	return json.Marshal(PayloadOf(q))
}
