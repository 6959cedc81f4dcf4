package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/studypilot/assessment-service/internal/grading"
	"github.com/studypilot/assessment-service/internal/models"
)

const graderSystemPrompt = "You are a careful teaching assistant who grades short written answers and replies only with JSON."

// ShortAnswerGrader asks a language model to grade a short answer against
// its expected answer and key points.
type ShortAnswerGrader struct {
	provider    Provider
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

type GraderOptions struct {
	MaxTokens   int
	Temperature float64
}

func NewShortAnswerGrader(provider Provider, opts GraderOptions, logger *slog.Logger) *ShortAnswerGrader {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ShortAnswerGrader{
		provider:    provider,
		maxTokens:   opts.MaxTokens,
		temperature: opts.Temperature,
		logger: logger.With(
			"component", "short_answer_grader",
			"provider", provider.Name(),
			"model", provider.Model()),
	}
}

var _ grading.SemanticGrader = (*ShortAnswerGrader)(nil)

func (g *ShortAnswerGrader) GradeShortAnswer(ctx context.Context, req grading.ShortAnswerRequest) (*models.GradeRecord, error) {
	completion, err := g.provider.Complete(ctx, Prompt{
		System:      graderSystemPrompt,
		User:        BuildGradingPrompt(req),
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}

	g.logger.Debug("Grader reply received",
		"input_tokens", completion.InputTokens,
		"output_tokens", completion.OutputTokens,
		"truncated", completion.Truncated)

	record, err := ParseGradeReply(completion.Text)
	if err != nil {
		g.logger.Warn("Grader reply could not be parsed", "error", err)
		return nil, err
	}
	return record, nil
}

// BuildGradingPrompt renders the grading instructions for one answer.
func BuildGradingPrompt(req grading.ShortAnswerRequest) string {
	var b strings.Builder

	b.WriteString("You are grading a short answer question. Evaluate the student's answer and provide a score.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", req.Question)
	fmt.Fprintf(&b, "Expected Answer: %s\n\n", req.ExpectedAnswer)
	b.WriteString("Key Points to Cover:\n")
	for _, point := range req.KeyPoints {
		fmt.Fprintf(&b, "- %s\n", point)
	}
	fmt.Fprintf(&b, "\nStudent's Answer: %s\n\n", req.UserAnswer)
	b.WriteString(`Provide your evaluation in JSON format:
{
    "score": <number from 0-100>,
    "feedback": "<brief feedback on the answer>",
    "points_covered": ["<key points that were covered>"],
    "points_missed": ["<key points that were missed>"]
}

Be fair but strict. Award full points if all key concepts are covered even if wording differs.`)

	return b.String()
}

type gradeReply struct {
	Score         float64  `json:"score"`
	Feedback      string   `json:"feedback"`
	PointsCovered []string `json:"points_covered"`
	PointsMissed  []string `json:"points_missed"`
}

// ParseGradeReply pulls the JSON object out of a model reply, which may be
// wrapped in a markdown fence or surrounded by prose.
func ParseGradeReply(text string) (*models.GradeRecord, error) {
	payload, ok := extractJSON(text)
	if !ok {
		return nil, &ReplyError{Raw: text, Err: fmt.Errorf("no JSON object found")}
	}
	if err := validateGrade([]byte(payload)); err != nil {
		return nil, &ReplyError{Raw: text, Err: err}
	}

	var reply gradeReply
	if err := json.Unmarshal([]byte(payload), &reply); err != nil {
		return nil, &ReplyError{Raw: text, Err: err}
	}

	record := &models.GradeRecord{
		Score:         int(math.Round(reply.Score)),
		Feedback:      reply.Feedback,
		PointsCovered: reply.PointsCovered,
		PointsMissed:  reply.PointsMissed,
	}
	if record.PointsCovered == nil {
		record.PointsCovered = []string{}
	}
	if record.PointsMissed == nil {
		record.PointsMissed = []string{}
	}
	return record, nil
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

func extractJSON(text string) (string, bool) {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		if m := fencePattern.FindStringSubmatch(cleaned); m != nil {
			cleaned = strings.TrimSpace(m[1])
		}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}
