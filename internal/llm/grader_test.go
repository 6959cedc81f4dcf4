package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studypilot/assessment-service/internal/grading"
)

func sampleRequest() grading.ShortAnswerRequest {
	return grading.ShortAnswerRequest{
		Question:       "Why do leaves change colour in autumn?",
		ExpectedAnswer: "Chlorophyll breaks down, revealing other pigments.",
		KeyPoints:      []string{"chlorophyll breakdown", "carotenoids become visible"},
		UserAnswer:     "The green stuff goes away.",
	}
}

func TestParseGradeReply(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantScore int
		wantErr   bool
	}{
		{
			name:      "plain JSON",
			text:      `{"score": 80, "feedback": "good", "points_covered": ["a"], "points_missed": ["b"]}`,
			wantScore: 80,
		},
		{
			name:      "json fence",
			text:      "```json\n{\"score\": 65, \"feedback\": \"ok\"}\n```",
			wantScore: 65,
		},
		{
			name:      "bare fence",
			text:      "```\n{\"score\": 40, \"feedback\": \"weak\"}\n```",
			wantScore: 40,
		},
		{
			name:      "prose around object",
			text:      "Here is my evaluation: {\"score\": 90, \"feedback\": \"great\"} Hope this helps.",
			wantScore: 90,
		},
		{
			name:      "fractional score rounds",
			text:      `{"score": 72.5, "feedback": "fine"}`,
			wantScore: 73,
		},
		{
			name:    "no JSON",
			text:    "I cannot grade this answer.",
			wantErr: true,
		},
		{
			name:    "score above range",
			text:    `{"score": 120, "feedback": "too generous"}`,
			wantErr: true,
		},
		{
			name:    "score is a string",
			text:    `{"score": "eighty", "feedback": "x"}`,
			wantErr: true,
		},
		{
			name:    "missing feedback",
			text:    `{"score": 50}`,
			wantErr: true,
		},
		{
			name:    "broken JSON",
			text:    `{"score": 50, "feedback": }`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ParseGradeReply(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMalformedReply))
				var replyErr *ReplyError
				require.True(t, errors.As(err, &replyErr))
				assert.Equal(t, tt.text, replyErr.Raw)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantScore, record.Score)
			assert.NotNil(t, record.PointsCovered)
			assert.NotNil(t, record.PointsMissed)
		})
	}
}

func TestBuildGradingPrompt(t *testing.T) {
	prompt := BuildGradingPrompt(sampleRequest())

	assert.Contains(t, prompt, "Question: Why do leaves change colour in autumn?")
	assert.Contains(t, prompt, "Expected Answer: Chlorophyll breaks down")
	assert.Contains(t, prompt, "- chlorophyll breakdown\n- carotenoids become visible\n")
	assert.Contains(t, prompt, "Student's Answer: The green stuff goes away.")
	assert.Contains(t, prompt, `"points_missed"`)
	assert.True(t, strings.HasSuffix(prompt, "even if wording differs."))
}

func TestShortAnswerGrader_GradeShortAnswer(t *testing.T) {
	provider := NewMockProvider(MockReply{
		Text: "```json\n{\"score\": 55, \"feedback\": \"partial\", \"points_covered\": [\"chlorophyll breakdown\"], \"points_missed\": [\"carotenoids become visible\"]}\n```",
	})
	grader := NewShortAnswerGrader(provider, GraderOptions{}, nil)

	record, err := grader.GradeShortAnswer(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.Equal(t, 55, record.Score)
	assert.Equal(t, "partial", record.Feedback)
	assert.Equal(t, []string{"chlorophyll breakdown"}, record.PointsCovered)
	assert.Equal(t, []string{"carotenoids become visible"}, record.PointsMissed)

	prompts := provider.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, DefaultMaxTokens, prompts[0].MaxTokens)
	assert.Equal(t, DefaultTemperature, prompts[0].Temperature)
	assert.True(t, prompts[0].JSON)
	assert.Equal(t, graderSystemPrompt, prompts[0].System)
}

func TestShortAnswerGrader_Errors(t *testing.T) {
	t.Run("provider failure", func(t *testing.T) {
		cause := &ProviderError{Provider: ProviderOpenAI, StatusCode: 503, Err: errors.New("down")}
		grader := NewShortAnswerGrader(NewMockProvider(MockReply{Err: cause}), GraderOptions{}, nil)

		_, err := grader.GradeShortAnswer(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("unparseable reply", func(t *testing.T) {
		grader := NewShortAnswerGrader(NewMockProvider(MockReply{Text: "no idea"}), GraderOptions{}, nil)

		_, err := grader.GradeShortAnswer(context.Background(), sampleRequest())
		assert.ErrorIs(t, err, ErrMalformedReply)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		grader := NewShortAnswerGrader(NewMockProvider(), GraderOptions{}, nil)

		_, err := grader.GradeShortAnswer(ctx, sampleRequest())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestShortAnswerGrader_CustomOptions(t *testing.T) {
	provider := NewMockProvider()
	grader := NewShortAnswerGrader(provider, GraderOptions{MaxTokens: 200, Temperature: 0.7}, nil)

	record, err := grader.GradeShortAnswer(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 50, record.Score)

	prompts := provider.Prompts()
	require.Len(t, prompts, 1)
	assert.Equal(t, 200, prompts[0].MaxTokens)
	assert.Equal(t, 0.7, prompts[0].Temperature)
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	p, err := NewProvider(ctx, Config{Provider: ProviderMock})
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, p.Name())

	p, err = NewProvider(ctx, Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, p.Name())

	_, err = NewProvider(ctx, Config{Provider: "bard"})
	assert.ErrorIs(t, err, ErrUnknownProvider)

	for _, name := range []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini} {
		_, err = NewProvider(ctx, Config{Provider: name})
		assert.ErrorIs(t, err, ErrMissingAPIKey, name)
	}

	p, err = NewProvider(ctx, Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "k", Model: "4o"}})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.Model())
}

func TestResolveModel(t *testing.T) {
	assert.Equal(t, "gpt-4o-mini", resolveModel("", defaultOpenAIModel, openaiAliases))
	assert.Equal(t, "claude-sonnet-4-20250514", resolveModel("sonnet", defaultAnthropicModel, anthropicAliases))
	assert.Equal(t, "gemini-1.5-pro", resolveModel("gemini-1.5-pro", defaultGeminiModel, geminiAliases))
}
