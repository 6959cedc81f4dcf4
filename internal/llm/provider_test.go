package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gradeJSON = `{"score": 75, "feedback": "solid", "points_covered": ["a"], "points_missed": []}`

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestOpenAIProvider_Complete(t *testing.T) {
	var body map[string]any
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": gradeJSON},
				"finish_reason": "stop",
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 20, "total_tokens": 60},
		})
	})

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	completion, err := p.Complete(context.Background(), Prompt{
		System:      "sys",
		User:        "grade this",
		MaxTokens:   500,
		Temperature: 0.3,
		JSON:        true,
	})
	require.NoError(t, err)

	assert.Equal(t, gradeJSON, completion.Text)
	assert.Equal(t, 40, completion.InputTokens)
	assert.Equal(t, 20, completion.OutputTokens)
	assert.False(t, completion.Truncated)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.EqualValues(t, 500, body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])
	assert.Len(t, body["messages"], 2)
}

func TestOpenAIProvider_ErrorStatus(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "slow down", "type": "rate_limit_exceeded"},
		})
	})

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), Prompt{User: "x", MaxTokens: 10})
	require.Error(t, err)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ProviderOpenAI, pe.Provider)
	assert.True(t, pe.RateLimited())
}

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := newTestServer(t, handler)
	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: defaultAnthropicModel}
}

func TestAnthropicProvider_Complete(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       defaultAnthropicModel,
			"content":     []map[string]any{{"type": "text", "text": gradeJSON}},
			"stop_reason": "max_tokens",
			"usage":       map[string]any{"input_tokens": 30, "output_tokens": 12},
		})
	})

	completion, err := p.Complete(context.Background(), Prompt{System: "sys", User: "grade", MaxTokens: 500, Temperature: 0.3})
	require.NoError(t, err)

	assert.Equal(t, gradeJSON, completion.Text)
	assert.Equal(t, 30, completion.InputTokens)
	assert.True(t, completion.Truncated)
}

func TestAnthropicProvider_ServerError(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "boom"},
		})
	})

	_, err := p.Complete(context.Background(), Prompt{User: "grade", MaxTokens: 10})
	require.Error(t, err)

	var pe *ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	assert.False(t, pe.RateLimited())
}

func TestGeminiProvider_Complete(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": gradeJSON}},
				},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     25,
				"candidatesTokenCount": 15,
				"totalTokenCount":      40,
			},
		})
	})

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, defaultGeminiModel, p.Model())

	completion, err := p.Complete(context.Background(), Prompt{User: "grade", MaxTokens: 500, JSON: true})
	require.NoError(t, err)

	assert.Equal(t, gradeJSON, completion.Text)
	assert.Equal(t, 25, completion.InputTokens)
	assert.Equal(t, 15, completion.OutputTokens)
	assert.False(t, completion.Truncated)
}
