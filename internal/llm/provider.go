package llm

import "context"

// Provider sends a single prompt to a hosted model and returns its text.
type Provider interface {
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
	Name() string
	Model() string
}

// Prompt is a single-turn request.
type Prompt struct {
	System string
	User   string

	MaxTokens   int
	Temperature float64

	// JSON asks the provider for a JSON object reply when it supports it.
	JSON bool
}

type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
	Truncated    bool
}

// resolveModel maps a short alias to a concrete model ID. Unknown names are
// used verbatim.
func resolveModel(name, fallback string, aliases map[string]string) string {
	if name == "" {
		return fallback
	}
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
