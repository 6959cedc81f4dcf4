package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockReply is one scripted answer for MockProvider.
type MockReply struct {
	Text string
	Err  error
}

// MockProvider replays scripted replies in order and records every prompt.
// With an empty script it answers with a neutral grade so the service can run
// without credentials.
type MockProvider struct {
	mu      sync.Mutex
	replies []MockReply
	prompts []Prompt
}

func NewMockProvider(replies ...MockReply) *MockProvider {
	return &MockProvider{replies: replies}
}

func (m *MockProvider) Name() string  { return ProviderMock }
func (m *MockProvider) Model() string { return "mock" }

func (m *MockProvider) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)

	if len(m.replies) == 0 {
		return &Completion{Text: neutralGrade(prompt), Model: "mock"}, nil
	}

	reply := m.replies[0]
	m.replies = m.replies[1:]
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &Completion{Text: reply.Text, Model: "mock"}, nil
}

func (m *MockProvider) Enqueue(replies ...MockReply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

func (m *MockProvider) Prompts() []Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Prompt, len(m.prompts))
	copy(out, m.prompts)
	return out
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// neutralGrade awards half marks and echoes no key points.
func neutralGrade(prompt Prompt) string {
	feedback := "Graded by the mock provider."
	if strings.TrimSpace(prompt.User) == "" {
		feedback = "Empty prompt."
	}
	return fmt.Sprintf(`{"score": 50, "feedback": %q, "points_covered": [], "points_missed": []}`, feedback)
}
