package llm

import (
	"context"
	"sync"
)

// MockProvider returns a canned reply. It is used for local runs without an
// API key and in tests.
type MockProvider struct {
	Reply      string
	Err        error
	TokensUsed int

	mu    sync.Mutex
	calls [][]Message
}

// NewMockProvider creates a mock that always answers with reply
func NewMockProvider(reply string) *MockProvider {
	return &MockProvider{Reply: reply}
}

func (m *MockProvider) Chat(ctx context.Context, messages []Message) (*Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]Message(nil), messages...))
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, classify(err)
	}
	if m.Err != nil {
		return nil, classify(m.Err)
	}
	return &Completion{Content: m.Reply, Model: m.Model(), TokensUsed: m.TokensUsed}, nil
}

func (m *MockProvider) Name() string          { return "Mock" }
func (m *MockProvider) Model() string         { return "mock" }
func (m *MockProvider) ValidateConfig() error { return nil }

// Calls returns the message lists passed to Chat so far
func (m *MockProvider) Calls() [][]Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]Message(nil), m.calls...)
}
