package model

import (
	"context"
	"fmt"
	"sync"
)

// Config selects the model and generation parameters for one call. It is the
// only model configuration surface the engine consumes.
type Config struct {
	Name        string  `json:"name"`
	APIStandard string  `json:"api_standard"` // "openai", "anthropic", "mock", ...
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Message is one conversation turn sent to the model.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// Response carries the generated text and token accounting for one call.
type Response struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model,omitempty"`
}

// CallError wraps any provider or network failure raised by a Caller.
type CallError struct {
	Provider string
	Model    string
	Err      error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("model call failed (provider %s, model %s): %v", e.Provider, e.Model, e.Err)
}

// Unwrap exposes the underlying provider error.
func (e *CallError) Unwrap() error { return e.Err }

// NewCallError creates a CallError for the given provider and model.
func NewCallError(provider, model string, err error) *CallError {
	return &CallError{Provider: provider, Model: model, Err: err}
}

// Caller is the minimal interface required to drive plan generation and
// critique. Implementations must be safe for concurrent use.
type Caller interface {
	Call(ctx context.Context, cfg Config, messages []Message) (*Response, error)
}

// MockCaller is a lightweight in-memory Caller useful for tests and
// examples. Responses can be keyed to the last user message or scripted as a
// sequence consumed call by call; scripted responses take precedence.
type MockCaller struct {
	mu        sync.Mutex
	responses map[string]string
	script    []string
	calls     int
	err       error
}

// NewMockCaller constructs an empty MockCaller.
func NewMockCaller() *MockCaller {
	return &MockCaller{responses: make(map[string]string)}
}

// AddResponse registers a canned completion for a given user message.
func (m *MockCaller) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Script appends responses returned in order, one per call.
func (m *MockCaller) Script(responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, responses...)
}

// Fail makes every subsequent call return the given error wrapped in a
// CallError. Pass nil to clear.
func (m *MockCaller) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls reports how many calls have been made.
func (m *MockCaller) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Call implements Caller.
func (m *MockCaller) Call(ctx context.Context, cfg Config, messages []Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewCallError("mock", cfg.Name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if m.err != nil {
		return nil, NewCallError("mock", cfg.Name, m.err)
	}

	if len(m.script) > 0 {
		content := m.script[0]
		m.script = m.script[1:]
		return &Response{Content: content, TokensUsed: len(content) / 4, Model: cfg.Name}, nil
	}

	var last string
	for _, msg := range messages {
		if msg.Role == "user" {
			last = msg.Content
		}
	}
	content, ok := m.responses[last]
	if !ok {
		content = fmt.Sprintf("Mock response to: %s", last)
	}
	return &Response{Content: content, TokensUsed: len(content) / 4, Model: cfg.Name}, nil
}
