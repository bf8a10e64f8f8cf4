// Package testutils provides test doubles for the evaluation pipeline.
package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/scrutinium/scrutinium/internal/ports"
)

// MockLLMClient implements the LLMClient interface with deterministic
// responses for testing. Responses are selected by substring matching
// against the prompt; an empty pattern is the fallback.
type MockLLMClient struct {
	model     string
	responses []MockResponse
	err       error

	mu      sync.Mutex
	calls   int
	prompts []string
	options []map[string]any
}

// MockResponse is a pre-configured reply for prompts containing Pattern.
type MockResponse struct {
	Pattern  string
	Response string
	// Err, when set, is returned instead of Response.
	Err error
}

// NewMockLLMClient creates a mock client. With no configured responses
// it replies with an empty string.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{model: model}
}

// AddResponse registers a response pattern. Patterns are checked in
// registration order; the first match wins.
func (m *MockLLMClient) AddResponse(response MockResponse) *MockLLMClient {
	m.responses = append(m.responses, response)
	return m
}

// FailWith makes every call return err.
func (m *MockLLMClient) FailWith(err error) *MockLLMClient {
	m.err = err
	return m
}

// Complete returns the first registered response whose pattern appears
// in the prompt, recording the call for later assertions.
func (m *MockLLMClient) Complete(
	ctx context.Context, prompt string, options map[string]any,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.options = append(m.options, options)
	m.mu.Unlock()

	if m.err != nil {
		return "", m.err
	}

	for _, response := range m.responses {
		if response.Pattern == "" || strings.Contains(prompt, response.Pattern) {
			if response.Err != nil {
				return "", response.Err
			}
			return response.Response, nil
		}
	}
	return "", nil
}

// GetModel returns the mock model identifier.
func (m *MockLLMClient) GetModel() string { return m.model }

// Calls returns how many times Complete was invoked.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the prompts passed to Complete, in order.
func (m *MockLLMClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// LastOptions returns the options from the most recent call, or nil.
func (m *MockLLMClient) LastOptions() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.options) == 0 {
		return nil
	}
	return m.options[len(m.options)-1]
}

// Compile-time verification that MockLLMClient implements LLMClient.
var _ ports.LLMClient = (*MockLLMClient)(nil)
