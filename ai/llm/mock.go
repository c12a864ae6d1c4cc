package llm

import (
	"context"
	"sync"
	"time"
)

// MockResponse defines one scripted answer of the mock generator.
type MockResponse struct {
	Text  string
	Err   error
	Delay time.Duration // wait before answering; the context deadline still wins
	Hang  bool          // never answer, block until the context ends
}

// MockGenerator is a test double that returns scripted responses in
// sequence. After the script is exhausted it keeps returning the last entry.
// It records every request for later assertion.
type MockGenerator struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []Request
	idx       int
}

// NewMockGenerator creates a mock that returns the given responses in order.
func NewMockGenerator(responses ...MockResponse) *MockGenerator {
	return &MockGenerator{responses: responses}
}

// Generate returns the next scripted response and records the request.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, req)
	var r MockResponse
	if len(m.responses) > 0 {
		r = m.responses[m.idx]
		if m.idx < len(m.responses)-1 {
			m.idx++
		}
	}
	m.mu.Unlock()

	if r.Hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if r.Err != nil {
		return nil, r.Err
	}

	return &Response{
		Text:  r.Text,
		Model: req.Model,
		Usage: Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

// IsConfigured always reports true.
func (m *MockGenerator) IsConfigured() bool { return true }

// Calls returns a copy of all requests received by this mock.
func (m *MockGenerator) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Models returns the model of every recorded call, in order.
func (m *MockGenerator) Models() []string {
	calls := m.Calls()
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.Model)
	}
	return out
}
