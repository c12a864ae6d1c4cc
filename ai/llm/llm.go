// Package llm holds the provider-neutral request and response shapes shared
// by the upstream model clients.
package llm

import (
	"context"
	"fmt"
	"net"

	"github.com/horasecreta/advisor/errors"
)

// Request describes a single completion request.
type Request struct {
	// Model is the upstream model id, e.g. "gpt-4o-mini".
	Model string

	SystemPrompt string
	UserPrompt   string

	// MaxTokens bounds the completion length. Zero lets the provider decide.
	MaxTokens int

	// Temperature controls randomness. If nil, the provider default applies.
	Temperature *float64
}

// Response holds the result of a completion call.
type Response struct {
	// Text is the completion, trimmed. It may be empty; callers decide
	// whether an empty answer counts as failure.
	Text string

	// Model is the model that actually served the request as reported by
	// the provider (may differ from the requested alias).
	Model string

	Usage Usage
}

// Usage reports token consumption and the estimated cost of one call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostUSD          float64
}

// APIError is a non-2xx answer from an upstream API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API request failed with status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Failure kinds recorded per attempt
const (
	FailureTimeout   = "timeout"
	FailureCanceled  = "canceled"
	FailureEmpty     = "empty"
	FailureStatus    = "upstream_status"
	FailureTransport = "transport"
	FailureConfig    = "not_configured"
)

// ErrNotConfigured is returned by a generator that has no credential.
var ErrNotConfigured = errors.New("provider not configured")

// Classify maps an attempt error onto a coarse failure kind for logs and the
// usage ledger. It returns "" for nil.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.IsTimeout(err):
		return FailureTimeout
	case errors.Is(err, context.Canceled):
		return FailureCanceled
	case errors.Is(err, errors.ErrEmptyCompletion):
		return FailureEmpty
	case errors.Is(err, ErrNotConfigured):
		return FailureConfig
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return FailureStatus
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureTransport
}

// Truncate shortens upstream error bodies before they reach logs.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
