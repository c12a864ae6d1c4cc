package llm

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/horasecreta/advisor/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), FailureTimeout},
		{"canceled", context.Canceled, FailureCanceled},
		{"empty", errors.Wrap(errors.ErrEmptyCompletion, "gpt-4o-mini"), FailureEmpty},
		{"not configured", errors.Wrap(ErrNotConfigured, "openai"), FailureConfig},
		{"status", errors.Wrap(&APIError{Provider: "openai", StatusCode: 503, Message: "busy"}, "call"), FailureStatus},
		{"other", errors.New("connection reset"), FailureTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestAPIError(t *testing.T) {
	err := &APIError{Provider: "openai", StatusCode: 429, Message: "rate limited"}
	assert.Equal(t, "openai: API request failed with status 429: rate limited", err.Error())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "ação…", Truncate("açãoxyz", 4))
}

func TestMockGenerator_Script(t *testing.T) {
	m := NewMockGenerator(
		MockResponse{Err: errors.New("boom")},
		MockResponse{Text: "ok"},
	)

	_, err := m.Generate(context.Background(), Request{Model: "a"})
	require.Error(t, err)

	resp, err := m.Generate(context.Background(), Request{Model: "b"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, "b", resp.Model)

	// last entry repeats
	resp, err = m.Generate(context.Background(), Request{Model: "c"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)

	assert.Equal(t, []string{"a", "b", "c"}, m.Models())
}

func TestMockGenerator_HangHonoursDeadline(t *testing.T) {
	m := NewMockGenerator(MockResponse{Hang: true})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
