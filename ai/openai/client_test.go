package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/horasecreta/advisor/ai/llm"
	"github.com/horasecreta/advisor/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Logger:  zaptest.NewLogger(t).Sugar(),
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{APIKey: "  sk-test  "})
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, "sk-test", c.apiKey)
	assert.True(t, c.IsConfigured())

	assert.False(t, NewClient(Config{APIKey: "   "}).IsConfigured())
}

func TestGenerate_Success(t *testing.T) {
	var captured ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(ChatCompletionResponse{
			Model: "gpt-4o-mini-2024-07-18",
			Choices: []Choice{{
				Message:      Message{Role: "assistant", Content: "  1) Entendimento da crise\n  "},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 1000, CompletionTokens: 500, TotalTokens: 1500},
		})
	})

	resp, err := c.Generate(context.Background(), llm.Request{
		Model:        "gpt-4o-mini",
		SystemPrompt: "persona",
		UserPrompt:   "Modo: biblico\nEstou cansado",
		MaxTokens:    900,
	})
	require.NoError(t, err)

	assert.Equal(t, "1) Entendimento da crise", resp.Text)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", resp.Model)
	assert.Equal(t, 1500, resp.Usage.TotalTokens)
	assert.InDelta(t, 0.00045, resp.Usage.CostUSD, 1e-9)

	assert.Equal(t, "gpt-4o-mini", captured.Model)
	assert.Equal(t, 900, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "persona", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
}

func TestGenerate_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{Model: "gpt-4o-mini"})
	require.Error(t, err)

	var apiErr *llm.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, "Rate limit reached", apiErr.Message)
	assert.Equal(t, llm.FailureStatus, llm.Classify(err))
}

func TestGenerate_NoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[]}`))
	})

	_, err := c.Generate(context.Background(), llm.Request{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyCompletion))
}

func TestGenerate_BlankTextIsNotAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"   "}}]}`))
	})

	resp, err := c.Generate(context.Background(), llm.Request{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
}

func TestGenerate_DeadlineIsTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Generate(ctx, llm.Request{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.True(t, errors.IsTimeout(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGenerate_NotConfigured(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Generate(context.Background(), llm.Request{Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrNotConfigured))
	assert.Contains(t, errors.FlattenHints(err), "OPENAI_API_KEY")
}

func TestGenerate_TemperatureOverride(t *testing.T) {
	var captured map[string]interface{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})
	base := 0.7
	c.config.Temperature = &base

	_, err := c.Generate(context.Background(), llm.Request{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, 0.7, captured["temperature"])

	override := 0.1
	_, err = c.Generate(context.Background(), llm.Request{Model: "gpt-4o-mini", Temperature: &override})
	require.NoError(t, err)
	assert.Equal(t, 0.1, captured["temperature"])
}
