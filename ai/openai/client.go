// Package openai implements a chat-completions generator for the OpenAI API.
//
// The client makes exactly one HTTP call per Generate: retries and fallback
// belong to the caller's model chain.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/horasecreta/advisor/ai/llm"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/internal/httpclient"
)

const (
	// DefaultBaseURL is the public OpenAI API endpoint
	DefaultBaseURL = "https://api.openai.com/v1"

	// ProviderName identifies this client in logs and the usage ledger
	ProviderName = "openai"

	// maxErrorBody bounds how much of an error body is kept
	maxErrorBody = 512
)

// Client represents an OpenAI chat-completions client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *httpclient.Client
	config     Config
	logger     *zap.SugaredLogger
}

// Config holds OpenAI client configuration
type Config struct {
	APIKey      string
	BaseURL     string             // empty = DefaultBaseURL
	Temperature *float64           // nil = API default
	Logger      *zap.SugaredLogger // nil = nop logger
	HTTPClient  *httpclient.Client // nil = default upstream client
}

// NewClient creates a new OpenAI client
func NewClient(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	hc := config.HTTPClient
	if hc == nil {
		hc = httpclient.New(httpclient.Options{})
	}

	return &Client{
		apiKey:     strings.TrimSpace(config.APIKey),
		baseURL:    baseURL,
		httpClient: hc,
		config:     config,
		logger:     logger,
	}
}

// ChatCompletionRequest represents a request to the chat completions endpoint
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// Message represents a message in a chat completion
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse represents the response from chat completions
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage represents token usage information
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateChatCompletion sends a chat completion request to OpenAI
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var envelope errorEnvelope
		if json.Unmarshal(respBody, &envelope) == nil && envelope.Error.Message != "" {
			msg = envelope.Error.Message
		}
		return nil, &llm.APIError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Message:    llm.Truncate(msg, maxErrorBody),
		}
	}

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}

	return &chatResp, nil
}

// Generate sends one chat completion and returns the first choice
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !c.IsConfigured() {
		return nil, errors.WithHint(
			errors.Wrap(llm.ErrNotConfigured, "OpenAI API key not configured"),
			"set OPENAI_API_KEY",
		)
	}

	temperature := c.config.Temperature
	if req.Temperature != nil {
		temperature = req.Temperature
	}

	messages := []Message{{Role: "user", Content: req.UserPrompt}}
	if req.SystemPrompt != "" {
		messages = append([]Message{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}

	c.logger.Debugw("OpenAI chat request",
		"model", req.Model,
		"max_tokens", req.MaxTokens,
		"user_prompt_len", len(req.UserPrompt),
	)

	resp, err := c.CreateChatCompletion(ctx, ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "openai %s", req.Model)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyCompletion, "openai %s returned no choices", req.Model)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	model := resp.Model
	if model == "" {
		model = req.Model
	}

	c.logger.Debugw("OpenAI response",
		"model", model,
		"content_length", len(text),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", resp.Choices[0].FinishReason,
	)

	return &llm.Response{
		Text:  text,
		Model: model,
		Usage: llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			CostUSD:          CalculateCost(req.Model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		},
	}, nil
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}
