// Package anthropic implements a generator for the Anthropic Messages API on
// top of the official SDK.
package anthropic

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/horasecreta/advisor/ai/llm"
	"github.com/horasecreta/advisor/errors"
	"github.com/horasecreta/advisor/internal/httpclient"
)

const (
	// ProviderName identifies this client in logs and the usage ledger
	ProviderName = "anthropic"

	// defaultMaxTokens applies when a request does not bound its output
	defaultMaxTokens = 1024
)

// Client represents an Anthropic API client
type Client struct {
	client sdk.Client
	apiKey string
	logger *zap.SugaredLogger
}

// Config holds Anthropic client configuration
type Config struct {
	APIKey     string
	BaseURL    string             // empty = SDK default
	Logger     *zap.SugaredLogger // nil = nop logger
	HTTPClient *httpclient.Client // nil = default upstream client
}

// NewClient creates a new Anthropic client.
// SDK retries are disabled so a slow or failing model hands over to the next
// chain entry instead of being retried inside one attempt's budget.
func NewClient(config Config) *Client {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	hc := config.HTTPClient
	if hc == nil {
		hc = httpclient.New(httpclient.Options{})
	}

	apiKey := strings.TrimSpace(config.APIKey)
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(hc.Client),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Client{
		client: sdk.NewClient(opts...),
		apiKey: apiKey,
		logger: logger,
	}
}

// Generate sends one Messages request and concatenates the text blocks
func (c *Client) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if !c.IsConfigured() {
		return nil, errors.WithHint(
			errors.Wrap(llm.ErrNotConfigured, "Anthropic API key not configured"),
			"set ANTHROPIC_API_KEY",
		)
	}

	maxTokens := int64(defaultMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	c.logger.Debugw("Anthropic messages request",
		"model", req.Model,
		"max_tokens", maxTokens,
		"user_prompt_len", len(req.UserPrompt),
	)

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return nil, errors.Wrapf(&llm.APIError{
				Provider:   ProviderName,
				StatusCode: apiErr.StatusCode,
				Message:    llm.Truncate(apiErr.Error(), 512),
			}, "anthropic %s", req.Model)
		}
		return nil, errors.Wrapf(err, "anthropic %s", req.Model)
	}

	var content strings.Builder
	for _, block := range msg.Content {
		if variant, ok := block.AsAny().(sdk.TextBlock); ok {
			content.WriteString(variant.Text)
		}
	}

	text := strings.TrimSpace(content.String())
	model := string(msg.Model)
	if model == "" {
		model = req.Model
	}
	inputTokens := int(msg.Usage.InputTokens)
	outputTokens := int(msg.Usage.OutputTokens)

	c.logger.Debugw("Anthropic response",
		"model", model,
		"content_length", len(text),
		"input_tokens", inputTokens,
		"output_tokens", outputTokens,
		"stop_reason", msg.StopReason,
	)

	return &llm.Response{
		Text:  text,
		Model: model,
		Usage: llm.Usage{
			PromptTokens:     inputTokens,
			CompletionTokens: outputTokens,
			TotalTokens:      inputTokens + outputTokens,
			CostUSD:          CalculateCost(req.Model, inputTokens, outputTokens),
		},
	}, nil
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}
