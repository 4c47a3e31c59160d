// Package openai adapts the OpenAI chat completions API, and any
// OpenAI-compatible endpoint, to ai.ChatProvider.
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/scholar"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "gpt-4o-mini"

// Client wraps the OpenAI SDK.
type Client struct {
	client *openai.Client
	model  string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model   string
	baseURL string
	sdkOpts []option.RequestOption
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithRequestOptions passes raw SDK options through (HTTP client, headers).
func WithRequestOptions(opts ...option.RequestOption) ClientOption {
	return func(c *clientConfig) {
		c.sdkOpts = append(c.sdkOpts, opts...)
	}
}

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(&cfg)
	}

	sdkOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if cfg.baseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(cfg.baseURL))
	}
	sdkOpts = append(sdkOpts, cfg.sdkOpts...)

	client := openai.NewClient(sdkOpts...)
	return &Client{client: &client, model: cfg.model}
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if len(options.Tools) > 0 {
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			params.ToolChoice = convertToolChoice(options.ToolChoice)
		}
		if options.ParallelToolCalls != nil {
			params.ParallelToolCalls = openai.Bool(*options.ParallelToolCalls)
		}
	}
	if options.ResponseSchema != nil {
		format, err := buildSchemaFormat(options.ResponseSchema)
		if err != nil {
			return nil, err
		}
		params.ResponseFormat = format
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.NewTransientError("openai: response has no choices", 0, nil)
	}

	choice := resp.Choices[0]
	return &ai.Response{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		ToolCalls: extractToolCalls(choice.Message),
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
