// Package anthropic adapts the Anthropic Messages API to ai.ChatProvider.
package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/spetersoncode/scholar"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "claude-sonnet-4-5"

const defaultMaxTokens = 4096

// Client wraps the Anthropic SDK.
type Client struct {
	client *anthropic.Client
	model  string
}

// ClientOption configures the Anthropic client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// New creates a client authenticated with apiKey.
func New(apiKey string, opts ...ClientOption) *Client {
	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	c := &Client{client: &client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat sends a conversation and returns a complete response. Structured
// output is requested through a forced tool whose input is the document.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(defaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}

	structured := options.ResponseSchema != nil
	switch {
	case structured:
		tool, choice := jsonResponseTool(options.ResponseSchema)
		params.Tools = append(convertTools(options.Tools), tool)
		params.ToolChoice = choice
	case len(options.Tools) > 0:
		params.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" || options.ParallelToolCalls != nil {
			params.ToolChoice = convertToolChoice(options.ToolChoice, options.ParallelToolCalls)
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	var text strings.Builder
	var toolCalls []ai.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			if structured && block.Name == jsonResponseToolName {
				text.Reset()
				text.Write(block.Input)
				continue
			}
			toolCalls = append(toolCalls, ai.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: string(block.Input),
			})
		}
	}

	return &ai.Response{
		Content:      text.String(),
		FinishReason: string(resp.StopReason),
		Usage: ai.Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
		ToolCalls: toolCalls,
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
