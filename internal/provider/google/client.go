// Package google adapts the Gemini API (google.golang.org/genai) to
// ai.ChatProvider.
package google

import (
	"context"
	"strings"

	ai "github.com/spetersoncode/scholar"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the client nor the request names a model.
const DefaultModel = "gemini-2.5-flash"

// Client wraps the genai SDK.
type Client struct {
	client *genai.Client
	model  string
}

// ClientOption configures the Google client.
type ClientOption func(*Client)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// New creates a Gemini API client authenticated with apiKey.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	c := &Client{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	contents, system := convertMessages(messages)
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if len(options.Tools) > 0 {
		config.Tools = convertTools(options.Tools)
		if options.ToolChoice != "" {
			config.ToolConfig = convertToolChoice(options.ToolChoice)
		}
	}
	if options.ResponseSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = convertJSONSchema(options.ResponseSchema.Schema)
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, ai.NewUserInputError("google: request blocked: "+string(resp.PromptFeedback.BlockReason), 0, nil)
	}

	var text strings.Builder
	var toolCalls []ai.ToolCall
	finishReason := ""
	if len(resp.Candidates) > 0 {
		cand := resp.Candidates[0]
		finishReason = string(cand.FinishReason)
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				text.WriteString(part.Text)
			}
			toolCalls = extractToolCalls(cand.Content.Parts)
		}
	}

	usage := ai.Usage{}
	if resp.UsageMetadata != nil {
		usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return &ai.Response{
		Content:      text.String(),
		FinishReason: finishReason,
		Usage:        usage,
		ToolCalls:    toolCalls,
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)
