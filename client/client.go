package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/event"
	"github.com/spetersoncode/scholar/internal/provider/anthropic"
	"github.com/spetersoncode/scholar/internal/provider/google"
	"github.com/spetersoncode/scholar/internal/provider/openai"
	"github.com/spetersoncode/scholar/retry"
)

// ErrMissingAPIKey is returned when the configured provider has no API key.
type ErrMissingAPIKey struct {
	Provider ai.Provider
}

func (e *ErrMissingAPIKey) Error() string {
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// Config configures a Client.
type Config struct {
	// Provider selects the backend. Defaults to OpenAI.
	Provider ai.Provider
	APIKey   string

	// BaseURL points an OpenAI-compatible client at another endpoint.
	// Ignored by the other providers.
	BaseURL string

	// Model is used when a request does not name one.
	Model string

	// Retry overrides retry.DefaultConfig.
	Retry *retry.Config

	// Events receives a Retrying event before every retry.
	Events chan<- event.Event

	Logger *zap.Logger
}

// Client is a ChatProvider that retries transient failures of the
// configured provider.
type Client struct {
	provider ai.ChatProvider
	name     ai.Provider
	retry    retry.Config
	events   chan<- event.Event
	logger   *zap.Logger
}

// New creates a Client for cfg.Provider.
func New(ctx context.Context, cfg Config) (*Client, error) {
	name := cfg.Provider
	if name == "" {
		name = ai.ProviderOpenAI
	}
	if cfg.APIKey == "" {
		return nil, &ErrMissingAPIKey{Provider: name}
	}

	var p ai.ChatProvider
	switch name {
	case ai.ProviderOpenAI:
		opts := []openai.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, openai.WithModel(cfg.Model))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		p = openai.New(cfg.APIKey, opts...)
	case ai.ProviderAnthropic:
		opts := []anthropic.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, anthropic.WithModel(cfg.Model))
		}
		p = anthropic.New(cfg.APIKey, opts...)
	case ai.ProviderGoogle:
		opts := []google.ClientOption{}
		if cfg.Model != "" {
			opts = append(opts, google.WithModel(cfg.Model))
		}
		g, err := google.New(ctx, cfg.APIKey, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google client: %w", err)
		}
		p = g
	default:
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}

	return Wrap(p, name, cfg), nil
}

// Wrap adds retries, events and logging from cfg to an existing provider.
// cfg.Provider, cfg.APIKey, cfg.BaseURL and cfg.Model are ignored.
func Wrap(p ai.ChatProvider, name ai.Provider, cfg Config) *Client {
	rc := retry.DefaultConfig()
	if cfg.Retry != nil {
		rc = *cfg.Retry
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: p,
		name:     name,
		retry:    rc,
		events:   cfg.Events,
		logger:   logger.With(zap.String("component", "client"), zap.Stringer("provider", name)),
	}
}

// Provider reports which backend the client talks to.
func (c *Client) Provider() ai.Provider { return c.name }

// Chat sends a conversation and returns a complete response, retrying
// transient errors according to the client's retry configuration.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	start := time.Now()
	resp, err := retry.DoNotify(ctx, c.retry, c.onRetry, func() (*ai.Response, error) {
		return c.provider.Chat(ctx, messages, opts...)
	})
	if err != nil {
		c.logger.Error("chat request failed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("chat request complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)
	return resp, nil
}

func (c *Client) onRetry(a retry.Attempt) {
	c.logger.Warn("retrying chat request",
		zap.Int("attempt", a.Number),
		zap.Int("max_attempts", a.MaxAttempts),
		zap.Duration("delay", a.Delay),
		zap.Error(a.Err),
	)
	event.Emit(c.events, event.Event{
		Type:    event.Retrying,
		Error:   a.Err,
		Message: fmt.Sprintf("attempt %d/%d, retrying in %s", a.Number, a.MaxAttempts, a.Delay),
	})
}
