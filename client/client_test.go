package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/event"
	"github.com/spetersoncode/scholar/retry"
)

// scripted replays responses and errors in order.
type scripted struct {
	responses []*ai.Response
	errs      []error
	calls     int
	lastOpts  *ai.Options
}

func (s *scripted) Chat(_ context.Context, _ []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	i := s.calls
	s.calls++
	s.lastOpts = ai.ApplyOptions(opts...)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return &ai.Response{}, nil
}

func fastRetry() *retry.Config {
	return &retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func TestNew(t *testing.T) {
	t.Run("requires an API key", func(t *testing.T) {
		_, err := New(context.Background(), Config{Provider: ai.ProviderAnthropic})
		var missing *ErrMissingAPIKey
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "no API key configured for anthropic", err.Error())
	})

	t.Run("defaults to openai", func(t *testing.T) {
		c, err := New(context.Background(), Config{APIKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, ai.ProviderOpenAI, c.Provider())
	})

	t.Run("rejects unknown providers", func(t *testing.T) {
		_, err := New(context.Background(), Config{Provider: "cohere", APIKey: "key"})
		assert.EqualError(t, err, "unsupported provider: cohere")
	})
}

func TestChatRetriesTransientErrors(t *testing.T) {
	p := &scripted{
		errs:      []error{ai.NewTransientError("rate limited", 429, nil)},
		responses: []*ai.Response{nil, {Content: "ok"}},
	}
	events := event.NewChannel()
	c := Wrap(p, ai.ProviderOpenAI, Config{Retry: fastRetry(), Events: events})

	resp, err := c.Chat(context.Background(), []ai.Message{ai.NewUserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Equal(t, 2, p.calls)

	select {
	case e := <-events:
		assert.Equal(t, event.Retrying, e.Type)
		assert.Error(t, e.Error)
	default:
		t.Fatal("expected a retrying event")
	}
}

func TestChatDoesNotRetryPermanentErrors(t *testing.T) {
	p := &scripted{errs: []error{ai.NewPermanentError("bad key", 401, nil)}}
	c := Wrap(p, ai.ProviderOpenAI, Config{Retry: fastRetry()})

	_, err := c.Chat(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, ai.IsPermanent(err))
	assert.Equal(t, 1, p.calls)
}
