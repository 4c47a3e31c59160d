package scholar

import "context"

// ChatProvider defines the interface for text-generation services.
type ChatProvider interface {
	// Chat sends a conversation and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}

// ChatFunc adapts a function to the ChatProvider interface.
type ChatFunc func(ctx context.Context, messages []Message, opts ...Option) (*Response, error)

// Chat calls f.
func (f ChatFunc) Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error) {
	return f(ctx, messages, opts...)
}
