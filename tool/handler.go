package tool

import (
	"context"

	ai "github.com/spetersoncode/scholar"
)

// Handler executes a tool call and returns the result text.
type Handler func(ctx context.Context, call ai.ToolCall) (string, error)

// TypedHandler executes a tool call whose arguments have been decoded into T.
type TypedHandler[T any] func(ctx context.Context, args T) (string, error)
