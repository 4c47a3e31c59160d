package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/event"
)

// DefaultSystemPrompt is prepended to every model call.
const DefaultSystemPrompt = "You are a helpful assistant tasked with performing arithmetic on a set of inputs."

// ApproverFunc decides whether a tool call may run. A rejection reason is
// sent back to the model as an error result.
type ApproverFunc func(ctx context.Context, call ai.ToolCall) (approved bool, reason string)

// StopFunc is a custom termination check run after each step.
type StopFunc func(step int, response *ai.Response) bool

// Options configures an agent run.
type Options struct {
	// MaxSteps limits model calls per run. 0 means unlimited. Default 10.
	MaxSteps int

	Timeout time.Duration

	// HandlerTimeout bounds each tool handler. Default 30s.
	HandlerTimeout time.Duration

	// ParallelToolCalls lets the model request several tools per turn and
	// runs them concurrently. Default false: one call at a time.
	ParallelToolCalls bool

	SystemPrompt string

	// Approver enables human approval of tool calls. Nil approves all.
	Approver ApproverFunc

	StopPredicate StopFunc

	// ChatOptions are passed to every model call.
	ChatOptions []ai.Option

	Events chan<- event.Event
	Logger *zap.Logger
}

// Option configures Options.
type Option func(*Options)

// WithMaxSteps sets the step limit.
func WithMaxSteps(n int) Option {
	return func(o *Options) {
		o.MaxSteps = n
	}
}

// WithTimeout sets a deadline for the whole run.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithHandlerTimeout sets the per-handler timeout. 0 disables it.
func WithHandlerTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandlerTimeout = d
	}
}

// WithParallelToolCalls enables or disables parallel tool calls.
func WithParallelToolCalls(enabled bool) Option {
	return func(o *Options) {
		o.ParallelToolCalls = enabled
	}
}

// WithSystemPrompt replaces DefaultSystemPrompt. An empty prompt sends no
// system message.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithApprover requires approval before each tool call.
func WithApprover(fn ApproverFunc) Option {
	return func(o *Options) {
		o.Approver = fn
	}
}

// WithStopPredicate sets a custom termination condition.
func WithStopPredicate(fn StopFunc) Option {
	return func(o *Options) {
		o.StopPredicate = fn
	}
}

// WithChatOptions passes options through to the chat provider.
func WithChatOptions(opts ...ai.Option) Option {
	return func(o *Options) {
		o.ChatOptions = append(o.ChatOptions, opts...)
	}
}

// WithEvents streams run events to ch.
func WithEvents(ch chan<- event.Event) Option {
	return func(o *Options) {
		o.Events = ch
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// ApplyOptions returns Options with defaults and opts applied.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxSteps:       10,
		HandlerTimeout: 30 * time.Second,
		SystemPrompt:   DefaultSystemPrompt,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}
