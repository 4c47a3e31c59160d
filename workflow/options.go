package workflow

import (
	"time"

	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/event"
)

// Options contains configuration for workflow execution.
type Options struct {
	// Timeout sets a deadline for the entire run.
	Timeout time.Duration

	// StepTimeout bounds each step. Zero means no per-step deadline.
	StepTimeout time.Duration

	// MaxConcurrency limits parallel branches and spawned tasks (0 = unlimited).
	MaxConcurrency int

	// ContinueOnError hands branch failures to the aggregator instead of
	// failing the parallel step.
	ContinueOnError bool

	// MaxVisits bounds how often a graph may enter the same node.
	MaxVisits int

	// Events receives lifecycle events. Nil disables them.
	Events chan<- event.Event

	// Scope tags emitted events, e.g. with the interview's analyst.
	Scope string

	Logger *zap.Logger
}

// Option is a functional option for workflow configuration.
type Option func(*Options)

// WithTimeout sets the overall run timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.Timeout = d
	}
}

// WithStepTimeout sets the timeout for each step.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StepTimeout = d
	}
}

// WithMaxConcurrency limits parallel execution.
// A value of 0 means unlimited concurrency.
func WithMaxConcurrency(n int) Option {
	return func(o *Options) {
		o.MaxConcurrency = n
	}
}

// WithContinueOnError lets parallel steps succeed with failed branches.
func WithContinueOnError(enabled bool) Option {
	return func(o *Options) {
		o.ContinueOnError = enabled
	}
}

// WithMaxVisits bounds node re-entry in a graph.
func WithMaxVisits(n int) Option {
	return func(o *Options) {
		o.MaxVisits = n
	}
}

// WithEvents sends lifecycle events to ch.
func WithEvents(ch chan<- event.Event) Option {
	return func(o *Options) {
		o.Events = ch
	}
}

// WithScope tags emitted events with scope.
func WithScope(scope string) Option {
	return func(o *Options) {
		o.Scope = scope
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// ApplyOptions applies functional options with defaults.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{
		MaxVisits: 25,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o *Options) emit(e event.Event) {
	if e.Scope == "" {
		e.Scope = o.Scope
	}
	event.Emit(o.Events, e)
}
