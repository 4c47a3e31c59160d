package workflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/event"
)

// Chain executes steps sequentially, passing state between them.
type Chain[S any] struct {
	name  string
	steps []Step[S]
}

// NewChain creates a sequential workflow.
func NewChain[S any](name string, steps ...Step[S]) *Chain[S] {
	return &Chain[S]{name: name, steps: steps}
}

// Name returns the chain name.
func (c *Chain[S]) Name() string { return c.name }

// Run executes steps in order and stops at the first failure.
func (c *Chain[S]) Run(ctx context.Context, state *S, opts ...Option) error {
	options := ApplyOptions(opts...)

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	for _, step := range c.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{StepName: step.Name(), Err: err}
		}
		if err := runStep(ctx, step, state, options, opts); err != nil {
			return &StepError{StepName: step.Name(), Err: err}
		}
	}
	return nil
}

// runStep runs one step under the step timeout and emits its lifecycle events.
func runStep[S any](ctx context.Context, step Step[S], state *S, options *Options, opts []Option) error {
	if options.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.StepTimeout)
		defer cancel()
	}

	start := time.Now()
	options.emit(event.Event{Type: event.StepStart, StepName: step.Name()})
	err := step.Run(ctx, state, opts...)
	if err != nil {
		options.Logger.Debug("step failed", zap.String("step", step.Name()), zap.String("scope", options.Scope), zap.Error(err))
		return err
	}
	options.emit(event.Event{Type: event.StepEnd, StepName: step.Name()})
	options.Logger.Debug("step complete",
		zap.String("step", step.Name()),
		zap.String("scope", options.Scope),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}
