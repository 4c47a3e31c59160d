package workflow

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spetersoncode/scholar/event"
)

// Cloner is implemented by states that need a deep copy before being handed
// to a parallel branch. States without it are copied by value.
type Cloner[S any] interface {
	Clone() *S
}

// CloneState returns an independent copy of state for a branch.
func CloneState[S any](state *S) *S {
	if c, ok := any(state).(Cloner[S]); ok {
		return c.Clone()
	}
	cp := *state
	return &cp
}

// Aggregator folds the branch states back into the shared state. branches
// holds the successful branches by step name; errs holds the failed ones
// when ContinueOnError is set.
type Aggregator[S any] func(state *S, branches map[string]*S, errs map[string]error) error

// Parallel executes steps concurrently, each on its own copy of the state,
// and aggregates the results once every branch has finished.
type Parallel[S any] struct {
	name       string
	steps      []Step[S]
	aggregator Aggregator[S]
}

// NewParallel creates a parallel workflow. If aggregator is nil, branch
// changes are discarded.
func NewParallel[S any](name string, steps []Step[S], aggregator Aggregator[S]) *Parallel[S] {
	return &Parallel[S]{
		name:       name,
		steps:      steps,
		aggregator: aggregator,
	}
}

// Name returns the parallel workflow name.
func (p *Parallel[S]) Name() string { return p.name }

// Run executes all branches and waits for them. A failing branch does not
// cancel its siblings.
func (p *Parallel[S]) Run(ctx context.Context, state *S, opts ...Option) error {
	options := ApplyOptions(opts...)

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	options.emit(event.Event{Type: event.ParallelStart, StepName: p.name})

	branches := make(map[string]*S, len(p.steps))
	errs := make(map[string]error)
	var mu sync.Mutex

	var g errgroup.Group
	if options.MaxConcurrency > 0 {
		g.SetLimit(options.MaxConcurrency)
	}

	for _, step := range p.steps {
		branch := CloneState(state)
		g.Go(func() error {
			err := runStep(ctx, step, branch, options, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[step.Name()] = err
			} else {
				branches[step.Name()] = branch
			}
			return nil
		})
	}
	_ = g.Wait()

	options.emit(event.Event{Type: event.ParallelEnd, StepName: p.name})

	if len(errs) > 0 && !options.ContinueOnError {
		return &ParallelError{Errors: errs}
	}

	if p.aggregator != nil {
		return p.aggregator(state, branches, errs)
	}
	return nil
}
