package workflow

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Outcome is the terminal result of a spawned task.
type Outcome[T any] struct {
	Name  string
	Index int // spawn order
	Value T
	Err   error
}

// Group runs independent tasks and joins them at a barrier. A failing task
// never cancels its siblings.
type Group[T any] struct {
	ctx      context.Context
	g        errgroup.Group
	mu       sync.Mutex
	outcomes []Outcome[T]
	next     int
}

// NewGroup creates a task group. limit bounds the number of tasks running
// at once (0 = unlimited).
func NewGroup[T any](ctx context.Context, limit int) *Group[T] {
	grp := &Group[T]{ctx: ctx}
	if limit > 0 {
		grp.g.SetLimit(limit)
	}
	return grp
}

// Spawn starts fn as a task named name. It blocks while the group is at its
// concurrency limit.
func (grp *Group[T]) Spawn(name string, fn func(ctx context.Context) (T, error)) {
	grp.mu.Lock()
	index := grp.next
	grp.next++
	grp.mu.Unlock()

	grp.g.Go(func() error {
		value, err := fn(grp.ctx)

		grp.mu.Lock()
		grp.outcomes = append(grp.outcomes, Outcome[T]{Name: name, Index: index, Value: value, Err: err})
		grp.mu.Unlock()
		return nil
	})
}

// Wait blocks until every spawned task is terminal and returns their
// outcomes in the order they finished.
func (grp *Group[T]) Wait() []Outcome[T] {
	_ = grp.g.Wait()
	grp.mu.Lock()
	defer grp.mu.Unlock()
	return append([]Outcome[T](nil), grp.outcomes...)
}

// Spawn runs fn once per input as independent tasks and waits for all of
// them.
func Spawn[In, Out any](ctx context.Context, limit int, inputs []In, name func(In) string, fn func(ctx context.Context, in In) (Out, error)) []Outcome[Out] {
	grp := NewGroup[Out](ctx, limit)
	for _, in := range inputs {
		grp.Spawn(name(in), func(ctx context.Context) (Out, error) {
			return fn(ctx, in)
		})
	}
	return grp.Wait()
}
