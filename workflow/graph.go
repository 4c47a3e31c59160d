package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/checkpoint"
	"github.com/spetersoncode/scholar/event"
)

// End is the pseudo-node that terminates a graph run.
const End = "__end__"

// RouteFunc picks the next node from the current state.
type RouteFunc[S any] func(state *S) (string, error)

// Checkpointer persists the position and state of a graph run.
type Checkpointer interface {
	Save(ctx context.Context, cp *checkpoint.Checkpoint) error
	Load(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error)
}

// Graph runs named steps connected by static and conditional edges. The
// first node added is the entry point unless SetEntry says otherwise.
//
// With a checkpointer, Start and Resume persist the next node and the JSON
// encoded state after every node, so a run suspended before an interrupt
// node (or killed mid-way) can be continued later.
type Graph[S any] struct {
	name      string
	entry     string
	nodes     map[string]Step[S]
	edges     map[string]string
	routes    map[string]RouteFunc[S]
	interrupt map[string]bool
	saver     Checkpointer
}

// NewGraph creates an empty graph.
func NewGraph[S any](name string) *Graph[S] {
	return &Graph[S]{
		name:      name,
		nodes:     make(map[string]Step[S]),
		edges:     make(map[string]string),
		routes:    make(map[string]RouteFunc[S]),
		interrupt: make(map[string]bool),
	}
}

// Name returns the graph name.
func (g *Graph[S]) Name() string { return g.name }

// AddNode registers step under its name.
func (g *Graph[S]) AddNode(step Step[S]) *Graph[S] {
	if g.entry == "" {
		g.entry = step.Name()
	}
	g.nodes[step.Name()] = step
	return g
}

// AddNodeFunc registers fn as a node.
func (g *Graph[S]) AddNodeFunc(name string, fn StepFunc[S]) *Graph[S] {
	return g.AddNode(NewFuncStep(name, fn))
}

// SetEntry selects the node a fresh run starts at.
func (g *Graph[S]) SetEntry(name string) *Graph[S] {
	g.entry = name
	return g
}

// AddEdge routes from to to unconditionally.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	g.edges[from] = to
	return g
}

// AddConditionalEdge lets route choose the successor of from.
func (g *Graph[S]) AddConditionalEdge(from string, route RouteFunc[S]) *Graph[S] {
	g.routes[from] = route
	return g
}

// InterruptBefore suspends a run each time it reaches one of the named nodes.
// Resume continues by running that node.
func (g *Graph[S]) InterruptBefore(names ...string) *Graph[S] {
	for _, n := range names {
		g.interrupt[n] = true
	}
	return g
}

// WithCheckpointer enables Start and Resume.
func (g *Graph[S]) WithCheckpointer(c Checkpointer) *Graph[S] {
	g.saver = c
	return g
}

// Validate checks that the entry and every static edge target exist and
// that every node has a way out.
func (g *Graph[S]) Validate() error {
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("%w: entry %q", ErrNodeNotFound, g.entry)
	}
	for from, to := range g.edges {
		if _, ok := g.nodes[from]; !ok {
			return fmt.Errorf("%w: %q", ErrNodeNotFound, from)
		}
		if _, ok := g.nodes[to]; !ok && to != End {
			return fmt.Errorf("%w: %q (edge from %q)", ErrNodeNotFound, to, from)
		}
	}
	for name := range g.nodes {
		_, static := g.edges[name]
		_, cond := g.routes[name]
		if !static && !cond {
			return fmt.Errorf("workflow: node %q has no outgoing edge", name)
		}
	}
	return nil
}

// Run executes the graph without checkpoints. It makes a graph usable as a
// step inside another workflow.
func (g *Graph[S]) Run(ctx context.Context, state *S, opts ...Option) error {
	return g.execute(ctx, "", state, g.entry, false, opts)
}

// Start begins a checkpointed run for threadID.
func (g *Graph[S]) Start(ctx context.Context, threadID string, state *S, opts ...Option) error {
	if g.saver == nil {
		return ErrNoCheckpointer
	}
	return g.execute(ctx, threadID, state, g.entry, false, opts)
}

// Resume loads the latest checkpoint of threadID, applies update to the
// restored state and continues from the saved node. It returns the state
// as it stands when the run ends or suspends again.
func (g *Graph[S]) Resume(ctx context.Context, threadID string, update func(*S) error, opts ...Option) (*S, error) {
	if g.saver == nil {
		return nil, ErrNoCheckpointer
	}
	cp, err := g.saver.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if cp.Status == checkpoint.StatusCompleted {
		return nil, fmt.Errorf("workflow: thread %q already completed", threadID)
	}

	state := new(S)
	if err := json.Unmarshal(cp.State, state); err != nil {
		return nil, fmt.Errorf("workflow: decode checkpoint state: %w", err)
	}
	if update != nil {
		if err := update(state); err != nil {
			return state, err
		}
	}
	return state, g.execute(ctx, threadID, state, cp.Node, true, opts)
}

func (g *Graph[S]) execute(ctx context.Context, threadID string, state *S, node string, resumed bool, opts []Option) error {
	options := ApplyOptions(opts...)
	logger := options.Logger.With(zap.String("graph", g.name), zap.String("thread", threadID))

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	options.emit(event.Event{Type: event.RunStart, StepName: g.name, Message: threadID})
	visits := make(map[string]int)

	fail := func(node string, err error) error {
		g.save(ctx, threadID, node, checkpoint.StatusFailed, state, err, logger)
		options.emit(event.Event{Type: event.RunError, StepName: node, Error: err})
		return err
	}

	for node != End {
		if g.interrupt[node] && !resumed {
			if err := g.save(ctx, threadID, node, checkpoint.StatusInterrupted, state, nil, logger); err != nil {
				return fail(node, err)
			}
			logger.Info("run interrupted", zap.String("before", node))
			options.emit(event.Event{Type: event.RunInterrupted, StepName: node, Message: threadID})
			return ErrInterrupted
		}
		resumed = false

		step, ok := g.nodes[node]
		if !ok {
			return fail(node, fmt.Errorf("%w: %q", ErrNodeNotFound, node))
		}

		visits[node]++
		if options.MaxVisits > 0 && visits[node] > options.MaxVisits {
			return fail(node, fmt.Errorf("%w: %q entered %d times", ErrMaxVisits, node, visits[node]))
		}

		if err := ctx.Err(); err != nil {
			return fail(node, &StepError{StepName: node, Err: err})
		}
		if err := runStep(ctx, step, state, options, opts); err != nil {
			if errors.Is(err, ErrInterrupted) {
				return err
			}
			return fail(node, &StepError{StepName: node, Err: err})
		}

		next, err := g.next(node, state)
		if err != nil {
			return fail(node, &StepError{StepName: node, Err: err})
		}
		if _, cond := g.routes[node]; cond {
			logger.Debug("route selected", zap.String("from", node), zap.String("to", next))
			options.emit(event.Event{Type: event.RouteSelected, StepName: node, RouteName: next})
		}

		status := checkpoint.StatusRunning
		if next == End {
			status = checkpoint.StatusCompleted
		}
		if err := g.save(ctx, threadID, next, status, state, nil, logger); err != nil {
			return fail(next, err)
		}
		node = next
	}

	options.emit(event.Event{Type: event.RunEnd, StepName: g.name, Message: threadID})
	return nil
}

func (g *Graph[S]) next(node string, state *S) (string, error) {
	if route, ok := g.routes[node]; ok {
		next, err := route(state)
		if err != nil {
			return "", err
		}
		if _, ok := g.nodes[next]; !ok && next != End {
			return "", fmt.Errorf("%w: %q (route from %q)", ErrNodeNotFound, next, node)
		}
		return next, nil
	}
	if next, ok := g.edges[node]; ok {
		return next, nil
	}
	return "", fmt.Errorf("workflow: node %q has no outgoing edge", node)
}

func (g *Graph[S]) save(ctx context.Context, threadID, node string, status checkpoint.Status, state *S, runErr error, logger *zap.Logger) error {
	if g.saver == nil || threadID == "" {
		return nil
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("workflow: encode checkpoint state: %w", err)
	}
	cp := &checkpoint.Checkpoint{
		ThreadID: threadID,
		Node:     node,
		Status:   status,
		State:    data,
	}
	if runErr != nil {
		cp.Error = runErr.Error()
	}
	if err := g.saver.Save(context.WithoutCancel(ctx), cp); err != nil {
		logger.Error("checkpoint save failed", zap.String("node", node), zap.Error(err))
		return fmt.Errorf("workflow: save checkpoint: %w", err)
	}
	return nil
}
