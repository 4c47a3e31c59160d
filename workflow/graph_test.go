package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/scholar/checkpoint"
	"github.com/spetersoncode/scholar/event"
)

// approvalGraph mirrors a human-in-the-loop flow: generate, wait for
// feedback, then either regenerate or finish.
func approvalGraph(saver Checkpointer) *Graph[testState] {
	return NewGraph[testState]("approval").
		AddNodeFunc("generate", func(_ context.Context, s *testState) error {
			s.Count++
			s.Log = append(s.Log, "generate")
			return nil
		}).
		AddNodeFunc("feedback", func(context.Context, *testState) error { return nil }).
		AddNode(appendStep("finish")).
		AddEdge("generate", "feedback").
		AddConditionalEdge("feedback", func(s *testState) (string, error) {
			if s.Feedback != "" {
				s.Feedback = ""
				return "generate", nil
			}
			return "finish", nil
		}).
		AddEdge("finish", End).
		InterruptBefore("feedback").
		WithCheckpointer(saver)
}

func TestGraph_Validate(t *testing.T) {
	require.NoError(t, approvalGraph(nil).Validate())

	g := NewGraph[testState]("g").AddNode(appendStep("a")).AddEdge("a", "missing")
	assert.ErrorIs(t, g.Validate(), ErrNodeNotFound)

	g = NewGraph[testState]("g").AddNode(appendStep("a"))
	assert.Error(t, g.Validate())
}

func TestGraph_RunWithoutInterrupts(t *testing.T) {
	g := NewGraph[testState]("g").
		AddNode(appendStep("a")).
		AddNode(appendStep("b")).
		AddEdge("a", "b").
		AddEdge("b", End)

	ch := event.NewChannel()
	state := &testState{}
	require.NoError(t, g.Run(context.Background(), state, WithEvents(ch)))
	assert.Equal(t, []string{"a", "b"}, state.Log)

	types := eventTypes(drain(ch))
	assert.Equal(t, event.RunStart, types[0])
	assert.Equal(t, event.RunEnd, types[len(types)-1])
}

func TestGraph_InterruptAndResume(t *testing.T) {
	ctx := context.Background()
	saver := newSaver()
	g := approvalGraph(saver)

	err := g.Start(ctx, "thread-1", &testState{})
	require.ErrorIs(t, err, ErrInterrupted)

	cp, err := saver.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusInterrupted, cp.Status)
	assert.Equal(t, "feedback", cp.Node)

	// Feedback sends the run back to generate and suspends again.
	state, err := g.Resume(ctx, "thread-1", func(s *testState) error {
		s.Feedback = "add a historian"
		return nil
	})
	require.ErrorIs(t, err, ErrInterrupted)
	assert.Equal(t, 2, state.Count)

	// No feedback releases the run.
	state, err = g.Resume(ctx, "thread-1", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"generate", "generate", "finish"}, state.Log)

	cp, err = saver.Load(ctx, "thread-1")
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusCompleted, cp.Status)

	_, err = g.Resume(ctx, "thread-1", nil)
	assert.Error(t, err)
}

func TestGraph_ResumeUnknownThread(t *testing.T) {
	_, err := approvalGraph(newSaver()).Resume(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestGraph_StartRequiresCheckpointer(t *testing.T) {
	err := approvalGraph(nil).Start(context.Background(), "t", &testState{})
	assert.ErrorIs(t, err, ErrNoCheckpointer)
}

func TestGraph_MaxVisits(t *testing.T) {
	g := NewGraph[testState]("loop").
		AddNode(appendStep("spin")).
		AddConditionalEdge("spin", func(*testState) (string, error) { return "spin", nil })

	err := g.Run(context.Background(), &testState{}, WithMaxVisits(3))
	assert.ErrorIs(t, err, ErrMaxVisits)
}

func TestGraph_RouteToUnknownNode(t *testing.T) {
	g := NewGraph[testState]("g").
		AddNode(appendStep("a")).
		AddConditionalEdge("a", func(*testState) (string, error) { return "ghost", nil })

	err := g.Run(context.Background(), &testState{})
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestGraph_FailedRunCanBeRetried(t *testing.T) {
	ctx := context.Background()
	saver := newSaver()
	attempts := 0
	g := NewGraph[testState]("flaky").
		AddNode(appendStep("a")).
		AddNodeFunc("b", func(_ context.Context, s *testState) error {
			attempts++
			if attempts == 1 {
				return errors.New("temporary")
			}
			s.Log = append(s.Log, "b")
			return nil
		}).
		AddEdge("a", "b").
		AddEdge("b", End).
		WithCheckpointer(saver)

	err := g.Start(ctx, "t", &testState{})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "b", stepErr.StepName)

	cp, err := saver.Load(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, checkpoint.StatusFailed, cp.Status)
	assert.Equal(t, "b", cp.Node)
	assert.Contains(t, cp.Error, "temporary")

	state, err := g.Resume(ctx, "t", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, state.Log)
}

func TestGraph_RouteSelectedEvent(t *testing.T) {
	ch := event.NewChannel()
	g := NewGraph[testState]("g").
		AddNode(appendStep("a")).
		AddNode(appendStep("b")).
		AddConditionalEdge("a", func(*testState) (string, error) { return "b", nil }).
		AddEdge("b", End)

	require.NoError(t, g.Run(context.Background(), &testState{}, WithEvents(ch)))

	var routes []string
	for _, e := range drain(ch) {
		if e.Type == event.RouteSelected {
			routes = append(routes, e.RouteName)
		}
	}
	assert.Equal(t, []string{"b"}, routes)
}
