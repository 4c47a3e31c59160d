// Package workflow runs pipelines of steps over a user-defined state struct.
//
// Every building block implements Step[S]:
//   - FuncStep: a plain function
//   - PromptStep / TypedPromptStep: one LLM call, optionally schema-checked
//   - Chain: sequential execution over shared state
//   - Parallel: concurrent branches, each on its own copy of the state,
//     folded back by an Aggregator
//   - Graph: named nodes joined by static and conditional edges
//
// # Graphs and checkpoints
//
// A Graph can suspend before selected nodes and pick up again later:
//
//	g := workflow.NewGraph[State]("research").
//	    AddNodeFunc("create_analysts", createAnalysts).
//	    AddNodeFunc("human_feedback", noop).
//	    AddNodeFunc("conduct_interviews", conduct).
//	    AddEdge("create_analysts", "human_feedback").
//	    AddConditionalEdge("human_feedback", afterFeedback).
//	    AddEdge("conduct_interviews", workflow.End).
//	    InterruptBefore("human_feedback").
//	    WithCheckpointer(saver)
//
//	err := g.Start(ctx, threadID, &State{Topic: topic})
//	if errors.Is(err, workflow.ErrInterrupted) {
//	    // later, possibly in another process
//	    state, err = g.Resume(ctx, threadID, func(s *State) error {
//	        s.Feedback = feedback
//	        return nil
//	    })
//	}
//
// The state is persisted as JSON, so its fields must be exported.
//
// # Fan-out
//
// Spawn and Group run independent tasks with bounded concurrency and return
// every outcome, failed or not, once the last task is done.
package workflow
