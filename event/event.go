// Package event defines the events emitted by the client, agent and workflow
// packages. The types map one to one onto AG-UI protocol events.
package event

import (
	"time"

	ai "github.com/spetersoncode/scholar"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	RunStart Type = "run_start"
	RunEnd   Type = "run_end"
	RunError Type = "run_error"

	// RunInterrupted fires when a run suspends waiting for external input.
	RunInterrupted Type = "run_interrupted"
)

// Step lifecycle events
const (
	StepStart   Type = "step_start"
	StepEnd     Type = "step_end"
	StepSkipped Type = "step_skipped"
)

// Message lifecycle events
const (
	MessageStart Type = "message_start"
	MessageDelta Type = "message_delta"
	MessageEnd   Type = "message_end"
)

// Tool call lifecycle events
const (
	ToolCallStart  Type = "tool_call_start"
	ToolCallArgs   Type = "tool_call_args"
	ToolCallEnd    Type = "tool_call_end"
	ToolCallResult Type = "tool_call_result"
)

// Workflow-specific events
const (
	ParallelStart Type = "parallel_start"
	ParallelEnd   Type = "parallel_end"
	RouteSelected Type = "route_selected"

	// Retrying fires before a failed provider call is retried.
	Retrying Type = "retrying"
)

// Event is an observable occurrence during a run.
type Event struct {
	Type Type

	// MessageID correlates Start/Delta/End message events.
	MessageID string

	// Delta contains content for MessageDelta events.
	Delta string

	// Response contains the complete response for MessageEnd events.
	Response *ai.Response

	ToolCall   *ai.ToolCall
	ToolResult *ai.ToolResult

	// Step is the 1-indexed agent iteration.
	Step int

	// StepName identifies the workflow node.
	StepName string

	// Scope names the sub-workflow instance that emitted the event,
	// e.g. the analyst being interviewed. Empty for the top level.
	Scope string

	// RouteName identifies the chosen successor for RouteSelected events.
	RouteName string

	Error error

	// Message carries extra context such as an interrupt or termination reason.
	Message string

	Timestamp time.Time
}

// Emit sends e to ch without blocking; events are dropped when ch is full
// or nil.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 100)
}
