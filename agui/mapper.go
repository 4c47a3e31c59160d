package agui

import (
	"fmt"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/scholar/event"
)

// Custom event names.
const (
	EventAwaitingFeedback = "awaiting_feedback"
	EventRouteSelected    = "route_selected"
	EventRetrying         = "retrying"
)

// Mapper converts events of one run to AG-UI events.
type Mapper struct {
	threadID    string
	runID       string
	depth       int // open runs; only the outermost is a protocol run
	started     bool
	finished    bool
	interrupted bool
}

// NewMapper creates a mapper. Empty IDs are generated.
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{threadID: threadID, runID: runID}
}

// ThreadID returns the thread ID.
func (m *Mapper) ThreadID() string { return m.threadID }

// RunID returns the run ID.
func (m *Mapper) RunID() string { return m.runID }

// Start returns RUN_STARTED the first time it is called and nil after.
func (m *Mapper) Start() events.Event {
	if m.started {
		return nil
	}
	m.started = true
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// Finish closes the run: RUN_ERROR when err is set, RUN_FINISHED otherwise.
// A run that was interrupted always finishes cleanly. It returns nil if the
// run was already closed.
func (m *Mapper) Finish(err error) events.Event {
	if m.finished {
		return nil
	}
	m.finished = true
	if err != nil && !m.interrupted {
		return events.NewRunErrorEvent(err.Error())
	}
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// Interrupted reports a run suspended before node.
func (m *Mapper) Interrupted(node string) events.Event {
	m.interrupted = true
	return events.NewCustomEvent(EventAwaitingFeedback, events.WithValue(map[string]string{
		"threadId": m.threadID,
		"node":     node,
	}))
}

// Map converts e. It returns nil for events with no AG-UI counterpart.
func (m *Mapper) Map(e event.Event) events.Event {
	switch e.Type {
	case event.RunStart:
		m.depth++
		if m.depth == 1 {
			return m.Start()
		}
		return events.NewStepStartedEvent(stepName(e))
	case event.RunEnd:
		m.depth--
		if m.depth <= 0 {
			return m.Finish(nil)
		}
		return events.NewStepFinishedEvent(stepName(e))
	case event.RunError:
		m.depth--
		if m.depth <= 0 {
			return m.Finish(e.Error)
		}
		return events.NewStepFinishedEvent(stepName(e))
	case event.RunInterrupted:
		return m.Interrupted(e.StepName)

	case event.StepStart, event.ParallelStart:
		return events.NewStepStartedEvent(stepName(e))
	case event.StepEnd, event.StepSkipped, event.ParallelEnd:
		return events.NewStepFinishedEvent(stepName(e))

	case event.MessageStart:
		return events.NewTextMessageStartEvent(e.MessageID, events.WithRole(RoleAssistant))
	case event.MessageDelta:
		return events.NewTextMessageContentEvent(e.MessageID, e.Delta)
	case event.MessageEnd:
		return events.NewTextMessageEndEvent(e.MessageID)

	case event.ToolCallStart:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallStartEvent(e.ToolCall.ID, e.ToolCall.Name)
	case event.ToolCallArgs:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallArgsEvent(e.ToolCall.ID, e.ToolCall.Arguments)
	case event.ToolCallEnd:
		if e.ToolCall == nil {
			return nil
		}
		return events.NewToolCallEndEvent(e.ToolCall.ID)
	case event.ToolCallResult:
		if e.ToolCall == nil || e.ToolResult == nil {
			return nil
		}
		return events.NewToolCallResultEvent(events.GenerateMessageID(), e.ToolCall.ID, e.ToolResult.Content)

	case event.RouteSelected:
		return events.NewCustomEvent(EventRouteSelected, events.WithValue(map[string]string{
			"from":  e.StepName,
			"to":    e.RouteName,
			"scope": e.Scope,
		}))
	case event.Retrying:
		return events.NewCustomEvent(EventRetrying, events.WithValue(map[string]string{
			"message": e.Message,
		}))
	}
	return nil
}

// stepName qualifies a step with its scope and falls back to the agent
// step number.
func stepName(e event.Event) string {
	name := e.StepName
	if name == "" && e.Step > 0 {
		name = fmt.Sprintf("step %d", e.Step)
	}
	if e.Scope != "" {
		return e.Scope + "/" + name
	}
	return name
}
