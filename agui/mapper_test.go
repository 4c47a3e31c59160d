package agui

import (
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/event"
)

func TestNewMapper(t *testing.T) {
	t.Run("with provided IDs", func(t *testing.T) {
		m := NewMapper("thread-123", "run-456")
		if m.ThreadID() != "thread-123" {
			t.Errorf("expected thread ID 'thread-123', got %q", m.ThreadID())
		}
		if m.RunID() != "run-456" {
			t.Errorf("expected run ID 'run-456', got %q", m.RunID())
		}
	})

	t.Run("generates IDs when empty", func(t *testing.T) {
		m := NewMapper("", "")
		if m.ThreadID() == "" {
			t.Error("expected generated thread ID, got empty")
		}
		if m.RunID() == "" {
			t.Error("expected generated run ID, got empty")
		}
	})
}

func TestMapper_StartFinishOnce(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	if ev := m.Start(); ev == nil || ev.Type() != events.EventTypeRunStarted {
		t.Fatalf("expected RUN_STARTED, got %v", ev)
	}
	if ev := m.Start(); ev != nil {
		t.Errorf("expected nil on second Start, got %s", ev.Type())
	}
	if ev := m.Finish(errors.New("boom")); ev == nil || ev.Type() != events.EventTypeRunError {
		t.Fatalf("expected RUN_ERROR, got %v", ev)
	}
	if ev := m.Finish(nil); ev != nil {
		t.Errorf("expected nil on second Finish, got %s", ev.Type())
	}
}

func TestMapper_NestedRuns(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	seq := []struct {
		in   event.Event
		want events.EventType
	}{
		{event.Event{Type: event.RunStart, StepName: "research"}, events.EventTypeRunStarted},
		{event.Event{Type: event.StepStart, StepName: "conduct_interviews"}, events.EventTypeStepStarted},
		{event.Event{Type: event.RunStart, StepName: "interview", Scope: "Ada"}, events.EventTypeStepStarted},
		{event.Event{Type: event.RunEnd, StepName: "interview", Scope: "Ada"}, events.EventTypeStepFinished},
		{event.Event{Type: event.RunStart, StepName: "interview", Scope: "Bob"}, events.EventTypeStepStarted},
		{event.Event{Type: event.RunError, StepName: "ask_question", Scope: "Bob", Error: errors.New("x")}, events.EventTypeStepFinished},
		{event.Event{Type: event.StepEnd, StepName: "conduct_interviews"}, events.EventTypeStepFinished},
		{event.Event{Type: event.RunEnd, StepName: "research"}, events.EventTypeRunFinished},
	}
	for i, s := range seq {
		got := m.Map(s.in)
		if got == nil {
			t.Fatalf("event %d (%s): expected %s, got nil", i, s.in.Type, s.want)
		}
		if got.Type() != s.want {
			t.Errorf("event %d (%s): expected %s, got %s", i, s.in.Type, s.want, got.Type())
		}
	}
}

func TestMapper_OuterRunError(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	m.Map(event.Event{Type: event.RunStart})

	ev := m.Map(event.Event{Type: event.RunError, Error: errors.New("failed")})
	if ev == nil || ev.Type() != events.EventTypeRunError {
		t.Fatalf("expected RUN_ERROR, got %v", ev)
	}
}

func TestMapper_Interrupted(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	m.Map(event.Event{Type: event.RunStart})

	ev := m.Map(event.Event{Type: event.RunInterrupted, StepName: "human_feedback"})
	custom, ok := ev.(*events.CustomEvent)
	if !ok {
		t.Fatalf("expected *CustomEvent, got %T", ev)
	}
	if custom.Name != EventAwaitingFeedback {
		t.Errorf("expected name %q, got %q", EventAwaitingFeedback, custom.Name)
	}

	// The interrupt error still closes the run cleanly.
	if ev := m.Finish(errors.New("workflow: interrupted")); ev == nil || ev.Type() != events.EventTypeRunFinished {
		t.Errorf("expected RUN_FINISHED after interrupt, got %v", ev)
	}
}

func TestMapper_MapEvent_MessageLifecycle(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	tests := []struct {
		name string
		in   event.Event
		want events.EventType
	}{
		{"start", event.Event{Type: event.MessageStart, MessageID: "msg-1"}, events.EventTypeTextMessageStart},
		{"delta", event.Event{Type: event.MessageDelta, MessageID: "msg-1", Delta: "Hi"}, events.EventTypeTextMessageContent},
		{"end", event.Event{Type: event.MessageEnd, MessageID: "msg-1"}, events.EventTypeTextMessageEnd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Map(tt.in)
			if got == nil {
				t.Fatal("expected event, got nil")
			}
			if got.Type() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Type())
			}
		})
	}
}

func TestMapper_MapEvent_ToolCallLifecycle(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	call := &ai.ToolCall{ID: "call-1", Name: "add", Arguments: `{"a":1,"b":2}`}

	tests := []struct {
		name string
		in   event.Event
		want events.EventType
	}{
		{"start", event.Event{Type: event.ToolCallStart, ToolCall: call}, events.EventTypeToolCallStart},
		{"args", event.Event{Type: event.ToolCallArgs, ToolCall: call}, events.EventTypeToolCallArgs},
		{"end", event.Event{Type: event.ToolCallEnd, ToolCall: call}, events.EventTypeToolCallEnd},
		{"result", event.Event{Type: event.ToolCallResult, ToolCall: call, ToolResult: &ai.ToolResult{ToolCallID: "call-1", Content: "3"}}, events.EventTypeToolCallResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Map(tt.in)
			if got == nil {
				t.Fatal("expected event, got nil")
			}
			if got.Type() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Type())
			}
		})
	}

	t.Run("missing call maps to nil", func(t *testing.T) {
		for _, typ := range []event.Type{event.ToolCallStart, event.ToolCallArgs, event.ToolCallEnd, event.ToolCallResult} {
			if got := m.Map(event.Event{Type: typ}); got != nil {
				t.Errorf("%s: expected nil, got %s", typ, got.Type())
			}
		}
	})
}

func TestMapper_MapEvent_CustomWorkflowEvents(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	route := m.Map(event.Event{Type: event.RouteSelected, StepName: "human_feedback", RouteName: "create_analysts"})
	if c, ok := route.(*events.CustomEvent); !ok || c.Name != EventRouteSelected {
		t.Errorf("expected %s custom event, got %v", EventRouteSelected, route)
	}

	retry := m.Map(event.Event{Type: event.Retrying, Message: "attempt 2"})
	if c, ok := retry.(*events.CustomEvent); !ok || c.Name != EventRetrying {
		t.Errorf("expected %s custom event, got %v", EventRetrying, retry)
	}
}

func TestStepName(t *testing.T) {
	tests := []struct {
		in   event.Event
		want string
	}{
		{event.Event{StepName: "ask_question"}, "ask_question"},
		{event.Event{StepName: "ask_question", Scope: "Ada"}, "Ada/ask_question"},
		{event.Event{Step: 3}, "step 3"},
		{event.Event{}, ""},
	}
	for _, tt := range tests {
		if got := stepName(tt.in); got != tt.want {
			t.Errorf("stepName(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
