package agui

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
)

func TestRunAgentInput_Prepare(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		var in RunAgentInput
		body := `{"threadId":"t1","runId":"r1","messages":[{"id":"m1","role":"user","content":"Multiply 2 and 3."}]}`
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		p, err := in.Prepare()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ThreadID != "t1" || p.RunID != "r1" {
			t.Errorf("unexpected IDs %q %q", p.ThreadID, p.RunID)
		}
		text, err := p.LastUserText()
		if err != nil || text != "Multiply 2 and 3." {
			t.Errorf("LastUserText() = %q, %v", text, err)
		}
	})

	t.Run("generates IDs", func(t *testing.T) {
		in := RunAgentInput{Messages: []events.Message{userMsg("hi")}}
		p, err := in.Prepare()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ThreadID == "" || p.RunID == "" {
			t.Error("expected generated IDs")
		}
	})

	t.Run("no messages", func(t *testing.T) {
		in := RunAgentInput{ThreadID: "t1"}
		if _, err := in.Prepare(); !errors.Is(err, ErrNoMessages) {
			t.Errorf("expected ErrNoMessages, got %v", err)
		}
	})
}

func TestPreparedInput_LastUserTextMissing(t *testing.T) {
	in := RunAgentInput{Messages: []events.Message{{ID: "a", Role: RoleAssistant, Content: ptr("hello")}}}
	p, err := in.Prepare()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.LastUserText(); !errors.Is(err, ErrNoMessages) {
		t.Errorf("expected ErrNoMessages, got %v", err)
	}
}

func userMsg(text string) events.Message {
	return events.Message{ID: events.GenerateMessageID(), Role: RoleUser, Content: ptr(text)}
}
