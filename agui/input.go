package agui

import (
	"errors"
	"strings"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"
	"github.com/google/uuid"

	ai "github.com/spetersoncode/scholar"
)

// ErrNoMessages is returned when a request carries no user message.
var ErrNoMessages = errors.New("agui: no messages provided")

// RunAgentInput is the body of an AG-UI run request.
type RunAgentInput struct {
	ThreadID       string           `json:"threadId"`
	RunID          string           `json:"runId"`
	Messages       []events.Message `json:"messages"`
	State          any              `json:"state,omitempty"`
	ForwardedProps any              `json:"forwardedProps,omitempty"`
}

// PreparedInput is a validated run request.
type PreparedInput struct {
	ThreadID string
	RunID    string
	Messages []ai.Message
}

// Prepare validates the request and fills in missing IDs.
func (r *RunAgentInput) Prepare() (*PreparedInput, error) {
	msgs := ToMessages(r.Messages)
	if len(msgs) == 0 {
		return nil, ErrNoMessages
	}
	p := &PreparedInput{ThreadID: r.ThreadID, RunID: r.RunID, Messages: msgs}
	if p.ThreadID == "" {
		p.ThreadID = uuid.NewString()
	}
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	return p, nil
}

// LastUserText returns the content of the latest user message.
func (p *PreparedInput) LastUserText() (string, error) {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		m := p.Messages[i]
		if m.Role == ai.RoleUser && strings.TrimSpace(m.Content) != "" {
			return m.Content, nil
		}
	}
	return "", ErrNoMessages
}
