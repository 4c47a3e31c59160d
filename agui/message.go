package agui

import (
	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/scholar"
)

// AG-UI message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// ToMessages converts AG-UI messages.
func ToMessages(msgs []events.Message) []ai.Message {
	out := make([]ai.Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, ToMessage(msg))
	}
	return out
}

// ToMessage converts one AG-UI message. A tool message becomes a single
// tool result.
func ToMessage(msg events.Message) ai.Message {
	m := ai.Message{ID: msg.ID, Role: toRole(msg.Role)}
	if msg.Content != nil {
		m.Content = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, ai.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	if msg.ToolCallID != nil {
		m.ToolResults = []ai.ToolResult{{ToolCallID: *msg.ToolCallID, Content: m.Content}}
		m.Content = ""
	}
	return m
}

// FromMessages converts messages for a MESSAGES_SNAPSHOT. A tool message
// with several results expands into one AG-UI message per result.
func FromMessages(msgs []ai.Message) []events.Message {
	out := make([]events.Message, 0, len(msgs))
	for _, msg := range msgs {
		if msg.Role == ai.RoleTool {
			for _, r := range msg.ToolResults {
				out = append(out, events.Message{
					ID:         events.GenerateMessageID(),
					Role:       RoleTool,
					Content:    ptr(r.Content),
					ToolCallID: ptr(r.ToolCallID),
				})
			}
			continue
		}
		out = append(out, FromMessage(msg))
	}
	return out
}

// FromMessage converts one non-tool message.
func FromMessage(msg ai.Message) events.Message {
	id := msg.ID
	if id == "" {
		id = events.GenerateMessageID()
	}
	m := events.Message{ID: id, Role: fromRole(msg.Role)}
	if msg.Content != "" {
		m.Content = ptr(msg.Content)
	}
	for _, tc := range msg.ToolCalls {
		m.ToolCalls = append(m.ToolCalls, events.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: events.Function{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return m
}

func ptr(s string) *string { return &s }

func toRole(role string) ai.Role {
	switch role {
	case RoleAssistant:
		return ai.RoleAssistant
	case RoleSystem:
		return ai.RoleSystem
	case RoleTool:
		return ai.RoleTool
	default:
		return ai.RoleUser
	}
}

func fromRole(role ai.Role) string {
	switch role {
	case ai.RoleAssistant:
		return RoleAssistant
	case ai.RoleSystem:
		return RoleSystem
	case ai.RoleTool:
		return RoleTool
	default:
		return RoleUser
	}
}
