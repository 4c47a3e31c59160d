package scholar

import (
	"strings"

	"github.com/google/uuid"
)

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message represents a single message in a conversation.
type Message struct {
	// ID is an optional unique identifier for the message.
	ID      string `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`
	// Name attributes the message to a participant. Assistant messages written
	// by the simulated expert carry Name "expert".
	Name string `json:"name,omitempty"`
	// ToolCalls contains tool invocation requests from an assistant message.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	// ToolResults contains results from tool executions.
	// Only populated when Role is RoleTool.
	ToolResults []ToolResult `json:"toolResults,omitempty"`
}

// GenerateMessageID creates a unique message identifier.
func GenerateMessageID() string {
	return "msg-" + uuid.New().String()
}

// NewSystemMessage returns a system message with the given content.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage returns a user message with the given content.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage returns an assistant message with the given content.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// CloneMessages returns a copy of msgs that shares no backing arrays with it.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m
		if m.ToolCalls != nil {
			out[i].ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
		if m.ToolResults != nil {
			out[i].ToolResults = append([]ToolResult(nil), m.ToolResults...)
		}
	}
	return out
}

// BufferString renders a conversation as plain text, one role-prefixed
// message per line ("Human: ...", "AI: ...").
func BufferString(msgs []Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, rolePrefix(m.Role)+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func rolePrefix(r Role) string {
	switch r {
	case RoleUser:
		return "Human"
	case RoleAssistant:
		return "AI"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// Response represents a complete response from a chat provider.
type Response struct {
	Content      string `json:"content,omitempty"`
	FinishReason string `json:"finishReason,omitempty"`
	Usage        Usage  `json:"usage"`
	// ToolCalls contains any tool invocation requests from the model.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// Message converts the response into an assistant message.
func (r *Response) Message() Message {
	return Message{
		ID:        GenerateMessageID(),
		Role:      RoleAssistant,
		Content:   r.Content,
		ToolCalls: r.ToolCalls,
	}
}

// Usage contains token usage information for a request.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Add returns the sum of two usage records.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}
