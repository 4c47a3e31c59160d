package google

import (
	"encoding/json"

	ai "github.com/spetersoncode/scholar"
	"google.golang.org/genai"
)

// convertMessages maps the conversation onto genai contents. System messages
// become the system instruction; the assistant role is "model".
func convertMessages(messages []ai.Message) ([]*genai.Content, *genai.Content) {
	var contents []*genai.Content
	var system *genai.Content

	// function responses are matched by name, not call id
	callNames := make(map[string]string)

	for _, msg := range messages {
		if msg.Role == ai.RoleSystem {
			if msg.Content == "" {
				continue
			}
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})
			continue
		}

		role := "user"
		if msg.Role == ai.RoleAssistant {
			role = "model"
		}

		var parts []*genai.Part
		if msg.Content != "" {
			parts = append(parts, &genai.Part{Text: msg.Content})
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.Arguments), &args)
			callNames[tc.ID] = tc.Name
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: args},
			})
		}
		for _, tr := range msg.ToolResults {
			var result map[string]any
			if err := json.Unmarshal([]byte(tr.Content), &result); err != nil {
				result = map[string]any{"result": tr.Content}
			}
			name := tr.Name
			if name == "" {
				name = callNames[tr.ToolCallID]
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{ID: tr.ToolCallID, Name: name, Response: result},
			})
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}

	return contents, system
}
