package openai

import (
	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/scholar"
)

func convertMessages(messages []ai.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			if msg.Content != "" {
				result = append(result, openai.SystemMessage(msg.Content))
			}
		case ai.RoleAssistant:
			if len(msg.ToolCalls) == 0 && msg.Content == "" {
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(msg.Content),
				}
			}
			if msg.Name != "" {
				assistant.Name = openai.String(msg.Name)
			}
			for _, tc := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: tc.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case ai.RoleTool:
			// one message per tool result
			for _, tr := range msg.ToolResults {
				result = append(result, openai.ToolMessage(tr.Content, tr.ToolCallID))
			}
		default:
			if msg.Content != "" {
				result = append(result, openai.UserMessage(msg.Content))
			}
		}
	}
	return result
}
