package openai

import (
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"
	ai "github.com/spetersoncode/scholar"
)

func convertTools(tools []ai.Tool) []openai.ChatCompletionToolParam {
	result := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		var params shared.FunctionParameters
		if len(t.Parameters) > 0 {
			_ = json.Unmarshal(t.Parameters, &params)
		}
		result[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		}
	}
	return result
}

func convertToolChoice(choice ai.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	mode := "auto"
	switch choice {
	case ai.ToolChoiceNone:
		mode = "none"
	case ai.ToolChoiceRequired:
		mode = "required"
	}
	return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String(mode)}
}

func extractToolCalls(msg openai.ChatCompletionMessage) []ai.ToolCall {
	if len(msg.ToolCalls) == 0 {
		return nil
	}
	result := make([]ai.ToolCall, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		result[i] = ai.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}
	}
	return result
}
