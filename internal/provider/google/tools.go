package google

import (
	"encoding/json"
	"fmt"

	ai "github.com/spetersoncode/scholar"
	"google.golang.org/genai"
)

func convertTools(tools []ai.Tool) []*genai.Tool {
	funcs := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		funcs[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  convertJSONSchema(t.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}
}

func convertToolChoice(choice ai.ToolChoice) *genai.ToolConfig {
	mode := genai.FunctionCallingConfigModeAuto
	switch choice {
	case ai.ToolChoiceNone:
		mode = genai.FunctionCallingConfigModeNone
	case ai.ToolChoiceRequired:
		mode = genai.FunctionCallingConfigModeAny
	}
	return &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: mode}}
}

func extractToolCalls(parts []*genai.Part) []ai.ToolCall {
	var calls []ai.ToolCall
	for i, part := range parts {
		if part.FunctionCall == nil {
			continue
		}
		args, _ := json.Marshal(part.FunctionCall.Args)
		id := part.FunctionCall.ID
		if id == "" {
			id = fmt.Sprintf("call_%d_%s", i, part.FunctionCall.Name)
		}
		calls = append(calls, ai.ToolCall{
			ID:        id,
			Name:      part.FunctionCall.Name,
			Arguments: string(args),
		})
	}
	return calls
}
