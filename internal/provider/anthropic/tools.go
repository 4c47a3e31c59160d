package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/scholar"
)

const jsonResponseToolName = "__scholar_json_response__"

func inputSchema(raw json.RawMessage) anthropic.ToolInputSchemaParam {
	var schema map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &schema)
	}

	var required []string
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}
	return anthropic.ToolInputSchemaParam{
		Properties: schema["properties"],
		Required:   required,
	}
}

func convertTools(tools []ai.Tool) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(tools)+1)
	for _, t := range tools {
		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: inputSchema(t.Parameters),
			},
		})
	}
	return result
}

func convertToolChoice(choice ai.ToolChoice, parallel *bool) anthropic.ToolChoiceUnionParam {
	disable := parallel != nil && !*parallel
	switch choice {
	case ai.ToolChoiceNone:
		return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	case ai.ToolChoiceRequired:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{
			DisableParallelToolUse: anthropic.Bool(disable),
		}}
	default:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{
			DisableParallelToolUse: anthropic.Bool(disable),
		}}
	}
}

func jsonResponseTool(schema *ai.ResponseSchema) (anthropic.ToolUnionParam, anthropic.ToolChoiceUnionParam) {
	description := "Output the response as structured JSON"
	if schema.Description != "" {
		description = schema.Description
	}

	tool := anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        jsonResponseToolName,
			Description: anthropic.String(description),
			InputSchema: inputSchema(schema.Schema),
		},
	}
	choice := anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: jsonResponseToolName},
	}
	return tool, choice
}
