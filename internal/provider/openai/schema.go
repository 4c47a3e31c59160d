package openai

import (
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	ai "github.com/spetersoncode/scholar"
)

func buildSchemaFormat(schema *ai.ResponseSchema) (openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	var schemaMap map[string]any
	if err := json.Unmarshal(schema.Schema, &schemaMap); err != nil {
		return openai.ChatCompletionNewParamsResponseFormatUnion{},
			ai.NewUserInputError(fmt.Sprintf("openai: invalid response schema %q", schema.Name), 0, err)
	}

	name := schema.Name
	if name == "" {
		name = "response_schema"
	}

	// strict mode requires additionalProperties: false on every object
	closeObjects(schemaMap)

	param := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:   name,
		Schema: schemaMap,
		Strict: openai.Bool(true),
	}
	if schema.Description != "" {
		param.Description = openai.String(schema.Description)
	}

	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: param},
	}, nil
}

func closeObjects(schema map[string]any) {
	if schema == nil {
		return
	}
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		for _, p := range props {
			if m, ok := p.(map[string]any); ok {
				closeObjects(m)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		closeObjects(items)
	}
}
