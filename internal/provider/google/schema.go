package google

import (
	"encoding/json"

	"google.golang.org/genai"
)

// convertJSONSchema translates the subset of JSON Schema genai understands.
func convertJSONSchema(raw json.RawMessage) *genai.Schema {
	if len(raw) == 0 {
		return nil
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil
	}
	return convertSchemaObject(schema)
}

var schemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

func convertSchemaObject(schema map[string]any) *genai.Schema {
	result := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		result.Type = schemaTypes[t]
	}
	if desc, ok := schema["description"].(string); ok {
		result.Description = desc
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				result.Enum = append(result.Enum, s)
			}
		}
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		result.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if m, ok := p.(map[string]any); ok {
				result.Properties[name] = convertSchemaObject(m)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				result.Required = append(result.Required, s)
			}
		}
	}
	if items, ok := schema["items"].(map[string]any); ok {
		result.Items = convertSchemaObject(items)
	}

	return result
}
