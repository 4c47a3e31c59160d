package google

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	ai "github.com/spetersoncode/scholar"
)

func TestConvertMessages(t *testing.T) {
	contents, system := convertMessages([]ai.Message{
		ai.NewSystemMessage("You are an expert being interviewed by an analyst."),
		ai.NewUserMessage("Add 3 and 4."),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Name: "add", Arguments: `{"a":3,"b":4}`}}},
		ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "c1", Content: "7"}),
	})

	require.NotNil(t, system)
	assert.Equal(t, "You are an expert being interviewed by an analyst.", system.Parts[0].Text)

	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "add", contents[1].Parts[0].FunctionCall.Name)

	resp := contents[2].Parts[0].FunctionResponse
	require.NotNil(t, resp)
	assert.Equal(t, "add", resp.Name)
	assert.Equal(t, map[string]any{"result": "7"}, resp.Response)
}

func TestConvertJSONSchema(t *testing.T) {
	schema := convertJSONSchema(json.RawMessage(`{
		"type": "object",
		"properties": {
			"analysts": {"type": "array", "items": {"type": "object", "properties": {"name": {"type": "string", "description": "Name of the analyst."}}, "required": ["name"]}}
		},
		"required": ["analysts"]
	}`))

	require.NotNil(t, schema)
	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"analysts"}, schema.Required)
	items := schema.Properties["analysts"].Items
	assert.Equal(t, genai.TypeString, items.Properties["name"].Type)
	assert.Equal(t, "Name of the analyst.", items.Properties["name"].Description)

	assert.Nil(t, convertJSONSchema(nil))
	assert.Nil(t, convertJSONSchema(json.RawMessage(`not json`)))
}

func TestExtractToolCalls(t *testing.T) {
	calls := extractToolCalls([]*genai.Part{
		{Text: "thinking"},
		{FunctionCall: &genai.FunctionCall{Name: "divide", Args: map[string]any{"a": 8, "b": 2}}},
	})

	require.Len(t, calls, 1)
	assert.Equal(t, "call_1_divide", calls[0].ID)
	assert.JSONEq(t, `{"a":8,"b":2}`, calls[0].Arguments)
}
