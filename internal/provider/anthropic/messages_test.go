package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/scholar"
)

func TestConvertMessages(t *testing.T) {
	msgs, system := convertMessages([]ai.Message{
		ai.NewSystemMessage("You are a helpful assistant tasked with performing arithmetic on a set of inputs."),
		ai.NewUserMessage("Add 3 and 4."),
		{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "t1", Name: "add", Arguments: `{"a":3,"b":4}`}}},
		ai.NewToolResultMessage(ai.ToolResult{ToolCallID: "t1", Content: "7"}),
		{Role: ai.RoleAssistant},
	})

	require.Len(t, system, 1)
	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
}

func TestJSONResponseTool(t *testing.T) {
	schema := &ai.ResponseSchema{
		Name:   "perspectives",
		Schema: json.RawMessage(`{"type":"object","properties":{"analysts":{"type":"array"}},"required":["analysts"]}`),
	}

	tool, choice := jsonResponseTool(schema)

	require.NotNil(t, tool.OfTool)
	assert.Equal(t, jsonResponseToolName, tool.OfTool.Name)
	assert.Equal(t, []string{"analysts"}, tool.OfTool.InputSchema.Required)
	require.NotNil(t, choice.OfTool)
	assert.Equal(t, jsonResponseToolName, choice.OfTool.Name)
}

func TestConvertToolChoice_Sequential(t *testing.T) {
	sequential := false
	choice := convertToolChoice(ai.ToolChoiceAuto, &sequential)

	require.NotNil(t, choice.OfAuto)
	assert.True(t, choice.OfAuto.DisableParallelToolUse.Value)
}
