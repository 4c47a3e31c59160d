package mcp

import (
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/scholar"
)

// ToMCPTool converts a tool definition. Parameters become the raw input
// schema.
func ToMCPTool(t ai.Tool) mcp.Tool {
	return mcp.NewToolWithRawSchema(t.Name, t.Description, t.Parameters)
}

// FromMCPTool converts an MCP tool definition.
func FromMCPTool(t mcp.Tool) ai.Tool {
	schema := t.RawInputSchema
	if len(schema) == 0 {
		if data, err := json.Marshal(t.InputSchema); err == nil {
			schema = data
		}
	}
	return ai.Tool{Name: t.Name, Description: t.Description, Parameters: schema}
}

// ToCallToolRequest converts a tool call. Arguments that are not valid
// JSON are passed as a string.
func ToCallToolRequest(call ai.ToolCall) mcp.CallToolRequest {
	var args any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			args = call.Arguments
		}
	}
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: call.Name, Arguments: args},
	}
}

// ToCallToolResult converts a tool result.
func ToCallToolResult(r ai.ToolResult) *mcp.CallToolResult {
	if r.IsError {
		return mcp.NewToolResultError(r.Content)
	}
	return mcp.NewToolResultText(r.Content)
}

// FromCallToolResult flattens an MCP result into text. Non-text content
// and structured content are rendered as JSON.
func FromCallToolResult(call ai.ToolCall, result *mcp.CallToolResult) ai.ToolResult {
	out := ai.ToolResult{ToolCallID: call.ID, Name: call.Name}
	if result == nil {
		out.IsError = true
		return out
	}

	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	out.Content = strings.Join(parts, "\n")
	out.IsError = result.IsError
	return out
}
