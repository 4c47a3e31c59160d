// Package tool provides the tool registry used by the arithmetic agent and
// the MCP server, plus the arithmetic tools themselves.
//
// Tools are plain Go functions over a typed argument struct. The JSON
// Schema of the parameters is derived from the struct with
// [github.com/spetersoncode/scholar.SchemaFor]:
//
//	registry := tool.NewRegistry().
//	    Add(tool.Arithmetic()...).
//	    Add(tool.Calculator())
//
//	result, err := registry.Execute(ctx, ai.ToolCall{
//	    ID: "call_1", Name: "add", Arguments: `{"a": 2, "b": 3}`,
//	})
//
// A handler error is returned to the model as a result with IsError set,
// never as a Go error, so the conversation can continue.
package tool
