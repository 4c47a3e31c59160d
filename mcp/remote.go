package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/tool"
)

// Remote is a connection to an MCP server's tools.
type Remote struct {
	client *client.Client
	tools  []ai.Tool
}

// Dial starts command as a stdio MCP server and lists its tools.
func Dial(ctx context.Context, command string, env []string, args ...string) (*Remote, error) {
	c, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: start %s: %w", command, err)
	}
	return Connect(ctx, c)
}

// Connect initializes c and lists its tools. c is closed on failure.
func Connect(ctx context.Context, c *client.Client) (*Remote, error) {
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: start client: %w", err)
	}
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo:      mcp.Implementation{Name: "scholar", Version: "1.0.0"},
		},
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}
	r := &Remote{client: c}
	for _, t := range list.Tools {
		r.tools = append(r.tools, FromMCPTool(t))
	}
	return r, nil
}

// Tools returns the remote tool definitions.
func (r *Remote) Tools() []ai.Tool { return r.tools }

// Call invokes a remote tool. Transport failures become error results.
func (r *Remote) Call(ctx context.Context, call ai.ToolCall) ai.ToolResult {
	result, err := r.client.CallTool(ctx, ToCallToolRequest(call))
	if err != nil {
		return ai.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: err.Error(), IsError: true}
	}
	return FromCallToolResult(call, result)
}

// Mount registers every remote tool in registry.
func (r *Remote) Mount(registry *tool.Registry) error {
	for _, t := range r.tools {
		err := registry.Register(t, func(ctx context.Context, call ai.ToolCall) (string, error) {
			res := r.Call(ctx, call)
			if res.IsError {
				return "", errors.New(res.Content)
			}
			return res.Content, nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Close shuts the connection down.
func (r *Remote) Close() error {
	return r.client.Close()
}
