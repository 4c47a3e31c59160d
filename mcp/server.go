package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/tool"
)

// ServerOption configures NewServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
	logger  *zap.Logger
}

// WithName sets the server name reported to clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// WithLogger logs every tool call.
func WithLogger(l *zap.Logger) ServerOption {
	return func(c *serverConfig) {
		c.logger = l
	}
}

// NewServer creates an MCP server exposing every tool in registry.
func NewServer(registry *tool.Registry, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{name: "scholar", version: "1.0.0"}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	logger := cfg.logger.With(zap.String("component", "mcp"))

	s := server.NewMCPServer(cfg.name, cfg.version, server.WithToolCapabilities(true))
	for _, t := range registry.Tools() {
		s.AddTool(ToMCPTool(t), handler(registry, t.Name, logger))
	}
	return s
}

func handler(registry *tool.Registry, name string, logger *zap.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if req.Params.Arguments != nil {
			data, err := json.Marshal(req.Params.Arguments)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
			}
			args = string(data)
		}

		call := ai.ToolCall{ID: uuid.NewString(), Name: name, Arguments: args}
		result, err := registry.Execute(ctx, call)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		logger.Info("tool called",
			zap.String("tool", name),
			zap.String("arguments", args),
			zap.Bool("error", result.IsError),
		)
		return ToCallToolResult(result), nil
	}
}

// ServeStdio serves registry over stdin and stdout until the client
// disconnects.
func ServeStdio(registry *tool.Registry, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(registry, opts...))
}
