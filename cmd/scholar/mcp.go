package main

import (
	"github.com/spf13/cobra"

	"github.com/spetersoncode/scholar/internal/config"
	"github.com/spetersoncode/scholar/internal/logging"
	"github.com/spetersoncode/scholar/mcp"
	"github.com/spetersoncode/scholar/tool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the arithmetic tools over MCP stdio",
	Long: `MCP serves add, multiply, divide and calculate to MCP clients over
stdin and stdout. No model configuration is needed. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		level := logLevel
		if level == "" {
			level = config.Default().LogLevel
		}
		registry := tool.NewRegistry().Add(tool.Arithmetic()...).Add(tool.Calculator())
		return mcp.ServeStdio(registry,
			mcp.WithName("scholar-tools"),
			mcp.WithVersion("1.0.0"),
			mcp.WithLogger(logging.New(level)),
		)
	},
}
