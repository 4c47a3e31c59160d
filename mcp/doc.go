// Package mcp bridges the tool registry and the Model Context Protocol.
//
// NewServer exposes a [tool.Registry] to MCP clients; `scholar mcp` serves
// the arithmetic tools this way over stdio. Remote connects to an MCP
// server and mounts its tools into a local registry so the agent can call
// them like any other tool.
package mcp
