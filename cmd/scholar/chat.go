package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/agent"
	"github.com/spetersoncode/scholar/mcp"
)

var (
	chatThread string
	chatMCP    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the arithmetic tool agent",
	Long: `Chat starts a conversation with an agent that can add, multiply and
divide. The conversation is remembered per thread; reuse --thread with a
persistent store to continue it later. Tools of an external MCP server can
be added with --mcp.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatThread, "thread", "", "Conversation thread ID (default: generated)")
	chatCmd.Flags().StringVar(&chatMCP, "mcp", "", "Command line of a stdio MCP server whose tools are added")
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if chatMCP != "" {
		fields := strings.Fields(chatMCP)
		remote, err := mcp.Dial(ctx, fields[0], nil, fields[1:]...)
		if err != nil {
			return err
		}
		defer remote.Close()
		if err := remote.Mount(a.registry); err != nil {
			return err
		}
		logger.Info("mounted MCP tools", zap.Int("count", len(remote.Tools())))
	}

	thread := chatThread
	if thread == "" {
		thread = uuid.NewString()
	}
	conv := a.conversation()
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	fmt.Fprintf(out, "Thread: %s (tools: %s). Type exit to quit.\n", thread, strings.Join(a.registry.Names(), ", "))
	for {
		line, err := prompt(out, reader, "> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		result, err := conv.Send(ctx, thread, line)
		if errors.Is(err, agent.ErrMaxStepsReached) {
			fmt.Fprintln(out, "Gave up after too many tool calls.")
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result.Final())
	}
}
