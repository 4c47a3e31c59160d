// Command scholar runs the multi-analyst research assistant and the
// arithmetic tool agent.
//
// Configuration comes from a .env file, an optional YAML file (--config)
// and environment variables:
//
//	SCHOLAR_PROVIDER          - openai (default), anthropic or google
//	OPENAI_API_KEY            - OpenAI API key
//	ORCHESTATOR_BASE_URL      - OpenAI-compatible endpoint (optional)
//	ORCHESTATOR_MODEL         - model name
//	ANTHROPIC_API_KEY         - Anthropic API key
//	GOOGLE_API_KEY            - Google API key
//	TAVILY_API_KEY            - Tavily web search key
//	SCHOLAR_STORE             - memory (default), redis, sqlite or postgres
//	REDIS_ADDR                - redis address (default: localhost:6379)
//	SCHOLAR_DSN               - sqlite file or postgres DSN
//	SCHOLAR_MAX_ANALYSTS      - analysts per run (default: 3)
//	SCHOLAR_MAX_TURNS         - interview turns (default: 2)
//	SCHOLAR_MAX_REGENERATIONS - feedback rounds (default: 5)
//	SCHOLAR_MAX_CONCURRENCY   - parallel interviews (default: 4)
//	SCHOLAR_REPORT_PATH       - report file (default: final_report.md)
//	SCHOLAR_ADDR              - serve address (default: :8080)
//	SCHOLAR_LOG_LEVEL         - debug, info, warn or error
//
// Usage:
//
//	scholar research "The benefits of structured concurrency in Go"
//	scholar resume <thread> --feedback "Add a startup CTO"
//	scholar chat
//	scholar mcp
//	scholar serve
package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/internal/config"
	"github.com/spetersoncode/scholar/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "scholar",
	Short:         "Multi-analyst research assistant",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	rootCmd.AddCommand(researchCmd, resumeCmd, chatCmd, mcpCmd, serveCmd)
}

// loadConfig reads the configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return cfg, logging.New(cfg.LogLevel), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.New("error").Error(err.Error())
		os.Exit(1)
	}
}
