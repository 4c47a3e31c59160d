package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/agent"
	"github.com/spetersoncode/scholar/checkpoint"
	"github.com/spetersoncode/scholar/client"
	"github.com/spetersoncode/scholar/event"
	"github.com/spetersoncode/scholar/internal/config"
	"github.com/spetersoncode/scholar/internal/metrics"
	"github.com/spetersoncode/scholar/research"
	"github.com/spetersoncode/scholar/search/tavily"
	"github.com/spetersoncode/scholar/search/wikipedia"
	"github.com/spetersoncode/scholar/store"
	"github.com/spetersoncode/scholar/tool"
)

// app holds the dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Collector
	model    ai.ChatProvider
	adapter  store.Adapter
	saver    *checkpoint.Saver
	pipeline *research.Pipeline
	registry *tool.Registry
	agent    *agent.Agent
}

// newApp connects the model, the checkpoint store and the retrieval
// clients. retries, when set, receives a Retrying event per retried call.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, retries chan<- event.Event) (*app, error) {
	collector := metrics.NewCollector("scholar", logger)

	c, err := client.New(ctx, client.Config{
		Provider: ai.Provider(cfg.Provider),
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.BaseURL,
		Model:    cfg.Model,
		Events:   retries,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	model := collector.Instrument(c, cfg.Provider)

	adapter, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	saver := checkpoint.NewSaver(adapter, checkpoint.WithHistory())

	web := tavily.NewClient(cfg.TavilyKey)
	kb := wikipedia.NewClient()
	interviewer := research.NewInterviewer(model, web, kb, logger)

	pipeline := research.NewPipeline(
		research.NewGenerator(model,
			research.WithMaxRegenerations(cfg.MaxRegenerations),
			research.WithGeneratorLogger(logger),
		),
		research.NewCoordinator(interviewer, cfg.MaxConcurrency, logger),
		research.NewWriter(model, logger),
		saver,
		research.PipelineConfig{
			MaxTurns:       cfg.MaxTurns,
			MaxConcurrency: cfg.MaxConcurrency,
			Logger:         logger,
		},
	)
	if err := pipeline.Validate(); err != nil {
		adapter.Close()
		return nil, err
	}

	registry := tool.NewRegistry().Add(tool.Arithmetic()...)

	return &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  collector,
		model:    model,
		adapter:  adapter,
		saver:    saver,
		pipeline: pipeline,
		registry: registry,
		agent:    agent.New(model, registry),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (store.Adapter, error) {
	switch cfg.Store {
	case config.StoreRedis:
		a, err := store.NewRedisAdapter(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return a, nil
	case config.StoreSQLite, config.StorePostgres:
		a, err := store.OpenSQL(cfg.Store, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
		}
		return a, nil
	default:
		return store.NewMemoryAdapter(), nil
	}
}

// conversation returns the chat agent with per-thread memory.
func (a *app) conversation() *agent.Conversation {
	memory := checkpoint.NewSaver(a.adapter, checkpoint.WithPrefix("conversation:"))
	return agent.NewConversation(a.agent, memory, agent.WithLogger(a.logger))
}

func (a *app) Close() error {
	_ = a.logger.Sync()
	return a.adapter.Close()
}
