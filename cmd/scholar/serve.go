package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spetersoncode/scholar/agent"
	"github.com/spetersoncode/scholar/agui"
	"github.com/spetersoncode/scholar/checkpoint"
	"github.com/spetersoncode/scholar/event"
	"github.com/spetersoncode/scholar/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve research runs and the tool agent over AG-UI",
	Long: `Serve exposes the pipeline and the chat agent to AG-UI frontends:

  POST /runs                   start a run; the last user message is the topic
  POST /runs/{thread}/feedback resume a run with {"feedback": "..."}
  GET  /runs/{thread}          latest checkpoint of a run
  POST /chat                   one turn with the tool agent
  GET  /metrics                Prometheus metrics
  GET  /health                 liveness

Run and chat endpoints stream Server-Sent Events.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
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

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newServer(a).routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // SSE needs no write timeout
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("addr", cfg.Addr), zap.String("provider", cfg.Provider), zap.String("store", cfg.Store))
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("server stopped")
	return nil
}

type server struct {
	app    *app
	chat   *agent.Conversation
	logger *zap.Logger
}

func newServer(a *app) *server {
	return &server{
		app:    a,
		chat:   a.conversation(),
		logger: a.logger.With(zap.String("component", "server")),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /runs", s.handleStart)
	mux.HandleFunc("POST /runs/{thread}/feedback", s.handleFeedback)
	mux.HandleFunc("GET /runs/{thread}", s.handleGetRun)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.Handle("GET /metrics", s.app.metrics.Handler())
	mux.HandleFunc("GET /health", healthHandler)
	return corsMiddleware(s.app.metrics.Middleware(mux))
}

// runFunc executes a run, emitting its events to ch.
type runFunc func(ctx context.Context, ch chan<- event.Event) error

// stream runs fn and writes its events to w as AG-UI server-sent events.
func (s *server) stream(w http.ResponseWriter, r *http.Request, threadID, runID string, fn runFunc) {
	log := s.logger.With(zap.String("thread", threadID))
	sse, err := agui.NewSSEWriter(w)
	if err != nil {
		log.Error("streaming not supported")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	ch := event.NewChannel()
	done := make(chan error, 1)
	go func() {
		err := fn(r.Context(), ch)
		close(ch)
		done <- err
	}()

	mapper := agui.NewMapper(threadID, runID)
	if err := agui.Stream(r.Context(), sse, mapper, s.app.metrics.Tee(r.Context(), ch), done); err != nil {
		log.Warn("stream aborted", zap.Error(err))
		return
	}
	log.Info("request completed", zap.Duration("duration", time.Since(start)))
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	prepared, err := input.Prepare()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	topic, err := prepared.LastUserText()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	analysts := s.app.cfg.MaxAnalysts
	if v := r.URL.Query().Get("analysts"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "analysts must be a positive integer", http.StatusBadRequest)
			return
		}
		analysts = n
	}

	s.stream(w, r, prepared.ThreadID, prepared.RunID, func(ctx context.Context, ch chan<- event.Event) error {
		_, err := s.app.pipeline.Start(ctx, prepared.ThreadID, topic, analysts, workflow.WithEvents(ch))
		return err
	})
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (s *server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	thread := r.PathValue("thread")
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cp, err := s.app.saver.Load(r.Context(), thread)
	if errors.Is(err, checkpoint.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if cp.Status != checkpoint.StatusInterrupted {
		http.Error(w, "run is not waiting for feedback", http.StatusConflict)
		return
	}

	s.stream(w, r, thread, "", func(ctx context.Context, ch chan<- event.Event) error {
		_, err := s.app.pipeline.Resume(ctx, thread, req.Feedback, workflow.WithEvents(ch))
		return err
	})
}

type runResponse struct {
	ThreadID string            `json:"threadId"`
	Node     string            `json:"node"`
	Status   checkpoint.Status `json:"status"`
	Version  int               `json:"version"`
	Error    string            `json:"error,omitempty"`
	State    json.RawMessage   `json:"state"`
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	cp, err := s.app.saver.Load(r.Context(), r.PathValue("thread"))
	if errors.Is(err, checkpoint.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runResponse{
		ThreadID: cp.ThreadID,
		Node:     cp.Node,
		Status:   cp.Status,
		Version:  cp.Version,
		Error:    cp.Error,
		State:    cp.State,
	})
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var input agui.RunAgentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	prepared, err := input.Prepare()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text, err := prepared.LastUserText()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.stream(w, r, prepared.ThreadID, prepared.RunID, func(ctx context.Context, ch chan<- event.Event) error {
		_, err := s.chat.Send(ctx, prepared.ThreadID, text, agent.WithEvents(ch))
		return err
	})
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
