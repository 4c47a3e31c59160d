// Package metrics exposes Prometheus metrics for the scholar server.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/event"
)

// Collector records HTTP, model, pipeline and tool metrics on its own
// registry.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmTokensUsed      *prometheus.CounterVec

	runsTotal      *prometheus.CounterVec
	stepsTotal     *prometheus.CounterVec
	toolCallsTotal *prometheus.CounterVec
	retriesTotal   prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector whose metric names start with namespace.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.llmRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of model requests",
		},
		[]string{"provider", "status"},
	)

	c.llmRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Model request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	c.llmTokensUsed = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_used_total",
			Help:      "Total number of tokens used",
		},
		[]string{"provider", "type"},
	)

	c.runsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Workflow runs by outcome",
		},
		[]string{"status"},
	)

	c.stepsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Completed workflow steps",
		},
		[]string{"step"},
	)

	c.toolCallsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool executions by tool and outcome",
		},
		[]string{"tool", "status"},
	)

	c.retriesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried model requests",
		},
	)

	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLLMRequest records one model call.
func (c *Collector) RecordLLMRequest(provider, status string, duration time.Duration, usage ai.Usage) {
	c.llmRequestsTotal.WithLabelValues(provider, status).Inc()
	c.llmRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if usage.InputTokens > 0 {
		c.llmTokensUsed.WithLabelValues(provider, "input").Add(float64(usage.InputTokens))
	}
	if usage.OutputTokens > 0 {
		c.llmTokensUsed.WithLabelValues(provider, "output").Add(float64(usage.OutputTokens))
	}
}

// Observe updates run, step, tool and retry counters from a workflow or
// agent event. Nested runs are counted like top-level ones.
func (c *Collector) Observe(e event.Event) {
	switch e.Type {
	case event.RunEnd:
		c.runsTotal.WithLabelValues("completed").Inc()
	case event.RunError:
		c.runsTotal.WithLabelValues("failed").Inc()
	case event.RunInterrupted:
		c.runsTotal.WithLabelValues("interrupted").Inc()
	case event.StepEnd:
		name := e.StepName
		if name == "" {
			name = "agent"
		}
		c.stepsTotal.WithLabelValues(name).Inc()
	case event.ToolCallResult:
		if e.ToolCall == nil || e.ToolResult == nil {
			return
		}
		status := "ok"
		if e.ToolResult.IsError {
			status = "error"
		}
		c.toolCallsTotal.WithLabelValues(e.ToolCall.Name, status).Inc()
	case event.Retrying:
		c.retriesTotal.Inc()
	}
}

// Tee forwards every event from in to the returned channel after observing
// it. The returned channel is closed when in is closed. Once ctx is done,
// events are still observed but dropped, so in keeps draining after the
// reader has gone away.
func (c *Collector) Tee(ctx context.Context, in <-chan event.Event) <-chan event.Event {
	out := make(chan event.Event, cap(in))
	go func() {
		defer close(out)
		for e := range in {
			c.Observe(e)
			if ctx.Err() != nil {
				continue
			}
			select {
			case out <- e:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

// Middleware records request counts and latency for next.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		c.RecordHTTPRequest(r.Method, routeLabel(r), sw.status, time.Since(start))
	})
}

// routeLabel returns the matched mux pattern without its method, or the raw
// path when nothing matched.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return r.URL.Path
	}
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps server-sent event streams working behind the middleware.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Instrument wraps p so every call is recorded under provider.
func (c *Collector) Instrument(p ai.ChatProvider, provider string) ai.ChatProvider {
	return ai.ChatFunc(func(ctx context.Context, msgs []ai.Message, opts ...ai.Option) (*ai.Response, error) {
		start := time.Now()
		resp, err := p.Chat(ctx, msgs, opts...)
		if err != nil {
			c.RecordLLMRequest(provider, "error", time.Since(start), ai.Usage{})
			c.logger.Debug("model request failed", zap.String("provider", provider), zap.Error(err))
			return nil, err
		}
		c.RecordLLMRequest(provider, "success", time.Since(start), resp.Usage)
		return resp, nil
	})
}
