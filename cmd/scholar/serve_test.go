package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/agent"
	"github.com/spetersoncode/scholar/checkpoint"
	"github.com/spetersoncode/scholar/internal/config"
	"github.com/spetersoncode/scholar/internal/metrics"
	"github.com/spetersoncode/scholar/store"
	"github.com/spetersoncode/scholar/tool"
)

func newTestApp(t *testing.T, model ai.ChatProvider) *app {
	t.Helper()
	adapter := store.NewMemoryAdapter()
	registry := tool.NewRegistry().Add(tool.Arithmetic()...)
	collector := metrics.NewCollector("test", nil)
	return &app{
		cfg:      config.Default(),
		logger:   zap.NewNop(),
		metrics:  collector,
		model:    model,
		adapter:  adapter,
		saver:    checkpoint.NewSaver(adapter),
		registry: registry,
		agent:    agent.New(collector.Instrument(model, "test"), registry),
	}
}

func TestServerHealth(t *testing.T) {
	srv := httptest.NewServer(newServer(newTestApp(t, nil)).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestServerUnknownRun(t *testing.T) {
	srv := httptest.NewServer(newServer(newTestApp(t, nil)).routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/runs/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/runs/missing/feedback", "application/json", strings.NewReader(`{"feedback":""}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerFeedbackRequiresInterruptedRun(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, a.saver.Save(context.Background(), &checkpoint.Checkpoint{
		ThreadID: "done",
		Node:     "__end__",
		Status:   checkpoint.StatusCompleted,
		State:    []byte(`{}`),
	}))
	srv := httptest.NewServer(newServer(a).routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/runs/done/feedback", "application/json", strings.NewReader(`{"feedback":""}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/runs/done")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServerStartRejectsBadInput(t *testing.T) {
	srv := httptest.NewServer(newServer(newTestApp(t, nil)).routes())
	defer srv.Close()

	for _, body := range []string{`not json`, `{"messages":[]}`} {
		resp, err := http.Post(srv.URL+"/runs", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}
}

func TestServerChatStreamsEvents(t *testing.T) {
	calls := 0
	model := ai.ChatFunc(func(_ context.Context, _ []ai.Message, _ ...ai.Option) (*ai.Response, error) {
		calls++
		if calls == 1 {
			return &ai.Response{ToolCalls: []ai.ToolCall{{ID: "c1", Name: "add", Arguments: `{"a":3,"b":4}`}}}, nil
		}
		return &ai.Response{Content: "3 + 4 = 7"}, nil
	})
	srv := httptest.NewServer(newServer(newTestApp(t, model)).routes())
	defer srv.Close()

	body := `{"threadId":"chat-1","runId":"r1","messages":[{"id":"m1","role":"user","content":"Add 3 and 4."}]}`
	resp, err := http.Post(srv.URL+"/chat", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "event: RUN_STARTED"), out)
	assert.Contains(t, out, "event: TOOL_CALL_START")
	assert.Contains(t, out, "event: TOOL_CALL_RESULT")
	assert.Contains(t, out, "3 + 4 = 7")
	assert.Contains(t, out, "event: RUN_FINISHED")
	assert.Equal(t, 1, strings.Count(out, "event: RUN_FINISHED"))
}
