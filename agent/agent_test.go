package agent

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/checkpoint"
	"github.com/spetersoncode/scholar/event"
	"github.com/spetersoncode/scholar/store"
	"github.com/spetersoncode/scholar/tool"
)

// mockProvider replays scripted responses and records each request.
type mockProvider struct {
	mu        sync.Mutex
	responses []mockResponse
	calls     [][]ai.Message
	opts      []*ai.Options
}

type mockResponse struct {
	content   string
	toolCalls []ai.ToolCall
	err       error
}

func (m *mockProvider) Chat(_ context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, ai.CloneMessages(messages))
	m.opts = append(m.opts, ai.ApplyOptions(opts...))

	n := len(m.calls) - 1
	if n >= len(m.responses) {
		return &ai.Response{Content: "No more responses"}, nil
	}
	r := m.responses[n]
	if r.err != nil {
		return nil, r.err
	}
	return &ai.Response{
		Content:   r.content,
		ToolCalls: r.toolCalls,
		Usage:     ai.Usage{InputTokens: 10, OutputTokens: 20},
	}, nil
}

func call(id, name, args string) ai.ToolCall {
	return ai.ToolCall{ID: id, Name: name, Arguments: args}
}

func arithmetic() *tool.Registry {
	return tool.NewRegistry().Add(tool.Arithmetic()...)
}

func TestAgentRun(t *testing.T) {
	ctx := context.Background()

	t.Run("answers without tools", func(t *testing.T) {
		p := &mockProvider{responses: []mockResponse{{content: "Hello!"}}}
		result, err := New(p, arithmetic()).Run(ctx, []ai.Message{ai.NewUserMessage("Hi")})

		require.NoError(t, err)
		assert.Equal(t, TerminationComplete, result.Termination)
		assert.Equal(t, 1, result.Steps)
		assert.Equal(t, "Hello!", result.Final())
		require.Len(t, result.Messages, 1)
		assert.Equal(t, ai.RoleAssistant, result.Messages[0].Role)
	})

	t.Run("binds tools sequentially with the system prompt", func(t *testing.T) {
		p := &mockProvider{responses: []mockResponse{{content: "ok"}}}
		_, err := New(p, arithmetic()).Run(ctx, []ai.Message{ai.NewUserMessage("Hi")})
		require.NoError(t, err)

		require.Len(t, p.calls, 1)
		assert.Equal(t, ai.RoleSystem, p.calls[0][0].Role)
		assert.Equal(t, DefaultSystemPrompt, p.calls[0][0].Content)

		o := p.opts[0]
		require.NotNil(t, o.ParallelToolCalls)
		assert.False(t, *o.ParallelToolCalls)
		assert.Len(t, o.Tools, 3)
	})

	t.Run("executes tool calls and feeds results back", func(t *testing.T) {
		p := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{call("c1", "add", `{"a":3,"b":4}`)}},
			{toolCalls: []ai.ToolCall{call("c2", "multiply", `{"a":7,"b":2}`)}},
			{content: "The answer is 14."},
		}}
		input := []ai.Message{ai.NewUserMessage("Add 3 and 4. Multiply the output by 2.")}

		result, err := New(p, arithmetic()).Run(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Steps)
		assert.Equal(t, "The answer is 14.", result.Final())
		assert.Equal(t, ai.Usage{InputTokens: 30, OutputTokens: 60}, result.TotalUsage)
		assert.Len(t, input, 1, "input must not be modified")

		require.Len(t, result.Messages, 5)
		assert.Equal(t, "7", result.Messages[1].ToolResults[0].Content)
		assert.Equal(t, "14", result.Messages[3].ToolResults[0].Content)

		last := p.calls[2]
		assert.Equal(t, ai.RoleTool, last[len(last)-1].Role)
		assert.Equal(t, "c2", last[len(last)-1].ToolResults[0].ToolCallID)
	})

	t.Run("tool errors go back to the model", func(t *testing.T) {
		p := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{call("c1", "divide", `{"a":1,"b":0}`), call("c2", "missing", `{}`)}},
			{content: "Cannot divide by zero."},
		}}
		result, err := New(p, arithmetic()).Run(ctx, []ai.Message{ai.NewUserMessage("1/0")})
		require.NoError(t, err)

		results := result.Messages[1].ToolResults
		require.Len(t, results, 2)
		assert.True(t, results[0].IsError)
		assert.Equal(t, "division by zero", results[0].Content)
		assert.True(t, results[1].IsError)
		assert.Contains(t, results[1].Content, "not found")
	})

	t.Run("stops at max steps", func(t *testing.T) {
		loop := mockResponse{toolCalls: []ai.ToolCall{call("c", "add", `{"a":1,"b":1}`)}}
		p := &mockProvider{responses: []mockResponse{loop, loop, loop, loop}}

		result, err := New(p, arithmetic()).Run(ctx, nil, WithMaxSteps(2))
		require.NoError(t, err)
		assert.Equal(t, TerminationMaxSteps, result.Termination)
		assert.Len(t, p.calls, 2)
	})

	t.Run("provider error", func(t *testing.T) {
		boom := errors.New("unavailable")
		p := &mockProvider{responses: []mockResponse{{err: boom}}}
		result, err := New(p, arithmetic()).Run(ctx, nil)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, TerminationError, result.Termination)
	})

	t.Run("rejected calls", func(t *testing.T) {
		p := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{call("c1", "add", `{"a":1,"b":1}`)}},
		}}
		result, err := New(p, arithmetic()).Run(ctx, nil, WithApprover(func(context.Context, ai.ToolCall) (bool, string) {
			return false, ""
		}))
		require.NoError(t, err)
		assert.Equal(t, TerminationRejected, result.Termination)
		assert.Equal(t, "Tool call rejected", result.Messages[1].ToolResults[0].Content)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		result, err := New(&mockProvider{}, arithmetic()).Run(cctx, nil)
		require.NoError(t, err)
		assert.Equal(t, TerminationCancelled, result.Termination)
	})

	t.Run("parallel tool calls keep order", func(t *testing.T) {
		p := &mockProvider{responses: []mockResponse{
			{toolCalls: []ai.ToolCall{call("c1", "add", `{"a":1,"b":2}`), call("c2", "multiply", `{"a":2,"b":5}`)}},
			{content: "done"},
		}}
		result, err := New(p, arithmetic()).Run(ctx, nil, WithParallelToolCalls(true))
		require.NoError(t, err)
		results := result.Messages[1].ToolResults
		assert.Equal(t, "3", results[0].Content)
		assert.Equal(t, "10", results[1].Content)
	})
}

func TestAgentEvents(t *testing.T) {
	p := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{call("c1", "add", `{"a":1,"b":2}`)}},
		{content: "3"},
	}}
	ch := make(chan event.Event, 64)

	_, err := New(p, arithmetic()).Run(context.Background(), nil, WithEvents(ch))
	require.NoError(t, err)
	close(ch)

	var types []event.Type
	for e := range ch {
		types = append(types, e.Type)
	}
	assert.Equal(t, []event.Type{
		event.RunStart,
		event.StepStart, event.StepEnd,
		event.ToolCallStart, event.ToolCallArgs, event.ToolCallEnd, event.ToolCallResult,
		event.StepStart, event.MessageStart, event.MessageDelta, event.MessageEnd, event.StepEnd,
		event.RunEnd,
	}, types)
}

func TestConversation(t *testing.T) {
	ctx := context.Background()
	p := &mockProvider{responses: []mockResponse{
		{toolCalls: []ai.ToolCall{call("c1", "add", `{"a":3,"b":4}`)}},
		{content: "7"},
		{toolCalls: []ai.ToolCall{call("c2", "multiply", `{"a":7,"b":2}`)}},
		{content: "14"},
		{content: "fresh"},
	}}
	saver := checkpoint.NewSaver(store.NewMemoryAdapter())
	conv := NewConversation(New(p, arithmetic()), saver)

	result, err := conv.Send(ctx, "1", "Add 3 and 4.")
	require.NoError(t, err)
	assert.Equal(t, "7", result.Final())

	result, err = conv.Send(ctx, "1", "Multiply that by 2.")
	require.NoError(t, err)
	assert.Equal(t, "14", result.Final())

	// The second turn saw the first turn's history.
	second := p.calls[2]
	assert.Equal(t, "Add 3 and 4.", second[1].Content)
	assert.Equal(t, "Multiply that by 2.", second[len(second)-1].Content)

	history, err := conv.History(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, history, 8)

	// Another thread starts empty.
	_, err = conv.Send(ctx, "2", "Hello")
	require.NoError(t, err)
	assert.Len(t, p.calls[4], 2)

	cp, err := saver.Load(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 2, cp.Version)

	_, err = conv.Send(ctx, "1", "   ")
	assert.ErrorIs(t, err, ai.ErrEmptyInput)
}

func TestConversationMaxSteps(t *testing.T) {
	loop := mockResponse{toolCalls: []ai.ToolCall{call("c", "add", `{"a":1,"b":1}`)}}
	p := &mockProvider{responses: []mockResponse{loop, loop}}
	saver := checkpoint.NewSaver(store.NewMemoryAdapter())
	conv := NewConversation(New(p, arithmetic()), saver, WithMaxSteps(1))

	_, err := conv.Send(context.Background(), "t", "loop")
	assert.ErrorIs(t, err, ErrMaxStepsReached)

	_, err = saver.Load(context.Background(), "t")
	assert.ErrorIs(t, err, checkpoint.ErrNotFound)
}
