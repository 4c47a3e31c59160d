package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/scholar"
)

type echoArgs struct {
	Text string `json:"text"`
}

func echo(_ context.Context, args echoArgs) (string, error) {
	return "echo: " + args.Text, nil
}

func TestRegistryAdd(t *testing.T) {
	t.Run("registers tools in sorted order", func(t *testing.T) {
		registry := NewRegistry().
			Add(Func("zeta", "Last", echo)).
			Add(Func("alpha", "First", echo))

		assert.Equal(t, 2, registry.Len())
		assert.Equal(t, []string{"alpha", "zeta"}, registry.Names())

		tools := registry.Tools()
		require.Len(t, tools, 2)
		assert.Equal(t, "alpha", tools[0].Name)
		assert.Equal(t, "First", tools[0].Description)
		assert.Contains(t, string(tools[0].Parameters), `"text"`)
	})

	t.Run("duplicate names", func(t *testing.T) {
		registry := NewRegistry().Add(Func("dupe", "First", echo))

		tl, h := MustBind("dupe", "Second", echo)
		var dup *ErrToolAlreadyRegistered
		require.ErrorAs(t, registry.Register(tl, h), &dup)
		assert.Equal(t, "dupe", dup.Name)

		assert.Panics(t, func() { registry.Add(Func("dupe", "Again", echo)) })
	})

	t.Run("lookup", func(t *testing.T) {
		registry := NewRegistry().Add(Func("echo", "Echo", echo))

		h, ok := registry.Get("echo")
		assert.True(t, ok)
		assert.NotNil(t, h)

		_, ok = registry.GetTool("missing")
		assert.False(t, ok)
	})
}

func TestRegistryExecute(t *testing.T) {
	boom := errors.New("boom")
	registry := NewRegistry().Add(
		Func("echo", "Echo", echo),
		Func("fail", "Fail", func(context.Context, echoArgs) (string, error) { return "", boom }),
	)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		result, err := registry.Execute(ctx, ai.ToolCall{ID: "call_1", Name: "echo", Arguments: `{"text":"hi"}`})
		require.NoError(t, err)
		assert.Equal(t, ai.ToolResult{ToolCallID: "call_1", Name: "echo", Content: "echo: hi"}, result)
	})

	t.Run("empty arguments decode as an empty object", func(t *testing.T) {
		result, err := registry.Execute(ctx, ai.ToolCall{ID: "call_2", Name: "echo"})
		require.NoError(t, err)
		assert.Equal(t, "echo: ", result.Content)
	})

	t.Run("handler error becomes an error result", func(t *testing.T) {
		result, err := registry.Execute(ctx, ai.ToolCall{ID: "call_3", Name: "fail", Arguments: `{}`})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Equal(t, "boom", result.Content)
	})

	t.Run("invalid arguments", func(t *testing.T) {
		result, err := registry.Execute(ctx, ai.ToolCall{ID: "call_4", Name: "echo", Arguments: `{invalid`})
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, result.Content, "invalid arguments")
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := registry.Execute(ctx, ai.ToolCall{ID: "call_5", Name: "missing"})
		var notFound *ErrToolNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing", notFound.Name)
	})
}
