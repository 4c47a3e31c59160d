package tool

import (
	"context"
	"encoding/json"
	"strings"

	ai "github.com/spetersoncode/scholar"
)

// Bind creates a Tool and Handler from a typed function. The parameter
// schema is derived from T.
//
//	type AddArgs struct {
//	    A int `json:"a" jsonschema_description:"first int"`
//	    B int `json:"b" jsonschema_description:"second int"`
//	}
//
//	t, h, err := tool.Bind("add", "Adds a and b.",
//	    func(ctx context.Context, args AddArgs) (string, error) {
//	        return strconv.Itoa(args.A + args.B), nil
//	    })
func Bind[T any](name, description string, fn TypedHandler[T]) (ai.Tool, Handler, error) {
	schema, err := ai.SchemaFor[T]()
	if err != nil {
		return ai.Tool{}, nil, err
	}
	t := ai.Tool{
		Name:        name,
		Description: description,
		Parameters:  schema,
	}
	return t, typed(name, fn), nil
}

// MustBind is like Bind but panics on error.
func MustBind[T any](name, description string, fn TypedHandler[T]) (ai.Tool, Handler) {
	t, h, err := Bind(name, description, fn)
	if err != nil {
		panic(err)
	}
	return t, h
}

func typed[T any](name string, fn TypedHandler[T]) Handler {
	return func(ctx context.Context, call ai.ToolCall) (string, error) {
		var args T
		raw := strings.TrimSpace(call.Arguments)
		if raw == "" {
			raw = "{}"
		}
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return "", &ErrInvalidArguments{Name: name, Err: err}
		}
		return fn(ctx, args)
	}
}
