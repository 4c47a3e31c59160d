package client

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	ai "github.com/spetersoncode/scholar"
)

// Generate requests a structured response shaped like T from p and decodes
// it. The schema is derived from T and named after it in snake_case.
//
//	perspectives, err := client.Generate[research.Perspectives](ctx, c, msgs)
//
// A response that is not valid JSON, misses a required field or has a field
// of the wrong type yields a *ai.GenerationError. Provider errors are returned
// unchanged.
func Generate[T any](ctx context.Context, p ai.ChatProvider, msgs []ai.Message, opts ...ai.Option) (T, error) {
	var zero T

	name := SchemaName[T]()
	schema, err := ai.SchemaFor[T]()
	if err != nil {
		return zero, fmt.Errorf("generate %s: %w", name, err)
	}

	allOpts := make([]ai.Option, 0, len(opts)+1)
	allOpts = append(allOpts, ai.WithResponseSchema(ai.ResponseSchema{Name: name, Schema: schema}))
	allOpts = append(allOpts, opts...)

	resp, err := p.Chat(ctx, msgs, allOpts...)
	if err != nil {
		return zero, err
	}

	content := stripCodeFence(resp.Content)
	if err := ai.ValidateJSON(schema, content); err != nil {
		return zero, &ai.GenerationError{Schema: name, Content: resp.Content, Err: err}
	}

	var result T
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return zero, &ai.GenerationError{Schema: name, Content: resp.Content, Err: err}
	}
	return result, nil
}

// SchemaName returns the snake_case name of T, or "response" for unnamed types.
func SchemaName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if name := toSnakeCase(t.Name()); name != "" {
		return name
	}
	return "response"
}

// stripCodeFence removes a ```json fence some models wrap around JSON output.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(t, "```"))
}

// toSnakeCase converts a CamelCase string to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				result.WriteRune('_')
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
