package workflow

import (
	"context"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/client"
)

// Step is a single unit of work over a state of type S. Steps can be
// functions, LLM calls, or nested workflows.
type Step[S any] interface {
	// Name returns a unique identifier for the step.
	Name() string

	// Run executes the step, mutating state in place.
	Run(ctx context.Context, state *S, opts ...Option) error
}

// StepFunc is a function signature for simple step implementations.
type StepFunc[S any] func(ctx context.Context, state *S) error

// FuncStep wraps a function as a Step.
type FuncStep[S any] struct {
	name string
	fn   StepFunc[S]
}

// NewFuncStep creates a step from a function.
func NewFuncStep[S any](name string, fn StepFunc[S]) *FuncStep[S] {
	return &FuncStep[S]{name: name, fn: fn}
}

// Name returns the step name.
func (f *FuncStep[S]) Name() string { return f.name }

// Run executes the function.
func (f *FuncStep[S]) Run(ctx context.Context, state *S, _ ...Option) error {
	return f.fn(ctx, state)
}

// PromptFunc generates messages from state for an LLM call.
type PromptFunc[S any] func(state *S) []ai.Message

// PromptStep makes a single LLM call and hands the reply to a setter.
type PromptStep[S any] struct {
	name     string
	provider ai.ChatProvider
	prompt   PromptFunc[S]
	set      func(state *S, resp *ai.Response) error
	chatOpts []ai.Option
}

// NewPromptStep creates a step for a single LLM call. The prompt function
// builds messages from the current state; set stores the reply.
func NewPromptStep[S any](name string, p ai.ChatProvider, prompt PromptFunc[S], set func(state *S, resp *ai.Response) error, opts ...ai.Option) *PromptStep[S] {
	return &PromptStep[S]{
		name:     name,
		provider: p,
		prompt:   prompt,
		set:      set,
		chatOpts: opts,
	}
}

// Name returns the step name.
func (p *PromptStep[S]) Name() string { return p.name }

// Run executes the LLM call.
func (p *PromptStep[S]) Run(ctx context.Context, state *S, _ ...Option) error {
	resp, err := p.provider.Chat(ctx, p.prompt(state), p.chatOpts...)
	if err != nil {
		return err
	}
	if p.set == nil {
		return nil
	}
	return p.set(state, resp)
}

// TypedPromptStep makes an LLM call with structured output decoded into T.
type TypedPromptStep[S, T any] struct {
	name     string
	provider ai.ChatProvider
	prompt   PromptFunc[S]
	set      func(state *S, value T)
	chatOpts []ai.Option
}

// NewTypedPromptStep creates a step whose reply must match the JSON schema
// of T. A non-conforming reply fails the step with *ai.GenerationError.
//
//	step := workflow.NewTypedPromptStep("generate_query", c,
//	    func(s *State) []ai.Message { return queryPrompt(s) },
//	    func(s *State, q SearchQuery) { s.Query = q.SearchQuery },
//	)
func NewTypedPromptStep[S, T any](name string, p ai.ChatProvider, prompt PromptFunc[S], set func(state *S, value T), opts ...ai.Option) *TypedPromptStep[S, T] {
	return &TypedPromptStep[S, T]{
		name:     name,
		provider: p,
		prompt:   prompt,
		set:      set,
		chatOpts: opts,
	}
}

// Name returns the step name.
func (p *TypedPromptStep[S, T]) Name() string { return p.name }

// Run executes the LLM call and stores the decoded value.
func (p *TypedPromptStep[S, T]) Run(ctx context.Context, state *S, _ ...Option) error {
	value, err := client.Generate[T](ctx, p.provider, p.prompt(state), p.chatOpts...)
	if err != nil {
		return err
	}
	if p.set != nil {
		p.set(state, value)
	}
	return nil
}
