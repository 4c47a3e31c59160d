package agent

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/event"
	"github.com/spetersoncode/scholar/tool"
)

// TerminationReason says why a run stopped.
type TerminationReason string

const (
	TerminationComplete  TerminationReason = "complete"
	TerminationMaxSteps  TerminationReason = "max_steps"
	TerminationTimeout   TerminationReason = "timeout"
	TerminationCancelled TerminationReason = "cancelled"
	TerminationCustom    TerminationReason = "custom"
	TerminationRejected  TerminationReason = "rejected"
	TerminationError     TerminationReason = "error"
)

// Result is the outcome of a run.
type Result struct {
	// Response is the last model response.
	Response *ai.Response
	// Messages are the messages the run added to the conversation:
	// assistant turns and tool results, in order.
	Messages    []ai.Message
	Steps       int
	Termination TerminationReason
	TotalUsage  ai.Usage
}

// Final returns the text of the last response.
func (r *Result) Final() string {
	if r.Response == nil {
		return ""
	}
	return r.Response.Content
}

// Agent runs a ReAct loop: the model is called with the registry's tools,
// requested tools are executed and their results fed back until the model
// answers without tool calls.
type Agent struct {
	provider ai.ChatProvider
	registry *tool.Registry
}

// New creates an agent.
func New(p ai.ChatProvider, registry *tool.Registry) *Agent {
	return &Agent{provider: p, registry: registry}
}

// Run continues the conversation in messages. The input slice is not
// modified. A provider error ends the run with TerminationError and is
// returned together with the partial result.
func (a *Agent) Run(ctx context.Context, messages []ai.Message, opts ...Option) (*Result, error) {
	options := ApplyOptions(opts...)
	logger := options.Logger.With(zap.String("component", "agent"))

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	chatOpts := append([]ai.Option{
		ai.WithTools(a.registry.Tools()...),
		ai.WithParallelToolCalls(options.ParallelToolCalls),
	}, options.ChatOptions...)

	history := ai.CloneMessages(messages)
	result := &Result{}
	event.Emit(options.Events, event.Event{Type: event.RunStart})

	finish := func(reason TerminationReason) (*Result, error) {
		result.Termination = reason
		logger.Debug("agent finished", zap.String("termination", string(reason)), zap.Int("steps", result.Steps))
		event.Emit(options.Events, event.Event{Type: event.RunEnd, Step: result.Steps, Response: result.Response, Message: string(reason)})
		return result, nil
	}

	for step := 1; ; step++ {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return finish(TerminationTimeout)
			}
			return finish(TerminationCancelled)
		}
		if options.MaxSteps > 0 && step > options.MaxSteps {
			return finish(TerminationMaxSteps)
		}

		result.Steps = step
		event.Emit(options.Events, event.Event{Type: event.StepStart, Step: step})

		resp, err := a.provider.Chat(ctx, a.prompt(history, options), chatOpts...)
		if err != nil {
			result.Termination = TerminationError
			logger.Error("model call failed", zap.Int("step", step), zap.Error(err))
			event.Emit(options.Events, event.Event{Type: event.RunError, Step: step, Error: err})
			return result, err
		}
		result.Response = resp
		result.TotalUsage = result.TotalUsage.Add(resp.Usage)

		msg := resp.Message()
		history = append(history, msg)
		result.Messages = append(result.Messages, msg)
		emitMessage(options.Events, step, msg.ID, resp)
		event.Emit(options.Events, event.Event{Type: event.StepEnd, Step: step, Response: resp})

		if options.StopPredicate != nil && options.StopPredicate(step, resp) {
			return finish(TerminationCustom)
		}
		if len(resp.ToolCalls) == 0 {
			return finish(TerminationComplete)
		}

		results, allRejected := a.processToolCalls(ctx, resp.ToolCalls, options, step, logger)
		toolMsg := ai.NewToolResultMessage(results...)
		history = append(history, toolMsg)
		result.Messages = append(result.Messages, toolMsg)

		if allRejected {
			return finish(TerminationRejected)
		}
	}
}

func (a *Agent) prompt(history []ai.Message, options *Options) []ai.Message {
	if options.SystemPrompt == "" {
		return history
	}
	msgs := make([]ai.Message, 0, len(history)+1)
	msgs = append(msgs, ai.NewSystemMessage(options.SystemPrompt))
	return append(msgs, history...)
}

// emitMessage reports a complete response as a single-delta message.
func emitMessage(ch chan<- event.Event, step int, id string, resp *ai.Response) {
	if resp.Content == "" {
		return
	}
	event.Emit(ch, event.Event{Type: event.MessageStart, Step: step, MessageID: id})
	event.Emit(ch, event.Event{Type: event.MessageDelta, Step: step, MessageID: id, Delta: resp.Content})
	event.Emit(ch, event.Event{Type: event.MessageEnd, Step: step, MessageID: id, Response: resp})
}

// processToolCalls approves and executes calls. Results keep the order of
// calls. allRejected is set when the approver refused every call.
func (a *Agent) processToolCalls(ctx context.Context, calls []ai.ToolCall, options *Options, step int, logger *zap.Logger) ([]ai.ToolResult, bool) {
	results := make([]ai.ToolResult, len(calls))
	var approved []int

	for i := range calls {
		tc := calls[i]
		event.Emit(options.Events, event.Event{Type: event.ToolCallStart, Step: step, ToolCall: &tc})
		event.Emit(options.Events, event.Event{Type: event.ToolCallArgs, Step: step, ToolCall: &tc})

		if options.Approver != nil {
			if ok, reason := options.Approver(ctx, tc); !ok {
				if reason == "" {
					reason = "Tool call rejected"
				}
				logger.Info("tool call rejected", zap.String("tool", tc.Name), zap.String("reason", reason))
				results[i] = ai.ToolResult{ToolCallID: tc.ID, Name: tc.Name, Content: reason, IsError: true}
				emitResult(options.Events, step, tc, results[i])
				continue
			}
		}
		approved = append(approved, i)
	}

	if len(approved) == 0 {
		return results, true
	}

	if options.ParallelToolCalls && len(approved) > 1 {
		var wg sync.WaitGroup
		for _, i := range approved {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i] = a.executeToolCall(ctx, calls[i], options, step, logger)
			}(i)
		}
		wg.Wait()
	} else {
		for _, i := range approved {
			results[i] = a.executeToolCall(ctx, calls[i], options, step, logger)
		}
	}
	return results, false
}

func (a *Agent) executeToolCall(ctx context.Context, tc ai.ToolCall, options *Options, step int, logger *zap.Logger) ai.ToolResult {
	execCtx := ctx
	if options.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, options.HandlerTimeout)
		defer cancel()
	}

	result, err := a.registry.Execute(execCtx, tc)
	if err != nil {
		result = ai.ToolResult{ToolCallID: tc.ID, Name: tc.Name, Content: err.Error(), IsError: true}
	}
	logger.Debug("tool executed",
		zap.String("tool", tc.Name),
		zap.String("arguments", tc.Arguments),
		zap.Bool("error", result.IsError),
	)
	emitResult(options.Events, step, tc, result)
	return result
}

func emitResult(ch chan<- event.Event, step int, tc ai.ToolCall, result ai.ToolResult) {
	event.Emit(ch, event.Event{Type: event.ToolCallEnd, Step: step, ToolCall: &tc})
	event.Emit(ch, event.Event{Type: event.ToolCallResult, Step: step, ToolCall: &tc, ToolResult: &result})
}
