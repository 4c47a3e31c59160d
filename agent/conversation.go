package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	ai "github.com/spetersoncode/scholar"
	"github.com/spetersoncode/scholar/checkpoint"
)

// Memory stores conversation threads. *checkpoint.Saver implements it.
type Memory interface {
	Save(ctx context.Context, cp *checkpoint.Checkpoint) error
	Load(ctx context.Context, threadID string) (*checkpoint.Checkpoint, error)
}

// memoryNode names the position a conversation checkpoint is saved at.
const memoryNode = "assistant"

type thread struct {
	Messages []ai.Message `json:"messages"`
}

// Conversation is a multi-turn chat with an Agent whose history survives
// between calls, one thread per ID.
type Conversation struct {
	agent  *Agent
	memory Memory
	opts   []Option
}

// NewConversation creates a conversation over memory. opts apply to every
// turn.
func NewConversation(a *Agent, memory Memory, opts ...Option) *Conversation {
	return &Conversation{agent: a, memory: memory, opts: opts}
}

// Send adds text as a user message to the thread, runs the agent and
// saves the grown history. A run that fails or hits the step limit is not
// saved.
func (c *Conversation) Send(ctx context.Context, threadID, text string, opts ...Option) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("agent: message: %w", ai.ErrEmptyInput)
	}

	history, err := c.History(ctx, threadID)
	if err != nil {
		return nil, err
	}
	history = append(history, ai.NewUserMessage(text))

	result, err := c.agent.Run(ctx, history, append(append([]Option{}, c.opts...), opts...)...)
	if err != nil {
		return result, err
	}
	if result.Termination == TerminationMaxSteps {
		return result, ErrMaxStepsReached
	}

	data, err := json.Marshal(thread{Messages: append(history, result.Messages...)})
	if err != nil {
		return result, fmt.Errorf("agent: encode thread: %w", err)
	}
	cp := &checkpoint.Checkpoint{
		ThreadID: threadID,
		Node:     memoryNode,
		Status:   checkpoint.StatusCompleted,
		State:    data,
	}
	if err := c.memory.Save(context.WithoutCancel(ctx), cp); err != nil {
		return result, fmt.Errorf("agent: save thread %q: %w", threadID, err)
	}
	return result, nil
}

// History returns the messages of a thread. An unknown thread is empty.
func (c *Conversation) History(ctx context.Context, threadID string) ([]ai.Message, error) {
	cp, err := c.memory.Load(ctx, threadID)
	if errors.Is(err, checkpoint.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t thread
	if err := json.Unmarshal(cp.State, &t); err != nil {
		return nil, fmt.Errorf("agent: decode thread %q: %w", threadID, err)
	}
	return t.Messages, nil
}
