// Package checkpoint persists the position and state of workflow runs so
// they can be suspended and resumed by thread ID.
package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spetersoncode/scholar/store"
)

// ErrNotFound is returned when a thread has no checkpoint.
var ErrNotFound = errors.New("checkpoint: not found")

// Status describes where a run stands.
type Status string

const (
	StatusRunning     Status = "running"
	StatusInterrupted Status = "interrupted"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Checkpoint is a snapshot taken at a node boundary.
type Checkpoint struct {
	ThreadID string `json:"thread_id"`
	// Version increases by one with every save on the thread.
	Version int `json:"version"`
	// Node is the next node to run.
	Node   string          `json:"node"`
	Status Status          `json:"status"`
	State  json.RawMessage `json:"state"`
	// Error records the failure of a failed run.
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultPrefix namespaces checkpoint keys.
const DefaultPrefix = "checkpoint:"

// Saver stores checkpoints in a store.Adapter. The latest checkpoint of a
// thread is kept under "{prefix}latest:{thread}" and every version under
// "{prefix}history:{thread}:{n}" when history is enabled. Thread IDs may
// contain any character, ":" included.
type Saver struct {
	adapter store.Adapter
	prefix  string
	history bool
	mu      sync.Mutex
}

// Option configures a Saver.
type Option func(*Saver)

// WithHistory keeps every version of a thread instead of only the latest.
func WithHistory() Option {
	return func(s *Saver) {
		s.history = true
	}
}

// WithPrefix stores checkpoints under prefix instead of DefaultPrefix, so
// that savers sharing an adapter keep separate threads.
func WithPrefix(prefix string) Option {
	return func(s *Saver) {
		s.prefix = prefix
	}
}

// NewSaver creates a saver over adapter.
func NewSaver(adapter store.Adapter, opts ...Option) *Saver {
	s := &Saver{adapter: adapter, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const versionDigits = 8

func (s *Saver) latestPrefix() string { return s.prefix + "latest:" }

func (s *Saver) latestKey(threadID string) string { return s.latestPrefix() + threadID }

func (s *Saver) historyPrefix(threadID string) string {
	return s.prefix + "history:" + threadID + ":"
}

func (s *Saver) versionKey(threadID string, v int) string {
	return fmt.Sprintf("%s%0*d", s.historyPrefix(threadID), versionDigits, v)
}

// versionKeys lists the history keys of threadID. Keys of threads whose ID
// extends threadID with ":" share the prefix and are skipped.
func (s *Saver) versionKeys(ctx context.Context, threadID string) ([]string, error) {
	prefix := s.historyPrefix(threadID)
	keys, err := s.adapter.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if isVersion(strings.TrimPrefix(k, prefix)) {
			out = append(out, k)
		}
	}
	return out, nil
}

func isVersion(s string) bool {
	if len(s) != versionDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Save stores cp as the thread's latest checkpoint, assigning its Version
// and CreatedAt.
func (s *Saver) Save(ctx context.Context, cp *Checkpoint) error {
	if cp.ThreadID == "" {
		return errors.New("checkpoint: empty thread ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.Load(ctx, cp.ThreadID)
	switch {
	case err == nil:
		cp.Version = prev.Version + 1
	case errors.Is(err, ErrNotFound):
		cp.Version = 1
	default:
		return err
	}
	cp.CreatedAt = time.Now().UTC()

	if err := store.SetJSON(ctx, s.adapter, s.latestKey(cp.ThreadID), cp); err != nil {
		return fmt.Errorf("checkpoint: save %q: %w", cp.ThreadID, err)
	}
	if s.history {
		if err := store.SetJSON(ctx, s.adapter, s.versionKey(cp.ThreadID, cp.Version), cp); err != nil {
			return fmt.Errorf("checkpoint: save %q: %w", cp.ThreadID, err)
		}
	}
	return nil
}

// Load returns the latest checkpoint of threadID.
func (s *Saver) Load(ctx context.Context, threadID string) (*Checkpoint, error) {
	cp, err := store.GetJSON[Checkpoint](ctx, s.adapter, s.latestKey(threadID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: thread %q", ErrNotFound, threadID)
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load %q: %w", threadID, err)
	}
	return &cp, nil
}

// History returns every saved version of threadID, oldest first. Without
// WithHistory it holds at most the latest checkpoint.
func (s *Saver) History(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	if !s.history {
		cp, err := s.Load(ctx, threadID)
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []*Checkpoint{cp}, nil
	}

	keys, err := s.versionKeys(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: history %q: %w", threadID, err)
	}
	out := make([]*Checkpoint, 0, len(keys))
	for _, k := range keys {
		cp, err := store.GetJSON[Checkpoint](ctx, s.adapter, k)
		if err != nil {
			return nil, fmt.Errorf("checkpoint: history %q: %w", threadID, err)
		}
		out = append(out, &cp)
	}
	return out, nil
}

// Threads lists the thread IDs that have a checkpoint.
func (s *Saver) Threads(ctx context.Context) ([]string, error) {
	keys, err := s.adapter.Keys(ctx, s.latestPrefix())
	if err != nil {
		return nil, fmt.Errorf("checkpoint: threads: %w", err)
	}
	var threads []string
	for _, k := range keys {
		threads = append(threads, strings.TrimPrefix(k, s.latestPrefix()))
	}
	return threads, nil
}

// Delete removes every checkpoint of threadID.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	keys, err := s.versionKeys(ctx, threadID)
	if err != nil {
		return fmt.Errorf("checkpoint: delete %q: %w", threadID, err)
	}
	keys = append(keys, s.latestKey(threadID))
	for _, k := range keys {
		if err := s.adapter.Delete(ctx, k); err != nil {
			return fmt.Errorf("checkpoint: delete %q: %w", threadID, err)
		}
	}
	return nil
}
