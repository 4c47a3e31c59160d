// Package store provides key/value persistence backends for checkpoints and
// conversation memory: in-memory, Redis, and SQL through gorm.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Adapter defines the interface for persistence backends.
// Implementations must be safe for concurrent use.
type Adapter interface {
	// Get retrieves a value by key. Returns ErrNotFound if the key is absent.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set stores a value by key, replacing any previous value.
	Set(ctx context.Context, key string, value json.RawMessage) error

	// Delete removes a key. No error if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// Keys returns all keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend's resources.
	Close() error
}

// SerializationError wraps JSON marshaling/unmarshaling errors with context.
type SerializationError struct {
	Key string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("store: serialization error for key %q: %v", e.Key, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// GetJSON loads key and decodes it into a T.
func GetJSON[T any](ctx context.Context, a Adapter, key string) (T, error) {
	var v T
	raw, err := a.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, &SerializationError{Key: key, Err: err}
	}
	return v, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, a Adapter, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return a.Set(ctx, key, raw)
}
