package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter stores values as Redis strings under a key prefix.
type RedisAdapter struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisAdapter.
type RedisOption func(*RedisAdapter)

// WithKeyPrefix namespaces every key. Defaults to "scholar:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisAdapter) {
		r.prefix = prefix
	}
}

// WithTTL expires values after d. Zero keeps them forever.
func WithTTL(d time.Duration) RedisOption {
	return func(r *RedisAdapter) {
		r.ttl = d
	}
}

// NewRedisAdapter connects to addr and checks the connection.
func NewRedisAdapter(ctx context.Context, addr string, opts ...RedisOption) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("store: failed to connect to Redis: %w", err)
	}
	return NewRedisAdapterFromClient(client, opts...), nil
}

// NewRedisAdapterFromClient wraps an existing client.
func NewRedisAdapterFromClient(client *redis.Client, opts ...RedisOption) *RedisAdapter {
	r := &RedisAdapter{client: client, prefix: "scholar:"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get retrieves a value by key.
func (r *RedisAdapter) Get(ctx context.Context, key string) (json.RawMessage, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: redis get %q: %w", key, err)
	}
	return data, nil
}

// Set stores a value by key.
func (r *RedisAdapter) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := r.client.Set(ctx, r.prefix+key, []byte(value), r.ttl).Err(); err != nil {
		return fmt.Errorf("store: redis set %q: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("store: redis delete %q: %w", key, err)
	}
	return nil
}

// Keys scans for keys with the given prefix.
func (r *RedisAdapter) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("store: redis scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
