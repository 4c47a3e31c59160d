// Package retry retries operations that fail with transient errors, backing
// off exponentially between attempts.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds retry parameters.
type Config struct {
	// MaxAttempts counts the initial request.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Multiplier grows the delay after every failed attempt.
	Multiplier float64

	// Jitter scales each delay by 1 + random(-Jitter, +Jitter).
	Jitter float64
}

// DefaultConfig returns 5 attempts starting at 1s, doubling, capped at 30s,
// with 10% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a configuration that makes a single attempt.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay returns the wait before retry number attempt (0-indexed):
// min(MaxDelay, InitialDelay * Multiplier^attempt), then jittered.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
