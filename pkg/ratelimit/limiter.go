// Package ratelimit implements an in-process sliding window rate limiter.
//
// Every service process owns its own Limiter; nothing is shared across
// processes or persisted. For each key (the client address) the limiter keeps
// the timestamps of the admitted requests that still fall inside the window.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 10
	DefaultWindow      = 60 * time.Second
)

// ErrLimitExceeded is wrapped by *ExceededError.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// ExceededError describes a rejected request.
type ExceededError struct {
	MaxRequests int
	Window      time.Duration
	// RetryAfter is the time until the oldest counted request leaves the window.
	RetryAfter time.Duration
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("Rate limit exceeded. Max %d requests per %d seconds",
		e.MaxRequests, int(e.Window/time.Second))
}

func (e *ExceededError) Unwrap() error { return ErrLimitExceeded }

// Config holds limiter parameters.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// bucket holds the admitted timestamps of one key in ascending order.
type bucket struct {
	mu    sync.Mutex
	stamp []time.Time
	// dead is set once Sweep has unlinked the bucket from the map.
	dead bool
}

// Limiter is safe for concurrent use. Requests for the same key serialise on
// the key's bucket; different keys only share the map lock briefly.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.RWMutex
	buckets map[string]*bucket
}

// New returns a Limiter. Non-positive values fall back to the defaults.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.MaxRequests <= 0 {
		cfg.MaxRequests = DefaultMaxRequests
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the limiter parameters.
func (l *Limiter) Config() Config {
	return l.cfg
}

// Allow admits or rejects one request for key. A rejected request is not
// counted. The returned error is an *ExceededError.
func (l *Limiter) Allow(key string) error {
	b := l.lockedBucket(key)
	defer b.mu.Unlock()

	now := l.now()

	b.prune(now.Add(-l.cfg.Window))
	if len(b.stamp) >= l.cfg.MaxRequests {
		return &ExceededError{
			MaxRequests: l.cfg.MaxRequests,
			Window:      l.cfg.Window,
			RetryAfter:  b.stamp[0].Add(l.cfg.Window).Sub(now),
		}
	}
	b.stamp = append(b.stamp, now)
	return nil
}

// Remaining returns how many more requests key may make right now.
func (l *Limiter) Remaining(key string) int {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if !ok {
		return l.cfg.MaxRequests
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(l.now().Add(-l.cfg.Window))
	return l.cfg.MaxRequests - len(b.stamp)
}

// Sweep drops buckets with no request inside the window and returns how many
// were removed.
func (l *Limiter) Sweep() int {
	cutoff := l.now().Add(-l.cfg.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, b := range l.buckets {
		b.mu.Lock()
		b.prune(cutoff)
		if len(b.stamp) == 0 {
			b.dead = true
			delete(l.buckets, key)
			removed++
		}
		b.mu.Unlock()
	}
	return removed
}

// Run sweeps idle buckets once per window until ctx is cancelled.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// lockedBucket returns the live bucket for key with its mutex held.
func (l *Limiter) lockedBucket(key string) *bucket {
	for {
		b := l.bucket(key)
		b.mu.Lock()
		if !b.dead {
			return b
		}
		b.mu.Unlock()
	}
}

func (l *Limiter) bucket(key string) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok = l.buckets[key]; !ok {
		b = &bucket{}
		l.buckets[key] = b
	}
	return b
}

// prune drops timestamps at or before cutoff. Caller holds b.mu.
func (b *bucket) prune(cutoff time.Time) {
	i := 0
	for i < len(b.stamp) && !b.stamp[i].After(cutoff) {
		i++
	}
	if i > 0 {
		b.stamp = append(b.stamp[:0], b.stamp[i:]...)
	}
}
