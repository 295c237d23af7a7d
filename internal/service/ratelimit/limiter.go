// Package ratelimit provides a per-key token bucket guarding outbound
// brokerage calls.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

type Limiter struct {
	mu sync.Mutex
	m  map[string]*bucket
}

func New() *Limiter { return &Limiter{m: make(map[string]*bucket)} }

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	return l.take(key, capacity, refillPerSec)
}

// Wait blocks until a token is available for key or the context is done.
func (l *Limiter) Wait(ctx context.Context, key string, capacity, refillPerSec float64) error {
	for {
		if l.take(key, capacity, refillPerSec) {
			return nil
		}
		delay := l.retryDelay(key, refillPerSec)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Limiter) take(key string, capacity, refillPerSec float64) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * b.refillRate
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.last = now
	}
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// retryDelay estimates how long until the next token appears.
func (l *Limiter) retryDelay(key string, refillPerSec float64) time.Duration {
	if refillPerSec <= 0 {
		return 50 * time.Millisecond
	}
	l.mu.Lock()
	b, ok := l.m[key]
	missing := 1.0
	if ok {
		missing = 1 - b.tokens
	}
	l.mu.Unlock()

	if missing <= 0 {
		return time.Millisecond
	}
	d := time.Duration(missing / refillPerSec * float64(time.Second))
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
