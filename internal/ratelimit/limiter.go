package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Limiter is a token bucket rate limiter. Tokens refill continuously at
// Rate per second up to Burst; each request consumes one token. All
// state is guarded by one mutex, and waiting happens on a timer rather
// than a polling loop.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens added per second
	burst  float64 // bucket capacity
	tokens float64
	last   time.Time // last refill
}

// NewLimiter creates a limiter that emits one token per delay interval and
// holds at most burst tokens. The bucket starts full, so the first burst
// requests proceed without waiting.
func NewLimiter(delay time.Duration, burst int) *Limiter {
	if delay <= 0 {
		delay = time.Second
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		rate:   1.0 / delay.Seconds(),
		burst:  float64(burst),
		tokens: float64(burst),
		last:   time.Now(),
	}
}

// Acquire blocks until n tokens are available or the context is done.
func (l *Limiter) Acquire(ctx context.Context, n int) error {
	if float64(n) > l.burst {
		return fmt.Errorf("requested %d tokens exceeds burst %d", n, int(l.burst))
	}

	for {
		l.mu.Lock()
		l.refill()
		if l.tokens >= float64(n) {
			l.tokens -= float64(n)
			l.mu.Unlock()
			return nil
		}
		// Sleep exactly until the deficit refills, then re-check under
		// the lock in case another caller drained the bucket meanwhile.
		wait := time.Duration((float64(n) - l.tokens) / l.rate * float64(time.Second))
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tokens returns the current token count after refill. Intended for
// progress display and tests.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

// refill adds tokens for the time elapsed since the last refill.
// Callers must hold l.mu.
func (l *Limiter) refill() {
	now := time.Now()
	elapsed := now.Sub(l.last).Seconds()
	l.last = now

	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
}
