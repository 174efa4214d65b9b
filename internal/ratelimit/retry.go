package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Policy controls retry behavior for a fallible operation.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the backoff regardless of attempt number.
	MaxDelay time.Duration

	// Base is the exponential growth factor between attempts.
	Base float64

	// Jitter randomizes each delay to between 50% and 150% of its
	// nominal value, spreading retries from concurrent workers apart.
	Jitter bool
}

// DefaultPolicy returns the retry policy used for page fetches.
func DefaultPolicy(maxRetries int) Policy {
	return Policy{
		MaxAttempts:  maxRetries,
		InitialDelay: 2 * time.Second,
		MaxDelay:     60 * time.Second,
		Base:         2.0,
		Jitter:       true,
	}
}

// permanentError wraps an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks an error as non-retryable. Do returns the wrapped error
// immediately when an attempt produces one. A nil error is returned as nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err is marked non-retryable.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Backoff returns the nominal delay before the given attempt, 1-based.
// Attempt 1 has no delay; attempt 2 waits InitialDelay, and each further
// attempt multiplies by Base up to MaxDelay. Jitter is not applied here so
// callers and tests can inspect the deterministic schedule.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := float64(p.InitialDelay) * math.Pow(p.Base, float64(attempt-2))
	if ceiling := float64(p.MaxDelay); d > ceiling {
		d = ceiling
	}
	return time.Duration(d)
}

// Do runs op up to MaxAttempts times, sleeping the backoff delay between
// attempts. It returns nil on the first success, the unwrapped cause when
// op returns a Permanent error, and otherwise the last error once attempts
// are exhausted. Context cancellation interrupts the backoff sleep.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if delay := p.delay(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}

		var pe *permanentError
		if errors.As(err, &pe) {
			return pe.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}

	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, lastErr)
}

// delay applies jitter to the nominal backoff for an attempt.
func (p Policy) delay(attempt int) time.Duration {
	d := p.Backoff(attempt)
	if d > 0 && p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
	}
	return d
}
