package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestLimiterBurstProceedsImmediately(t *testing.T) {
	t.Parallel()

	l := NewLimiter(time.Second, 3)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		if err := l.Acquire(ctx, 1); err != nil {
			t.Fatalf("Acquire() = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("burst acquisitions took %s, want near-instant", elapsed)
	}
}

func TestLimiterWaitsAfterBurst(t *testing.T) {
	t.Parallel()

	l := NewLimiter(200*time.Millisecond, 1)
	ctx := context.Background()

	if err := l.Acquire(ctx, 1); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := l.Acquire(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("second acquisition took %s, want about 200ms", elapsed)
	}
}

func TestLimiterContextCancellation(t *testing.T) {
	t.Parallel()

	l := NewLimiter(10*time.Second, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Acquire(ctx, 1); err != nil {
		t.Fatal(err)
	}

	// Bucket is empty and refill takes 10s; cancellation must win.
	if err := l.Acquire(ctx, 1); err == nil {
		t.Error("Acquire() should fail when the context expires")
	}
}

func TestLimiterRejectsOversizedRequest(t *testing.T) {
	t.Parallel()

	l := NewLimiter(time.Second, 2)
	if err := l.Acquire(context.Background(), 3); err == nil {
		t.Error("Acquire(3) with burst 2 should fail")
	}
}

func TestLimiterTokensCappedAtBurst(t *testing.T) {
	t.Parallel()

	l := NewLimiter(time.Millisecond, 5)
	time.Sleep(20 * time.Millisecond)

	if tokens := l.Tokens(); tokens > 5 {
		t.Errorf("Tokens() = %f, want capped at 5", tokens)
	}
}
