package worker

import (
	"context"
	"testing"
	"time"
)

// ready reports whether a call for key gets through within a short deadline.
func ready(l *Limiter, key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	return l.Wait(ctx, key) == nil
}

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "anthropic"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "openai"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	if !ready(limiter, "anthropic") {
		t.Fatal("first call should pass")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := limiter.Wait(ctx, "anthropic"); err == nil {
		t.Error("expected wait to fail once the context is done")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !ready(limiter, "anthropic") {
		t.Errorf("first call should pass")
	}
	if ready(limiter, "anthropic") {
		t.Errorf("expected second call to wait (exhausted tokens)")
	}
	if !ready(limiter, "openai") {
		t.Errorf("expected other key to pass")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !ready(limiter, "anthropic") {
			t.Fatalf("expected unlimited limiter to pass call %d", i)
		}
	}
}

func TestLimiter_SetRate(t *testing.T) {
	limiter := NewLimiter(100, 10)
	limiter.SetRate("slow", 0.1, 1)

	if !ready(limiter, "slow") {
		t.Errorf("first request should pass")
	}
	if ready(limiter, "slow") {
		t.Errorf("second request should wait")
	}
	if !ready(limiter, "fast") {
		t.Errorf("other key should pass")
	}
}

func TestLimiter_SetRateUnlimited(t *testing.T) {
	limiter := NewLimiter(0.001, 1)
	limiter.SetRate("ollama", 0, 0)

	for i := 0; i < 10; i++ {
		if !ready(limiter, "ollama") {
			t.Fatalf("expected unlimited key to pass call %d", i)
		}
	}
}
