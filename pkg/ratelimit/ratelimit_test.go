package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestWait_PerAgentIsolation(t *testing.T) {
	l := NewLimiter(1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "crab-1"); err != nil {
		t.Fatalf("first request should pass immediately: %v", err)
	}
	// Global bucket is drained too, so a second agent blocks as well.
	if err := l.Wait(ctx, "crab-2"); err == nil {
		t.Error("global limit should block the second request")
	}
}

func TestWait_RespectsContext(t *testing.T) {
	l := NewLimiter(0.001, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "crab-1"); err != nil {
		t.Fatalf("burst request should pass immediately: %v", err)
	}
	if err := l.Wait(ctx, "crab-1"); err == nil {
		t.Error("expected context deadline error")
	}
}

func TestGetAgentLimiter_Reuse(t *testing.T) {
	l := NewLimiter(10, 10)

	a := l.getAgentLimiter("crab-1")
	b := l.getAgentLimiter("crab-1")
	if a != b {
		t.Error("expected the same limiter instance for one agent")
	}
}
