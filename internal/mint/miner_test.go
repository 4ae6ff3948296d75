package mint

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mbc20/clawmint/internal/moltbook"
	"github.com/mbc20/clawmint/pkg/config"
)

// fakeClient scripts CreatePost responses for the miner.
type fakeClient struct {
	calls   atomic.Int64
	results []fakeResult
}

type fakeResult struct {
	res *moltbook.PostResult
	err error
}

func (f *fakeClient) CreatePost(ctx context.Context, apiKey string, post moltbook.PostRequest) (*moltbook.PostResult, error) {
	n := int(f.calls.Add(1)) - 1
	if n >= len(f.results) {
		n = len(f.results) - 1
	}
	r := f.results[n]
	return r.res, r.err
}

func fastSchedule() *Schedule {
	cfg := config.ScheduleConfig{
		SuccessSleep:      config.Duration(10 * time.Millisecond),
		SuccessJitterMin:  config.Duration(time.Millisecond),
		SuccessJitterMax:  config.Duration(2 * time.Millisecond),
		UnknownRetry:      config.Duration(time.Millisecond),
		RateLimitFallback: config.Duration(10 * time.Millisecond),
		SecondsHintBuffer: config.Duration(time.Millisecond),
		MinutesHintBuffer: config.Duration(time.Millisecond),
	}
	return NewSchedule(cfg)
}

func TestMiner_LoopsUntilCanceled(t *testing.T) {
	client := &fakeClient{results: []fakeResult{
		{err: &moltbook.APIError{Code: moltbook.ErrorCodeServerError, StatusCode: 500}},
	}}

	m := NewMiner("crab-1", "key", client, NewBuilder("mbc-20", "CLAW", "100"), fastSchedule(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	// Let a few iterations happen, then stop.
	deadline := time.After(2 * time.Second)
	for client.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("miner made only %d attempts", client.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("miner did not stop after cancel")
	}
}

func TestMiner_SuccessThenSleep(t *testing.T) {
	client := &fakeClient{results: []fakeResult{
		{res: &moltbook.PostResult{Success: true, Post: &moltbook.Post{ID: "p1"}}},
	}}

	sched := fastSchedule()
	sched.SuccessSleep = time.Hour // iteration 2 should never happen

	m := NewMiner("crab-1", "key", client, NewBuilder("mbc-20", "CLAW", "100"), sched, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for client.calls.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("miner never attempted")
		case <-time.After(time.Millisecond):
		}
	}

	// Give the loop a moment; it must be parked in the cooldown sleep.
	time.Sleep(20 * time.Millisecond)
	if got := client.calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt before cooldown, got %d", got)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("miner did not stop during cooldown sleep")
	}
}

func TestMiner_RateLimitHintHonored(t *testing.T) {
	hint := &moltbook.APIError{
		Code:              moltbook.ErrorCodeRateLimit,
		StatusCode:        http.StatusTooManyRequests,
		RetryAfterSeconds: 3600,
	}
	client := &fakeClient{results: []fakeResult{{err: hint}}}

	m := NewMiner("crab-1", "key", client, NewBuilder("mbc-20", "CLAW", "100"), fastSchedule(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for client.calls.Load() < 1 {
		select {
		case <-deadline:
			t.Fatal("miner never attempted")
		case <-time.After(time.Millisecond):
		}
	}

	// Server said an hour; no second attempt should fire.
	time.Sleep(20 * time.Millisecond)
	if got := client.calls.Load(); got != 1 {
		t.Errorf("expected 1 attempt while honoring retry hint, got %d", got)
	}
}

func TestSleepCtx_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := sleepCtx(ctx, time.Hour); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
