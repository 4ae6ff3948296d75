package recovery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mbc20/clawmint/internal/indexer"
)

// fakeSync records which agents were synced and can fail selected ones.
type fakeSync struct {
	mu     sync.Mutex
	seen   []string
	failOn map[string]error
}

func (f *fakeSync) IndexAgent(ctx context.Context, name string) (*indexer.SyncResult, error) {
	f.mu.Lock()
	f.seen = append(f.seen, name)
	f.mu.Unlock()

	if err, ok := f.failOn[name]; ok {
		return nil, err
	}
	return &indexer.SyncResult{Success: true, Indexed: 1, TotalPosts: 10}, nil
}

func (f *fakeSync) agents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.seen...)
}

func TestSweep_VisitsAllAgents(t *testing.T) {
	client := &fakeSync{}
	l := NewLoop(client, []string{"a", "b", "c"}, time.Minute, time.Millisecond)

	l.Sweep(context.Background())

	seen := client.agents()
	if len(seen) != 3 || seen[0] != "a" || seen[1] != "b" || seen[2] != "c" {
		t.Errorf("unexpected sweep order: %v", seen)
	}
}

func TestSweep_ContinuesPastFailures(t *testing.T) {
	client := &fakeSync{failOn: map[string]error{"b": errors.New("boom")}}
	l := NewLoop(client, []string{"a", "b", "c"}, time.Minute, time.Millisecond)

	l.Sweep(context.Background())

	if got := len(client.agents()); got != 3 {
		t.Errorf("sweep stopped early: visited %d agents", got)
	}
}

func TestSweep_StopsOnCancel(t *testing.T) {
	client := &fakeSync{}
	l := NewLoop(client, []string{"a", "b", "c"}, time.Minute, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Sweep(ctx)
		close(done)
	}()

	// Wait for the first agent, then cancel during the stagger pause.
	deadline := time.After(2 * time.Second)
	for len(client.agents()) < 1 {
		select {
		case <-deadline:
			t.Fatal("sweep never started")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not stop on cancel")
	}

	if got := len(client.agents()); got != 1 {
		t.Errorf("expected 1 visit before cancel, got %d", got)
	}
}

func TestRun_InitialSweepAndShutdown(t *testing.T) {
	client := &fakeSync{}
	l := NewLoop(client, []string{"a"}, time.Hour, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(client.agents()) < 1 {
		select {
		case <-deadline:
			t.Fatal("initial sweep never ran")
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
		t.Fatal("loop did not stop on cancel")
	}
}
