// Package recovery periodically nudges the mbc20 indexer to pick up posts
// it has not recorded yet ("Missing a mint?" handled automatically).
package recovery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mbc20/clawmint/internal/indexer"
	tracing "github.com/mbc20/clawmint/internal/observability"
	"github.com/mbc20/clawmint/pkg/observability"
)

// SyncClient is the slice of the indexer API the loop needs.
type SyncClient interface {
	IndexAgent(ctx context.Context, name string) (*indexer.SyncResult, error)
}

// Loop sweeps all agents through the indexer on a fixed cadence.
type Loop struct {
	client   SyncClient
	agents   []string
	interval time.Duration
	stagger  time.Duration
}

// NewLoop creates a recovery loop for the given agents.
func NewLoop(client SyncClient, agents []string, interval, stagger time.Duration) *Loop {
	return &Loop{
		client:   client,
		agents:   agents,
		interval: interval,
		stagger:  stagger,
	}
}

// Name identifies the loop in swarm logs.
func (l *Loop) Name() string {
	return "RECOVERY"
}

// Run performs an immediate sweep, then repeats on the configured cadence
// until the context is canceled. A sweep that overruns the interval is not
// run concurrently with the next one.
func (l *Loop) Run(ctx context.Context) error {
	log.Printf("[RECOVERY] Starting indexer recovery loop (every %s)...", l.interval)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(fmt.Sprintf("@every %s", l.interval), func() {
		l.Sweep(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule recovery sweep: %w", err)
	}

	c.Start()
	defer func() {
		stopCtx := c.Stop()
		<-stopCtx.Done()
	}()

	l.Sweep(ctx)

	<-ctx.Done()
	return ctx.Err()
}

// Sweep walks every agent once, with a stagger between calls so the indexer
// is not hammered.
func (l *Loop) Sweep(ctx context.Context) {
	spanCtx, span := tracing.StartSpan(ctx, "recovery.sweep", map[string]any{
		"agents": len(l.agents),
	})
	defer span.End()

	for i, name := range l.agents {
		if ctx.Err() != nil {
			return
		}

		res, err := l.client.IndexAgent(spanCtx, name)
		switch {
		case err != nil && res != nil:
			observability.RecordIndexerSync(name, "sync_failed", 0)
			log.Printf("[RECOVERY] [%s] Sync failed: %s", name, res.Raw)
		case err != nil:
			observability.RecordIndexerSync(name, "error", 0)
			span.SetError(err)
			log.Printf("[RECOVERY] [%s] Error: %v", name, err)
		default:
			observability.RecordIndexerSync(name, "ok", res.Indexed)
			log.Printf("[RECOVERY] [%s] Sync OK. Total: %d, New Indexed: %d", name, res.TotalPosts, res.Indexed)
		}

		// No pause after the last agent in a sweep.
		if i < len(l.agents)-1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.stagger):
			}
		}
	}
}
