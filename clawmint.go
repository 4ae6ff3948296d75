// Package clawmint wires the mint swarm together: roster, Moltbook and
// indexer clients, per-agent mint loops, and the shared recovery loop.
package clawmint

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mbc20/clawmint/internal/indexer"
	"github.com/mbc20/clawmint/internal/mint"
	"github.com/mbc20/clawmint/internal/moltbook"
	tracing "github.com/mbc20/clawmint/internal/observability"
	"github.com/mbc20/clawmint/internal/recovery"
	"github.com/mbc20/clawmint/internal/roster"
	"github.com/mbc20/clawmint/internal/swarm"
	"github.com/mbc20/clawmint/pkg/config"
	"github.com/mbc20/clawmint/pkg/observability"
	"github.com/mbc20/clawmint/pkg/ratelimit"
)

// Run loads configuration and runs the swarm until ctx is canceled.
// An empty configPath runs on defaults.
func Run(ctx context.Context, configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return RunWithConfig(ctx, cfg)
}

// RunWithConfig runs the swarm with the provided config until ctx is
// canceled.
func RunWithConfig(ctx context.Context, cfg *config.Config) error {
	if err := tracing.InitFromEnv(cfg.Runtime.TraceExporter); err != nil {
		log.Printf("Warning: failed to initialize tracing: %v", err)
		// Minting works fine without traces
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			log.Printf("Warning: tracing shutdown: %v", err)
		}
	}()

	r, err := roster.Load(cfg.AgentsFile)
	if err != nil {
		if errors.Is(err, roster.ErrCreatedTemplate) {
			return fmt.Errorf("edit %s and restart: %w", cfg.AgentsFile, err)
		}
		return err
	}

	mb := moltbook.NewClient(cfg.MoltbookBaseURL)

	for _, a := range r.Agents {
		if a.IsPlaceholder() {
			log.Printf("Skipping placeholder agent %q. Please edit %s.", a.Name, cfg.AgentsFile)
		}
	}

	RegisterPending(ctx, mb, r)

	agents := r.Valid()
	if len(agents) == 0 {
		return fmt.Errorf("no valid agents in %s", cfg.AgentsFile)
	}

	observability.SetRegisteredAgents(len(agents))
	observability.GetHealthChecker().RegisterCheck(observability.RosterCheck(func() int {
		return len(agents)
	}))
	observability.GetHealthChecker().RegisterCheck(observability.ExternalServiceCheck("moltbook", mb.Ping))

	log.Printf("Starting mint swarm with %d agent(s)...", len(agents))

	sw, err := buildSwarm(cfg, mb, agents)
	if err != nil {
		return err
	}

	if err := sw.Start(ctx); err != nil {
		return err
	}
	observability.SetActiveMiners(len(agents))

	err = sw.Wait()
	observability.SetActiveMiners(0)
	return err
}

// buildSwarm assembles one miner loop per agent plus the shared recovery
// loop.
func buildSwarm(cfg *config.Config, mb *moltbook.Client, agents []roster.Agent) (*swarm.Swarm, error) {
	limiter := ratelimit.NewLimiter(cfg.Runtime.RequestsPerSecond, cfg.Runtime.Burst)
	schedule := mint.NewSchedule(cfg.Schedule)
	builder := mint.NewBuilder(cfg.Submolt, cfg.Tick, cfg.MintAmount)

	sw := swarm.New()

	names := make([]string, 0, len(agents))
	for _, a := range agents {
		names = append(names, a.Name)
		miner := mint.NewMiner(a.Name, a.APIKey, mb, builder, schedule, limiter)
		if err := sw.Register(miner); err != nil {
			return nil, err
		}
	}

	idx := indexer.NewClient(cfg.IndexerBaseURL)
	rec := recovery.NewLoop(idx, names, cfg.Recovery.Interval.Std(), cfg.Recovery.Stagger.Std())
	if err := sw.Register(rec); err != nil {
		return nil, err
	}

	return sw, nil
}
