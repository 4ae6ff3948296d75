// Package mint implements the per-agent mint loop: one request per
// iteration, outcome classification, and the sleep schedule between
// attempts.
package mint

import (
	"context"
	"log"
	"time"

	"github.com/mbc20/clawmint/internal/moltbook"
	tracing "github.com/mbc20/clawmint/internal/observability"
	"github.com/mbc20/clawmint/pkg/observability"
	"github.com/mbc20/clawmint/pkg/ratelimit"
)

// PostClient is the slice of the Moltbook API the miner needs.
type PostClient interface {
	CreatePost(ctx context.Context, apiKey string, post moltbook.PostRequest) (*moltbook.PostResult, error)
}

// Miner runs the mint loop for a single agent.
type Miner struct {
	name     string
	apiKey   string
	client   PostClient
	builder  *Builder
	schedule *Schedule
	limiter  *ratelimit.Limiter
}

// NewMiner creates a miner for one agent.
func NewMiner(name, apiKey string, client PostClient, builder *Builder, schedule *Schedule, limiter *ratelimit.Limiter) *Miner {
	return &Miner{
		name:     name,
		apiKey:   apiKey,
		client:   client,
		builder:  builder,
		schedule: schedule,
		limiter:  limiter,
	}
}

// Name returns the agent name this miner mints for.
func (m *Miner) Name() string {
	return m.name
}

// Run executes the mint loop until the context is canceled.
func (m *Miner) Run(ctx context.Context) error {
	for {
		if m.limiter != nil {
			if err := m.limiter.Wait(ctx, m.name); err != nil {
				return err
			}
		}

		outcome, hint := m.attempt(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sleep := m.schedule.Next(outcome, hint)
		observability.RecordMintSleep(m.name, outcome.String(), sleep)

		switch outcome {
		case OutcomeSuccess:
			log.Printf("[%s] Mint landed. Sleeping %s (cooldown)...", m.name, sleep)
		case OutcomeRateLimited:
			log.Printf("[%s] Rate limited. Sleeping %s...", m.name, sleep)
		default:
			log.Printf("[%s] Unknown error. Retrying in %s...", m.name, sleep)
		}

		if err := sleepCtx(ctx, sleep); err != nil {
			return err
		}
	}
}

// attempt fires one mint request and classifies the response.
func (m *Miner) attempt(ctx context.Context) (Outcome, *moltbook.APIError) {
	spanCtx, span := tracing.StartSpan(ctx, "mint.attempt", map[string]any{
		"agent": m.name,
	})
	defer span.End()

	post := m.builder.Build()
	log.Printf("[%s] Submitting mint post %q", m.name, post.Title)

	start := time.Now()
	res, err := m.client.CreatePost(spanCtx, m.apiKey, post)
	duration := time.Since(start)

	outcome, hint := Classify(res, err)
	span.SetAttribute("outcome", outcome.String())
	if err != nil {
		span.SetError(err)
	}
	observability.RecordMintAttempt(m.name, outcome.String(), duration)

	switch outcome {
	case OutcomeSuccess:
		if res.Post != nil {
			log.Printf("[%s] [SUCCESS] Post ID: %s", m.name, res.Post.ID)
		} else {
			log.Printf("[%s] [SUCCESS] Post accepted", m.name)
		}
	case OutcomeRateLimited:
		if hint.RetryAfterSeconds > 0 {
			log.Printf("[%s] Rate limited. Server says wait %ds.", m.name, hint.RetryAfterSeconds)
		} else if hint.RetryAfterMinutes > 0 {
			log.Printf("[%s] Rate limited. Wait %d mins.", m.name, hint.RetryAfterMinutes)
		} else {
			log.Printf("[%s] Rate limited. No retry hint from server.", m.name)
		}
	default:
		if err != nil {
			log.Printf("[%s] Request failed: %v", m.name, err)
		}
	}

	return outcome, hint
}

// sleepCtx sleeps for d or until the context is canceled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
