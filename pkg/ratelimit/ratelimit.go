// Package ratelimit provides per-agent request pacing.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter provides rate limiting functionality
type Limiter struct {
	globalLimiter *rate.Limiter
	agentLimiters map[string]*rate.Limiter
	mu            sync.RWMutex

	// Configuration
	requestsPerSecond float64
	burst             int
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		globalLimiter:     rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
		agentLimiters:     make(map[string]*rate.Limiter),
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
	}
}

// Wait blocks until a request can be made
func (l *Limiter) Wait(ctx context.Context, agent string) error {
	if err := l.globalLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("global rate limit: %w", err)
	}

	if err := l.getAgentLimiter(agent).Wait(ctx); err != nil {
		return fmt.Errorf("agent rate limit: %w", err)
	}

	return nil
}

// getAgentLimiter gets or creates a rate limiter for a specific agent
func (l *Limiter) getAgentLimiter(agent string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.agentLimiters[agent]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.agentLimiters[agent]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(l.requestsPerSecond), l.burst)
	l.agentLimiters[agent] = limiter
	return limiter
}
