// Package swarm runs the per-agent mint loops and the shared recovery loop
// concurrently and shuts them down together.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Loop is a long-running worker owned by the swarm. Run blocks until the
// context is canceled or the loop hits a fatal error.
type Loop interface {
	Name() string
	Run(ctx context.Context) error
}

// Swarm coordinates independent loops. Loops do not talk to each other; a
// loop that fails is logged and dropped without affecting its siblings.
type Swarm struct {
	mu      sync.RWMutex
	loops   []Loop
	names   map[string]struct{}
	started bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// New creates an empty swarm.
func New() *Swarm {
	return &Swarm{
		names: make(map[string]struct{}),
	}
}

// Register adds a loop to the swarm.
func (s *Swarm) Register(l Loop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("swarm already started")
	}

	name := l.Name()
	if _, exists := s.names[name]; exists {
		return fmt.Errorf("loop %s already registered", name)
	}

	s.names[name] = struct{}{}
	s.loops = append(s.loops, l)
	return nil
}

// Len returns the number of registered loops.
func (s *Swarm) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.loops)
}

// Start launches every registered loop in its own goroutine.
func (s *Swarm) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("swarm already started")
	}
	if len(s.loops) == 0 {
		return fmt.Errorf("no loops registered")
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	s.group = group

	for _, l := range s.loops {
		l := l
		group.Go(func() error {
			log.Printf("[Swarm] Starting loop %s", l.Name())
			err := l.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				// A crashed loop must not take its siblings down.
				log.Printf("[Swarm] Loop %s exited: %v", l.Name(), err)
			}
			return nil
		})
	}

	return nil
}

// Wait blocks until every loop has returned.
func (s *Swarm) Wait() error {
	s.mu.RLock()
	group := s.group
	s.mu.RUnlock()

	if group == nil {
		return fmt.Errorf("swarm not started")
	}
	return group.Wait()
}

// Stop cancels all loops and waits for them to finish, honoring ctx as a
// shutdown deadline.
func (s *Swarm) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	group := s.group
	s.started = false
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan error, 1)
	go func() {
		done <- group.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("swarm shutdown timed out: %w", ctx.Err())
	}
}
