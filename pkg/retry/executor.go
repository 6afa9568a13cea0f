// Package retry provides retry executor implementation
package retry

import (
	"context"
	"sync"
	"time"

	"github.com/jzx17/eventcore/pkg/types"
)

// Poster is the posting surface the executor retries against. *worker.Worker
// satisfies it.
type Poster interface {
	Post(kind types.MessageKind, arg1, arg2 any) error
}

// Executor re-attempts failed posts under a policy
type Executor struct {
	policy Policy
	clock  types.Clock
	stats  Stats
}

// Stats contains retry statistics
type Stats struct {
	TotalAttempts  int64
	TotalRetries   int64
	TotalSuccesses int64
	TotalFailures  int64
	LastRetryTime  time.Time
	TotalDelay     time.Duration
	mu             sync.RWMutex
}

// NewExecutor creates a retry executor
func NewExecutor(policy Policy, opts ...ExecutorOption) *Executor {
	e := &Executor{
		policy: policy,
		clock:  types.NewRealClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Post posts a message, retrying under the executor's policy until it is
// enqueued, the policy gives up, or the context is cancelled. The final error
// is the last post failure.
func (e *Executor) Post(ctx context.Context, p Poster, kind types.MessageKind, arg1, arg2 any) error {
	return e.Do(ctx, func() error {
		return p.Post(kind, arg1, arg2)
	})
}

// Do executes fn with retry logic
func (e *Executor) Do(ctx context.Context, fn func() error) error {
	attempt := 0
	for {
		attempt++
		e.updateStats(func(s *Stats) {
			s.TotalAttempts++
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			e.updateStats(func(s *Stats) {
				s.TotalSuccesses++
				if attempt > 1 {
					s.TotalRetries++
				}
			})
			return nil
		}

		if !e.policy.ShouldRetry(err, attempt) {
			e.updateStats(func(s *Stats) {
				s.TotalFailures++
				if attempt > 1 {
					s.TotalRetries++
				}
			})
			return err
		}

		delay := e.policy.NextDelay(attempt)
		e.updateStats(func(s *Stats) {
			s.LastRetryTime = e.clock.Now()
			s.TotalDelay += delay
		})

		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.clock.After(delay):
			}
		}
	}
}

// GetStats gets retry statistics
func (e *Executor) GetStats() Stats {
	e.stats.mu.RLock()
	defer e.stats.mu.RUnlock()
	return Stats{
		TotalAttempts:  e.stats.TotalAttempts,
		TotalRetries:   e.stats.TotalRetries,
		TotalSuccesses: e.stats.TotalSuccesses,
		TotalFailures:  e.stats.TotalFailures,
		LastRetryTime:  e.stats.LastRetryTime,
		TotalDelay:     e.stats.TotalDelay,
		// don't copy mutex
	}
}

// updateStats updates statistics (thread-safe)
func (e *Executor) updateStats(fn func(*Stats)) {
	e.stats.mu.Lock()
	defer e.stats.mu.Unlock()
	fn(&e.stats)
}

// ExecutorOption is a configuration option for retry executor
type ExecutorOption func(*Executor)

// WithClock sets the clock for time operations
func WithClock(clock types.Clock) ExecutorOption {
	return func(e *Executor) {
		e.clock = clock
	}
}
