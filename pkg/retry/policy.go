// Package retry provides caller-side retry policies for failed posts.
//
// A post that fails with types.ErrMailboxFull is never retried by the worker
// core; whether to drop or retry is the poster's decision. This package
// implements that decision as reusable policies plus an executor.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/jzx17/eventcore/pkg/types"
)

// Policy defines the retry strategy interface
type Policy interface {
	// ShouldRetry determines whether to retry
	ShouldRetry(err error, attempt int) bool

	// NextDelay returns the delay for the next retry
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum retry attempts
	MaxAttempts() int
}

// Condition is a function that determines retry conditions
type Condition func(error) bool

// DefaultCondition retries only transient post failures. Mailbox exhaustion
// is transient; stopped workers and closed registries are terminal.
func DefaultCondition(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return types.IsRetryable(err)
}

// basePolicy provides common retry functionality
type basePolicy struct {
	maxAttempts  int
	condition    Condition
	jitter       bool
	jitterFactor float64
	mu           sync.RWMutex
}

func newBasePolicy(maxAttempts int, opts ...Option) *basePolicy {
	p := &basePolicy{
		maxAttempts:  maxAttempts,
		condition:    DefaultCondition,
		jitterFactor: 0.1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ShouldRetry determines whether to retry
func (p *basePolicy) ShouldRetry(err error, attempt int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if attempt >= p.maxAttempts {
		return false
	}
	return p.condition(err)
}

// MaxAttempts returns the maximum retry attempts
func (p *basePolicy) MaxAttempts() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.maxAttempts
}

// applyJitter applies jitter to delay
func (p *basePolicy) applyJitter(delay time.Duration) time.Duration {
	if !p.jitter {
		return delay
	}

	jitterRange := float64(delay) * p.jitterFactor
	jitterAmount := (rand.Float64() - 0.5) * 2 * jitterRange

	result := delay + time.Duration(jitterAmount)
	if result < 0 {
		result = delay / 2
	}
	return result
}

// FixedDelay implements fixed delay retry strategy
type FixedDelay struct {
	*basePolicy
	delay time.Duration
}

// NewFixedDelay creates a fixed delay retry policy
func NewFixedDelay(maxAttempts int, delay time.Duration, opts ...Option) *FixedDelay {
	return &FixedDelay{
		basePolicy: newBasePolicy(maxAttempts, opts...),
		delay:      delay,
	}
}

// NextDelay returns the delay for the next retry
func (p *FixedDelay) NextDelay(attempt int) time.Duration {
	return p.applyJitter(p.delay)
}

// ExponentialBackoff implements exponential backoff retry strategy
type ExponentialBackoff struct {
	*basePolicy
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
}

// NewExponentialBackoff creates an exponential backoff retry policy
func NewExponentialBackoff(maxAttempts int, initialDelay time.Duration, opts ...Option) *ExponentialBackoff {
	return &ExponentialBackoff{
		basePolicy:   newBasePolicy(maxAttempts, opts...),
		initialDelay: initialDelay,
		multiplier:   2.0,
		maxDelay:     30 * time.Second,
	}
}

// NextDelay returns the delay for the next retry
func (p *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	delay := time.Duration(float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt-1)))
	if delay > p.maxDelay {
		delay = p.maxDelay
	}
	return p.applyJitter(delay)
}

// LinearBackoff implements linear backoff retry strategy
type LinearBackoff struct {
	*basePolicy
	initialDelay time.Duration
	increment    time.Duration
	maxDelay     time.Duration
}

// NewLinearBackoff creates a linear backoff retry policy
func NewLinearBackoff(maxAttempts int, initialDelay, increment time.Duration, opts ...Option) *LinearBackoff {
	return &LinearBackoff{
		basePolicy:   newBasePolicy(maxAttempts, opts...),
		initialDelay: initialDelay,
		increment:    increment,
		maxDelay:     30 * time.Second,
	}
}

// NextDelay returns the delay for the next retry
func (p *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	delay := p.initialDelay + time.Duration(attempt-1)*p.increment
	if delay > p.maxDelay {
		delay = p.maxDelay
	}
	return p.applyJitter(delay)
}

// Option is a configuration option for retry policies
type Option func(*basePolicy)

// WithCondition sets the retry condition
func WithCondition(condition Condition) Option {
	return func(p *basePolicy) {
		p.condition = condition
	}
}

// WithJitter enables jitter
func WithJitter(factor float64) Option {
	return func(p *basePolicy) {
		p.jitter = true
		if factor > 0 && factor <= 1.0 {
			p.jitterFactor = factor
		}
	}
}
