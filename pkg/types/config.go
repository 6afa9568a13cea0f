// Package types defines core configuration for the eventcore library
package types

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrorHandler defines a dispatch-failure handling function. It receives the
// wrapped dispatch error and returns nil when the error has been contained,
// or a non-nil error to have it logged by the worker.
type ErrorHandler func(error) error

// Config defines registry configuration
type Config struct {
	// Workers is the number of workers in the registry. Fixed for the
	// lifetime of the registry; no resizing.
	Workers int

	// MailboxSize is the bounded capacity of each worker's mailbox. A full
	// mailbox makes Post fail, never block.
	MailboxSize int

	// StopTimeout is how long Shutdown waits for worker loops to join.
	StopTimeout time.Duration

	// Clock provides time operations (for testing)
	Clock Clock

	// Logger receives loop and lifecycle events. Defaults to a no-op logger.
	Logger *zap.Logger

	// ErrorHandler contains dispatch failures. Defaults to log-and-continue.
	ErrorHandler ErrorHandler
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:     4,
		MailboxSize: 128,
		StopTimeout: 10 * time.Second,
		Clock:       NewRealClock(),
		Logger:      zap.NewNop(),
	}
}

// Validate checks the configuration. An invalid worker count or mailbox
// capacity aborts registry construction; the registry never runs with a
// partial pool.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("worker count must be positive, got %d", c.Workers)
	}
	if c.MailboxSize <= 0 {
		return fmt.Errorf("mailbox size must be positive, got %d", c.MailboxSize)
	}
	if c.StopTimeout <= 0 {
		return fmt.Errorf("stop timeout must be positive, got %v", c.StopTimeout)
	}
	return nil
}
