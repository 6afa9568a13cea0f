// Package errors provides containment strategies for dispatch failures
package errors

import (
	"go.uber.org/zap"

	"github.com/jzx17/eventcore/pkg/types"
)

// Strategy decides what happens to a dispatch failure inside a worker loop.
type Strategy interface {
	// Handle handles the error, returning nil if contained or the error to
	// have the worker log it
	Handle(err error) error

	// Name returns the name of the strategy
	Name() string
}

// FailFast surfaces every dispatch failure to the worker's log.
type FailFast struct{}

// NewFailFast creates a fail-fast strategy
func NewFailFast() *FailFast {
	return &FailFast{}
}

// Handle implements the Strategy interface
func (s *FailFast) Handle(err error) error {
	return err
}

// Name returns the strategy name
func (s *FailFast) Name() string {
	return "FailFast"
}

// ContinueOnError swallows dispatch failures, optionally logging them itself.
type ContinueOnError struct {
	logger *zap.Logger
}

// NewContinueOnError creates a continue-on-error strategy. A nil logger
// silences the swallowed failures entirely.
func NewContinueOnError(logger *zap.Logger) *ContinueOnError {
	return &ContinueOnError{logger: logger}
}

// Handle implements the Strategy interface
func (s *ContinueOnError) Handle(err error) error {
	if s.logger != nil {
		if de, ok := err.(*types.DispatchError); ok {
			s.logger.Warn("ignored dispatch failure",
				zap.Int("worker_id", de.WorkerID),
				zap.Stringer("kind", de.Kind),
				zap.Error(de.Cause))
		} else {
			s.logger.Warn("ignored dispatch failure", zap.Error(err))
		}
	}
	return nil
}

// Name returns the strategy name
func (s *ContinueOnError) Name() string {
	return "ContinueOnError"
}

// AsHandler adapts a strategy to the types.ErrorHandler function shape used
// by registry configuration.
func AsHandler(s Strategy) types.ErrorHandler {
	return s.Handle
}
