// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrMailboxFull indicates the target worker's mailbox had no capacity
	// left. Recoverable; the caller decides whether to drop or retry.
	ErrMailboxFull = errors.New("worker mailbox is full")

	// ErrWorkerStopped indicates the target worker no longer accepts
	// messages.
	ErrWorkerStopped = errors.New("worker is stopped")

	// ErrUnknownMessageKind indicates a message kind outside the closed
	// enumeration.
	ErrUnknownMessageKind = errors.New("unknown message kind")

	// ErrMalformedMessage indicates a protocol violation on a mailbox, such
	// as a call message whose first argument is not a CallFunc. Fatal to the
	// owning worker only.
	ErrMalformedMessage = errors.New("malformed message")

	// ErrRegistryClosed indicates the registry has been closed.
	ErrRegistryClosed = errors.New("registry is closed")

	// ErrRegistryRunning indicates the registry is already running.
	ErrRegistryRunning = errors.New("registry is already running")

	// ErrRegistryNotStarted indicates the registry has not been started.
	ErrRegistryNotStarted = errors.New("registry is not started")

	// ErrStopTimeout indicates workers did not join within the configured
	// stop timeout.
	ErrStopTimeout = errors.New("timeout waiting for workers to stop")
)

// DispatchError wraps a failure raised while a worker dispatched a message.
type DispatchError struct {
	// WorkerID is the id of the worker that dispatched the message.
	WorkerID int

	// Kind is the kind of the message being dispatched.
	Kind MessageKind

	// Cause is the underlying error.
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch error on worker %d for %s message: %v", e.WorkerID, e.Kind, e.Cause)
}

// Unwrap returns the underlying error
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *DispatchError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewDispatchError creates a new dispatch error
func NewDispatchError(workerID int, kind MessageKind, cause error) *DispatchError {
	return &DispatchError{
		WorkerID: workerID,
		Kind:     kind,
		Cause:    cause,
		Context:  make(map[string]interface{}),
	}
}

// WithContext adds error context
func (e *DispatchError) WithContext(key string, value interface{}) *DispatchError {
	e.Context[key] = value
	return e
}

// IsRetryable reports whether a failed post is worth retrying. Only capacity
// exhaustion is transient; state errors are terminal.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrMailboxFull)
}
