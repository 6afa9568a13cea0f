package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchError(t *testing.T) {
	cause := errors.New("handler blew up")
	err := NewDispatchError(3, KindCall, cause)

	assert.Contains(t, err.Error(), "worker 3")
	assert.Contains(t, err.Error(), "call")
	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestDispatchError_WithContext(t *testing.T) {
	err := NewDispatchError(0, KindPing, ErrMalformedMessage).
		WithContext("arg1", "string")

	assert.Equal(t, "string", err.Context["arg1"])
	assert.True(t, errors.Is(err, ErrMalformedMessage))
}

func TestDispatchError_Wrapped(t *testing.T) {
	err := fmt.Errorf("loop: %w", NewDispatchError(1, KindCall, ErrMalformedMessage))

	var de *DispatchError
	assert.True(t, errors.As(err, &de))
	assert.Equal(t, 1, de.WorkerID)
	assert.True(t, errors.Is(err, ErrMalformedMessage))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrMailboxFull))
	assert.True(t, IsRetryable(fmt.Errorf("post: %w", ErrMailboxFull)))
	assert.False(t, IsRetryable(ErrWorkerStopped))
	assert.False(t, IsRetryable(ErrRegistryClosed))
	assert.False(t, IsRetryable(nil))
}
