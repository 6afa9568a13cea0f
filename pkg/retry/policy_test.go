package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jzx17/eventcore/pkg/types"
)

func TestDefaultCondition(t *testing.T) {
	assert.False(t, DefaultCondition(nil))
	assert.True(t, DefaultCondition(types.ErrMailboxFull))
	assert.False(t, DefaultCondition(types.ErrWorkerStopped))
	assert.False(t, DefaultCondition(types.ErrRegistryClosed))
	assert.False(t, DefaultCondition(context.Canceled))
	assert.False(t, DefaultCondition(context.DeadlineExceeded))

	wrapped := types.NewDispatchError(0, types.KindPing, types.ErrMailboxFull)
	assert.True(t, DefaultCondition(wrapped))
}

func TestFixedDelay(t *testing.T) {
	p := NewFixedDelay(3, 100*time.Millisecond)

	assert.Equal(t, 3, p.MaxAttempts())
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(5))

	assert.True(t, p.ShouldRetry(types.ErrMailboxFull, 1))
	assert.True(t, p.ShouldRetry(types.ErrMailboxFull, 2))
	assert.False(t, p.ShouldRetry(types.ErrMailboxFull, 3))
	assert.False(t, p.ShouldRetry(types.ErrWorkerStopped, 1))
}

func TestExponentialBackoff(t *testing.T) {
	p := NewExponentialBackoff(5, 100*time.Millisecond)

	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 400*time.Millisecond, p.NextDelay(3))
	assert.Equal(t, 800*time.Millisecond, p.NextDelay(4))

	// delays saturate at the cap
	assert.Equal(t, 30*time.Second, p.NextDelay(20))

	// attempts below one are normalized
	assert.Equal(t, 100*time.Millisecond, p.NextDelay(0))
}

func TestLinearBackoff(t *testing.T) {
	p := NewLinearBackoff(5, 100*time.Millisecond, 50*time.Millisecond)

	assert.Equal(t, 100*time.Millisecond, p.NextDelay(1))
	assert.Equal(t, 150*time.Millisecond, p.NextDelay(2))
	assert.Equal(t, 200*time.Millisecond, p.NextDelay(3))
}

func TestWithCondition(t *testing.T) {
	sentinel := errors.New("transient")
	p := NewFixedDelay(3, time.Millisecond, WithCondition(func(err error) bool {
		return errors.Is(err, sentinel)
	}))

	assert.True(t, p.ShouldRetry(sentinel, 1))
	assert.False(t, p.ShouldRetry(types.ErrMailboxFull, 1))
}

func TestWithJitter(t *testing.T) {
	base := 100 * time.Millisecond
	p := NewFixedDelay(3, base, WithJitter(0.5))

	for i := 0; i < 20; i++ {
		d := p.NextDelay(1)
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}
