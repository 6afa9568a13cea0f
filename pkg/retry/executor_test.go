package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jzx17/eventcore/internal/testutils"
	"github.com/jzx17/eventcore/pkg/types"
)

// fakePoster fails with err for the first failures calls, then succeeds.
type fakePoster struct {
	failures int
	err      error
	calls    int
}

func (p *fakePoster) Post(kind types.MessageKind, arg1, arg2 any) error {
	p.calls++
	if p.calls <= p.failures {
		return p.err
	}
	return nil
}

func TestExecutor_PostSucceedsFirstAttempt(t *testing.T) {
	exec := NewExecutor(NewFixedDelay(3, time.Millisecond))
	poster := &fakePoster{}

	err := exec.Post(context.Background(), poster, types.KindPing, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, poster.calls)

	stats := exec.GetStats()
	assert.Equal(t, int64(1), stats.TotalAttempts)
	assert.Equal(t, int64(1), stats.TotalSuccesses)
	assert.Equal(t, int64(0), stats.TotalRetries)
}

func TestExecutor_RetriesMailboxFull(t *testing.T) {
	exec := NewExecutor(NewFixedDelay(5, time.Millisecond))
	poster := &fakePoster{failures: 2, err: types.ErrMailboxFull}

	err := exec.Post(context.Background(), poster, types.KindPing, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, poster.calls)

	stats := exec.GetStats()
	assert.Equal(t, int64(3), stats.TotalAttempts)
	assert.Equal(t, int64(1), stats.TotalSuccesses)
	assert.Equal(t, int64(1), stats.TotalRetries)
}

func TestExecutor_StoppedWorkerIsTerminal(t *testing.T) {
	exec := NewExecutor(NewFixedDelay(5, time.Millisecond))
	poster := &fakePoster{failures: 10, err: types.ErrWorkerStopped}

	err := exec.Post(context.Background(), poster, types.KindPing, nil, nil)
	assert.ErrorIs(t, err, types.ErrWorkerStopped)
	assert.Equal(t, 1, poster.calls)

	stats := exec.GetStats()
	assert.Equal(t, int64(1), stats.TotalFailures)
}

func TestExecutor_ExhaustsAttempts(t *testing.T) {
	exec := NewExecutor(NewFixedDelay(3, time.Millisecond))
	poster := &fakePoster{failures: 10, err: types.ErrMailboxFull}

	err := exec.Post(context.Background(), poster, types.KindPing, nil, nil)
	assert.ErrorIs(t, err, types.ErrMailboxFull)
	assert.Equal(t, 3, poster.calls)
}

func TestExecutor_ContextCancelled(t *testing.T) {
	exec := NewExecutor(NewFixedDelay(100, 10*time.Millisecond))
	poster := &fakePoster{failures: 1000, err: types.ErrMailboxFull}

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	err := exec.Post(ctx, poster, types.KindPing, nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExecutor_DelaysUnderMockClock(t *testing.T) {
	ctx := context.Background()
	mock := testutils.NewMockClock(t)
	clock := testutils.NewClockWrapper(mock)

	trap := mock.Trap().NewTimer()
	defer trap.Close()

	exec := NewExecutor(NewFixedDelay(3, time.Second), WithClock(clock))
	poster := &fakePoster{failures: 10, err: types.ErrMailboxFull}

	errs := make(chan error, 1)
	go func() {
		errs <- exec.Post(ctx, poster, types.KindPing, nil, nil)
	}()

	// two retries, each parked on a one second timer
	for i := 0; i < 2; i++ {
		call := trap.MustWait(ctx)
		call.Release(ctx)
		mock.Advance(time.Second).MustWait(ctx)
	}

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, types.ErrMailboxFull)
	case <-time.After(time.Second):
		t.Fatal("executor did not finish")
	}

	assert.Equal(t, 3, poster.calls)
	assert.Equal(t, 2*time.Second, exec.GetStats().TotalDelay)
}

func TestExecutor_DoPropagatesFnError(t *testing.T) {
	exec := NewExecutor(NewFixedDelay(3, 0))

	calls := 0
	err := exec.Do(context.Background(), func() error {
		calls++
		return types.ErrRegistryClosed
	})
	assert.ErrorIs(t, err, types.ErrRegistryClosed)
	assert.Equal(t, 1, calls)
}
