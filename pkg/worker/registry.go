package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	interrors "github.com/jzx17/eventcore/internal/errors"
	"github.com/jzx17/eventcore/pkg/types"
)

// Registry owns a fixed set of workers. Membership is established once at
// construction and never changes: ids run 0..Workers-1, are assigned once and
// never reused, and the worker slice is never mutated after New returns, so
// unsynchronized concurrent reads are safe.
type Registry struct {
	config  *types.Config
	workers []*Worker

	// state management
	state     int32 // 0: created, 1: running, 2: closed
	ctx       context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group
	closeOnce sync.Once

	logger *zap.Logger
}

const (
	registryCreated int32 = iota
	registryRunning
	registryClosed
)

// New creates a registry from the configuration. An invalid configuration
// aborts construction; the registry never runs with a partial pool.
func New(config *types.Config) (*Registry, error) {
	if config == nil {
		config = types.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Clock == nil {
		config.Clock = types.NewRealClock()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.ErrorHandler == nil {
		// surface contained handler failures through the worker's log
		config.ErrorHandler = interrors.AsHandler(interrors.NewFailFast())
	}

	workers := make([]*Worker, config.Workers)
	for i := 0; i < config.Workers; i++ {
		workers[i] = newWorker(i, config.MailboxSize, config.Clock, config.Logger, config.ErrorHandler)
	}

	return &Registry{
		config:  config,
		workers: workers,
		logger:  config.Logger,
	}, nil
}

// Start launches every worker's event loop. It returns an error if the
// registry is already running or has been closed.
func (r *Registry) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&r.state, registryCreated, registryRunning) {
		if atomic.LoadInt32(&r.state) == registryRunning {
			return types.ErrRegistryRunning
		}
		return types.ErrRegistryClosed
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	// a plain group, not errgroup.WithContext: a fatal loop error on one
	// worker must not cancel the other workers
	r.group = new(errgroup.Group)

	for _, w := range r.workers {
		w := w
		r.group.Go(func() error {
			return w.Run(r.ctx)
		})
	}

	r.logger.Debug("registry started", zap.Int("workers", len(r.workers)))
	return nil
}

// Size returns the number of workers in the registry.
func (r *Registry) Size() int {
	return len(r.workers)
}

// Lookup returns the worker with the given id, or nil when the id is out of
// range. O(1), no allocation, no blocking; repeated lookups with the same
// valid id return the same worker.
func (r *Registry) Lookup(id int) *Worker {
	if id < 0 || id >= len(r.workers) {
		return nil
	}
	return r.workers[id]
}

// Broadcast posts the same message to every worker in the registry and
// returns the number of workers for which the record was enqueued, not the
// number that have processed it. Exactly the same Arg1/Arg2 values reach
// every worker: a shared pointer payload must be safe for concurrent reads,
// and a payload with single-consumer ownership semantics must use Post
// instead.
//
// Unlike Post, Broadcast is intended for ordinary goroutine context only.
func (r *Registry) Broadcast(kind types.MessageKind, arg1, arg2 any) int {
	posted := 0
	for _, w := range r.workers {
		if err := w.Post(kind, arg1, arg2); err == nil {
			posted++
		} else {
			r.logger.Debug("broadcast post failed",
				zap.Int("worker_id", w.ID()), zap.Stringer("kind", kind), zap.Error(err))
		}
	}
	return posted
}

// Shutdown broadcasts a shutdown message to every worker and waits for all
// loops to join. It returns the first loop error, types.ErrStopTimeout if
// the loops do not join within the configured stop timeout, or nil. A posted
// shutdown alone is not proof of teardown; Shutdown's return confirms the
// join.
func (r *Registry) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&r.state, registryRunning, registryClosed) {
		if atomic.LoadInt32(&r.state) == registryCreated {
			return types.ErrRegistryNotStarted
		}
		return types.ErrRegistryClosed
	}

	posted := r.Broadcast(types.KindShutdown, nil, nil)
	if posted < len(r.workers) {
		r.logger.Warn("shutdown broadcast incomplete",
			zap.Int("posted", posted), zap.Int("workers", len(r.workers)))
	}

	done := make(chan error, 1)
	go func() {
		done <- r.group.Wait()
	}()

	var err error
	select {
	case err = <-done:
	case <-r.config.Clock.After(r.config.StopTimeout):
		err = types.ErrStopTimeout
	}

	// release source forwarders and any loop still blocked
	r.cancel()
	r.logger.Debug("registry stopped", zap.Error(err))
	return err
}

// Close shuts the registry down, ignoring state errors on repeated calls.
func (r *Registry) Close() error {
	var closeErr error
	r.closeOnce.Do(func() {
		closeErr = r.Shutdown()
	})
	return closeErr
}

// IsRunning checks if the registry is running
func (r *Registry) IsRunning() bool {
	return atomic.LoadInt32(&r.state) == registryRunning
}

// WorkerStats gets statistics of all workers
func (r *Registry) WorkerStats() []Stats {
	stats := make([]Stats, len(r.workers))
	for i, w := range r.workers {
		stats[i] = w.Stats()
	}
	return stats
}
