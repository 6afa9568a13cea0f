package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jzx17/eventcore/pkg/types"
)

// State defines the lifecycle state of a Worker. Transitions are
// one-directional: Created -> Running -> ShutdownInitiated -> Stopped.
type State int32

const (
	// StateCreated represents a worker whose loop has not started yet
	StateCreated State = iota
	// StateRunning represents a worker whose loop is running
	StateRunning
	// StateShutdownInitiated represents a worker that has drained a shutdown
	// message and is finishing its current batch
	StateShutdownInitiated
	// StateStopped represents a worker whose loop has exited
	StateStopped
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateShutdownInitiated:
		return "shutdown-initiated"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker pairs one goroutine (pinned to an OS thread while running) with one
// bounded mailbox. Any goroutine may post messages into the mailbox; only the
// worker's own goroutine drains and dispatches them.
type Worker struct {
	id      int
	mailbox chan types.Message
	state   int32 // atomic State
	done    chan struct{}

	// lifecycle flags; mutated only by the worker's own goroutine after start
	started           int32
	shouldShutdown    int32
	shutdownInitiated int32

	// externally registered readiness sources, fixed before start
	sources []*source
	events  chan sourceEvent

	// statistics
	totalProcessed int64
	totalFailed    int64
	lastDispatch   int64 // Unix nanosecond timestamp

	errorHandler types.ErrorHandler
	clock        types.Clock
	logger       *zap.Logger
}

// newWorker creates a worker owned by a registry. Ids are assigned once at
// registry construction and never reused.
func newWorker(id, mailboxSize int, clock types.Clock, logger *zap.Logger, handler types.ErrorHandler) *Worker {
	return &Worker{
		id:           id,
		mailbox:      make(chan types.Message, mailboxSize),
		state:        int32(StateCreated),
		done:         make(chan struct{}),
		errorHandler: handler,
		clock:        clock,
		logger:       logger.With(zap.Int("worker_id", id)),
	}
}

// ID returns the Worker id
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() State {
	return State(atomic.LoadInt32(&w.state))
}

// Started reports whether the worker's loop has been entered.
func (w *Worker) Started() bool {
	return atomic.LoadInt32(&w.started) == 1
}

// ShutdownInitiated reports whether the worker has drained a shutdown message.
func (w *Worker) ShutdownInitiated() bool {
	return atomic.LoadInt32(&w.shutdownInitiated) == 1
}

// Done returns a channel closed when the worker's loop has exited. Callers
// relying on shutdown for correct teardown should wait on this rather than on
// a successful Post alone.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Post atomically appends one message record to the worker's mailbox, waking
// the worker's loop. It returns nil if the record was enqueued,
// types.ErrMailboxFull if the mailbox had no capacity, and
// types.ErrWorkerStopped if the worker's loop has exited. There is no
// blocking and no internal retry; retry policy belongs to the caller.
//
// The enqueue path is a single atomic state load plus one non-blocking
// channel send: no locks, no allocation. It is safe to call from any
// goroutine at any time, including goroutines servicing signal notifications.
func (w *Worker) Post(kind types.MessageKind, arg1, arg2 any) error {
	if !kind.Valid() {
		return types.ErrUnknownMessageKind
	}
	if State(atomic.LoadInt32(&w.state)) == StateStopped {
		return types.ErrWorkerStopped
	}
	select {
	case w.mailbox <- types.Message{Kind: kind, Arg1: arg1, Arg2: arg2}:
		return nil
	default:
		return types.ErrMailboxFull
	}
}

// MailboxCapacity returns the bounded capacity of the worker's mailbox.
func (w *Worker) MailboxCapacity() int {
	return cap(w.mailbox)
}

// Run enters the worker's event loop and blocks until the loop terminates.
// The loop is pinned to an OS thread so call handlers observe stable thread
// affinity. It terminates when a shutdown message is drained (returning nil),
// when the context is cancelled (returning the context error), or fatally on
// a malformed message (returning the dispatch error). Run may be entered at
// most once.
func (w *Worker) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&w.state, int32(StateCreated), int32(StateRunning)) {
		return fmt.Errorf("worker %d: run entered twice", w.id)
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	atomic.StoreInt32(&w.started, 1)
	defer func() {
		atomic.StoreInt32(&w.state, int32(StateStopped))
		close(w.done)
	}()

	// every handler sees this worker as its current worker
	ctx = WithWorker(ctx, w)

	w.startSources(ctx)
	w.logger.Debug("worker loop entered")

	// honor a shutdown requested before the loop started
	if atomic.LoadInt32(&w.shouldShutdown) == 1 {
		w.initiateShutdown()
		return nil
	}

	batch := make([]types.Message, 0, cap(w.mailbox))
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("worker loop cancelled", zap.Error(ctx.Err()))
			return ctx.Err()
		case ev := <-w.events:
			w.handleSourceEvent(ctx, ev)
		case msg := <-w.mailbox:
			// drain everything already buffered and dispatch as one batch,
			// in arrival order
			batch = append(batch[:0], msg)
			batch = w.drain(batch)
			for _, m := range batch {
				if err := w.dispatch(ctx, m); err != nil {
					w.logger.Error("terminating worker on malformed message",
						zap.Stringer("kind", m.Kind), zap.Error(err))
					return err
				}
			}
			// a shutdown drained with this batch stops the loop only after
			// the whole batch has been dispatched
			if atomic.LoadInt32(&w.shouldShutdown) == 1 {
				w.initiateShutdown()
				return nil
			}
		}
	}
}

// drain moves all currently buffered messages into the batch without
// blocking.
func (w *Worker) drain(batch []types.Message) []types.Message {
	for {
		select {
		case m := <-w.mailbox:
			batch = append(batch, m)
		default:
			return batch
		}
	}
}

func (w *Worker) initiateShutdown() {
	atomic.StoreInt32(&w.shutdownInitiated, 1)
	atomic.StoreInt32(&w.state, int32(StateShutdownInitiated))
	w.logger.Debug("worker shutdown initiated")
}

// dispatch routes one message by kind. A non-nil return is fatal to the
// worker; handler failures are contained and never returned.
func (w *Worker) dispatch(ctx context.Context, msg types.Message) error {
	atomic.StoreInt64(&w.lastDispatch, w.clock.Now().UnixNano())

	switch msg.Kind {
	case types.KindPing:
		// consume an optional heap-owned note exactly once
		if note, ok := msg.Arg2.(string); ok && note != "" {
			w.logger.Info("ping", zap.String("note", note))
		} else {
			w.logger.Debug("ping")
		}
		atomic.AddInt64(&w.totalProcessed, 1)
		return nil

	case types.KindShutdown:
		atomic.StoreInt32(&w.shouldShutdown, 1)
		atomic.AddInt64(&w.totalProcessed, 1)
		return nil

	case types.KindCall:
		fn, ok := msg.Arg1.(types.CallFunc)
		if !ok {
			atomic.AddInt64(&w.totalFailed, 1)
			return types.NewDispatchError(w.id, msg.Kind, types.ErrMalformedMessage).
				WithContext("arg1", fmt.Sprintf("%T", msg.Arg1))
		}
		w.invoke(ctx, msg.Kind, func() { fn(w.id, msg.Arg2) })
		return nil

	default:
		atomic.AddInt64(&w.totalFailed, 1)
		return types.NewDispatchError(w.id, msg.Kind, types.ErrUnknownMessageKind)
	}
}

// invoke runs a handler on the worker goroutine with panic recovery. A
// failing handler is contained: counted, handed to the error handler, and
// logged if still unhandled.
func (w *Worker) invoke(ctx context.Context, kind types.MessageKind, fn func()) {
	err := w.execute(kind, fn)
	if err == nil {
		atomic.AddInt64(&w.totalProcessed, 1)
		return
	}
	atomic.AddInt64(&w.totalFailed, 1)
	if w.errorHandler != nil {
		err = w.errorHandler(err)
	}
	if err != nil {
		w.logger.Error("dispatch handler failed", zap.Stringer("kind", kind), zap.Error(err))
	}
}

// execute runs a handler with panic recovery support
func (w *Worker) execute(kind types.MessageKind, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			switch v := r.(type) {
			case error:
				err = types.NewDispatchError(w.id, kind, v)
			default:
				err = types.NewDispatchError(w.id, kind, fmt.Errorf("panic: %v", v))
			}
			if de, ok := err.(*types.DispatchError); ok {
				de.WithContext("stack_trace", string(buf[:n]))
			}
		}
	}()

	fn()
	return nil
}

// Stats gets Worker statistics
func (w *Worker) Stats() Stats {
	return Stats{
		ID:             w.id,
		State:          w.State(),
		TotalProcessed: atomic.LoadInt64(&w.totalProcessed),
		TotalFailed:    atomic.LoadInt64(&w.totalFailed),
		LastDispatch:   time.Unix(0, atomic.LoadInt64(&w.lastDispatch)),
	}
}

// Stats defines Worker statistics
type Stats struct {
	ID             int
	State          State
	TotalProcessed int64
	TotalFailed    int64
	LastDispatch   time.Time
}
