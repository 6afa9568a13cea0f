package worker

import (
	"context"

	"github.com/jzx17/eventcore/pkg/types"
)

// Ping posts a ping message to the worker. The note, if non-empty, is
// consumed exactly once by the worker's loop.
func Ping(w *Worker, note string) error {
	var arg2 any
	if note != "" {
		arg2 = note
	}
	return w.Post(types.KindPing, nil, arg2)
}

// Call posts a call message to the worker. fn runs on the worker's own
// goroutine with arg; the post returns without waiting for it.
func Call(w *Worker, fn types.CallFunc, arg any) error {
	return w.Post(types.KindCall, fn, arg)
}

// CallWait posts a call message and blocks until the worker has executed it,
// the context is cancelled, or the worker stops without running it. The
// execution still happens on the worker's goroutine, never the caller's.
func CallWait(ctx context.Context, w *Worker, fn types.CallFunc, arg any) error {
	done := make(chan struct{})
	wrapped := types.CallFunc(func(workerID int, a any) {
		defer close(done)
		fn(workerID, a)
	})
	if err := w.Post(types.KindCall, wrapped, arg); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-w.Done():
		// the call may have completed just before the loop exited
		select {
		case <-done:
			return nil
		default:
			return types.ErrWorkerStopped
		}
	}
}

// RequestShutdown posts a shutdown message to the worker. A nil return means
// only that the record was enqueued; wait on Done to confirm the loop exited.
func RequestShutdown(w *Worker) error {
	return w.Post(types.KindShutdown, nil, nil)
}
