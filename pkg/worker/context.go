package worker

import "context"

// workerKey is the context key for the current-worker association.
type workerKey struct{}

// WithWorker binds a worker into the context. The event loop does this once,
// before the first dispatch, for the context every handler receives; the
// association never changes for the lifetime of the worker goroutine.
func WithWorker(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

// FromContext returns the worker bound to the context, or nil if the context
// does not originate from a worker goroutine.
func FromContext(ctx context.Context) *Worker {
	if w, ok := ctx.Value(workerKey{}).(*Worker); ok {
		return w
	}
	return nil
}

// IDFromContext returns the id of the worker bound to the context, or -1 if
// the context does not originate from a worker goroutine.
func IDFromContext(ctx context.Context) int {
	if w := FromContext(ctx); w != nil {
		return w.ID()
	}
	return -1
}
