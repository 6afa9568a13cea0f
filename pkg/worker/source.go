package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jzx17/eventcore/pkg/types"
)

// SourceHandler handles one event from an externally registered readiness
// source. It always runs on the owning worker's goroutine.
type SourceHandler func(ctx context.Context, event any)

// source binds an external event channel to the worker's loop.
type source struct {
	name    string
	ch      <-chan any
	handler SourceHandler
}

type sourceEvent struct {
	src   *source
	event any
}

// RegisterSource registers an external readiness source with the worker's
// loop. Events arriving on ch are handed to handler on the worker's own
// goroutine, interleaved with message dispatch. Registration is only allowed
// before the loop starts; the source set is fixed afterwards, mirroring the
// fixed mailbox registration.
func (w *Worker) RegisterSource(name string, ch <-chan any, handler SourceHandler) error {
	if w.State() != StateCreated {
		return fmt.Errorf("worker %d: sources must be registered before start", w.id)
	}
	if ch == nil || handler == nil {
		return fmt.Errorf("worker %d: source channel and handler are required", w.id)
	}
	w.sources = append(w.sources, &source{name: name, ch: ch, handler: handler})
	return nil
}

// startSources fans registered sources into the loop. One forwarder per
// source; forwarders exit when their channel closes or the loop's context is
// cancelled.
func (w *Worker) startSources(ctx context.Context) {
	if len(w.sources) == 0 {
		return
	}
	w.events = make(chan sourceEvent)
	for _, s := range w.sources {
		go func(s *source) {
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-s.ch:
					if !ok {
						return
					}
					select {
					case w.events <- sourceEvent{src: s, event: ev}:
					case <-ctx.Done():
						return
					}
				}
			}
		}(s)
	}
}

func (w *Worker) handleSourceEvent(ctx context.Context, ev sourceEvent) {
	err := w.execute(types.KindCall, func() { ev.src.handler(ctx, ev.event) })
	if err != nil {
		w.logger.Error("source handler failed", zap.String("source", ev.src.name), zap.Error(err))
	}
}
