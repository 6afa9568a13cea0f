// Package hooks forwards request/response events to user-supplied callback
// functions and interprets their return values, replacing the original
// embedded-script entry points with plain Go callbacks.
//
// An Instance carries one global callback set shared by every session plus an
// optional per-session factory. For each event the session callback runs
// first, then the global one; verdicts from both are interpreted, the later
// one winning for rewrites and the last boolean decision winning for
// blocking.
package hooks

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jzx17/eventcore/pkg/worker"
)

// sessionIDCounter generates unique session ids
var sessionIDCounter uint64

// QueryVerdict is returned by a RouteQuery callback. The zero value forwards
// the statement unchanged.
type QueryVerdict struct {
	// Block rejects the statement instead of forwarding it.
	Block bool

	// Rewrite, when non-empty, replaces the statement text before it is
	// forwarded.
	Rewrite string
}

// Callbacks is the set of entry points a hook user may supply. Every field is
// optional; a nil callback is simply skipped.
type Callbacks struct {
	// CreateInstance runs once when the instance is built. Global scope only.
	CreateInstance func()

	// NewSession runs when a session opens.
	NewSession func(sessionID uint64)

	// CloseSession runs when a session closes.
	CloseSession func(sessionID uint64)

	// RouteQuery inspects one statement. A nil return forwards unchanged.
	RouteQuery func(sessionID uint64, stmt string) *QueryVerdict

	// ClientReply runs for every response on its way back to the client.
	ClientReply func(sessionID uint64)

	// Diagnostic returns a diagnostic line. Global scope only.
	Diagnostic func() string
}

// Config defines hook instance configuration
type Config struct {
	// Global callbacks run for every session.
	Global *Callbacks

	// SessionFactory builds per-session callbacks; nil sessions get only the
	// global set.
	SessionFactory func() *Callbacks

	// Logger receives hook failures. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Instance is the process-wide hook layer.
type Instance struct {
	global  *Callbacks
	factory func() *Callbacks
	logger  *zap.Logger
}

// NewInstance creates a hook instance and runs the global CreateInstance
// entry point once.
func NewInstance(config *Config) *Instance {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	inst := &Instance{
		global:  config.Global,
		factory: config.SessionFactory,
		logger:  logger,
	}
	if inst.global != nil && inst.global.CreateInstance != nil {
		inst.global.CreateInstance()
	}
	return inst
}

// Session is one client session's view of the hook layer.
type Session struct {
	id       uint64
	instance *Instance
	local    *Callbacks
}

// NewSession opens a session, assigning it a unique id and running the
// NewSession entry points.
func (i *Instance) NewSession() *Session {
	s := &Session{
		id:       atomic.AddUint64(&sessionIDCounter, 1),
		instance: i,
	}
	if i.factory != nil {
		s.local = i.factory()
	}
	if s.local != nil && s.local.NewSession != nil {
		s.local.NewSession(s.id)
	}
	if i.global != nil && i.global.NewSession != nil {
		i.global.NewSession(s.id)
	}
	return s
}

// ID returns the session id
func (s *Session) ID() uint64 {
	return s.id
}

// Close runs the CloseSession entry points.
func (s *Session) Close() {
	if s.local != nil && s.local.CloseSession != nil {
		s.local.CloseSession(s.id)
	}
	if g := s.instance.global; g != nil && g.CloseSession != nil {
		g.CloseSession(s.id)
	}
}

// RouteResult is the interpreted outcome of the RouteQuery entry points.
type RouteResult struct {
	// Forward reports whether the statement should be routed at all.
	Forward bool

	// Statement is the (possibly rewritten) statement text.
	Statement string
}

// RouteQuery forwards one statement through the session and global RouteQuery
// callbacks and interprets their verdicts.
func (s *Session) RouteQuery(stmt string) RouteResult {
	result := RouteResult{Forward: true, Statement: stmt}

	apply := func(cb func(uint64, string) *QueryVerdict) {
		if cb == nil {
			return
		}
		if v := s.run(cb, result.Statement); v != nil {
			if v.Rewrite != "" {
				result.Statement = v.Rewrite
			}
			result.Forward = !v.Block
		}
	}

	if s.local != nil {
		apply(s.local.RouteQuery)
	}
	if g := s.instance.global; g != nil {
		apply(g.RouteQuery)
	}
	return result
}

// run invokes a RouteQuery callback with panic containment; a panicking
// callback counts as no verdict.
func (s *Session) run(cb func(uint64, string) *QueryVerdict, stmt string) (v *QueryVerdict) {
	defer func() {
		if r := recover(); r != nil {
			s.instance.logger.Error("route query hook panicked",
				zap.Uint64("session_id", s.id), zap.Any("panic", r))
			v = nil
		}
	}()
	return cb(s.id, stmt)
}

// ClientReply forwards one response event through the ClientReply callbacks.
func (s *Session) ClientReply() {
	if s.local != nil && s.local.ClientReply != nil {
		s.local.ClientReply(s.id)
	}
	if g := s.instance.global; g != nil && g.ClientReply != nil {
		g.ClientReply(s.id)
	}
}

// Diagnostics renders a diagnostic report for the hook layer. Per-worker
// lines are produced by running a call message on each worker's own
// goroutine through the public posting surface; a worker that cannot be
// reached is reported as such.
func (i *Instance) Diagnostics(ctx context.Context, reg *worker.Registry) string {
	var b strings.Builder

	if i.global != nil && i.global.Diagnostic != nil {
		fmt.Fprintf(&b, "global: %s\n", i.global.Diagnostic())
	}

	for id := 0; id < reg.Size(); id++ {
		w := reg.Lookup(id)
		if w == nil {
			continue
		}
		line := make(chan string, 1)
		err := worker.CallWait(ctx, w, func(workerID int, arg any) {
			stats := w.Stats()
			line <- fmt.Sprintf("worker %d: state=%s processed=%d failed=%d",
				workerID, stats.State, stats.TotalProcessed, stats.TotalFailed)
		}, nil)
		if err != nil {
			fmt.Fprintf(&b, "worker %d: unreachable (%v)\n", id, err)
			continue
		}
		b.WriteString(<-line)
		b.WriteByte('\n')
	}
	return b.String()
}
