/*
Package worker implements a fixed pool of long-lived message-driven workers
with a cross-goroutine posting and broadcast API.

# Overview

A Registry owns a fixed set of Workers, established once at construction.
Each Worker pairs one goroutine (pinned to an OS thread while running) with
one bounded mailbox and runs an event loop that drains and dispatches control
messages:

  - Ping: liveness/diagnostic no-op, optionally consuming a note string
  - Shutdown: cooperative loop termination after the current batch
  - Call: run a function on the worker's own goroutine

Any goroutine may post into any worker's mailbox; only the owning worker
drains it. Within one posting goroutine, delivery order to a given worker
equals send order. No ordering holds across different posters.

# Posting

Post is the only cross-goroutine interaction with a worker. It performs a
single atomic state load and one non-blocking channel send: it never locks,
never allocates on the enqueue path, never blocks and never retries. A full
mailbox yields types.ErrMailboxFull; the caller owns the retry policy (see
the retry package). Broadcast loops Post over the whole registry and returns
the success count; unlike Post it is meant for ordinary goroutine context
only.

# Lifecycle

	Created -> Running -> ShutdownInitiated -> Stopped

Transitions are one-directional. The only way a loop terminates normally is
by draining a shutdown message; the worker then finishes the batch it was
drained with and exits. A stopped worker's id and slot are never reused.
Registry.Shutdown broadcasts shutdown and confirms the join; callers that
need teardown guarantees must rely on that confirmation, not on a successful
post alone.

# Failure semantics

Handler failures (including panics) inside Ping and Call dispatch are
contained: counted, routed to the configured error handler and logged. A
malformed record - a call message whose function argument is not a
types.CallFunc, or an unknown kind - is fatal to the owning worker only: the
loop logs and terminates rather than resynchronize mid-protocol, and the
error surfaces from Registry.Shutdown. Other workers are unaffected.

# Usage

	cfg := types.DefaultConfig()
	cfg.Workers = 4

	reg, err := worker.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := reg.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	defer reg.Close()

	w := reg.Lookup(2)
	_ = worker.Call(w, func(workerID int, arg any) {
		// runs on worker 2's goroutine
	}, nil)

	n := reg.Broadcast(types.KindPing, nil, nil)
	fmt.Printf("pinged %d workers\n", n)
*/
package worker
