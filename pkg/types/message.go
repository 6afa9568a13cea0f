// Package types defines the core message model and configuration for the
// eventcore library.
package types

import "fmt"

// MessageKind identifies the kind of a control message. The set of kinds is
// closed; adding a new kind is an additive change to this enumeration and to
// the event-loop dispatch switch, not an open extension point.
type MessageKind int32

const (
	// KindPing is a liveness/diagnostic message.
	//
	// Arg1: unused, nil.
	// Arg2: nil, or a string consumed exactly once by the receiving worker.
	KindPing MessageKind = iota

	// KindShutdown asks the receiving worker to stop its loop after it has
	// finished the batch of messages drained together with this one.
	//
	// Arg1: nil.
	// Arg2: nil.
	KindShutdown

	// KindCall carries a function to be invoked on the receiving worker's
	// goroutine.
	//
	// Arg1: a CallFunc.
	// Arg2: argument passed to the CallFunc.
	KindCall
)

// String returns the string representation of a MessageKind.
func (k MessageKind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindShutdown:
		return "shutdown"
	case KindCall:
		return "call"
	default:
		return fmt.Sprintf("unknown(%d)", int32(k))
	}
}

// Valid reports whether k is a member of the closed kind enumeration.
func (k MessageKind) Valid() bool {
	return k >= KindPing && k <= KindCall
}

// CallFunc is the function shape carried by KindCall messages. It is always
// invoked on the target worker's own goroutine, never on the poster's, so it
// may safely touch state owned by that worker without extra synchronization.
type CallFunc func(workerID int, arg any)

// Message is the fixed-shape record transferred through a worker's mailbox.
// The interpretation of Arg1 and Arg2 is kind-specific; see the kind
// constants. When an argument carries a pointer, ownership transfers to the
// receiving worker's handler unless the kind's contract states otherwise.
// Broadcast payloads are shared by every receiver and must be treated as
// read-only.
type Message struct {
	Kind MessageKind
	Arg1 any
	Arg2 any
}
