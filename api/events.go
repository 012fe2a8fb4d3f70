// File: api/events.go
// Package api defines channel, interest and readiness event types.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Conn is an OS-level socket handle, listening or connected. The reactor
// attaches interest metadata to a Conn but never owns it; creation and
// destruction of the underlying socket belong to the caller.
type Conn int

// NoConn marks a fault that is not tied to any particular channel.
const NoConn Conn = -1

// Interest is the subset of readiness conditions a channel is registered for.
type Interest uint32

const (
	// InterestAccept is the interest of a listening channel: inbound
	// connections pending on the accept queue.
	InterestAccept Interest = 1 << iota
	// InterestRead is the interest of a connected channel in inbound bytes.
	InterestRead
	// InterestWrite is the interest in outbound buffer space.
	InterestWrite
)

// EventType is the bitmask of conditions observed on one channel by a single
// multiplexer wait call.
type EventType uint32

const (
	EventReadable EventType = 1 << iota
	EventWritable
	EventErrored
)

// Event binds a channel to the readiness observed by one multiplexer wait.
// Events are ephemeral and valid only within the loop iteration that
// produced them.
type Event struct {
	Conn Conn
	Type EventType
}

func (e *Event) IsReadable() bool { return e.Type&EventReadable != 0 }
func (e *Event) IsWritable() bool { return e.Type&EventWritable != 0 }
func (e *Event) IsErrored() bool  { return e.Type&EventErrored != 0 }
