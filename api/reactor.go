// File: api/reactor.go
// Package api defines the Reactor interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Reactor is the single-threaded readiness loop as seen by handlers and by
// other goroutines. All methods are safe to call from any goroutine: they
// never touch multiplexer state directly, they enqueue a deferred task and
// wake the loop.
type Reactor interface {
	// RegisterListener puts a listening channel into non-blocking mode and
	// schedules its registration with accept interest.
	RegisterListener(conn Conn)

	// RegisterConn puts a connected channel into non-blocking mode and
	// schedules its registration with read interest.
	RegisterConn(conn Conn)

	// EnableWrite schedules ORing the write bit into the channel's interest
	// set. No-op when the channel is not registered.
	EnableWrite(conn Conn)

	// DisableWrite schedules XORing the write bit out of the channel's
	// interest set. Enable and Disable calls are expected to pair; the
	// toggle is not clamped. No-op when the channel is not registered.
	DisableWrite(conn Conn)

	// PostWrite delegates immediately to the handler's PostWrite; queuing
	// of outbound bytes is the handler's responsibility.
	PostWrite(conn Conn, data []byte)

	// CloseConn schedules handler-owned teardown of the channel on the
	// loop goroutine and drops its registration.
	CloseConn(conn Conn)

	// Stop terminates the loop after its current iteration and closes the
	// multiplexing handle. Tasks still queued after the final drain are
	// discarded. A stopped reactor cannot be restarted.
	Stop()
}
