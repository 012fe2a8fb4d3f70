// File: reactor/poller.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral readiness multiplexer contract. The platform factory
// NewPoller lives in poller_linux.go / poller_stub.go.

package reactor

import "github.com/momentics/hioload-reactor/api"

// Poller owns the OS-level multiplexing handle and the registration table
// mapping each channel to its interest set. Wake and Close are safe from any
// goroutine; every other method must be called from the loop goroutine only.
type Poller interface {
	// Add registers a channel with the given interest set.
	Add(conn api.Conn, interest api.Interest) error

	// Mod replaces the interest set of a registered channel.
	Mod(conn api.Conn, interest api.Interest) error

	// Del drops a channel's registration. Dropping an already-closed or
	// unknown channel is not an error.
	Del(conn api.Conn) error

	// Interest reports the current interest set of a channel and whether
	// the channel holds a live registration.
	Interest(conn api.Conn) (api.Interest, bool)

	// Snapshot copies the registration table. Diagnostic use; call only
	// while the loop is quiescent.
	Snapshot() map[api.Conn]api.Interest

	// Wait blocks until at least one registered channel is ready or Wake
	// is called, then fills events and returns the count. A wake with no
	// ready channels returns 0, nil.
	Wait(events []api.Event) (int, error)

	// Wake unparks a goroutine blocked in Wait, with no other side effect.
	Wake() error

	// Rebuild replaces the multiplexing handle with a fresh one, carrying
	// over every live registration with its current interest set. Stale
	// channels whose handles died are dropped from the table.
	Rebuild() error

	// Close releases the OS handles. Idempotent; the handles are closed
	// exactly once.
	Close() error
}
