// File: api/handler.go
// Package api defines the Handler callback interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Handler receives readiness callbacks from a reactor. Every callback except
// PostWrite is invoked on the reactor's loop goroutine, one at a time; the
// handler never needs to synchronize against concurrent reactor callbacks.
//
// Buffers passed to OnRead are owned by the reactor and valid only for the
// duration of the call; a handler that needs the bytes afterwards must copy
// them.
type Handler interface {
	// OnAccept reports a newly accepted inbound connection. The raw handle
	// is not yet registered with the reactor.
	OnAccept(conn Conn)

	// OnRead reports inbound bytes on a registered connection.
	OnRead(conn Conn, buf []byte)

	// OnWrite reports that a channel became writable. The handler may call
	// PostWrite, EnableWrite or DisableWrite on the supplied reactor from
	// inside the callback.
	OnWrite(conn Conn, r Reactor)

	// OnClose reports that a channel is gone: the peer closed it, or it was
	// invalidated externally. The handler must release any resources tied
	// to the channel.
	OnClose(conn Conn)

	// OnError reports a non-fatal fault. conn is NoConn for loop-scoped
	// faults (wait or rebuild failures) that are not tied to a channel.
	OnError(conn Conn, err error)

	// PostWrite is the handler's write-issuing logic; the reactor delegates
	// Reactor.PostWrite calls here verbatim. Unlike the other callbacks it
	// runs on the goroutine that called Reactor.PostWrite.
	PostWrite(conn Conn, data []byte, r Reactor)

	// CloseConn performs handler-owned channel teardown. Scheduled by
	// Reactor.CloseConn and executed on the loop goroutine.
	CloseConn(conn Conn)
}
