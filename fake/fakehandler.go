// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package fake provides test doubles for hioload-reactor: a recording
// Handler and a scriptable Poller.
package fake

import (
	"sync"

	"github.com/momentics/hioload-reactor/api"
)

// ReadCall records one OnRead invocation. Data is a copy; the reactor's
// buffer is only valid during the callback.
type ReadCall struct {
	Conn api.Conn
	Data []byte
}

// ErrorCall records one OnError invocation.
type ErrorCall struct {
	Conn api.Conn
	Err  error
}

// WriteCall records one PostWrite delegation.
type WriteCall struct {
	Conn api.Conn
	Data []byte
}

// FakeHandler records every callback it receives. Optional hook functions
// run after recording, inside the callback, so tests can drive the reactor
// from handler context.
type FakeHandler struct {
	mu         sync.Mutex
	accepts    []api.Conn
	reads      []ReadCall
	writes     []api.Conn
	closes     []api.Conn
	errors     []ErrorCall
	postWrites []WriteCall
	closeReqs  []api.Conn

	AcceptFunc func(conn api.Conn)
	WriteFunc  func(conn api.Conn, r api.Reactor)
	ReadFunc   func(conn api.Conn, data []byte)
	CloseFunc  func(conn api.Conn)
}

var _ api.Handler = (*FakeHandler)(nil)

func NewFakeHandler() *FakeHandler { return &FakeHandler{} }

func (h *FakeHandler) OnAccept(conn api.Conn) {
	h.mu.Lock()
	h.accepts = append(h.accepts, conn)
	fn := h.AcceptFunc
	h.mu.Unlock()
	if fn != nil {
		fn(conn)
	}
}

func (h *FakeHandler) OnRead(conn api.Conn, buf []byte) {
	data := make([]byte, len(buf))
	copy(data, buf)
	h.mu.Lock()
	h.reads = append(h.reads, ReadCall{Conn: conn, Data: data})
	fn := h.ReadFunc
	h.mu.Unlock()
	if fn != nil {
		fn(conn, data)
	}
}

func (h *FakeHandler) OnWrite(conn api.Conn, r api.Reactor) {
	h.mu.Lock()
	h.writes = append(h.writes, conn)
	fn := h.WriteFunc
	h.mu.Unlock()
	if fn != nil {
		fn(conn, r)
	}
}

func (h *FakeHandler) OnClose(conn api.Conn) {
	h.mu.Lock()
	h.closes = append(h.closes, conn)
	fn := h.CloseFunc
	h.mu.Unlock()
	if fn != nil {
		fn(conn)
	}
}

func (h *FakeHandler) OnError(conn api.Conn, err error) {
	h.mu.Lock()
	h.errors = append(h.errors, ErrorCall{Conn: conn, Err: err})
	h.mu.Unlock()
}

func (h *FakeHandler) PostWrite(conn api.Conn, data []byte, _ api.Reactor) {
	cp := make([]byte, len(data))
	copy(cp, data)
	h.mu.Lock()
	h.postWrites = append(h.postWrites, WriteCall{Conn: conn, Data: cp})
	h.mu.Unlock()
}

func (h *FakeHandler) CloseConn(conn api.Conn) {
	h.mu.Lock()
	h.closeReqs = append(h.closeReqs, conn)
	h.mu.Unlock()
}

func (h *FakeHandler) Accepts() []api.Conn     { h.mu.Lock(); defer h.mu.Unlock(); return append([]api.Conn(nil), h.accepts...) }
func (h *FakeHandler) Reads() []ReadCall       { h.mu.Lock(); defer h.mu.Unlock(); return append([]ReadCall(nil), h.reads...) }
func (h *FakeHandler) Writes() []api.Conn      { h.mu.Lock(); defer h.mu.Unlock(); return append([]api.Conn(nil), h.writes...) }
func (h *FakeHandler) Closes() []api.Conn      { h.mu.Lock(); defer h.mu.Unlock(); return append([]api.Conn(nil), h.closes...) }
func (h *FakeHandler) Errors() []ErrorCall     { h.mu.Lock(); defer h.mu.Unlock(); return append([]ErrorCall(nil), h.errors...) }
func (h *FakeHandler) PostWrites() []WriteCall { h.mu.Lock(); defer h.mu.Unlock(); return append([]WriteCall(nil), h.postWrites...) }
func (h *FakeHandler) CloseReqs() []api.Conn   { h.mu.Lock(); defer h.mu.Unlock(); return append([]api.Conn(nil), h.closeReqs...) }
