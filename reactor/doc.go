// Copyright (c) 2026
// Author: momentics <momentics@gmail.com>

// Package reactor implements a single-threaded, callback-driven readiness
// loop over an epoll-backed multiplexer. One goroutine owns the multiplexing
// handle and the registration table; every other goroutine communicates with
// the loop by enqueueing a task and waking the parked wait. Readiness is
// dispatched to a caller-supplied api.Handler with an explicit branch
// priority of accept > read > write > close.
package reactor
