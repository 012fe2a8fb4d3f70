// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across hioload-reactor packages.

package api

import "errors"

var (
	// ErrPollerClosed indicates the multiplexing handle has been closed.
	ErrPollerClosed = errors.New("poller is closed")

	// ErrReactorStopped indicates Run was called on a reactor that has
	// already been stopped; a fresh instance is required per run.
	ErrReactorStopped = errors.New("reactor is stopped")

	// ErrAlreadyRunning indicates Run was called twice on one instance.
	ErrAlreadyRunning = errors.New("reactor is already running")

	// ErrNilHandler indicates a reactor was constructed without a handler.
	ErrNilHandler = errors.New("nil logic handler")

	// ErrNotSupported indicates the platform has no poller backend.
	ErrNotSupported = errors.New("platform not supported")
)
