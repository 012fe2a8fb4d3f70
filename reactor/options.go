// File: reactor/options.go
// Package reactor defines functional options for reactor construction.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"go.uber.org/zap"

	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/pool"
)

// Option customizes reactor initialization.
type Option func(*Reactor)

// WithLogger attaches a structured logger; the default is zap.NewNop.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reactor) {
		if log != nil {
			r.log = log
		}
	}
}

// WithEventBatch overrides how many readiness events one wait surfaces.
func WithEventBatch(n int) Option {
	return func(r *Reactor) {
		if n > 0 {
			r.batch = n
		}
	}
}

// WithBufferPool overrides the read buffer pool.
func WithBufferPool(p *pool.BytePool) Option {
	return func(r *Reactor) {
		r.bufs = p
	}
}

// WithMetrics publishes loop counters into an existing registry.
func WithMetrics(m *control.MetricsRegistry) Option {
	return func(r *Reactor) {
		r.metrics = m
	}
}

// WithProbes registers the reactor's debug probes into an existing
// registry instead of a private one.
func WithProbes(dp *control.DebugProbes) Option {
	return func(r *Reactor) {
		if dp != nil {
			r.probes = dp
		}
	}
}

// WithPoller substitutes the readiness multiplexer. Used by tests and by
// callers embedding the reactor over a custom backend.
func WithPoller(p Poller) Option {
	return func(r *Reactor) {
		r.poller = p
	}
}
