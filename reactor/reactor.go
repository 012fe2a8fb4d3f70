// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
//
// The reactor core: one goroutine repeatedly blocks on the poller,
// dispatches ready events, drains the task mailbox, and rebuilds the
// multiplexing handle when a wait produced neither events nor tasks.

package reactor

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/control"
	"github.com/momentics/hioload-reactor/pool"
)

// ReadBufferSize is the fixed per-event read buffer size.
const ReadBufferSize = 4096

// defaultEventBatch bounds how many readiness events one wait call surfaces.
const defaultEventBatch = 128

// Metric keys published to the control.MetricsRegistry.
const (
	MetricIterations = "reactor.iterations"
	MetricEvents     = "reactor.events_dispatched"
	MetricTasks      = "reactor.tasks_run"
	MetricRebuilds   = "reactor.rebuilds"
)

// Probe names registered with the control.DebugProbes registry.
const (
	ProbeStats         = "reactor.stats"
	ProbeRegistrations = "reactor.registrations"
)

// Reactor is the concrete single-threaded readiness loop. One instance
// serves exactly one Run; after Stop it cannot be reused.
type Reactor struct {
	poller  Poller
	handler api.Handler
	tasks   *taskQueue
	bufs    *pool.BytePool
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	log     *zap.Logger
	events  []api.Event
	batch   int
	started atomic.Bool
	cancel  atomic.Bool
}

var _ api.Reactor = (*Reactor)(nil)

// New creates a reactor bound to handler. Unless overridden by options it
// opens a platform poller, a 4096-byte buffer pool and a fresh metrics
// registry, and stays silent (zap.NewNop).
func New(handler api.Handler, opts ...Option) (*Reactor, error) {
	if handler == nil {
		return nil, api.ErrNilHandler
	}
	r := &Reactor{
		handler: handler,
		log:     zap.NewNop(),
		batch:   defaultEventBatch,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.poller == nil {
		p, err := NewPoller()
		if err != nil {
			return nil, fmt.Errorf("open poller: %w", err)
		}
		r.poller = p
	}
	if r.bufs == nil {
		r.bufs = pool.NewBytePool(ReadBufferSize)
	}
	if r.metrics == nil {
		r.metrics = control.NewMetricsRegistry()
	}
	if r.probes == nil {
		r.probes = control.NewDebugProbes()
	}
	r.events = make([]api.Event, r.batch)
	r.tasks = newTaskQueue(func() { _ = r.poller.Wake() })
	r.probes.RegisterProbe(ProbeStats, func() any { return r.Stats() })
	r.probes.RegisterProbe(ProbeRegistrations, r.registrationSnapshot)
	return r, nil
}

// Run executes the loop on the calling goroutine until Stop. Returns
// api.ErrReactorStopped when called after Stop and api.ErrAlreadyRunning on
// a second concurrent call.
func (r *Reactor) Run() error {
	if r.cancel.Load() {
		return api.ErrReactorStopped
	}
	if !r.started.CompareAndSwap(false, true) {
		return api.ErrAlreadyRunning
	}
	r.log.Info("reactor loop started")
	for !r.cancel.Load() {
		r.runOnce()
	}
	r.log.Info("reactor loop stopped")
	return nil
}

// Stop flips the cancel flag and closes the poller, failing the pending
// wait. Callable from any goroutine; idempotent.
func (r *Reactor) Stop() {
	if !r.cancel.CompareAndSwap(false, true) {
		return
	}
	if err := r.poller.Close(); err != nil {
		r.handler.OnError(api.NoConn, err)
	}
}

// Stats returns a snapshot of the loop counters.
func (r *Reactor) Stats() map[string]any {
	return r.metrics.GetSnapshot()
}

// Probes exposes the debug probe registry carrying the stats and
// registration-table probes.
func (r *Reactor) Probes() *control.DebugProbes {
	return r.probes
}

// registrationSnapshot copies the registration table. While the loop runs
// the copy is taken on the loop goroutine; a probe fired against a stopped
// loop reads the quiescent table directly.
func (r *Reactor) registrationSnapshot() any {
	if !r.started.Load() || r.cancel.Load() {
		return r.poller.Snapshot()
	}
	ch := make(chan map[api.Conn]api.Interest, 1)
	r.tasks.submit(func() { ch <- r.poller.Snapshot() })
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		return nil
	}
}

// Submit queues a closure for execution on the loop goroutine and wakes the
// loop. Safe from any goroutine.
func (r *Reactor) Submit(task func()) {
	r.tasks.submit(task)
}

// RegisterListener registers a listening channel for accept readiness.
func (r *Reactor) RegisterListener(conn api.Conn) {
	r.register(conn, api.InterestAccept)
}

// RegisterConn registers a connected channel for read readiness.
func (r *Reactor) RegisterConn(conn api.Conn) {
	r.register(conn, api.InterestRead)
}

// register switches the channel to non-blocking mode on the calling
// goroutine, then defers the table mutation to the loop goroutine. Both
// failures are channel-scoped, reported via OnError on the loop goroutine,
// and non-fatal.
func (r *Reactor) register(conn api.Conn, interest api.Interest) {
	nberr := sockSetNonblock(conn)
	r.tasks.submit(func() {
		if nberr != nil {
			r.handler.OnError(conn, fmt.Errorf("set nonblocking: %w", nberr))
		}
		if err := r.poller.Add(conn, interest); err != nil {
			r.handler.OnError(conn, fmt.Errorf("register channel: %w", err))
		}
	})
}

// EnableWrite ORs the write bit into the channel's interest set. No-op for
// an unregistered channel.
func (r *Reactor) EnableWrite(conn api.Conn) {
	r.tasks.submit(func() {
		interest, ok := r.poller.Interest(conn)
		if !ok {
			return
		}
		if err := r.poller.Mod(conn, interest|api.InterestWrite); err != nil {
			r.handler.OnError(conn, fmt.Errorf("enable write: %w", err))
		}
	})
}

// DisableWrite XORs the write bit out of the channel's interest set. The
// bit is toggled, not clamped: Enable and Disable calls must pair. No-op
// for an unregistered channel.
func (r *Reactor) DisableWrite(conn api.Conn) {
	r.tasks.submit(func() {
		interest, ok := r.poller.Interest(conn)
		if !ok {
			return
		}
		if err := r.poller.Mod(conn, interest^api.InterestWrite); err != nil {
			r.handler.OnError(conn, fmt.Errorf("disable write: %w", err))
		}
	})
}

// PostWrite delegates straight to the handler's write-issuing logic on the
// calling goroutine.
func (r *Reactor) PostWrite(conn api.Conn, data []byte) {
	r.handler.PostWrite(conn, data, r)
}

// CloseConn schedules handler-owned teardown on the loop goroutine and
// drops the channel's registration, the analogue of selection-key
// cancellation on close.
func (r *Reactor) CloseConn(conn api.Conn) {
	r.tasks.submit(func() {
		r.handler.CloseConn(conn)
		_ = r.poller.Del(conn)
	})
}

// runOnce is one loop iteration: wait, dispatch, drain, and rebuild the
// poller after a degenerate wakeup (no events, no tasks, not stopping).
func (r *Reactor) runOnce() {
	n, err := r.poller.Wait(r.events)
	if err != nil {
		if r.cancel.Load() || errors.Is(err, api.ErrPollerClosed) {
			return
		}
		r.log.Warn("poller wait failed", zap.Error(err))
		r.handler.OnError(api.NoConn, err)
	}
	r.metrics.Inc(MetricIterations, 1)

	for i := 0; i < n; i++ {
		r.dispatch(&r.events[i])
	}
	if n > 0 {
		r.metrics.Inc(MetricEvents, int64(n))
	}

	ran := r.tasks.drainAndRun()
	if ran > 0 {
		r.metrics.Inc(MetricTasks, int64(ran))
	}

	if n < 1 && ran == 0 && !r.cancel.Load() {
		r.metrics.Inc(MetricRebuilds, 1)
		r.log.Warn("degenerate wakeup, rebuilding poller")
		if err := r.poller.Rebuild(); err != nil {
			r.handler.OnError(api.NoConn, err)
		}
	}
}

// dispatch routes one readiness event to exactly one handler callback.
// Branch priority: accept > read > write > close.
func (r *Reactor) dispatch(ev *api.Event) {
	interest, ok := r.poller.Interest(ev.Conn)
	if !ok {
		// Registration vanished between wait and dispatch: the channel
		// was closed externally.
		r.handler.OnClose(ev.Conn)
		return
	}
	switch {
	case interest&api.InterestAccept != 0 && ev.IsReadable():
		r.accept(ev.Conn)
	case interest&api.InterestRead != 0 && ev.IsReadable():
		r.read(ev.Conn)
	case ev.IsWritable():
		r.handler.OnWrite(ev.Conn, r)
	default:
		if interest&api.InterestAccept == 0 {
			r.handler.OnClose(ev.Conn)
		}
	}
}

func (r *Reactor) accept(ln api.Conn) {
	conn, err := sockAccept(ln)
	if err != nil {
		if isWouldBlock(err) {
			return
		}
		r.handler.OnError(ln, fmt.Errorf("accept: %w", err))
		return
	}
	r.handler.OnAccept(conn)
}

// read fills a pooled 4096-byte buffer from the channel. A zero-length read
// is the transport's peer-close convention and surfaces as OnClose, never
// as an error. The buffer returns to the pool when the callback returns.
func (r *Reactor) read(conn api.Conn) {
	buf := r.bufs.GetBuffer()
	defer r.bufs.PutBuffer(buf)

	n, err := sockRead(conn, buf)
	switch {
	case err != nil && isWouldBlock(err):
		// Spurious readiness.
	case err != nil && isClosedConn(err):
		r.handler.OnClose(conn)
	case err != nil:
		r.handler.OnError(conn, fmt.Errorf("read: %w", err))
	case n == 0:
		r.handler.OnClose(conn)
	default:
		r.handler.OnRead(conn, buf[:n])
	}
}
