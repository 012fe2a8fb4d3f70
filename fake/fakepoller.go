// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/momentics/hioload-reactor/api"
)

// FakePoller is a scriptable readiness multiplexer. Tests push event
// batches with PushEvents; Wait hands one batch per call and otherwise
// parks until woken or closed. An empty pushed batch simulates a
// degenerate wakeup.
type FakePoller struct {
	mu      sync.Mutex
	regs    map[api.Conn]api.Interest
	pending [][]api.Event
	waitErr error
	notify  chan struct{}
	done    chan struct{}

	closed   atomic.Bool
	closes   atomic.Int32
	rebuilds atomic.Int32
	wakes    atomic.Int32
}

func NewFakePoller() *FakePoller {
	return &FakePoller{
		regs:   make(map[api.Conn]api.Interest),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// PushEvents scripts one Wait result and unparks a pending waiter.
func (p *FakePoller) PushEvents(events ...api.Event) {
	p.mu.Lock()
	p.pending = append(p.pending, events)
	p.mu.Unlock()
	p.signal()
}

func (p *FakePoller) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *FakePoller) Add(conn api.Conn, interest api.Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs[conn] = interest
	return nil
}

func (p *FakePoller) Mod(conn api.Conn, interest api.Interest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regs[conn] = interest
	return nil
}

func (p *FakePoller) Del(conn api.Conn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.regs, conn)
	return nil
}

func (p *FakePoller) Interest(conn api.Conn) (api.Interest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	interest, ok := p.regs[conn]
	return interest, ok
}

func (p *FakePoller) Snapshot() map[api.Conn]api.Interest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[api.Conn]api.Interest, len(p.regs))
	for conn, interest := range p.regs {
		out[conn] = interest
	}
	return out
}

// SetWaitError makes the next Wait call fail once with err.
func (p *FakePoller) SetWaitError(err error) {
	p.mu.Lock()
	p.waitErr = err
	p.mu.Unlock()
	p.signal()
}

func (p *FakePoller) Wait(events []api.Event) (int, error) {
	for {
		if p.closed.Load() {
			return 0, api.ErrPollerClosed
		}
		p.mu.Lock()
		if err := p.waitErr; err != nil {
			p.waitErr = nil
			p.mu.Unlock()
			return 0, err
		}
		if len(p.pending) > 0 {
			batch := p.pending[0]
			p.pending = p.pending[1:]
			p.mu.Unlock()
			n := copy(events, batch)
			return n, nil
		}
		p.mu.Unlock()
		select {
		case <-p.notify:
			p.mu.Lock()
			empty := len(p.pending) == 0
			p.mu.Unlock()
			if empty {
				// Woken with nothing ready.
				return 0, nil
			}
		case <-p.done:
			return 0, api.ErrPollerClosed
		}
	}
}

func (p *FakePoller) Wake() error {
	if p.closed.Load() {
		return api.ErrPollerClosed
	}
	p.wakes.Inc()
	p.signal()
	return nil
}

func (p *FakePoller) Rebuild() error {
	p.rebuilds.Inc()
	return nil
}

func (p *FakePoller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.closes.Inc()
	close(p.done)
	return nil
}

// Rebuilds reports how many times Rebuild ran.
func (p *FakePoller) Rebuilds() int { return int(p.rebuilds.Load()) }

// Closes reports how many times Close actually closed the poller.
func (p *FakePoller) Closes() int { return int(p.closes.Load()) }

// Wakes reports how many Wake calls succeeded.
func (p *FakePoller) Wakes() int { return int(p.wakes.Load()) }
