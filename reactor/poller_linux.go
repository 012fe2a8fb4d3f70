//go:build linux
// +build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux epoll(7) poller with an eventfd wake channel. The registration table
// is owned by the loop goroutine; only Wake and Close may be called from
// other goroutines.

package reactor

import (
	"fmt"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-reactor/api"
)

type epollPoller struct {
	epfd   int
	wakefd int
	regs   map[api.Conn]api.Interest
	raw    []unix.EpollEvent
	closed atomic.Bool
}

// NewPoller opens an epoll instance plus an eventfd used to interrupt a
// parked EpollWait.
func NewPoller() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	p := &epollPoller{
		epfd:   epfd,
		wakefd: wakefd,
		regs:   make(map[api.Conn]api.Interest),
		raw:    make([]unix.EpollEvent, 128),
	}
	if err := p.attachWake(epfd); err != nil {
		unix.Close(epfd)
		unix.Close(wakefd)
		return nil, err
	}
	return p, nil
}

func (p *epollPoller) attachWake(epfd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(p.wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, p.wakefd, &ev); err != nil {
		return fmt.Errorf("epoll ctl add wakefd: %w", err)
	}
	return nil
}

// interestToEpoll translates an interest set into an epoll event mask.
// EPOLLERR and EPOLLHUP are always reported and never requested.
func interestToEpoll(interest api.Interest) uint32 {
	var events uint32
	if interest&(api.InterestAccept|api.InterestRead) != 0 {
		events |= unix.EPOLLIN | unix.EPOLLPRI
	}
	if interest&api.InterestWrite != 0 {
		events |= unix.EPOLLOUT
	}
	return events
}

func epollToEventType(events uint32) api.EventType {
	var t api.EventType
	if events&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		t |= api.EventReadable
	}
	if events&unix.EPOLLOUT != 0 {
		t |= api.EventWritable
	}
	if events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		t |= api.EventErrored
	}
	return t
}

func (p *epollPoller) Add(conn api.Conn, interest api.Interest) error {
	ev := unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(conn)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(conn), &ev); err != nil {
		return fmt.Errorf("epoll ctl add: %w", err)
	}
	p.regs[conn] = interest
	return nil
}

func (p *epollPoller) Mod(conn api.Conn, interest api.Interest) error {
	ev := unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(conn)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, int(conn), &ev); err != nil {
		return fmt.Errorf("epoll ctl mod: %w", err)
	}
	p.regs[conn] = interest
	return nil
}

func (p *epollPoller) Del(conn api.Conn) error {
	delete(p.regs, conn)
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(conn), nil)
	// A closed fd leaves the epoll set on its own; the table entry is all
	// that remains to drop.
	if err == unix.EBADF || err == unix.ENOENT {
		return nil
	}
	if err != nil {
		return fmt.Errorf("epoll ctl del: %w", err)
	}
	return nil
}

func (p *epollPoller) Interest(conn api.Conn) (api.Interest, bool) {
	interest, ok := p.regs[conn]
	return interest, ok
}

func (p *epollPoller) Snapshot() map[api.Conn]api.Interest {
	out := make(map[api.Conn]api.Interest, len(p.regs))
	for conn, interest := range p.regs {
		out[conn] = interest
	}
	return out
}

func (p *epollPoller) Wait(events []api.Event) (int, error) {
retry:
	n, err := unix.EpollWait(p.epfd, p.raw, -1)
	if err != nil {
		if err == unix.EINTR {
			goto retry
		}
		if p.closed.Load() {
			return 0, api.ErrPollerClosed
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}
	out := 0
	for i := 0; i < n && out < len(events); i++ {
		raw := p.raw[i]
		if int(raw.Fd) == p.wakefd {
			p.drainWake()
			continue
		}
		events[out] = api.Event{
			Conn: api.Conn(raw.Fd),
			Type: epollToEventType(raw.Events),
		}
		out++
	}
	return out, nil
}

// drainWake resets the eventfd counter so the wake channel re-arms.
func (p *epollPoller) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(p.wakefd, buf[:])
}

func (p *epollPoller) Wake() error {
	if p.closed.Load() {
		return api.ErrPollerClosed
	}
	var one [8]byte
	one[0] = 1
	_, err := unix.Write(p.wakefd, one[:])
	// EAGAIN means the counter is saturated and a wake is already pending.
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("wake: %w", err)
	}
	return nil
}

func (p *epollPoller) Rebuild() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return fmt.Errorf("rebuild epoll create: %w", err)
	}
	if err := p.attachWake(epfd); err != nil {
		unix.Close(epfd)
		return fmt.Errorf("rebuild: %w", err)
	}
	for conn, interest := range p.regs {
		ev := unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(conn)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, int(conn), &ev); err != nil {
			if err == unix.EBADF {
				// Registration no longer valid; the channel died
				// since it was registered.
				delete(p.regs, conn)
				continue
			}
			// A live registration could not be moved. Keep the old
			// handle and the full table; the caller retries on the
			// next degenerate wakeup.
			unix.Close(epfd)
			return fmt.Errorf("rebuild move registration: %w", err)
		}
	}
	old := p.epfd
	p.epfd = epfd
	if err := unix.Close(old); err != nil {
		return fmt.Errorf("rebuild close old: %w", err)
	}
	return nil
}

func (p *epollPoller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	// Unpark a waiter before tearing the handles down; a syscall in flight
	// keeps the epoll description alive until it returns.
	var one [8]byte
	one[0] = 1
	_, _ = unix.Write(p.wakefd, one[:])

	err := unix.Close(p.epfd)
	if cerr := unix.Close(p.wakefd); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("poller close: %w", err)
	}
	return nil
}
