// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reactor tests that need real sockets: the registration path, the read
// dispatch branches, and an end-to-end accept/read/close lifecycle over the
// epoll poller.

package reactor

import (
	"fmt"
	"net"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-reactor/api"
	"github.com/momentics/hioload-reactor/fake"
)

func waitUntil(t *testing.T, d time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newSocketPair(t *testing.T) (api.Conn, api.Conn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	t.Cleanup(func() {
		unix.Close(fds[0])
		unix.Close(fds[1])
	})
	return api.Conn(fds[0]), api.Conn(fds[1])
}

func newTCPListener(t *testing.T) (api.Conn, string) {
	t.Helper()
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socket: %v", err)
	}
	t.Cleanup(func() { unix.Close(fd) })
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		t.Fatalf("setsockopt: %v", err)
	}
	sa := &unix.SockaddrInet4{Addr: [4]byte{127, 0, 0, 1}}
	if err := unix.Bind(fd, sa); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := unix.Listen(fd, 128); err != nil {
		t.Fatalf("listen: %v", err)
	}
	bound, err := unix.Getsockname(fd)
	if err != nil {
		t.Fatalf("getsockname: %v", err)
	}
	port := bound.(*unix.SockaddrInet4).Port
	return api.Conn(fd), fmt.Sprintf("127.0.0.1:%d", port)
}

func TestRegisterRecordsRequestedInterest(t *testing.T) {
	r, fp, h := newFakeReactor(t)
	c0, _ := newSocketPair(t)
	ln, _ := newTCPListener(t)

	r.RegisterConn(c0)
	r.runOnce()
	r.RegisterListener(ln)
	r.runOnce()

	if got, ok := fp.Interest(c0); !ok || got != api.InterestRead {
		t.Fatalf("connection interest = %v (registered=%v), want read", got, ok)
	}
	if got, ok := fp.Interest(ln); !ok || got != api.InterestAccept {
		t.Fatalf("listener interest = %v (registered=%v), want accept", got, ok)
	}
	if len(h.Errors()) != 0 {
		t.Fatalf("registration reported errors: %v", h.Errors())
	}

	// The channels were switched to non-blocking mode.
	flags, err := unix.FcntlInt(uintptr(c0), unix.F_GETFL, 0)
	if err != nil {
		t.Fatalf("isnonblock: %v", err)
	}
	nb := flags&unix.O_NONBLOCK != 0
	if !nb {
		t.Fatal("registered channel left in blocking mode")
	}
}

func TestRegisterBadChannelReportsErrorAndLoopSurvives(t *testing.T) {
	r, _, h := newFakeReactor(t)

	// An fd that does not exist fails the mode switch.
	r.RegisterConn(api.Conn(1 << 20))
	r.runOnce()

	errs := h.Errors()
	if len(errs) == 0 {
		t.Fatal("bad channel registration reported no error")
	}
	if errs[0].Conn != api.Conn(1<<20) {
		t.Fatalf("error bound to %d, want the failing channel", errs[0].Conn)
	}

	// The fault is channel-scoped; the loop keeps serving tasks.
	ran := false
	r.Submit(func() { ran = true })
	r.runOnce()
	if !ran {
		t.Fatal("loop stopped serving tasks after a channel fault")
	}
}

func TestDispatchReadableDeliversBytes(t *testing.T) {
	r, fp, h := newFakeReactor(t)
	local, peer := newSocketPair(t)
	_ = fp.Add(local, api.InterestRead)

	payload := []byte("ping over the pair")
	if _, err := unix.Write(int(peer), payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	fp.PushEvents(api.Event{Conn: local, Type: api.EventReadable})
	r.runOnce()

	reads := h.Reads()
	if len(reads) != 1 || reads[0].Conn != local || string(reads[0].Data) != string(payload) {
		t.Fatalf("reads = %v", reads)
	}
}

func TestDispatchZeroByteReadSurfacesClose(t *testing.T) {
	r, fp, h := newFakeReactor(t)
	local, peer := newSocketPair(t)
	_ = fp.Add(local, api.InterestRead)

	unix.Close(int(peer))
	fp.PushEvents(api.Event{Conn: local, Type: api.EventReadable})
	r.runOnce()

	if got := h.Closes(); len(got) != 1 || got[0] != local {
		t.Fatalf("closes = %v, want exactly one for %d", got, local)
	}
	if len(h.Errors()) != 0 {
		t.Fatalf("peer close reported as error: %v", h.Errors())
	}
	if len(h.Reads()) != 0 {
		t.Fatalf("peer close produced reads: %v", h.Reads())
	}
}

func TestReactorAcceptReadCloseLifecycle(t *testing.T) {
	h := fake.NewFakeHandler()

	var r *Reactor
	h.AcceptFunc = func(conn api.Conn) { r.RegisterConn(conn) }
	h.CloseFunc = func(conn api.Conn) { r.CloseConn(conn) }

	r, err := New(h)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	defer func() {
		r.Stop()
		<-done
	}()

	ln, addr := newTCPListener(t)
	r.RegisterListener(ln)

	client, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	waitUntil(t, 5*time.Second, "accept", func() bool { return len(h.Accepts()) == 1 })
	accepted := h.Accepts()[0]
	if accepted == ln || accepted == api.NoConn {
		t.Fatalf("accepted handle %d is not a fresh connection", accepted)
	}
	defer unix.Close(int(accepted))

	if _, err := client.Write([]byte("hello")); err != nil {
		t.Fatalf("client write: %v", err)
	}
	waitUntil(t, 5*time.Second, "read", func() bool { return len(h.Reads()) == 1 })
	if got := h.Reads()[0]; got.Conn != accepted || string(got.Data) != "hello" {
		t.Fatalf("read = %+v", got)
	}

	client.Close()
	waitUntil(t, 5*time.Second, "close", func() bool { return len(h.Closes()) == 1 })
	if got := h.Closes()[0]; got != accepted {
		t.Fatalf("close for %d, want %d", got, accepted)
	}

	// The listening channel itself saw neither reads nor writes.
	for _, rc := range h.Reads() {
		if rc.Conn == ln {
			t.Fatal("OnRead fired for the listening channel")
		}
	}
	for _, wc := range h.Writes() {
		if wc == ln {
			t.Fatal("OnWrite fired for the listening channel")
		}
	}
	if len(h.Accepts()) != 1 {
		t.Fatalf("accepts = %v, want exactly one", h.Accepts())
	}
}

func TestReactorWritableRoundTrip(t *testing.T) {
	h := fake.NewFakeHandler()

	var r *Reactor
	h.WriteFunc = func(conn api.Conn, rr api.Reactor) {
		_, _ = unix.Write(int(conn), []byte("pong"))
		rr.DisableWrite(conn)
	}

	r, err := New(h)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- r.Run() }()
	defer func() {
		r.Stop()
		<-done
	}()

	local, peer := newSocketPair(t)
	r.RegisterConn(local)
	registered := make(chan struct{})
	r.Submit(func() { close(registered) })
	select {
	case <-registered:
	case <-time.After(5 * time.Second):
		t.Fatal("registration did not drain")
	}

	r.EnableWrite(local)
	waitUntil(t, 5*time.Second, "write callback", func() bool { return len(h.Writes()) >= 1 })

	buf := make([]byte, 16)
	if err := unix.SetNonblock(int(peer), false); err != nil {
		t.Fatalf("setnonblock: %v", err)
	}
	n, err := unix.Read(int(peer), buf)
	if err != nil || string(buf[:n]) != "pong" {
		t.Fatalf("peer read = %q, %v", buf[:n], err)
	}
}
