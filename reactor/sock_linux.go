//go:build linux
// +build linux

// File: reactor/sock_linux.go
// Author: momentics <momentics@gmail.com>
//
// Raw socket operations the dispatcher needs on Linux.

package reactor

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-reactor/api"
)

// sockSetNonblock switches a channel into non-blocking mode.
func sockSetNonblock(conn api.Conn) error {
	return unix.SetNonblock(int(conn), true)
}

// sockAccept takes one pending connection off a listening channel and
// returns the raw accepted handle.
func sockAccept(ln api.Conn) (api.Conn, error) {
	fd, _, err := unix.Accept(int(ln))
	if err != nil {
		return api.NoConn, err
	}
	return api.Conn(fd), nil
}

// sockRead performs a non-blocking read into buf.
func sockRead(conn api.Conn, buf []byte) (int, error) {
	return unix.Read(int(conn), buf)
}

// isWouldBlock reports a spurious readiness: the operation would block.
func isWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN)
}

// isClosedConn reports that the handle itself is gone.
func isClosedConn(err error) bool {
	return errors.Is(err, unix.EBADF)
}
