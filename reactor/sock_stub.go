//go:build !linux
// +build !linux

// File: reactor/sock_stub.go
// Author: momentics <momentics@gmail.com>
//
// Socket operation stubs for unsupported platforms.

package reactor

import "github.com/momentics/hioload-reactor/api"

func sockSetNonblock(api.Conn) error { return api.ErrNotSupported }

func sockAccept(api.Conn) (api.Conn, error) { return api.NoConn, api.ErrNotSupported }

func sockRead(api.Conn, []byte) (int, error) { return 0, api.ErrNotSupported }

func isWouldBlock(error) bool { return false }

func isClosedConn(error) bool { return false }
