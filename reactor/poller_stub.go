//go:build !linux
// +build !linux

// File: reactor/poller_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub factory for unsupported platforms.

package reactor

import "github.com/momentics/hioload-reactor/api"

// NewPoller returns an error for platforms without a poller backend.
func NewPoller() (Poller, error) {
	return nil, api.ErrNotSupported
}
