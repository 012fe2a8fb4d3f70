// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime observability for the reactor: a thread-safe metrics registry for
// loop counters and a debug probe registry for on-demand state dumps.
package control
