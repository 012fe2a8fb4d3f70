// Package pool
// Author: momentics <momentics@gmail.com>
//
// Fixed-size byte buffer pooling for the reactor's per-event read buffers.
// Buffers are recycled through sync.Pool; a buffer handed to a handler
// callback is valid only for the duration of the callback.
package pool
