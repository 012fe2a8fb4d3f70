// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

// BytePool hands out fixed-size byte buffers recycled through sync.Pool.
// The pool stores slice pointers so recycling does not copy the header
// into the interface.
type BytePool struct {
	pool sync.Pool
	size int
}

// NewBytePool creates a pool of size-byte buffers.
func NewBytePool(size int) *BytePool {
	b := &BytePool{size: size}
	b.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return b
}

// Size reports the fixed buffer size.
func (b *BytePool) Size() int { return b.size }

// GetBuffer returns a full-length buffer from the pool.
func (b *BytePool) GetBuffer() []byte {
	return (*b.pool.Get().(*[]byte))[:b.size]
}

// PutBuffer returns a buffer to the pool. Buffers of a foreign capacity are
// left to the GC.
func (b *BytePool) PutBuffer(buf []byte) {
	if cap(buf) != b.size {
		return
	}
	buf = buf[:b.size]
	b.pool.Put(&buf)
}
