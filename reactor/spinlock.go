// File: reactor/spinlock.go
// Author: momentics <momentics@gmail.com>
//
// Minimal CAS spin lock guarding the task mailbox.

package reactor

import (
	"runtime"

	"go.uber.org/atomic"
)

// SpinLock is a mutual-exclusion primitive for very short critical sections.
// The zero value is an unlocked lock. Not reentrant.
type SpinLock struct {
	word atomic.Bool
}

// Lock spins until the lock is acquired, yielding the processor between
// attempts.
func (l *SpinLock) Lock() {
	for !l.word.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	l.word.Store(false)
}
