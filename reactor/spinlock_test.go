// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package reactor

import (
	"sync"
	"testing"
)

func TestSpinLockMutualExclusion(t *testing.T) {
	const goroutines = 8
	const iterations = 2000

	var l SpinLock
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				l.Lock()
				total++
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	if total != goroutines*iterations {
		t.Fatalf("lost increments: got %d, want %d", total, goroutines*iterations)
	}
}
