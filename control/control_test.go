// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import (
	"sync"
	"testing"
)

func TestMetricsRegistryCounters(t *testing.T) {
	mr := NewMetricsRegistry()

	if got := mr.Counter("loop.iterations"); got != 0 {
		t.Fatalf("absent counter = %d, want 0", got)
	}
	mr.Inc("loop.iterations", 1)
	mr.Inc("loop.iterations", 2)
	if got := mr.Counter("loop.iterations"); got != 3 {
		t.Fatalf("counter = %d, want 3", got)
	}

	mr.Set("backend", "epoll")
	snap := mr.GetSnapshot()
	if snap["loop.iterations"] != int64(3) || snap["backend"] != "epoll" {
		t.Fatalf("snapshot = %v", snap)
	}
	if mr.Updated().IsZero() {
		t.Fatal("Updated() not set")
	}

	// Snapshot is a copy.
	snap["backend"] = "mutated"
	if got := mr.GetSnapshot()["backend"]; got != "epoll" {
		t.Fatalf("snapshot mutation leaked: %v", got)
	}
}

func TestMetricsRegistryConcurrentInc(t *testing.T) {
	mr := NewMetricsRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				mr.Inc("hits", 1)
			}
		}()
	}
	wg.Wait()
	if got := mr.Counter("hits"); got != 4000 {
		t.Fatalf("hits = %d, want 4000", got)
	}
}

func TestDebugProbes(t *testing.T) {
	dp := NewDebugProbes()
	dp.RegisterProbe("registrations", func() any { return 7 })

	if got, ok := dp.Probe("registrations"); !ok || got != 7 {
		t.Fatalf("Probe = %v, %v", got, ok)
	}
	if _, ok := dp.Probe("missing"); ok {
		t.Fatal("unknown probe reported present")
	}
	state := dp.DumpState()
	if state["registrations"] != 7 {
		t.Fatalf("DumpState = %v", state)
	}
}
