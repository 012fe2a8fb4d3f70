// File: reactor/taskqueue.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe, swap-based mailbox of deferred closures. Tasks are appended
// under a spin lock by any goroutine and consumed by the loop goroutine,
// which swaps the live FIFO for an empty one and runs the drained tasks
// outside the lock.

package reactor

import "github.com/eapache/queue"

type taskQueue struct {
	lock  SpinLock
	queue *queue.Queue
	wake  func()
}

// newTaskQueue creates an empty mailbox. wake is invoked after every
// submission so a parked multiplexer wait picks the task up promptly.
func newTaskQueue(wake func()) *taskQueue {
	return &taskQueue{
		queue: queue.New(),
		wake:  wake,
	}
}

// submit appends a task in FIFO order. Safe from any goroutine.
func (tq *taskQueue) submit(task func()) {
	tq.lock.Lock()
	tq.queue.Add(task)
	tq.lock.Unlock()
	if tq.wake != nil {
		tq.wake()
	}
}

// drainAndRun swaps the live queue for an empty one and executes the drained
// tasks sequentially, in enqueue order. The locked section is the pointer
// swap only; task bodies run unlocked. Tasks submitted by a running task
// land on the fresh queue and run on the next drain. Returns the number of
// tasks executed.
func (tq *taskQueue) drainAndRun() int {
	tq.lock.Lock()
	if tq.queue.Length() == 0 {
		tq.lock.Unlock()
		return 0
	}
	drained := tq.queue
	tq.queue = queue.New()
	tq.lock.Unlock()

	n := 0
	for drained.Length() > 0 {
		task := drained.Remove().(func())
		task()
		n++
	}
	return n
}
