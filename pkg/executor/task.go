package executor

import "sync/atomic"

// Task scheduling states.
//
//	idle     --Wake-->        queued
//	queued   --run loop-->    running
//	running  --Wake-->        notified
//	running  --Pending-->     idle | queued (eager)
//	notified --Pending-->     queued
//	running/notified --Ready/panic--> done
const (
	stateIdle int32 = iota
	stateQueued
	stateRunning
	stateNotified
	stateDone
)

// task is one spawned Future. It is shared between the ready queue, the
// wake channel and every *Waker the future captured; it is collected once
// none of them refer to it.
type task struct {
	id     uint64
	exec   *Executor
	future Future
	waker  Waker
	state  atomic.Int32
}

func newTask(e *Executor, id uint64, f Future) *task {
	t := &task{
		id:     id,
		exec:   e,
		future: f,
	}
	t.waker.t = t
	t.state.Store(stateQueued)
	return t
}

// wake moves the task towards the ready queue. At most one wake per
// suspension reaches the wake channel; the rest are coalesced.
func (t *task) wake() {
	for {
		switch s := t.state.Load(); s {
		case stateIdle:
			if t.state.CompareAndSwap(stateIdle, stateQueued) {
				t.exec.deliver(t)
				return
			}
		case stateRunning:
			if t.state.CompareAndSwap(stateRunning, stateNotified) {
				t.exec.recordWake(wakeNotified)
				return
			}
		case stateDone:
			t.exec.recordWake(wakeIgnored)
			return
		default:
			t.exec.recordWake(wakeCoalesced)
			return
		}
	}
}
