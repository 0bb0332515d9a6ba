/*
Package executor implements a minimal cooperative task executor.

An Executor drives user-supplied Futures to completion by resuming them one
step at a time on a single goroutine. A Future that cannot make progress
returns Pending and arranges for its *Waker to be called later, typically
from another goroutine (a timer, an I/O callback, another task). Wakers send
the task back to the executor through a bounded wake channel, so waking
never takes a lock the run loop holds.

Basic usage:

	exec := executor.New()
	defer exec.Close()

	steps := 0
	exec.SpawnFunc(func(w *executor.Waker) executor.Poll {
		steps++
		if steps < 3 {
			w.Wake() // ready to continue right away
			return executor.Pending
		}
		return executor.Ready
	})

	if err := exec.Run(); err != nil {
		log.Fatal(err)
	}

Scheduling:

The ready queue is FIFO. Every resume moves one task from the head of the
queue; a task that stays Pending goes back to the tail, so continuously
ready tasks are resumed round-robin. Whether a Pending task goes back at once
or waits for its Waker is the RequeuePolicy:

  - RequeueOnWake (default): the task is parked until Wake is called.
    A Wake that arrives while the task is being polled is not lost; the task
    is requeued as soon as the poll returns.
  - RequeueEager: the task is requeued immediately, which re-polls tasks
    waiting on slow events in a busy loop.

Each task carries an atomic scheduling state, so any number of Wake calls
between two resumes produce at most one wake-channel entry.

Termination:

Run returns as soon as the ready queue and the wake channel are both empty.
RunContext instead waits for new spawns or wakes and returns once every
spawned task has completed, or when its context is done.

Failure handling:

  - A full wake channel is handled by the OverflowPolicy (spill to the ready
    queue, drop and report, or panic).
  - A panicking Future is handled by the PanicPolicy (stop Run with a
    *PanicError, or report through OnPanic and continue).
  - After Close, Wake is a silent no-op and Spawn returns ErrClosed.

Cancellation, timers, I/O polling and multi-threaded work stealing are not
part of this package; see package wakesource for event sources that wake
tasks.
*/
package executor
