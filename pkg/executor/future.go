package executor

import "fmt"

// Poll is the outcome of resuming a Future once.
type Poll int

const (
	// Pending means the computation has more work and must be resumed again.
	Pending Poll = iota

	// Ready means the computation finished. It is never resumed again.
	Ready
)

func (p Poll) String() string {
	switch p {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("poll(%d)", int(p))
	}
}

// Future is a suspendable computation driven by an Executor.
//
// Poll advances the computation by one step. It must not block: when the
// computation cannot make progress it returns Pending, after arranging for
// w.Wake to be called once progress is possible again. The executor never
// calls Poll on the same Future from two goroutines at once, and never calls
// it again after it returned Ready.
type Future interface {
	Poll(w *Waker) Poll
}

// FutureFunc adapts an ordinary function to the Future interface.
type FutureFunc func(w *Waker) Poll

// Poll implements Future.
func (f FutureFunc) Poll(w *Waker) Poll {
	return f(w)
}

// Waker is the handle a Future uses to ask for rescheduling.
//
// Wake may be called from any goroutine, any number of times, at any point in
// the task's life: before its first resume, while it is being resumed, after
// it completed, and after the executor was closed. It never blocks and never
// panics, except under OverflowPanic when the wake channel is full.
type Waker struct {
	t *task
}

// Wake requests that the task be resumed.
func (w *Waker) Wake() {
	if w == nil || w.t == nil {
		return
	}
	w.t.wake()
}

// TaskID returns the executor-assigned id of the task this Waker belongs to.
func (w *Waker) TaskID() uint64 {
	if w == nil || w.t == nil {
		return 0
	}
	return w.t.id
}
