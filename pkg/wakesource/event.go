package wakesource

import (
	"sync"

	"github.com/vnykmshr/taskloop/pkg/executor"
)

// Event is a broadcast notification. Every future returned by Await
// completes on the first Notify that happens after its first poll.
type Event struct {
	mu      sync.Mutex
	gen     uint64
	waiters map[*executor.Waker]struct{}
}

// NewEvent creates an Event with no waiters.
func NewEvent() *Event {
	return &Event{waiters: make(map[*executor.Waker]struct{})}
}

// Notify wakes every task currently waiting on the event.
func (e *Event) Notify() {
	e.mu.Lock()
	e.gen++
	waiters := e.waiters
	e.waiters = make(map[*executor.Waker]struct{})
	e.mu.Unlock()

	for w := range waiters {
		w.Wake()
	}
}

// Waiters returns the number of tasks parked on the event.
func (e *Event) Waiters() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.waiters)
}

// Await returns a future that is Ready after the next Notify.
func (e *Event) Await() executor.Future {
	return &eventFuture{ev: e}
}

type eventFuture struct {
	ev    *Event
	armed bool
	gen   uint64
}

func (f *eventFuture) Poll(w *executor.Waker) executor.Poll {
	f.ev.mu.Lock()
	defer f.ev.mu.Unlock()

	if !f.armed {
		f.armed = true
		f.gen = f.ev.gen
	} else if f.ev.gen != f.gen {
		return executor.Ready
	}
	f.ev.waiters[w] = struct{}{}
	return executor.Pending
}
