package executor

import "sync"

const minQueueCap = 16

// readyQueue is the FIFO of tasks eligible for their next resume. The run
// loop is its only consumer; Spawn and overflow spilling push from other
// goroutines.
type readyQueue struct {
	mu    sync.Mutex
	buf   []*task
	head  int
	count int
}

func (q *readyQueue) push(t *task) {
	q.mu.Lock()
	if q.count == len(q.buf) {
		q.growLocked()
	}
	q.buf[(q.head+q.count)%len(q.buf)] = t
	q.count++
	q.mu.Unlock()
}

func (q *readyQueue) pop() *task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return nil
	}
	t := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	return t
}

func (q *readyQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *readyQueue) clear() {
	q.mu.Lock()
	q.buf = nil
	q.head = 0
	q.count = 0
	q.mu.Unlock()
}

func (q *readyQueue) growLocked() {
	n := 2 * len(q.buf)
	if n < minQueueCap {
		n = minQueueCap
	}
	buf := make([]*task, n)
	for i := 0; i < q.count; i++ {
		buf[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	q.buf = buf
	q.head = 0
}
