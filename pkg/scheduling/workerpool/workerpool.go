package workerpool

import (
	"context"
	"fmt"
	"iter"
	"runtime/debug"
	"time"
)

// Submit queues item for processing, blocking while the queue is full.
// It returns ctx.Err() if ctx is done first and ErrPoolShutdown once
// Shutdown has been called.
func (p *Pool[T, U]) Submit(ctx context.Context, item T) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Check if context is already canceled before attempting to queue
	if err := ctx.Err(); err != nil {
		return err
	}

	p.submitMu.RLock()
	defer p.submitMu.RUnlock()
	if p.isShutdown {
		return ErrPoolShutdown
	}

	select {
	case p.taskQueue <- item:
		p.totalSubmitted.Add(1)
		p.inst.queued(len(p.taskQueue))
		return nil
	case <-p.shutdownCh:
		return ErrPoolShutdown
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the channel of item results. It is closed once the pool
// has shut down and every accepted item has been processed.
func (p *Pool[T, U]) Results() <-chan Result[T, U] {
	return p.resultQueue
}

// ProcessStream submits every item of seq and yields exactly one Result per
// submitted item, in completion order. Submission stops early when ctx is
// done or the pool shuts down. If the consumer stops iterating, results of
// items already submitted are discarded.
//
// ProcessStream reads Results itself and must not be combined with
// concurrent Submit calls or other Results readers.
func (p *Pool[T, U]) ProcessStream(ctx context.Context, seq iter.Seq[T]) iter.Seq[Result[T, U]] {
	return func(yield func(Result[T, U]) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		var submitted int64
		fed := make(chan int64, 1)
		go func() {
			var n int64
			defer func() { fed <- n }()
			for item := range seq {
				if p.Submit(ctx, item) != nil {
					return
				}
				n++
			}
		}()

		var received int64
		feeding := true
		stopped := false
		for feeding || received < submitted {
			select {
			case n := <-fed:
				submitted = n
				feeding = false
			case r, ok := <-p.resultQueue:
				if !ok {
					return
				}
				received++
				if !stopped && !yield(r) {
					stopped = true
					cancel()
				}
			}
		}
	}
}

// Shutdown stops accepting items and lets the workers finish the queue.
// The returned channel closes once every worker has exited. Results must
// keep being drained until then.
func (p *Pool[T, U]) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		close(p.shutdownCh)

		p.submitMu.Lock()
		p.isShutdown = true
		close(p.taskQueue)
		p.submitMu.Unlock()
	})
	return p.done
}

// ShutdownContext shuts the pool down and waits for the workers. If ctx is
// done first, undelivered results are discarded so the workers can exit,
// and ctx.Err() is returned.
func (p *Pool[T, U]) ShutdownContext(ctx context.Context) error {
	done := p.Shutdown()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		p.abortOnce.Do(func() { close(p.abortCh) })
		<-done
		return ctx.Err()
	}
}

// Size returns the number of workers in the pool.
func (p *Pool[T, U]) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the current number of queued items waiting for a worker.
func (p *Pool[T, U]) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently running the function.
func (p *Pool[T, U]) ActiveWorkers() int {
	return int(p.activeWorkers.Load())
}

// TotalSubmitted returns the number of items accepted by Submit.
func (p *Pool[T, U]) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the number of items whose Result was produced.
func (p *Pool[T, U]) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

// run is the main loop for a worker.
func (w *worker[T, U]) run() {
	defer w.pool.workerWg.Done()

	if w.pool.config.OnWorkerStart != nil {
		w.pool.config.OnWorkerStart(w.id)
	}
	if w.pool.config.OnWorkerStop != nil {
		defer w.pool.config.OnWorkerStop(w.id)
	}

	for item := range w.pool.taskQueue {
		w.sendResult(w.process(item))
	}
}

// sendResult blocks until the result is taken or the pool is aborted.
func (w *worker[T, U]) sendResult(result Result[T, U]) {
	select {
	case w.pool.resultQueue <- result:
	case <-w.pool.abortCh:
	}
}

// process applies the pool function to a single item.
func (w *worker[T, U]) process(item T) (result Result[T, U]) {
	p := w.pool
	start := time.Now()
	active := p.activeWorkers.Add(1)
	p.inst.active(active)

	result = Result[T, U]{Item: item, WorkerID: w.id}

	// Handle panics during execution
	defer func() {
		if r := recover(); r != nil {
			var zero U
			result.Value = zero
			result.Error = fmt.Errorf("%w: %v\nStack trace:\n%s", ErrItemPanicked, r, debug.Stack())
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(w.id, r)
			}
		}

		result.Duration = time.Since(start)
		p.totalCompleted.Add(1)
		p.inst.active(p.activeWorkers.Add(-1))
		p.inst.item(result.Error, result.Duration, len(p.taskQueue))
	}()

	ctx := context.Background()
	if p.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancel()
	}

	result.Value, result.Error = p.fn(ctx, item)
	return result
}
