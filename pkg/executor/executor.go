package executor

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/taskloop/pkg/common/validation"
	"github.com/vnykmshr/taskloop/pkg/metrics"
	"github.com/vnykmshr/taskloop/pkg/streaming/channel"
)

const moduleName = "executor"

// DefaultWakeCapacity bounds the number of outstanding wake notifications.
const DefaultWakeCapacity = 10000

// Config holds configuration options for creating an Executor.
type Config struct {
	// Name labels the executor in metrics.
	Name string

	// WakeCapacity is the capacity of the wake channel.
	// Zero selects DefaultWakeCapacity.
	WakeCapacity int

	// Requeue selects what happens to a task that returned Pending.
	Requeue RequeuePolicy

	// Overflow selects what Wake does when the wake channel is full.
	Overflow OverflowPolicy

	// Panics selects how the run loop reacts to a panicking task.
	Panics PanicPolicy

	// OnPanic is called for every task panic, under either PanicPolicy.
	OnPanic func(err *PanicError)

	// OnOverflow is called with the task id of every wake discarded under
	// OverflowDrop. It may run on any goroutine that calls Wake.
	OnOverflow func(taskID uint64)

	// Metrics enables Prometheus instrumentation when non-nil.
	Metrics *metrics.Registry
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		Name:         "executor",
		WakeCapacity: DefaultWakeCapacity,
		Requeue:      RequeueOnWake,
		Overflow:     OverflowSpill,
		Panics:       PanicFailFast,
	}
}

func (c *Config) validate() error {
	if c.Name == "" {
		c.Name = DefaultConfig().Name
	}
	if c.WakeCapacity == 0 {
		c.WakeCapacity = DefaultWakeCapacity
	}
	if err := validation.ValidatePositive(moduleName, "WakeCapacity", c.WakeCapacity); err != nil {
		return err
	}
	if err := validation.ValidateOneOf(moduleName, "Requeue", c.Requeue, RequeueOnWake, RequeueEager); err != nil {
		return err
	}
	if err := validation.ValidateOneOf(moduleName, "Overflow", c.Overflow, OverflowSpill, OverflowDrop, OverflowPanic); err != nil {
		return err
	}
	return validation.ValidateOneOf(moduleName, "Panics", c.Panics, PanicFailFast, PanicIsolate)
}

// Stats is a point-in-time snapshot of executor counters.
type Stats struct {
	Spawned   int64
	Polls     int64
	Completed int64
	Panics    int64

	// Live counts spawned tasks that have neither completed nor panicked.
	Live int64

	WakesDelivered  int64
	WakesNotified   int64
	WakesCoalesced  int64
	WakesIgnored    int64
	WakesSpilled    int64
	WakesDropped    int64
	WakesAfterClose int64

	// Queued is the ready-queue length; WakeBacklog the wake-channel length.
	Queued      int
	WakeBacklog int
}

// Executor is a single-threaded cooperative scheduler.
//
// Spawn may be called from any goroutine. Run drives the spawned futures:
// it moves woken tasks from the wake channel into the ready queue, resumes
// the task at the head of the queue once, and repeats. Only one run loop may
// be active at a time, so a Future is never polled concurrently.
type Executor struct {
	config Config

	queue  readyQueue
	wakeCh channel.BackpressureChannel[*task]

	// notify holds at most one pending "work arrived" signal for RunContext.
	notify chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	closed    atomic.Bool
	running   atomic.Bool

	nextID    atomic.Uint64
	live      atomic.Int64
	spawned   atomic.Int64
	polls     atomic.Int64
	completed atomic.Int64
	panics    atomic.Int64
	wakes     [numWakeOutcomes]atomic.Int64

	inst *instrumentation
}

// New creates an Executor with DefaultConfig.
func New() *Executor {
	e, err := NewWithConfig(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// NewWithConfig creates an Executor with the given configuration.
func NewWithConfig(config Config) (*Executor, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	e := &Executor{
		config: config,
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
		inst:   newInstrumentation(config.Metrics, config.Name),
	}
	e.wakeCh = channel.NewWithConfig[*task](channel.Config{
		BufferSize: config.WakeCapacity,
		Strategy:   channel.Error,
		Name:       config.Name + "_wake",
		Metrics:    config.Metrics,
	})
	return e, nil
}

// Spawn registers f and places it at the tail of the ready queue. It never
// polls f and never blocks.
func (e *Executor) Spawn(f Future) error {
	_, err := e.SpawnWithWaker(f)
	return err
}

// SpawnFunc is Spawn for a plain function.
func (e *Executor) SpawnFunc(fn func(w *Waker) Poll) error {
	if fn == nil {
		return e.Spawn(nil)
	}
	return e.Spawn(FutureFunc(fn))
}

// SpawnWithWaker is Spawn that also returns the task's Waker, so external
// event sources can be wired up before the first resume.
func (e *Executor) SpawnWithWaker(f Future) (*Waker, error) {
	if f == nil {
		return nil, validation.ValidateNotNil(moduleName, "future", nil)
	}
	if ff, ok := f.(FutureFunc); ok && ff == nil {
		return nil, validation.ValidateNotNil(moduleName, "future", nil)
	}
	if e.closed.Load() {
		return nil, ErrClosed
	}

	t := newTask(e, e.nextID.Add(1), f)
	live := e.live.Add(1)
	e.spawned.Add(1)
	e.queue.push(t)
	e.signal()
	e.inst.spawn(live)
	return &t.waker, nil
}

// Run resumes tasks until the ready queue and the wake channel are both
// empty at the same observation, then returns. Tasks parked waiting for a
// wake, or spawned after Run returned, need another Run.
//
// Run returns ErrAlreadyRunning if another run loop is active, ErrClosed if
// the executor is closed, and a *PanicError when a task panics under
// PanicFailFast.
func (e *Executor) Run() error {
	return e.loop(nil)
}

// RunContext is the blocking variant of Run. When nothing is ready it waits
// for a spawn or a wake instead of returning, and only returns nil once every
// spawned task has completed. It returns ctx.Err() when ctx is done and
// ErrClosed if the executor is closed meanwhile.
func (e *Executor) RunContext(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return e.loop(ctx)
}

func (e *Executor) loop(ctx context.Context) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if !e.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	for {
		if e.closed.Load() {
			return ErrClosed
		}
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		e.drain()

		t := e.queue.pop()
		if t == nil {
			if ctx == nil || e.live.Load() == 0 {
				return nil
			}
			select {
			case <-e.notify:
			case <-e.done:
				return ErrClosed
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		if err := e.resume(t); err != nil {
			return err
		}
	}
}

// drain moves every pending wake into the ready queue.
func (e *Executor) drain() {
	for {
		t, ok, err := e.wakeCh.TryReceive()
		if !ok || err != nil {
			return
		}
		e.queue.push(t)
	}
}

// resume polls t once and routes it according to the result.
func (e *Executor) resume(t *task) error {
	if !t.state.CompareAndSwap(stateQueued, stateRunning) {
		// Stale entry for a task that already finished.
		return nil
	}

	start := time.Now()
	result, perr := e.poll(t)
	e.polls.Add(1)
	e.inst.poll(time.Since(start), e.queue.len())

	if perr != nil {
		e.finish(t, true)
		if e.config.OnPanic != nil {
			e.config.OnPanic(perr)
		}
		if e.config.Panics == PanicFailFast {
			return perr
		}
		return nil
	}

	if result == Ready {
		e.finish(t, false)
		return nil
	}

	if e.config.Requeue == RequeueEager {
		t.state.Store(stateQueued)
		e.queue.push(t)
		return nil
	}
	if t.state.CompareAndSwap(stateRunning, stateIdle) {
		return nil
	}
	// Woken while running.
	t.state.Store(stateQueued)
	e.queue.push(t)
	return nil
}

func (e *Executor) poll(t *task) (result Poll, perr *PanicError) {
	defer func() {
		if r := recover(); r != nil {
			perr = &PanicError{TaskID: t.id, Value: r, Stack: debug.Stack()}
		}
	}()
	return t.future.Poll(&t.waker), nil
}

func (e *Executor) finish(t *task, panicked bool) {
	t.state.Store(stateDone)
	t.future = nil
	live := e.live.Add(-1)
	if panicked {
		e.panics.Add(1)
	} else {
		e.completed.Add(1)
	}
	e.inst.finish(panicked, live)
}

// deliver hands a freshly queued task to the run loop.
func (e *Executor) deliver(t *task) {
	err := e.wakeCh.TrySend(t)
	switch {
	case err == nil:
		e.recordWake(wakeDelivered)
		e.signal()
	case errors.Is(err, channel.ErrChannelClosed):
		e.recordWake(wakeClosed)
	default:
		e.overflow(t)
	}
}

func (e *Executor) overflow(t *task) {
	switch e.config.Overflow {
	case OverflowDrop:
		t.state.CompareAndSwap(stateQueued, stateIdle)
		e.recordWake(wakeDropped)
		if e.config.OnOverflow != nil {
			e.config.OnOverflow(t.id)
		}
	case OverflowPanic:
		panic(fmt.Errorf("%w: task %d", ErrChannelOverflow, t.id))
	default:
		e.queue.push(t)
		e.recordWake(wakeSpilled)
		e.signal()
	}
}

func (e *Executor) recordWake(o wakeOutcome) {
	e.wakes[o].Add(1)
	e.inst.wake(o)
}

func (e *Executor) signal() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Close tears the executor down. Queued tasks are dropped, later Spawn and
// Run calls return ErrClosed, and outstanding Wakers become no-ops.
// Close is idempotent.
func (e *Executor) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		_ = e.wakeCh.Close()
		close(e.done)
		e.queue.clear()
	})
	return nil
}

// Len returns the number of tasks in the ready queue.
func (e *Executor) Len() int {
	return e.queue.len()
}

// Stats returns a snapshot of the executor counters.
func (e *Executor) Stats() Stats {
	return Stats{
		Spawned:         e.spawned.Load(),
		Polls:           e.polls.Load(),
		Completed:       e.completed.Load(),
		Panics:          e.panics.Load(),
		Live:            e.live.Load(),
		WakesDelivered:  e.wakes[wakeDelivered].Load(),
		WakesNotified:   e.wakes[wakeNotified].Load(),
		WakesCoalesced:  e.wakes[wakeCoalesced].Load(),
		WakesIgnored:    e.wakes[wakeIgnored].Load(),
		WakesSpilled:    e.wakes[wakeSpilled].Load(),
		WakesDropped:    e.wakes[wakeDropped].Load(),
		WakesAfterClose: e.wakes[wakeClosed].Load(),
		Queued:          e.queue.len(),
		WakeBacklog:     e.wakeCh.Len(),
	}
}

// IsClosed reports whether Close has been called.
func (e *Executor) IsClosed() bool {
	return e.closed.Load()
}
