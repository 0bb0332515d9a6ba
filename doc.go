/*
Package taskloop provides a cooperative, single-threaded task executor for Go
together with the concurrency building blocks it is made of.

Executor (pkg/executor):
  - Spawn suspendable tasks from any goroutine
  - Drive them with Run or RunContext on a single goroutine
  - Wakers requeue parked tasks, deduplicated and safe in every phase

Wake sources (pkg/wakesource):
  - Event: in-process broadcast notification
  - Delay: timer-based wake
  - Cron: robfig/cron schedules
  - RedisEvent: Redis Pub/Sub messages

Building blocks:
  - streaming/channel: bounded channel with backpressure strategies
  - actor: named actors with bounded mailboxes
  - lockfree/stack: lock-free Treiber stack
  - scheduling/workerpool: fixed worker pool stream mapper
  - metrics: Prometheus instrumentation shared by every component

Example usage:

	import (
		"github.com/vnykmshr/taskloop/pkg/executor"
		"github.com/vnykmshr/taskloop/pkg/wakesource"
	)

	exec := executor.New()
	defer exec.Close()

	_ = exec.Spawn(wakesource.Delay(10 * time.Millisecond))
	_ = exec.SpawnFunc(func(w *executor.Waker) executor.Poll {
		return executor.Ready
	})

	if err := exec.RunContext(ctx); err != nil {
		log.Fatal(err)
	}
*/
package taskloop
