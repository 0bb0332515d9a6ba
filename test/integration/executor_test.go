package integration

import (
	"context"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/taskloop/internal/testutil"
	"github.com/vnykmshr/taskloop/pkg/actor"
	"github.com/vnykmshr/taskloop/pkg/executor"
	"github.com/vnykmshr/taskloop/pkg/lockfree/stack"
	"github.com/vnykmshr/taskloop/pkg/metrics"
	"github.com/vnykmshr/taskloop/pkg/scheduling/workerpool"
	"github.com/vnykmshr/taskloop/pkg/wakesource"
)

// TestWorkerPoolResultsWakeTasks runs blocking work on a worker pool while
// executor tasks wait for the results without blocking the run loop.
func TestWorkerPoolResultsWakeTasks(t *testing.T) {
	exec := executor.New()
	defer exec.Close()

	pool := workerpool.New(4, func(_ context.Context, n int) (int, error) {
		time.Sleep(time.Millisecond)
		return n * n, nil
	})

	const numTasks = 20
	results := make([]atomic.Int64, numTasks)
	events := make([]*wakesource.Event, numTasks)
	var sum atomic.Int64

	for i := 0; i < numTasks; i++ {
		i := i
		events[i] = wakesource.NewEvent()
		wait := events[i].Await()
		submitted := false
		testutil.AssertNoError(t, exec.SpawnFunc(func(w *executor.Waker) executor.Poll {
			if !submitted {
				submitted = true
				// Arm the event before the result can arrive.
				wait.Poll(w)
				if err := pool.Submit(context.Background(), i); err != nil {
					t.Errorf("submit %d: %v", i, err)
					return executor.Ready
				}
				return executor.Pending
			}
			if wait.Poll(w) == executor.Pending {
				return executor.Pending
			}
			sum.Add(results[i].Load())
			return executor.Ready
		}))
	}

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error { return exec.RunContext(ctx) })
	g.Go(func() error {
		for r := range pool.Results() {
			results[r.Item].Store(int64(r.Value))
			events[r.Item].Notify()
		}
		return nil
	})

	testutil.AssertEventually(t, func() bool { return pool.TotalCompleted() == numTasks })
	testutil.AssertEventually(t, func() bool { return exec.Stats().Live == 0 })
	<-pool.Shutdown()
	testutil.AssertNoError(t, g.Wait())

	// Sum of squares 0..19.
	testutil.AssertEqual(t, sum.Load(), int64(2470))
}

// TestActorDrivesExecutor has an actor spawn executor tasks in response to
// messages while the executor is running on another goroutine.
func TestActorDrivesExecutor(t *testing.T) {
	exec := executor.New()
	defer exec.Close()

	sys := actor.NewSystem()
	collected := stack.New[int]()

	var spawnErrs atomic.Int32
	spawner, err := actor.Spawn(sys, "spawner", actor.HandlerFunc[int](func(_ context.Context, n int) {
		steps := 0
		if err := exec.SpawnFunc(func(w *executor.Waker) executor.Poll {
			steps++
			if steps < 3 {
				w.Wake()
				return executor.Pending
			}
			collected.Push(n)
			return executor.Ready
		}); err != nil {
			spawnErrs.Add(1)
		}
	}))
	testutil.AssertNoError(t, err)

	// Keep the run loop alive until every message has been handled.
	var handled atomic.Bool
	gate, err := exec.SpawnWithWaker(executor.FutureFunc(func(*executor.Waker) executor.Poll {
		if handled.Load() {
			return executor.Ready
		}
		return executor.Pending
	}))
	testutil.AssertNoError(t, err)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- exec.RunContext(ctx) }()

	for i := 0; i < 50; i++ {
		testutil.AssertNoError(t, spawner.Send(ctx, i))
	}
	spawner.Stop()
	<-spawner.Done()
	handled.Store(true)
	gate.Wake()

	testutil.AssertNoError(t, <-runErr)
	testutil.AssertNoError(t, sys.Shutdown(ctx))
	testutil.AssertEqual(t, spawnErrs.Load(), int32(0))

	got := collected.Drain()
	slices.Sort(got)
	testutil.AssertEqual(t, len(got), 50)
	testutil.AssertEqual(t, got[0], 0)
	testutil.AssertEqual(t, got[49], 49)
}

// TestSharedMetricsRegistry wires every component to one registry.
func TestSharedMetricsRegistry(t *testing.T) {
	promReg := prometheus.NewRegistry()
	reg := metrics.FromConfig(metrics.Config{
		Enabled:   true,
		Registry:  promReg,
		Namespace: "it",
		Labels:    prometheus.Labels{"suite": "integration"},
	})

	exec, err := executor.NewWithConfig(executor.Config{Name: "it", Metrics: reg})
	testutil.AssertNoError(t, err)
	defer exec.Close()

	for i := 0; i < 5; i++ {
		testutil.AssertNoError(t, exec.Spawn(wakesource.Delay(time.Millisecond)))
	}
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()
	testutil.AssertNoError(t, exec.RunContext(ctx))

	pool, err := workerpool.NewWithConfig(workerpool.Config{WorkerCount: 2, Name: "it", Metrics: reg},
		func(_ context.Context, n int) (int, error) { return n, nil })
	testutil.AssertNoError(t, err)
	for range pool.ProcessStream(ctx, slices.Values([]int{1, 2, 3})) {
	}
	<-pool.Shutdown()

	testutil.AssertEqual(t, promtestutil.ToFloat64(reg.TasksCompleted.WithLabelValues("it")), 5.0)
	testutil.AssertEqual(t, promtestutil.ToFloat64(reg.WorkerPoolItems.WithLabelValues("it", "success")), 3.0)

	count, err := promtestutil.GatherAndCount(promReg, "it_executor_tasks_completed_total")
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, count, 1)
}
