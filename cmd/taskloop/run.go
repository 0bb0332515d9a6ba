package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/taskloop/internal/config"
	"github.com/vnykmshr/taskloop/pkg/executor"
	"github.com/vnykmshr/taskloop/pkg/metrics"
	"github.com/vnykmshr/taskloop/pkg/wakesource"
)

var (
	runConfigPath  string
	runTasks       int64
	runSteps       int64
	runSpawners    int64
	runRequeue     string
	runWakeDelay   time.Duration
	runTimeout     time.Duration
	runMetricsAddr string
)

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to a taskloop.toml file")
	runCmd.Flags().Int64Var(&runTasks, "tasks", 0, "number of tasks to spawn")
	runCmd.Flags().Int64Var(&runSteps, "steps", 0, "resumptions each task needs")
	runCmd.Flags().Int64Var(&runSpawners, "spawners", 0, "goroutines spawning tasks concurrently")
	runCmd.Flags().StringVar(&runRequeue, "requeue", "", "requeue policy (wake|eager)")
	runCmd.Flags().DurationVar(&runWakeDelay, "wake-delay", 0, "timer delay before each wake")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "abort the run after this long")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic workload through the executor",
	RunE: func(cmd *cobra.Command, args []string) error {
		applyColorFlag(cmd)

		file := config.Default()
		if runConfigPath != "" {
			var err error
			if file, err = config.Load(runConfigPath); err != nil {
				return err
			}
		}
		applyRunFlags(cmd, &file)

		workload, err := file.WorkloadConfig()
		if err != nil {
			return err
		}

		var reg *metrics.Registry
		var promReg *prometheus.Registry
		if file.Metrics.Enabled {
			promReg = prometheus.NewRegistry()
			mc := file.MetricsConfig()
			mc.Registry = promReg
			reg = metrics.FromConfig(mc)
		}

		execConfig, err := file.ExecutorConfig(reg)
		if err != nil {
			return err
		}
		exec, err := executor.NewWithConfig(execConfig)
		if err != nil {
			return err
		}
		defer exec.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if workload.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, workload.Timeout)
			defer cancel()
		}

		if promReg != nil && file.Metrics.Addr != "" {
			stop := serveMetrics(file.Metrics.Addr, promReg)
			defer stop()
		}

		start := time.Now()
		if err := runWorkload(ctx, exec, workload); err != nil {
			return err
		}
		printReport(cmd.OutOrStdout(), exec.Stats(), time.Since(start))
		return nil
	},
}

func applyRunFlags(cmd *cobra.Command, file *config.File) {
	flags := cmd.Flags()
	if flags.Changed("tasks") {
		file.Workload.Tasks = runTasks
	}
	if flags.Changed("steps") {
		file.Workload.Steps = runSteps
	}
	if flags.Changed("spawners") {
		file.Workload.Spawners = runSpawners
	}
	if flags.Changed("requeue") {
		file.Executor.Requeue = runRequeue
	}
	if flags.Changed("wake-delay") {
		file.Workload.WakeDelay = runWakeDelay
	}
	if flags.Changed("timeout") {
		file.Workload.Timeout = runTimeout
	}
	if flags.Changed("metrics-addr") {
		file.Metrics.Addr = runMetricsAddr
		file.Metrics.Enabled = runMetricsAddr != ""
	}
}

// runWorkload spawns the tasks from several goroutines while the run loop is
// already active, then waits for all of them to finish.
func runWorkload(ctx context.Context, exec *executor.Executor, w config.Workload) error {
	// The gate keeps the run loop alive until every spawner is done.
	var spawning atomic.Bool
	spawning.Store(true)
	gate, err := exec.SpawnWithWaker(executor.FutureFunc(func(*executor.Waker) executor.Poll {
		if spawning.Load() {
			return executor.Pending
		}
		return executor.Ready
	}))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exec.RunContext(gctx)
	})

	var spawners errgroup.Group
	for i := 0; i < w.Spawners; i++ {
		n := w.Tasks / w.Spawners
		if i < w.Tasks%w.Spawners {
			n++
		}
		spawners.Go(func() error {
			for j := 0; j < n; j++ {
				if err := exec.Spawn(newStepTask(w.Steps, w.WakeDelay)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err = spawners.Wait()
	spawning.Store(false)
	gate.Wake()
	if err != nil {
		return err
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// stepTask completes after steps resumptions, sleeping on a timer between
// them.
type stepTask struct {
	remaining int
	delay     time.Duration
	wait      executor.Future
}

func newStepTask(steps int, delay time.Duration) *stepTask {
	return &stepTask{remaining: steps, delay: delay}
}

func (t *stepTask) Poll(w *executor.Waker) executor.Poll {
	for {
		if t.wait != nil {
			if t.wait.Poll(w) == executor.Pending {
				return executor.Pending
			}
			t.wait = nil
		}
		t.remaining--
		if t.remaining <= 0 {
			return executor.Ready
		}
		if t.delay <= 0 {
			// Yield without a timer.
			w.Wake()
			return executor.Pending
		}
		t.wait = wakesource.Delay(t.delay)
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Printf("serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printReport(out io.Writer, s executor.Stats, elapsed time.Duration) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgWhite)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	row := func(name string, v int64, c *color.Color) {
		fmt.Fprintf(out, "  %s %s\n", label.Sprintf("%-18s", name), c.Sprint(v))
	}
	failures := func(v int64) *color.Color {
		if v > 0 {
			return bad
		}
		return good
	}

	title.Fprintf(out, "taskloop run finished in %s\n", elapsed.Round(time.Millisecond))
	row("spawned", s.Spawned, good)
	row("completed", s.Completed, good)
	row("polls", s.Polls, good)
	row("panics", s.Panics, failures(s.Panics))
	row("wakes delivered", s.WakesDelivered, good)
	row("wakes notified", s.WakesNotified, good)
	row("wakes coalesced", s.WakesCoalesced, good)
	row("wakes spilled", s.WakesSpilled, good)
	row("wakes dropped", s.WakesDropped, failures(s.WakesDropped))
}
