package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/vnykmshr/taskloop/internal/config"
	"github.com/vnykmshr/taskloop/internal/testutil"
	"github.com/vnykmshr/taskloop/pkg/executor"
)

func TestRunWorkload(t *testing.T) {
	for _, requeue := range []executor.RequeuePolicy{executor.RequeueOnWake, executor.RequeueEager} {
		t.Run(requeue.String(), func(t *testing.T) {
			exec, err := executor.NewWithConfig(executor.Config{Requeue: requeue})
			testutil.AssertNoError(t, err)
			defer exec.Close()

			ctx, cancel := testutil.WithTimeout(t)
			defer cancel()

			w := config.Workload{Tasks: 103, Steps: 3, Spawners: 4, WakeDelay: time.Millisecond}
			testutil.AssertNoError(t, runWorkload(ctx, exec, w))

			stats := exec.Stats()
			// One extra task gates the run until spawning is done.
			testutil.AssertEqual(t, stats.Completed, int64(104))
			testutil.AssertEqual(t, stats.Live, int64(0))
			if requeue == executor.RequeueOnWake {
				// The gate is polled once or twice depending on timing.
				testutil.AssertEqual(t, stats.Polls >= 103*3+1 && stats.Polls <= 103*3+2, true)
			}
		})
	}
}

func TestStepTaskWithoutDelay(t *testing.T) {
	exec := executor.New()
	defer exec.Close()

	testutil.AssertNoError(t, exec.Spawn(newStepTask(4, 0)))
	testutil.AssertNoError(t, exec.Run())
	testutil.AssertEqual(t, exec.Stats().Polls, int64(4))
}

func TestRunCommand(t *testing.T) {
	color.NoColor = true
	path := filepath.Join(t.TempDir(), "taskloop.toml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte("[workload]\ntasks = 20\nsteps = 2\nwake_delay = \"1ms\"\n"), 0o600))

	var out bytes.Buffer
	rootCmd.AddCommand(runCmd)
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "--config", path, "--spawners", "2"})
	testutil.AssertNoError(t, rootCmd.ExecuteContext(context.Background()))

	report := out.String()
	if !strings.Contains(report, "completed") || !strings.Contains(report, "21") {
		t.Errorf("unexpected report:\n%s", report)
	}
}
