package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/vnykmshr/taskloop/internal/testutil"
	gferrors "github.com/vnykmshr/taskloop/pkg/common/errors"
	"github.com/vnykmshr/taskloop/pkg/executor"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskloop.toml")
	testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	f := Default()

	ec, err := f.ExecutorConfig(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ec.WakeCapacity, executor.DefaultWakeCapacity)
	testutil.AssertEqual(t, ec.Requeue, executor.RequeueOnWake)
	testutil.AssertEqual(t, ec.Overflow, executor.OverflowSpill)
	testutil.AssertEqual(t, ec.Panics, executor.PanicFailFast)

	w, err := f.WorkloadConfig()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, w.Tasks, 1000)
	testutil.AssertEqual(t, w.Timeout, 30*time.Second)

	testutil.AssertEqual(t, f.MetricsConfig().Enabled, false)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `
[executor]
name = "bench"
wake_capacity = 64
requeue = "eager"
overflow = "drop"
panics = "isolate"

[workload]
tasks = 10
wake_delay = "5ms"

[metrics]
enabled = true
addr = ":9191"

[metrics.labels]
env = "test"
`)

	f, err := Load(path)
	testutil.AssertNoError(t, err)

	ec, err := f.ExecutorConfig(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ec.Name, "bench")
	testutil.AssertEqual(t, ec.WakeCapacity, 64)
	testutil.AssertEqual(t, ec.Requeue, executor.RequeueEager)
	testutil.AssertEqual(t, ec.Overflow, executor.OverflowDrop)
	testutil.AssertEqual(t, ec.Panics, executor.PanicIsolate)

	w, err := f.WorkloadConfig()
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, w.Tasks, 10)
	testutil.AssertEqual(t, w.Steps, 3)
	testutil.AssertEqual(t, w.WakeDelay, 5*time.Millisecond)

	mc := f.MetricsConfig()
	testutil.AssertEqual(t, mc.Enabled, true)
	testutil.AssertEqual(t, mc.Labels["env"], "test")
	testutil.AssertEqual(t, f.Metrics.Addr, ":9191")
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax", "[executor\n", "failed to parse TOML"},
		{"unknown key", "[executor]\nworkers = 3\n", "unknown keys: executor.workers"},
		{"wrong type", "[workload]\ntasks = \"many\"\n", "failed to parse TOML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			testutil.AssertError(t, err)
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not contain %q", err, tt.want)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	testutil.AssertError(t, err)
}

func TestInvalidValues(t *testing.T) {
	f := Default()
	f.Executor.Requeue = "sometimes"
	_, err := f.ExecutorConfig(nil)
	testutil.AssertEqual(t, gferrors.IsValidationError(err), true)

	f = Default()
	f.Workload.Spawners = 0
	_, err = f.WorkloadConfig()
	testutil.AssertEqual(t, gferrors.IsValidationError(err), true)
}

func TestNarrowingOverflow(t *testing.T) {
	if strconv.IntSize == 64 {
		t.Skip("int64 always fits in int on 64-bit platforms")
	}
	f := Default()
	f.Workload.Tasks = 1 << 40
	_, err := f.WorkloadConfig()
	testutil.AssertError(t, err)
}
