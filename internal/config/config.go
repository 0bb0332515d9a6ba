// Package config loads the taskloop command's TOML configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"

	"github.com/vnykmshr/taskloop/pkg/common/validation"
	"github.com/vnykmshr/taskloop/pkg/executor"
	"github.com/vnykmshr/taskloop/pkg/metrics"
)

const moduleName = "config"

// File mirrors the layout of a taskloop.toml file.
type File struct {
	Executor ExecutorSection `toml:"executor"`
	Workload WorkloadSection `toml:"workload"`
	Metrics  MetricsSection  `toml:"metrics"`
}

// ExecutorSection configures the executor.
type ExecutorSection struct {
	Name         string `toml:"name"`
	WakeCapacity int64  `toml:"wake_capacity"`
	Requeue      string `toml:"requeue"`
	Overflow     string `toml:"overflow"`
	Panics       string `toml:"panics"`
}

// WorkloadSection describes the synthetic workload of "taskloop run".
type WorkloadSection struct {
	Tasks     int64         `toml:"tasks"`
	Steps     int64         `toml:"steps"`
	Spawners  int64         `toml:"spawners"`
	WakeDelay time.Duration `toml:"wake_delay"`
	Timeout   time.Duration `toml:"timeout"`
}

// MetricsSection configures Prometheus exposition.
type MetricsSection struct {
	Enabled   bool              `toml:"enabled"`
	Addr      string            `toml:"addr"`
	Namespace string            `toml:"namespace"`
	Labels    map[string]string `toml:"labels"`
}

// Workload is the validated, native-int form of WorkloadSection.
type Workload struct {
	Tasks     int
	Steps     int
	Spawners  int
	WakeDelay time.Duration
	Timeout   time.Duration
}

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Executor: ExecutorSection{
			Name:         "taskloop",
			WakeCapacity: executor.DefaultWakeCapacity,
			Requeue:      executor.RequeueOnWake.String(),
			Overflow:     executor.OverflowSpill.String(),
			Panics:       executor.PanicFailFast.String(),
		},
		Workload: WorkloadSection{
			Tasks:     1000,
			Steps:     3,
			Spawners:  4,
			WakeDelay: time.Millisecond,
			Timeout:   30 * time.Second,
		},
		Metrics: MetricsSection{
			Namespace: metrics.DefaultNamespace,
		},
	}
}

// Load reads path on top of Default. Unknown keys are an error.
func Load(path string) (File, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return File{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return File{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ExecutorConfig converts the executor section. reg may be nil.
func (f File) ExecutorConfig(reg *metrics.Registry) (executor.Config, error) {
	capacity, err := toInt("executor.wake_capacity", f.Executor.WakeCapacity)
	if err != nil {
		return executor.Config{}, err
	}
	requeue, err := executor.ParseRequeuePolicy(f.Executor.Requeue)
	if err != nil {
		return executor.Config{}, err
	}
	overflow, err := executor.ParseOverflowPolicy(f.Executor.Overflow)
	if err != nil {
		return executor.Config{}, err
	}
	panics, err := executor.ParsePanicPolicy(f.Executor.Panics)
	if err != nil {
		return executor.Config{}, err
	}

	return executor.Config{
		Name:         f.Executor.Name,
		WakeCapacity: capacity,
		Requeue:      requeue,
		Overflow:     overflow,
		Panics:       panics,
		Metrics:      reg,
	}, nil
}

// MetricsConfig converts the metrics section.
func (f File) MetricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:   f.Metrics.Enabled,
		Namespace: f.Metrics.Namespace,
		Labels:    f.Metrics.Labels,
	}
}

// WorkloadConfig validates and converts the workload section.
func (f File) WorkloadConfig() (Workload, error) {
	var w Workload
	var err error
	if w.Tasks, err = toInt("workload.tasks", f.Workload.Tasks); err != nil {
		return Workload{}, err
	}
	if w.Steps, err = toInt("workload.steps", f.Workload.Steps); err != nil {
		return Workload{}, err
	}
	if w.Spawners, err = toInt("workload.spawners", f.Workload.Spawners); err != nil {
		return Workload{}, err
	}
	for _, check := range []struct {
		field string
		value int
	}{
		{"workload.tasks", w.Tasks},
		{"workload.steps", w.Steps},
		{"workload.spawners", w.Spawners},
	} {
		if err := validation.ValidatePositive(moduleName, check.field, check.value); err != nil {
			return Workload{}, err
		}
	}
	w.WakeDelay = f.Workload.WakeDelay
	w.Timeout = f.Workload.Timeout
	return w, nil
}

func toInt(field string, v int64) (int, error) {
	n, err := safecast.Conv[int](v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return n, nil
}
