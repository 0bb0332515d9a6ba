package workerpool

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/taskloop/pkg/metrics"
)

// instrumentation caches the labelled series of one pool. A nil
// *instrumentation records nothing.
type instrumentation struct {
	poolSize  prometheus.Gauge
	workers   prometheus.Gauge
	queue     prometheus.Gauge
	succeeded prometheus.Counter
	failed    prometheus.Counter
	panicked  prometheus.Counter
	duration  prometheus.Observer
}

func newInstrumentation(reg *metrics.Registry, name string) *instrumentation {
	if reg == nil {
		return nil
	}
	return &instrumentation{
		poolSize:  reg.WorkerPoolSize.WithLabelValues(name),
		workers:   reg.WorkerPoolActive.WithLabelValues(name),
		queue:     reg.WorkerPoolQueued.WithLabelValues(name),
		succeeded: reg.WorkerPoolItems.WithLabelValues(name, "success"),
		failed:    reg.WorkerPoolItems.WithLabelValues(name, "error"),
		panicked:  reg.WorkerPoolItems.WithLabelValues(name, "panic"),
		duration:  reg.WorkerPoolDuration.WithLabelValues(name),
	}
}

func (in *instrumentation) size(n int) {
	if in == nil {
		return
	}
	in.poolSize.Set(float64(n))
}

func (in *instrumentation) active(n int64) {
	if in == nil {
		return
	}
	in.workers.Set(float64(n))
}

func (in *instrumentation) queued(n int) {
	if in == nil {
		return
	}
	in.queue.Set(float64(n))
}

func (in *instrumentation) item(err error, d time.Duration, queued int) {
	if in == nil {
		return
	}
	switch {
	case err == nil:
		in.succeeded.Inc()
	case errors.Is(err, ErrItemPanicked):
		in.panicked.Inc()
	default:
		in.failed.Inc()
	}
	in.duration.Observe(d.Seconds())
	in.queue.Set(float64(queued))
}
