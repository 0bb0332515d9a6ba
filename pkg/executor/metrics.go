package executor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/taskloop/pkg/metrics"
)

type wakeOutcome int

const (
	wakeDelivered wakeOutcome = iota
	wakeNotified
	wakeCoalesced
	wakeIgnored
	wakeSpilled
	wakeDropped
	wakeClosed
	numWakeOutcomes
)

var wakeOutcomeNames = [numWakeOutcomes]string{
	"delivered", "notified", "coalesced", "ignored", "spilled", "dropped", "closed",
}

// instrumentation caches the labelled series of one executor. A nil
// *instrumentation records nothing.
type instrumentation struct {
	spawned      prometheus.Counter
	polls        prometheus.Counter
	completed    prometheus.Counter
	panics       prometheus.Counter
	wakes        [numWakeOutcomes]prometheus.Counter
	queueDepth   prometheus.Gauge
	live         prometheus.Gauge
	pollDuration prometheus.Observer
}

func newInstrumentation(reg *metrics.Registry, name string) *instrumentation {
	if reg == nil {
		return nil
	}
	in := &instrumentation{
		spawned:      reg.TasksSpawned.WithLabelValues(name),
		polls:        reg.TaskPolls.WithLabelValues(name),
		completed:    reg.TasksCompleted.WithLabelValues(name),
		panics:       reg.TaskPanics.WithLabelValues(name),
		queueDepth:   reg.ReadyQueueDepth.WithLabelValues(name),
		live:         reg.LiveTasks.WithLabelValues(name),
		pollDuration: reg.PollDuration.WithLabelValues(name),
	}
	for i := range in.wakes {
		in.wakes[i] = reg.Wakes.WithLabelValues(name, wakeOutcomeNames[i])
	}
	return in
}

func (in *instrumentation) spawn(live int64) {
	if in == nil {
		return
	}
	in.spawned.Inc()
	in.live.Set(float64(live))
}

func (in *instrumentation) poll(d time.Duration, queued int) {
	if in == nil {
		return
	}
	in.polls.Inc()
	in.pollDuration.Observe(d.Seconds())
	in.queueDepth.Set(float64(queued))
}

func (in *instrumentation) finish(panicked bool, live int64) {
	if in == nil {
		return
	}
	if panicked {
		in.panics.Inc()
	} else {
		in.completed.Inc()
	}
	in.live.Set(float64(live))
}

func (in *instrumentation) wake(o wakeOutcome) {
	if in == nil {
		return
	}
	in.wakes[o].Inc()
}
