package actor

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/taskloop/pkg/metrics"
)

// instrumentation counts message outcomes for one actor. A nil
// *instrumentation records nothing.
type instrumentation struct {
	handledMsgs  prometheus.Counter
	panickedMsgs prometheus.Counter
	rejectedMsgs prometheus.Counter
}

func newInstrumentation(reg *metrics.Registry, name string) *instrumentation {
	if reg == nil {
		return nil
	}
	return &instrumentation{
		handledMsgs:  reg.ActorMessages.WithLabelValues(name, "handled"),
		panickedMsgs: reg.ActorMessages.WithLabelValues(name, "panic"),
		rejectedMsgs: reg.ActorMessages.WithLabelValues(name, "rejected"),
	}
}

func (in *instrumentation) handled() {
	if in != nil {
		in.handledMsgs.Inc()
	}
}

func (in *instrumentation) panicked() {
	if in != nil {
		in.panickedMsgs.Inc()
	}
}

func (in *instrumentation) rejected() {
	if in != nil {
		in.rejectedMsgs.Inc()
	}
}

// gaugeRef tracks the number of running actors in a system.
type gaugeRef struct {
	g prometheus.Gauge
}

func newGaugeRef(reg *metrics.Registry, system string) *gaugeRef {
	if reg == nil {
		return nil
	}
	return &gaugeRef{g: reg.ActorsRunning.WithLabelValues(system)}
}

func (r *gaugeRef) add(delta float64) {
	if r != nil {
		r.g.Add(delta)
	}
}
