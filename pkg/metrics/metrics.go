package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for taskloop components.
type Registry struct {
	// Executor Metrics
	TasksSpawned    *prometheus.CounterVec
	TaskPolls       *prometheus.CounterVec
	TasksCompleted  *prometheus.CounterVec
	TaskPanics      *prometheus.CounterVec
	Wakes           *prometheus.CounterVec
	ReadyQueueDepth *prometheus.GaugeVec
	LiveTasks       *prometheus.GaugeVec
	PollDuration    *prometheus.HistogramVec

	// Channel Metrics
	ChannelSends       *prometheus.CounterVec
	ChannelReceives    *prometheus.CounterVec
	ChannelBufferUsage *prometheus.GaugeVec
	BackpressureEvents *prometheus.CounterVec

	// Worker Pool Metrics
	WorkerPoolSize     *prometheus.GaugeVec
	WorkerPoolActive   *prometheus.GaugeVec
	WorkerPoolQueued   *prometheus.GaugeVec
	WorkerPoolItems    *prometheus.CounterVec
	WorkerPoolDuration *prometheus.HistogramVec

	// Actor Metrics
	ActorMessages *prometheus.CounterVec
	ActorsRunning *prometheus.GaugeVec
}

// DefaultRegistry is the default metrics registry used by taskloop components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace, nil)
}

// FromConfig builds a Registry from config. It returns nil when metrics are
// disabled; every component treats a nil Registry as "no instrumentation".
func FromConfig(config Config) *Registry {
	if !config.Enabled {
		return nil
	}
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return newRegistry(reg, ns, config.Labels)
}

func newRegistry(reg prometheus.Registerer, ns string, labels prometheus.Labels) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Executor Metrics
		TasksSpawned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "tasks_spawned_total",
				Help:        "Total number of tasks spawned",
				ConstLabels: labels,
			},
			[]string{"executor_name"},
		),

		TaskPolls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "task_polls_total",
				Help:        "Total number of task resume attempts",
				ConstLabels: labels,
			},
			[]string{"executor_name"},
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "tasks_completed_total",
				Help:        "Total number of tasks that reported ready",
				ConstLabels: labels,
			},
			[]string{"executor_name"},
		),

		TaskPanics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "task_panics_total",
				Help:        "Total number of tasks that panicked while polled",
				ConstLabels: labels,
			},
			[]string{"executor_name"},
		),

		Wakes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "wakes_total",
				Help:        "Total number of wake calls by outcome",
				ConstLabels: labels,
			},
			[]string{"executor_name", "outcome"},
		),

		ReadyQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "ready_queue_depth",
				Help:        "Number of tasks waiting in the ready queue",
				ConstLabels: labels,
			},
			[]string{"executor_name"},
		),

		LiveTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "live_tasks",
				Help:        "Number of spawned tasks that have not completed",
				ConstLabels: labels,
			},
			[]string{"executor_name"},
		),

		PollDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "executor",
				Name:        "poll_duration_seconds",
				Help:        "Time spent inside a single task poll",
				Buckets:     prometheus.ExponentialBuckets(1e-6, 4, 10),
				ConstLabels: labels,
			},
			[]string{"executor_name"},
		),

		// Channel Metrics
		ChannelSends: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "channel",
				Name:        "sends_total",
				Help:        "Total number of values accepted by a channel",
				ConstLabels: labels,
			},
			[]string{"channel_name"},
		),

		ChannelReceives: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "channel",
				Name:        "receives_total",
				Help:        "Total number of values taken from a channel",
				ConstLabels: labels,
			},
			[]string{"channel_name"},
		),

		ChannelBufferUsage: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "channel",
				Name:        "buffer_usage",
				Help:        "Current number of buffered values",
				ConstLabels: labels,
			},
			[]string{"channel_name"},
		),

		BackpressureEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "backpressure",
				Name:        "events_total",
				Help:        "Total number of backpressure events",
				ConstLabels: labels,
			},
			[]string{"strategy", "channel_name"},
		),

		// Worker Pool Metrics
		WorkerPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "size",
				Help:        "Current worker pool size",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "active_workers",
				Help:        "Number of active workers",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "queued_items",
				Help:        "Number of items waiting for a worker",
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		WorkerPoolItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "items_total",
				Help:        "Total number of processed items by outcome",
				ConstLabels: labels,
			},
			[]string{"pool_name", "outcome"},
		),

		WorkerPoolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "workerpool",
				Name:        "item_duration_seconds",
				Help:        "Time spent processing a single item",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"pool_name"},
		),

		// Actor Metrics
		ActorMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "actor",
				Name:        "messages_total",
				Help:        "Total number of messages handled by outcome",
				ConstLabels: labels,
			},
			[]string{"actor_name", "outcome"},
		),

		ActorsRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "actor",
				Name:        "running",
				Help:        "Number of running actors",
				ConstLabels: labels,
			},
			[]string{"system_name"},
		),
	}
}
