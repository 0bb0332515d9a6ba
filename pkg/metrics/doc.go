// Package metrics provides Prometheus instrumentation for taskloop components.
//
// Every component (executor, channel, workerpool, actor) accepts an optional
// *Registry in its Config. A nil Registry disables instrumentation.
//
//	reg := prometheus.NewRegistry()
//	exec, err := executor.NewWithConfig(executor.Config{
//		Name:    "ingest",
//		Metrics: metrics.NewRegistry(reg),
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// # Available Metrics
//
// Executor:
//   - taskloop_executor_tasks_spawned_total
//   - taskloop_executor_task_polls_total
//   - taskloop_executor_tasks_completed_total
//   - taskloop_executor_task_panics_total
//   - taskloop_executor_wakes_total{outcome="delivered|coalesced|spilled|dropped|closed"}
//   - taskloop_executor_ready_queue_depth
//   - taskloop_executor_live_tasks
//   - taskloop_executor_poll_duration_seconds
//
// Channel:
//   - taskloop_channel_sends_total, taskloop_channel_receives_total
//   - taskloop_channel_buffer_usage
//   - taskloop_backpressure_events_total{strategy}
//
// Worker pool:
//   - taskloop_workerpool_size, taskloop_workerpool_active_workers
//   - taskloop_workerpool_queued_items
//   - taskloop_workerpool_items_total{outcome="success|error|panic"}
//   - taskloop_workerpool_item_duration_seconds
//
// Actor:
//   - taskloop_actor_messages_total{outcome="handled|panic"}
//   - taskloop_actor_running
package metrics
