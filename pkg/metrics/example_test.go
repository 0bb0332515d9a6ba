package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates using a private Prometheus registry.
func Example_basicUsage() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.TasksSpawned.WithLabelValues("demo").Add(3)
	registry.TasksCompleted.WithLabelValues("demo").Add(2)

	fmt.Println(promtestutil.ToFloat64(registry.TasksSpawned.WithLabelValues("demo")))
	fmt.Println(promtestutil.ToFloat64(registry.TasksCompleted.WithLabelValues("demo")))

	// Output:
	// 3
	// 2
}
