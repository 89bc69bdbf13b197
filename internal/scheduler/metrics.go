// This file exposes Prometheus instrumentation for the task queue. Labels
// stay on the two small enums (task type, terminal status) so cardinality is
// bounded regardless of how many indexes exist.
package scheduler

import "github.com/prometheus/client_golang/prometheus"

var (
	// tasksTotal counts tasks that reached a terminal state, by type and
	// outcome ("succeeded" or "failed").
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "index_tasks_total",
			Help: "Total number of tasks processed to a terminal state.",
		},
		[]string{"type", "status"},
	)

	// taskDuration records wall-clock processing time per task type, from the
	// moment a worker picks the task up to its terminal transition. Enqueue
	// wait time is excluded so the histogram reflects executor cost.
	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "index_task_duration_seconds",
			Help:    "Duration of task execution in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms..~4.4min
		},
		[]string{"type"},
	)

	// queueDepth gauges how many tasks are registered but not yet terminal.
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "index_task_queue_depth",
			Help: "Current number of enqueued or processing tasks.",
		},
	)
)

func init() {
	prometheus.MustRegister(tasksTotal, taskDuration, queueDepth)
}
