package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by a ThreadPool.
// One Metrics value may be shared by several pools; the counters then
// aggregate across them.
type Metrics struct {
	TasksSubmitted prometheus.Counter
	TasksCompleted prometheus.Counter
	TasksFailed    prometheus.Counter
	TasksRetried   prometheus.Counter
	TaskDuration   prometheus.Histogram
	Backlog        prometheus.Gauge
	Workers        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// registers with prometheus.DefaultRegisterer.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	p, _ := pool.New(4, pool.WithMetrics(pool.NewMetrics(reg, "myapp")))
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	const subsystem = "threadpool"

	return &Metrics{
		TasksSubmitted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted to the pool",
		}),
		TasksCompleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks that finished without error",
		}),
		TasksFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks whose future resolved with an error",
		}),
		TasksRetried: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tasks_retried_total",
			Help:      "Total number of retry attempts",
		}),
		TaskDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "task_duration_seconds",
			Help:      "Time spent running a task, retries included",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
		}),
		Backlog: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backlog",
			Help:      "Tasks queued and not yet picked up by a worker",
		}),
		Workers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workers",
			Help:      "Workers currently alive",
		}),
	}
}

// The helpers below make a nil *Metrics a no-op so call sites stay flat.

func (m *Metrics) submitted() {
	if m != nil {
		m.TasksSubmitted.Inc()
		m.Backlog.Inc()
	}
}

func (m *Metrics) dequeued() {
	if m != nil {
		m.Backlog.Dec()
	}
}

func (m *Metrics) retried() {
	if m != nil {
		m.TasksRetried.Inc()
	}
}

func (m *Metrics) finished(seconds float64, err error) {
	if m == nil {
		return
	}
	m.TaskDuration.Observe(seconds)
	if err != nil {
		m.TasksFailed.Inc()
		return
	}
	m.TasksCompleted.Inc()
}

func (m *Metrics) workerUp() {
	if m != nil {
		m.Workers.Inc()
	}
}

func (m *Metrics) workerDown() {
	if m != nil {
		m.Workers.Dec()
	}
}
