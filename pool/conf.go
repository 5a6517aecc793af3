package pool

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/utkarsh5026/cubs/internal/algorithms"
	"golang.org/x/time/rate"
)

// BackoffType selects the retry delay curve.
type BackoffType = algorithms.BackoffType

const (
	BackoffExponential = algorithms.BackoffExponential
	BackoffJittered    = algorithms.BackoffJittered
	BackoffConstant    = algorithms.BackoffConstant
)

// Option is a functional option for configuring a ThreadPool.
type Option func(*config)

type config struct {
	logger      logrus.FieldLogger
	metrics     *Metrics
	rateLimiter *rate.Limiter
	pinWorkers  bool

	maxAttempts  int
	initialDelay time.Duration
	backoffType  BackoffType
	maxDelay     time.Duration
	jitter       float64

	beforeTaskStart func(TaskInfo)
	onTaskEnd       func(TaskInfo, error)
	onRetry         func(TaskInfo, int, error)
}

func defaultConfig() *config {
	return &config{
		maxAttempts: 1,
		backoffType: BackoffExponential,
		maxDelay:    5 * time.Second,
		jitter:      0.1,
	}
}

func (c *config) backoff() algorithms.Backoff {
	if c.maxAttempts <= 1 {
		return nil
	}
	return algorithms.NewBackoff(c.backoffType, c.initialDelay, c.maxDelay, c.jitter)
}

// WithLogger sets the logger used for pool lifecycle events.
// If not specified, output is discarded unless built with -tags debug.
func WithLogger(l logrus.FieldLogger) Option {
	return func(cfg *config) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// WithMetrics makes the pool report to the given Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(cfg *config) {
		cfg.metrics = m
	}
}

// WithRateLimit caps how fast workers start tasks.
// tasksPerSecond is the sustained rate and burst the number of tasks that may
// start back to back. Non-positive values leave the pool unthrottled.
//
// Example:
//
//	WithRateLimit(10, 5) // 10 tasks/sec with bursts of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithRetryPolicy re-runs a failing task up to maxAttempts times in total,
// waiting initialDelay before the first retry and growing the delay by the
// configured backoff. Panics are not retried.
func WithRetryPolicy(maxAttempts int, initialDelay time.Duration) Option {
	return func(cfg *config) {
		if maxAttempts > 0 {
			cfg.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			cfg.initialDelay = initialDelay
		}
	}
}

// WithBackoff selects the delay curve between retries. maxDelay caps a single
// wait and jitter (0..1) is only used by BackoffJittered.
func WithBackoff(kind BackoffType, maxDelay time.Duration, jitter float64) Option {
	return func(cfg *config) {
		cfg.backoffType = kind
		if maxDelay > 0 {
			cfg.maxDelay = maxDelay
		}
		if jitter >= 0 && jitter <= 1 {
			cfg.jitter = jitter
		}
	}
}

// WithCPUAffinity locks each worker to an OS thread pinned to one core.
// A worker that cannot be pinned makes New fail with a KindSystem error.
func WithCPUAffinity(enabled bool) Option {
	return func(cfg *config) {
		cfg.pinWorkers = enabled
	}
}

// WithBeforeTaskStart registers a hook called on the worker right before each attempt.
func WithBeforeTaskStart(fn func(TaskInfo)) Option {
	return func(cfg *config) {
		cfg.beforeTaskStart = fn
	}
}

// WithOnTaskEnd registers a hook called on the worker after a task has
// finished, right before its future is resolved.
func WithOnTaskEnd(fn func(TaskInfo, error)) Option {
	return func(cfg *config) {
		cfg.onTaskEnd = fn
	}
}

// WithOnRetry registers a hook called before each retry with the attempt that
// just failed and its error.
func WithOnRetry(fn func(TaskInfo, int, error)) Option {
	return func(cfg *config) {
		cfg.onRetry = fn
	}
}
