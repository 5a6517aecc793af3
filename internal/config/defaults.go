package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/utkarsh5026/cubs/pool"
)

var envKeyReplacer = strings.NewReplacer("-", "_", ".", "_")

func setDefaults(v *viper.Viper) {
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("output", "table")
	v.SetDefault("verbose", false)
	v.SetDefault("no-color", false)
	v.SetDefault("pin-workers", false)
	v.SetDefault("shutdown-timeout", 30*time.Second)

	v.SetDefault("retry.max-attempts", 1)
	v.SetDefault("retry.initial-delay", 10*time.Millisecond)
	v.SetDefault("retry.max-delay", 5*time.Second)
	v.SetDefault("retry.backoff", "exponential")
	v.SetDefault("retry.jitter", 0.1)

	v.SetDefault("rate-limit.tasks-per-second", 0.0)
	v.SetDefault("rate-limit.burst", 1)
}

// ParseBackoff maps a backoff name to its pool constant.
func ParseBackoff(name string) (pool.BackoffType, error) {
	switch strings.ToLower(name) {
	case "", "exponential":
		return pool.BackoffExponential, nil
	case "jittered":
		return pool.BackoffJittered, nil
	case "constant":
		return pool.BackoffConstant, nil
	default:
		return 0, fmt.Errorf("unknown backoff %q (use exponential, jittered or constant)", name)
	}
}

// PoolOptions translates the configuration into pool options.
func (c *Config) PoolOptions() []pool.Option {
	opts := []pool.Option{
		pool.WithCPUAffinity(c.PinWorkers),
	}

	if c.Retry.MaxAttempts > 1 {
		kind, _ := ParseBackoff(c.Retry.Backoff)
		opts = append(opts,
			pool.WithRetryPolicy(c.Retry.MaxAttempts, c.Retry.InitialDelay),
			pool.WithBackoff(kind, c.Retry.MaxDelay, c.Retry.Jitter),
		)
	}
	if c.RateLimit.TasksPerSecond > 0 {
		opts = append(opts, pool.WithRateLimit(c.RateLimit.TasksPerSecond, max(c.RateLimit.Burst, 1)))
	}
	return opts
}
