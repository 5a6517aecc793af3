// Package config loads the settings of the cubs command line tool from
// flags, CUBS_* environment variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "CUBS"
	defaultConfigName = ".cubs"
)

// Config is the resolved tool configuration.
type Config struct {
	Workers int    `mapstructure:"workers" yaml:"workers" json:"workers"`
	Output  string `mapstructure:"output" yaml:"output" json:"output"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`
	NoColor bool   `mapstructure:"no-color" yaml:"no-color" json:"no-color"`

	Retry     RetryConfig     `mapstructure:"retry" yaml:"retry" json:"retry"`
	RateLimit RateLimitConfig `mapstructure:"rate-limit" yaml:"rate-limit" json:"rate-limit"`

	// PinWorkers locks each worker to a CPU core.
	PinWorkers bool `mapstructure:"pin-workers" yaml:"pin-workers" json:"pin-workers"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout" yaml:"shutdown-timeout" json:"shutdown-timeout"`
}

// RetryConfig mirrors pool.WithRetryPolicy and pool.WithBackoff.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max-attempts" yaml:"max-attempts" json:"max-attempts"`
	InitialDelay time.Duration `mapstructure:"initial-delay" yaml:"initial-delay" json:"initial-delay"`
	MaxDelay     time.Duration `mapstructure:"max-delay" yaml:"max-delay" json:"max-delay"`
	Backoff      string        `mapstructure:"backoff" yaml:"backoff" json:"backoff"`
	Jitter       float64       `mapstructure:"jitter" yaml:"jitter" json:"jitter"`
}

// RateLimitConfig mirrors pool.WithRateLimit. A zero rate disables it.
type RateLimitConfig struct {
	TasksPerSecond float64 `mapstructure:"tasks-per-second" yaml:"tasks-per-second" json:"tasks-per-second"`
	Burst          int     `mapstructure:"burst" yaml:"burst" json:"burst"`
}

// Manager wraps a viper instance bound to the tool's flags.
type Manager struct {
	configPath string
	viper      *viper.Viper
}

// NewManager creates a manager. An empty configPath searches $HOME/.cubs.yaml.
func NewManager(configPath string) *Manager {
	v := viper.New()
	setDefaults(v)
	return &Manager{
		configPath: configPath,
		viper:      v,
	}
}

// BindFlags makes flag values take precedence over file and environment.
// Flags are matched by name, so only flags that exist in fs are bound.
func (m *Manager) BindFlags(fs *pflag.FlagSet) error {
	var errs error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := m.viper.BindPFlag(f.Name, f); err != nil {
			errs = errors.Join(errs, fmt.Errorf("bind flag %q: %w", f.Name, err))
		}
	})
	return errs
}

// BindFlag binds one flag to a nested key such as "retry.max-attempts".
// A nil flag is ignored so commands can share one binding table.
func (m *Manager) BindFlag(key string, f *pflag.Flag) error {
	if f == nil {
		return nil
	}
	if err := m.viper.BindPFlag(key, f); err != nil {
		return fmt.Errorf("bind flag %q to %q: %w", f.Name, key, err)
	}
	return nil
}

// Override pins key to value above every other source. Commands use it for
// flags whose own default must win over the file and environment.
func (m *Manager) Override(key string, value any) {
	m.viper.Set(key, value)
}

// Load reads the config file (a missing file is fine) and the environment and
// returns the merged configuration.
func (m *Manager) Load() (*Config, error) {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		m.viper.AddConfigPath(home)
		m.viper.SetConfigName(defaultConfigName)
		m.viper.SetConfigType("yaml")
	}

	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(envKeyReplacer)
	m.viper.AutomaticEnv()

	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConfigFileUsed returns the file the configuration came from, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.viper.ConfigFileUsed()
}

// Validate rejects values the pool would refuse or silently ignore.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format %q (use table, json or yaml)", c.Output)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max-attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return fmt.Errorf("retry.jitter must be within [0, 1], got %v", c.Retry.Jitter)
	}
	if _, err := ParseBackoff(c.Retry.Backoff); err != nil {
		return err
	}
	if c.RateLimit.TasksPerSecond < 0 {
		return fmt.Errorf("rate-limit.tasks-per-second must not be negative, got %v", c.RateLimit.TasksPerSecond)
	}
	return nil
}
