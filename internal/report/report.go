// Package report renders the outcome of a cubs run as a table, JSON or YAML.
package report

import (
	"fmt"
	"io"
	"slices"
	"time"
)

// Format selects the renderer.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// Report summarises one benchmark run.
type Report struct {
	PoolID    string        `json:"pool_id" yaml:"pool_id"`
	Workers   int           `json:"workers" yaml:"workers"`
	Tasks     int           `json:"tasks" yaml:"tasks"`
	Succeeded int           `json:"succeeded" yaml:"succeeded"`
	Failed    int           `json:"failed" yaml:"failed"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`

	// Throughput is completed tasks per second of wall time.
	Throughput float64 `json:"throughput" yaml:"throughput"`

	Latency Latency `json:"latency" yaml:"latency"`

	// FirstError is the first failure in submission order, if any.
	FirstError string `json:"first_error,omitempty" yaml:"first_error,omitempty"`

	// Counters holds the pool's Prometheus counters by metric name.
	Counters map[string]float64 `json:"counters,omitempty" yaml:"counters,omitempty"`
}

// Latency holds per-task latency percentiles.
type Latency struct {
	P50 time.Duration `json:"p50" yaml:"p50"`
	P95 time.Duration `json:"p95" yaml:"p95"`
	P99 time.Duration `json:"p99" yaml:"p99"`
	Max time.Duration `json:"max" yaml:"max"`
}

// ComputeLatency sorts a copy of samples and picks the percentiles by index.
func ComputeLatency(samples []time.Duration) Latency {
	n := len(samples)
	if n == 0 {
		return Latency{}
	}

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	at := func(pct int) time.Duration {
		return sorted[min(n*pct/100, n-1)]
	}
	return Latency{P50: at(50), P95: at(95), P99: at(99), Max: sorted[n-1]}
}

// Renderer writes a report in one format.
type Renderer interface {
	Render(w io.Writer, r *Report) error
}

// NewRenderer returns the renderer for f. Table output is the fallback.
func NewRenderer(f Format, noColor bool) Renderer {
	switch f {
	case FormatJSON:
		return jsonRenderer{}
	case FormatYAML:
		return yamlRenderer{}
	default:
		return &tableRenderer{colors: NewColorScheme(noColor)}
	}
}
