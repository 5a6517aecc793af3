package report

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/olekukonko/tablewriter"
)

type tableRenderer struct {
	colors *ColorScheme
}

func (t *tableRenderer) Render(w io.Writer, r *Report) error {
	c := t.colors

	summary := tablewriter.NewWriter(w)
	summary.Header("Pool", "Workers", "Tasks", "Succeeded", "Failed", "Elapsed", "Tasks/sec")
	_ = summary.Append(
		r.PoolID,
		fmt.Sprint(r.Workers),
		fmt.Sprint(r.Tasks),
		c.Success("%d", r.Succeeded),
		c.Status(r.Failed > 0)("%d", r.Failed),
		r.Elapsed.Round(time.Millisecond).String(),
		c.Value("%.1f", r.Throughput),
	)
	if err := summary.Render(); err != nil {
		return fmt.Errorf("render summary table: %w", err)
	}

	latency := tablewriter.NewWriter(w)
	latency.Header("P50", "P95", "P99", "Max")
	_ = latency.Append(
		FormatLatency(r.Latency.P50),
		FormatLatency(r.Latency.P95),
		FormatLatency(r.Latency.P99),
		FormatLatency(r.Latency.Max),
	)
	if err := latency.Render(); err != nil {
		return fmt.Errorf("render latency table: %w", err)
	}

	if len(r.Counters) > 0 {
		counters := tablewriter.NewWriter(w)
		counters.Header("Metric", "Value")
		names := make([]string, 0, len(r.Counters))
		for name := range r.Counters {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			_ = counters.Append(name, fmt.Sprintf("%g", r.Counters[name]))
		}
		if err := counters.Render(); err != nil {
			return fmt.Errorf("render counters table: %w", err)
		}
	}

	if r.FirstError != "" {
		if _, err := fmt.Fprintln(w, c.Error("first failure: %s", r.FirstError)); err != nil {
			return err
		}
	}
	return nil
}

// FormatLatency prints d with a unit suited to its size.
func FormatLatency(d time.Duration) string {
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
