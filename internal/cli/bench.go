package cli

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/utkarsh5026/cubs/internal/report"
	"github.com/utkarsh5026/cubs/pool"
)

type benchOptions struct {
	tasks      int
	latency    time.Duration
	failEvery  int
	noProgress bool
}

func newBenchCmd(a *app) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run synthetic tasks through one batch and report throughput and latency",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBench(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.tasks, "tasks", "n", 1000, "number of tasks to submit")
	cmd.Flags().DurationVar(&opts.latency, "latency", time.Millisecond, "simulated work per task")
	cmd.Flags().IntVar(&opts.failEvery, "fail-every", 0, "make every k-th task fail (0 disables)")
	cmd.Flags().BoolVar(&opts.noProgress, "no-progress", false, "hide the progress bar")

	// resolved through the configuration
	cmd.Flags().IntP("workers", "w", runtime.NumCPU(), "number of pool workers")
	cmd.Flags().Bool("pin-workers", false, "pin each worker to a CPU core")
	cmd.Flags().Duration("shutdown-timeout", 30*time.Second, "maximum time to wait for the pool to drain")
	cmd.Flags().Int("max-attempts", 1, "attempts per task, retries included")
	cmd.Flags().Duration("retry-delay", 10*time.Millisecond, "delay before the first retry")
	cmd.Flags().String("backoff", "exponential", "retry backoff (exponential, jittered, constant)")
	cmd.Flags().Float64("rate", 0, "maximum task starts per second (0 disables)")
	cmd.Flags().Int("burst", 1, "task starts allowed back to back by the rate limit")

	return cmd
}

func (a *app) runBench(cmd *cobra.Command, opts *benchOptions) error {
	if opts.tasks < 0 {
		return fmt.Errorf("tasks must not be negative, got %d", opts.tasks)
	}
	format, err := report.ParseFormat(a.cfg.Output)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := pool.NewMetrics(reg, "cubs")

	bar := progressbar.NewOptions(opts.tasks,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Running tasks"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetVisibility(!opts.noProgress),
		progressbar.OptionClearOnFinish(),
	)

	poolOpts := append(a.cfg.PoolOptions(),
		pool.WithLogger(a.log),
		pool.WithMetrics(metrics),
		pool.WithOnTaskEnd(func(pool.TaskInfo, error) {
			_ = bar.Add(1)
		}),
	)

	p, err := pool.New(a.cfg.Workers, poolOpts...)
	if err != nil {
		return err
	}
	defer a.shutdownPool(p)
	a.log.WithFields(logrus.Fields{
		"pool_id": p.ID(),
		"workers": p.Size(),
		"tasks":   opts.tasks,
	}).Debug("bench started")

	ctx := cmd.Context()
	start := time.Now()
	b := pool.NewBatch[time.Duration](p, opts.tasks)
	submitted := 0
	for i := range opts.tasks {
		if ctx.Err() != nil {
			a.log.WithField("submitted", submitted).Warn("interrupted, collecting submitted tasks")
			break
		}
		if err := b.Submit(syntheticTask(i, opts.latency, opts.failEvery)); err != nil {
			return fmt.Errorf("submit task %d: %w", i, err)
		}
		submitted++
	}

	results := b.CollectResults()
	elapsed := time.Since(start)
	_ = bar.Finish()

	a.shutdownPool(p)

	rep := buildReport(p, results, elapsed)
	rep.Counters, err = gatherCounters(reg)
	if err != nil {
		return err
	}

	return report.NewRenderer(format, a.cfg.NoColor).Render(cmd.OutOrStdout(), rep)
}

// shutdownPool drains p within the configured timeout. It does nothing once
// shutdown has begun, so it is safe to defer alongside an explicit call.
func (a *app) shutdownPool(p *pool.ThreadPool) {
	if p.State() != pool.StateRunning {
		return
	}
	if err := p.Shutdown(a.cfg.ShutdownTimeout); err != nil {
		a.log.WithError(err).Warn("pool shutdown did not complete")
	}
}

// syntheticTask sleeps for latency and fails when its 1-based position is a
// multiple of failEvery. It returns the time it spent working.
func syntheticTask(i int, latency time.Duration, failEvery int) func() (time.Duration, error) {
	return func() (time.Duration, error) {
		t0 := time.Now()
		if latency > 0 {
			time.Sleep(latency)
		}
		if failEvery > 0 && (i+1)%failEvery == 0 {
			return time.Since(t0), fmt.Errorf("task %d: injected failure", i)
		}
		return time.Since(t0), nil
	}
}

func buildReport(p *pool.ThreadPool, results []pool.Result[time.Duration], elapsed time.Duration) *report.Report {
	rep := &report.Report{
		PoolID:  p.ID(),
		Workers: p.Size(),
		Tasks:   len(results),
		Elapsed: elapsed,
	}

	latencies := make([]time.Duration, 0, len(results))
	for _, r := range results {
		latencies = append(latencies, r.Value)
		if r.Error != nil {
			rep.Failed++
			if rep.FirstError == "" {
				rep.FirstError = (&pool.TaskError{Index: r.Index, Err: r.Error}).Error()
			}
			continue
		}
		rep.Succeeded++
	}

	if elapsed > 0 {
		rep.Throughput = float64(rep.Succeeded) / elapsed.Seconds()
	}
	rep.Latency = report.ComputeLatency(latencies)
	return rep
}

// gatherCounters reads every counter registered with reg.
func gatherCounters(reg *prometheus.Registry) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	counters := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				counters[mf.GetName()] += c.GetValue()
			}
		}
	}
	if len(counters) == 0 {
		return nil, errors.New("no counters registered")
	}
	return counters, nil
}
