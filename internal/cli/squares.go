package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/utkarsh5026/cubs/internal/report"
	"github.com/utkarsh5026/cubs/pool"
	"gopkg.in/yaml.v3"
)

type squaresResult struct {
	Workers int           `json:"workers" yaml:"workers"`
	Squares []int         `json:"squares" yaml:"squares"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

func newSquaresCmd(a *app) *cobra.Command {
	var (
		count int
		slow  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "squares",
		Short: "Square 0..count-1 on the pool and print the results in submission order",
		Long: `Submits count tasks where task i returns i*i. Even-indexed tasks sleep for
--slow first, so they finish after their odd neighbours; the batch still
returns the squares in submission order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSquares(cmd, count, slow)
		},
	}

	cmd.Flags().IntP("workers", "w", 2, "number of pool workers")
	_ = cmd.Flags().SetAnnotation("workers", localFlag, []string{"true"})
	cmd.Flags().IntVarP(&count, "count", "n", 4, "number of tasks")
	cmd.Flags().DurationVar(&slow, "slow", 50*time.Millisecond, "extra latency of even-indexed tasks")

	return cmd
}

func (a *app) runSquares(cmd *cobra.Command, count int, slow time.Duration) error {
	if count < 0 {
		return fmt.Errorf("count must not be negative, got %d", count)
	}

	p, err := pool.New(a.cfg.Workers, pool.WithLogger(a.log))
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			a.log.WithError(err).Warn("pool shutdown failed")
		}
	}()

	start := time.Now()
	b := pool.NewBatch[int](p, count)
	for i := range count {
		err := b.Submit(func() (int, error) {
			if i%2 == 0 && slow > 0 {
				time.Sleep(slow)
			}
			return i * i, nil
		})
		if err != nil {
			return fmt.Errorf("submit task %d: %w", i, err)
		}
	}

	squares, err := b.CollectAll()
	if err != nil {
		return err
	}

	res := squaresResult{Workers: a.cfg.Workers, Squares: squares, Elapsed: time.Since(start)}
	return a.writeSquares(cmd.OutOrStdout(), res)
}

func (a *app) writeSquares(w io.Writer, res squaresResult) error {
	format, err := report.ParseFormat(a.cfg.Output)
	if err != nil {
		return err
	}

	switch format {
	case report.FormatJSON:
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal squares to JSON: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case report.FormatYAML:
		data, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("failed to marshal squares to YAML: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	colors := report.NewColorScheme(a.cfg.NoColor)
	table := tablewriter.NewWriter(w)
	table.Header("Index", "Square")
	for i, sq := range res.Squares {
		_ = table.Append(fmt.Sprint(i), colors.Value("%d", sq))
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render squares table: %w", err)
	}
	_, err = fmt.Fprintf(w, "%v collected with %d workers in %s\n",
		res.Squares, res.Workers, res.Elapsed.Round(time.Millisecond))
	return err
}
