// Package cli implements the cubs command line tool.
package cli

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/utkarsh5026/cubs/internal/config"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	cfgFile string
	manager *config.Manager
	cfg     *config.Config
	log     *logrus.Logger
}

// Execute runs the root command with the provided context.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{log: logrus.New()}

	rootCmd := &cobra.Command{
		Use:   "cubs",
		Short: "cubs - fixed-size thread pool with ordered batch collection",
		Long: `cubs runs work on a fixed set of workers fed by one FIFO queue and
collects batches of results in submission order.

Configuration is read from flags, CUBS_* environment variables and
$HOME/.cubs.yaml, in that order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.cubs.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output with debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.AddCommand(newSquaresCmd(a))
	rootCmd.AddCommand(newBenchCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// localFlag marks a command flag whose value, default included, overrides
// the file and environment for that command.
const localFlag = "cubs_local_flag"

// flagKeys maps flag names to configuration keys. Commands that do not
// define a flag simply leave its key to the file, environment or default.
var flagKeys = map[string]string{
	"output":           "output",
	"verbose":          "verbose",
	"no-color":         "no-color",
	"workers":          "workers",
	"pin-workers":      "pin-workers",
	"shutdown-timeout": "shutdown-timeout",
	"max-attempts":     "retry.max-attempts",
	"retry-delay":      "retry.initial-delay",
	"backoff":          "retry.backoff",
	"rate":             "rate-limit.tasks-per-second",
	"burst":            "rate-limit.burst",
}

// initConfig resolves the configuration and sets up logging.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.manager = config.NewManager(a.cfgFile)
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f != nil && f.Annotations[localFlag] != nil {
			a.manager.Override(key, f.Value.String())
			continue
		}
		if err := a.manager.BindFlag(key, f); err != nil {
			return err
		}
	}

	cfg, err := a.manager.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	a.cfg = cfg

	a.setupLogging(cmd)
	return nil
}

// setupLogging configures the logrus logger shared with the pool.
func (a *app) setupLogging(cmd *cobra.Command) {
	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetFormatter(&logrus.TextFormatter{
		DisableColors: a.cfg.NoColor,
		FullTimestamp: true,
	})

	a.log.SetLevel(logrus.InfoLevel)
	if a.cfg.Verbose {
		a.log.SetLevel(logrus.DebugLevel)
		a.log.Debug("verbose logging enabled")
		if f := a.manager.ConfigFileUsed(); f != "" {
			a.log.WithField("file", f).Debug("loaded configuration")
		}
	}
}
