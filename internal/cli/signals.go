package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
)

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
// A second signal forces immediate exit.
func SetupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logrus.WithField("signal", sig.String()).Info("received shutdown signal, draining")
		cancel()

		sig = <-sigCh
		logrus.WithField("signal", sig.String()).Warn("received second shutdown signal, forcing exit")
		os.Exit(1)
	}()

	return ctx
}
