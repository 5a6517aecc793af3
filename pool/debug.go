//go:build debug

package pool

import (
	"os"

	"github.com/sirupsen/logrus"
)

// newDefaultLogger logs pool lifecycle events to stderr when built with
// -tags debug.
func newDefaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000000"})
	return l.WithField("component", "cubs")
}
