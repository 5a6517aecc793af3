//go:build !debug

package pool

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newDefaultLogger discards output unless the package is built with -tags debug.
func newDefaultLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.WarnLevel)
	return l.WithField("component", "cubs")
}
