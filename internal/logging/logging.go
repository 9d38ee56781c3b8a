// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing to stderr. format is "text" or "json";
// debug lowers the level to Debug.
func New(format string, debug bool) (*logrus.Logger, error) {
	return NewWithOutput(os.Stderr, format, debug)
}

// NewWithOutput is New with an explicit destination
func NewWithOutput(out io.Writer, format string, debug bool) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.Out = out

	switch format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger, nil
}

// Component returns an entry tagged with the component name
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}
