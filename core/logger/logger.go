// Package logger owns the process-wide logrus logger. Log output goes to
// stderr so that stdout stays reserved for reports.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var defaultLogger *logrus.Logger

func init() {
	defaultLogger = logrus.New()
	defaultLogger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	defaultLogger.SetOutput(os.Stderr)

	level := os.Getenv("LOG_LEVEL")
	if isTest() {
		level = "silent"
	}
	if level == "" {
		level = "info"
	}
	_ = ConfigureFromString(level)
}

func isTest() bool {
	return os.Getenv("GO_ENV") == "test"
}

// WithName creates a child logger with a name field
func WithName(name string) *logrus.Entry {
	return defaultLogger.WithField("name", name)
}

// SetLevel sets the logging level
func SetLevel(level logrus.Level) {
	defaultLogger.SetLevel(level)
}

// ConfigureFromString configures the logger from a level name. "silent"
// discards all output; GO_ENV=test always behaves as silent.
func ConfigureFromString(levelStr string) error {
	if isTest() || strings.EqualFold(levelStr, "silent") {
		defaultLogger.SetOutput(io.Discard)
		return nil
	}

	level, err := logrus.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return err
	}
	defaultLogger.SetOutput(os.Stderr)
	SetLevel(level)
	return nil
}
