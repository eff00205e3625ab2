package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

const defaultLevel = logrus.DebugLevel

// Logger is the bootstrap logger used before the configuration has been
// resolved. Components receive their own handle from New.
var Logger logrus.FieldLogger

func init() {
	Logger = New(os.Getenv("LOG_LEVEL"))
}

// New creates a JSON logger writing to stdout at the given level. An unknown
// level falls back to debug and is reported on the returned logger.
func New(level string) *logrus.Logger {
	l := logrus.New()
	l.Formatter = &logrus.JSONFormatter{}
	l.Out = os.Stdout

	lvl, err := resolveLogLevel(level)
	l.Level = lvl

	if err != nil {
		l.Errorf("an error occurred resolving the log level: %s", err)
	}

	return l
}

// WithTrace binds the trace id and operation name used on every push log line.
func WithTrace(l logrus.FieldLogger, traceID, operation string) logrus.FieldLogger {
	return l.WithFields(logrus.Fields{
		"trace_id":  traceID,
		"operation": operation,
	})
}

func resolveLogLevel(envLvl string) (logrus.Level, error) {
	if envLvl == "" {
		return defaultLevel, nil
	}

	lvl, err := logrus.ParseLevel(envLvl)
	if err != nil {
		return defaultLevel, err
	}

	return lvl, nil
}
