package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is an alias used by services for dependency injection.
type Logger = log.Logger

// New returns a structured logger with consistent service prefix. LOG_LEVEL
// selects the level (debug, info, warn, error).
func New(service string) *Logger {
	return log.NewWithOptions(os.Stdout, log.Options{
		Prefix:          service,
		ReportTimestamp: true,
		TimeFormat:      time.StampMicro,
		Level:           levelFromEnv(),
	})
}

// Discard returns a logger that drops everything, for tests.
func Discard() *Logger {
	return log.New(io.Discard)
}

func levelFromEnv() log.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
