// Package logging builds the hclog loggers the engine components fall
// back on when their configuration carries none.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Environment variables read by Default.
const (
	EnvLogLevel = "MODEMPACK_LOG_LEVEL"
	EnvJSONLog  = "MODEMPACK_JSON_LOG"
)

// textPrefix marks engine log lines so they stand out when they share a
// terminal with device console output.
const textPrefix = "📡 "

// NewLogger builds a named hclog logger. Text output carries the line
// prefix; MODEMPACK_JSON_LOG=1 switches to JSON records with no prefix.
// A nil output goes to stderr. Timestamps are UTC.
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := os.Getenv(EnvJSONLog) == "1"
	if !jsonFormat {
		output = NewPrefixWriter(textPrefix, output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z",
		TimeFn:     func() time.Time { return time.Now().UTC() },
	})
}

// Default is the logger a component uses when its config carries none:
// stderr output, level from MODEMPACK_LOG_LEVEL.
func Default(name string) hclog.Logger {
	return NewLogger(name, GetLogLevel(), nil)
}

// GetLogLevel returns the level configured in the environment, warn
// when unset.
func GetLogLevel() string {
	if level := os.Getenv(EnvLogLevel); level != "" {
		return level
	}
	return "warn"
}
