// Package logging configures the process-wide zerolog logger.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Init configures zerolog's global logger: console-pretty output to
// stderr, level from TRACKER_RELAY_LOG_LEVEL (default info).
func Init() {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if raw := os.Getenv("TRACKER_RELAY_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	zerolog.SetGlobalLevel(level)
	log := zerolog.New(writer).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
	globalLogger = log
}

var globalLogger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Get returns the configured global logger.
func Get() zerolog.Logger {
	return globalLogger
}
