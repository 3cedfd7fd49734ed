// Package logger builds the structured logger shared by the server components.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Pretty bool   // Enable pretty console output
}

// New creates a new structured logger writing to stdout.
func New(cfg Config) zerolog.Logger {
	var output io.Writer = os.Stdout
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "15:04:05",
		}
	}
	return NewWithWriter(cfg, output)
}

// NewWithWriter creates a logger writing to w. Level and timestamp are set on
// the returned logger only; no zerolog globals are touched, so loggers can be
// built concurrently. Timestamps use zerolog's default RFC 3339 format.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	return zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
