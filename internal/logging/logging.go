// Package logging builds the zerolog loggers used across pubfold.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config selects the log level and output form.
type Config struct {
	// Level is a zerolog level name (debug, info, warn, error). Empty means info.
	Level string
	// Human selects a console writer instead of JSON lines.
	Human bool
	// Out defaults to stderr.
	Out io.Writer
}

// New returns a logger tagged with a fresh run ID.
func New(cfg Config) zerolog.Logger {
	return NewWithRunID(cfg, NewRunID())
}

// NewWithRunID returns a logger tagged with runID.
func NewWithRunID(cfg Config, runID string) zerolog.Logger {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}
	if cfg.Human {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewRunID returns a random run identifier.
func NewRunID() string {
	return uuid.NewString()
}
