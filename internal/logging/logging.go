// Package logging wires the core's zerolog setup. One process-wide logger
// is configured at startup; every subsystem gets a child logger tagged
// with its own "component" field so log lines can be filtered per shim.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level mirrors the handful of levels the core actually emits at
// (§7 of the spec only ever asks for info and warn, plus error for
// surfaced failures logged by callers).
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls how the root logger is built.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Root is the process-wide logger. This package's init() already calls
// Init with info-level console output to stdout, so Root is usable before
// any explicit Init; a later Init call replaces it.
var Root zerolog.Logger

// Init configures Root from cfg. Safe to call more than once (e.g. in
// tests), the latest call wins.
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Root = zerolog.New(output).With().Timestamp().Logger()
		return
	}
	Root = zerolog.New(zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the given subsystem name,
// e.g. Component("pool"), Component("dns").
func Component(name string) zerolog.Logger {
	return Root.With().Str("component", name).Logger()
}

func init() {
	// A sane default so packages that log at import time (none currently
	// do, but tests construct components directly) never hit a totally
	// unconfigured zero Logger.
	Init(Config{Level: InfoLevel})
}
