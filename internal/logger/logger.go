// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global logger.  The dev environment gets a human-readable
// console writer; every other environment logs JSON lines to stdout.
func Init(level, environment string) {
	InitWithWriter(os.Stdout, level, environment)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(w io.Writer, level, environment string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	out := w
	if strings.EqualFold(environment, "dev") {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	log.Logger = zerolog.New(out).With().
		Timestamp().
		Str("environment", environment).
		Logger()
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
