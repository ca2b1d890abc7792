// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup installs the global logger. Development uses a human-readable
// console writer, production writes JSON lines. An unknown level falls
// back to info.
func Setup(level string, production bool) zerolog.Logger {
	return SetupWriter(os.Stderr, level, production)
}

// SetupWriter is Setup with an explicit output.
func SetupWriter(w io.Writer, level string, production bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	out := w
	if !production {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return log.Logger
}
