// Package logging provides application-wide logging configuration.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global logger to write to stderr. Debug forces the
// debug level; otherwise level is parsed, falling back to warn so regular
// command output stays clean.
func Init(debug bool, level string) zerolog.Logger {
	return InitWriter(os.Stderr, debug, level)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, debug bool, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(lvl)
	_, isFile := w.(*os.File)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !isFile,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
	return log.Logger
}
