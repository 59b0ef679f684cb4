// Package logging builds the zerolog logger shared by the CLI and the
// generation pipeline.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// New creates a logger writing to w (stderr when nil). Unknown levels fall
// back to info; unknown formats fall back to console.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	var l zerolog.Logger
	if strings.EqualFold(format, FormatJSON) {
		l = zerolog.New(w).With().Timestamp().Logger()
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    !isTerminal(w),
		}).With().Timestamp().Logger()
	}

	zLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || zLevel == zerolog.NoLevel {
		zLevel = zerolog.InfoLevel
	}
	return l.Level(zLevel)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}
