// Package logging builds the process logger from a level and a format.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a timestamped logger writing to w. An unparsable level falls
// back to info; any format other than "json" writes human-readable console
// output.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if strings.EqualFold(format, FormatJSON) {
		return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger().Level(lvl)
}
