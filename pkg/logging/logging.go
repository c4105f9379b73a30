// Package logging builds the zerolog loggers used across the SDK
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Base builds a zerolog.Logger for app.
// format: json|console; level: debug|info|warn|error
func Base(app, level, format string) zerolog.Logger {
	return New(os.Stdout, app, level, format)
}

// New is Base writing to w
func New(w io.Writer, app, level, format string) zerolog.Logger {
	if strings.ToLower(strings.TrimSpace(format)) == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Str("app", app).Logger()
}

// ParseLevel falls back to info for unknown levels
func ParseLevel(s string) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s))); err == nil && s != "" {
		return lvl
	}
	return zerolog.InfoLevel
}

// Component returns l tagged with a component field
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
