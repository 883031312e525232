// Package logger builds the application slog logger and the security
// event logger used by the HTTP middleware.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Output formats
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New creates a slog logger. Unknown levels default to info and unknown
// formats to JSON. A nil writer means stdout.
func New(level, format string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, FormatText) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// ParseLevel maps debug, info, warn and error to slog levels
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
