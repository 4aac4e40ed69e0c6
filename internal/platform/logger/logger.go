package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog logger writing to stdout at the given level.
func New(level string) *slog.Logger {
	return NewTo(os.Stdout, level)
}

// NewTo is New with an explicit destination. The CLI logs to stderr so
// stdout stays parseable.
func NewTo(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})).With("service", "sidesa")
}

// ParseLevel maps LOG_LEVEL values to slog levels, defaulting to info.
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
