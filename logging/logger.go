// Package logging adapts log/slog to the mono framework's types.Logger.
package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/go-monolith/mono/pkg/types"
)

type slogLogger struct {
	l *slog.Logger
}

var _ types.Logger = (*slogLogger)(nil)

// New returns a logger writing to w at the given level ("debug", "info", "warn", "error")
// in "text" or "json" format.
func New(w io.Writer, level, format string) types.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &slogLogger{l: slog.New(h)}
}

// FromSlog wraps an existing slog.Logger.
func FromSlog(l *slog.Logger) types.Logger {
	return &slogLogger{l: l}
}

// Discard returns a logger that drops everything.
func Discard() types.Logger {
	return New(io.Discard, "error", "text")
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// LevelName returns the canonical name ("debug", "info", "warn", "error") of level.
func LevelName(level string) string {
	switch ParseLevel(level) {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	default:
		return "info"
	}
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) types.Logger {
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) WithError(err error) types.Logger {
	return &slogLogger{l: s.l.With("error", err)}
}

func (s *slogLogger) WithModule(module string) types.Logger {
	return &slogLogger{l: s.l.With("module", module)}
}
