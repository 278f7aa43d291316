package diagnostics

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Slog forwards diagnostics to a structured slog.Logger.
// Locations become file/line/column attributes and causes an error attribute.
type Slog struct {
	base
	logger *slog.Logger
	errors atomic.Int64
}

// NewSlog wraps logger; a nil logger falls back to slog.Default()
func NewSlog(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Slog{logger: logger}
	s.base = base{r: s}
	return s
}

// With returns a fresh adapter with extra attributes and its own error count
func (s *Slog) With(args ...any) *Slog {
	return NewSlog(s.logger.With(args...))
}

// Enabled asks the underlying handler
func (s *Slog) Enabled(level Level) bool {
	return s.logger.Enabled(context.Background(), toSlogLevel(level))
}

// ErrorPrinted reports whether an error went through this adapter
func (s *Slog) ErrorPrinted() bool {
	return s.errors.Load() > 0
}

func (s *Slog) record(d Diagnostic) {
	if d.Level >= LevelError {
		s.errors.Add(1)
	}

	attrs := make([]any, 0, 4)
	if !d.Location.IsEmpty() {
		attrs = append(attrs, slog.String("file", d.Location.File))
		if d.Location.Line > 0 {
			attrs = append(attrs, slog.Int("line", d.Location.Line))
		}
		if d.Location.Column > 0 {
			attrs = append(attrs, slog.Int("column", d.Location.Column))
		}
	}
	if d.Err != nil {
		attrs = append(attrs, slog.String("error", d.Err.Error()))
	}
	s.logger.Log(context.Background(), toSlogLevel(d.Level), d.Message, attrs...)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// ToSlogLevel converts a diagnostics level to its slog counterpart
func ToSlogLevel(level Level) slog.Level {
	return toSlogLevel(level)
}
