// Package diagnostics is the reporting channel of the descriptor build.
//
// Every stage of a build reports problems through a Logger instead of
// returning them. A build is considered successful when its Logger has not
// seen a single error-level entry, so callers can reconstruct the outcome
// from the diagnostic stream alone.
package diagnostics

import (
	"fmt"
	"strings"
)

// Level represents the severity of a diagnostic
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name (debug, info, warn, error) to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Location points at the source of a diagnostic
type Location struct {
	File   string // File path, relative to a source root when known
	Line   int    // Line number (1-based, 0 when unknown)
	Column int    // Column number (1-based, 0 when unknown)
}

// String returns a formatted string representation of the location
func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	if l.Line <= 0 {
		return l.File
	}
	if l.Column <= 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// IsEmpty returns true if the location has no useful information
func (l Location) IsEmpty() bool {
	return l.File == ""
}

// Diagnostic is a single reported entry
type Diagnostic struct {
	Level    Level
	Message  string
	Location Location
	Err      error
}

// String renders the diagnostic as "location: message: cause"
func (d Diagnostic) String() string {
	var b strings.Builder
	if loc := d.Location.String(); loc != "" {
		b.WriteString(loc)
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	if d.Err != nil {
		if d.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(d.Err.Error())
	}
	return b.String()
}

// Option decorates a diagnostic before it is recorded
type Option func(*Diagnostic)

// At attaches a file and line to the diagnostic
func At(file string, line int) Option {
	return func(d *Diagnostic) {
		d.Location = Location{File: file, Line: line}
	}
}

// AtColumn attaches a file, line and column to the diagnostic
func AtColumn(file string, line, column int) Option {
	return func(d *Diagnostic) {
		d.Location = Location{File: file, Line: line, Column: column}
	}
}

// AtLocation attaches an already resolved location
func AtLocation(loc Location) Option {
	return func(d *Diagnostic) {
		d.Location = loc
	}
}

// Cause attaches the error that triggered the diagnostic
func Cause(err error) Option {
	return func(d *Diagnostic) {
		d.Err = err
	}
}

// NewDiagnostic builds a diagnostic from a message and options
func NewDiagnostic(level Level, msg string, opts ...Option) Diagnostic {
	d := Diagnostic{Level: level, Message: msg}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// Logger is the sink every build stage reports to.
//
// ErrorPrinted reports whether any error-level entry has been recorded by
// this instance. The state is per instance: a new build needs a new Logger.
type Logger interface {
	Debug(msg string, opts ...Option)
	Info(msg string, opts ...Option)
	Warn(msg string, opts ...Option)
	Error(msg string, opts ...Option)
	Enabled(level Level) bool
	ErrorPrinted() bool
}

// recorder is the minimal hook shared by the concrete loggers
type recorder interface {
	record(d Diagnostic)
}

// base turns the four leveled methods into calls to record
type base struct {
	r recorder
}

func (b base) Debug(msg string, opts ...Option) { b.r.record(NewDiagnostic(LevelDebug, msg, opts...)) }
func (b base) Info(msg string, opts ...Option)  { b.r.record(NewDiagnostic(LevelInfo, msg, opts...)) }
func (b base) Warn(msg string, opts ...Option)  { b.r.record(NewDiagnostic(LevelWarn, msg, opts...)) }
func (b base) Error(msg string, opts ...Option) { b.r.record(NewDiagnostic(LevelError, msg, opts...)) }

// Debugf logs a formatted debug message if the logger has debug enabled
func Debugf(l Logger, format string, args ...interface{}) {
	if l.Enabled(LevelDebug) {
		l.Debug(fmt.Sprintf(format, args...))
	}
}
