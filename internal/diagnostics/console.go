package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Console writes diagnostics to the terminal with colored level tags.
// Warnings and errors go to the error stream, everything else to output.
type Console struct {
	base
	mu        sync.Mutex
	level     Level
	useColors bool
	showTime  bool
	prefix    string
	output    io.Writer
	errorOut  io.Writer
	errors    int
}

// NewConsole creates a console logger writing to stdout/stderr
func NewConsole(level Level) *Console {
	return NewConsoleWriter(level, os.Stdout, os.Stderr)
}

// NewConsoleWriter creates a console logger with explicit writers
func NewConsoleWriter(level Level, output, errorOut io.Writer) *Console {
	c := &Console{
		level:     level,
		useColors: shouldUseColors(),
		showTime:  level <= LevelDebug,
		output:    output,
		errorOut:  errorOut,
	}
	c.base = base{r: c}
	return c
}

// WithPrefix returns a fresh console that shares the writers and prefixes
// every line with "[prefix]". The error count of the copy starts at zero.
func (c *Console) WithPrefix(prefix string) *Console {
	n := &Console{
		level:     c.level,
		useColors: c.useColors,
		showTime:  c.showTime,
		prefix:    prefix,
		output:    c.output,
		errorOut:  c.errorOut,
	}
	n.base = base{r: n}
	return n
}

// SetColors forces colored output on or off
func (c *Console) SetColors(enabled bool) {
	c.useColors = enabled
}

// Enabled reports whether messages at level are printed
func (c *Console) Enabled(level Level) bool {
	return level >= c.level
}

// ErrorPrinted reports whether an error went through this console
func (c *Console) ErrorPrinted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors > 0
}

func (c *Console) record(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d.Level >= LevelError {
		c.errors++
	}
	if d.Level < c.level {
		return
	}

	writer := c.output
	if d.Level >= LevelWarn {
		writer = c.errorOut
	}
	fmt.Fprint(writer, c.format(d))
}

// format renders one line: [time] [LEVEL] [prefix] location: message
func (c *Console) format(d Diagnostic) string {
	var out strings.Builder

	if c.showTime {
		out.WriteString(time.Now().Format("15:04:05 "))
	}

	tag := fmt.Sprintf("[%s]", d.Level.String())
	if c.useColors {
		tag = levelColor(d.Level).Sprint(tag)
	}
	out.WriteString(tag)
	out.WriteString(" ")

	if c.prefix != "" {
		out.WriteString("[")
		out.WriteString(c.prefix)
		out.WriteString("] ")
	}

	out.WriteString(d.String())
	out.WriteString("\n")
	return out.String()
}

func levelColor(level Level) *color.Color {
	switch level {
	case LevelError:
		return color.New(color.FgRed, color.Bold)
	case LevelWarn:
		return color.New(color.FgYellow, color.Bold)
	case LevelInfo:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgMagenta)
	}
}

// shouldUseColors determines if colors should be used
func shouldUseColors() bool {
	// Check if NO_COLOR is set (standard)
	if os.Getenv("NO_COLOR") != "" {
		return false
	}

	// Check if FORCE_COLOR is set
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	return !color.NoColor
}
