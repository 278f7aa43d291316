package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chilicat/scrbuild/internal/diagnostics"
)

// Log flag names and formats
const (
	FlagLogLevel  = "loglevel"
	FlagLogFormat = "logformat"
	FlagNoColor   = "no-color"

	FormatConsole = "console"
	FormatText    = "text"
	FormatJSON    = "json"
)

// registerLoggingFlags adds the persistent logging flags
func registerLoggingFlags(flags *pflag.FlagSet) {
	flags.String(FlagLogLevel, "info", "log level: debug, info, warn or error")
	flags.String(FlagLogFormat, FormatConsole, "log format: console (colored), text or json")
	flags.Bool(FlagNoColor, false, "disable colored console output")
}

// loggerFactory creates the per-build loggers. Each call returns a logger
// with its own error state.
type loggerFactory struct {
	level  diagnostics.Level
	format string
	color  bool
	cmd    *cobra.Command
}

func newLoggerFactory(cmd *cobra.Command, debugLogging bool) (*loggerFactory, error) {
	rawLevel, _ := cmd.Flags().GetString(FlagLogLevel)
	level, err := diagnostics.ParseLevel(rawLevel)
	if err != nil {
		return nil, err
	}
	if debugLogging && !cmd.Flags().Changed(FlagLogLevel) {
		level = diagnostics.LevelDebug
	}

	format, _ := cmd.Flags().GetString(FlagLogFormat)
	switch format {
	case FormatConsole, FormatText, FormatJSON:
	default:
		return nil, fmt.Errorf("unknown log format %q, expected %s, %s or %s", format, FormatConsole, FormatText, FormatJSON)
	}
	noColor, _ := cmd.Flags().GetBool(FlagNoColor)

	return &loggerFactory{level: level, format: format, color: !noColor, cmd: cmd}, nil
}

// Logger returns a fresh logger tagged with module
func (f *loggerFactory) Logger(module string) diagnostics.Logger {
	switch f.format {
	case FormatText, FormatJSON:
		opts := &slog.HandlerOptions{Level: diagnostics.ToSlogLevel(f.level)}
		var handler slog.Handler
		if f.format == FormatJSON {
			handler = slog.NewJSONHandler(f.cmd.ErrOrStderr(), opts)
		} else {
			handler = slog.NewTextHandler(f.cmd.ErrOrStderr(), opts)
		}
		l := diagnostics.NewSlog(slog.New(handler))
		if module == "" {
			return l
		}
		return l.With("module", module)
	default:
		c := diagnostics.NewConsoleWriter(f.level, f.cmd.OutOrStdout(), f.cmd.ErrOrStderr())
		if !f.color {
			c.SetColors(false)
		}
		if module == "" {
			return c
		}
		return c.WithPrefix(module)
	}
}
