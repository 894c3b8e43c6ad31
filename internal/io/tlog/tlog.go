// Package tlog provides leveled logging for TelTap. It exposes one logger
// per subsystem (Common for shared plumbing, Client for connection
// management) with variadic convenience methods, backed by zerolog so the
// daemon can emit either human-readable console output or JSON.
package tlog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger tagged with a subsystem name.
type Logger struct {
	zl zerolog.Logger
}

// Common is the logger for shared plumbing (config, capture, forwarding).
var Common = newLogger("common", os.Stderr)

// Client is the logger for connection management and the telnet stream.
var Client = newLogger("client", os.Stderr)

// Start configures the log level and output for all loggers. Level is one
// of trace, debug, info, warn, error or none. When w is a terminal the
// output is rendered with zerolog's console writer, otherwise as JSON.
func Start(level string, w io.Writer) {
	switch strings.ToLower(level) {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "none":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	Common = newLogger("common", w)
	Client = newLogger("client", w)
}

func newLogger(source string, w io.Writer) *Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}
	zl := zerolog.New(w).With().Timestamp().Str("source", source).Logger()
	return &Logger{zl: zl}
}

// Trace logs at trace level.
func (l *Logger) Trace(args ...interface{}) {
	l.zl.Trace().Msg(join(args))
}

// Debug logs at debug level.
func (l *Logger) Debug(args ...interface{}) {
	l.zl.Debug().Msg(join(args))
}

// Info logs at info level.
func (l *Logger) Info(args ...interface{}) {
	l.zl.Info().Msg(join(args))
}

// Warn logs at warn level.
func (l *Logger) Warn(args ...interface{}) {
	l.zl.Warn().Msg(join(args))
}

// Error logs at error level.
func (l *Logger) Error(args ...interface{}) {
	l.zl.Error().Msg(join(args))
}

// FatalPanic logs at panic level and then panics.
func (l *Logger) FatalPanic(args ...interface{}) {
	l.zl.Panic().Msg(join(args))
}

func join(args []interface{}) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprintf("%v", arg)
	}
	return strings.Join(parts, " ")
}
