// Package logger is the structured logging facade of the serial console packages. Applications
// can plug in their own implementation of Logger.
//
// Diagnostics are written to stderr by default so they never interleave with terminal lines printed on stdout.
package logger

import (
	"fmt"
	"strings"
)

// Level is a logging severity.
type Level int8

const (
	// DebugLevel enables per-chunk traffic diagnostics.
	DebugLevel Level = iota - 1
	// InfoLevel reports port lifecycle events. It is the default.
	InfoLevel
	// WarnLevel reports recoverable problems such as failed port enumeration.
	WarnLevel
	// ErrorLevel reports failed opens, writes and transport errors.
	ErrorLevel
	// FatalLevel logs and then exits the process.
	FatalLevel
)

// String returns the lower-case name of the level.
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return fmt.Sprintf("level(%d)", int8(l))
	}
}

// ParseLevel parses a level name such as "debug" or "WARN".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	}

	return InfoLevel, fmt.Errorf("logger: unknown level %q", s)
}

// Logger is the structured logger used across the module. Arguments after msg are alternating
// keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// Fatal logs at error severity and calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
	// With returns a child logger carrying keyValues on every record. The child shares the
	// parent's level.
	With(keyValues ...any) Logger
	Level() Level
	SetLevel(level Level)
}
