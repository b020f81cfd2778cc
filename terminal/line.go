// Package terminal defines the lines a serial session produces and the sinks that consume them.
//
// A Sink receives one Line per logical line, in emission order. The package provides sinks for
// rendering to an io.Writer (Writer), recording a session log (Recorder) and fanning out to several
// sinks at once (Broadcaster).
package terminal

import (
	"time"
)

// TimeLayout is the HH:MM:SS layout used for line timestamps.
const TimeLayout = "15:04:05"

// Direction tags the origin or severity of a line.
type Direction uint8

const (
	Info Direction = iota
	Error
	Success
	Warning
	TX
	RX
)

// String returns the lower-case direction name.
func (d Direction) String() string {
	switch d {
	case Info:
		return "info"
	case Error:
		return "error"
	case Success:
		return "success"
	case Warning:
		return "warning"
	case TX:
		return "tx"
	case RX:
		return "rx"
	default:
		return "unknown"
	}
}

// Loggable reports whether lines with this direction belong in a session log.
// Only transmitted and received data is logged.
func (d Direction) Loggable() bool {
	return d == TX || d == RX
}

// Arrow returns "→" for TX, "←" for RX and an empty string otherwise.
func (d Direction) Arrow() string {
	switch d {
	case TX:
		return "→"
	case RX:
		return "←"
	default:
		return ""
	}
}

// Line is one terminal line.
type Line struct {
	Time      time.Time
	Direction Direction
	Text      string
}

// NewLine creates a line stamped with the current time.
func NewLine(dir Direction, text string) Line {
	return Line{Time: time.Now(), Direction: dir, Text: text}
}

// Loggable reports whether the line belongs in a session log.
func (l Line) Loggable() bool { return l.Direction.Loggable() }

// Sink consumes terminal lines.
//
// Emit is called once per line, in emission order, and must not block for long; it may be called
// while the session holds its internal lock, so a Sink must not call back into the session.
type Sink interface {
	Emit(line Line)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(line Line)

// Emit calls f(line).
func (f SinkFunc) Emit(line Line) { f(line) }

// Discard is a Sink that drops every line.
var Discard Sink = SinkFunc(func(Line) {})
