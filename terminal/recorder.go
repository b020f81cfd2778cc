package terminal

import (
	"io"
	"strings"
	"sync"
	"time"
)

// LogFileName returns the file name used when saving a session log recorded on t's date.
func LogFileName(t time.Time) string {
	return "serial-log-" + t.Format(time.DateOnly) + ".txt"
}

// FormatLogEntry renders a loggable line as "HH:MM:SS → text" or "HH:MM:SS ← text".
func FormatLogEntry(line Line) string {
	return line.Time.Format(TimeLayout) + " " + line.Direction.Arrow() + " " + line.Text
}

// Recorder is a Sink that buffers transmitted and received lines while recording is enabled.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	entries []string
}

var _ Sink = (*Recorder)(nil)

// NewRecorder creates a Recorder. Recording starts disabled.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Enable starts recording.
func (r *Recorder) Enable() {
	r.mu.Lock()
	r.enabled = true
	r.mu.Unlock()
}

// Disable stops recording. Already recorded entries are kept until flushed.
func (r *Recorder) Disable() {
	r.mu.Lock()
	r.enabled = false
	r.mu.Unlock()
}

// Enabled reports whether the recorder is recording.
func (r *Recorder) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.enabled
}

// Len returns the number of recorded entries.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// Emit records line if recording is enabled and the line is loggable.
func (r *Recorder) Emit(line Line) {
	if !line.Loggable() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.enabled {
		r.entries = append(r.entries, FormatLogEntry(line))
	}
}

// Flush returns the recorded entries and clears the buffer.
func (r *Recorder) Flush() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.entries
	r.entries = nil

	return entries
}

// WriteTo writes the recorded entries joined by "\n" to w and clears the buffer.
// Nothing is written when the buffer is empty.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	entries := r.Flush()
	if len(entries) == 0 {
		return 0, nil
	}

	n, err := io.WriteString(w, strings.Join(entries, "\n"))

	return int64(n), err
}
