package terminal

import (
	"io"
	"strings"
	"sync"
)

// Writer is a Sink that renders lines as text to an io.Writer, one line per Emit.
//
// With timestamps enabled a received line renders as "[12:00:01] ← OK".
type Writer struct {
	mu         sync.Mutex
	w          io.Writer
	timestamps bool
	err        error
}

var _ Sink = (*Writer)(nil)

// NewWriter creates a Writer sink writing to w.
func NewWriter(w io.Writer, timestamps bool) *Writer {
	return &Writer{w: w, timestamps: timestamps}
}

// SetTimestamps enables or disables the timestamp prefix.
func (s *Writer) SetTimestamps(enabled bool) {
	s.mu.Lock()
	s.timestamps = enabled
	s.mu.Unlock()
}

// Err returns the first write error, if any. After an error the sink stops writing.
func (s *Writer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Emit writes the rendered line followed by a newline.
func (s *Writer) Emit(line Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, s.render(line)+"\n")
}

func (s *Writer) render(line Line) string {
	var sb strings.Builder
	if s.timestamps {
		sb.WriteByte('[')
		sb.WriteString(line.Time.Format(TimeLayout))
		sb.WriteString("] ")
	}
	if arrow := line.Direction.Arrow(); arrow != "" {
		sb.WriteString(arrow)
		sb.WriteByte(' ')
	}
	sb.WriteString(line.Text)

	return sb.String()
}
