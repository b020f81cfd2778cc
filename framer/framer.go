// Package framer segments an inbound serial byte stream into display units.
//
// The transport gives no guarantee that one write by the peer arrives as one chunk, so in ASCII
// format bytes are buffered until a line terminator arrives. "\r\n", a bare "\n" and a bare "\r"
// all terminate a line. Zero-length lines are dropped. In Hex format every chunk is emitted
// immediately as one unit and the line buffer is left untouched.
package framer

import (
	"github.com/miroslavpetrov/Serial-Console-Pro/codec"
)

const initialBufferSize = 256

// LineFramer buffers a partial ASCII line between chunks.
//
// A LineFramer is not safe for concurrent use; the owning session serializes access.
type LineFramer struct {
	buf []byte
}

// New creates an empty LineFramer.
func New() *LineFramer {
	return &LineFramer{buf: make([]byte, 0, initialBufferSize)}
}

// Feed consumes one inbound chunk and returns the complete display units it produced, in order.
//
// Returned strings never contain '\r' or '\n' in ASCII format.
func (f *LineFramer) Feed(chunk []byte, format codec.Format) []string {
	if format == codec.Hex {
		if len(chunk) == 0 {
			return nil
		}

		return []string{codec.DecodeInbound(chunk, codec.Hex)}
	}

	f.buf = append(f.buf, chunk...)

	var lines []string
	start := 0
	for i := 0; i < len(f.buf); i++ {
		c := f.buf[i]
		if c != '\r' && c != '\n' {
			continue
		}

		if i > start {
			lines = append(lines, codec.DecodeInbound(f.buf[start:i], codec.ASCII))
		}
		if c == '\r' && i+1 < len(f.buf) && f.buf[i+1] == '\n' {
			i++
		}
		start = i + 1
	}

	// keep the unterminated remainder; copy handles the overlap
	n := copy(f.buf, f.buf[start:])
	f.buf = f.buf[:n]

	return lines
}

// Pending returns the number of buffered bytes that do not yet form a complete line.
func (f *LineFramer) Pending() int {
	return len(f.buf)
}

// Reset discards any buffered partial line.
func (f *LineFramer) Reset() {
	f.buf = f.buf[:0]
}
