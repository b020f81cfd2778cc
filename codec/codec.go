// Package codec converts between user-facing text and the raw byte sequences exchanged with a
// serial device.
//
// Two display formats are supported:
//
//   - ASCII: one character per byte. Outbound input must be 7-bit ASCII, inbound bytes are rendered
//     verbatim as Latin-1 code points (no multi-byte text decoding is performed).
//   - Hex: every byte is rendered as two upper-case hex digits, bytes separated by a single space.
//     Outbound input may contain any separators; only [0-9a-fA-F] characters are kept.
//
// All functions are pure and safe for concurrent use.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Format is the display and input format of a terminal session.
type Format uint32

const (
	// ASCII renders bytes as characters and splits inbound data into lines.
	ASCII Format = iota
	// Hex renders bytes as space separated hex pairs, one display unit per inbound chunk.
	Hex
)

// String returns "ascii" or "hex".
func (f Format) String() string {
	switch f {
	case ASCII:
		return "ascii"
	case Hex:
		return "hex"
	default:
		return "unknown"
	}
}

// ParseFormat parses "ascii" or "hex", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ascii", "text":
		return ASCII, nil
	case "hex":
		return Hex, nil
	}

	return ASCII, fmt.Errorf("codec: unknown format %q", s)
}

var (
	// ErrNonASCIIInput indicates that ASCII input contains a character outside the 7-bit range.
	ErrNonASCIIInput = errors.New("codec: input contains a non-ASCII character")

	// ErrOddHexLength indicates that hex input has an odd number of hex digits after cleaning.
	ErrOddHexLength = errors.New("codec: hex input must have an even number of digits")

	// ErrEmptyHexInput indicates that hex input contains no hex digits at all.
	// An empty input string is not an error and encodes to zero bytes.
	ErrEmptyHexInput = errors.New("codec: hex input contains no hex digits")
)

const hexDigits = "0123456789ABCDEF"

// crlf is appended to ASCII input when requested.
var crlf = []byte{'\r', '\n'}

// EncodeOutbound converts user input into the bytes written to the device.
//
// In ASCII format every character becomes one byte and, when appendCRLF is set, "\r\n" is appended.
// In Hex format every character outside [0-9a-fA-F] is discarded and each pair of remaining digits
// becomes one byte, most significant nibble first; appendCRLF does not apply to hex input.
//
// Nothing is partially encoded: on error the returned slice is nil.
func EncodeOutbound(input string, format Format, appendCRLF bool) ([]byte, error) {
	switch format {
	case Hex:
		return encodeHex(input)
	default:
		return encodeASCII(input, appendCRLF)
	}
}

func encodeASCII(input string, appendCRLF bool) ([]byte, error) {
	size := len(input)
	if appendCRLF {
		size += len(crlf)
	}
	out := make([]byte, 0, size)

	for i, r := range input {
		if r > 0x7F {
			return nil, fmt.Errorf("%w: %q at offset %d", ErrNonASCIIInput, r, i)
		}
		out = append(out, byte(r))
	}

	if appendCRLF {
		out = append(out, crlf...)
	}

	return out, nil
}

func encodeHex(input string) ([]byte, error) {
	digits := make([]byte, 0, len(input))
	for i := 0; i < len(input); i++ {
		if hexValue(input[i]) >= 0 {
			digits = append(digits, input[i])
		}
	}

	switch {
	case len(input) == 0:
		return []byte{}, nil
	case len(digits) == 0:
		return nil, ErrEmptyHexInput
	case len(digits)%2 != 0:
		return nil, fmt.Errorf("%w: got %d digits", ErrOddHexLength, len(digits))
	}

	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = byte(hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1]))
	}

	return out, nil
}

// hexValue returns the nibble value of c, or -1 if c is not a hex digit.
func hexValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	default:
		return -1
	}
}

// DecodeInbound renders raw bytes for display.
//
// ASCII format maps every byte to the code point of the same value, so control characters and
// bytes above 0x7F are kept verbatim. Hex format returns upper-case hex pairs joined by spaces.
func DecodeInbound(data []byte, format Format) string {
	if format == Hex {
		return hexDump(data)
	}

	text, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO 8859-1 maps all 256 byte values; fall back to a byte-wise copy anyway.
		return latin1(data)
	}

	return string(text)
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(data)*3 - 1)
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(hexDigits[c>>4])
		b.WriteByte(hexDigits[c&0x0F])
	}

	return b.String()
}

func latin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, c := range data {
		runes[i] = rune(c)
	}

	return string(runes)
}
