package transport

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Defaults used by NewPortConfig.
const (
	DefaultBaudRate = 9600
	DefaultDataBits = DataBits8
	DefaultStopBits = StopBitsOne
	DefaultParity   = ParityNone
)

// MaxBaudRate is the largest accepted baud rate.
const MaxBaudRate = 4000000

// DataBits is the number of data bits per character.
type DataBits uint8

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

// Valid reports whether d is one of 5, 6, 7 or 8.
func (d DataBits) Valid() bool { return d >= DataBits5 && d <= DataBits8 }

// StopBits is the number of stop bits per character.
type StopBits uint8

const (
	StopBitsOne StopBits = iota
	StopBitsOnePointFive
	StopBitsTwo
)

// String returns "1", "1.5" or "2".
func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOnePointFive:
		return "1.5"
	case StopBitsTwo:
		return "2"
	default:
		return "unknown"
	}
}

// ParseStopBits parses "1", "1.5" or "2".
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(s) {
	case "1", "one":
		return StopBitsOne, nil
	case "1.5", "onepointfive":
		return StopBitsOnePointFive, nil
	case "2", "two":
		return StopBitsTwo, nil
	}

	return StopBitsOne, fmt.Errorf("transport: invalid stop bits %q", s)
}

// Parity is the parity checking mode.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// String returns the lower-case parity name.
func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	default:
		return "unknown"
	}
}

// letter returns the single letter used in "8N1" style notation.
func (p Parity) letter() string {
	switch p {
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	case ParityMark:
		return "M"
	case ParitySpace:
		return "S"
	default:
		return "N"
	}
}

// ParseParity parses a parity name, case-insensitively.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n", "":
		return ParityNone, nil
	case "odd", "o":
		return ParityOdd, nil
	case "even", "e":
		return ParityEven, nil
	case "mark", "m":
		return ParityMark, nil
	case "space", "s":
		return ParitySpace, nil
	}

	return ParityNone, fmt.Errorf("transport: invalid parity %q", s)
}

// PortConfig holds the settings used to open a serial port.
//
// A PortConfig is immutable once created; changing any setting requires a new config and a reopen.
type PortConfig struct {
	path     string
	baudRate int
	dataBits DataBits
	stopBits StopBits
	parity   Parity
}

// NewPortConfig creates a port configuration for path, defaulting to 9600 baud 8N1.
//
// opts are functional options applied in order; see With* functions.
func NewPortConfig(path string, opts ...PortOption) (*PortConfig, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("transport: port path must not be empty")
	}

	cfg := &PortConfig{
		path:     path,
		baudRate: DefaultBaudRate,
		dataBits: DefaultDataBits,
		stopBits: DefaultStopBits,
		parity:   DefaultParity,
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Path returns the device path, e.g. "/dev/ttyUSB0" or "COM3".
func (cfg *PortConfig) Path() string { return cfg.path }

// BaudRate returns the configured baud rate.
func (cfg *PortConfig) BaudRate() int { return cfg.baudRate }

// DataBits returns the configured data bits.
func (cfg *PortConfig) DataBits() DataBits { return cfg.dataBits }

// StopBits returns the configured stop bits.
func (cfg *PortConfig) StopBits() StopBits { return cfg.stopBits }

// Parity returns the configured parity.
func (cfg *PortConfig) Parity() Parity { return cfg.parity }

// String returns e.g. "/dev/ttyUSB0 115200 8N1".
func (cfg *PortConfig) String() string {
	return cfg.path + " " + strconv.Itoa(cfg.baudRate) + " " +
		strconv.Itoa(int(cfg.dataBits)) + cfg.parity.letter() + cfg.stopBits.String()
}

// PortOption is a functional option for configuring a PortConfig.
type PortOption interface {
	apply(*PortConfig) error
}

type portOptFunc func(*PortConfig) error

func (f portOptFunc) apply(cfg *PortConfig) error { return f(cfg) }

// WithBaudRate sets the baud rate. Must be in [1, MaxBaudRate].
func WithBaudRate(baud int) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if baud <= 0 || baud > MaxBaudRate {
			return fmt.Errorf("transport: baud rate %d out of range [1, %d]", baud, MaxBaudRate)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithDataBits sets the data bits. Must be 5, 6, 7 or 8.
func WithDataBits(bits int) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		d := DataBits(bits)
		if bits < 0 || bits > 255 || !d.Valid() {
			return fmt.Errorf("transport: data bits %d not in {5, 6, 7, 8}", bits)
		}
		cfg.dataBits = d

		return nil
	})
}

// WithStopBits sets the stop bits.
func WithStopBits(s StopBits) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if s > StopBitsTwo {
			return fmt.Errorf("transport: invalid stop bits %d", s)
		}
		cfg.stopBits = s

		return nil
	})
}

// WithParity sets the parity mode.
func WithParity(p Parity) PortOption {
	return portOptFunc(func(cfg *PortConfig) error {
		if p > ParitySpace {
			return fmt.Errorf("transport: invalid parity %d", p)
		}
		cfg.parity = p

		return nil
	})
}
