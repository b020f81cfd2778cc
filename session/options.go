package session

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/miroslavpetrov/Serial-Console-Pro/codec"
	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
)

// Option is a functional option for configuring a Session.
type Option interface {
	apply(*Session) error
}

type optFunc func(*Session) error

func (f optFunc) apply(s *Session) error { return f(s) }

// WithLogger sets the logger used for diagnostics. Defaults to the package default logger.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(s *Session) error {
		if l == nil {
			return errors.New("session: logger is nil")
		}
		s.logger = l

		return nil
	})
}

// WithFormat sets the initial display format. Defaults to codec.ASCII.
func WithFormat(f codec.Format) Option {
	return optFunc(func(s *Session) error {
		if f != codec.ASCII && f != codec.Hex {
			return fmt.Errorf("session: invalid format %d", f)
		}
		s.format.Store(uint32(f))

		return nil
	})
}

// WithAppendCRLF sets whether SendInput appends "\r\n" in ASCII mode. Defaults to true.
func WithAppendCRLF(enabled bool) Option {
	return optFunc(func(s *Session) error {
		s.appendCRLF.Store(enabled)
		return nil
	})
}

// WithLocalEcho sets whether successfully sent input is echoed as a tx line. Defaults to true.
func WithLocalEcho(enabled bool) Option {
	return optFunc(func(s *Session) error {
		s.localEcho.Store(enabled)
		return nil
	})
}

// WithLanguage sets the language of status lines. Defaults to English.
func WithLanguage(tag language.Tag) Option {
	return optFunc(func(s *Session) error {
		s.lang = tag
		return nil
	})
}

// WithClock sets the clock used for line timestamps and connection statistics.
func WithClock(now func() time.Time) Option {
	return optFunc(func(s *Session) error {
		if now == nil {
			return errors.New("session: clock is nil")
		}
		s.now = now

		return nil
	})
}
