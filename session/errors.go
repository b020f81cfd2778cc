package session

import "errors"

// Kinds of SendError. Use errors.Is to test which kind a send failure is.
var (
	// ErrNotConnected indicates that no port is open.
	ErrNotConnected = errors.New("session: not connected")

	// ErrInvalidInput indicates that the input could not be encoded in the current format.
	// Nothing is written and no bytes are counted.
	ErrInvalidInput = errors.New("session: invalid input")

	// ErrTransport indicates that the transport failed to write the encoded bytes.
	ErrTransport = errors.New("session: transport error")
)

var (
	// ErrInvalidTransition is returned when a state change is not allowed from the current state.
	ErrInvalidTransition = errors.New("session: invalid state transition")

	// ErrConfigNil indicates that a nil port config was provided.
	ErrConfigNil = errors.New("session: port config is nil")

	// ErrTransportNil indicates that a nil transport was provided.
	ErrTransportNil = errors.New("session: transport is nil")

	// ErrSessionClosed indicates that the session has been shut down.
	ErrSessionClosed = errors.New("session: session is shut down")
)

// SendError is returned by Session.Send.
//
// Kind is one of ErrNotConnected, ErrInvalidInput or ErrTransport and Err is the underlying cause, if any.
type SendError struct {
	Kind error
	Err  error
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}

	return e.Kind.Error() + ": " + e.Err.Error()
}

// Is reports whether target is the kind of this error.
func (e *SendError) Is(target error) bool {
	return e.Kind == target
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// OpenError is returned by Session.Open when the transport refuses to open a port.
// Its message is the transport's message, unchanged.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return e.Err.Error()
}

func (e *OpenError) Unwrap() error {
	return e.Err
}
