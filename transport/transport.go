// Package transport defines the boundary between a terminal session and the component that owns
// the operating system serial handle.
//
// A Transport enumerates ports and opens them. An open port is represented by a Handle, which is
// exclusively owned by whoever opened it. Inbound data and error/close notifications are delivered
// asynchronously to the Listener passed to Open, typically from a reader goroutine owned by the
// transport. Listener methods must not block.
//
// The Gurux type implements Transport on top of github.com/Gurux/gxserial-go.
package transport

import "errors"

// ErrPortClosed is returned when writing to a handle that has been closed.
var ErrPortClosed = errors.New("transport: port is closed")

// PortInfo describes an available serial port. Fields other than Path are optional.
type PortInfo struct {
	Path         string `json:"path" yaml:"path"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	SerialNumber string `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty"`
	PnpID        string `json:"pnpId,omitempty" yaml:"pnpId,omitempty"`
	VendorID     string `json:"vendorId,omitempty" yaml:"vendorId,omitempty"`
	ProductID    string `json:"productId,omitempty" yaml:"productId,omitempty"`
}

// String returns the path, followed by the manufacturer when known.
func (p PortInfo) String() string {
	if p.Manufacturer == "" {
		return p.Path
	}

	return p.Path + " - " + p.Manufacturer
}

// Listener receives asynchronous notifications for one open handle.
type Listener interface {
	// OnData is called with each chunk of bytes read from the port.
	// The slice is only valid for the duration of the call.
	OnData(data []byte)
	// OnError is called when the port reports an I/O error.
	OnError(err error)
	// OnClosed is called when the port is closed by the device or the operating system.
	// It is not called for closes requested through Handle.Close.
	OnClosed()
}

// Transport enumerates and opens serial ports.
type Transport interface {
	// List returns the ports currently available.
	List() ([]PortInfo, error)
	// Open opens the port described by cfg and starts delivering notifications to l.
	// Open is not cancellable; it returns once the port is open or the attempt failed.
	Open(cfg *PortConfig, l Listener) (Handle, error)
}

// Handle is an open serial port.
type Handle interface {
	// Write writes data to the port and returns the number of bytes written.
	Write(data []byte) (int, error)
	// Close closes the port. Closing an already closed handle is a no-op.
	Close() error
	// IsOpen reports whether the port is still open.
	IsOpen() bool
}
