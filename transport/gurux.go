package transport

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	gxcommon "github.com/Gurux/gxcommon-go"
	gxserial "github.com/Gurux/gxserial-go"

	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
)

// ErrUnsupportedStopBits is returned when the serial backend cannot apply the requested stop bits.
var ErrUnsupportedStopBits = errors.New("transport: unsupported stop bits")

// serialMedia is the subset of *gxserial.GXSerial used by the adapter.
type serialMedia interface {
	SetOnReceived(value gxcommon.ReceivedEventHandler)
	SetOnError(value gxcommon.ErrorEventHandler)
	SetOnMediaStateChange(value gxcommon.MediaStateHandler)
	Open() error
	Close() error
	Send(data any, receiver string) error
	IsOpen() bool
}

var _ serialMedia = (*gxserial.GXSerial)(nil)

// Gurux is a Transport backed by github.com/Gurux/gxserial-go.
type Gurux struct {
	logger    logger.Logger
	listPorts func() ([]string, error)
	newMedia  func(cfg *PortConfig) (serialMedia, error)
}

var _ Transport = (*Gurux)(nil)

// NewGurux creates a Gurux transport. A nil logger selects the package default logger.
func NewGurux(l logger.Logger) *Gurux {
	if l == nil {
		l = logger.GetLogger()
	}

	return &Gurux{
		logger:    l,
		listPorts: gxserial.GetPortNames,
		newMedia:  newGXSerial,
	}
}

// List implements Transport.
//
// The Gurux backend reports port names only, so PortInfo carries just the path.
func (g *Gurux) List() ([]PortInfo, error) {
	names, err := g.listPorts()
	if err != nil {
		return nil, fmt.Errorf("transport: list ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		ports = append(ports, PortInfo{Path: name})
	}

	return ports, nil
}

// Open implements Transport.
func (g *Gurux) Open(cfg *PortConfig, l Listener) (Handle, error) {
	if cfg == nil {
		return nil, errors.New("transport: nil port config")
	}
	if l == nil {
		return nil, errors.New("transport: nil listener")
	}

	media, err := g.newMedia(cfg)
	if err != nil {
		return nil, err
	}

	h := &guruxHandle{media: media, listener: l, logger: g.logger.With("port", cfg.Path())}

	media.SetOnReceived(func(_ gxcommon.IGXMedia, e gxcommon.ReceiveEventArgs) {
		h.handleData(e.Data())
	})
	media.SetOnError(func(_ gxcommon.IGXMedia, err error) {
		h.handleError(err)
	})
	media.SetOnMediaStateChange(func(_ gxcommon.IGXMedia, e gxcommon.MediaStateEventArgs) {
		if e.State() == gxcommon.MediaStateClosed {
			h.handleClosed()
		}
	})

	if err := media.Open(); err != nil {
		h.closing.Store(true)
		return nil, err
	}
	h.opened.Store(true)

	g.logger.Debug("port opened", "config", cfg.String())

	return h, nil
}

func newGXSerial(cfg *PortConfig) (serialMedia, error) {
	stopBits, err := toGXStopBits(cfg.StopBits())
	if err != nil {
		return nil, err
	}

	return gxserial.NewGXSerial(
		cfg.Path(),
		gxcommon.BaudRate(cfg.BaudRate()),
		int(cfg.DataBits()),
		stopBits,
		toGXParity(cfg.Parity()),
	), nil
}

func toGXParity(p Parity) gxcommon.Parity {
	switch p {
	case ParityOdd:
		return gxcommon.ParityOdd
	case ParityEven:
		return gxcommon.ParityEven
	case ParityMark:
		return gxcommon.ParityMark
	case ParitySpace:
		return gxcommon.ParitySpace
	default:
		return gxcommon.ParityNone
	}
}

func toGXStopBits(s StopBits) (gxcommon.StopBits, error) {
	switch s {
	case StopBitsOne:
		return gxcommon.StopBitsOne, nil
	case StopBitsTwo:
		return gxcommon.StopBitsTwo, nil
	default:
		return gxcommon.StopBitsOne, fmt.Errorf("%w: %s", ErrUnsupportedStopBits, s)
	}
}

// guruxHandle adapts one open GXSerial media to Handle.
//
// The media reports its own Close through the state callback and reports the reader shutdown
// as an error, so both are suppressed once closing is set.
type guruxHandle struct {
	media    serialMedia
	listener Listener
	logger   logger.Logger

	mu      sync.Mutex // serialize Write and Close
	opened  atomic.Bool
	closing atomic.Bool
}

var _ Handle = (*guruxHandle)(nil)

func (h *guruxHandle) Write(data []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closing.Load() {
		return 0, ErrPortClosed
	}
	if len(data) == 0 {
		return 0, nil
	}

	if err := h.media.Send(data, ""); err != nil {
		return 0, err
	}

	return len(data), nil
}

func (h *guruxHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closing.CompareAndSwap(false, true) {
		return nil
	}

	return h.media.Close()
}

func (h *guruxHandle) IsOpen() bool {
	return h.opened.Load() && !h.closing.Load() && h.media.IsOpen()
}

func (h *guruxHandle) handleData(data []byte) {
	if h.closing.Load() || len(data) == 0 {
		return
	}
	h.listener.OnData(data)
}

func (h *guruxHandle) handleError(err error) {
	if h.closing.Load() {
		h.logger.Debug("suppressed error after close", "error", err)
		return
	}
	// errors raised by Open are returned to the caller instead
	if !h.opened.Load() {
		return
	}
	h.listener.OnError(err)
}

func (h *guruxHandle) handleClosed() {
	if !h.opened.Load() {
		return
	}
	if !h.closing.CompareAndSwap(false, true) {
		return
	}
	h.listener.OnClosed()
}
