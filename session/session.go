package session

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/miroslavpetrov/Serial-Console-Pro/codec"
	"github.com/miroslavpetrov/Serial-Console-Pro/framer"
	"github.com/miroslavpetrov/Serial-Console-Pro/internal/queue"
	"github.com/miroslavpetrov/Serial-Console-Pro/internal/task"
	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
	"github.com/miroslavpetrov/Serial-Console-Pro/terminal"
	"github.com/miroslavpetrov/Serial-Console-Pro/transport"
)

type eventKind uint8

const (
	eventData eventKind = iota
	eventError
	eventClosed
)

// event is a transport notification tagged with the generation of the connection that produced it.
type event struct {
	gen  uint64
	kind eventKind
	data []byte
	err  error
}

// Session is a serial terminal session. It owns at most one open transport handle, frames inbound
// bytes into lines, encodes outbound input and reports everything as terminal lines to a Sink.
//
// All mutations of the connection, the line framer and the statistics happen under one lock.
// Transport notifications are queued by the transport's goroutine and applied in order by a
// dispatch goroutine; notifications from a connection that has since been closed are dropped.
//
// Example Usage:
//
//	s, err := session.NewSession(ctx, transport.NewGurux(nil), terminal.NewWriter(os.Stdout, true))
//	if err != nil {
//	    // handle error
//	}
//	defer s.Shutdown()
//
//	cfg, _ := transport.NewPortConfig("/dev/ttyUSB0", transport.WithBaudRate(115200))
//	if err := s.Open(cfg); err != nil {
//	    // handle error
//	}
//	_ = s.SendInput("AT")
type Session struct {
	transport transport.Transport
	sink      terminal.Sink
	logger    logger.Logger
	lang      language.Tag
	printer   *message.Printer
	now       func() time.Time

	opMu     sync.Mutex // guards everything below up to shutdown
	state    *StateMgr
	framer   *framer.LineFramer
	handle   transport.Handle
	cfg      *transport.PortConfig
	gen      uint64
	shutdown bool

	format     atomic.Uint32
	appendCRLF atomic.Bool
	localEcho  atomic.Bool

	events  *queue.Queue[event]
	notify  chan struct{}
	taskMgr *task.Manager
	metrics Metrics
}

// NewSession creates a session that opens ports through tr and emits lines to sink.
// A nil sink discards all lines.
//
// The session starts a dispatch goroutine bound to ctx; call Shutdown to release it.
func NewSession(ctx context.Context, tr transport.Transport, sink terminal.Sink, opts ...Option) (*Session, error) {
	if tr == nil {
		return nil, ErrTransportNil
	}
	if sink == nil {
		sink = terminal.Discard
	}

	s := &Session{
		transport: tr,
		sink:      sink,
		logger:    logger.GetLogger(),
		lang:      terminal.DefaultLanguage,
		now:       time.Now,
		framer:    framer.New(),
		events:    queue.New[event](),
		notify:    make(chan struct{}, 1),
	}
	s.format.Store(uint32(codec.ASCII))
	s.appendCRLF.Store(true)
	s.localEcho.Store(true)

	for _, opt := range opts {
		if err := opt.apply(s); err != nil {
			return nil, err
		}
	}

	s.printer = terminal.NewPrinter(s.lang)
	s.state = NewStateMgr(s.logger, s.now)
	s.taskMgr = task.NewManager(ctx, s.logger)

	if err := s.taskMgr.Start("dispatch", s.dispatchTask); err != nil {
		return nil, err
	}

	return s, nil
}

// ListAvailablePorts returns the ports reported by the transport.
//
// A transport failure is logged and reported as an empty list.
func (s *Session) ListAvailablePorts() []transport.PortInfo {
	ports, err := s.transport.List()
	if err != nil {
		s.logger.Warn("failed to list serial ports", "error", err)
		return []transport.PortInfo{}
	}
	if ports == nil {
		ports = []transport.PortInfo{}
	}

	s.emit(terminal.Info, s.printer.Sprintf(terminal.MsgFoundPorts, len(ports)))

	return ports
}

// Open opens the port described by cfg. An already open port is closed first.
//
// On failure the session stays Disconnected and the returned *OpenError carries the transport's message.
// A nil cfg or a shut down session fails with ErrConfigNil or ErrSessionClosed. Every failure emits
// one error line.
func (s *Session) Open(cfg *transport.PortConfig) error {
	if cfg == nil {
		s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgConnectionFailed, ErrConfigNil.Error()))
		return ErrConfigNil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.shutdown {
		s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgConnectionFailed, ErrSessionClosed.Error()))
		return ErrSessionClosed
	}

	if s.handle != nil {
		s.logger.Info("closing current port before reopening", "port", s.cfg.Path(), "new_port", cfg.Path())
		s.closeLocked(false)
	}

	if err := s.state.ToConnecting(); err != nil {
		return err
	}

	s.gen++
	h, err := s.transport.Open(cfg, &connListener{s: s, gen: s.gen})
	if err != nil {
		s.state.ToDisconnected()
		s.metrics.incOpenErrCount()
		s.logger.Error("failed to open port", "port", cfg.Path(), "error", err)
		s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgConnectionFailed, err.Error()))

		return &OpenError{Path: cfg.Path(), Err: err}
	}

	s.handle = h
	s.cfg = cfg
	s.framer.Reset()
	if err := s.state.ToConnected(); err != nil {
		return err
	}
	s.metrics.incOpenCount()

	s.logger.Info("port opened", "config", cfg.String())
	s.emit(terminal.Success, s.printer.Sprintf(terminal.MsgConnected, cfg.Path(), strconv.Itoa(cfg.BaudRate())))

	return nil
}

// Close closes the open port. Closing when no port is open is a no-op.
func (s *Session) Close() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.closeLocked(true)
}

// Shutdown closes the open port and stops the dispatch goroutine. The session cannot be reopened.
func (s *Session) Shutdown() {
	s.opMu.Lock()
	s.closeLocked(true)
	s.shutdown = true
	s.opMu.Unlock()

	s.taskMgr.Stop()
	s.taskMgr.Wait()
}

// Send encodes input in the current format and writes it to the open port. appendCRLF applies
// to ASCII mode only. Empty input is a no-op.
//
// Errors are *SendError values matching ErrNotConnected, ErrInvalidInput or ErrTransport.
func (s *Session) Send(input string, appendCRLF bool) error {
	if input == "" {
		return nil
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.handle == nil || !s.state.IsConnected() {
		s.metrics.incSendErrCount()
		s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgNotConnected))

		return &SendError{Kind: ErrNotConnected}
	}

	format := s.Format()
	data, err := codec.EncodeOutbound(input, format, appendCRLF)
	if err != nil {
		s.metrics.incSendErrCount()
		if errors.Is(err, codec.ErrOddHexLength) {
			s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgInvalidHex))
		} else {
			s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgInvalidInput, err.Error()))
		}

		return &SendError{Kind: ErrInvalidInput, Err: err}
	}
	if len(data) == 0 {
		return nil
	}

	if _, err := s.handle.Write(data); err != nil {
		s.metrics.incSendErrCount()
		s.logger.Warn("write failed", "port", s.cfg.Path(), "error", err)
		s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgSendFailed, err.Error()))

		return &SendError{Kind: ErrTransport, Err: err}
	}

	s.state.addTx(len(data))
	s.metrics.addTx(len(data))

	if s.localEcho.Load() {
		s.emit(terminal.TX, input)
	}

	return nil
}

// SendInput sends input using the session's append-CRLF option.
func (s *Session) SendInput(input string) error {
	return s.Send(input, s.appendCRLF.Load())
}

// OnInboundData applies a chunk of inbound bytes to the current connection. Bytes are counted
// per chunk and complete lines are emitted as rx lines. It is ignored when no port is open.
func (s *Session) OnInboundData(data []byte) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.handle == nil {
		return
	}
	s.inboundLocked(data)
}

// OnTransportError disconnects the current connection because of a transport error and emits an
// error line. It is ignored when no port is open.
func (s *Session) OnTransportError(msg string) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.handle == nil {
		return
	}
	s.transportErrorLocked(msg)
}

// OnTransportClosed disconnects the current connection because the port was closed by the device
// or the operating system, and emits a warning line. It is ignored when no port is open.
func (s *Session) OnTransportClosed() {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.handle == nil {
		return
	}
	s.transportClosedLocked()
}

// State returns the current connection state.
func (s *Session) State() State { return s.state.State() }

// IsConnected returns if the session is Connected.
func (s *Session) IsConnected() bool { return s.state.IsConnected() }

// WaitState waits until the session reaches state or ctx is done.
func (s *Session) WaitState(ctx context.Context, state State) error {
	return s.state.WaitState(ctx, state)
}

// Stats returns a snapshot of the statistics of the current or last connection.
func (s *Session) Stats() SessionStats { return s.state.Stats() }

// Uptime returns the uptime of the current connection, or the frozen uptime of the last one.
func (s *Session) Uptime() time.Duration { return s.state.Stats().Uptime(s.now()) }

// Metrics returns the cumulative session metrics.
func (s *Session) Metrics() *Metrics { return &s.metrics }

// IsOpen reports whether the transport handle is open.
func (s *Session) IsOpen() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return s.handle != nil && s.handle.IsOpen()
}

// PortConfig returns the config of the open port, or nil when no port is open.
func (s *Session) PortConfig() *transport.PortConfig {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return s.cfg
}

// Pending returns the number of buffered bytes of an unterminated ASCII line.
func (s *Session) Pending() int {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	return s.framer.Pending()
}

// Format returns the current display format.
func (s *Session) Format() codec.Format { return codec.Format(s.format.Load()) }

// SetFormat sets the display format. Already emitted lines are not reformatted and a pending
// partial ASCII line is kept.
func (s *Session) SetFormat(f codec.Format) {
	if f != codec.ASCII && f != codec.Hex {
		s.logger.Warn("ignore invalid format", "format", f)
		return
	}
	s.format.Store(uint32(f))
}

// AppendCRLF returns whether SendInput appends "\r\n".
func (s *Session) AppendCRLF() bool { return s.appendCRLF.Load() }

// SetAppendCRLF sets whether SendInput appends "\r\n".
func (s *Session) SetAppendCRLF(enabled bool) { s.appendCRLF.Store(enabled) }

// LocalEcho returns whether sent input is echoed as a tx line.
func (s *Session) LocalEcho() bool { return s.localEcho.Load() }

// SetLocalEcho sets whether sent input is echoed as a tx line.
func (s *Session) SetLocalEcho(enabled bool) { s.localEcho.Store(enabled) }

// Printer returns the printer used for status lines.
func (s *Session) Printer() *message.Printer { return s.printer }

func (s *Session) emit(dir terminal.Direction, text string) {
	s.sink.Emit(terminal.Line{Time: s.now(), Direction: dir, Text: text})
}

// closeLocked closes the handle, discards the pending partial line and moves to Disconnected.
func (s *Session) closeLocked(announce bool) {
	if s.handle == nil {
		return
	}

	if err := s.handle.Close(); err != nil {
		s.logger.Warn("failed to close port", "port", s.cfg.Path(), "error", err)
	}
	s.logger.Info("port closed", "port", s.cfg.Path())

	s.handle = nil
	s.cfg = nil
	s.framer.Reset()
	s.state.ToDisconnected()

	if announce {
		s.emit(terminal.Info, s.printer.Sprintf(terminal.MsgDisconnected))
	}
}

func (s *Session) inboundLocked(data []byte) {
	if len(data) == 0 {
		return
	}

	s.state.addRx(len(data))
	s.metrics.addRx(len(data))

	lines := s.framer.Feed(data, s.Format())
	for _, line := range lines {
		s.emit(terminal.RX, line)
	}
	s.metrics.addRxLines(len(lines))
}

func (s *Session) transportErrorLocked(msg string) {
	s.metrics.incTransportErrCount()
	s.logger.Error("transport error", "port", s.cfg.Path(), "error", msg)
	s.closeLocked(false)
	s.emit(terminal.Error, s.printer.Sprintf(terminal.MsgError, msg))
}

func (s *Session) transportClosedLocked() {
	s.metrics.incUnexpectedCloseCount()
	s.logger.Warn("port closed unexpectedly", "port", s.cfg.Path())
	s.closeLocked(false)
	s.emit(terminal.Warning, s.printer.Sprintf(terminal.MsgClosedUnexpectedly))
}

// post queues a transport notification. It never blocks.
func (s *Session) post(ev event) {
	s.events.Enqueue(ev)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Session) dispatchTask(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.notify:
		for {
			ev, ok := s.events.Dequeue()
			if !ok {
				return true
			}
			s.dispatch(ev)
		}
	}
}

func (s *Session) dispatch(ev event) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if ev.gen != s.gen || s.handle == nil {
		s.metrics.incDroppedEventCount()
		s.logger.Debug("drop stale transport event", "gen", ev.gen, "cur_gen", s.gen, "kind", ev.kind)

		return
	}

	switch ev.kind {
	case eventData:
		s.inboundLocked(ev.data)
	case eventError:
		msg := "unknown error"
		if ev.err != nil {
			msg = ev.err.Error()
		}
		s.transportErrorLocked(msg)
	case eventClosed:
		s.transportClosedLocked()
	}
}

// connListener forwards notifications of one connection to its session.
type connListener struct {
	s   *Session
	gen uint64
}

var _ transport.Listener = (*connListener)(nil)

func (l *connListener) OnData(data []byte) {
	if len(data) == 0 {
		return
	}
	l.s.post(event{gen: l.gen, kind: eventData, data: bytes.Clone(data)})
}

func (l *connListener) OnError(err error) {
	l.s.post(event{gen: l.gen, kind: eventError, err: err})
}

func (l *connListener) OnClosed() {
	l.s.post(event{gen: l.gen, kind: eventClosed})
}
