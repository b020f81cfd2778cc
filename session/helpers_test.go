package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
	"github.com/miroslavpetrov/Serial-Console-Pro/terminal"
	"github.com/miroslavpetrov/Serial-Console-Pro/transport"
)

type fakeTransport struct {
	mu        sync.Mutex
	ports     []transport.PortInfo
	listErr   error
	openErr   error
	handles   []*fakeHandle
	listeners []transport.Listener
}

var _ transport.Transport = (*fakeTransport)(nil)

func (ft *fakeTransport) List() ([]transport.PortInfo, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	return ft.ports, ft.listErr
}

func (ft *fakeTransport) Open(cfg *transport.PortConfig, l transport.Listener) (transport.Handle, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if ft.openErr != nil {
		return nil, ft.openErr
	}

	h := &fakeHandle{cfg: cfg, open: true}
	ft.handles = append(ft.handles, h)
	ft.listeners = append(ft.listeners, l)

	return h, nil
}

func (ft *fakeTransport) setOpenErr(err error) {
	ft.mu.Lock()
	ft.openErr = err
	ft.mu.Unlock()
}

// handle returns the i-th opened handle.
func (ft *fakeTransport) handle(i int) *fakeHandle {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	return ft.handles[i]
}

// listener returns the listener registered for the i-th opened handle.
func (ft *fakeTransport) listener(i int) transport.Listener {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	return ft.listeners[i]
}

type fakeHandle struct {
	mu       sync.Mutex
	cfg      *transport.PortConfig
	open     bool
	writes   [][]byte
	writeErr error
	closes   int
	onClose  func() // runs during Close, like a reader draining its last callbacks
}

var _ transport.Handle = (*fakeHandle)(nil)

func (h *fakeHandle) Write(data []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.open {
		return 0, transport.ErrPortClosed
	}
	if h.writeErr != nil {
		return 0, h.writeErr
	}
	h.writes = append(h.writes, append([]byte(nil), data...))

	return len(data), nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	h.closes++
	h.open = false
	onClose := h.onClose
	h.mu.Unlock()

	if onClose != nil {
		onClose()
	}

	return nil
}

func (h *fakeHandle) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.open
}

func (h *fakeHandle) setWriteErr(err error) {
	h.mu.Lock()
	h.writeErr = err
	h.mu.Unlock()
}

func (h *fakeHandle) written() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.writes
}

func (h *fakeHandle) closeCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.closes
}

type recordingSink struct {
	mu    sync.Mutex
	lines []terminal.Line
}

var _ terminal.Sink = (*recordingSink)(nil)

func (rs *recordingSink) Emit(line terminal.Line) {
	rs.mu.Lock()
	rs.lines = append(rs.lines, line)
	rs.mu.Unlock()
}

func (rs *recordingSink) all() []terminal.Line {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	return append([]terminal.Line(nil), rs.lines...)
}

// texts returns the text of every line with the given direction.
func (rs *recordingSink) texts(dir terminal.Direction) []string {
	var out []string
	for _, l := range rs.all() {
		if l.Direction == dir {
			out = append(out, l.Text)
		}
	}

	return out
}

func (rs *recordingSink) last() terminal.Line {
	lines := rs.all()
	if len(lines) == 0 {
		return terminal.Line{}
	}

	return lines[len(lines)-1]
}

func (rs *recordingSink) reset() {
	rs.mu.Lock()
	rs.lines = nil
	rs.mu.Unlock()
}

type fakeClock struct {
	mu  sync.Mutex
	cur time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{cur: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cur
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.cur = c.cur.Add(d)
	c.mu.Unlock()
}

var errAccessDenied = errors.New("Access denied")

type testEnv struct {
	t     *testing.T
	tr    *fakeTransport
	sink  *recordingSink
	clock *fakeClock
	sess  *Session
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	env := &testEnv{
		t:     t,
		tr:    &fakeTransport{},
		sink:  &recordingSink{},
		clock: newFakeClock(),
	}

	opts = append([]Option{WithLogger(logger.NewNop()), WithClock(env.clock.Now)}, opts...)
	s, err := NewSession(context.Background(), env.tr, env.sink, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Shutdown)
	env.sess = s

	return env
}

func (env *testEnv) portConfig(path string, opts ...transport.PortOption) *transport.PortConfig {
	env.t.Helper()

	cfg, err := transport.NewPortConfig(path, opts...)
	require.NoError(env.t, err)

	return cfg
}

// open opens path and clears the recorded lines.
func (env *testEnv) open(path string, opts ...transport.PortOption) {
	env.t.Helper()

	require.NoError(env.t, env.sess.Open(env.portConfig(path, opts...)))
	env.sink.reset()
}
