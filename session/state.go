package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/miroslavpetrov/Serial-Console-Pro/logger"
)

// State represents the connection state of a serial session.
type State uint32

// Session states.
const (
	// Disconnected indicates that no port is open. It is the initial state.
	Disconnected State = iota
	// Connecting indicates that a transport open call is outstanding.
	Connecting
	// Connected indicates that a port is open and data can be exchanged.
	Connected
)

// IsDisconnected returns if the state is Disconnected.
func (s State) IsDisconnected() bool { return s == Disconnected }

// IsConnecting returns if the state is Connecting.
func (s State) IsConnecting() bool { return s == Connecting }

// IsConnected returns if the state is Connected.
func (s State) IsConnected() bool { return s == Connected }

// String returns string representation of the state.
func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// StateChangeHandler is invoked on every state change with the previous and the new state.
//
// Note: the handler is invoked in a blocking mode while the state manager is locked; it must not
// call transition methods.
type StateChangeHandler func(prevState State, newState State)

// SessionStats is a snapshot of the traffic statistics of the current or last connection.
type SessionStats struct {
	// RxBytes is the number of bytes received since the last successful connect.
	RxBytes uint64
	// TxBytes is the number of bytes written since the last successful connect.
	TxBytes uint64
	// ConnectedSince is the time of the last successful connect; zero if never connected.
	ConnectedSince time.Time
	// DisconnectedAt is the time the last connection ended; zero while connected.
	DisconnectedAt time.Time
}

// Uptime returns how long the connection has been up at now. After a disconnect it stays frozen
// at the length of the ended connection.
func (st SessionStats) Uptime(now time.Time) time.Duration {
	if st.ConnectedSince.IsZero() {
		return 0
	}

	end := now
	if !st.DisconnectedAt.IsZero() {
		end = st.DisconnectedAt
	}
	if end.Before(st.ConnectedSince) {
		return 0
	}

	return end.Sub(st.ConnectedSince)
}

// StateMgr manages the connection state and traffic statistics of a serial session.
//
// State transitions are safe for concurrent use. Entering Connected resets the statistics;
// leaving it freezes them until the next connect.
type StateMgr struct {
	mu       sync.Mutex
	cond     *sync.Cond
	state    atomic.Uint32
	stats    SessionStats
	now      func() time.Time
	logger   logger.Logger
	handlers []StateChangeHandler
}

// NewStateMgr creates a StateMgr in the Disconnected state.
//
// now is the clock used for connect/disconnect timestamps; nil selects time.Now.
func NewStateMgr(l logger.Logger, now func() time.Time, handlers ...StateChangeHandler) *StateMgr {
	if l == nil {
		l = logger.GetLogger()
	}
	if now == nil {
		now = time.Now
	}

	sm := &StateMgr{
		now:      now,
		logger:   l,
		handlers: make([]StateChangeHandler, 0, len(handlers)),
	}
	sm.cond = sync.NewCond(&sm.mu)
	sm.state.Store(uint32(Disconnected))
	sm.AddHandler(handlers...)

	return sm
}

// State returns the current state.
func (sm *StateMgr) State() State {
	return State(sm.state.Load())
}

// IsConnected returns if the current state is Connected.
func (sm *StateMgr) IsConnected() bool {
	return sm.State().IsConnected()
}

// AddHandler adds one or more handlers to be invoked on state changes.
func (sm *StateMgr) AddHandler(handlers ...StateChangeHandler) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			sm.handlers = append(sm.handlers, h)
		}
	}
}

// WaitState waits for the state to reach the specified state or until the context is done.
func (sm *StateMgr) WaitState(ctx context.Context, state State) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.State() == state {
		return nil
	}

	stopFunc := context.AfterFunc(ctx, func() {
		sm.mu.Lock()
		sm.cond.Broadcast()
		sm.mu.Unlock()
	})
	defer stopFunc()

	for sm.State() != state {
		if err := ctx.Err(); err != nil {
			return err
		}
		sm.cond.Wait()
	}

	return nil
}

// ToConnecting transitions from Disconnected to Connecting.
//
// Returns ErrInvalidTransition from any other state.
func (sm *StateMgr) ToConnecting() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cur := sm.State()
	if !cur.IsDisconnected() {
		return ErrInvalidTransition
	}

	sm.setState(cur, Connecting)

	return nil
}

// ToConnected transitions from Connecting to Connected, resetting the byte counters and
// recording the connect time.
//
// Returns ErrInvalidTransition from any other state.
func (sm *StateMgr) ToConnected() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cur := sm.State()
	if !cur.IsConnecting() {
		return ErrInvalidTransition
	}

	sm.stats = SessionStats{ConnectedSince: sm.now()}
	sm.setState(cur, Connected)

	return nil
}

// ToDisconnected transitions to Disconnected from any state. The byte counters are kept and the
// uptime is frozen. It reports whether the state changed.
func (sm *StateMgr) ToDisconnected() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cur := sm.State()
	if cur.IsDisconnected() {
		return false
	}

	if cur.IsConnected() {
		sm.stats.DisconnectedAt = sm.now()
	}
	sm.setState(cur, Disconnected)

	return true
}

// Stats returns a snapshot of the statistics.
func (sm *StateMgr) Stats() SessionStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.stats
}

// addRx adds n to the received byte counter. It is ignored unless Connected.
func (sm *StateMgr) addRx(n int) {
	sm.mu.Lock()
	if sm.State().IsConnected() && n > 0 {
		sm.stats.RxBytes += uint64(n)
	}
	sm.mu.Unlock()
}

// addTx adds n to the written byte counter. It is ignored unless Connected.
func (sm *StateMgr) addTx(n int) {
	sm.mu.Lock()
	if sm.State().IsConnected() && n > 0 {
		sm.stats.TxBytes += uint64(n)
	}
	sm.mu.Unlock()
}

// setState stores the new state, wakes waiters and invokes handlers. Caller holds mu.
func (sm *StateMgr) setState(prev State, next State) {
	sm.state.Store(uint32(next))
	sm.cond.Broadcast()
	sm.logger.Debug("session state changed", "prev_state", prev, "new_state", next)

	for _, h := range sm.handlers {
		h(prev, next)
	}
}
