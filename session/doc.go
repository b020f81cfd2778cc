// Package session implements the serial terminal session engine.
//
// A Session owns at most one open transport handle. Inbound bytes are framed into lines by a
// framer.LineFramer and decoded by the codec package; outbound input is encoded in the current
// display format and written to the handle. Every outcome is reported as a terminal.Line to the
// session's Sink, and diagnostics go to the logger.
//
// Connection State:
// StateMgr tracks the connection through three states:
//   - Disconnected: no port is open. Initial state, and the state after every close or failure.
//   - Connecting: a transport open call is outstanding.
//   - Connected: a port is open and data can be exchanged.
//
// Entering Connected resets the SessionStats byte counters and records the connect time. Leaving
// Connected keeps the counters and freezes the uptime until the next connect.
//
// Errors:
// Open returns an *OpenError carrying the transport's message. Send returns a *SendError whose
// kind is ErrNotConnected, ErrInvalidInput or ErrTransport. Asynchronous transport errors and
// unexpected closes always disconnect the session and are reported as error or warning lines.
//
// Metrics:
// Metrics holds cumulative atomic counters that survive reconnects. RegisterMetrics exposes them
// as prometheus CounterFunc and GaugeFunc collectors.
package session
