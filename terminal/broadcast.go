package terminal

import (
	"sort"

	"github.com/puzpuzpuz/xsync/v3"
)

// Broadcaster is a Sink that forwards every line to all subscribed sinks.
//
// Subscribers are keyed by name and delivered to in name order, so output is deterministic.
// Subscribe and Unsubscribe are safe to call concurrently with Emit.
type Broadcaster struct {
	sinks *xsync.MapOf[string, Sink]
}

var _ Sink = (*Broadcaster)(nil)

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sinks: xsync.NewMapOf[string, Sink]()}
}

// Subscribe adds or replaces the sink registered under name. A nil sink is ignored.
func (b *Broadcaster) Subscribe(name string, s Sink) {
	if s == nil {
		return
	}
	b.sinks.Store(name, s)
}

// Unsubscribe removes the sink registered under name and reports whether it was present.
func (b *Broadcaster) Unsubscribe(name string) bool {
	_, ok := b.sinks.LoadAndDelete(name)
	return ok
}

// Len returns the number of subscribed sinks.
func (b *Broadcaster) Len() int {
	return b.sinks.Size()
}

// Emit forwards line to every subscribed sink.
func (b *Broadcaster) Emit(line Line) {
	type entry struct {
		name string
		sink Sink
	}

	entries := make([]entry, 0, b.sinks.Size())
	b.sinks.Range(func(name string, s Sink) bool {
		entries = append(entries, entry{name, s})
		return true
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	for _, e := range entries {
		e.sink.Emit(line)
	}
}
