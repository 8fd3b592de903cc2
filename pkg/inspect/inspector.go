// Package inspect provides a live HTTP inspector for the reactive engine.
// It implements the engine's hook interface, keeps running counters and a
// ring of recent events, and streams events to WebSocket subscribers.
package inspect

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ripple-ui/ripple/pkg/ripple"
)

// EventKind identifies the type of engine event.
type EventKind string

const (
	EventSignalWrite    EventKind = "signal_write"
	EventMemoRecompute  EventKind = "memo_recompute"
	EventEffectCreated  EventKind = "effect_created"
	EventEffectRun      EventKind = "effect_run"
	EventEffectDisposed EventKind = "effect_disposed"
	EventPassEnd        EventKind = "pass_end"
)

// Event is one engine occurrence, streamed to WebSocket clients and kept in
// the recent-events ring.
type Event struct {
	Kind       EventKind `json:"kind"`
	ID         uint64    `json:"id,omitempty"`
	Name       string    `json:"name,omitempty"`
	Noop       bool      `json:"noop,omitempty"`
	Pass       int       `json:"pass,omitempty"`
	DurationUs int64     `json:"duration_us,omitempty"`
	Runs       int       `json:"runs,omitempty"`
	At         time.Time `json:"at"`
}

// Stats is the running counter snapshot served at /snapshot.
type Stats struct {
	SignalWrites   uint64 `json:"signal_writes"`
	NoopWrites     uint64 `json:"noop_writes"`
	MemoRecomputes uint64 `json:"memo_recomputes"`
	EffectRuns     uint64 `json:"effect_runs"`
	ActiveEffects  int64  `json:"active_effects"`
	Passes         uint64 `json:"passes"`
	LastPassUs     int64  `json:"last_pass_us"`
	LastPassRuns   int    `json:"last_pass_runs"`
}

// Snapshot is the full /snapshot payload.
type Snapshot struct {
	Stats  Stats   `json:"stats"`
	Recent []Event `json:"recent"`
}

// ringSize bounds the recent-events buffer.
const ringSize = 256

// Inspector implements ripple.Hooks. Install it with ripple.SetHooks (or
// observe.Multi to combine with other sinks) and mount Routes() on an HTTP
// server.
type Inspector struct {
	mu     sync.RWMutex
	stats  Stats
	recent []Event
	next   int

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex
	upgrader  websocket.Upgrader
}

// New creates an Inspector.
func New() *Inspector {
	return &Inspector{
		recent:  make([]Event, 0, ringSize),
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The inspector is a dev tool bound to loopback.
				return true
			},
		},
	}
}

// SignalWrite implements ripple.Hooks.
func (in *Inspector) SignalWrite(id uint64, noop bool) {
	in.mu.Lock()
	if noop {
		in.stats.NoopWrites++
	} else {
		in.stats.SignalWrites++
	}
	in.mu.Unlock()

	in.record(Event{Kind: EventSignalWrite, ID: id, Noop: noop, At: time.Now()})
}

// MemoRecompute implements ripple.Hooks.
func (in *Inspector) MemoRecompute(id uint64) {
	in.mu.Lock()
	in.stats.MemoRecomputes++
	in.mu.Unlock()

	in.record(Event{Kind: EventMemoRecompute, ID: id, At: time.Now()})
}

// EffectCreated implements ripple.Hooks.
func (in *Inspector) EffectCreated(id uint64, name string) {
	in.mu.Lock()
	in.stats.ActiveEffects++
	in.mu.Unlock()

	in.record(Event{Kind: EventEffectCreated, ID: id, Name: name, At: time.Now()})
}

// EffectRun implements ripple.Hooks.
func (in *Inspector) EffectRun(id uint64, name string) {
	in.mu.Lock()
	in.stats.EffectRuns++
	in.mu.Unlock()

	in.record(Event{Kind: EventEffectRun, ID: id, Name: name, At: time.Now()})
}

// EffectDisposed implements ripple.Hooks.
func (in *Inspector) EffectDisposed(id uint64, name string) {
	in.mu.Lock()
	in.stats.ActiveEffects--
	in.mu.Unlock()

	in.record(Event{Kind: EventEffectDisposed, ID: id, Name: name, At: time.Now()})
}

// PassStart implements ripple.Hooks.
func (in *Inspector) PassStart(pass int) {}

// PassEnd implements ripple.Hooks.
func (in *Inspector) PassEnd(pass int, duration time.Duration, runs int) {
	in.mu.Lock()
	in.stats.Passes++
	in.stats.LastPassUs = duration.Microseconds()
	in.stats.LastPassRuns = runs
	in.mu.Unlock()

	in.record(Event{
		Kind:       EventPassEnd,
		Pass:       pass,
		DurationUs: duration.Microseconds(),
		Runs:       runs,
		At:         time.Now(),
	})
}

// record appends the event to the ring and broadcasts it.
func (in *Inspector) record(ev Event) {
	in.mu.Lock()
	if len(in.recent) < ringSize {
		in.recent = append(in.recent, ev)
	} else {
		in.recent[in.next] = ev
		in.next = (in.next + 1) % ringSize
	}
	in.mu.Unlock()

	in.broadcast(ev)
}

// Snapshot returns the current counters and recent events, oldest first.
func (in *Inspector) Snapshot() Snapshot {
	in.mu.RLock()
	defer in.mu.RUnlock()

	recent := make([]Event, 0, len(in.recent))
	if len(in.recent) == ringSize {
		recent = append(recent, in.recent[in.next:]...)
		recent = append(recent, in.recent[:in.next]...)
	} else {
		recent = append(recent, in.recent...)
	}

	return Snapshot{Stats: in.stats, Recent: recent}
}

// broadcast sends an event to all connected WebSocket clients.
func (in *Inspector) broadcast(ev Event) {
	in.clientsMu.RLock()
	n := len(in.clients)
	in.clientsMu.RUnlock()
	if n == 0 {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	in.clientsMu.RLock()
	clients := make([]*websocket.Conn, 0, n)
	for client := range in.clients {
		clients = append(clients, client)
	}
	in.clientsMu.RUnlock()

	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			in.clientsMu.Lock()
			delete(in.clients, client)
			in.clientsMu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (in *Inspector) ClientCount() int {
	in.clientsMu.RLock()
	defer in.clientsMu.RUnlock()
	return len(in.clients)
}

// Close disconnects all WebSocket clients.
func (in *Inspector) Close() {
	in.clientsMu.Lock()
	defer in.clientsMu.Unlock()

	for client := range in.clients {
		client.Close()
		delete(in.clients, client)
	}
}

var _ ripple.Hooks = (*Inspector)(nil)
