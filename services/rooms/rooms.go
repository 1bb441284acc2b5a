// Package rooms tracks which live connections belong to which session code
// and fans server-authoritative events out to them. The registry is owned by
// the coordinator, not a process-wide singleton, so several coordinators can
// coexist inside one test process.
package rooms

import (
	"log/slog"
	"sync"
)

// Conn is one live connection. The socket.io socket satisfies this through
// a small adapter; tests use fakes.
type Conn interface {
	ID() string
	Emit(event string, payload interface{}) error
}

// Deliveries queued per member before a slow socket starts losing them.
const memberQueueSize = 256

type delivery struct {
	event   string
	payload interface{}
}

// member is one connection's seat in one room. Deliveries go through a
// buffered queue drained by a single goroutine, so events to the same
// connection arrive in broadcast order while a slow socket never blocks
// its siblings.
type member struct {
	conn  Conn
	queue chan delivery
}

// Registry maps a session code to the set of connections currently in that
// room. Join and Leave are the only per-connection mutators; Close tears a
// whole room down when its session ends.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*member
	log   *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms: make(map[string]map[string]*member),
		log:   logger,
	}
}

func (r *Registry) Join(code string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	if !ok {
		room = make(map[string]*member)
		r.rooms[code] = room
	}
	if _, ok := room[conn.ID()]; ok {
		return
	}
	m := &member{
		conn:  conn,
		queue: make(chan delivery, memberQueueSize),
	}
	room[conn.ID()] = m
	go r.deliver(code, m)
}

// deliver drains one member's queue until Leave/DropConn/Close closes it.
func (r *Registry) deliver(code string, m *member) {
	for d := range m.queue {
		if err := m.conn.Emit(d.event, d.payload); err != nil {
			r.log.Warn("broadcast delivery failed",
				"room", code, "event", d.event, "conn", m.conn.ID(), "err", err)
		}
	}
}

func (r *Registry) Leave(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok := r.rooms[code]; ok {
		if m, ok := room[connID]; ok {
			close(m.queue)
			delete(room, connID)
		}
		if len(room) == 0 {
			delete(r.rooms, code)
		}
	}
}

// DropConn removes the connection from every room it is in and returns the
// codes it was dropped from. Used when a socket closes.
func (r *Registry) DropConn(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var codes []string
	for code, room := range r.rooms {
		if m, ok := room[connID]; ok {
			close(m.queue)
			delete(room, connID)
			codes = append(codes, code)
			if len(room) == 0 {
				delete(r.rooms, code)
			}
		}
	}
	return codes
}

// Close drops the whole room.
func (r *Registry) Close(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rooms[code] {
		close(m.queue)
	}
	delete(r.rooms, code)
}

// Members returns a snapshot of the room's connections.
func (r *Registry) Members(code string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[code]
	out := make([]Conn, 0, len(room))
	for _, m := range room {
		out = append(out, m.conn)
	}
	return out
}

// Broadcast enqueues payload for every connection in the room. Per-member
// queues keep deliveries to one connection in broadcast order, so the last
// event a connection sees is always the last one committed. A member whose
// queue is full has the event dropped rather than stalling the caller; the
// next broadcast carries the fresher state anyway.
//
// The queues are closed only under the write lock after the member leaves
// its room, so enqueueing under the read lock can never hit a closed channel.
func (r *Registry) Broadcast(code, event string, payload interface{}) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.rooms[code] {
		select {
		case m.queue <- delivery{event: event, payload: payload}:
		default:
			r.log.Warn("broadcast queue full, dropping event",
				"room", code, "event", event, "conn", m.conn.ID())
		}
	}
}
