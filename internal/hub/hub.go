package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"live-trivia-service/internal/domain"
)

// Connection is a client link the hub can push encoded events to. Send must
// not block; it fails when the client is not keeping up.
type Connection interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Hub tracks attached connections and the game rooms they are subscribed to.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Connection
	rooms map[string]map[string]struct{}
}

func New() *Hub {
	return &Hub{
		conns: make(map[string]Connection),
		rooms: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Attach(conn Connection) {
	h.mu.Lock()
	h.conns[conn.ID()] = conn
	count := len(h.conns)
	h.mu.Unlock()

	slog.Debug("client attached", "connectionId", conn.ID(), "clients", count)
}

// Detach forgets the connection and drops it from every room.
func (h *Hub) Detach(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[connID]; !ok {
		return
	}
	delete(h.conns, connID)
	for code, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, code)
		}
	}
	slog.Debug("client detached", "connectionId", connID, "clients", len(h.conns))
}

// Subscribe adds an attached connection to the room of a game.
func (h *Hub) Subscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[connID]; !ok {
		return
	}
	members, ok := h.rooms[code]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[code] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Unsubscribe(code, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

// CloseRoom drops the room; its connections stay attached.
func (h *Hub) CloseRoom(code string) {
	h.mu.Lock()
	delete(h.rooms, code)
	h.mu.Unlock()
	slog.Info("room closed", "gameCode", code)
}

// ToRoom encodes event once and pushes it to every member of the room.
func (h *Hub) ToRoom(code string, event domain.Event) {
	data, ok := encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	targets := make([]Connection, 0, len(h.rooms[code]))
	for id := range h.rooms[code] {
		if conn, ok := h.conns[id]; ok {
			targets = append(targets, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		h.deliver(conn, data)
	}
}

func (h *Hub) ToConnection(connID string, event domain.Event) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if data, ok := encode(event); ok {
		h.deliver(conn, data)
	}
}

// Stats reports open rooms and attached clients.
func (h *Hub) Stats() (rooms, clients int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms), len(h.conns)
}

// deliver drops a client that cannot take more data; closing it makes its
// read loop run the regular disconnect path.
func (h *Hub) deliver(conn Connection, data []byte) {
	if err := conn.Send(data); err != nil {
		slog.Warn("dropping slow client", "connectionId", conn.ID(), "error", err)
		h.Detach(conn.ID())
		_ = conn.Close()
	}
}

func encode(event domain.Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("encode event", "type", event.Type, "error", err)
		return nil, false
	}
	return data, true
}
