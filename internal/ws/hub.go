package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/ironveil/labyrinth/internal/protocol"
)

const writeTimeout = 3 * time.Second

// Hub tracks live floor sessions. Each floor is a room; connections are
// addressable by participant so per-player views can be pushed directly.
type Hub struct {
	mu     sync.Mutex
	floors map[int]*floorRoom
}

type floorRoom struct {
	sequence uint64
	clients  map[string]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{floors: make(map[int]*floorRoom)}
}

func (h *Hub) room(floorNumber int) *floorRoom {
	room, ok := h.floors[floorNumber]
	if !ok {
		room = &floorRoom{clients: make(map[string]*websocket.Conn)}
		h.floors[floorNumber] = room
	}
	return room
}

// Join registers a participant's connection on a floor. A previous
// connection for the same participant is closed and replaced.
func (h *Hub) Join(floorNumber int, participantID string, conn *websocket.Conn) {
	h.mu.Lock()
	room := h.room(floorNumber)
	if old, ok := room.clients[participantID]; ok && old != conn {
		_ = old.Close(websocket.StatusNormalClosure, "superseded")
	}
	room.clients[participantID] = conn
	h.mu.Unlock()
}

// Leave removes a participant's connection from a floor. It is a no-op if
// a newer connection has already replaced this one.
func (h *Hub) Leave(floorNumber int, participantID string, conn *websocket.Conn) {
	h.mu.Lock()
	if room, ok := h.floors[floorNumber]; ok {
		if cur, ok := room.clients[participantID]; ok && cur == conn {
			delete(room.clients, participantID)
		}
		if len(room.clients) == 0 {
			delete(h.floors, floorNumber)
		}
	}
	h.mu.Unlock()
}

// Participants lists the participant IDs connected on a floor
func (h *Hub) Participants(floorNumber int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.floors[floorNumber]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(room.clients))
	for pid := range room.clients {
		out = append(out, pid)
	}
	return out
}

// Broadcast pushes an event to every connection on a floor. Connections
// that fail to accept the write are dropped.
func (h *Hub) Broadcast(floorNumber int, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.floors[floorNumber]
	if !ok {
		return
	}
	data, err := h.marshal(room, floorNumber, eventType, payload)
	if err != nil {
		return
	}
	for pid, conn := range room.clients {
		if !write(conn, data) {
			_ = conn.Close(websocket.StatusNormalClosure, "")
			delete(room.clients, pid)
		}
	}
}

// Send pushes an event to a single participant on a floor
func (h *Hub) Send(floorNumber int, participantID, eventType string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.floors[floorNumber]
	if !ok {
		return
	}
	conn, ok := room.clients[participantID]
	if !ok {
		return
	}
	data, err := h.marshal(room, floorNumber, eventType, payload)
	if err != nil {
		return
	}
	if !write(conn, data) {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		delete(room.clients, participantID)
	}
}

func (h *Hub) marshal(room *floorRoom, floorNumber int, eventType string, payload any) ([]byte, error) {
	env := protocol.EventEnvelope{
		Sequence: atomic.AddUint64(&room.sequence, 1),
		Floor:    floorNumber,
		Type:     eventType,
		Payload:  payload,
	}
	return json.Marshal(env)
}

func write(conn *websocket.Conn, data []byte) bool {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data) == nil
}
