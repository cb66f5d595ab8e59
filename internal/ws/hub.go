package ws

import (
	"encoding/json"
	"sync"

	"fitquest/internal/domain"
	"fitquest/internal/logger"
)

// Hub fans reward events out to the websocket connections of the user they
// are addressed to. A user may hold several connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]struct{}
	closed  bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	logger.Debug("ws client registered", "user_id", c.UserID, "client_id", c.ID, "conns", len(set))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	c.closeSend()
	logger.Debug("ws client unregistered", "user_id", c.UserID, "client_id", c.ID)
}

// Publish queues ev on every connection of ev.UserID. It never blocks: a
// connection whose buffer is full misses the event.
func (h *Hub) Publish(ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients[ev.UserID]
	if len(set) == 0 {
		return
	}

	msg, err := json.Marshal(envelope{Type: MsgEvent, Data: ev})
	if err != nil {
		logger.Error("ws marshal event", "type", ev.Type, "error", err)
		return
	}
	for c := range set {
		if !c.trySend(msg) {
			logger.Warn("ws send buffer full, event dropped",
				"user_id", ev.UserID, "client_id", c.ID, "type", ev.Type)
		}
	}
}

// Connections reports how many live connections userID holds.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for uid, set := range h.clients {
		for c := range set {
			c.closeSend()
		}
		delete(h.clients, uid)
	}
}
