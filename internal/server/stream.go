package server

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/smartcity/firewatch/internal/orchestrator"
)

// Hub fans state snapshots out to connected dashboard clients.
type Hub struct {
	subscribers map[uuid.UUID]*subscriber
	mu          sync.RWMutex
	closed      bool
}

type subscriber struct {
	id      uuid.UUID
	updates chan orchestrator.Snapshot
	done    chan struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]*subscriber),
	}
}

// Broadcast delivers a snapshot to every subscriber. Slow subscribers drop
// intermediate snapshots rather than blocking the orchestrator; the next
// delivered snapshot supersedes anything missed.
func (h *Hub) Broadcast(snap orchestrator.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers {
		select {
		case sub.updates <- snap:
		case <-sub.done:
		default:
		}
	}
}

func (h *Hub) subscribe() *subscriber {
	sub := &subscriber{
		id:      uuid.New(),
		updates: make(chan orchestrator.Snapshot, 4),
		done:    make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.done)
		return sub
	}
	h.subscribers[sub.id] = sub
	h.mu.Unlock()

	return sub
}

func (h *Hub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, exists := h.subscribers[id]; exists {
		select {
		case <-sub.done:
		default:
			close(sub.done)
		}
		delete(h.subscribers, id)
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for id, sub := range h.subscribers {
		select {
		case <-sub.done:
		default:
			close(sub.done)
		}
		delete(h.subscribers, id)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWebSocket streams snapshots to a dashboard client. The first message
// is the current state; afterwards the client receives one message per state
// change.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sub := s.hub.subscribe()
	defer func() {
		s.hub.unsubscribe(sub.id)
		conn.Close()
	}()

	if err := conn.WriteJSON(s.orch.Snapshot()); err != nil {
		return
	}

	// Reader detects client disconnect.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.unsubscribe(sub.id)
				return
			}
		}
	}()

	for {
		select {
		case snap := <-sub.updates:
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-sub.done:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
