package notifications

import (
	"context"
	"encoding/json"
	"sync"

	"campuswell/internal/middleware"
	"campuswell/internal/models"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 8192
)

// WSEvent is the envelope every frame pushed over a notification socket uses.
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active notification clients, keyed by user.
type Hub struct {
	mu        sync.RWMutex
	clients   map[uint]map[*Client]bool
	total     int
	wiring    sync.Once
	closeOnce sync.Once
	done      chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*Client]bool),
		done:    make(chan struct{}),
	}
}

func (h *Hub) Name() string { return "notifications" }

// RegisterClient adds a client, enforcing per-user and global connection caps.
// Returns false when a cap is hit; the caller should close the socket.
func (h *Hub) RegisterClient(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.total >= maxTotalConns {
		middleware.Logger.Warn("notification hub at capacity, rejecting connection", "user_id", c.UserID)
		return false
	}
	conns := h.clients[c.UserID]
	if len(conns) >= maxConnsPerUser {
		middleware.Logger.Warn("user at connection cap, rejecting connection", "user_id", c.UserID)
		return false
	}
	if conns == nil {
		conns = make(map[*Client]bool)
		h.clients[c.UserID] = conns
	}
	conns[c] = true
	h.total++
	middleware.ActiveWebSockets.WithLabelValues(h.Name()).Inc()
	return true
}

func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	h.total--
	close(c.Send)
	middleware.ActiveWebSockets.WithLabelValues(h.Name()).Dec()
}

// ClientCount returns the number of open sockets for a user.
func (h *Hub) ClientCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUser pushes a raw frame to every socket the user has open.
func (h *Hub) SendToUser(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		c.TrySend(message)
	}
}

// SendEventToUser marshals a WSEvent and pushes it to the user.
func (h *Hub) SendEventToUser(userID uint, eventType string, payload interface{}) {
	data, err := json.Marshal(WSEvent{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.Error("failed to marshal ws event", "type", eventType, "error", err)
		return
	}
	h.SendToUser(userID, data)
}

// SendNotification delivers a persisted notification as a new_notification event.
func (h *Hub) SendNotification(n *models.Notification) {
	h.SendEventToUser(n.RecipientID, "new_notification", n)
}

// Broadcast pushes a frame to every connected client.
func (h *Hub) Broadcast(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conns := range h.clients {
		for c := range conns {
			c.TrySend(message)
		}
	}
}

// StartWiring subscribes the hub to the notifier's Redis channels so pushes
// from any instance reach clients connected to this one. Safe to call once;
// subsequent calls are no-ops.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	var err error
	h.wiring.Do(func() {
		wctx, cancel := context.WithCancel(ctx)
		go func() {
			<-h.done
			cancel()
		}()
		err = n.StartPatternSubscriber(wctx, func(channel, payload string) {
			if channel == "notifications:broadcast" {
				h.Broadcast([]byte(payload))
				return
			}
			if userID, ok := ParseUserChannel(channel); ok {
				h.SendToUser(userID, []byte(payload))
			}
		})
	})
	return err
}

// Shutdown closes every client send channel and stops the subscriber goroutines.
func (h *Hub) Shutdown(_ context.Context) error {
	h.closeOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for c := range conns {
			close(c.Send)
			middleware.ActiveWebSockets.WithLabelValues(h.Name()).Dec()
		}
		delete(h.clients, userID)
	}
	h.total = 0
	return nil
}
