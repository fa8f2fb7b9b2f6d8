package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"

	"campuswell/internal/middleware"
)

// ChatHub manages websocket connections for direct messaging. Conversations
// are implicit user pairs, so the hub is keyed by user only.
type ChatHub struct {
	mu sync.RWMutex

	// Map: userID -> set of active Clients (multi-device support)
	userConns map[uint]map[*Client]bool
}

func (h *ChatHub) Name() string { return "chat" }

// ChatEvent is the frame pushed over a chat socket.
type ChatEvent struct {
	Type     string      `json:"type"` // "receiveMessage", "user_status", "connected_users"
	SenderID uint        `json:"sender_id,omitempty"`
	Payload  interface{} `json:"payload"`
}

func NewChatHub() *ChatHub {
	return &ChatHub{
		userConns: make(map[uint]map[*Client]bool),
	}
}

// Register registers a user's websocket connection. Returns an error when the
// per-user connection cap is exceeded.
func (h *ChatHub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}
	if len(h.userConns[userID]) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, fmt.Errorf("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	h.userConns[userID][client] = true

	onlineIDs := make([]uint, 0, len(h.userConns))
	for id := range h.userConns {
		if id != userID {
			onlineIDs = append(onlineIDs, id)
		}
	}
	h.mu.Unlock()

	middleware.ActiveWebSockets.WithLabelValues(h.Name()).Inc()

	// Initial snapshot of who is online.
	if len(onlineIDs) > 0 {
		snapshot := ChatEvent{
			Type:    "connected_users",
			Payload: map[string]interface{}{"user_ids": onlineIDs},
		}
		if jsonMsg, err := json.Marshal(snapshot); err == nil {
			client.TrySend(jsonMsg)
		}
	}

	h.broadcastStatus(userID, "online")
	return client, nil
}

// UnregisterClient removes a websocket connection. The offline status event
// fires only once the user's last connection is gone.
func (h *ChatHub) UnregisterClient(client *Client) {
	h.mu.Lock()

	clients, ok := h.userConns[client.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(clients, client)
	close(client.Send)
	lastConn := len(clients) == 0
	if lastConn {
		delete(h.userConns, client.UserID)
	}
	h.mu.Unlock()

	middleware.ActiveWebSockets.WithLabelValues(h.Name()).Dec()

	if lastConn {
		h.broadcastStatus(client.UserID, "offline")
	}
}

// IsUserOnline returns true when the user has at least one active chat client.
func (h *ChatHub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userConns[userID]
	return ok && len(clients) > 0
}

// SendToUser pushes a frame to every chat socket the user has open.
func (h *ChatHub) SendToUser(userID uint, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.userConns[userID] {
		client.TrySend(message)
	}
}

// DeliverMessage wraps a persisted message in a receiveMessage event and
// delivers it to the receiver's sockets.
func (h *ChatHub) DeliverMessage(receiverID, senderID uint, payload interface{}) {
	event := ChatEvent{Type: "receiveMessage", SenderID: senderID, Payload: payload}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ChatHub: failed to marshal message event: %v", err)
		return
	}
	h.SendToUser(receiverID, data)
}

// StartWiring connects the ChatHub to Redis pub/sub so messages published on
// another instance reach receivers connected here.
func (h *ChatHub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartChatSubscriber(ctx, func(channel, payload string) {
		receiverID, ok := ParseUserChannel(channel)
		if !ok {
			log.Printf("ChatHub: invalid channel format: %s", channel)
			return
		}
		h.SendToUser(receiverID, []byte(payload))
	})
}

// broadcastStatus sends a user_status event to everyone except the user it concerns.
func (h *ChatHub) broadcastStatus(userID uint, status string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event := ChatEvent{
		Type:    "user_status",
		Payload: map[string]interface{}{"status": status, "user_id": userID},
	}
	jsonMsg, err := json.Marshal(event)
	if err != nil {
		log.Printf("ChatHub: failed to marshal status event: %v", err)
		return
	}

	for id, clients := range h.userConns {
		if id == userID {
			continue
		}
		for client := range clients {
			client.TrySend(jsonMsg)
		}
	}
}

// Shutdown gracefully closes all chat connections. The shutdown notice and
// the close frame both travel through each client's send channel; WritePump
// stays the only goroutine writing to a connection.
func (h *ChatHub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	notice := []byte(`{"type":"server_shutdown","payload":{"message":"Server is shutting down"}}`)
	for _, clients := range h.userConns {
		for client := range clients {
			client.TrySend(notice)
			close(client.Send)
			middleware.ActiveWebSockets.WithLabelValues(h.Name()).Dec()
		}
	}

	h.userConns = make(map[uint]map[*Client]bool)
	return nil
}
