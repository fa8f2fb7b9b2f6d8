package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"campuswell/internal/middleware"
	"campuswell/internal/models"
	"campuswell/internal/notifications"
	"campuswell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// wsTicketTTL bounds how long an issued ticket stays redeemable.
const wsTicketTTL = 30 * time.Second

// IssueWSTicket handles POST /api/ws/ticket. The ticket is a single-use,
// short-lived Redis entry that lets browser clients open a websocket
// without putting the bearer token in the URL.
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(fmt.Errorf("ticket store unavailable")))
	}

	userID := currentUserID(c)
	ticket := uuid.NewString()
	key := fmt.Sprintf("ws_ticket:%s", ticket)
	if err := s.redis.Set(c.Context(), key, fmt.Sprintf("%d", userID), wsTicketTTL).Err(); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// WebsocketHandler handles WebSocket connections for the notification feed
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		if s.hub == nil {
			_ = conn.Close()
			return
		}

		client := notifications.NewClient(s.hub, conn, userID)
		if !s.hub.RegisterClient(client) {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"connection limit reached"}`))
			_ = conn.Close()
			return
		}

		// Start pumps; ReadPump unregisters the client on return.
		go client.WritePump()
		client.ReadPump()
	})
}

// WebSocketChatHandler handles WebSocket connections for real-time chat.
// Incoming frames of type "message" go through the same chat service as
// the HTTP endpoint, so persistence and fan-out are identical.
func (s *Server) WebSocketChatHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ctx := context.Background()

		userIDVal := conn.Locals("userID")
		if userIDVal == nil {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}
		userID, ok := userIDVal.(uint)
		if !ok {
			_ = conn.Close()
			return
		}

		if s.chatHub == nil {
			_ = conn.Close()
			return
		}

		client, err := s.chatHub.Register(userID, conn)
		if err != nil {
			log.Printf("WebSocket Chat: Failed to register user %d: %v", userID, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(cl *notifications.Client, raw []byte) {
			var incoming struct {
				Type       string             `json:"type"`
				ReceiverID uint               `json:"receiver_id"`
				Content    string             `json:"content"`
				Kind       models.MessageKind `json:"message_type"`
			}
			if err := json.Unmarshal(raw, &incoming); err != nil {
				log.Printf("WebSocket Chat: Invalid message format from user %d", userID)
				return
			}
			if incoming.Type != "message" {
				return
			}

			// Same rate limit as the HTTP endpoint.
			id := fmt.Sprintf("user:%d", userID)
			allowed, _ := middleware.CheckRateLimit(ctx, s.redis, "send_message", id, 30, time.Minute)
			if !allowed {
				s.sendChatError(cl, "Rate limit exceeded. Please wait a moment.")
				return
			}

			message, serr := s.chatService.SendMessage(ctx, service.SendMessageInput{
				SenderID:   userID,
				ReceiverID: incoming.ReceiverID,
				Content:    incoming.Content,
				Kind:       incoming.Kind,
			})
			if serr != nil {
				s.sendChatError(cl, serr.Error())
				return
			}

			// Echo to the sender's own socket; the receiver gets the event
			// through the Redis fan-out.
			echo, merr := json.Marshal(notifications.ChatEvent{
				Type:     "receiveMessage",
				SenderID: userID,
				Payload:  message,
			})
			if merr == nil {
				cl.TrySend(echo)
			}
		}

		// Start write pump in a goroutine; the read pump runs in the main
		// handler goroutine and unregisters the client on return.
		go client.WritePump()
		client.ReadPump()
	})
}

func (s *Server) sendChatError(cl *notifications.Client, message string) {
	frame, err := json.Marshal(notifications.ChatEvent{
		Type:    "error",
		Payload: map[string]string{"message": message},
	})
	if err != nil {
		return
	}
	cl.TrySend(frame)
}
