package notifications

import (
	"time"

	"campuswell/internal/middleware"
	"campuswell/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // must be shorter than pongWait

	maxMessageSize = 16384
	sendBufferSize = 256
)

// clientHub is the part of a hub a Client needs: somewhere to deregister
// itself and a name for metric labels.
type clientHub interface {
	UnregisterClient(c *Client)
	Name() string
}

// Client pumps frames between one websocket connection and its hub.
type Client struct {
	Hub    clientHub
	Conn   *websocket.Conn
	UserID uint

	// Send carries outbound frames; WritePump drains it.
	Send chan []byte

	// IncomingHandler, when set, receives every frame read from the peer.
	IncomingHandler func(*Client, []byte)
}

func NewClient(hub clientHub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// ReadPump reads frames until the peer goes away, feeding each one to
// IncomingHandler. It owns deregistration, so callers run it last.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				middleware.Logger.Warn("websocket read failed",
					"hub", c.Hub.Name(), "user_id", c.UserID, "error", err)
			}
			return
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, frame)
		}
	}
}

// WritePump drains Send onto the wire and keeps the connection alive with
// pings. It exits when Send closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dropNotice tells a lagging client that frames were discarded so it can
// re-fetch instead of trusting the stream.
var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// TrySend enqueues a frame without blocking. A full buffer drops the frame
// and queues a drop notice; a closed channel is absorbed.
func (c *Client) TrySend(frame []byte) {
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "closed").Inc()
		}
	}()

	select {
	case c.Send <- frame:
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues(c.Hub.Name(), "full").Inc()
		middleware.Logger.Warn("websocket buffer full, dropping frame",
			"hub", c.Hub.Name(), "user_id", c.UserID)
		select {
		case c.Send <- dropNotice:
		default:
		}
	}
}
