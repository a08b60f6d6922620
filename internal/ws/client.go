package ws

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/message"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message
	writeWait = 10 * time.Second

	// Time allowed to read next pong message
	pongWait = 60 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Max message size
	maxMessageSize = 512 * 1024 // 512 KB

	// Outbound frames buffered per connection
	sendBufferSize = 256

	// Upper bound for persistence work triggered by one inbound event
	handlerTimeout = 10 * time.Second
)

// Client is one admitted websocket connection.
type Client struct {
	server *Server
	conn   *websocket.Conn
	id     string
	userID string

	mu     sync.RWMutex
	send   chan []byte
	closed bool
}

func newClient(s *Server, conn *websocket.Conn, id, userID string) *Client {
	return &Client{
		server: s,
		conn:   conn,
		id:     id,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

func (c *Client) ID() string     { return c.id }
func (c *Client) UserID() string { return c.userID }

// Send queues payload without blocking.
func (c *Client) Send(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- payload:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump, which sends a close frame and tears down the
// socket. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
	return nil
}

// ReadPump pumps messages from WebSocket to hub
func (c *Client) ReadPump() {
	defer func() {
		if err := c.server.hub.Unregister(c); err != nil {
			c.Close()
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("[CLIENT] Unexpected close", "user", c.userID, "conn", c.id, "error", err)
			}
			break
		}

		c.handleClientMessage(data)
	}
}

// WritePump pumps messages from hub to WebSocket
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Error("[CLIENT] Failed to write message", "user", c.userID, "conn", c.id, "error", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				slog.Error("[CLIENT] Failed to send ping", "user", c.userID, "conn", c.id, "error", err)
				return
			}
		}
	}
}

func (c *Client) handleClientMessage(raw []byte) {
	var event models.ClientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		slog.Error("[CLIENT] Error unmarshaling message", "user", c.userID, "conn", c.id, "error", err)
		return
	}

	switch event.Type {
	case models.EventTyping, models.EventStopTyping:
		var req models.TypingRequest
		if !c.decode(event, &req) {
			return
		}
		c.server.hub.RelayTyping(c.userID, req.To, event.Type == models.EventStopTyping)

	case models.EventSendMessage:
		var req models.SendMessageRequest
		if !c.decode(event, &req) {
			c.ack(event.RequestID, nil, message.ErrInvalid)
			return
		}
		c.handleSendMessage(event.RequestID, req)

	case models.EventMarkRead:
		var req models.MarkReadRequest
		if !c.decode(event, &req) {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := c.server.messages.MarkRead(ctx, c.userID, req.MessageIDs); err != nil {
			slog.Error("[CLIENT] Failed to mark messages read", "user", c.userID, "error", err)
		}

	case "":
		slog.Warn("[CLIENT] No 'type' field in message", "user", c.userID, "conn", c.id)

	default:
		slog.Warn("[CLIENT] Unknown event type", "type", event.Type, "user", c.userID, "conn", c.id)
	}
}

func (c *Client) handleSendMessage(requestID string, req models.SendMessageRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	msg, err := c.server.messages.Send(ctx, c.userID, req.ReceiverID, models.MessageDraft{
		Text:        req.Text,
		Image:       req.Image,
		MessageType: req.MessageType,
	})
	if err != nil {
		slog.Warn("[CLIENT] sendMessage failed", "user", c.userID, "receiver", req.ReceiverID, "error", err)
	}
	c.ack(requestID, msg, err)
}

// ack answers a sendMessage on this connection only, so the sender can
// reconcile or roll back its optimistic copy.
func (c *Client) ack(requestID string, msg *models.Message, err error) {
	data := models.MessageAckData{RequestID: requestID, Success: err == nil}
	switch {
	case err == nil:
		data.Message = msg.Public()
	case errors.Is(err, message.ErrInvalid), errors.Is(err, message.ErrNotFound):
		data.Error = err.Error()
	default:
		data.Error = "failed to send message"
	}
	c.server.hub.sendTo(c, models.EventMessageAck, data)
}

func (c *Client) decode(event models.ClientEvent, dst interface{}) bool {
	if len(event.Data) == 0 {
		slog.Warn("[CLIENT] Missing event data", "type", event.Type, "user", c.userID)
		return false
	}
	if err := json.Unmarshal(event.Data, dst); err != nil {
		slog.Warn("[CLIENT] Invalid event data", "type", event.Type, "user", c.userID, "error", err)
		return false
	}
	return true
}
