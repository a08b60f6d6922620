package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/metrics"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/goccy/go-json"
)

var (
	ErrHubClosed      = errors.New("hub is not running")
	ErrConnClosed     = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// LastSeenRecorder persists the moment a user went offline.
type LastSeenRecorder interface {
	RecordLastSeen(ctx context.Context, userID string, at time.Time) error
}

const lastSeenTimeout = 5 * time.Second

type membership struct {
	conn Conn
	done chan struct{}
}

// Hub owns the connection registry. Connects and disconnects are applied one
// at a time by Run; lookups for delivery and typing read the registry
// directly and never wait on the loop.
type Hub struct {
	registry *Registry

	// Register requests from admitted connections
	register chan membership

	// Unregister requests from closing connections
	unregister chan membership

	// Closed when Run returns
	stopped chan struct{}

	lastSeen LastSeenRecorder
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewHub builds a hub. lastSeen and m may be nil.
func NewHub(lastSeen LastSeenRecorder, m *metrics.Metrics) *Hub {
	return &Hub{
		registry:   NewRegistry(),
		register:   make(chan membership),
		unregister: make(chan membership),
		stopped:    make(chan struct{}),
		lastSeen:   lastSeen,
		metrics:    m,
		now:        time.Now,
	}
}

func (h *Hub) Registry() *Registry {
	return h.registry
}

// IsOnline reports whether the user has at least one live connection.
func (h *Hub) IsOnline(userID string) bool {
	return h.registry.IsOnline(userID)
}

// Run processes membership changes until ctx is cancelled, then closes every
// remaining connection.
func (h *Hub) Run(ctx context.Context) {
	slog.Info("[HUB] Starting hub event loop")
	defer close(h.stopped)

	for {
		select {
		case req := <-h.register:
			h.connect(req.conn)
			close(req.done)

		case req := <-h.unregister:
			h.disconnect(req.conn)
			close(req.done)

		case <-ctx.Done():
			conns := h.registry.All()
			slog.Info("[HUB] Stopping hub event loop", "connections", len(conns))
			for _, c := range conns {
				c.Close()
			}
			return
		}
	}
}

// Register admits c and returns once the registry reflects it.
func (h *Hub) Register(c Conn) error {
	return h.submit(h.register, c)
}

// Unregister removes c and returns once the registry reflects it. Calling it
// more than once for the same connection is a no-op.
func (h *Hub) Unregister(c Conn) error {
	return h.submit(h.unregister, c)
}

func (h *Hub) submit(ch chan membership, c Conn) error {
	req := membership{conn: c, done: make(chan struct{})}
	select {
	case ch <- req:
	case <-h.stopped:
		return ErrHubClosed
	}

	select {
	case <-req.done:
		return nil
	case <-h.stopped:
		return ErrHubClosed
	}
}

func (h *Hub) connect(c Conn) {
	first := h.registry.Register(c)
	h.observe()

	users, conns := h.registry.Stats()
	slog.Info("[HUB] Connection registered", "user", c.UserID(), "conn", c.ID(), "first", first, "onlineUsers", users, "connections", conns)

	// Snapshot first so the new socket starts from a complete view.
	h.sendTo(c, models.EventOnlineUsers, h.registry.OnlineUsers())

	if first {
		h.broadcast(models.EventUserStatus, models.UserStatusData{
			UserID: c.UserID(),
			Status: models.StatusOnline,
		})
	}
}

func (h *Hub) disconnect(c Conn) {
	last := h.registry.Unregister(c.UserID(), c.ID())
	c.Close()
	h.observe()

	slog.Debug("[HUB] Connection unregistered", "user", c.UserID(), "conn", c.ID(), "last", last)

	if !last {
		return
	}

	at := h.now()
	h.recordLastSeen(c.UserID(), at)
	h.broadcast(models.EventUserStatus, models.UserStatusData{
		UserID:     c.UserID(),
		Status:     models.StatusOffline,
		LastSeenAt: at.UnixMilli(),
	})
	slog.Info("[HUB] User offline", "user", c.UserID())
}

func (h *Hub) recordLastSeen(userID string, at time.Time) {
	if h.lastSeen == nil {
		return
	}

	// Off the loop: a slow store must not hold up other connects.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), lastSeenTimeout)
		defer cancel()

		if err := h.lastSeen.RecordLastSeen(ctx, userID, at); err != nil {
			slog.Error("[HUB] Failed to record last seen", "user", userID, "error", err)
		}
	}()
}

func (h *Hub) observe() {
	users, conns := h.registry.Stats()
	h.metrics.SetPresence(users, conns)
}

// broadcast pushes one event to every live connection.
func (h *Hub) broadcast(eventType string, data interface{}) int {
	payload, err := h.encode(eventType, data)
	if err != nil {
		return 0
	}
	return h.pushAll(eventType, h.registry.All(), payload)
}

// sendTo pushes one event to a single connection.
func (h *Hub) sendTo(c Conn, eventType string, data interface{}) bool {
	payload, err := h.encode(eventType, data)
	if err != nil {
		return false
	}
	return h.pushAll(eventType, []Conn{c}, payload) == 1
}

func (h *Hub) pushAll(eventType string, conns []Conn, payload []byte) int {
	sent := 0
	for _, c := range conns {
		if h.push(c, payload) {
			sent++
		}
	}
	h.metrics.EventPushed(eventType, sent)
	return sent
}

// push queues payload on c. A connection that cannot keep up is dropped.
func (h *Hub) push(c Conn, payload []byte) bool {
	if err := c.Send(payload); err != nil {
		if errors.Is(err, ErrConnClosed) {
			return false
		}
		slog.Warn("[HUB] Client buffer full, disconnecting", "user", c.UserID(), "conn", c.ID(), "error", err)
		h.metrics.SlowConsumer()
		go h.Unregister(c)
		return false
	}
	return true
}

func (h *Hub) encode(eventType string, data interface{}) ([]byte, error) {
	payload, err := json.Marshal(models.Event{
		Type:      eventType,
		Timestamp: h.now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		slog.Error("[HUB] Failed to marshal event", "type", eventType, "error", err)
		return nil, err
	}
	return payload, nil
}
