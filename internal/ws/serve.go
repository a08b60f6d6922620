package ws

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/auth"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/metrics"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Authenticator resolves the user behind a handshake request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// MessageService is the persistence side used by socket-originated events.
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID string, draft models.MessageDraft) (*models.Message, error)
	MarkRead(ctx context.Context, readerID string, ids []string) error
}

// Server admits websocket connections into the hub.
type Server struct {
	hub      *Hub
	auth     Authenticator
	messages MessageService
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewServer builds the handshake handler. An empty allowedOrigin accepts
// every origin.
func NewServer(hub *Hub, authn Authenticator, messages MessageService, m *metrics.Metrics, allowedOrigin string) *Server {
	return &Server{
		hub:      hub,
		auth:     authn,
		messages: messages,
		metrics:  m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	remoteAddr := r.RemoteAddr
	slog.Debug("[WS] New WebSocket connection request", "from", remoteAddr)

	// Nothing is allocated for a connection that fails here.
	userID, err := s.auth.Authenticate(r)
	if err != nil {
		reason := auth.Reason(err)
		s.metrics.Admission(reason)
		slog.Warn("[WS] Token validation failed", "from", remoteAddr, "reason", reason, "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.metrics.Admission("upgrade_failed")
		slog.Error("[WS] Failed to upgrade connection", "user", userID, "error", err)
		return
	}
	s.metrics.Admission("accepted")

	client := newClient(s, conn, uuid.NewString(), userID)
	slog.Info("[WS] Connection upgraded successfully", "user", userID, "conn", client.id)

	if err := s.hub.Register(client); err != nil {
		slog.Error("[WS] Hub rejected connection", "user", userID, "error", err)
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
