// Package api serves the REST surface and mounts the socket endpoint.
package api

import (
	"context"
	"net/http"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/auth"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Accounts is the user storage behind signup and login.
type Accounts interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Messages is the message service.
type Messages interface {
	Send(ctx context.Context, senderID, receiverID string, draft models.MessageDraft) (*models.Message, error)
	Edit(ctx context.Context, userID, messageID, text string) (*models.Message, error)
	Delete(ctx context.Context, userID, messageID string) (*models.Message, error)
	React(ctx context.Context, userID, messageID, emoji string) (*models.Message, error)
	MarkConversationRead(ctx context.Context, readerID, peerID string) (int64, error)
	Conversation(ctx context.Context, userID, peerID string) ([]*models.Message, error)
	Contacts(ctx context.Context, userID string) ([]models.Contact, error)
}

type Options struct {
	Accounts     Accounts
	Messages     Messages
	Auth         *auth.Authenticator
	Socket       http.Handler
	Metrics      http.Handler
	Health       func(ctx context.Context) error
	CookieSecure bool
	ClientURL    string
}

type Handler struct {
	accounts     Accounts
	messages     Messages
	auth         *auth.Authenticator
	cookieSecure bool
}

func NewHandler(opts Options) *Handler {
	return &Handler{
		accounts:     opts.Accounts,
		messages:     opts.Messages,
		auth:         opts.Auth,
		cookieSecure: opts.CookieSecure,
	}
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(), CORS(opts.ClientURL))

	r.GET("/health", func(c *gin.Context) {
		if opts.Health != nil {
			if err := opts.Health(c.Request.Context()); err != nil {
				c.String(http.StatusServiceUnavailable, "UNAVAILABLE")
				return
			}
		}
		c.String(http.StatusOK, "OK")
	})

	metrics := opts.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metrics))

	if opts.Socket != nil {
		r.GET("/ws", gin.WrapH(opts.Socket))
	}

	NewHandler(opts).RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	requireAuth := h.auth.RequireAuth()

	accounts := r.Group("/api/auth")
	{
		accounts.POST("/signup", h.Signup)
		accounts.POST("/login", h.Login)
		accounts.POST("/logout", h.Logout)
		accounts.GET("/check", requireAuth, h.Check)
		accounts.GET("/search", requireAuth, h.SearchByEmail)
	}

	messages := r.Group("/api/messages", requireAuth)
	{
		messages.GET("/users", h.Contacts)
		messages.GET("/:id", h.Conversation)
		messages.POST("/send/:id", h.Send)
		messages.PATCH("/read/:id", h.MarkRead)
		messages.PUT("/:id/edit", h.Edit)
		messages.PUT("/:id/react", h.React)
		messages.DELETE("/:id", h.Delete)
	}
}
