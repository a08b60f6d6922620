package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/message"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/store"
	"github.com/gin-gonic/gin"
)

var errBadCredentials = errors.New("invalid credentials")

func respondMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// respondError maps domain errors to status codes. Internal errors are
// logged and never echoed.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, message.ErrInvalid):
		respondMessage(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, message.ErrForbidden):
		respondMessage(c, http.StatusForbidden, "You are not allowed to modify this message")
	case errors.Is(err, store.ErrNotFound):
		respondMessage(c, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrDuplicateEmail):
		respondMessage(c, http.StatusConflict, "Email already exists")
	case errors.Is(err, errBadCredentials):
		respondMessage(c, http.StatusUnauthorized, "Invalid credentials")
	default:
		slog.Error("[API] Internal error", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		respondMessage(c, http.StatusInternalServerError, "Internal server error")
	}
}
