package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/auth"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs each request after it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", time.Since(start),
			"remote", c.ClientIP(),
		}
		if userID := auth.UserID(c); userID != "" {
			attrs = append(attrs, "user", userID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			slog.Error("[API] Request failed", attrs...)
		case status >= http.StatusBadRequest:
			slog.Warn("[API] Request rejected", attrs...)
		default:
			slog.Debug("[API] Request", attrs...)
		}
	}
}

// CORS allows the configured client origin to call the API with
// credentials. An empty origin reflects whatever origin asks.
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		// Handle preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
