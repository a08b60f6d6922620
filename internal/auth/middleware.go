package auth

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const userIDKey = "auth.userId"

// RequireAuth rejects requests without a valid credential and stores the
// resolved user id on the gin context.
func (a *Authenticator) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := a.Authenticate(c.Request)
		if err != nil {
			slog.Debug("[AUTH] Request rejected", "path", c.FullPath(), "reason", Reason(err), "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": unauthorizedMessage(err)})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the id stored by RequireAuth.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func unauthorizedMessage(err error) string {
	switch Reason(err) {
	case "missing":
		return "Unauthorized - Authentication required"
	case "expired":
		return "Session expired. Please log in again."
	case "invalid":
		return "Invalid authentication token"
	case "unknown_user":
		return "Unauthorized - User not found"
	default:
		return "Unauthorized"
	}
}
