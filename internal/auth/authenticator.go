package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UserLookup confirms that a token's subject still exists.
type UserLookup interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// Authenticator is the gate in front of both the REST API and the socket
// handshake. A request it rejects must not allocate anything downstream.
type Authenticator struct {
	tokens     *Tokens
	cookieName string
	users      UserLookup
}

// NewAuthenticator builds the gate. users may be nil to skip the existence check.
func NewAuthenticator(tokens *Tokens, cookieName string, users UserLookup) *Authenticator {
	return &Authenticator{tokens: tokens, cookieName: cookieName, users: users}
}

func (a *Authenticator) CookieName() string {
	return a.cookieName
}

func (a *Authenticator) Tokens() *Tokens {
	return a.tokens
}

// Authenticate resolves the user behind the request's credential.
func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	claims, err := a.tokens.Validate(ExtractTokenFromRequest(r, a.cookieName))
	if err != nil {
		return "", err
	}

	if a.users != nil {
		ok, err := a.users.UserExists(r.Context(), claims.UserID)
		if err != nil {
			return "", fmt.Errorf("failed to look up user: %w", err)
		}
		if !ok {
			return "", ErrUnknownUser
		}
	}

	return claims.UserID, nil
}

// ExtractTokenFromRequest extracts the JWT from the session cookie, the
// token query parameter, or the Authorization header, in that order.
func ExtractTokenFromRequest(r *http.Request, cookieName string) string {
	if cookieName != "" {
		if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
			return c.Value
		}
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}

// Reason is a short label for a rejection, used in logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	case errors.Is(err, ErrUnknownUser):
		return "unknown_user"
	case errors.Is(err, ErrInvalidToken):
		return "invalid"
	default:
		return "error"
	}
}
