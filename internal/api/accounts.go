package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/auth"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/message"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/store"
	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "All fields are required")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		respondMessage(c, http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
		return
	}
	if !strings.Contains(req.Email, "@") {
		respondMessage(c, http.StatusBadRequest, "Invalid email format")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{FullName: req.FullName, Email: req.Email, PasswordHash: hash}
	if err := h.accounts.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	if err := h.setSession(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondMessage(c, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.accounts.GetUserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, errBadCredentials)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(c, errBadCredentials)
		return
	}

	if err := h.setSession(c, user.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func (h *Handler) Check(c *gin.Context) {
	user, err := h.accounts.GetUserByID(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SearchByEmail finds one user by exact, case-insensitive email.
func (h *Handler) SearchByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		respondError(c, fmt.Errorf("%w: email is required", message.ErrInvalid))
		return
	}

	user, err := h.accounts.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) setSession(c *gin.Context, userID string) error {
	token, expires, err := h.auth.Tokens().Issue(userID)
	if err != nil {
		return err
	}

	maxAge := int(time.Until(expires).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.auth.CookieName(), token, maxAge, "/", "", h.cookieSecure, true)
	return nil
}
