package api

import (
	"net/http"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/auth"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/gin-gonic/gin"
)

type sendRequest struct {
	Text        string `json:"text"`
	Image       string `json:"image"`
	MessageType string `json:"messageType"`
}

type editRequest struct {
	Text string `json:"text"`
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

func (h *Handler) Contacts(c *gin.Context) {
	contacts, err := h.messages.Contacts(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if contacts == nil {
		contacts = []models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

func (h *Handler) Conversation(c *gin.Context) {
	msgs, err := h.messages.Conversation(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *Handler) Send(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.messages.Send(c.Request.Context(), auth.UserID(c), c.Param("id"), models.MessageDraft{
		Text:        req.Text,
		Image:       req.Image,
		MessageType: req.MessageType,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg.Public())
}

func (h *Handler) MarkRead(c *gin.Context) {
	n, err := h.messages.MarkConversationRead(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Messages marked as read", "count": n})
}

func (h *Handler) Edit(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.messages.Edit(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg.Public())
}

func (h *Handler) Delete(c *gin.Context) {
	msg, err := h.messages.Delete(c.Request.Context(), auth.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg.Public())
}

func (h *Handler) React(c *gin.Context) {
	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.messages.React(c.Request.Context(), auth.UserID(c), c.Param("id"), req.Emoji)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg.Public())
}
