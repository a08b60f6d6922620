package models

import (
	"strings"
	"time"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeAudio  = "audio"
	MessageTypeSystem = "system"
)

// MaxTextLength bounds message text in characters.
const MaxTextLength = 2000

// DeletedPlaceholder replaces the text of a soft-deleted message on output.
const DeletedPlaceholder = "This message was deleted"

type Message struct {
	ID          string            `json:"_id"`
	SenderID    string            `json:"senderId"`
	ReceiverID  string            `json:"receiverId"`
	Text        string            `json:"text"`
	Image       string            `json:"image"`
	MessageType string            `json:"messageType"`
	IsRead      bool              `json:"isRead"`
	IsEdited    bool              `json:"isEdited"`
	EditedAt    *time.Time        `json:"editedAt,omitempty"`
	IsDeleted   bool              `json:"isDeleted"`
	Reactions   map[string]string `json:"reactions"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Involves reports whether userID is the sender or the receiver.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Public returns the copy that may leave the server: deleted messages keep
// their row but lose their content.
func (m *Message) Public() *Message {
	out := *m
	out.Reactions = make(map[string]string, len(m.Reactions))
	for k, v := range m.Reactions {
		out.Reactions[k] = v
	}
	if out.IsDeleted {
		out.Text = DeletedPlaceholder
		out.Image = ""
	}
	return &out
}

// MessageDraft is the caller-supplied part of a new message.
type MessageDraft struct {
	Text        string
	Image       string
	MessageType string
}

// Normalize trims the text and fills in the message type.
func (d MessageDraft) Normalize() MessageDraft {
	d.Text = strings.TrimSpace(d.Text)
	d.Image = strings.TrimSpace(d.Image)
	if d.MessageType == "" {
		if d.Text == "" && d.Image != "" {
			d.MessageType = MessageTypeImage
		} else {
			d.MessageType = MessageTypeText
		}
	}
	return d
}

func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeAudio, MessageTypeSystem:
		return true
	}
	return false
}
