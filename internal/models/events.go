package models

import "github.com/goccy/go-json"

// Server -> client event types.
const (
	EventOnlineUsers    = "onlineUsers"
	EventUserStatus     = "userStatus"
	EventNewMessage     = "newMessage"
	EventMessageEdited  = "messageEdited"
	EventMessageDeleted = "messageDeleted"
	EventMessageReacted = "messageReacted"
	EventMessageAck     = "messageAck"
)

// Client -> server event types. Typing events share their name in both directions.
const (
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventSendMessage = "sendMessage"
	EventMarkRead    = "markRead"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Event is the envelope pushed to clients.
type Event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// ClientEvent is the envelope received from clients. Data is decoded lazily
// according to Type.
type ClientEvent struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Data      json.RawMessage `json:"data"`
}

// Specific event data structures

type UserStatusData struct {
	UserID     string `json:"userId"`
	Status     string `json:"status"`
	LastSeenAt int64  `json:"lastSeenAt,omitempty"`
}

// TypingRequest is sent by the typist.
type TypingRequest struct {
	To string `json:"to"`
}

// TypingData is what the peer receives.
type TypingData struct {
	From string `json:"from"`
}

type SendMessageRequest struct {
	ReceiverID  string `json:"receiverId"`
	Text        string `json:"text"`
	Image       string `json:"image"`
	MessageType string `json:"messageType"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"messageIds"`
}

type MessageAckData struct {
	RequestID string   `json:"requestId,omitempty"`
	Success   bool     `json:"success"`
	Message   *Message `json:"message,omitempty"`
	Error     string   `json:"error,omitempty"`
}

type MessageDeletedData struct {
	MessageID string `json:"messageId"`
}

type MessageReactedData struct {
	MessageID string            `json:"messageId"`
	Reactions map[string]string `json:"reactions"`
}
