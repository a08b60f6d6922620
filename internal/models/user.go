package models

import "time"

type User struct {
	ID           string     `json:"_id"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	ProfilePic   string     `json:"profilePic"`
	LastSeen     *time.Time `json:"lastSeen,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Contact is a sidebar entry: a user the caller has exchanged messages with.
type Contact struct {
	User
	Online      bool     `json:"online"`
	LastMessage *Message `json:"lastMessage,omitempty"`
	UnreadCount int      `json:"unreadCount"`
}
