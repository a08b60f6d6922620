// Package message persists direct messages and hands every successful
// change to the realtime layer. Nothing is pushed for a change that failed
// to persist.
package message

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/store"
	"github.com/google/uuid"
)

var (
	ErrInvalid   = errors.New("invalid message")
	ErrForbidden = errors.New("not allowed")
	ErrNotFound  = store.ErrNotFound
)

type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	UpdateMessageText(ctx context.Context, id, text string, at time.Time) error
	SoftDeleteMessage(ctx context.Context, id string, at time.Time) error
	SetReaction(ctx context.Context, messageID, userID, emoji string, at time.Time) (map[string]string, error)
	Conversation(ctx context.Context, a, b string) ([]*models.Message, error)
	MarkConversationRead(ctx context.Context, readerID, peerID string) (int64, error)
	MarkRead(ctx context.Context, readerID string, ids []string) (int64, error)
	Contacts(ctx context.Context, userID string) ([]models.Contact, error)
}

// Notifier pushes persisted changes to live connections.
type Notifier interface {
	Deliver(msg *models.Message) int
	DeliverEdited(msg *models.Message) int
	DeliverDeleted(msg *models.Message) int
	DeliverReaction(msg *models.Message) int
}

// Presence answers online/last-seen questions for the contacts list.
type Presence interface {
	IsOnline(userID string) bool
}

type LastSeenReader interface {
	LastSeen(ctx context.Context, userID string) (time.Time, bool, error)
}

type Service struct {
	store    Store
	notifier Notifier
	presence Presence
	lastSeen LastSeenReader
	now      func() time.Time
}

// NewService wires the service. presence and lastSeen may be nil.
func NewService(s Store, n Notifier, presence Presence, lastSeen LastSeenReader) *Service {
	return &Service{
		store:    s,
		notifier: n,
		presence: presence,
		lastSeen: lastSeen,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Send validates and stores a message, then delivers it to sender and receiver.
func (s *Service) Send(ctx context.Context, senderID, receiverID string, draft models.MessageDraft) (*models.Message, error) {
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return nil, invalid("receiver is required")
	}

	draft = draft.Normalize()
	if draft.Text == "" && draft.Image == "" {
		return nil, invalid("Message cannot be empty")
	}
	if utf8.RuneCountInString(draft.Text) > models.MaxTextLength {
		return nil, invalid("Message text is too long")
	}
	if !models.ValidMessageType(draft.MessageType) {
		return nil, invalid("unknown message type %q", draft.MessageType)
	}

	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("receiver: %w", ErrNotFound)
		}
		return nil, err
	}

	now := s.now()
	msg := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Text:        draft.Text,
		Image:       draft.Image,
		MessageType: draft.MessageType,
		Reactions:   map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateMessage(ctx, msg); err != nil {
		slog.Error("[MESSAGE] Failed to persist message", "sender", senderID, "receiver", receiverID, "error", err)
		return nil, err
	}

	s.notifier.Deliver(msg)
	return msg, nil
}

// Edit replaces the text of the caller's own message.
func (s *Service) Edit(ctx context.Context, userID, messageID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("Message cannot be empty")
	}
	if utf8.RuneCountInString(text) > models.MaxTextLength {
		return nil, invalid("Message text is too long")
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrForbidden
	}
	if msg.IsDeleted {
		return nil, invalid("cannot edit a deleted message")
	}

	now := s.now()
	if err := s.store.UpdateMessageText(ctx, messageID, text, now); err != nil {
		return nil, err
	}

	msg.Text = text
	msg.IsEdited = true
	msg.EditedAt = &now
	msg.UpdatedAt = now

	s.notifier.DeliverEdited(msg)
	return msg, nil
}

// Delete soft-deletes the caller's own message.
func (s *Service) Delete(ctx context.Context, userID, messageID string) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrForbidden
	}
	if msg.IsDeleted {
		return msg, nil
	}

	now := s.now()
	if err := s.store.SoftDeleteMessage(ctx, messageID, now); err != nil {
		return nil, err
	}

	msg.IsDeleted = true
	msg.UpdatedAt = now

	s.notifier.DeliverDeleted(msg)
	return msg, nil
}

// React sets (or with an empty emoji clears) the caller's reaction. Only the
// two participants may react.
func (s *Service) React(ctx context.Context, userID, messageID, emoji string) (*models.Message, error) {
	emoji = strings.TrimSpace(emoji)
	if utf8.RuneCountInString(emoji) > 16 {
		return nil, invalid("reaction is too long")
	}

	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if !msg.Involves(userID) {
		return nil, ErrForbidden
	}
	if msg.IsDeleted {
		return nil, invalid("cannot react to a deleted message")
	}

	now := s.now()
	reactions, err := s.store.SetReaction(ctx, messageID, userID, emoji, now)
	if err != nil {
		return nil, err
	}

	msg.Reactions = reactions
	msg.UpdatedAt = now

	s.notifier.DeliverReaction(msg)
	return msg, nil
}

// MarkConversationRead marks everything peer sent to reader as read. No
// socket event is emitted.
func (s *Service) MarkConversationRead(ctx context.Context, readerID, peerID string) (int64, error) {
	return s.store.MarkConversationRead(ctx, readerID, peerID)
}

// MarkRead marks specific messages addressed to reader as read.
func (s *Service) MarkRead(ctx context.Context, readerID string, ids []string) error {
	_, err := s.store.MarkRead(ctx, readerID, ids)
	return err
}

// Conversation returns the full history between two users, oldest first,
// with deleted messages masked.
func (s *Service) Conversation(ctx context.Context, userID, peerID string) ([]*models.Message, error) {
	msgs, err := s.store.Conversation(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Public()
	}
	return out, nil
}

// Contacts lists the caller's conversations with presence filled in.
func (s *Service) Contacts(ctx context.Context, userID string) ([]models.Contact, error) {
	contacts, err := s.store.Contacts(ctx, userID)
	if err != nil {
		return nil, err
	}

	for i := range contacts {
		c := &contacts[i]
		if c.LastMessage != nil {
			c.LastMessage = c.LastMessage.Public()
		}
		if s.presence != nil {
			c.Online = s.presence.IsOnline(c.ID)
		}
		if s.lastSeen != nil && !c.Online {
			at, ok, err := s.lastSeen.LastSeen(ctx, c.ID)
			if err != nil {
				slog.Warn("[MESSAGE] Failed to load last seen", "user", c.ID, "error", err)
				continue
			}
			if ok {
				c.LastSeen = &at
			}
		}
	}
	return contacts, nil
}
