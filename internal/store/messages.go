package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/google/uuid"
)

const messageColumns = "id, sender_id, receiver_id, text, image, message_type, is_read, is_edited, edited_at, is_deleted, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*models.Message, error) {
	var (
		m                    models.Message
		editedAt             sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(
		&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.Image, &m.MessageType,
		&m.IsRead, &m.IsEdited, &editedAt, &m.IsDeleted, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	m.EditedAt = timePtr(editedAt)
	m.CreatedAt = fromMillis(createdAt)
	m.UpdatedAt = fromMillis(updatedAt)
	m.Reactions = map[string]string{}
	return &m, nil
}

// CreateMessage durably inserts m. Callers must not deliver m unless this
// returns nil.
func (s *Store) CreateMessage(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	if m.Reactions == nil {
		m.Reactions = map[string]string{}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, text, image, message_type, is_read, is_edited, edited_at, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Text, m.Image, m.MessageType,
		m.IsRead, m.IsEdited, nullableMillis(m.EditedAt), m.IsDeleted,
		toMillis(m.CreatedAt), toMillis(m.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx, "SELECT "+messageColumns+" FROM messages WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}

	reactions, err := s.reactionsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Reactions = reactions
	return m, nil
}

func (s *Store) UpdateMessageText(ctx context.Context, id, text string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET text = ?, is_edited = 1, edited_at = ?, updated_at = ? WHERE id = ?",
		text, toMillis(at), toMillis(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	return expectRow(res)
}

// SoftDeleteMessage masks the message; the row is never removed.
func (s *Store) SoftDeleteMessage(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET is_deleted = 1, updated_at = ? WHERE id = ?",
		toMillis(at), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return expectRow(res)
}

// SetReaction records userID's reaction on a message, replacing any earlier
// one. An empty emoji removes it. The resulting reaction map is returned.
func (s *Store) SetReaction(ctx context.Context, messageID, userID, emoji string, at time.Time) (map[string]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if emoji == "" {
		_, err = tx.ExecContext(ctx, "DELETE FROM reactions WHERE message_id = ? AND user_id = ?", messageID, userID)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO reactions (message_id, user_id, emoji) VALUES (?, ?, ?)
			ON CONFLICT (message_id, user_id) DO UPDATE SET emoji = excluded.emoji`,
			messageID, userID, emoji,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store reaction: %w", err)
	}

	res, err := tx.ExecContext(ctx, "UPDATE messages SET updated_at = ? WHERE id = ?", toMillis(at), messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to touch message: %w", err)
	}
	if err := expectRow(res); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reaction: %w", err)
	}
	return s.reactionsFor(ctx, messageID)
}

// Conversation returns every message between a and b, oldest first.
func (s *Store) Conversation(ctx context.Context, a, b string) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+messageColumns+` FROM messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, rowid ASC`,
		a, b, b, a,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	messages := []*models.Message{}
	byID := map[string]*models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
		byID[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate conversation: %w", err)
	}
	rows.Close()

	if len(messages) == 0 {
		return messages, nil
	}

	rrows, err := s.db.QueryContext(ctx,
		`SELECT r.message_id, r.user_id, r.emoji FROM reactions r
		JOIN messages m ON m.id = r.message_id
		WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)`,
		a, b, b, a,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rrows.Close()

	for rrows.Next() {
		var messageID, userID, emoji string
		if err := rrows.Scan(&messageID, &userID, &emoji); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		if m, ok := byID[messageID]; ok {
			m.Reactions[userID] = emoji
		}
	}
	return messages, rrows.Err()
}

// MarkConversationRead marks every unread message from peer to reader as read.
func (s *Store) MarkConversationRead(ctx context.Context, readerID, peerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET is_read = 1 WHERE sender_id = ? AND receiver_id = ? AND is_read = 0",
		peerID, readerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark conversation read: %w", err)
	}
	return res.RowsAffected()
}

// MarkRead marks the given messages read, limited to those addressed to reader.
func (s *Store) MarkRead(ctx context.Context, readerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, readerID)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE messages SET is_read = 1 WHERE receiver_id = ? AND is_read = 0 AND id IN ("+placeholders(len(ids))+")",
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return res.RowsAffected()
}

// Contacts lists the users userID has exchanged messages with, most recent
// conversation first. Online state is left for the caller to fill in.
func (s *Store) Contacts(ctx context.Context, userID string) ([]models.Contact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT peer FROM (
			SELECT receiver_id AS peer, created_at FROM messages WHERE sender_id = ?
			UNION ALL
			SELECT sender_id AS peer, created_at FROM messages WHERE receiver_id = ?
		) GROUP BY peer ORDER BY MAX(created_at) DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}

	var peers []string
	for rows.Next() {
		var peer string
		if err := rows.Scan(&peer); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		peers = append(peers, peer)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	rows.Close()

	contacts := make([]models.Contact, 0, len(peers))
	for _, peer := range peers {
		u, err := s.GetUserByID(ctx, peer)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		last, err := scanMessage(s.db.QueryRowContext(ctx,
			"SELECT "+messageColumns+` FROM messages
			WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
			ORDER BY created_at DESC, rowid DESC LIMIT 1`,
			userID, peer, peer, userID,
		))
		if err != nil {
			return nil, fmt.Errorf("failed to load last message: %w", err)
		}

		var unread int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM messages WHERE sender_id = ? AND receiver_id = ? AND is_read = 0",
			peer, userID,
		).Scan(&unread); err != nil {
			return nil, fmt.Errorf("failed to count unread: %w", err)
		}

		contacts = append(contacts, models.Contact{User: *u, LastMessage: last, UnreadCount: unread})
	}
	return contacts, nil
}

func (s *Store) reactionsFor(ctx context.Context, messageID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, emoji FROM reactions WHERE message_id = ?", messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions: %w", err)
	}
	defer rows.Close()

	reactions := map[string]string{}
	for rows.Next() {
		var userID, emoji string
		if err := rows.Scan(&userID, &emoji); err != nil {
			return nil, fmt.Errorf("failed to scan reaction: %w", err)
		}
		reactions[userID] = emoji
	}
	return reactions, rows.Err()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
