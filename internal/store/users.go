package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rajnish018/Msgly-Real-Time-Chatting/internal/models"
	"github.com/google/uuid"
)

const userColumns = "id, full_name, email, password_hash, profile_pic, last_seen, created_at"

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, full_name, email, password_hash, profile_pic, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		u.ID, u.FullName, u.Email, u.PasswordHash, u.ProfilePic, toMillis(u.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) UserExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up user: %w", err)
	}
	return true, nil
}

func (s *Store) getUser(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var (
		u         models.User
		lastSeen  sql.NullInt64
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.ProfilePic, &lastSeen, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	u.LastSeen = timePtr(lastSeen)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

// RecordLastSeen stores the moment the user's last connection closed.
func (s *Store) RecordLastSeen(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET last_seen = ? WHERE id = ?", toMillis(at), userID)
	if err != nil {
		return fmt.Errorf("failed to update last seen: %w", err)
	}
	return nil
}

func (s *Store) LastSeen(ctx context.Context, userID string) (time.Time, bool, error) {
	var v sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT last_seen FROM users WHERE id = ?", userID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !v.Valid) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to load last seen: %w", err)
	}
	return fromMillis(v.Int64), true, nil
}
