package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hostelctl/hostelctl/internal/common"
)

// Session is the stored login.
type Session struct {
	ExpiresAt time.Time
	SavedAt   time.Time
	Token     string
	UserID    string
	BaseURL   string
}

// Expired reports whether the session has a known expiry at or before now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SaveSession stores session, replacing any previous one.
func (s *SQLiteStorage) SaveSession(ctx context.Context, session *Session) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateSession(session); err != nil {
		return err
	}

	var expires sql.NullTime
	if !session.ExpiresAt.IsZero() {
		expires = sql.NullTime{Time: session.ExpiresAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, token, user_id, expires_at, base_url, saved_at)
		VALUES (1, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			expires_at = excluded.expires_at,
			base_url = excluded.base_url,
			saved_at = CURRENT_TIMESTAMP`,
		session.Token, nullString(session.UserID), expires, session.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadSession returns the stored session or common.ErrNotAuthenticated.
func (s *SQLiteStorage) LoadSession(ctx context.Context) (*Session, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		session Session
		userID  sql.NullString
		expires sql.NullTime
		saved   sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at, base_url, saved_at FROM session WHERE id = 1`,
	).Scan(&session.Token, &userID, &expires, &session.BaseURL, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotAuthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	session.UserID = userID.String
	if expires.Valid {
		session.ExpiresAt = expires.Time
	}
	if saved.Valid {
		session.SavedAt = saved.Time
	}
	return &session, nil
}

// ClearSession removes the stored session. Clearing an absent session is
// not an error.
func (s *SQLiteStorage) ClearSession(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
