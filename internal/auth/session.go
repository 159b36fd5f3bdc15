package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/hostelctl/hostelctl/internal/common"
	"github.com/hostelctl/hostelctl/internal/storage"
)

// SessionStore is the subset of storage used for sessions.
type SessionStore interface {
	SaveSession(ctx context.Context, session *storage.Session) error
	LoadSession(ctx context.Context) (*storage.Session, error)
	ClearSession(ctx context.Context) error
}

// Login stores token as the current session. Opaque (non-JWT) tokens are
// accepted; only JWTs contribute a user id and expiry.
func Login(ctx context.Context, store SessionStore, token, baseURL string, now time.Time) (*storage.Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	session := &storage.Session{Token: token, BaseURL: baseURL}

	info, err := Inspect(token)
	switch {
	case err == nil:
		if info.Expired(now) {
			return nil, common.NewUserError("token has already expired", common.ErrSessionExpired)
		}
		session.UserID = info.UserID
		session.ExpiresAt = info.ExpiresAt
	case errors.Is(err, ErrMalformedToken):
		slog.Debug("Storing opaque token", "reason", err)
	default:
		return nil, err
	}

	if err := store.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Current returns the stored session, or common.ErrSessionExpired when it
// has expired.
func Current(ctx context.Context, store SessionStore, now time.Time) (*storage.Session, error) {
	session, err := store.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if session.Expired(now) {
		return session, common.ErrSessionExpired
	}
	return session, nil
}

// Logout forgets the stored session.
func Logout(ctx context.Context, store SessionStore) error {
	return store.ClearSession(ctx)
}

// TokenSource returns an oauth2.TokenSource backed by the stored session.
// A configured token, when non-empty, takes precedence over the store.
func TokenSource(ctx context.Context, store SessionStore, configured string) oauth2.TokenSource {
	return &sessionTokenSource{ctx: ctx, store: store, configured: configured, now: time.Now}
}

type sessionTokenSource struct {
	ctx        context.Context
	store      SessionStore
	now        func() time.Time
	configured string
}

// Token implements oauth2.TokenSource. The store is read on every call so
// a login in another process is picked up.
func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	if s.configured != "" {
		return &oauth2.Token{AccessToken: s.configured, TokenType: "Bearer"}, nil
	}
	if s.store == nil {
		return nil, common.ErrNotAuthenticated
	}

	session, err := Current(s.ctx, s.store, s.now())
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: session.Token,
		TokenType:   "Bearer",
		Expiry:      session.ExpiresAt,
	}, nil
}
