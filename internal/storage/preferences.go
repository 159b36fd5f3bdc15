package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/common"
)

// Preference keys.
const (
	PrefOrganizationID = "organization_id"
	PrefLocationID     = "location_id"
	PrefLocationName   = "location_name"
)

// ErrPreferenceNotFound is returned when a key has no stored value.
var ErrPreferenceNotFound = errors.New("preference not found")

var _ api.ScopeProvider = (*SQLiteStorage)(nil)

// SetPreference stores value under key.
func (s *SQLiteStorage) SetPreference(ctx context.Context, key, value string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePreferenceKey(key); err != nil {
		return err
	}
	return setPreferenceTx(ctx, s.db, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func setPreferenceTx(ctx context.Context, db execer, key, value string) error {
	if value == "" {
		if _, err := db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
			return fmt.Errorf("failed to delete preference %q: %w", key, err)
		}
		return nil
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to save preference %q: %w", key, err)
	}
	return nil
}

// GetPreference returns the value stored under key or ErrPreferenceNotFound.
func (s *SQLiteStorage) GetPreference(ctx context.Context, key string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validatePreferenceKey(key); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrPreferenceNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference %q: %w", key, err)
	}
	return value, nil
}

// Preferences returns every stored preference.
func (s *SQLiteStorage) Preferences(ctx context.Context) (map[string]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	prefs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate preferences: %w", err)
	}
	return prefs, nil
}

// Location is the selected organization and PG location.
type Location struct {
	OrganizationID string
	LocationID     string
	Name           string
}

// SelectLocation stores the organization and location sent with every
// request. An empty organization keeps the stored one.
func (s *SQLiteStorage) SelectLocation(ctx context.Context, loc Location) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(loc.LocationID, "locationID"); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if loc.OrganizationID != "" {
			if err := setPreferenceTx(ctx, tx, PrefOrganizationID, loc.OrganizationID); err != nil {
				return err
			}
		}
		if err := setPreferenceTx(ctx, tx, PrefLocationID, loc.LocationID); err != nil {
			return err
		}
		return setPreferenceTx(ctx, tx, PrefLocationName, loc.Name)
	})
}

// SelectedLocation returns the stored location. LocationID is empty when
// none has been selected.
func (s *SQLiteStorage) SelectedLocation(ctx context.Context) (Location, error) {
	prefs, err := s.Preferences(ctx)
	if err != nil {
		return Location{}, err
	}
	return Location{
		OrganizationID: prefs[PrefOrganizationID],
		LocationID:     prefs[PrefLocationID],
		Name:           prefs[PrefLocationName],
	}, nil
}

// Scope implements api.ScopeProvider from the stored location and session.
// It is read on every request, so a newly selected location applies to the
// next call.
func (s *SQLiteStorage) Scope(ctx context.Context) (api.Scope, error) {
	loc, err := s.SelectedLocation(ctx)
	if err != nil {
		return api.Scope{}, err
	}

	scope := api.Scope{OrganizationID: loc.OrganizationID, LocationID: loc.LocationID}

	session, err := s.LoadSession(ctx)
	switch {
	case err == nil:
		scope.UserID = session.UserID
	case !errors.Is(err, common.ErrNotAuthenticated):
		return api.Scope{}, err
	}
	return scope, nil
}

// ScopeSource resolves scope from the store and fills anything not stored
// from Fallback, usually the configured scope.
type ScopeSource struct {
	Store    *SQLiteStorage
	Fallback api.Scope
}

// Scope implements api.ScopeProvider.
func (s ScopeSource) Scope(ctx context.Context) (api.Scope, error) {
	if s.Store == nil {
		return s.Fallback, nil
	}
	stored, err := s.Store.Scope(ctx)
	if err != nil {
		return api.Scope{}, err
	}
	return stored.Merge(s.Fallback), nil
}
