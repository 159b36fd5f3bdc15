package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/common"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "state", "test.db")

	store, err := Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to open storage: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	if !errors.Is(err, ErrEmptyString) {
		t.Errorf("NewSQLiteStorage() error = %v, want %v", err, ErrEmptyString)
	}
}

func TestSQLiteStorage_InMemory(t *testing.T) {
	store, err := Open(context.Background(), MemoryPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.SetPreference(context.Background(), "theme", "dark"))
	value, err := store.GetPreference(context.Background(), "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark", value)
	assert.Equal(t, MemoryPath, store.Path())
}

func TestSQLiteStorage_Session(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.LoadSession(ctx)
	require.ErrorIs(t, err, common.ErrNotAuthenticated)

	expires := time.Date(2030, time.January, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.SaveSession(ctx, &Session{
		Token:     "abc.def.ghi",
		UserID:    "42",
		BaseURL:   "https://pg.example.com/api/v1",
		ExpiresAt: expires,
	}))

	session, err := store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", session.Token)
	assert.Equal(t, "42", session.UserID)
	assert.Equal(t, "https://pg.example.com/api/v1", session.BaseURL)
	assert.True(t, expires.Equal(session.ExpiresAt), "expires_at = %v", session.ExpiresAt)
	assert.False(t, session.SavedAt.IsZero())

	require.NoError(t, store.SaveSession(ctx, &Session{Token: "second"}))
	session, err = store.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "second", session.Token)
	assert.Empty(t, session.UserID, "replacing a session drops the old user")
	assert.True(t, session.ExpiresAt.IsZero())

	require.NoError(t, store.ClearSession(ctx))
	require.NoError(t, store.ClearSession(ctx))
	_, err = store.LoadSession(ctx)
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestSession_Expired(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		expires time.Time
		name    string
		want    bool
	}{
		{name: "no expiry", want: false},
		{name: "future", expires: now.Add(time.Minute), want: false},
		{name: "exactly now", expires: now, want: true},
		{name: "past", expires: now.Add(-time.Hour), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{Token: "t", ExpiresAt: tt.expires}
			if got := s.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLiteStorage_Preferences(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.GetPreference(ctx, "missing")
	require.ErrorIs(t, err, ErrPreferenceNotFound)

	require.NoError(t, store.SetPreference(ctx, "page_size", "50"))
	require.NoError(t, store.SetPreference(ctx, "page_size", "25"))
	value, err := store.GetPreference(ctx, "page_size")
	require.NoError(t, err)
	assert.Equal(t, "25", value)

	require.NoError(t, store.SetPreference(ctx, "page_size", ""))
	_, err = store.GetPreference(ctx, "page_size")
	assert.ErrorIs(t, err, ErrPreferenceNotFound, "empty value deletes the key")

	assert.ErrorIs(t, store.SetPreference(ctx, "", "x"), ErrEmptyString)
}

func TestSQLiteStorage_SelectLocation(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	loc, err := store.SelectedLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, Location{}, loc)

	require.NoError(t, store.SelectLocation(ctx, Location{OrganizationID: "7", LocationID: "3", Name: "Koramangala"}))
	require.NoError(t, store.SelectLocation(ctx, Location{LocationID: "4"}))

	loc, err = store.SelectedLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, Location{OrganizationID: "7", LocationID: "4"}, loc)

	assert.ErrorIs(t, store.SelectLocation(ctx, Location{OrganizationID: "7"}), ErrEmptyString)
}

func TestSQLiteStorage_Scope(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	scope, err := store.Scope(ctx)
	require.NoError(t, err, "no session is not an error")
	assert.Equal(t, api.Scope{}, scope)

	require.NoError(t, store.SelectLocation(ctx, Location{OrganizationID: "7", LocationID: "3"}))
	require.NoError(t, store.SaveSession(ctx, &Session{Token: "tok", UserID: "42"}))

	scope, err = store.Scope(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.Scope{OrganizationID: "7", LocationID: "3", UserID: "42"}, scope)
}

func TestScopeSource(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()
	fallback := api.Scope{OrganizationID: "1", LocationID: "1", UserID: "9"}

	require.NoError(t, store.SelectLocation(ctx, Location{LocationID: "5"}))

	scope, err := ScopeSource{Store: store, Fallback: fallback}.Scope(ctx)
	require.NoError(t, err)
	assert.Equal(t, api.Scope{OrganizationID: "1", LocationID: "5", UserID: "9"}, scope)

	scope, err = ScopeSource{Fallback: fallback}.Scope(ctx)
	require.NoError(t, err)
	assert.Equal(t, fallback, scope)
}
