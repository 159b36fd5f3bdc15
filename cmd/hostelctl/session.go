package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/auth"
	"github.com/hostelctl/hostelctl/internal/common"
	"github.com/hostelctl/hostelctl/internal/storage"
	"github.com/hostelctl/hostelctl/internal/tui"
	"github.com/hostelctl/hostelctl/internal/tui/themes"
)

// session is an open store plus an API client scoped by it.
type session struct {
	store  *storage.SQLiteStorage
	client *api.Client
	scope  api.Scope
}

// initStorage opens the local session database.
func (e *rootEnv) initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := storage.Open(ctx, e.cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

// connect builds an authenticated client. With needLocation set it fails
// early when no PG location is selected or configured.
func (e *rootEnv) connect(ctx context.Context, needLocation bool) (*session, error) {
	store, err := e.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	scopes := storage.ScopeSource{Store: store, Fallback: e.cfg.Scope.Scope()}
	scope, err := scopes.Scope(ctx)
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("failed to resolve scope: %w", err)
	}
	if needLocation && scope.LocationID == "" {
		closeStore(store)
		return nil, common.NewUserError("select a PG location first with 'hostelctl location use <id>'", common.ErrNoLocation)
	}

	client, err := api.New(e.cfg.API.Client(),
		api.WithTokenSource(auth.TokenSource(ctx, store, e.cfg.API.Token)),
		api.WithScope(scopes))
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	return &session{store: store, client: client, scope: scope}, nil
}

func (s *session) Close() {
	closeStore(s.store)
}

func closeStore(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

func (e *rootEnv) theme() themes.Theme {
	return themes.GetTheme(e.cfg.UI.Theme)
}

func (e *rootEnv) browseOptions() []tui.Option {
	return []tui.Option{
		tui.WithTheme(e.theme()),
		tui.WithAltScreen(e.cfg.UI.AltScreen),
	}
}
