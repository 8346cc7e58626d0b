package main

import (
	"go.uber.org/zap"

	"github.com/storypath/storypath-cli/internal/engine"
	"github.com/storypath/storypath-cli/internal/identity"
	"github.com/storypath/storypath-cli/internal/refresh"
	"github.com/storypath/storypath-cli/pkg/storypath"
)

// coordinator is shared by every consumer of reconciled progress within one
// invocation.
var coordinator = refresh.NewCoordinator()

func newClient() storypath.Client {
	return storypath.NewClient(cfg.API.JWT,
		storypath.WithBaseURL(cfg.API.BaseURL),
		storypath.WithUsername(cfg.API.Username),
	)
}

func newIdentityStore() (identity.Store, error) {
	return identity.NewSQLite(cfg.Identity.DBPath)
}

// newEngine wires the reconciliation engine against the backend and the
// local identity store. The caller owns closing the returned store.
func newEngine() (*engine.Engine, identity.Store, error) {
	store, err := newIdentityStore()
	if err != nil {
		return nil, nil, err
	}
	e := engine.New(newClient(), store, coordinator, zap.L())
	return e, store, nil
}
