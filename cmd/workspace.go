// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"errors"
	"strings"

	"assettrack/cli/internal/asset"
	"assettrack/cli/internal/backend"
	"assettrack/cli/internal/config"
	"assettrack/cli/internal/coordinator"
	"assettrack/cli/internal/dsn"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/httperrors"
	"assettrack/cli/internal/keychain"
	"assettrack/cli/internal/logging"
	"assettrack/cli/internal/rowstore"

	"github.com/pterm/pterm"
)

// workspace bundles what a command needs to talk to the configured store.
type workspace struct {
	cfg      config.Config
	catalog  *asset.Catalog
	store    rowstore.Store
	info     *dsn.Info
	coord    *coordinator.Coordinator
	progress *progressView
}

// openWorkspace resolves the endpoint and connects to the store.
func openWorkspace(ctx context.Context) (*workspace, error) {
	cfg, err := config.Load()
	if err != nil {
		logging.Debugf("config: %v (using defaults)", err)
	}
	endpoint, source, err := config.ResolveEndpoint(storeFlag, keychainEndpoint, cfg)
	if errors.Is(err, config.ErrNoEndpoint) {
		pterm.Warning.Println("No row store configured.")
		pterm.Println("   Please run: assettrack connect")
		return nil, err
	}
	logging.Debugf("store endpoint from %s: %s", source, endpoint)

	catalog := asset.NewCatalog(cfg.Tables)
	store, info, err := backend.Open(ctx, endpoint, catalog)
	if err != nil {
		if info != nil {
			return nil, explain(info, err, "connecting")
		}
		return nil, err
	}
	return newWorkspace(cfg, catalog, store, info), nil
}

func newWorkspace(cfg config.Config, catalog *asset.Catalog, store rowstore.Store, info *dsn.Info) *workspace {
	pv := &progressView{}
	return &workspace{
		cfg:      cfg,
		catalog:  catalog,
		store:    store,
		info:     info,
		progress: pv,
		coord: coordinator.New(store,
			coordinator.WithLogger(logging.Debugf),
			coordinator.WithProgress(pv.update),
		),
	}
}

func keychainEndpoint() (string, error) {
	km, err := keychain.GetManager()
	if err != nil {
		return "", err
	}
	return km.LoadEndpoint()
}

// Close stops any progress display and releases the store.
func (w *workspace) Close() {
	w.progress.stop()
	_ = rowstore.Close(w.store)
}

// table maps a user-facing table alias to the configured table name.
func (w *workspace) table(name string) string {
	t := w.catalog.Tables
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "inventory", "data":
		return t.Inventory
	case "pending", "wait":
		return t.Pending
	case "log", "history":
		return t.Log
	case "users", "login":
		return t.Users
	}
	return name
}

// session opens table, loads it and checks the --snapshot fingerprint.
func (w *workspace) session(ctx context.Context, table, fingerprint string) (*coordinator.Session, error) {
	schema, _ := w.catalog.Schema(table)
	s := w.coord.Open(schema)
	if _, err := s.Load(ctx); err != nil {
		return nil, explain(w.info, err, "reading "+table)
	}
	if err := s.Verify(fingerprint); err != nil {
		return nil, err
	}
	return s, nil
}

// explain prints troubleshooting help for transport failures and returns
// err unchanged in kind.
func explain(info *dsn.Info, err error, context string) error {
	if !aterrors.Is(err, aterrors.TransportFailure) {
		return err
	}
	if info.Kind == dsn.KindGRPC {
		logging.PresentStreamError(info.Address(), err.Error())
		return err
	}
	host := info.Host
	if host == "" {
		host = backend.Describe(info)
	}
	_ = httperrors.FormatNetworkError(err, context, host)
	return err
}
