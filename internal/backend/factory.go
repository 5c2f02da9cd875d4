// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend opens the row store an endpoint points at. It hides which
// transport is in use from the commands: they get a rowstore.Store with read
// retries and close it when done.
package backend

import (
	"context"
	"fmt"

	"assettrack/cli/internal/asset"
	"assettrack/cli/internal/dsn"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/rowstore/grpcstore"
	"assettrack/cli/internal/rowstore/httpstore"
	"assettrack/cli/internal/rowstore/memstore"
	"assettrack/cli/internal/rowstore/pgstore"
	"assettrack/cli/internal/rowstore/sqlitestore"
)

// Open parses endpoint and connects to the matching store. Reads on the
// returned store are retried on transport failures; mutations are not.
func Open(ctx context.Context, endpoint string, catalog *asset.Catalog) (rowstore.Store, *dsn.Info, error) {
	info, err := dsn.ParseInfo(endpoint)
	if err != nil {
		return nil, nil, aterrors.Wrap(aterrors.Validation, "store endpoint", err)
	}
	store, err := open(ctx, info, catalog)
	if err != nil {
		return nil, info, err
	}
	return rowstore.WithReadRetries(store), info, nil
}

func open(ctx context.Context, info *dsn.Info, catalog *asset.Catalog) (rowstore.Store, error) {
	switch info.Kind {
	case dsn.KindScript:
		normalized, err := dsn.ScriptResolver{}.Normalize(info)
		if err != nil {
			return nil, err
		}
		return httpstore.New(normalized, catalog), nil
	case dsn.KindPostgres:
		normalized, err := dsn.NewPostgreSQLResolver().Normalize(info)
		if err != nil {
			return nil, err
		}
		return pgstore.Open(ctx, normalized)
	case dsn.KindSQLite:
		return sqlitestore.Open(ctx, info.Path)
	case dsn.KindGRPC:
		return grpcstore.Dial(info.Address(), info.Secure)
	case dsn.KindMemory:
		return memstore.New(), nil
	}
	return nil, aterrors.New(aterrors.Validation, fmt.Sprintf("unsupported store kind %q", info.Kind))
}

// Describe returns a one-line label for the store an endpoint points at.
func Describe(info *dsn.Info) string {
	switch info.Kind {
	case dsn.KindScript:
		return "script web app at " + info.Host
	case dsn.KindPostgres:
		return fmt.Sprintf("PostgreSQL database %s on %s:%s", info.Database, info.Host, info.Port)
	case dsn.KindSQLite:
		return "SQLite file " + info.Path
	case dsn.KindGRPC:
		if info.Secure {
			return "row store server at " + info.Address() + " (TLS)"
		}
		return "row store server at " + info.Address()
	case dsn.KindMemory:
		return "in-memory store"
	}
	return string(info.Kind)
}
