// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"assettrack/cli/internal/asset"
	"assettrack/cli/internal/dsn"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

func TestOpen(t *testing.T) {
	catalog := asset.NewCatalog(asset.DefaultTables())
	dbPath := filepath.Join(t.TempDir(), "assets.db")

	tests := []struct {
		name     string
		endpoint string
		wantKind dsn.Kind
	}{
		{"memory", "memory:", dsn.KindMemory},
		{"sqlite", "sqlite://" + dbPath, dsn.KindSQLite},
		{"script", "https://script.google.com/macros/s/AKfy/exec", dsn.KindScript},
		{"grpc", "grpc://127.0.0.1:1", dsn.KindGRPC},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, info, err := Open(context.Background(), tt.endpoint, catalog)
			if err != nil {
				t.Fatalf("Open(%q) error = %v", tt.endpoint, err)
			}
			defer func() { _ = rowstore.Close(store) }()
			if info.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", info.Kind, tt.wantKind)
			}
			if _, ok := store.(*rowstore.Retrying); !ok {
				t.Errorf("store %T is not wrapped with read retries", store)
			}
		})
	}
}

func TestOpenSQLiteRoundTrip(t *testing.T) {
	catalog := asset.NewCatalog(asset.DefaultTables())
	endpoint := "sqlite://" + filepath.Join(t.TempDir(), "assets.db")
	ctx := context.Background()

	store, _, err := Open(ctx, endpoint, catalog)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Create(ctx, "DATA", rowstore.Fields{"code": "A1"}); err != nil {
		t.Fatal(err)
	}
	_ = rowstore.Close(store)

	store, _, err = Open(ctx, endpoint, catalog)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rowstore.Close(store) }()
	rows, err := store.FetchAll(ctx, "DATA")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["code"] != "A1" {
		t.Errorf("rows = %v", rows)
	}
}

func TestOpenInvalid(t *testing.T) {
	catalog := asset.NewCatalog(asset.DefaultTables())
	for _, endpoint := range []string{"", "http://example.com/exec", "mysql://u:p@h/db"} {
		_, _, err := Open(context.Background(), endpoint, catalog)
		if !aterrors.Is(err, aterrors.Validation) {
			t.Errorf("Open(%q) = %v, want validation", endpoint, err)
		}
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"postgres://u:p@db:5433/assets", "PostgreSQL database assets on db:5433"},
		{"grpcs://rows.example.com", "(TLS)"},
		{"sqlite://assets.db", "SQLite file assets.db"},
		{"memory:", "in-memory store"},
	}
	for _, tt := range tests {
		info, err := dsn.ParseInfo(tt.endpoint)
		if err != nil {
			t.Fatal(err)
		}
		if got := Describe(info); !strings.Contains(got, tt.want) {
			t.Errorf("Describe(%q) = %q, want containing %q", tt.endpoint, got, tt.want)
		}
	}
}
