// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlitestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/rowstore/storetest"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "rows.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) rowstore.Store { return openTemp(t) })
}

func TestRowsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "rows.db")
	ctx := context.Background()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, "DATA", rowstore.Fields{"code": "X1", "name": "เก้าอี้"}); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	rows, err := s.FetchAll(ctx, "DATA")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0]["name"] != "เก้าอี้" {
		t.Errorf("rows = %v", rows)
	}
}

func TestCancelledContextIsTransportFailure(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FetchAll(ctx, "DATA"); !aterrors.Is(err, aterrors.TransportFailure) {
		t.Errorf("FetchAll() error = %v, want transport_failure", err)
	}
}

func TestOpenBadPathIsRejection(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Open(context.Background(), filepath.Join(blocker, "rows.db"))
	if !aterrors.Is(err, aterrors.RemoteRejection) {
		t.Errorf("Open(path under a file) = %v, want remote_rejection", err)
	}
	if aterrors.Is(err, aterrors.TransportFailure) {
		t.Error("a bad path must not look like a transport failure")
	}
}
