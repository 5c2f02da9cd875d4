// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlitestore keeps tables in a local SQLite file. Rows of every table
// live in one relation ordered by an autoincrement sequence; a row's position
// is its 1-based rank within its table, so deleting a row shifts every later
// row down exactly like the remote sheet does.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

const schema = `CREATE TABLE IF NOT EXISTS rowstore_rows (
	seq    INTEGER PRIMARY KEY AUTOINCREMENT,
	tbl    TEXT NOT NULL,
	fields TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS rowstore_rows_tbl ON rowstore_rows (tbl, seq);`

// Store implements rowstore.Store on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "assettrack.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, aterrors.Wrap(aterrors.RemoteRejection, "create sqlite dir", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.RemoteRejection, "open sqlite", err)
	}
	// One connection keeps ":memory:" databases shared and avoids SQLITE_BUSY
	// between our own statements.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, classify("create rowstore_rows", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// FetchAll returns the rows of table in insertion order.
func (s *Store) FetchAll(ctx context.Context, table string) ([]rowstore.Fields, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT fields FROM rowstore_rows WHERE tbl = ? ORDER BY seq`, table)
	if err != nil {
		return nil, classify("read "+table, err)
	}
	defer func() { _ = rows.Close() }()

	out := []rowstore.Fields{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, classify("read "+table, err)
		}
		f := rowstore.Fields{}
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			return nil, aterrors.Wrap(aterrors.RemoteRejection, "read "+table+": corrupt row", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read "+table, err)
	}
	return out, nil
}

// Create appends a row.
func (s *Store) Create(ctx context.Context, table string, fields rowstore.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return aterrors.Wrap(aterrors.Validation, "create in "+table, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO rowstore_rows (tbl, fields) VALUES (?, ?)`, table, string(raw)); err != nil {
		return classify("create in "+table, err)
	}
	return nil
}

// UpdateAt replaces the fields of the row at position.
func (s *Store) UpdateAt(ctx context.Context, table string, position int, fields rowstore.Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return aterrors.Wrap(aterrors.Validation, "update "+table, err)
	}
	op := fmt.Sprintf("update %s row %d", table, position)
	if position < 1 {
		return aterrors.New(aterrors.RemoteRejection, op+": position out of range")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE rowstore_rows SET fields = ?
		WHERE seq = (SELECT seq FROM rowstore_rows WHERE tbl = ? ORDER BY seq LIMIT 1 OFFSET ?)`,
		string(raw), table, position-1)
	return affected(op, res, err)
}

// DeleteAt removes the row at position.
func (s *Store) DeleteAt(ctx context.Context, table string, position int) error {
	op := fmt.Sprintf("delete %s row %d", table, position)
	if position < 1 {
		return aterrors.New(aterrors.RemoteRejection, op+": position out of range")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM rowstore_rows
		WHERE seq = (SELECT seq FROM rowstore_rows WHERE tbl = ? ORDER BY seq LIMIT 1 OFFSET ?)`,
		table, position-1)
	return affected(op, res, err)
}

func affected(op string, res sql.Result, err error) error {
	if err != nil {
		return classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify(op, err)
	}
	if n == 0 {
		return aterrors.New(aterrors.RemoteRejection, op+": position out of range")
	}
	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return aterrors.Wrap(aterrors.TransportFailure, op, err)
	}
	return aterrors.Wrap(aterrors.RemoteRejection, op, err)
}
