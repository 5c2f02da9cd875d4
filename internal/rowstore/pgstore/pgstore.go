// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package pgstore keeps tables in PostgreSQL over a pgx connection pool.
// Layout and positional semantics match sqlitestore: one relation, rows of a
// table ordered by a bigserial sequence, positions are 1-based ranks.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

const schema = `CREATE TABLE IF NOT EXISTS rowstore_rows (
	seq    bigserial PRIMARY KEY,
	tbl    text NOT NULL,
	fields jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS rowstore_rows_tbl ON rowstore_rows (tbl, seq);`

// Store implements rowstore.Store on PostgreSQL.
type Store struct {
	// Pool is the PostgreSQL connection pool
	Pool *pgxpool.Pool
}

// Open connects to dsn and creates the rows relation when missing.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, aterrors.Wrap(aterrors.TransportFailure, "connect to postgres", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, classify("connect to postgres", err)
	}
	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool *pgxpool.Pool) *Store { return &Store{Pool: pool} }

// Migrate creates the rows relation.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return classify("create rowstore_rows", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}

// FetchAll returns the rows of table in insertion order.
func (s *Store) FetchAll(ctx context.Context, table string) ([]rowstore.Fields, error) {
	rows, err := s.Pool.Query(ctx, `SELECT fields FROM rowstore_rows WHERE tbl = $1 ORDER BY seq`, table)
	if err != nil {
		return nil, classify("read "+table, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (rowstore.Fields, error) {
		f := rowstore.Fields{}
		err := row.Scan(&f)
		return f, err
	})
	if err != nil {
		return nil, classify("read "+table, err)
	}
	return out, nil
}

// Create appends a row.
func (s *Store) Create(ctx context.Context, table string, fields rowstore.Fields) error {
	if _, err := s.Pool.Exec(ctx, `INSERT INTO rowstore_rows (tbl, fields) VALUES ($1, $2)`, table, map[string]string(fields)); err != nil {
		return classify("create in "+table, err)
	}
	return nil
}

// UpdateAt replaces the fields of the row at position.
func (s *Store) UpdateAt(ctx context.Context, table string, position int, fields rowstore.Fields) error {
	op := fmt.Sprintf("update %s row %d", table, position)
	if position < 1 {
		return aterrors.New(aterrors.RemoteRejection, op+": position out of range")
	}
	tag, err := s.Pool.Exec(ctx, `UPDATE rowstore_rows SET fields = $3
		WHERE seq = (SELECT seq FROM rowstore_rows WHERE tbl = $1 ORDER BY seq LIMIT 1 OFFSET $2)`,
		table, position-1, map[string]string(fields))
	return affected(op, tag, err)
}

// DeleteAt removes the row at position.
func (s *Store) DeleteAt(ctx context.Context, table string, position int) error {
	op := fmt.Sprintf("delete %s row %d", table, position)
	if position < 1 {
		return aterrors.New(aterrors.RemoteRejection, op+": position out of range")
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM rowstore_rows
		WHERE seq = (SELECT seq FROM rowstore_rows WHERE tbl = $1 ORDER BY seq LIMIT 1 OFFSET $2)`,
		table, position-1)
	return affected(op, tag, err)
}

func affected(op string, tag pgconn.CommandTag, err error) error {
	if err != nil {
		return classify(op, err)
	}
	if tag.RowsAffected() == 0 {
		return aterrors.New(aterrors.RemoteRejection, op+": position out of range")
	}
	return nil
}

// classify separates failures where the server never answered from answers
// that declined the statement.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		// Class 08 is connection exception; 57P0x is operator intervention
		// (shutdown, crash), both before any effect is known.
		if strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0") {
			return aterrors.Wrap(aterrors.TransportFailure, op, err)
		}
		return aterrors.Wrap(aterrors.RemoteRejection, op, err)
	case errors.Is(err, pgx.ErrNoRows):
		return aterrors.Wrap(aterrors.RemoteRejection, op, err)
	}
	return aterrors.Wrap(aterrors.TransportFailure, op, err)
}
