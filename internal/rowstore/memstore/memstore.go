// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package memstore is an in-process row store with the same positional
// semantics as the remote backends. It records every call it receives and
// can inject failures, which makes it the reference fake for coordinator
// tests and the backing store for `serve --store memory:`.
package memstore

import (
	"context"
	"fmt"
	"sync"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

// Op names a row store operation.
type Op string

const (
	OpRead   Op = "READ"
	OpCreate Op = "CREATE"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Call is one recorded invocation.
type Call struct {
	Op       Op
	Table    string
	Position int
	Fields   rowstore.Fields
}

func (c Call) String() string {
	switch c.Op {
	case OpUpdate, OpDelete:
		return fmt.Sprintf("%s(%s, %d)", c.Op, c.Table, c.Position)
	default:
		return fmt.Sprintf("%s(%s)", c.Op, c.Table)
	}
}

// FailFunc decides whether a call fails. Returning nil lets it through.
type FailFunc func(c Call) error

// Store keeps tables in memory.
type Store struct {
	mu     sync.Mutex
	tables map[string][]rowstore.Fields
	calls  []Call
	fail   FailFunc
}

// New creates an empty store.
func New() *Store {
	return &Store{tables: make(map[string][]rowstore.Fields)}
}

// Seed replaces table with a copy of rows.
func (s *Store) Seed(table string, rows ...rowstore.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]rowstore.Fields, len(rows))
	for i, r := range rows {
		cp[i] = r.Clone()
	}
	s.tables[table] = cp
}

// FailWhen installs a failure injector; nil removes it.
func (s *Store) FailWhen(fn FailFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fn
}

// Calls returns the recorded calls in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Mutations returns the recorded non-read calls in order.
func (s *Store) Mutations() []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op != OpRead {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets the recorded calls.
func (s *Store) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// Rows returns a copy of the current rows of table.
func (s *Store) Rows(table string) []rowstore.Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.tables[table])
}

func (s *Store) record(c Call) error {
	s.calls = append(s.calls, c)
	if s.fail != nil {
		return s.fail(c)
	}
	return nil
}

// FetchAll returns a copy of the table.
func (s *Store) FetchAll(ctx context.Context, table string) ([]rowstore.Fields, error) {
	if err := ctx.Err(); err != nil {
		return nil, aterrors.Wrap(aterrors.TransportFailure, "read "+table, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpRead, Table: table}); err != nil {
		return nil, err
	}
	return cloneRows(s.tables[table]), nil
}

// Create appends a row.
func (s *Store) Create(ctx context.Context, table string, fields rowstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return aterrors.Wrap(aterrors.TransportFailure, "create in "+table, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpCreate, Table: table, Fields: fields.Clone()}); err != nil {
		return err
	}
	s.tables[table] = append(s.tables[table], fields.Clone())
	return nil
}

// UpdateAt replaces the row at position.
func (s *Store) UpdateAt(ctx context.Context, table string, position int, fields rowstore.Fields) error {
	if err := ctx.Err(); err != nil {
		return aterrors.Wrap(aterrors.TransportFailure, "update in "+table, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpUpdate, Table: table, Position: position, Fields: fields.Clone()}); err != nil {
		return err
	}
	rows := s.tables[table]
	if position < 1 || position > len(rows) {
		return aterrors.Newf(aterrors.RemoteRejection, "row %d out of range in %s", position, table)
	}
	rows[position-1] = fields.Clone()
	return nil
}

// DeleteAt removes the row at position.
func (s *Store) DeleteAt(ctx context.Context, table string, position int) error {
	if err := ctx.Err(); err != nil {
		return aterrors.Wrap(aterrors.TransportFailure, "delete in "+table, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(Call{Op: OpDelete, Table: table, Position: position}); err != nil {
		return err
	}
	rows := s.tables[table]
	if position < 1 || position > len(rows) {
		return aterrors.Newf(aterrors.RemoteRejection, "row %d out of range in %s", position, table)
	}
	s.tables[table] = append(rows[:position-1:position-1], rows[position:]...)
	return nil
}

func cloneRows(rows []rowstore.Fields) []rowstore.Fields {
	out := make([]rowstore.Fields, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}
