// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package rowstore defines the contract of the remote tabular store the CLI
// talks to. The store is addressed only by table name, returns whole tables,
// and mutates single rows by their 1-based ordinal position. It assigns no
// identifiers and offers no transactions; success only means "accepted", and
// the effect of a call is observable only through a later FetchAll.
//
// Concrete transports live in subpackages (httpstore, grpcstore, pgstore,
// sqlitestore, memstore). All of them surface failures as *errors.E with kind
// TransportFailure or RemoteRejection.
package rowstore

import (
	"context"
	"sort"
)

// Fields is one row's field name to value mapping.
type Fields map[string]string

// Clone returns an independent copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge returns a copy of f overlaid by every field of override.
func (f Fields) Merge(override Fields) Fields {
	out := f.Clone()
	for k, v := range override {
		out[k] = v
	}
	return out
}

// Keys returns the field names in lexical order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store defines the row store operations the coordinator depends on.
// Implementations may call real backends or provide fakes for tests.
type Store interface {
	// FetchAll returns every row of table in store order.
	FetchAll(ctx context.Context, table string) ([]Fields, error)
	// Create appends one row to table.
	Create(ctx context.Context, table string, fields Fields) error
	// UpdateAt replaces the fields of the row at the 1-based position.
	UpdateAt(ctx context.Context, table string, position int, fields Fields) error
	// DeleteAt removes the row at the 1-based position. Every later row shifts
	// down by one position on the next FetchAll.
	DeleteAt(ctx context.Context, table string, position int) error
}

// Closer is implemented by stores holding connections or pools.
type Closer interface {
	Close() error
}

// Close releases s when it holds resources.
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}
