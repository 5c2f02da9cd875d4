// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package snapshot holds point-in-time copies of a table and the read-only
// projections derived from them.
//
// A Snapshot is never mutated once published: every fetch produces a new one
// with a strictly greater generation. Row positions are 1-based ordinals that
// mean something only together with the generation that produced them; a
// Ref carries both so stale positions can be detected instead of reused.
package snapshot

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"

	"assettrack/cli/internal/rowstore"
)

// Row is one record of a snapshot.
type Row struct {
	Position int
	Fields   rowstore.Fields
}

// Ref addresses a row within one generation.
type Ref struct {
	Generation uint64
	Position   int
}

// Snapshot is an immutable ordered copy of a table.
type Snapshot struct {
	Table      string
	Generation uint64
	rows       []Row
	index      map[int]int
}

func newSnapshot(table string, gen uint64, fields []rowstore.Fields) *Snapshot {
	s := &Snapshot{
		Table:      table,
		Generation: gen,
		rows:       make([]Row, len(fields)),
		index:      make(map[int]int, len(fields)),
	}
	for i, f := range fields {
		s.rows[i] = Row{Position: i + 1, Fields: f.Clone()}
		s.index[i+1] = i
	}
	return s
}

// Len returns the number of rows.
func (s *Snapshot) Len() int { return len(s.rows) }

// Rows returns copies of all rows in position order.
func (s *Snapshot) Rows() []Row {
	out := make([]Row, len(s.rows))
	for i, r := range s.rows {
		out[i] = Row{Position: r.Position, Fields: r.Fields.Clone()}
	}
	return out
}

// Fields returns the field maps of all rows in position order.
func (s *Snapshot) Fields() []rowstore.Fields {
	out := make([]rowstore.Fields, len(s.rows))
	for i, r := range s.rows {
		out[i] = r.Fields.Clone()
	}
	return out
}

// At returns a copy of the row at position.
func (s *Snapshot) At(position int) (Row, bool) {
	i, ok := s.index[position]
	if !ok {
		return Row{}, false
	}
	r := s.rows[i]
	return Row{Position: r.Position, Fields: r.Fields.Clone()}, true
}

// Ref returns the generation-tagged address of position.
func (s *Snapshot) Ref(position int) Ref {
	return Ref{Generation: s.Generation, Position: position}
}

// Fingerprint hashes the table content in order. Two fetches of an unchanged
// table share a fingerprint even though their generations differ, which lets a
// later process verify that positions shown to the user still address the
// same rows.
func (s *Snapshot) Fingerprint() string {
	h := blake3.New()
	for _, r := range s.rows {
		for _, k := range r.Fields.Keys() {
			_, _ = h.Write([]byte(k))
			_, _ = h.Write([]byte{0x1f})
			_, _ = h.Write([]byte(r.Fields[k]))
			_, _ = h.Write([]byte{0x1e})
		}
		_, _ = h.Write([]byte{0x1d})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Fetcher is the read half of a row store.
type Fetcher interface {
	FetchAll(ctx context.Context, table string) ([]rowstore.Fields, error)
}

// Cache keeps the latest snapshot of one table.
type Cache struct {
	table   string
	fetcher Fetcher
	// mu protects gen and current
	mu      sync.RWMutex
	gen     uint64
	current *Snapshot
}

// NewCache creates an empty cache for table. Current returns nil until the
// first successful Refresh.
func NewCache(table string, f Fetcher) *Cache {
	return &Cache{table: table, fetcher: f}
}

// Table returns the cached table name.
func (c *Cache) Table() string { return c.table }

// Refresh fetches the whole table and publishes it as the next generation.
// On error the previous snapshot stays current.
func (c *Cache) Refresh(ctx context.Context) (*Snapshot, error) {
	rows, err := c.fetcher.FetchAll(ctx, c.table)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.current = newSnapshot(c.table, c.gen, rows)
	return c.current, nil
}

// Current returns the latest snapshot, or nil before the first fetch.
func (c *Cache) Current() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Generation returns the latest generation, 0 before the first fetch.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}
