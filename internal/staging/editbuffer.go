// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package staging

import (
	"sort"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/snapshot"
)

type bufferEntry struct {
	base     rowstore.Fields
	override rowstore.Fields
}

// EditBuffer stages partial field overrides keyed by position over a copy of
// the rows as they were when editing started.
type EditBuffer struct {
	gen     uint64
	entries map[int]*bufferEntry
}

// NewEditBuffer creates an empty buffer bound to generation gen.
func NewEditBuffer(gen uint64) *EditBuffer {
	return &EditBuffer{gen: gen, entries: make(map[int]*bufferEntry)}
}

// Generation returns the generation the buffer belongs to.
func (b *EditBuffer) Generation() uint64 { return b.gen }

// Seed copies the current fields of every position into the buffer.
// Positions already staged keep their overrides.
func (b *EditBuffer) Seed(s *snapshot.Snapshot, positions []int) error {
	if err := checkGeneration(b.gen, s.Generation); err != nil {
		return err
	}
	for _, pos := range positions {
		row, ok := s.At(pos)
		if !ok {
			return aterrors.Newf(aterrors.StalePosition, "row %d does not exist in %s (%d rows)", pos, s.Table, s.Len())
		}
		if _, staged := b.entries[pos]; staged {
			continue
		}
		b.entries[pos] = &bufferEntry{base: row.Fields, override: rowstore.Fields{}}
	}
	return nil
}

// Set stages field=value for ref. The row must have been seeded.
func (b *EditBuffer) Set(ref snapshot.Ref, field, value string) error {
	if err := checkGeneration(b.gen, ref.Generation); err != nil {
		return err
	}
	e, ok := b.entries[ref.Position]
	if !ok {
		return aterrors.Newf(aterrors.Validation, "row %d is not being edited; select it first", ref.Position)
	}
	e.override[field] = value
	return nil
}

// Override returns a copy of the staged overrides for position.
func (b *EditBuffer) Override(position int) (rowstore.Fields, bool) {
	e, ok := b.entries[position]
	if !ok {
		return nil, false
	}
	return e.override.Clone(), true
}

// Merged returns the original row overlaid by the staged overrides.
func (b *EditBuffer) Merged(position int) (rowstore.Fields, bool) {
	e, ok := b.entries[position]
	if !ok {
		return nil, false
	}
	return e.base.Merge(e.override), true
}

// Positions returns the buffered positions in ascending order.
func (b *EditBuffer) Positions() []int {
	out := make([]int, 0, len(b.entries))
	for p := range b.entries {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Len returns the number of buffered rows.
func (b *EditBuffer) Len() int { return len(b.entries) }

// Discard drops every staged edit.
func (b *EditBuffer) Discard() {
	b.entries = make(map[int]*bufferEntry)
}

// Rebind discards the buffer and binds it to gen.
func (b *EditBuffer) Rebind(gen uint64) {
	b.gen = gen
	b.Discard()
}
