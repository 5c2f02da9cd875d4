// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package staging holds user intent that has not been sent to the row store
// yet: the set of rows selected for a bulk operation, staged field edits and
// the queue of new-row drafts.
//
// Selections and edits reference positions of exactly one snapshot
// generation. They are bound to that generation when created and refuse refs
// from any other generation with a stale_position error; they are never
// carried forward to a newer snapshot.
package staging

import (
	"sort"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/snapshot"
)

// Selection is the set of positions marked for a bulk operation.
type Selection struct {
	gen       uint64
	positions map[int]struct{}
}

// NewSelection creates an empty selection bound to generation gen.
func NewSelection(gen uint64) *Selection {
	return &Selection{gen: gen, positions: make(map[int]struct{})}
}

// Generation returns the generation the selection belongs to.
func (s *Selection) Generation() uint64 { return s.gen }

// Toggle flips the selection state of ref and reports whether it is now selected.
func (s *Selection) Toggle(ref snapshot.Ref) (bool, error) {
	if err := checkGeneration(s.gen, ref.Generation); err != nil {
		return false, err
	}
	if _, ok := s.positions[ref.Position]; ok {
		delete(s.positions, ref.Position)
		return false, nil
	}
	s.positions[ref.Position] = struct{}{}
	return true, nil
}

// SelectAll marks every row of the visible page.
func (s *Selection) SelectAll(p snapshot.Page) error {
	if err := checkGeneration(s.gen, p.Generation); err != nil {
		return err
	}
	for _, pos := range p.Positions() {
		s.positions[pos] = struct{}{}
	}
	return nil
}

// Has reports whether position is selected.
func (s *Selection) Has(position int) bool {
	_, ok := s.positions[position]
	return ok
}

// Len returns the number of selected positions.
func (s *Selection) Len() int { return len(s.positions) }

// Positions returns the selected positions in ascending order.
func (s *Selection) Positions() []int {
	out := make([]int, 0, len(s.positions))
	for p := range s.positions {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Clear deselects everything.
func (s *Selection) Clear() {
	s.positions = make(map[int]struct{})
}

// Rebind clears the selection and binds it to gen.
func (s *Selection) Rebind(gen uint64) {
	s.gen = gen
	s.Clear()
}

func checkGeneration(bound, got uint64) error {
	if bound != got {
		return aterrors.Newf(aterrors.StalePosition,
			"position belongs to table generation %d but the current generation is %d; re-select against the current table", got, bound)
	}
	return nil
}
