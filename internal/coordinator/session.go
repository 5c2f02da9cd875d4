// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package coordinator

import (
	"context"

	"assettrack/cli/internal/asset"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/snapshot"
	"assettrack/cli/internal/staging"
)

// invalidGeneration is bound to staged state after a batch whose final
// refresh failed. No snapshot ever carries it, so every ref is refused until
// the table is loaded again.
const invalidGeneration = 0

// Session is the per-table state one coordinator owns: the snapshot cache and
// the selection, edit buffer and draft queue staged against it. It is not safe
// for concurrent use; callers pass it by reference to the coordinator.
type Session struct {
	schema    asset.Schema
	cache     *snapshot.Cache
	selection *staging.Selection
	edits     *staging.EditBuffer
	drafts    *staging.DraftQueue
}

func newSession(f snapshot.Fetcher, schema asset.Schema) *Session {
	return &Session{
		schema:    schema,
		cache:     snapshot.NewCache(schema.Table, f),
		selection: staging.NewSelection(invalidGeneration),
		edits:     staging.NewEditBuffer(invalidGeneration),
		drafts:    staging.NewDraftQueue(schema.Required),
	}
}

// Table returns the table name.
func (s *Session) Table() string { return s.schema.Table }

// Schema returns the table schema.
func (s *Session) Schema() asset.Schema { return s.schema }

// Load fetches the table. Selection and staged edits are dropped because
// their positions belong to the previous generation.
func (s *Session) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, err := s.cache.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	s.selection.Rebind(snap.Generation)
	s.edits.Rebind(snap.Generation)
	return snap, nil
}

// refresh is Load for the end of a batch: on failure the staged state is
// invalidated rather than left bound to positions that may have shifted.
func (s *Session) refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		s.selection.Rebind(invalidGeneration)
		s.edits.Rebind(invalidGeneration)
	}
	return snap, err
}

// Snapshot returns the current snapshot, nil before the first Load.
func (s *Session) Snapshot() *snapshot.Snapshot { return s.cache.Current() }

// Generation returns the generation staged state is bound to.
func (s *Session) Generation() uint64 { return s.selection.Generation() }

// Verify refuses to proceed when the current snapshot no longer has the
// fingerprint the caller last showed to the user. An empty fingerprint
// always passes.
func (s *Session) Verify(fingerprint string) error {
	if fingerprint == "" {
		return nil
	}
	snap := s.Snapshot()
	if snap == nil {
		return aterrors.Newf(aterrors.StalePosition, "%s has not been loaded", s.Table())
	}
	if got := snap.Fingerprint(); got != fingerprint {
		return aterrors.Newf(aterrors.StalePosition,
			"%s changed since it was listed (snapshot %s, now %s); list it again and re-select", s.Table(), fingerprint, got)
	}
	return nil
}

// View projects the current snapshot. Search fields default to the schema's.
func (s *Session) View(q snapshot.Query) snapshot.Page {
	snap := s.Snapshot()
	if snap == nil {
		return snapshot.Page{Page: 1, Pages: 1}
	}
	if len(q.SearchFields) == 0 {
		q.SearchFields = s.schema.Search
	}
	return snapshot.View(snap, q)
}

// Ref returns the ref of position in the current generation.
func (s *Session) Ref(position int) snapshot.Ref {
	return snapshot.Ref{Generation: s.Generation(), Position: position}
}

// Toggle flips the selection of ref.
func (s *Session) Toggle(ref snapshot.Ref) (bool, error) {
	if err := s.checkExists(ref); err != nil {
		return false, err
	}
	return s.selection.Toggle(ref)
}

// SelectAll selects every row of page.
func (s *Session) SelectAll(page snapshot.Page) error { return s.selection.SelectAll(page) }

// ClearSelection deselects everything.
func (s *Session) ClearSelection() { s.selection.Clear() }

// Selected returns the selected positions in ascending order.
func (s *Session) Selected() []int { return s.selection.Positions() }

// BeginEdit seeds the edit buffer. With no positions it seeds the selection.
func (s *Session) BeginEdit(positions ...int) error {
	if len(positions) == 0 {
		positions = s.selection.Positions()
	}
	if len(positions) == 0 {
		return aterrors.New(aterrors.Validation, "no rows selected for editing")
	}
	snap := s.Snapshot()
	if snap == nil || snap.Generation != s.edits.Generation() {
		return aterrors.Newf(aterrors.StalePosition, "%s must be reloaded before editing", s.Table())
	}
	return s.edits.Seed(snap, positions)
}

// BeginEditPage seeds the edit buffer from the selection, or from the rows
// of page when nothing is selected. page must come from the current
// generation.
func (s *Session) BeginEditPage(page snapshot.Page) error {
	if s.selection.Len() > 0 {
		return s.BeginEdit()
	}
	if snap := s.Snapshot(); snap == nil || page.Generation != snap.Generation {
		return aterrors.Newf(aterrors.StalePosition, "page of %s belongs to another generation; list it again", s.Table())
	}
	return s.BeginEdit(page.Positions()...)
}

// SetField stages field=value on the row at ref.
func (s *Session) SetField(ref snapshot.Ref, field, value string) error {
	if !s.schema.HasField(field) {
		return aterrors.Newf(aterrors.Validation, "%s has no field %q", s.Table(), field)
	}
	return s.edits.Set(ref, field, value)
}

// Edited returns the positions in the edit buffer.
func (s *Session) Edited() []int { return s.edits.Positions() }

// Merged returns the buffered row for position as it would be sent.
func (s *Session) Merged(position int) (rowstore.Fields, bool) { return s.edits.Merged(position) }

// DiscardEdits drops the edit buffer.
func (s *Session) DiscardEdits() { s.edits.Discard() }

// Drafts returns the create queue.
func (s *Session) Drafts() *staging.DraftQueue { return s.drafts }

func (s *Session) checkExists(ref snapshot.Ref) error {
	snap := s.Snapshot()
	if snap == nil || snap.Generation != ref.Generation {
		return nil // the generation check reports this case
	}
	if _, ok := snap.At(ref.Position); !ok {
		return aterrors.Newf(aterrors.StalePosition, "%s has no row %d (%d rows)", s.Table(), ref.Position, snap.Len())
	}
	return nil
}
