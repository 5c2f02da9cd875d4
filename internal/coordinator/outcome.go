// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package coordinator

import (
	"fmt"

	"github.com/google/uuid"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/snapshot"
)

// Op names the kind of batch item.
type Op string

const (
	OpUpdate Op = "update"
	OpCreate Op = "create"
	OpDelete Op = "delete"
	// OpMove is a create in the destination table followed by a delete of the
	// source row.
	OpMove Op = "move"
)

// Outcome is the result of one batch item. Position is the source position
// the item addressed; it is zero for creates, which use DraftID instead.
type Outcome struct {
	Op       Op
	Table    string
	Position int
	DraftID  int
	Fields   rowstore.Fields
	Err      error
}

// OK reports whether the store accepted the item.
func (o Outcome) OK() bool { return o.Err == nil }

// Kind returns the error kind of a failed item, or "" on success.
func (o Outcome) Kind() aterrors.Kind { return aterrors.KindOf(o.Err) }

// Target describes what the item addressed, for summaries.
func (o Outcome) Target() string {
	if o.Position > 0 {
		return fmt.Sprintf("%s row %d", o.Table, o.Position)
	}
	if o.DraftID > 0 {
		return fmt.Sprintf("%s draft %d", o.Table, o.DraftID)
	}
	return o.Table
}

// Result is returned by every batch command: one outcome per item in the
// order the items were processed, plus the snapshot fetched after the batch.
// Snapshot is nil when the final refresh failed; RefreshErr then says why and
// the positions the user saw before the batch must be treated as stale.
type Result struct {
	BatchID  uuid.UUID
	Op       Op
	Table    string
	Outcomes []Outcome
	Snapshot *snapshot.Snapshot
	// Destination is the refreshed destination table of a move batch.
	Destination *snapshot.Snapshot
	RefreshErr  error
}

// Succeeded counts accepted items.
func (r Result) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed returns the items that were not accepted, cancelled ones included.
func (r Result) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// Count returns the number of items with the given error kind.
func (r Result) Count(kind aterrors.Kind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind() == kind {
			n++
		}
	}
	return n
}

// Err summarizes the batch as a single error, or nil when every item
// succeeded and the refresh worked.
func (r Result) Err() error {
	failed := r.Failed()
	switch {
	case len(failed) == 1:
		return failed[0].Err
	case len(failed) > 1:
		return fmt.Errorf("%d of %d %s items failed; first: %w", len(failed), len(r.Outcomes), r.Op, failed[0].Err)
	case r.RefreshErr != nil:
		return aterrors.Wrap(aterrors.KindOf(r.RefreshErr), "batch applied but the table could not be re-read", r.RefreshErr)
	}
	return nil
}
