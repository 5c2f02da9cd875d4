// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package staging

import (
	"assettrack/cli/internal/asset"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

// Draft is a new row being composed. Its ID is local to the queue and is not
// a row position; a draft has no position until the store accepts it.
type Draft struct {
	ID     int
	Fields rowstore.Fields
}

// Complete reports whether every required field is filled in. With no
// required fields a draft is complete once any field is non-blank.
func (d Draft) Complete(required []string) bool {
	if len(required) == 0 {
		for _, v := range d.Fields {
			if !asset.IsBlank(v) {
				return true
			}
		}
		return false
	}
	return len(asset.MissingOf(d.Fields, required)) == 0
}

// DraftQueue is an auto-growing list of drafts that always ends with exactly
// one open draft. Filling the required fields of the trailing draft appends a
// fresh empty one.
type DraftQueue struct {
	required []string
	drafts   []*Draft
	nextID   int
}

// NewDraftQueue creates a queue holding one empty draft.
func NewDraftQueue(required []string) *DraftQueue {
	q := &DraftQueue{required: append([]string(nil), required...)}
	q.Reset()
	return q
}

// Reset leaves a single empty draft.
func (q *DraftQueue) Reset() {
	q.drafts = nil
	q.appendEmpty()
}

func (q *DraftQueue) appendEmpty() *Draft {
	q.nextID++
	d := &Draft{ID: q.nextID, Fields: rowstore.Fields{}}
	q.drafts = append(q.drafts, d)
	return d
}

// Trailing returns the open draft at the end of the queue.
func (q *DraftQueue) Trailing() Draft {
	return copyDraft(q.drafts[len(q.drafts)-1])
}

// Set stores field=value on draft id. When that draft is the trailing one and
// becomes complete, a new empty draft is appended; the returned bool reports
// whether that happened.
func (q *DraftQueue) Set(id int, field, value string) (bool, error) {
	i := q.find(id)
	if i < 0 {
		return false, aterrors.Newf(aterrors.Validation, "draft %d does not exist", id)
	}
	q.drafts[i].Fields[field] = value
	return q.growIfTrailingComplete(), nil
}

func (q *DraftQueue) growIfTrailingComplete() bool {
	last := q.drafts[len(q.drafts)-1]
	if !last.Complete(q.required) {
		return false
	}
	q.appendEmpty()
	return true
}

// Remove drops draft id. The sole remaining draft cannot be removed.
func (q *DraftQueue) Remove(id int) error {
	i := q.find(id)
	if i < 0 {
		return aterrors.Newf(aterrors.Validation, "draft %d does not exist", id)
	}
	if len(q.drafts) == 1 {
		return aterrors.New(aterrors.Validation, "the last remaining draft cannot be removed")
	}
	q.drafts = append(q.drafts[:i], q.drafts[i+1:]...)
	q.growIfTrailingComplete()
	return nil
}

// Drafts returns copies of every draft in order.
func (q *DraftQueue) Drafts() []Draft {
	out := make([]Draft, len(q.drafts))
	for i, d := range q.drafts {
		out[i] = copyDraft(d)
	}
	return out
}

// Ready returns the drafts whose required fields are all filled in.
// Incomplete drafts are abandoned entries, not errors.
func (q *DraftQueue) Ready() []Draft {
	var out []Draft
	for _, d := range q.drafts {
		if d.Complete(q.required) {
			out = append(out, copyDraft(d))
		}
	}
	return out
}

// Len returns the number of drafts including the open one.
func (q *DraftQueue) Len() int { return len(q.drafts) }

func (q *DraftQueue) find(id int) int {
	for i, d := range q.drafts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func copyDraft(d *Draft) Draft {
	return Draft{ID: d.ID, Fields: d.Fields.Clone()}
}
