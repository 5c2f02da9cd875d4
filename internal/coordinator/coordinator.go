// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package coordinator applies staged bulk mutations to a row store that has
// no transactions and addresses rows only by their current position.
//
// Correctness rests on ordering rather than atomicity:
//   - edits are sent one by one in ascending position order; an update never
//     changes positions
//   - deletes are sent in strictly descending position order, so removing one
//     row never shifts a position that is still queued
//   - a move creates the destination row first and deletes the source only
//     after the create was accepted
//
// Every batch ends with a forced re-fetch, which produces a new generation and
// drops the selection and edit buffer staged against the old one. Batches on
// the same table are serialized by TableLocks. Calls already sent are never
// undone; an item failure is reported in the Result and the rest of the batch
// continues.
package coordinator

import (
	"context"
	"fmt"
	"sort"

	"assettrack/cli/internal/asset"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/snapshot"
)

// Coordinator runs batches against one store.
type Coordinator struct {
	store    rowstore.Store
	locks    *TableLocks
	logf     func(format string, args ...any)
	progress ProgressFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLocks replaces the process-wide lock registry.
func WithLocks(l *TableLocks) Option { return func(c *Coordinator) { c.locks = l } }

// WithLogger sets a debug logger.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(c *Coordinator) { c.logf = logf }
}

// WithProgress sets a listener called after every finished batch item.
func WithProgress(fn ProgressFunc) Option { return func(c *Coordinator) { c.progress = fn } }

// New creates a coordinator for store.
func New(store rowstore.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store: store,
		locks: sharedLocks,
		logf:  func(string, ...any) {},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Open creates a session for the table described by schema. The session is
// empty until Load.
func (c *Coordinator) Open(schema asset.Schema) *Session {
	return newSession(c.store, schema)
}

// CommitEdits sends every buffered row as one UpdateAt carrying the original
// fields overlaid by the staged overrides, in ascending position order. Rows
// missing a required field are refused locally.
func (c *Coordinator) CommitEdits(ctx context.Context, s *Session) (Result, error) {
	unlock := c.locks.Lock(s.Table())
	defer unlock()

	if err := c.checkBound(s, s.edits.Generation()); err != nil {
		return Result{}, err
	}
	positions := s.edits.Positions()
	if len(positions) == 0 {
		return Result{}, aterrors.New(aterrors.Validation, "no edits staged")
	}

	p := c.begin(OpUpdate, s.Table(), len(positions))
	item := func(pos int) Outcome {
		merged, _ := s.edits.Merged(pos)
		return Outcome{Op: OpUpdate, Table: s.Table(), Position: pos, Fields: merged}
	}
	for i, pos := range positions {
		if c.stopped(ctx, p, positions[i:], item) {
			break
		}
		o := item(pos)
		merged := o.Fields
		if missing := s.schema.Missing(merged); len(missing) > 0 {
			o.Err = aterrors.Newf(aterrors.Validation, "row %d: missing %v", pos, missing)
		} else {
			o.Err = c.store.UpdateAt(ctx, s.Table(), pos, merged)
		}
		c.record(p, o)
	}

	s.edits.Discard()
	return c.finish(ctx, p, s, nil), nil
}

// CommitCreates sends every complete draft, with schema defaults applied, as
// one Create each. Incomplete drafts are dropped. The queue is reset to a
// single empty draft afterwards.
func (c *Coordinator) CommitCreates(ctx context.Context, s *Session) (Result, error) {
	unlock := c.locks.Lock(s.Table())
	defer unlock()

	ready := s.drafts.Ready()
	if len(ready) == 0 {
		return Result{}, aterrors.Newf(aterrors.Validation, "no complete drafts; %s requires %v", s.Table(), s.schema.Required)
	}

	p := c.begin(OpCreate, s.Table(), len(ready))
	for i, d := range ready {
		o := Outcome{Op: OpCreate, Table: s.Table(), DraftID: d.ID, Fields: s.schema.WithDefaults(d.Fields)}
		if ctx.Err() != nil {
			for _, rest := range ready[i:] {
				c.record(p, Outcome{Op: OpCreate, Table: s.Table(), DraftID: rest.ID, Fields: rest.Fields, Err: cancelled(ctx)})
			}
			break
		}
		o.Err = c.store.Create(ctx, s.Table(), o.Fields)
		c.record(p, o)
	}

	s.drafts.Reset()
	return c.finish(ctx, p, s, nil), nil
}

// CommitDeletes deletes the selected rows in strictly descending position
// order.
func (c *Coordinator) CommitDeletes(ctx context.Context, s *Session) (Result, error) {
	unlock := c.locks.Lock(s.Table())
	defer unlock()

	if err := c.checkBound(s, s.selection.Generation()); err != nil {
		return Result{}, err
	}
	positions := descending(s.selection.Positions())
	if len(positions) == 0 {
		return Result{}, aterrors.New(aterrors.Validation, "no rows selected for deletion")
	}

	p := c.begin(OpDelete, s.Table(), len(positions))
	for i, pos := range positions {
		if c.stopped(ctx, p, positions[i:], func(pos int) Outcome {
			return Outcome{Op: OpDelete, Table: s.Table(), Position: pos}
		}) {
			break
		}
		c.record(p, Outcome{Op: OpDelete, Table: s.Table(), Position: pos, Err: c.store.DeleteAt(ctx, s.Table(), pos)})
	}

	s.selection.Clear()
	return c.finish(ctx, p, s, nil), nil
}

// Move is one row to move: the source ref and the destination fields that
// override the source's.
type Move struct {
	Ref    snapshot.Ref
	Fields rowstore.Fields
}

// MovesFromSelection builds one move per selected row of src, all sharing the
// same destination fields.
func MovesFromSelection(src *Session, dest rowstore.Fields) []Move {
	var out []Move
	for _, pos := range src.Selected() {
		out = append(out, Move{Ref: src.Ref(pos), Fields: dest.Clone()})
	}
	return out
}

// ApproveMove moves one row from src to dst.
func (c *Coordinator) ApproveMove(ctx context.Context, src, dst *Session, ref snapshot.Ref, dest rowstore.Fields) (Result, error) {
	return c.ApproveMoves(ctx, src, dst, []Move{{Ref: ref, Fields: dest}})
}

// ApproveMoves moves rows from src to dst, highest source position first.
// Each move creates the combined row in dst and, only if that succeeded,
// deletes the source. A failed delete leaves a duplicate and is reported
// with kind move_source_retained.
func (c *Coordinator) ApproveMoves(ctx context.Context, src, dst *Session, moves []Move) (Result, error) {
	unlock := c.locks.Lock(src.Table(), dst.Table())
	defer unlock()

	if len(moves) == 0 {
		return Result{}, aterrors.New(aterrors.Validation, "no rows selected to approve")
	}
	if err := c.checkBound(src, src.Generation()); err != nil {
		return Result{}, err
	}
	snap := src.Snapshot()
	seen := make(map[int]struct{}, len(moves))
	for _, m := range moves {
		if _, dup := seen[m.Ref.Position]; dup {
			return Result{}, aterrors.Newf(aterrors.Validation, "row %d is listed twice", m.Ref.Position)
		}
		seen[m.Ref.Position] = struct{}{}
		if m.Ref.Generation != snap.Generation {
			return Result{}, aterrors.Newf(aterrors.StalePosition,
				"row %d belongs to generation %d of %s, current is %d; re-select", m.Ref.Position, m.Ref.Generation, src.Table(), snap.Generation)
		}
	}
	ordered := append([]Move(nil), moves...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Ref.Position > ordered[j].Ref.Position })

	p := c.begin(OpMove, src.Table(), len(ordered))
	for i, m := range ordered {
		if ctx.Err() != nil {
			for _, rest := range ordered[i:] {
				c.record(p, Outcome{Op: OpMove, Table: src.Table(), Position: rest.Ref.Position, Fields: rest.Fields, Err: cancelled(ctx)})
			}
			break
		}
		c.record(p, c.move(ctx, src, dst, snap, m))
	}

	src.selection.Clear()
	return c.finish(ctx, p, src, dst), nil
}

func (c *Coordinator) move(ctx context.Context, src, dst *Session, snap *snapshot.Snapshot, m Move) Outcome {
	o := Outcome{Op: OpMove, Table: src.Table(), Position: m.Ref.Position, Fields: m.Fields}
	if missing := asset.MissingOf(m.Fields, asset.MoveRequired); len(missing) > 0 {
		o.Err = aterrors.Newf(aterrors.Validation, "row %d: choose %v before approving", m.Ref.Position, missing)
		return o
	}
	row, ok := snap.At(m.Ref.Position)
	if !ok {
		o.Err = aterrors.Newf(aterrors.StalePosition, "%s has no row %d", src.Table(), m.Ref.Position)
		return o
	}
	o.Fields = row.Fields.Merge(m.Fields)

	if err := c.store.Create(ctx, dst.Table(), o.Fields); err != nil {
		o.Err = err
		return o
	}
	c.logf("move %s row %d: created in %s", src.Table(), m.Ref.Position, dst.Table())

	cause := ctx.Err()
	if cause == nil {
		cause = c.store.DeleteAt(ctx, src.Table(), m.Ref.Position)
	}
	if cause != nil {
		o.Err = aterrors.Wrap(aterrors.MoveSourceRetained,
			fmt.Sprintf("row %d was copied to %s but is still in %s; delete it manually", m.Ref.Position, dst.Table(), src.Table()), cause)
	}
	return o
}

// checkBound refuses a batch whose staged state belongs to a generation other
// than the current snapshot's.
func (c *Coordinator) checkBound(s *Session, gen uint64) error {
	snap := s.Snapshot()
	if snap == nil || gen == invalidGeneration {
		return aterrors.Newf(aterrors.StalePosition, "%s must be reloaded and re-selected", s.Table())
	}
	if snap.Generation != gen {
		return aterrors.Newf(aterrors.StalePosition,
			"staged changes belong to generation %d of %s, current is %d; re-select", gen, s.Table(), snap.Generation)
	}
	return nil
}

func (c *Coordinator) begin(op Op, table string, total int) *Progress {
	p := newProgress(op, table, total, c.progress)
	c.logf("batch %s: %s %d item(s) on %s", p.State().BatchID, op, total, table)
	return p
}

func (c *Coordinator) record(p *Progress, o Outcome) {
	if o.Err != nil {
		c.logf("batch %s: %s failed: %v", p.State().BatchID, o.Target(), o.Err)
	}
	p.Record(o)
}

// stopped records every remaining item as cancelled once ctx is done.
func (c *Coordinator) stopped(ctx context.Context, p *Progress, rest []int, item func(int) Outcome) bool {
	if ctx.Err() == nil {
		return false
	}
	for _, pos := range rest {
		o := item(pos)
		o.Err = cancelled(ctx)
		c.record(p, o)
	}
	return true
}

// finish re-reads the touched tables on a context that survives cancellation
// of the batch, so the caller always learns the post-batch state.
func (c *Coordinator) finish(ctx context.Context, p *Progress, s, dst *Session) Result {
	st := p.State()
	r := Result{BatchID: st.BatchID, Op: st.Op, Table: st.Table, Outcomes: p.Outcomes()}
	rctx := context.WithoutCancel(ctx)

	r.Snapshot, r.RefreshErr = s.refresh(rctx)
	if dst != nil && dst != s {
		var err error
		r.Destination, err = dst.refresh(rctx)
		if r.RefreshErr == nil {
			r.RefreshErr = err
		}
	}
	if r.RefreshErr != nil {
		c.logf("batch %s: refresh failed: %v", st.BatchID, r.RefreshErr)
	}
	return r
}

func cancelled(ctx context.Context) error {
	return aterrors.Wrap(aterrors.Cancelled, "batch stopped before this item was sent", context.Cause(ctx))
}

func descending(positions []int) []int {
	out := append([]int(nil), positions...)
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
