// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package coordinator

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"assettrack/cli/internal/asset"
	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
	"assettrack/cli/internal/rowstore/memstore"
	"assettrack/cli/internal/snapshot"
)

var tables = asset.NewCatalog(asset.DefaultTables())

func schemaOf(t *testing.T, table string) asset.Schema {
	t.Helper()
	s, ok := tables.Schema(table)
	if !ok {
		t.Fatalf("no schema for %s", table)
	}
	return s
}

func item(code, name string) rowstore.Fields {
	return rowstore.Fields{"code": code, "name": name, "category": "-", "status": asset.StatusUsable, "detail": "-"}
}

func seededInventory(n int) *memstore.Store {
	rows := make([]rowstore.Fields, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, item(fmt.Sprintf("A%d", i), fmt.Sprintf("Item %d", i)))
	}
	st := memstore.New()
	st.Seed("DATA", rows...)
	return st
}

func loaded(t *testing.T, c *Coordinator, table string) *Session {
	t.Helper()
	s := c.Open(schemaOf(t, table))
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load(%s) error = %v", table, err)
	}
	return s
}

func mutations(st *memstore.Store) []string {
	var out []string
	for _, c := range st.Mutations() {
		out = append(out, c.String())
	}
	return out
}

func TestCommitDeletesDescending(t *testing.T) {
	// Four data rows; the user picks the second and fourth.
	st := seededInventory(4)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	for _, pos := range []int{2, 4} {
		if _, err := s.Toggle(s.Ref(pos)); err != nil {
			t.Fatal(err)
		}
	}

	res, err := c.CommitDeletes(context.Background(), s)
	if err != nil {
		t.Fatalf("CommitDeletes() error = %v", err)
	}

	want := []string{"DELETE(DATA, 4)", "DELETE(DATA, 2)"}
	if got := mutations(st); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if res.Snapshot.Len() != 2 {
		t.Errorf("rows after refresh = %d, want 2", res.Snapshot.Len())
	}
	if r, _ := res.Snapshot.At(2); r.Fields["code"] != "A3" {
		t.Errorf("the right rows must survive, got %v", res.Snapshot.Fields())
	}
}

func TestCommitDeletesManyPositionsStrictlyDecreasing(t *testing.T) {
	st := seededInventory(12)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	for _, pos := range []int{7, 1, 12, 3, 9, 4} {
		s.Toggle(s.Ref(pos))
	}

	if _, err := c.CommitDeletes(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	calls := st.Mutations()
	for i := 1; i < len(calls); i++ {
		if calls[i].Position >= calls[i-1].Position {
			t.Fatalf("delete order %v is not strictly decreasing", mutations(st))
		}
	}
	if len(calls) != 6 {
		t.Errorf("issued %d deletes, want 6", len(calls))
	}
}

func TestCommitDeletesContinuesAfterItemFailure(t *testing.T) {
	st := seededInventory(5)
	st.FailWhen(func(c memstore.Call) error {
		if c.Op == memstore.OpDelete && c.Position == 4 {
			return aterrors.New(aterrors.RemoteRejection, "locked")
		}
		return nil
	})
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	for _, pos := range []int{2, 4, 5} {
		s.Toggle(s.Ref(pos))
	}

	res, _ := c.CommitDeletes(context.Background(), s)
	if res.Succeeded() != 2 || len(res.Failed()) != 1 {
		t.Fatalf("outcomes = %+v", res.Outcomes)
	}
	if f := res.Failed()[0]; f.Position != 4 || f.Kind() != aterrors.RemoteRejection {
		t.Errorf("failed item = %+v", f)
	}
	if res.Snapshot.Len() != 3 {
		t.Errorf("rows after refresh = %d, want 3", res.Snapshot.Len())
	}
}

func TestCommitEditsOneUpdatePerBufferedPosition(t *testing.T) {
	st := seededInventory(6)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")

	if err := s.BeginEdit(5, 2, 4); err != nil {
		t.Fatal(err)
	}
	if err := s.SetField(s.Ref(4), "status", asset.StatusBroken); err != nil {
		t.Fatal(err)
	}

	if _, err := c.CommitEdits(context.Background(), s); err != nil {
		t.Fatal(err)
	}
	want := []string{"UPDATE(DATA, 2)", "UPDATE(DATA, 4)", "UPDATE(DATA, 5)"}
	if got := mutations(st); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	// Untouched rows are resent unchanged.
	if got := st.Mutations()[0].Fields; !reflect.DeepEqual(got, item("A2", "Item 2")) {
		t.Errorf("UPDATE(2) fields = %v", got)
	}
}

func TestCommitEditsRoundTrip(t *testing.T) {
	st := seededInventory(3)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	s.Toggle(s.Ref(2))
	s.BeginEdit()
	s.SetField(s.Ref(2), "detail", "โต๊ะพับ")

	res, err := c.CommitEdits(context.Background(), s)
	if err != nil || res.Err() != nil {
		t.Fatalf("CommitEdits() = %v, %v", err, res.Err())
	}
	found := false
	for _, r := range res.Snapshot.Rows() {
		if r.Fields["code"] == "A2" {
			found = r.Fields["detail"] == "โต๊ะพับ"
		}
	}
	if !found {
		t.Errorf("edited value not read back: %v", res.Snapshot.Fields())
	}
}

func TestBeginEditPageSeedsVisibleRows(t *testing.T) {
	st := seededInventory(5)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	page := s.View(snapshot.Query{Page: 2, PageSize: 2})

	if err := s.BeginEditPage(page); err != nil {
		t.Fatalf("BeginEditPage() error = %v", err)
	}
	if got := s.Edited(); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("edited = %v, want the visible rows [3 4]", got)
	}

	s.DiscardEdits()
	s.Toggle(s.Ref(5))
	if err := s.BeginEditPage(page); err != nil {
		t.Fatal(err)
	}
	if got := s.Edited(); !reflect.DeepEqual(got, []int{5}) {
		t.Errorf("edited = %v, want the selection [5]", got)
	}

	s.DiscardEdits()
	s.ClearSelection()
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.BeginEditPage(page); !aterrors.Is(err, aterrors.StalePosition) {
		t.Errorf("BeginEditPage(old page) = %v, want stale_position", err)
	}
}

func TestCommitEditsValidatesRequiredFields(t *testing.T) {
	st := seededInventory(2)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	s.BeginEdit(1, 2)
	s.SetField(s.Ref(1), "name", " ")

	res, err := c.CommitEdits(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if got := mutations(st); !reflect.DeepEqual(got, []string{"UPDATE(DATA, 2)"}) {
		t.Errorf("calls = %v", got)
	}
	if res.Count(aterrors.Validation) != 1 {
		t.Errorf("outcomes = %+v", res.Outcomes)
	}
}

func TestCommitClearsStagedStateAndAdvancesGeneration(t *testing.T) {
	st := seededInventory(4)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	before := s.Snapshot().Generation

	s.Toggle(s.Ref(1))
	s.Toggle(s.Ref(3))
	s.BeginEdit()
	s.SetField(s.Ref(3), "name", "Renamed")

	res, err := c.CommitEdits(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Selected()) != 0 || len(s.Edited()) != 0 {
		t.Errorf("selection %v and buffer %v must be empty", s.Selected(), s.Edited())
	}
	if res.Snapshot.Generation <= before || s.Generation() != res.Snapshot.Generation {
		t.Errorf("generation %d -> %d (bound %d)", before, res.Snapshot.Generation, s.Generation())
	}
}

func TestStaleStateRefusedWithoutCalls(t *testing.T) {
	st := seededInventory(3)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	old := s.Ref(2)

	if _, err := s.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Toggle(old); !aterrors.Is(err, aterrors.StalePosition) {
		t.Errorf("Toggle(old ref) = %v, want stale_position", err)
	}
	if _, err := c.CommitDeletes(context.Background(), s); !aterrors.Is(err, aterrors.Validation) {
		t.Errorf("empty selection = %v, want validation", err)
	}
	if _, err := c.ApproveMove(context.Background(), s, s, old, rowstore.Fields{"location": "501", "status": "ok"}); !aterrors.Is(err, aterrors.StalePosition) {
		t.Errorf("ApproveMove(old ref) = %v, want stale_position", err)
	}
	if n := len(st.Mutations()); n != 0 {
		t.Errorf("stale operations issued %d calls", n)
	}
}

func TestToggleRefusesMissingRow(t *testing.T) {
	c := New(seededInventory(2), WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	if _, err := s.Toggle(s.Ref(3)); !aterrors.Is(err, aterrors.StalePosition) {
		t.Errorf("Toggle(3) = %v, want stale_position", err)
	}
}

func TestFailedRefreshInvalidatesStagedState(t *testing.T) {
	st := seededInventory(3)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	s.Toggle(s.Ref(1))
	st.FailWhen(func(call memstore.Call) error {
		if call.Op == memstore.OpRead {
			return aterrors.New(aterrors.TransportFailure, "offline")
		}
		return nil
	})

	res, err := c.CommitDeletes(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if res.Snapshot != nil || !aterrors.Is(res.RefreshErr, aterrors.TransportFailure) {
		t.Fatalf("result = %+v", res)
	}
	if _, err := s.Toggle(s.Snapshot().Ref(1)); !aterrors.Is(err, aterrors.StalePosition) {
		t.Errorf("positions from before the batch must be refused, got %v", err)
	}
}

func TestCommitCreatesSkipsOpenDraft(t *testing.T) {
	st := memstore.New()
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	q := s.Drafts()

	id := q.Trailing().ID
	q.Set(id, "code", "X1554")
	if grew, _ := q.Set(id, "name", "Chair"); !grew || q.Len() != 2 {
		t.Fatalf("filling code and name must append a draft, len=%d", q.Len())
	}

	res, err := c.CommitCreates(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	calls := st.Mutations()
	if len(calls) != 1 || calls[0].Op != memstore.OpCreate {
		t.Fatalf("calls = %v, want exactly one CREATE", mutations(st))
	}
	want := rowstore.Fields{"code": "X1554", "name": "Chair", "category": "-", "status": asset.StatusUsable, "detail": "-"}
	if !reflect.DeepEqual(calls[0].Fields, want) {
		t.Errorf("created fields = %v, want defaults applied: %v", calls[0].Fields, want)
	}
	if res.Snapshot.Len() != 1 || q.Len() != 1 {
		t.Errorf("rows = %d, drafts = %d", res.Snapshot.Len(), q.Len())
	}
}

func TestCommitCreatesNothingReady(t *testing.T) {
	st := memstore.New()
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	s.Drafts().Set(s.Drafts().Trailing().ID, "code", "only-code")

	if _, err := c.CommitCreates(context.Background(), s); !aterrors.Is(err, aterrors.Validation) {
		t.Errorf("CommitCreates() = %v, want validation", err)
	}
	if len(st.Mutations()) != 0 {
		t.Error("no calls expected")
	}
}

// pendingStore holds six filler rows and X1554 at position 7.
func pendingStore() *memstore.Store {
	var rows []rowstore.Fields
	for i := 1; i <= 6; i++ {
		rows = append(rows, rowstore.Fields{"code": fmt.Sprintf("P%d", i), "name": "Pending", "location": "-", "status": "-"})
	}
	rows = append(rows, rowstore.Fields{"code": "X1554", "name": "Chair", "location": "-", "status": "-"})
	st := memstore.New()
	st.Seed("WAIT", rows...)
	return st
}

func TestApproveMoveCreatesThenDeletes(t *testing.T) {
	st := pendingStore()
	c := New(st, WithLocks(NewTableLocks()))
	wait := loaded(t, c, "WAIT")
	log := loaded(t, c, "LOG")

	res, err := c.ApproveMove(context.Background(), wait, log, wait.Ref(7), rowstore.Fields{"location": "501", "status": "ok"})
	if err != nil || res.Err() != nil {
		t.Fatalf("ApproveMove() = %v, %v", err, res.Err())
	}

	want := []string{"CREATE(LOG)", "DELETE(WAIT, 7)"}
	if got := mutations(st); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	created := st.Mutations()[0].Fields
	if created["code"] != "X1554" || created["name"] != "Chair" || created["location"] != "501" || created["status"] != "ok" {
		t.Errorf("created = %v", created)
	}
	if res.Snapshot.Len() != 6 || res.Destination.Len() != 1 {
		t.Errorf("after move WAIT=%d LOG=%d", res.Snapshot.Len(), res.Destination.Len())
	}
}

func TestApproveMoveCreateFailureSkipsDelete(t *testing.T) {
	st := pendingStore()
	st.FailWhen(func(c memstore.Call) error {
		if c.Op == memstore.OpCreate {
			return aterrors.New(aterrors.TransportFailure, "timeout")
		}
		return nil
	})
	c := New(st, WithLocks(NewTableLocks()))
	wait := loaded(t, c, "WAIT")
	log := loaded(t, c, "LOG")

	res, _ := c.ApproveMove(context.Background(), wait, log, wait.Ref(7), rowstore.Fields{"location": "501", "status": "ok"})
	if got := mutations(st); !reflect.DeepEqual(got, []string{"CREATE(LOG)"}) {
		t.Errorf("calls = %v, delete must not be attempted", got)
	}
	if res.Outcomes[0].Kind() != aterrors.TransportFailure {
		t.Errorf("kind = %q", res.Outcomes[0].Kind())
	}
}

func TestApproveMoveDeleteFailureRetainsSource(t *testing.T) {
	st := pendingStore()
	st.FailWhen(func(c memstore.Call) error {
		if c.Op == memstore.OpDelete {
			return aterrors.New(aterrors.RemoteRejection, "protected range")
		}
		return nil
	})
	c := New(st, WithLocks(NewTableLocks()))
	wait := loaded(t, c, "WAIT")
	log := loaded(t, c, "LOG")

	res, _ := c.ApproveMove(context.Background(), wait, log, wait.Ref(7), rowstore.Fields{"location": "501", "status": "ok"})
	if k := res.Outcomes[0].Kind(); k != aterrors.MoveSourceRetained {
		t.Fatalf("kind = %q, want move_source_retained", k)
	}
	if res.Snapshot.Len() != 7 || res.Destination.Len() != 1 {
		t.Errorf("duplicate expected in both tables, WAIT=%d LOG=%d", res.Snapshot.Len(), res.Destination.Len())
	}
}

func TestApproveMoveRequiresLocationAndStatus(t *testing.T) {
	st := pendingStore()
	c := New(st, WithLocks(NewTableLocks()))
	wait := loaded(t, c, "WAIT")
	log := loaded(t, c, "LOG")

	res, _ := c.ApproveMove(context.Background(), wait, log, wait.Ref(7), rowstore.Fields{"location": "501", "status": "-"})
	if res.Outcomes[0].Kind() != aterrors.Validation || len(st.Mutations()) != 0 {
		t.Errorf("outcome = %+v, calls = %v", res.Outcomes[0], mutations(st))
	}
}

func TestApproveMovesProcessesHighestPositionFirst(t *testing.T) {
	st := pendingStore()
	c := New(st, WithLocks(NewTableLocks()))
	wait := loaded(t, c, "WAIT")
	log := loaded(t, c, "LOG")
	for _, pos := range []int{2, 7, 5} {
		wait.Toggle(wait.Ref(pos))
	}

	res, err := c.ApproveMoves(context.Background(), wait, log, MovesFromSelection(wait, rowstore.Fields{"location": "401", "status": asset.StatusUsable}))
	if err != nil || res.Err() != nil {
		t.Fatalf("ApproveMoves() = %v, %v", err, res.Err())
	}
	want := []string{
		"CREATE(LOG)", "DELETE(WAIT, 7)",
		"CREATE(LOG)", "DELETE(WAIT, 5)",
		"CREATE(LOG)", "DELETE(WAIT, 2)",
	}
	if got := mutations(st); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	var codes []string
	for _, r := range res.Destination.Rows() {
		codes = append(codes, r.Fields["code"])
	}
	if !reflect.DeepEqual(codes, []string{"X1554", "P5", "P2"}) {
		t.Errorf("LOG codes = %v", codes)
	}
}

func TestCancellationMarksRemainingItems(t *testing.T) {
	st := seededInventory(5)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st.FailWhen(func(c memstore.Call) error {
		if c.Op == memstore.OpDelete && c.Position == 4 {
			cancel()
		}
		return nil
	})
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	for _, pos := range []int{1, 2, 4, 5} {
		s.Toggle(s.Ref(pos))
	}

	res, err := c.CommitDeletes(ctx, s)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"DELETE(DATA, 5)", "DELETE(DATA, 4)"}
	if got := mutations(st); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	if res.Succeeded() != 2 || res.Count(aterrors.Cancelled) != 2 {
		t.Errorf("outcomes = %+v", res.Outcomes)
	}
	if res.Snapshot == nil || res.Snapshot.Len() != 3 {
		t.Error("final refresh must run despite cancellation")
	}
}

func TestResubmittedCreateIsNotIdempotent(t *testing.T) {
	st := memstore.New()
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")

	for range 2 {
		id := s.Drafts().Trailing().ID
		s.Drafts().Set(id, "code", "X1")
		s.Drafts().Set(id, "name", "Chair")
		if _, err := c.CommitCreates(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(st.Rows("DATA")); n != 2 {
		t.Errorf("rows = %d; a resubmitted batch is applied again", n)
	}
}

func TestVerifyFingerprint(t *testing.T) {
	st := seededInventory(2)
	c := New(st, WithLocks(NewTableLocks()))
	s := loaded(t, c, "DATA")
	seen := s.Snapshot().Fingerprint()

	s.Load(context.Background())
	if err := s.Verify(seen); err != nil {
		t.Errorf("unchanged table should verify, got %v", err)
	}

	if err := st.Create(context.Background(), "DATA", item("A9", "New")); err != nil {
		t.Fatal(err)
	}
	s.Load(context.Background())
	if err := s.Verify(seen); !aterrors.Is(err, aterrors.StalePosition) {
		t.Errorf("Verify() = %v, want stale_position", err)
	}
	if err := s.Verify(""); err != nil {
		t.Errorf("empty fingerprint always passes, got %v", err)
	}
}

func TestProgressReportsEveryItem(t *testing.T) {
	st := seededInventory(3)
	var states []ProgressState
	c := New(st, WithLocks(NewTableLocks()), WithProgress(func(p ProgressState) { states = append(states, p) }))
	s := loaded(t, c, "DATA")
	s.Toggle(s.Ref(1))
	s.Toggle(s.Ref(3))

	res, _ := c.CommitDeletes(context.Background(), s)
	if len(states) != 3 {
		t.Fatalf("progress calls = %d, want start + 2 items", len(states))
	}
	last := states[len(states)-1]
	if !last.Finished() || last.Done != 2 || last.BatchID != res.BatchID {
		t.Errorf("last state = %+v", last)
	}
}
