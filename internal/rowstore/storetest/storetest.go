// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package storetest checks that a rowstore.Store implementation follows the
// positional contract the coordinator relies on.
package storetest

import (
	"context"
	"reflect"
	"testing"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) rowstore.Store

// Run exercises store through every operation.
func Run(t *testing.T, newStore Factory) {
	t.Helper()
	tests := []struct {
		name string
		fn   func(t *testing.T, s rowstore.Store)
	}{
		{"empty table", testEmpty},
		{"create appends", testCreateAppends},
		{"update in place", testUpdate},
		{"delete shifts later rows", testDeleteShifts},
		{"descending deletes", testDescendingDeletes},
		{"out of range is rejected", testOutOfRange},
		{"tables are independent", testTablesIndependent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func codes(t *testing.T, s rowstore.Store, table string) []string {
	t.Helper()
	rows, err := s.FetchAll(context.Background(), table)
	if err != nil {
		t.Fatalf("FetchAll(%s) error = %v", table, err)
	}
	out := []string{}
	for _, r := range rows {
		out = append(out, r["code"])
	}
	return out
}

func seed(t *testing.T, s rowstore.Store, table string, codes ...string) {
	t.Helper()
	for _, c := range codes {
		if err := s.Create(context.Background(), table, rowstore.Fields{"code": c, "name": "item " + c}); err != nil {
			t.Fatalf("Create(%s) error = %v", c, err)
		}
	}
}

func expect(t *testing.T, got, want []string) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("codes = %v, want %v", got, want)
	}
}

func testEmpty(t *testing.T, s rowstore.Store) {
	expect(t, codes(t, s, "DATA"), []string{})
}

func testCreateAppends(t *testing.T, s rowstore.Store) {
	seed(t, s, "DATA", "A", "B", "C")
	expect(t, codes(t, s, "DATA"), []string{"A", "B", "C"})

	rows, _ := s.FetchAll(context.Background(), "DATA")
	if rows[1]["name"] != "item B" {
		t.Errorf("fields not stored: %v", rows[1])
	}
}

func testUpdate(t *testing.T, s rowstore.Store) {
	seed(t, s, "DATA", "A", "B", "C")
	if err := s.UpdateAt(context.Background(), "DATA", 2, rowstore.Fields{"code": "B", "name": "renamed"}); err != nil {
		t.Fatalf("UpdateAt() error = %v", err)
	}
	rows, _ := s.FetchAll(context.Background(), "DATA")
	if rows[1]["name"] != "renamed" || rows[0]["name"] != "item A" {
		t.Errorf("rows = %v", rows)
	}
	expect(t, codes(t, s, "DATA"), []string{"A", "B", "C"})
}

func testDeleteShifts(t *testing.T, s rowstore.Store) {
	seed(t, s, "DATA", "A", "B", "C", "D")
	if err := s.DeleteAt(context.Background(), "DATA", 2); err != nil {
		t.Fatalf("DeleteAt() error = %v", err)
	}
	expect(t, codes(t, s, "DATA"), []string{"A", "C", "D"})
	if err := s.DeleteAt(context.Background(), "DATA", 2); err != nil {
		t.Fatal(err)
	}
	expect(t, codes(t, s, "DATA"), []string{"A", "D"})
}

func testDescendingDeletes(t *testing.T, s rowstore.Store) {
	seed(t, s, "DATA", "A", "B", "C", "D", "E")
	for _, pos := range []int{5, 3, 1} {
		if err := s.DeleteAt(context.Background(), "DATA", pos); err != nil {
			t.Fatal(err)
		}
	}
	expect(t, codes(t, s, "DATA"), []string{"B", "D"})
}

func testOutOfRange(t *testing.T, s rowstore.Store) {
	seed(t, s, "DATA", "A")
	ctx := context.Background()
	for _, pos := range []int{0, 2} {
		if err := s.DeleteAt(ctx, "DATA", pos); !aterrors.Is(err, aterrors.RemoteRejection) {
			t.Errorf("DeleteAt(%d) = %v, want remote_rejection", pos, err)
		}
		if err := s.UpdateAt(ctx, "DATA", pos, rowstore.Fields{"code": "Z"}); !aterrors.Is(err, aterrors.RemoteRejection) {
			t.Errorf("UpdateAt(%d) = %v, want remote_rejection", pos, err)
		}
	}
	expect(t, codes(t, s, "DATA"), []string{"A"})
}

func testTablesIndependent(t *testing.T, s rowstore.Store) {
	seed(t, s, "WAIT", "W1", "W2")
	seed(t, s, "LOG", "L1")
	if err := s.DeleteAt(context.Background(), "WAIT", 1); err != nil {
		t.Fatal(err)
	}
	expect(t, codes(t, s, "WAIT"), []string{"W2"})
	expect(t, codes(t, s, "LOG"), []string{"L1"})
}
