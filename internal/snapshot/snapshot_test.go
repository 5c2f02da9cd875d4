// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package snapshot

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"assettrack/cli/internal/rowstore"
)

type stubFetcher struct {
	rows []rowstore.Fields
	err  error
}

func (f *stubFetcher) FetchAll(ctx context.Context, table string) ([]rowstore.Fields, error) {
	return f.rows, f.err
}

func inventory() []rowstore.Fields {
	return []rowstore.Fields{
		{"code": "B-10", "name": "Desk", "category": "เฟอร์นิเจอร์", "qty": "10"},
		{"code": "A-2", "name": "Fan", "category": "พัดลม", "qty": "9"},
		{"code": "C-1", "name": "Projector", "category": "สื่อการสอน", "qty": "100"},
		{"code": "A-1", "name": "desk lamp", "category": "เครื่องใช้ไฟฟ้า", "qty": "x"},
	}
}

func TestRefreshAssignsPositionsAndGenerations(t *testing.T) {
	f := &stubFetcher{rows: inventory()}
	c := NewCache("DATA", f)

	if c.Current() != nil || c.Generation() != 0 {
		t.Fatal("cache should start empty")
	}

	s1, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if s1.Generation != 1 || s1.Len() != 4 {
		t.Fatalf("unexpected first snapshot gen=%d len=%d", s1.Generation, s1.Len())
	}
	if r, _ := s1.At(3); r.Fields["code"] != "C-1" {
		t.Errorf("position 3 = %v", r.Fields)
	}

	f.rows = f.rows[1:]
	s2, _ := c.Refresh(context.Background())
	if s2.Generation != 2 {
		t.Errorf("generation = %d, want 2", s2.Generation)
	}
	if r, _ := s2.At(1); r.Fields["code"] != "A-2" {
		t.Errorf("positions must be reassigned on fetch, got %v", r.Fields)
	}
	if s1.Len() != 4 {
		t.Error("earlier snapshot must not change")
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	f := &stubFetcher{rows: inventory()}
	c := NewCache("DATA", f)
	first, _ := c.Refresh(context.Background())

	f.err = errors.New("offline")
	if _, err := c.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if c.Current() != first || c.Generation() != 1 {
		t.Error("failed refresh must not advance the cache")
	}
}

func TestFingerprintTracksContentNotGeneration(t *testing.T) {
	f := &stubFetcher{rows: inventory()}
	c := NewCache("DATA", f)
	a, _ := c.Refresh(context.Background())
	b, _ := c.Refresh(context.Background())
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("unchanged table should keep its fingerprint")
	}

	f.rows = append(f.rows[1:], f.rows[0])
	d, _ := c.Refresh(context.Background())
	if d.Fingerprint() == a.Fingerprint() {
		t.Error("reordered table should change fingerprint")
	}
}

func snap(t *testing.T) *Snapshot {
	t.Helper()
	s, err := NewCache("DATA", &stubFetcher{rows: inventory()}).Refresh(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestViewSearchIsCaseInsensitive(t *testing.T) {
	p := View(snap(t), Query{Search: "DESK", SearchFields: []string{"code", "name"}})
	if !reflect.DeepEqual(p.Positions(), []int{1, 4}) {
		t.Errorf("positions = %v, want [1 4]", p.Positions())
	}
}

func TestViewSearchLimitedToFields(t *testing.T) {
	p := View(snap(t), Query{Search: "พัดลม", SearchFields: []string{"code", "name"}})
	if p.Matched != 0 {
		t.Errorf("category should not be searched, matched %d", p.Matched)
	}
}

func TestViewSort(t *testing.T) {
	tests := []struct {
		name  string
		field string
		desc  bool
		want  []int
	}{
		{name: "default position order", want: []int{1, 2, 3, 4}},
		{name: "position desc", field: SortByPosition, desc: true, want: []int{4, 3, 2, 1}},
		{name: "lexicographic", field: "code", want: []int{4, 2, 1, 3}},
		{name: "lexicographic desc", field: "code", desc: true, want: []int{3, 1, 2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := View(snap(t), Query{SortField: tt.field, Desc: tt.desc})
			if !reflect.DeepEqual(p.Positions(), tt.want) {
				t.Errorf("positions = %v, want %v", p.Positions(), tt.want)
			}
		})
	}
}

func TestCompareValuesNumericFirst(t *testing.T) {
	if compareValues("9", "10") >= 0 {
		t.Error("9 should sort before 10 numerically")
	}
	if compareValues("100", "x") >= 0 {
		t.Error("mixed values fall back to lexicographic order")
	}
	if compareValues("2.50", "2.5") != 0 {
		t.Error("numerically equal values compare equal")
	}
}

func TestViewPaging(t *testing.T) {
	s := snap(t)

	p := View(s, Query{PageSize: 3, Page: 2})
	if p.Pages != 2 || p.Page != 2 || !reflect.DeepEqual(p.Positions(), []int{4}) {
		t.Errorf("page 2 = %+v", p)
	}

	p = View(s, Query{PageSize: 3, Page: 9})
	if p.Page != 2 {
		t.Errorf("out of range page should clamp, got %d", p.Page)
	}

	p = View(s, Query{PageSize: 3, Search: "nothing"})
	if p.Pages != 1 || len(p.Rows) != 0 {
		t.Errorf("empty result = %+v", p)
	}
}

func TestViewFilters(t *testing.T) {
	p := View(snap(t), Query{Filters: map[string]string{"category": "พัดลม"}})
	if !reflect.DeepEqual(p.Positions(), []int{2}) {
		t.Errorf("positions = %v", p.Positions())
	}
}

func TestViewDoesNotMutateSnapshot(t *testing.T) {
	s := snap(t)
	p := View(s, Query{SortField: "code", Desc: true})
	p.Rows[0].Fields["code"] = "changed"

	if r, _ := s.At(3); r.Fields["code"] != "C-1" {
		t.Error("view rows must be copies")
	}
	if r, _ := s.At(1); r.Position != 1 {
		t.Error("positions must be unchanged by sorting")
	}
}
