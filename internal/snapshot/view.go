// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package snapshot

import (
	"sort"
	"strconv"
	"strings"
)

// SortByPosition orders rows by their snapshot position.
const SortByPosition = "position"

// Query describes a projection of a snapshot.
type Query struct {
	// Search is matched case-insensitively as a substring of SearchFields.
	Search       string
	SearchFields []string
	// Filters require exact (trimmed) equality per field.
	Filters map[string]string
	// SortField is a field name or SortByPosition; empty means position.
	SortField string
	Desc      bool
	// Page is 1-based. PageSize <= 0 disables paging.
	Page     int
	PageSize int
}

// Page is the visible slice of a projection.
type Page struct {
	Generation uint64
	Rows       []Row
	// Matched is the number of rows passing search and filters.
	Matched int
	Page    int
	Pages   int
}

// Positions returns the positions of the visible rows in display order.
func (p Page) Positions() []int {
	out := make([]int, len(p.Rows))
	for i, r := range p.Rows {
		out[i] = r.Position
	}
	return out
}

// View computes q over s without touching the snapshot or its positions.
func View(s *Snapshot, q Query) Page {
	rows := filterRows(s.Rows(), q)
	sortRows(rows, q.SortField, q.Desc)

	p := Page{Generation: s.Generation, Matched: len(rows), Page: 1, Pages: 1}
	if q.PageSize <= 0 {
		p.Rows = rows
		return p
	}
	p.Pages = (len(rows) + q.PageSize - 1) / q.PageSize
	if p.Pages == 0 {
		p.Pages = 1
	}
	p.Page = q.Page
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > p.Pages {
		p.Page = p.Pages
	}
	start := (p.Page - 1) * q.PageSize
	end := start + q.PageSize
	if end > len(rows) {
		end = len(rows)
	}
	p.Rows = rows[start:end]
	return p
}

func filterRows(rows []Row, q Query) []Row {
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := rows[:0]
	for _, r := range rows {
		if !matchesFilters(r, q.Filters) {
			continue
		}
		if needle != "" && !matchesSearch(r, needle, q.SearchFields) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesFilters(r Row, filters map[string]string) bool {
	for field, want := range filters {
		if strings.TrimSpace(r.Fields[field]) != strings.TrimSpace(want) {
			return false
		}
	}
	return true
}

func matchesSearch(r Row, needle string, fields []string) bool {
	if len(fields) == 0 {
		fields = r.Fields.Keys()
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(r.Fields[f]), needle) {
			return true
		}
	}
	return false
}

func sortRows(rows []Row, field string, desc bool) {
	if field == "" || field == SortByPosition {
		sort.SliceStable(rows, func(i, j int) bool {
			if desc {
				return rows[i].Position > rows[j].Position
			}
			return rows[i].Position < rows[j].Position
		})
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compareValues(rows[i].Fields[field], rows[j].Fields[field])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compareValues compares numerically when both sides parse as numbers and
// lexicographically otherwise.
func compareValues(a, b string) int {
	na, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	nb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
