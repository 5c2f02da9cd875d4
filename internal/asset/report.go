// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package asset

import (
	"strings"

	"assettrack/cli/internal/rowstore"
)

// History returns the log rows recorded for code, oldest first.
func History(logRows []rowstore.Fields, code string) []rowstore.Fields {
	want := strings.TrimSpace(code)
	var out []rowstore.Fields
	for _, r := range logRows {
		if strings.TrimSpace(r["code"]) == want {
			out = append(out, r)
		}
	}
	return out
}

// StatusCount is the number of inventory rows carrying one status.
type StatusCount struct {
	Status string
	Count  int
}

// Summary is the dashboard view of the inventory.
type Summary struct {
	// Total counts inventory rows that have a code.
	Total int
	// Pending counts rows awaiting verification.
	Pending int
	// ByStatus follows StatusOptions order.
	ByStatus []StatusCount
	// Other counts coded rows matching none of the known statuses.
	Other int
}

// Summarize computes the dashboard counts.
func Summarize(inventory, pending []rowstore.Fields) Summary {
	s := Summary{Pending: len(pending)}
	counts := make([]int, len(StatusOptions))
	for _, r := range inventory {
		if IsBlank(r["code"]) {
			continue
		}
		s.Total++
		matched := false
		for i, opt := range StatusOptions {
			if strings.Contains(r["status"], opt) {
				counts[i]++
				matched = true
				break
			}
		}
		if !matched {
			s.Other++
		}
	}
	for i, opt := range StatusOptions {
		s.ByStatus = append(s.ByStatus, StatusCount{Status: opt, Count: counts[i]})
	}
	return s
}
