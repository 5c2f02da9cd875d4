// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	aterrors "assettrack/cli/internal/errors"
	"assettrack/cli/internal/rowstore"
)

// parsePositions parses row positions, accepting ranges like 3-6, and
// returns them sorted without duplicates. Positions above rows, the length
// of the loaded table, are refused before any range is expanded.
func parsePositions(args []string, rows int) ([]int, error) {
	seen := map[int]bool{}
	var out []int
	add := func(p int) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			lo, hi, isRange := strings.Cut(part, "-")
			from, err := position(lo)
			if err != nil {
				return nil, err
			}
			to := from
			if isRange {
				if to, err = position(hi); err != nil {
					return nil, err
				}
				if to < from {
					return nil, aterrors.New(aterrors.Validation, fmt.Sprintf("range %q runs backwards", part))
				}
			}
			if to > rows {
				return nil, aterrors.New(aterrors.StalePosition, fmt.Sprintf("row %d does not exist (table has %d rows)", to, rows))
			}
			for p := from; p <= to; p++ {
				add(p)
			}
		}
	}
	if len(out) == 0 {
		return nil, aterrors.New(aterrors.Validation, "no row positions given")
	}
	sort.Ints(out)
	return out, nil
}

func position(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || p < 1 {
		return 0, aterrors.New(aterrors.Validation, fmt.Sprintf("%q is not a row position", s))
	}
	return p, nil
}

// assignment is one POS:field=value edit.
type assignment struct {
	position int
	field    string
	value    string
}

func parseAssignment(s string) (assignment, error) {
	pos, rest, ok := strings.Cut(s, ":")
	if !ok {
		return assignment{}, aterrors.New(aterrors.Validation, fmt.Sprintf("%q must look like POS:field=value", s))
	}
	p, err := position(pos)
	if err != nil {
		return assignment{}, err
	}
	field, value, ok := strings.Cut(rest, "=")
	if !ok || strings.TrimSpace(field) == "" {
		return assignment{}, aterrors.New(aterrors.Validation, fmt.Sprintf("%q must look like POS:field=value", s))
	}
	return assignment{position: p, field: strings.TrimSpace(field), value: value}, nil
}

// parseFields parses "field=value,field=value". Values may not contain commas.
func parseFields(s string) (rowstore.Fields, error) {
	out := rowstore.Fields{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, aterrors.New(aterrors.Validation, fmt.Sprintf("%q must look like field=value", part))
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil, aterrors.New(aterrors.Validation, "no fields given")
	}
	return out, nil
}
