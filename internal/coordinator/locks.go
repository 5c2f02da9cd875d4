// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package coordinator

import (
	"sort"
	"sync"
)

// TableLocks serializes mutating batches per table name.
type TableLocks struct {
	mu    sync.Mutex
	table map[string]*sync.Mutex
}

// NewTableLocks returns an empty registry.
func NewTableLocks() *TableLocks {
	return &TableLocks{table: make(map[string]*sync.Mutex)}
}

// sharedLocks is used by every coordinator that is not given its own registry,
// so two coordinators in one process never interleave batches on a table.
var sharedLocks = NewTableLocks()

func (l *TableLocks) get(name string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.table[name]
	if !ok {
		m = &sync.Mutex{}
		l.table[name] = m
	}
	return m
}

// Lock acquires the locks of all named tables in lexical order and returns a
// function releasing them. Duplicate names are locked once.
func (l *TableLocks) Lock(tables ...string) (unlock func()) {
	names := make([]string, 0, len(tables))
	seen := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		names = append(names, t)
	}
	sort.Strings(names)

	held := make([]*sync.Mutex, 0, len(names))
	for _, n := range names {
		m := l.get(n)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
