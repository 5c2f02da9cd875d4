// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package coordinator

import (
	"sync"

	"github.com/google/uuid"

	aterrors "assettrack/cli/internal/errors"
)

// ProgressState is a point-in-time view of a running batch.
type ProgressState struct {
	BatchID   uuid.UUID
	Op        Op
	Table     string
	Total     int
	Done      int
	Failed    int
	Cancelled int
	// Last is the most recently finished item.
	Last Outcome
}

// Remaining returns the number of items not yet finished.
func (s ProgressState) Remaining() int {
	return s.Total - s.Done - s.Failed - s.Cancelled
}

// Finished reports whether every item has an outcome.
func (s ProgressState) Finished() bool { return s.Remaining() <= 0 }

// ProgressFunc receives the batch state after each finished item.
type ProgressFunc func(ProgressState)

// Progress tracks item outcomes of one batch and notifies a listener.
type Progress struct {
	mu       sync.Mutex
	state    ProgressState
	outcomes []Outcome
	notify   ProgressFunc
}

func newProgress(op Op, table string, total int, notify ProgressFunc) *Progress {
	p := &Progress{
		state:  ProgressState{BatchID: uuid.New(), Op: op, Table: table, Total: total},
		notify: notify,
	}
	p.emit()
	return p
}

// Record appends the outcome of one item.
func (p *Progress) Record(o Outcome) {
	p.mu.Lock()
	p.outcomes = append(p.outcomes, o)
	switch {
	case o.OK():
		p.state.Done++
	case aterrors.Is(o.Err, aterrors.Cancelled):
		p.state.Cancelled++
	default:
		p.state.Failed++
	}
	p.state.Last = o
	p.mu.Unlock()
	p.emit()
}

// State returns a copy of the current state.
func (p *Progress) State() ProgressState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Outcomes returns the recorded outcomes in order.
func (p *Progress) Outcomes() []Outcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Outcome(nil), p.outcomes...)
}

func (p *Progress) emit() {
	if p.notify != nil {
		p.notify(p.State())
	}
}
