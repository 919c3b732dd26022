// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package speculation implements the speculative-tracing buffer state
// machine: reserve, commit, and discard transitions over a fixed pool of
// slots, grounded on the same create-if-absent/counter-reset discipline the
// dvar package uses for its at-most-one-create contract.
package speculation

import "github.com/saferwall/dtrace-go/dtraceerr"

// slotState is a speculation slot's lifecycle stage.
type slotState int

const (
	slotFree slotState = iota
	slotActive
	slotDraining
)

type slot struct {
	state    slotState
	written  int
	drained  int
}

// Table is a fixed pool of NSPEC speculation slots, ids 1..NSPEC.
type Table struct {
	slots []slot
}

// NewTable allocates a table with n slots.
func NewTable(n int) *Table {
	return &Table{slots: make([]slot, n+1)} // index 0 unused, ids are 1-based
}

// NSPEC is the number of usable slots.
func (t *Table) NSPEC() int { return len(t.slots) - 1 }

// Speculate reserves a free slot, returning its id, or 0 if every slot is
// active or draining.
func (t *Table) Speculate() int {
	for id := 1; id < len(t.slots); id++ {
		if t.slots[id].state == slotFree {
			t.slots[id].state = slotActive
			t.slots[id].written = 0
			return id
		}
	}
	return 0
}

// Write records one emission into an active slot. It is a programming
// error to call Write on a slot that is not active; id validity should be
// checked by the caller via Valid.
func (t *Table) Write(id int) error {
	if !t.Valid(id) {
		return dtraceerr.Wrap(dtraceerr.Fault, "speculation write", dtraceerr.ErrSpeculationExhausted)
	}
	s := &t.slots[id]
	if s.state != slotActive {
		return dtraceerr.Wrap(dtraceerr.Fault, "speculation write on non-active slot", dtraceerr.ErrSpeculationExhausted)
	}
	s.written++
	return nil
}

// Commit marks id drainable; the drain path copies its records into the
// live ring. Once draining, further Speculate reservations of id are
// impossible until the slot is fully drained and reset.
func (t *Table) Commit(id int) error {
	return t.markDraining(id)
}

// Discard marks id drainable but its records are dropped by the drain
// path rather than copied.
func (t *Table) Discard(id int) error {
	return t.markDraining(id)
}

func (t *Table) markDraining(id int) error {
	if !t.Valid(id) {
		return dtraceerr.Wrap(dtraceerr.Fault, "speculation commit/discard", dtraceerr.ErrSpeculationExhausted)
	}
	s := &t.slots[id]
	if s.state != slotActive {
		return dtraceerr.Wrap(dtraceerr.Fault, "commit/discard on non-active slot", dtraceerr.ErrSpeculationExhausted)
	}
	s.state = slotDraining
	return nil
}

// Drain copies (or drops, for a discarded slot) count records out of a
// draining slot, decrementing its written counter. Once written reaches
// zero the slot becomes free and reusable.
func (t *Table) Drain(id int, count int) {
	if !t.Valid(id) {
		return
	}
	s := &t.slots[id]
	if s.state != slotDraining {
		return
	}
	s.written -= count
	if s.written <= 0 {
		s.written = 0
		s.state = slotFree
	}
}

// Valid reports whether id names a slot in the table.
func (t *Table) Valid(id int) bool {
	return id >= 1 && id < len(t.slots)
}

// Draining reports whether id's slot has had Commit or Discard called and
// has not yet fully drained back to free.
func (t *Table) Draining(id int) bool {
	return t.Valid(id) && t.slots[id].state == slotDraining
}

// Free reports whether id's slot is available for a new Speculate call.
func (t *Table) Free(id int) bool {
	return t.Valid(id) && t.slots[id].state == slotFree
}
