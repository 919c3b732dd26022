// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package regalloc implements the kernel VM's register allocator: a fixed
// bank of general-purpose registers, tracked with two bitmaps (active and
// spilled), with caller-driven spill/reload. The allocator is oblivious to
// which values live in which registers; liveness is the caller's
// responsibility.
package regalloc

import "github.com/saferwall/dtrace-go/dtraceerr"

// NumRegs is the canonical register count exposed by the in-kernel VM.
const NumRegs = 10

// ArgRegs are the ABI-mandated argument registers, r1..r5.
var ArgRegs = [5]int{1, 2, 3, 4, 5}

// SpillSink is implemented by the compiler back-end to materialize a
// register's value to (SpillStore) or restore it from (SpillLoad) its
// statically assigned stack slot.
type SpillSink interface {
	SpillStore(reg int)
	SpillLoad(reg int)
}

// Allocator tracks which of NumRegs registers are active (holding a live
// value) and which are spilled (written to their reserved stack slot and
// available for reuse by a different value).
type Allocator struct {
	active  [NumRegs]bool
	spilled [NumRegs]bool
	sink    SpillSink
}

// New returns an allocator with every register free, backed by sink for
// spill/reload callbacks.
func New(sink SpillSink) *Allocator {
	return &Allocator{sink: sink}
}

// Alloc returns any inactive register. If none is inactive, it spills the
// highest-numbered active register and returns it. It fails only if every
// register is already both active and spilled (nothing left to evict).
func (a *Allocator) Alloc() (int, error) {
	for r := 0; r < NumRegs; r++ {
		if !a.active[r] {
			a.active[r] = true
			a.spilled[r] = false
			return r, nil
		}
	}
	for r := NumRegs - 1; r >= 0; r-- {
		if !a.spilled[r] {
			a.sink.SpillStore(r)
			a.spilled[r] = true
			return r, nil
		}
	}
	return -1, dtraceerr.Wrap(dtraceerr.Compile, "register allocation", dtraceerr.ErrRegisterExhausted)
}

// Xalloc requests a specific register, spilling its current holder if
// needed. It fails if reg is already spilled (its value is parked and
// cannot be evicted twice without an intervening Free/reload).
func (a *Allocator) Xalloc(reg int) error {
	if a.spilled[reg] {
		return dtraceerr.Wrap(dtraceerr.Compile, "register allocation", dtraceerr.ErrRegisterAlreadySpilled)
	}
	if a.active[reg] {
		a.sink.SpillStore(reg)
		a.spilled[reg] = true
	}
	a.active[reg] = true
	return nil
}

// XallocArgs reserves the ABI argument registers as a group. On partial
// failure it unwinds any it already took, so the caller never observes a
// half-reserved argument window.
func (a *Allocator) XallocArgs() error {
	taken := make([]int, 0, len(ArgRegs))
	for _, r := range ArgRegs {
		if err := a.Xalloc(r); err != nil {
			for _, t := range taken {
				a.Free(t)
			}
			return err
		}
		taken = append(taken, r)
	}
	return nil
}

// Free releases reg. If it was spilled, its value is restored via
// SpillLoad first; otherwise it is simply marked inactive.
func (a *Allocator) Free(reg int) {
	if a.spilled[reg] {
		a.sink.SpillLoad(reg)
		a.spilled[reg] = false
	}
	a.active[reg] = false
}

// Active reports whether reg currently holds a live value (spilled or
// not).
func (a *Allocator) Active(reg int) bool { return a.active[reg] }

// Spilled reports whether reg's value currently lives in its stack slot.
func (a *Allocator) Spilled(reg int) bool { return a.spilled[reg] }
