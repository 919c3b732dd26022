// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package difo

// RelocClass partitions relocations the way the object linker must resolve
// them: against the object's own instruction stream, against the kernel
// map-id table, or deferred until the object is attached to a live probe.
// This mirrors the way the teacher's reloc.go separates base-relocation
// entry types by what they are applied against, generalized from a single
// PE image to the three distinct resolution targets a Difo can reference.
type RelocClass uint8

const (
	// RelocProgram fixes up a reference against this object's own
	// instruction indices (e.g. a call to a precompiled support routine
	// spliced in by the linker).
	RelocProgram RelocClass = iota
	// RelocKernel fixes up a reference against a kernel map id assigned
	// by the map planner (bpfmap.Planner).
	RelocKernel
	// RelocUser is resolved only once the object is attached to a probe
	// (e.g. a built-in variable whose value depends on attach-time
	// context). It is the linker's deferred-fixup class.
	RelocUser
)

// Relocation is one fixup: its class, the instruction index it applies to,
// and what it resolves against.
type Relocation struct {
	Class   RelocClass
	InsnIdx int
	Target  ExternRef
}

// RecDescKind enumerates the action kinds a trace record field can encode.
type RecDescKind uint8

const (
	RecDescScalar RecDescKind = iota
	RecDescString
	RecDescStack
	RecDescSymbol
	RecDescAggregation
)

// RecDesc describes one field of a data record: its action kind, byte
// size, byte offset within the record, alignment requirement, and an
// optional format reference (e.g. a printf-style format string offset in
// the owning Difo's string table).
type RecDesc struct {
	Kind      RecDescKind
	Size      uint32
	Offset    uint32
	Align     uint32
	FormatRef uint32 // string table offset, 0 if unused
}

// AlignedOffset returns the next offset at or after off satisfying align,
// the rule RecDesc.Offset assignment and the ring buffer's record padding
// both rely on (records are aligned to 8 bytes per the ring buffer
// contract; individual fields may require a smaller alignment).
func AlignedOffset(off, align uint32) uint32 {
	if align <= 1 {
		return off
	}
	return (off + align - 1) &^ (align - 1)
}
