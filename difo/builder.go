// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package difo

import (
	"math"

	"github.com/saferwall/dtrace-go/dtraceerr"
	"github.com/saferwall/dtrace-go/strtab"
)

// Handle is a reference to a previously appended node, usable as a branch
// target.
type Handle int

// Builder converts a tree of expression nodes produced by the parser
// (out of scope here) into a linear IR sequence and then into a frozen
// Difo. Labels are resolved to signed 16-bit displacements in a single
// pass because every instruction and branch is emitted in order and every
// branch's target label exists by the time Finish is called: backward
// references are resolved immediately, forward references are deferred to
// a patch list drained when their label is bound.
type Builder struct {
	nodes      []Node
	nextLabel  LabelID
	boundAt    map[LabelID]int // label -> node index, once Bind is called
	pending    LabelID         // label to attach to the next appended node
	patch      map[LabelID][]int // unresolved forward references, label -> node indices awaiting it

	strs   *strtab.Table
	rodata *strtab.Rodata
	vars   *VarTable
	record []RecDesc
}

// NewBuilder returns an empty Builder with fresh string, rodata, and
// variable tables.
func NewBuilder() *Builder {
	return &Builder{
		boundAt: make(map[LabelID]int),
		patch:   make(map[LabelID][]int),
		strs:    strtab.New(),
		rodata:  strtab.NewRodata(),
		vars:    NewVarTable(),
	}
}

// Strings returns the builder's string table, for the caller to Insert
// literal strings into while constructing operands.
func (b *Builder) Strings() *strtab.Table { return b.strs }

// Rodata returns the builder's constant pool.
func (b *Builder) Rodata() *strtab.Rodata { return b.rodata }

// Vars returns the builder's variable table.
func (b *Builder) Vars() *VarTable { return b.vars }

// AddRecordField appends one field to the record descriptor under
// construction and returns its assigned byte offset.
func (b *Builder) AddRecordField(f RecDesc) uint32 {
	off := uint32(4) // the EPID prefix
	if len(b.record) > 0 {
		last := b.record[len(b.record)-1]
		off = last.Offset + last.Size
	}
	off = AlignedOffset(off, f.Align)
	f.Offset = off
	b.record = append(b.record, f)
	return off
}

// Label allocates a fresh label id. It does not attach to any node until
// Bind is called.
func (b *Builder) Label() LabelID {
	b.nextLabel++
	return b.nextLabel
}

// Bind attaches label to the next node appended by Append. A label may be
// bound to at most one node.
func (b *Builder) Bind(label LabelID) {
	b.pending = label
}

// Append emits one node, resolving extern to the node's ExternRef, and
// returns a handle usable as a branch target via Target.
func (b *Builder) Append(insn Insn, extern ExternRef) Handle {
	idx := len(b.nodes)
	node := Node{Insn: insn, Extern: extern}
	if b.pending != 0 {
		node.Label = b.pending
		b.boundAt[b.pending] = idx
		// A backward branch referencing this label can now be resolved
		// immediately; forward references remain queued in patch until
		// this point, which is exactly now.
		for _, refIdx := range b.patch[b.pending] {
			b.resolveBranch(refIdx, idx)
		}
		delete(b.patch, b.pending)
		b.pending = 0
	}
	b.nodes = append(b.nodes, node)
	return Handle(idx)
}

// Branch appends a branch instruction targeting target. If target is
// already bound the displacement is computed immediately (a backward
// reference); otherwise the reference is queued and patched when target
// is eventually bound.
func (b *Builder) Branch(op Opcode, target LabelID) Handle {
	idx := len(b.nodes)
	node := Node{Insn: Insn{Op: op}, Target: target}
	if b.pending != 0 {
		node.Label = b.pending
		b.boundAt[b.pending] = idx
		for _, refIdx := range b.patch[b.pending] {
			b.resolveBranch(refIdx, idx)
		}
		delete(b.patch, b.pending)
		b.pending = 0
	}
	b.nodes = append(b.nodes, node)

	if targetIdx, ok := b.boundAt[target]; ok {
		b.resolveBranch(idx, targetIdx)
	} else {
		b.patch[target] = append(b.patch[target], idx)
	}
	return Handle(idx)
}

// AppendImm64 emits an OpLoadImm64 carrying the low 32 bits of v in the
// first slot's Imm field, followed by the mandatory Wide sentinel slot whose
// opcode and register fields are zero and whose Imm carries the high 32
// bits (the double-wide variant from §4.1).
func (b *Builder) AppendImm64(rd Reg, v int64) Handle {
	h := b.Append(Insn{Op: OpLoadImm64, Rd: rd, Imm: int32(uint32(v))}, ExternRef{})
	b.Append(Insn{Wide: true, Imm: int32(uint32(v >> 32))}, ExternRef{})
	return h
}

func (b *Builder) resolveBranch(branchIdx, targetIdx int) {
	disp := targetIdx - branchIdx
	b.nodes[branchIdx].Insn.Imm = int32(disp)
}

// Finish checks the displacements already resolved at bind time and
// freezes the string, rodata, and variable tables into a Difo. It fails if
// any label was allocated but never bound, or if a displacement does not
// fit in a signed 16-bit field (the source clause should be split).
func (b *Builder) Finish() (*Difo, error) {
	for l := LabelID(1); l <= b.nextLabel; l++ {
		if _, ok := b.boundAt[l]; !ok {
			return nil, dtraceerr.Wrap(dtraceerr.Compile, "", dtraceerr.ErrUnboundLabel)
		}
	}

	insns := make([]Insn, len(b.nodes))
	var program, kernel, user []Relocation
	for i, n := range b.nodes {
		if IsBranch(n.Insn.Op) || n.Target != 0 {
			if n.Insn.Imm > math.MaxInt16 || n.Insn.Imm < math.MinInt16 {
				return nil, dtraceerr.Wrap(dtraceerr.Compile, "", dtraceerr.ErrDisplacementOverflow)
			}
		}
		insns[i] = n.Insn
		switch n.Extern.Kind {
		case ExternSymbol:
			program = append(program, Relocation{Class: RelocProgram, InsnIdx: i, Target: n.Extern})
		case ExternMap:
			kernel = append(kernel, Relocation{Class: RelocKernel, InsnIdx: i, Target: n.Extern})
		case ExternReloc:
			user = append(user, Relocation{Class: RelocUser, InsnIdx: i, Target: n.Extern})
		}
	}

	return &Difo{
		Insns:   insns,
		Strs:    b.strs,
		Rodata:  b.rodata,
		Vars:    b.vars,
		Program: program,
		Kernel:  kernel,
		User:    user,
		Record:  b.record,
	}, nil
}
