// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package difo

// ExternKind tags what an ExternRef resolves against.
type ExternKind uint8

const (
	// ExternNone means the node carries no external reference.
	ExternNone ExternKind = iota
	// ExternSymbol references a symbol table id resolved by the linker.
	ExternSymbol
	// ExternMap references a kernel map id assigned by the map planner.
	ExternMap
	// ExternReloc marks the node as a deferred relocation target applied
	// at attach time (the linker's "user-relative" class).
	ExternReloc
)

// ExternRef is the tagged union an IR node carries in place of a symbol
// table id, map id, or relocation target when the value is not yet known
// at emission time.
type ExternRef struct {
	Kind ExternKind
	ID   uint32
}

// LabelID names a branch target before it has been resolved to an
// instruction index.
type LabelID uint32

// Node is one pre-assembly instruction: an Insn template, an optional
// symbolic label, and an optional ExternRef. The assembler converts a
// sequence of Nodes to Insns in order, resolving each label to a signed
// displacement from the branch instruction that references it.
type Node struct {
	Insn   Insn
	Label  LabelID // 0 means unlabeled; label ids are allocated from 1
	Target LabelID // 0 means "not a branch", otherwise the label this
	// node's displacement must resolve against
	Extern ExternRef
}
