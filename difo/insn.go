// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package difo implements the DIF/IR model: the intermediate
// representation produced while compiling a D clause, and the fixed-width
// instruction encoding it is assembled into before being linked and loaded
// into the kernel VM.
package difo

import "encoding/binary"

// Opcode is one in-kernel VM operation. The numeric values are an internal
// convention of this library; they are not required to match any upstream
// bytecode numbering.
type Opcode uint8

// Reg identifies one of the VM's general-purpose registers.
type Reg uint8

// InsnSize is the fixed width, in bytes, of one instruction. A 64-bit
// immediate occupies two adjacent Insn slots (InsnSize*2 bytes total): the
// first slot carries the opcode and the low 32 bits in Imm, the second is a
// Wide sentinel slot carrying the high 32 bits in Imm.
const InsnSize = 8

// Insn is one opcode plus up to three register operands and a 32-bit
// payload used either as a branch displacement (low 16 bits, sign
// extended) or as an immediate, depending on Op. Every branch target is an
// instruction index inside its owning Difo; there are no cross-object
// branches.
type Insn struct {
	Op   Opcode
	Rd   Reg
	R1   Reg
	R2   Reg
	Imm  int32
	Wide bool // this slot is the high-half sentinel of a double-wide load
}

// Disp returns Imm truncated to the signed 16-bit displacement branch
// opcodes use.
func (insn Insn) Disp() int16 { return int16(insn.Imm) }

// Encode writes the 8-byte wire form of insn into buf[:8].
func (insn Insn) Encode(buf []byte) {
	_ = buf[:InsnSize]
	buf[0] = byte(insn.Op)
	buf[1] = byte(insn.Rd)
	buf[2] = byte(insn.R1)
	buf[3] = byte(insn.R2)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(insn.Imm))
}

// DecodeInsn reads one 8-byte instruction from buf[:8].
func DecodeInsn(buf []byte) Insn {
	_ = buf[:InsnSize]
	return Insn{
		Op:  Opcode(buf[0]),
		Rd:  Reg(buf[1]),
		R1:  Reg(buf[2]),
		R2:  Reg(buf[3]),
		Imm: int32(binary.LittleEndian.Uint32(buf[4:8])),
	}
}

// Well-known opcodes used by the assembler's own bookkeeping (branch
// displacement patching and double-wide immediate loads). The D compiler
// (out of scope here) emits the full opcode table; these are the ones the
// assembler must recognize to do its job.
const (
	OpNop Opcode = iota
	OpRet
	OpBranch
	OpBranchIfZero
	OpBranchIfNotZero
	OpCall
	OpLoadImm
	OpLoadImm64 // followed by one Wide sentinel slot carrying the high half
	OpSetX      // materializes a bound value immediately before a compare,
	// per the "inline-assembly bounding hints" design note: bounds are
	// always an explicit compare-branch pair, never inferred.
	OpCmpLt
	OpCmpLe
	OpCmpGt
	OpCmpGe
	OpCmpEq
	OpCmpNe
	OpLoadGvar
	OpStoreGvar
	OpLoadTvar
	OpStoreTvar
	OpLoadDvar
	OpStoreDvar
	OpLoadAgg
	OpStoreAgg
)

// IsBranch reports whether op interprets Imm as a displacement rather than
// an immediate value.
func IsBranch(op Opcode) bool {
	switch op {
	case OpBranch, OpBranchIfZero, OpBranchIfNotZero:
		return true
	default:
		return false
	}
}
