// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package disasm formats decoded in-kernel VM instructions as
// human-readable text, the way golang.org/x/arch/x86/x86asm.Inst.String
// renders a decoded x86 instruction: one mnemonic plus its operands, with
// branch displacements shown relative to the current instruction index.
package disasm

import (
	"fmt"
	"strings"

	"github.com/saferwall/dtrace-go/difo"
)

var mnemonics = map[difo.Opcode]string{
	difo.OpNop:             "nop",
	difo.OpRet:             "ret",
	difo.OpBranch:          "br",
	difo.OpBranchIfZero:    "bz",
	difo.OpBranchIfNotZero: "bnz",
	difo.OpCall:            "call",
	difo.OpLoadImm:         "ldi",
	difo.OpLoadImm64:       "ldi64",
	difo.OpSetX:            "setx",
	difo.OpCmpLt:           "cmplt",
	difo.OpCmpLe:           "cmple",
	difo.OpCmpGt:           "cmpgt",
	difo.OpCmpGe:           "cmpge",
	difo.OpCmpEq:           "cmpeq",
	difo.OpCmpNe:           "cmpne",
	difo.OpLoadGvar:        "ldgv",
	difo.OpStoreGvar:       "stgv",
	difo.OpLoadTvar:        "ldtv",
	difo.OpStoreTvar:       "sttv",
	difo.OpLoadDvar:        "lddv",
	difo.OpStoreDvar:       "stdv",
	difo.OpLoadAgg:         "ldagg",
	difo.OpStoreAgg:        "stagg",
}

// Format renders one instruction as text: mnemonic, destination and
// source registers, and either a signed displacement (for branches) or an
// immediate value.
func Format(ins difo.Insn) string {
	mnemonic, ok := mnemonics[ins.Op]
	if !ok {
		mnemonic = fmt.Sprintf("op#%d", ins.Op)
	}

	var operands []string
	if ins.Rd != 0 {
		operands = append(operands, fmt.Sprintf("r%d", ins.Rd))
	}
	if ins.R1 != 0 {
		operands = append(operands, fmt.Sprintf("r%d", ins.R1))
	}
	if ins.R2 != 0 {
		operands = append(operands, fmt.Sprintf("r%d", ins.R2))
	}

	if difo.IsBranch(ins.Op) {
		operands = append(operands, fmt.Sprintf("%+d", ins.Disp()))
	} else if ins.Imm != 0 {
		operands = append(operands, fmt.Sprintf("#%d", ins.Imm))
	}

	if len(operands) == 0 {
		return mnemonic
	}
	return mnemonic + " " + strings.Join(operands, ", ")
}

// FormatProgram renders every instruction in insns, one per line, prefixed
// with its index.
func FormatProgram(insns []difo.Insn) string {
	var b strings.Builder
	for i, ins := range insns {
		fmt.Fprintf(&b, "%4d: %s\n", i, Format(ins))
	}
	return b.String()
}
