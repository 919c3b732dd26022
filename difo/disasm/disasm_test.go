// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package disasm

import (
	"strings"
	"testing"

	"github.com/saferwall/dtrace-go/difo"
)

func TestFormatKnownMnemonic(t *testing.T) {
	got := Format(difo.Insn{Op: difo.OpLoadGvar, Rd: 1, Imm: 3})
	if !strings.HasPrefix(got, "ldgv") {
		t.Fatalf("Format = %q, want it to start with ldgv", got)
	}
	if !strings.Contains(got, "r1") {
		t.Fatalf("Format = %q, want operand r1", got)
	}
}

func TestFormatBranchShowsDisplacement(t *testing.T) {
	got := Format(difo.Insn{Op: difo.OpBranch, Imm: -3})
	if !strings.Contains(got, "-3") {
		t.Fatalf("Format = %q, want displacement -3", got)
	}
}

func TestFormatUnknownOpcodeFallsBack(t *testing.T) {
	got := Format(difo.Insn{Op: difo.Opcode(200)})
	if !strings.Contains(got, "op#200") {
		t.Fatalf("Format = %q, want a numeric fallback mnemonic", got)
	}
}

func TestFormatProgramIndexesEachLine(t *testing.T) {
	prog := []difo.Insn{{Op: difo.OpNop}, {Op: difo.OpRet}}
	out := FormatProgram(prog)
	if !strings.Contains(out, "0:") || !strings.Contains(out, "1:") {
		t.Fatalf("FormatProgram = %q, want indexed lines", out)
	}
}
