// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package difo

import "testing"

func TestInsnEncodeDecodeRoundTrip(t *testing.T) {
	tests := []Insn{
		{Op: OpNop},
		{Op: OpBranch, Imm: -1},
		{Op: OpLoadImm, Rd: 3, Imm: 1234},
		{Op: OpCmpLt, Rd: 1, R1: 2, R2: 3},
	}
	for _, in := range tests {
		buf := make([]byte, InsnSize)
		in.Encode(buf)
		out := DecodeInsn(buf)
		if out.Op != in.Op || out.Rd != in.Rd || out.R1 != in.R1 || out.R2 != in.R2 || out.Imm != in.Imm {
			t.Fatalf("round trip mismatch: in=%+v out=%+v", in, out)
		}
	}
}

func TestInsnDispTruncation(t *testing.T) {
	in := Insn{Op: OpBranch, Imm: -5}
	if got := in.Disp(); got != -5 {
		t.Fatalf("Disp() = %d, want -5", got)
	}
}
