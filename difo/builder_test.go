// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package difo

import (
	"errors"
	"testing"

	"github.com/saferwall/dtrace-go/dtraceerr"
)

func TestBuilderBackwardBranch(t *testing.T) {
	b := NewBuilder()
	loop := b.Label()
	b.Bind(loop)
	b.Append(Insn{Op: OpNop}, ExternRef{})
	back := b.Branch(OpBranch, loop)

	difo, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if got, want := difo.Insns[back].Disp(), int16(-1); got != want {
		t.Fatalf("backward branch displacement = %d, want %d", got, want)
	}
}

func TestBuilderForwardBranch(t *testing.T) {
	b := NewBuilder()
	end := b.Label()
	fwd := b.Branch(OpBranchIfZero, end)
	b.Append(Insn{Op: OpNop}, ExternRef{})
	b.Bind(end)
	target := b.Append(Insn{Op: OpRet}, ExternRef{})

	difo, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	want := int16(int(target) - int(fwd))
	if got := difo.Insns[fwd].Disp(); got != want {
		t.Fatalf("forward branch displacement = %d, want %d", got, want)
	}
}

func TestBuilderUnboundLabelIsError(t *testing.T) {
	b := NewBuilder()
	label := b.Label()
	b.Branch(OpBranch, label)

	_, err := b.Finish()
	if !errors.Is(err, dtraceerr.ErrUnboundLabel) {
		t.Fatalf("Finish with unbound label = %v, want ErrUnboundLabel", err)
	}
}

func TestBuilderExternRefClassifiesRelocations(t *testing.T) {
	b := NewBuilder()
	b.Append(Insn{Op: OpCall}, ExternRef{Kind: ExternSymbol, ID: 1})
	b.Append(Insn{Op: OpLoadGvar}, ExternRef{Kind: ExternMap, ID: 2})
	b.Append(Insn{Op: OpLoadDvar}, ExternRef{Kind: ExternReloc, ID: 3})

	difo, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(difo.Program) != 1 || difo.Program[0].Target.ID != 1 {
		t.Fatalf("program relocations = %+v", difo.Program)
	}
	if len(difo.Kernel) != 1 || difo.Kernel[0].Target.ID != 2 {
		t.Fatalf("kernel relocations = %+v", difo.Kernel)
	}
	if len(difo.User) != 1 || difo.User[0].Target.ID != 3 {
		t.Fatalf("user relocations = %+v", difo.User)
	}
}

func TestBuilderAppendImm64(t *testing.T) {
	b := NewBuilder()
	var v int64 = -1
	b.AppendImm64(1, v)
	difo, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if len(difo.Insns) != 2 {
		t.Fatalf("AppendImm64 emitted %d instructions, want 2", len(difo.Insns))
	}
	if !difo.Insns[1].Wide {
		t.Fatalf("second slot of a double-wide load must be marked Wide")
	}
	lo := uint32(difo.Insns[0].Imm)
	hi := uint32(difo.Insns[1].Imm)
	got := int64(uint64(hi)<<32 | uint64(lo))
	if got != v {
		t.Fatalf("double-wide immediate round trip = %d, want %d", got, v)
	}
}
