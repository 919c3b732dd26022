// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package probe

import (
	"strings"
	"testing"
)

func TestDescriptorValidateRejectsOverlongFields(t *testing.T) {
	d := Descriptor{Provider: strings.Repeat("a", MaxProviderLen+1)}
	if err := d.Validate(); err == nil {
		t.Fatalf("Validate accepted an overlong provider")
	}
}

func TestDescriptorValidateAcceptsMaxLengths(t *testing.T) {
	d := Descriptor{
		Provider: strings.Repeat("a", MaxProviderLen),
		Module:   strings.Repeat("b", MaxModuleLen),
		Function: strings.Repeat("c", MaxFunctionLen),
		Name:     strings.Repeat("d", MaxNameLen),
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate rejected max-length fields: %v", err)
	}
}

func TestAttachDetachIdempotent(t *testing.T) {
	reg := NewRegistry()
	id, epid, err := reg.Attach(Descriptor{Provider: "p", Name: "n"}, nil)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if epid == 0 {
		t.Fatalf("Attach returned zero EPID")
	}
	if err := reg.Detach(id); err != nil {
		t.Fatalf("first Detach: %v", err)
	}
	if err := reg.Detach(id); err != nil {
		t.Fatalf("second Detach on already-detached id returned an error: %v", err)
	}
}

func TestByEPIDResolvesActions(t *testing.T) {
	reg := NewRegistry()
	id, epid, _ := reg.Attach(Descriptor{Provider: "p", Name: "n"}, nil)
	ecb, ok := reg.ByEPID(epid)
	if !ok {
		t.Fatalf("ByEPID(%d) not found", epid)
	}
	if _, stillThere := reg.Lookup(id); !stillThere {
		t.Fatalf("Lookup(%d) missing after successful Attach", id)
	}
	_ = ecb
}

func TestRollbackAttachDetachesAll(t *testing.T) {
	reg := NewRegistry()
	id1, _, _ := reg.Attach(Descriptor{Provider: "p", Name: "a"}, nil)
	id2, _, _ := reg.Attach(Descriptor{Provider: "p", Name: "b"}, nil)

	if err := reg.RollbackAttach([]uint32{id1, id2}); err != nil {
		t.Fatalf("RollbackAttach: %v", err)
	}
	if _, ok := reg.Lookup(id1); ok {
		t.Fatalf("id1 still present after rollback")
	}
	if _, ok := reg.Lookup(id2); ok {
		t.Fatalf("id2 still present after rollback")
	}
}

func TestArgVarRange(t *testing.T) {
	if _, ok := ArgVar(10); ok {
		t.Fatalf("ArgVar(10) should be out of range")
	}
	got, ok := ArgVar(3)
	if !ok || got != VarArg3 {
		t.Fatalf("ArgVar(3) = %d, %v; want VarArg3", got, ok)
	}
}

func TestIsBuiltinBoundary(t *testing.T) {
	if !IsBuiltin(VarCurcpu) {
		t.Fatalf("VarCurcpu misclassified as user-defined")
	}
	if IsBuiltin(UserVarBase) {
		t.Fatalf("UserVarBase misclassified as builtin")
	}
}

func TestDecodeErrorRecordRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	putLE32(buf[8:], 7)
	putLE32(buf[12:], 3)
	putLE32(buf[16:], 128)
	putLE32(buf[20:], uint32(FaultDivideByZero))
	putLE64(buf[24:], 0xdead)

	rec, err := DecodeErrorRecord(buf)
	if err != nil {
		t.Fatalf("DecodeErrorRecord: %v", err)
	}
	if rec.ProbeID != 7 || rec.StatementID != 3 || rec.Offset != 128 || rec.Kind != FaultDivideByZero || rec.Value != 0xdead {
		t.Fatalf("decoded record = %+v", rec)
	}
}

func putLE32(b []byte, v uint32) {
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> uint(8*i))
	}
}

func putLE64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> uint(8*i))
	}
}
