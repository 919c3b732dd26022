// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package difo

import (
	"io"

	"github.com/saferwall/dtrace-go/strtab"
)

// Difo is one compiled D expression or clause: its instruction vector, its
// string table, its variable table, its relocations (separated into the
// three classes the linker resolves differently), the record descriptor
// the object emits, and a reference count. Once an object is installed on
// a probe its instruction bytes never change; retargeting means producing
// a new object.
type Difo struct {
	Insns  []Insn
	Strs   *strtab.Table
	Rodata *strtab.Rodata
	Vars   *VarTable

	Program []Relocation
	Kernel  []Relocation
	User    []Relocation

	Record []RecDesc

	refcount int32
}

// Retain increments the object's reference count.
func (d *Difo) Retain() { d.refcount++ }

// Release decrements the object's reference count and reports whether it
// reached zero (the caller may free the object's backing storage).
func (d *Difo) Release() bool {
	d.refcount--
	return d.refcount <= 0
}

// RecordSize returns the byte length of the trace record this object
// emits, including the 4-byte EPID prefix every emitted record carries on
// the wire (§6.3).
func (d *Difo) RecordSize() uint32 {
	size := uint32(4)
	for _, f := range d.Record {
		end := f.Offset + f.Size
		if end > size {
			size = end
		}
	}
	return AlignedOffset(size, 8)
}

// Encode serializes the frozen instruction stream to sink, InsnSize bytes
// per instruction, in order.
func (d *Difo) Encode(sink io.Writer) error {
	buf := make([]byte, InsnSize)
	for _, insn := range d.Insns {
		insn.Encode(buf)
		if _, err := sink.Write(buf); err != nil {
			return err
		}
	}
	return nil
}

// DecodeInsns reads a flat instruction stream back into an Insn slice.
func DecodeInsns(b []byte) []Insn {
	n := len(b) / InsnSize
	out := make([]Insn, n)
	for i := 0; i < n; i++ {
		out[i] = DecodeInsn(b[i*InsnSize : (i+1)*InsnSize])
	}
	return out
}
