// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package strtab

// Rodata stores arbitrary fixed-size constants keyed by their raw bytes,
// the same deduplicating-insert contract as Table but without the
// NUL-at-offset-0 convention (rodata entries are not C strings).
type Rodata struct {
	t *Table
}

// NewRodata returns an empty constant pool.
func NewRodata() *Rodata {
	return &Rodata{t: &Table{index: make(map[string]uint32)}}
}

// Index performs a pure lookup.
func (r *Rodata) Index(b []byte) (uint32, bool) { return r.t.Index(b) }

// Insert returns the stable offset of b, inserting it if absent.
func (r *Rodata) Insert(b []byte) uint32 {
	if off, ok := r.t.index[string(b)]; ok {
		return off
	}
	off := r.t.size
	r.t.reserve(uint32(len(b)))
	r.t.copyAt(off, b)
	r.t.index[string(b)] = off
	return off
}

// Len returns the total number of bytes stored.
func (r *Rodata) Len() uint32 { return r.t.size }

// Bytes returns a copy of the concatenated pool contents.
func (r *Rodata) Bytes() []byte { return r.t.Bytes() }
