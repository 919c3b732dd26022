// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package strtab implements the deduplicating string and rodata tables
// shared by every compiled Difo, plus the varint codec
// used to prefix traced strings on the wire.
package strtab

import "io"

// chunkSize is the size of one growth chunk. Offsets handed out by Insert
// remain stable across growth because chunks are appended, never moved.
const chunkSize = 4096

// Table is a deduplicating byte-string store. Offset 0 always holds a
// single NUL byte so the zero offset is a distinguished "empty" value,
// matching the convention traced strings rely on for "no data".
type Table struct {
	chunks [][]byte
	index  map[string]uint32
	size   uint32
}

// New returns an empty Table with offset 0 already reserved for NUL.
func New() *Table {
	t := &Table{index: make(map[string]uint32)}
	t.reserve(1)
	t.chunks[0][0] = 0
	t.index[string([]byte{0})] = 0
	return t
}

func (t *Table) reserve(n uint32) {
	if len(t.chunks) == 0 {
		t.chunks = append(t.chunks, make([]byte, 0, chunkSize))
	}
	last := &t.chunks[len(t.chunks)-1]
	if uint32(cap(*last)-len(*last)) < n {
		grow := chunkSize
		if int(n) > grow {
			grow = int(n)
		}
		t.chunks = append(t.chunks, make([]byte, 0, grow))
		last = &t.chunks[len(t.chunks)-1]
	}
	*last = (*last)[:len(*last)+int(n)]
	t.size += n
}

// Index performs a pure lookup, returning the offset of b and true if b is
// already present.
func (t *Table) Index(b []byte) (uint32, bool) {
	if len(b) == 0 {
		return 0, true
	}
	off, ok := t.index[string(b)]
	return off, ok
}

// Insert returns the stable offset of b, inserting it if absent. Inserting
// an already-present byte string is idempotent: it returns the prior
// offset without storing a second copy.
func (t *Table) Insert(b []byte) uint32 {
	if len(b) == 0 {
		return 0
	}
	if off, ok := t.index[string(b)]; ok {
		return off
	}
	off := t.size
	t.reserve(uint32(len(b)))
	t.copyAt(off, b)
	t.index[string(b)] = off
	return off
}

func (t *Table) copyAt(off uint32, b []byte) {
	remaining := b
	pos := uint32(0)
	for _, chunk := range t.chunks {
		chunkStart := pos
		chunkEnd := pos + uint32(len(chunk))
		pos = chunkEnd
		if off >= chunkEnd {
			continue
		}
		start := uint32(0)
		if off > chunkStart {
			start = off - chunkStart
		}
		n := copy(chunk[start:], remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return
		}
	}
}

// Len returns the total number of bytes stored, including the reserved
// NUL at offset 0.
func (t *Table) Len() uint32 { return t.size }

// Write serializes the table to sink as a contiguous byte stream,
// preserving insertion order (chunks are append-only, so concatenating
// them in order reproduces the stream exactly).
func (t *Table) Write(sink io.Writer) (int64, error) {
	var total int64
	for _, chunk := range t.chunks {
		n, err := sink.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Bytes returns a copy of the concatenated table contents.
func (t *Table) Bytes() []byte {
	out := make([]byte, 0, t.size)
	for _, chunk := range t.chunks {
		out = append(out, chunk...)
	}
	return out
}
