// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ringbuf

import (
	"encoding/binary"
	"testing"

	mmap "github.com/edsrzf/mmap-go"
)

func newTestRing(t *testing.T, dataSize uint64) *Ring {
	t.Helper()
	region := mmap.MMap(make([]byte, headerSize+dataSize))
	r, err := OpenRing(0, region, dataSize, 256)
	if err != nil {
		t.Fatalf("OpenRing: %v", err)
	}
	return r
}

// writeRecord writes one record (length-prefixed payload) at the ring's
// current head and advances head, simulating what the kernel side does.
func writeRecord(r *Ring, payload []byte) {
	data := r.data()
	mask := r.dataSize - 1
	head := r.head()
	pos := head & mask

	total := recordHeaderSize + len(payload)
	buf := make([]byte, total)
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[recordHeaderSize:], payload)

	for i, b := range buf {
		data[(pos+uint64(i))&mask] = b
	}
	padded := align8(total)
	*r.headPtr() = head + uint64(padded)
}

func TestPopReturnsRecordsInOrder(t *testing.T) {
	r := newTestRing(t, 64)
	writeRecord(r, []byte("one"))
	writeRecord(r, []byte("two"))

	got1, ok := r.Pop()
	if !ok || string(got1) != "one" {
		t.Fatalf("first Pop = %q, %v", got1, ok)
	}
	got2, ok := r.Pop()
	if !ok || string(got2) != "two" {
		t.Fatalf("second Pop = %q, %v", got2, ok)
	}
	if _, ok := r.Pop(); ok {
		t.Fatalf("Pop on a caught-up ring returned data")
	}
}

func TestPopHandlesWrap(t *testing.T) {
	r := newTestRing(t, 32)
	writeRecord(r, []byte("abcdefghijklmnop")) // 16 bytes, forces later records near the end
	if _, ok := r.Pop(); !ok {
		t.Fatalf("Pop of first record failed")
	}

	// Reset tail/head to force a small remaining window, then write a
	// record that straddles the wrap boundary.
	*r.headPtr() = r.dataSize - 4
	r.releaseTail(r.dataSize - 4)
	writeRecord(r, []byte("wraps-around"))

	got, ok := r.Pop()
	if !ok {
		t.Fatalf("Pop of wrapping record failed")
	}
	if string(got) != "wraps-around" {
		t.Fatalf("wrapped record = %q, want %q", got, "wraps-around")
	}
}

func TestPendingReflectsHeadTailGap(t *testing.T) {
	r := newTestRing(t, 64)
	if r.Pending() {
		t.Fatalf("empty ring reports pending data")
	}
	writeRecord(r, []byte("x"))
	if !r.Pending() {
		t.Fatalf("ring with a written record reports no pending data")
	}
}

func TestDropsSurfaced(t *testing.T) {
	r := newTestRing(t, 64)
	*r.dropPtr() = 3
	if got := r.Drops(); got != 3 {
		t.Fatalf("Drops() = %d, want 3", got)
	}
}
