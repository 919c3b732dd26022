// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package ringbuf implements the per-CPU single-producer/single-consumer
// ring-buffer consumer: mmap-backed rings with a header page and a
// power-of-two data region, acquire/release fenced head/tail counters, a
// per-CPU linearization buffer for records that straddle the wrap
// boundary, and a poll loop over every CPU's ring fd.
package ringbuf

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"

	mmap "github.com/edsrzf/mmap-go"
)

// ptr reinterprets the first 8 bytes of b as a *uint64, used for the
// atomic head/tail/drop counters living in the mmap'd header page. The
// mapping is always page-aligned, so offsets 0/8/16 are 8-byte aligned.
func ptr(b []byte) unsafe.Pointer { return unsafe.Pointer(&b[0]) }

// headerSize is the fixed size of a ring's header page: a 64-bit head
// counter, a 64-bit tail counter, and an 8-byte drop counter, rounded up to
// a full page.
const headerSize = 4096

// Ring is one CPU's mmap-backed perf-style buffer: a header page exposing
// head/tail as atomic counters, followed by a power-of-two data region.
type Ring struct {
	cpu      int
	mem      mmap.MMap
	dataSize uint64
	lin      []byte // linearization buffer, sized to the largest record
}

// OpenRing maps region (already sized headerSize+dataSize, dataSize a power
// of two) as the ring for cpu.
func OpenRing(cpu int, region mmap.MMap, dataSize uint64, maxRecordSize int) (*Ring, error) {
	if dataSize == 0 || dataSize&(dataSize-1) != 0 {
		return nil, fmt.Errorf("ring data size %d is not a power of two", dataSize)
	}
	if len(region) < headerSize+int(dataSize) {
		return nil, fmt.Errorf("mapped region too small for header+data")
	}
	return &Ring{cpu: cpu, mem: region, dataSize: dataSize, lin: make([]byte, maxRecordSize)}, nil
}

func (r *Ring) headPtr() *uint64 { return (*uint64)(ptr(r.mem[0:8])) }
func (r *Ring) tailPtr() *uint64 { return (*uint64)(ptr(r.mem[8:16])) }
func (r *Ring) dropPtr() *uint64 { return (*uint64)(ptr(r.mem[16:24])) }

// head reads the writer's head counter with an acquire fence.
func (r *Ring) head() uint64 { return atomic.LoadUint64(r.headPtr()) }

// tail reads the reader's own tail counter.
func (r *Ring) tail() uint64 { return atomic.LoadUint64(r.tailPtr()) }

// releaseTail release-stores the new tail, publishing that the consumer
// has fully copied out everything before it.
func (r *Ring) releaseTail(newTail uint64) { atomic.StoreUint64(r.tailPtr(), newTail) }

// Drops returns the kernel-reported drop counter.
func (r *Ring) Drops() uint64 { return atomic.LoadUint64(r.dropPtr()) }

// data returns the data region, independent of the header page.
func (r *Ring) data() []byte { return r.mem[headerSize : headerSize+r.dataSize] }

// recordHeaderSize is the 4-byte self-length prefix every record in the
// data region carries ahead of its payload, so the consumer can advance
// past it without decoding the payload itself.
const recordHeaderSize = 4

// Pending reports whether the ring has at least one unread record.
func (r *Ring) Pending() bool { return r.head() > r.tail() }

// Pop copies the next full record out of the ring (via the linearization
// buffer if it wraps) and advances the tail past its padded size. It
// returns nil, false if the ring is caught up.
func (r *Ring) Pop() ([]byte, bool) {
	head := r.head()
	tail := r.tail()
	if head <= tail {
		return nil, false
	}

	data := r.data()
	mask := r.dataSize - 1
	pos := tail & mask

	length := binary.LittleEndian.Uint32(sliceAt(data, pos, mask, 4))
	total := recordHeaderSize + int(length)
	padded := align8(total)

	var record []byte
	if pos+uint64(total) <= r.dataSize {
		record = data[pos+recordHeaderSize : pos+uint64(total)]
	} else {
		full := sliceAt(data, pos, mask, total)
		if cap(r.lin) < total {
			r.lin = make([]byte, total)
		}
		copy(r.lin, full)
		record = r.lin[recordHeaderSize:total]
	}

	r.releaseTail(tail + uint64(padded))
	return record, true
}

// sliceAt copies n bytes starting at the wrapped position pos out of data,
// handling the case where the run straddles the end of the buffer.
func sliceAt(data []byte, pos, mask uint64, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = data[(pos+uint64(i))&mask]
	}
	return out
}

func align8(n int) int { return (n + 7) &^ 7 }
