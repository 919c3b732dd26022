// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package strtab

import "fmt"

// Varint implements the self-delimiting big-endian encoding used to prefix
// traced string lengths on the wire. The count of leading one-bits in the
// first byte is the number of additional bytes; nine size classes cover
// the full unsigned-64 range.
var (
	// thresholds[i] is the smallest value requiring i+1 total bytes.
	thresholds = [9]uint64{
		0,
		1 << 7,
		1<<7 + 1<<14,
		1<<7 + 1<<14 + 1<<21,
		1<<7 + 1<<14 + 1<<21 + 1<<28,
		1<<7 + 1<<14 + 1<<21 + 1<<28 + 1<<35,
		1<<7 + 1<<14 + 1<<21 + 1<<28 + 1<<35 + 1<<42,
		1<<7 + 1<<14 + 1<<21 + 1<<28 + 1<<35 + 1<<42 + 1<<49,
		1<<7 + 1<<14 + 1<<21 + 1<<28 + 1<<35 + 1<<42 + 1<<49 + 1<<56,
	}
)

// sizeClass returns the 1-based size class (1..9) v falls into.
func sizeClass(v uint64) int {
	class := 1
	for i := 1; i < len(thresholds); i++ {
		if v >= thresholds[i] {
			class = i + 1
			continue
		}
		break
	}
	return class
}

// prefixMask[n] is the leading-byte bit pattern for an n-byte encoding:
// n-1 leading one bits followed by a zero, except the 9-byte class whose
// leading byte is all ones (0xff) with no value bits of its own.
func prefixMask(n int) byte {
	if n == 9 {
		return 0xff
	}
	if n == 1 {
		return 0x00
	}
	return byte(0xff << uint(8-(n-1)))
}

// Encode returns the minimal varint encoding of v.
func Encode(v uint64) []byte {
	n := sizeClass(v)
	rel := v - thresholds[n-1]
	out := make([]byte, n)
	switch n {
	case 1:
		out[0] = byte(rel)
		return out
	case 9:
		// The top class stores v directly with no bias subtraction: it
		// already spans the full unsigned-64 range, so there is nothing
		// to offset against.
		out[0] = 0xff
		for i := 0; i < 8; i++ {
			out[8-i] = byte(v >> uint(8*i))
		}
		return out
	default:
		valueBits := uint(8 - n) // bits of value carried in the first byte
		headerVal := rel >> uint(8*(n-1))
		out[0] = prefixMask(n) | byte(headerVal&((1<<valueBits)-1))
		for i := 1; i < n; i++ {
			shift := uint(8 * (n - 1 - i))
			out[i] = byte(rel >> shift)
		}
		return out
	}
}

// Decode reads one varint from the front of b, returning the value and the
// number of bytes consumed.
func Decode(b []byte) (uint64, int, error) {
	if len(b) == 0 {
		return 0, 0, fmt.Errorf("strtab: empty varint input")
	}
	first := b[0]
	n := 1
	for n <= 8 && first&(0x80>>uint(n-1)) != 0 {
		n++
	}
	if len(b) < n {
		return 0, 0, fmt.Errorf("strtab: truncated varint, need %d bytes, have %d", n, len(b))
	}
	if n == 1 {
		return uint64(first), 1, nil
	}
	if n == 9 {
		var v uint64
		for i := 0; i < 8; i++ {
			v = v<<8 | uint64(b[1+i])
		}
		return v, 9, nil
	}
	valueBits := uint(8 - n)
	headerVal := uint64(first) & ((1 << valueBits) - 1)
	rel := headerVal << uint(8*(n-1))
	for i := 1; i < n; i++ {
		rel |= uint64(b[i]) << uint(8*(n-1-i))
	}
	return thresholds[n-1] + rel, n, nil
}
