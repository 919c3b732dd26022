// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package strtab

import (
	"bytes"
	"math"
	"testing"
)

func TestVarintVectors(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		want []byte
	}{
		{"zero", 0, []byte{0x00}},
		{"one-byte-max", 127, []byte{0x7f}},
		{"two-byte-max", 16511, []byte{0xbf, 0xff}},
		{"nine-byte-max", math.MaxUint64, append([]byte{0xff}, bytes.Repeat([]byte{0xff}, 8)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.v)
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("Encode(%d) = % x, want % x", tt.v, got, tt.want)
			}
		})
	}
}

func TestVarintRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 126, 127, 128, 129, 16383, 16511, 16512, 16513,
		1 << 20, 1 << 30, 1 << 40, 1 << 50, 1 << 60,
		math.MaxUint32, math.MaxUint64, math.MaxUint64 - 1,
	}
	for _, v := range values {
		enc := Encode(v)
		got, n, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%d)) error: %v", v, err)
		}
		if n != len(enc) {
			t.Fatalf("Decode consumed %d bytes, encoding was %d bytes", n, len(enc))
		}
		if got != v {
			t.Fatalf("round trip mismatch: v=%d got=%d encoded=% x", v, got, enc)
		}
	}
}

func TestVarintMinimalLength(t *testing.T) {
	// For every size-class boundary, the encoding must use the smallest
	// number of bytes capable of representing the value.
	boundaries := []struct {
		v        uint64
		wantSize int
	}{
		{0, 1}, {127, 1}, {128, 2}, {16511, 2}, {16512, 3},
	}
	for _, b := range boundaries {
		if got := len(Encode(b.v)); got != b.wantSize {
			t.Fatalf("len(Encode(%d)) = %d, want %d", b.v, got, b.wantSize)
		}
	}
}
