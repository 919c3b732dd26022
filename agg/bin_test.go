// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package agg

import (
	"math"
	"testing"
)

func TestQBinBoundaries(t *testing.T) {
	tests := []struct {
		v    int64
		want int
	}{
		{0, 63},
		{1, 64},
		{-1, 62},
		{2, 65},
		{minInt64, 0},
		{math.MaxInt64, 126},
	}
	for _, tt := range tests {
		if got := QBin(tt.v); got != tt.want {
			t.Fatalf("QBin(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestQBinSymmetry(t *testing.T) {
	values := []int64{1, 2, 3, 100, 1 << 20, 1 << 40, 1<<62 - 1}
	for _, v := range values {
		if got, want := QBin(v)+QBin(-v), 126; got != want {
			t.Fatalf("QBin(%d)+QBin(%d) = %d, want %d", v, -v, got, want)
		}
	}
}

func TestLQBinFormula(t *testing.T) {
	// base=10, step=10, levels=5, matching the algorithm as stated:
	// result = min((v-base)/step, levels) + 1, with 0 for v < base.
	tests := []struct {
		v    int64
		want int
	}{
		{5, 0},
		{10, 1},
		{19, 1},
		{20, 2},
		{55, 5},
		{60, 6}, // (60-10)/10 = 5 = levels, so +1 lands in the over-range bucket
		{1000, 6}, // far over range, capped at levels+1
	}
	for _, tt := range tests {
		if got := LQBin(tt.v, 10, 10, 5); got != tt.want {
			t.Fatalf("LQBin(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestLQBinZeroStep(t *testing.T) {
	if got := LQBin(100, 10, 0, 5); got != 0 {
		t.Fatalf("LQBin with step=0 = %d, want 0", got)
	}
}
