// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package agg implements the aggregation engine: quantize/lquantize/
// llquantize binning, per-CPU merging, generation-based clearing, and
// stable ordering for display.
package agg

import "math/bits"

// QBin returns the quantize bucket index for v: 63 for a value equal to
// zero, 0 for the signed 64-bit minimum, otherwise the position of the
// most significant set bit in |v|, sign-inverted for negative v, shifted
// into 0..126. The function is monotonic and symmetric around zero:
// QBin(v) + QBin(-v) == 126 for every v != 0, math.MinInt64.
//
// Per the design note on negative zero, any value whose representation
// equals zero is treated as the positive-zero bucket (63), matching the
// source's behavior: there is no distinguished "negative zero" bucket.
func QBin(v int64) int {
	if v == 0 {
		return 63
	}
	if v == minInt64 {
		return 0
	}
	mag := v
	neg := false
	if v < 0 {
		neg = true
		mag = -v
	}
	msb := 63 - bits.LeadingZeros64(uint64(mag))
	if neg {
		return 62 - msb
	}
	return 64 + msb
}

const minInt64 = -1 << 63

// LQBin returns the lquantize bucket index for v given a base, a step
// size, and a level count: 0 if v is below base or step is zero,
// otherwise min((v-base)/step, levels) + 1, so 1..levels are the in-range
// buckets and levels+1 is the over-range bucket.
func LQBin(v, base, step int64, levels int) int {
	if v < base || step == 0 {
		return 0
	}
	bucket := (v - base) / step
	if bucket > int64(levels) {
		bucket = int64(levels)
	}
	return int(bucket) + 1
}

// LLQuantizeBins computes the log-linear bucket index for v given a log
// base, the decade range [lowDecade, highDecade], and steps-per-decade.
// Values below base^lowDecade fall in bucket 0 (under-range); values at or
// above base^highDecade fall in the last bucket (over-range); everything
// else is binned by decade, then linearly within the decade.
func LLQuantizeBins(v int64, base int64, lowDecade, highDecade, steps int) int {
	if v < pow(base, lowDecade) {
		return 0
	}
	decade := lowDecade
	floor := pow(base, decade)
	next := pow(base, decade+1)
	bucket := 1
	for decade < highDecade {
		if v < next {
			break
		}
		bucket += steps
		decade++
		floor = next
		next = pow(base, decade+1)
	}
	if decade >= highDecade {
		return bucket + steps
	}
	width := next - floor
	step := width / int64(steps)
	if step == 0 {
		step = 1
	}
	offset := (v - floor) / step
	if offset >= int64(steps) {
		offset = int64(steps) - 1
	}
	return bucket + int(offset)
}

func pow(base int64, exp int) int64 {
	r := int64(1)
	for i := 0; i < exp; i++ {
		r *= base
	}
	return r
}
