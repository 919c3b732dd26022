// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package agg

import "math"

// Function identifies which aggregating function a ValueRecord belongs to.
type Function uint8

const (
	FuncCount Function = iota
	FuncSum
	FuncMin
	FuncMax
	FuncAvg
	FuncStddev
	FuncQuantize
	FuncLQuantize
	FuncLLQuantize
)

// QuantizeBuckets is the fixed bucket count for FuncQuantize: one per
// signed power of two.
const QuantizeBuckets = 127

// ValueRecord is the per-aggregation-id value layout shared with the
// kernel: a generation stamp, a count, and a function-specific body.
type ValueRecord struct {
	Gen   uint64
	Count int64
	Body  []uint64
}

// NewValueRecord allocates a zeroed record sized for fn, seeding any
// identity elements the function requires (min/max seed with their
// identity so the first real update always wins the comparison).
func NewValueRecord(fn Function, gen uint64, lquantizeLevels, llquantizeSteps int) *ValueRecord {
	v := &ValueRecord{Gen: gen}
	switch fn {
	case FuncCount:
		// no body; Count is the counter
	case FuncSum, FuncAvg:
		v.Body = make([]uint64, 1)
	case FuncMin:
		v.Body = []uint64{uint64(math.MaxInt64)}
	case FuncMax:
		minVal := int64(math.MinInt64)
		v.Body = []uint64{uint64(minVal)}
	case FuncStddev:
		v.Body = make([]uint64, 2) // sum, sum-of-squares (count comes from Count)
	case FuncQuantize:
		v.Body = make([]uint64, QuantizeBuckets)
	case FuncLQuantize:
		v.Body = make([]uint64, lquantizeLevels+2)
	case FuncLLQuantize:
		v.Body = make([]uint64, llquantizeSteps)
	}
	return v
}

// Reseed reinitializes v in place as if freshly created, used when a read
// observes v.Gen < the aggregation's current generation counter (the lazy
// reseed-on-read clear() contract).
func Reseed(v *ValueRecord, fn Function, gen uint64, lquantizeLevels, llquantizeSteps int) {
	fresh := NewValueRecord(fn, gen, lquantizeLevels, llquantizeSteps)
	v.Gen = fresh.Gen
	v.Count = 0
	v.Body = fresh.Body
}

// Update applies one observed value to v according to fn.
func Update(v *ValueRecord, fn Function, val int64) {
	v.Count++
	switch fn {
	case FuncCount:
	case FuncSum, FuncAvg:
		v.Body[0] += uint64(val)
	case FuncMin:
		if val < int64(v.Body[0]) {
			v.Body[0] = uint64(val)
		}
	case FuncMax:
		if val > int64(v.Body[0]) {
			v.Body[0] = uint64(val)
		}
	case FuncStddev:
		v.Body[0] += uint64(val)
		v.Body[1] += uint64(val * val)
	case FuncQuantize:
		v.Body[QBin(val)]++
	}
}

// UpdateLQuantize applies one observed value under the lquantize binning
// parameters.
func UpdateLQuantize(v *ValueRecord, val, base, step int64, levels int) {
	v.Count++
	v.Body[LQBin(val, base, step, levels)]++
}

// UpdateLLQuantize applies one observed value under the llquantize binning
// parameters.
func UpdateLLQuantize(v *ValueRecord, val int64, base int64, lowDecade, highDecade, steps int) {
	v.Count++
	bucket := LLQuantizeBins(val, base, lowDecade, highDecade, steps)
	if bucket < 0 {
		bucket = 0
	}
	if bucket >= len(v.Body) {
		bucket = len(v.Body) - 1
	}
	v.Body[bucket]++
}

// Merge combines src into dst field-wise according to fn, as the consumer
// does when collapsing a per-CPU snapshot for the same (agg id, key):
// count/sum/quantize buckets sum, min/max take the extremum, stddev sums
// both its sum and sum-of-squares fields.
func Merge(dst, src *ValueRecord, fn Function) {
	dst.Count += src.Count
	switch fn {
	case FuncCount:
	case FuncSum, FuncAvg:
		dst.Body[0] += src.Body[0]
	case FuncMin:
		if int64(src.Body[0]) < int64(dst.Body[0]) {
			dst.Body[0] = src.Body[0]
		}
	case FuncMax:
		if int64(src.Body[0]) > int64(dst.Body[0]) {
			dst.Body[0] = src.Body[0]
		}
	case FuncStddev:
		dst.Body[0] += src.Body[0]
		dst.Body[1] += src.Body[1]
	case FuncQuantize, FuncLQuantize, FuncLLQuantize:
		for i := range dst.Body {
			dst.Body[i] += src.Body[i]
		}
	}
}
