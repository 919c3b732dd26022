// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package agg

import "sort"

// AggID identifies one named aggregation.
type AggID uint32

// Descriptor is a named aggregation: its variable id, its id, its
// aggregating function, a signature for result ordering, and an optional
// normalization divisor. It does not carry key or data record vectors.
type Descriptor struct {
	VarID     uint32
	ID        AggID
	Function  Function
	Signature int // a caller-supplied ordering key, compared after the key field
	Normal    int64
}

// Key identifies one (aggregation id, tuple) pair.
type Key struct {
	ID    AggID
	Tuple string
}

// Engine owns the per-generation counters and an in-process value store
// (a Go map keyed by Key). It has no bpfmap-backed storage.
type Engine struct {
	gen     map[AggID]uint64
	store   map[Key]*ValueRecord
	descs   map[AggID]Descriptor
}

// NewEngine returns an empty aggregation engine.
func NewEngine() *Engine {
	return &Engine{
		gen:   make(map[AggID]uint64),
		store: make(map[Key]*ValueRecord),
		descs: make(map[AggID]Descriptor),
	}
}

// Declare registers an aggregation's descriptor.
func (e *Engine) Declare(d Descriptor) { e.descs[d.ID] = d }

// Clear increments the generation counter for id. It does not walk or zero
// the underlying map: subsequent reads lazily reseed any record whose
// embedded generation predates the bump.
func (e *Engine) Clear(id AggID) { e.gen[id]++ }

// Read returns the current value for (id, tuple), reseeding it in place if
// its generation predates the aggregation's clear() counter. A read
// performed immediately after Clear with no intervening update therefore
// returns the function's identity value.
func (e *Engine) Read(id AggID, tuple string, lquantizeLevels, llquantizeSteps int) *ValueRecord {
	d := e.descs[id]
	key := Key{ID: id, Tuple: tuple}
	v, ok := e.store[key]
	if !ok {
		v = NewValueRecord(d.Function, e.gen[id], lquantizeLevels, llquantizeSteps)
		e.store[key] = v
		return v
	}
	if v.Gen < e.gen[id] {
		Reseed(v, d.Function, e.gen[id], lquantizeLevels, llquantizeSteps)
	}
	return v
}

// Update applies one scalar observation to (id, tuple).
func (e *Engine) Update(id AggID, tuple string, val int64, lquantizeLevels, llquantizeSteps int) {
	v := e.Read(id, tuple, lquantizeLevels, llquantizeSteps)
	Update(v, e.descs[id].Function, val)
}

// MergeFrom folds another engine's per-CPU snapshot into e, field-wise per
// (agg id, tuple), exactly as the consumer collapses per-CPU records
// sharing the same key.
func (e *Engine) MergeFrom(other *Engine) {
	for key, src := range other.store {
		fn := e.descs[key.ID].Function
		dst, ok := e.store[key]
		if !ok {
			cp := *src
			cp.Body = append([]uint64(nil), src.Body...)
			e.store[key] = &cp
			continue
		}
		Merge(dst, src, fn)
	}
}

// Result is one row of aggregated output, ready for sorting and display.
type Result struct {
	Key   Key
	Value *ValueRecord
}

// Snapshot returns every (key, value) pair currently stored, unordered.
func (e *Engine) Snapshot() []Result {
	out := make([]Result, 0, len(e.store))
	for k, v := range e.store {
		out = append(out, Result{Key: k, Value: v})
	}
	return out
}

// Sort orders results lexicographically by key tuple, with ties broken by
// the owning aggregation's signature.
func (e *Engine) Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Key.Tuple != b.Key.Tuple {
			return a.Key.Tuple < b.Key.Tuple
		}
		return e.descs[a.Key.ID].Signature < e.descs[b.Key.ID].Signature
	})
}

// Trunc discards all but the top n entries (n > 0) or bottom |n| entries
// (n < 0) of an already-sorted slice. n == 0 returns results unchanged.
func Trunc(results []Result, n int) []Result {
	if n == 0 || len(results) <= abs(n) {
		return results
	}
	if n > 0 {
		return results[:n]
	}
	return results[len(results)+n:]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
