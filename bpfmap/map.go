// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package bpfmap plans and creates the kernel maps a tracing session needs:
// ring buffers, scratch memory, the string table, variable storage, the
// aggregation store and its generation counters, speculation slots, session
// state, CPU metadata, and the probe table. The MapType enumeration is
// grounded on the eBPF map kinds a verifier-backed kernel actually exposes.
package bpfmap

// MapType names the kernel map implementation backing a Spec.
type MapType uint32

const (
	// Hash is a general-purpose hash map, backing the gvars/tvars/dvars/
	// probes roles.
	Hash MapType = 1 + iota
	// Array is a dense array map, backing the strtab/specs/state/cpuinfo
	// roles.
	Array
	// PerfEventArray backs a per-CPU ring buffer, one fd per CPU.
	PerfEventArray
	// PerCPUHash backs per-CPU aggregation storage without cross-CPU
	// contention.
	PerCPUHash
	// PerCPUArray backs per-CPU scratch memory ("mem") and the generation
	// counter array ("agggen").
	PerCPUArray
	// LRUHash backs the associative tuples map so a full table recycles
	// its least-recently-used entries instead of only ever dropping new
	// inserts.
	LRUHash
)

// Role names one of the map roles a tracing session provisions, matching
// the roles named for the in-kernel map set.
type Role int

const (
	RoleBuffers Role = iota
	RoleMem
	RoleStrtab
	RoleGvars
	RoleTvars
	RoleDvars
	RoleTuples
	RoleAggs
	RoleAggGen
	RoleSpecs
	RoleState
	RoleCPUInfo
	RoleProbes
)

func (r Role) String() string {
	switch r {
	case RoleBuffers:
		return "buffers"
	case RoleMem:
		return "mem"
	case RoleStrtab:
		return "strtab"
	case RoleGvars:
		return "gvars"
	case RoleTvars:
		return "tvars"
	case RoleDvars:
		return "dvars"
	case RoleTuples:
		return "tuples"
	case RoleAggs:
		return "aggs"
	case RoleAggGen:
		return "agggen"
	case RoleSpecs:
		return "specs"
	case RoleState:
		return "state"
	case RoleCPUInfo:
		return "cpuinfo"
	case RoleProbes:
		return "probes"
	default:
		return "unknown"
	}
}

// Spec is the concrete shape of one map a session needs.
type Spec struct {
	Role       Role
	Type       MapType
	KeySize    uint32
	ValueSize  uint32
	MaxEntries uint32
}

// Map is a created, live kernel map handle, as returned by a Creator. This
// module contains no kernel-backed implementation, and neither dvar.Store
// nor agg.Engine is backed by a Map.
type Map interface {
	Spec() Spec
	Get(key []byte) ([]byte, bool)
	Update(key, value []byte) error
	Delete(key []byte) error
	Close() error
}
