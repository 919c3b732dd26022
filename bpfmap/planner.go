// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bpfmap

import "github.com/saferwall/dtrace-go/dtracelog"

// Config describes the shape of a tracing session the planner sizes maps
// for: how many CPUs it spans, how many speculation slots it needs, how
// large each per-CPU ring's data region is, and an estimate of the number
// of distinct dynamic-variable and aggregation keys the workload will use.
type Config struct {
	NumCPU      int
	NSPEC       int
	RingSize    uint32
	MaxDvars    uint32
	MaxAggKeys  uint32
	MaxProbes   uint32
}

// Planner computes the concrete Spec set a Config needs and, in production,
// creates the underlying kernel maps through Creator — a seam so the
// planner is exercised and tested without a real kernel underneath it.
type Planner struct {
	creator Creator
	log     *dtracelog.Helper
}

// Creator performs the actual map creation. This module ships no
// implementation that issues map-creation syscalls; callers supply one,
// and tests supply a fake.
type Creator interface {
	Create(spec Spec) (Map, error)
}

// NewPlanner returns a Planner that creates maps through creator, logging
// through log (nil uses the package default).
func NewPlanner(creator Creator, log *dtracelog.Helper) *Planner {
	if log == nil {
		log = dtracelog.Default()
	}
	return &Planner{creator: creator, log: log}
}

// Plan computes the Spec set cfg needs. The buffers and cpuinfo roles get
// one entry per CPU (MaxEntries = NumCPU); mem is a per-CPU array with a
// single slot; specs gets NSPEC+1 entries; strtab and state have fixed
// sizes; the remaining roles are sized from cfg's estimates.
func (p *Planner) Plan(cfg Config) []Spec {
	specs := []Spec{
		{Role: RoleBuffers, Type: PerfEventArray, KeySize: 4, ValueSize: 4, MaxEntries: uint32(cfg.NumCPU)},
		{Role: RoleMem, Type: PerCPUArray, KeySize: 4, ValueSize: cfg.RingSize, MaxEntries: 1},
		{Role: RoleStrtab, Type: Array, KeySize: 4, ValueSize: 1, MaxEntries: 1},
		{Role: RoleGvars, Type: Hash, KeySize: 4, ValueSize: 8, MaxEntries: cfg.MaxDvars},
		{Role: RoleTvars, Type: Hash, KeySize: 8, ValueSize: 8, MaxEntries: cfg.MaxDvars},
		{Role: RoleDvars, Type: Hash, KeySize: 8, ValueSize: 8, MaxEntries: cfg.MaxDvars},
		{Role: RoleTuples, Type: LRUHash, KeySize: 8, ValueSize: 8, MaxEntries: cfg.MaxDvars},
		{Role: RoleAggs, Type: PerCPUHash, KeySize: 16, ValueSize: 256, MaxEntries: cfg.MaxAggKeys},
		{Role: RoleAggGen, Type: PerCPUArray, KeySize: 4, ValueSize: 8, MaxEntries: cfg.MaxAggKeys},
		{Role: RoleSpecs, Type: Array, KeySize: 4, ValueSize: 16, MaxEntries: uint32(cfg.NSPEC) + 1},
		{Role: RoleState, Type: Array, KeySize: 4, ValueSize: 8, MaxEntries: 16},
		{Role: RoleCPUInfo, Type: Array, KeySize: 4, ValueSize: 8, MaxEntries: uint32(cfg.NumCPU)},
		{Role: RoleProbes, Type: Hash, KeySize: 4, ValueSize: 32, MaxEntries: cfg.MaxProbes},
	}
	return specs
}

// Create materializes every Spec in specs, rolling back (closing) any maps
// already created if one fails partway through, mirroring the linker's
// partial-attach rollback discipline.
func (p *Planner) Create(specs []Spec) (map[Role]Map, error) {
	created := make(map[Role]Map, len(specs))
	for _, spec := range specs {
		m, err := p.creator.Create(spec)
		if err != nil {
			p.log.Errorf("map create failed for role %s: %v", spec.Role, err)
			for _, done := range created {
				done.Close()
			}
			return nil, err
		}
		created[spec.Role] = m
	}
	return created, nil
}
