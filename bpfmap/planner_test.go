// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package bpfmap

import (
	"errors"
	"testing"
)

type fakeMap struct {
	spec   Spec
	closed bool
}

func (m *fakeMap) Spec() Spec                        { return m.spec }
func (m *fakeMap) Get(key []byte) ([]byte, bool)     { return nil, false }
func (m *fakeMap) Update(key, value []byte) error    { return nil }
func (m *fakeMap) Delete(key []byte) error           { return nil }
func (m *fakeMap) Close() error                      { m.closed = true; return nil }

type fakeCreator struct {
	failOn Role
	made   []*fakeMap
}

func (c *fakeCreator) Create(spec Spec) (Map, error) {
	if spec.Role == c.failOn {
		return nil, errors.New("create failed")
	}
	m := &fakeMap{spec: spec}
	c.made = append(c.made, m)
	return m, nil
}

func TestPlanCoversEveryRole(t *testing.T) {
	p := NewPlanner(&fakeCreator{failOn: -1}, nil)
	specs := p.Plan(Config{NumCPU: 4, NSPEC: 2, RingSize: 4096, MaxDvars: 100, MaxAggKeys: 50, MaxProbes: 10})

	seen := make(map[Role]bool)
	for _, s := range specs {
		seen[s.Role] = true
	}
	want := []Role{RoleBuffers, RoleMem, RoleStrtab, RoleGvars, RoleTvars, RoleDvars,
		RoleTuples, RoleAggs, RoleAggGen, RoleSpecs, RoleState, RoleCPUInfo, RoleProbes}
	for _, r := range want {
		if !seen[r] {
			t.Fatalf("Plan missing role %s", r)
		}
	}
}

func TestPlanScalesBuffersByCPUCount(t *testing.T) {
	p := NewPlanner(&fakeCreator{failOn: -1}, nil)
	specs := p.Plan(Config{NumCPU: 8})
	for _, s := range specs {
		if s.Role == RoleBuffers && s.MaxEntries != 8 {
			t.Fatalf("buffers MaxEntries = %d, want 8", s.MaxEntries)
		}
	}
}

func TestCreateRollsBackOnPartialFailure(t *testing.T) {
	creator := &fakeCreator{failOn: RoleProbes}
	p := NewPlanner(creator, nil)
	specs := p.Plan(Config{NumCPU: 1, NSPEC: 1})

	_, err := p.Create(specs)
	if err == nil {
		t.Fatalf("Create succeeded despite a failing role")
	}
	for _, m := range creator.made {
		if !m.closed {
			t.Fatalf("map for role %s was not closed on rollback", m.spec.Role)
		}
	}
}
