// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package difo

// VarScope classifies where a Variable's storage lives.
type VarScope uint8

const (
	ScopeGlobal VarScope = iota
	ScopeThreadLocal
	ScopeAssociative
	ScopeLocalScratch
	ScopeBuiltin
)

// VarKind is the static type kind carried by a Variable.
type VarKind uint8

const (
	KindScalar VarKind = iota
	KindString
	KindPointer
	KindStruct
)

// VarType is a variable's static type: kind, size, and flags (e.g.
// whether it is signed, whether it is a string-backed scalar).
type VarType struct {
	Kind  VarKind
	Size  uint32
	Flags uint32
}

// Variable is identified by a 32-bit id and a scope, and carries a static
// type plus the instruction-index lifetime window the register allocator
// uses to decide when a value can be discarded.
type Variable struct {
	ID        uint32
	Scope     VarScope
	Type      VarType
	InsnFrom  int
	InsnTo    int
}

// VarTable is a Difo's per-object variable table, keyed by variable id.
type VarTable struct {
	vars map[uint32]*Variable
}

// NewVarTable returns an empty variable table.
func NewVarTable() *VarTable {
	return &VarTable{vars: make(map[uint32]*Variable)}
}

// Declare registers v, overwriting any prior declaration with the same id.
func (t *VarTable) Declare(v Variable) {
	cp := v
	t.vars[v.ID] = &cp
}

// Lookup returns the Variable for id, or nil if undeclared.
func (t *VarTable) Lookup(id uint32) *Variable {
	return t.vars[id]
}

// All returns every declared variable, in no particular order.
func (t *VarTable) All() []*Variable {
	out := make([]*Variable, 0, len(t.vars))
	for _, v := range t.vars {
		out = append(out, v)
	}
	return out
}

// Len reports the number of declared variables.
func (t *VarTable) Len() int { return len(t.vars) }
