// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package linker resolves a compiled program's relocations against the
// runtime's symbol spaces and splices in shared precompiled support
// routines, the way the teacher's base-relocation fixup application
// (reloc.go) walks an ImageBaseRelocation block and its COFF symbol
// resolution (symbol.go) walks a symbol table: program-relative entries
// resolve against the object's own instruction indices exactly like an
// IMAGE_REL_BASED_HIGHLOW fixup resolves against a section's virtual
// address, and kernel-relative entries resolve the way a COFF relocation
// resolves a symbol table entry.
package linker

import (
	"errors"
	"fmt"

	"github.com/saferwall/dtrace-go/bpfmap"
	"github.com/saferwall/dtrace-go/difo"
	"github.com/saferwall/dtrace-go/dtraceerr"
)

// ErrUnresolvedSymbol is returned when a kernel-relative relocation names a
// symbol the resolver does not know. User-relative relocations never
// produce it: they are always deferred.
var ErrUnresolvedSymbol = errors.New("unresolved symbol")

// SymbolResolver maps an ExternRef to the concrete address or map id the
// runtime has assigned it. Kernel-relative externs resolve against
// bpfmap.Role ids; user-relative externs are left as a DeferredFixup for
// the caller to complete once the target process has been identified.
type SymbolResolver interface {
	ResolveKernel(ref difo.ExternRef) (mapID uint32, ok bool)
	ResolveUser(ref difo.ExternRef) (deferred bool)
}

// DeferredFixup is a user-relative relocation left unresolved at link time,
// to be applied when the runtime finally knows the target process.
type DeferredFixup struct {
	InsnIdx int
	Ref     difo.ExternRef
}

// LoadableProgram is a Difo whose program- and kernel-relative relocations
// have been resolved, ready for probe.Registry.Attach. Any user-relative
// relocations remain as Deferred, applied at attach time against the
// traced process.
type LoadableProgram struct {
	Difo     *difo.Difo
	Deferred []DeferredFixup
}

// Linker resolves relocations and splices precompiled support routines
// into per-clause programs.
type Linker struct {
	prelude *difo.Difo // instructions appended to every linked clause
}

// New returns a Linker whose splice prelude is prelude (nil for none).
func New(prelude *difo.Difo) *Linker {
	return &Linker{prelude: prelude}
}

// Link resolves every relocation on a frozen program against resolver,
// returning a LoadableProgram. Program-relative relocations are checked
// against the object's own instruction count (the analogue of checking a
// base relocation VA against the image's bounds); kernel-relative
// relocations are resolved to a map id; user-relative relocations are
// collected as deferred fixups.
func (l *Linker) Link(program *difo.Difo, resolver SymbolResolver) (*LoadableProgram, error) {
	out := &LoadableProgram{Difo: program}

	for _, reloc := range program.Program {
		if reloc.InsnIdx < 0 || reloc.InsnIdx >= len(program.Insns) {
			return nil, dtraceerr.Wrap(dtraceerr.Load, "program-relative relocation", fmt.Errorf("instruction index %d outside %d-instruction program", reloc.InsnIdx, len(program.Insns)))
		}
	}

	for _, reloc := range program.Kernel {
		mapID, ok := resolver.ResolveKernel(reloc.Target)
		if !ok {
			return nil, dtraceerr.Wrap(dtraceerr.Load, fmt.Sprintf("kernel-relative relocation at insn %d", reloc.InsnIdx), ErrUnresolvedSymbol)
		}
		program.Insns[reloc.InsnIdx].Imm = int32(mapID)
	}

	for _, reloc := range program.User {
		resolver.ResolveUser(reloc.Target)
		out.Deferred = append(out.Deferred, DeferredFixup{InsnIdx: reloc.InsnIdx, Ref: reloc.Target})
	}

	if l.prelude != nil {
		spliced, err := splice(program, l.prelude)
		if err != nil {
			return nil, err
		}
		out.Difo = spliced
	}

	return out, nil
}

// splice returns a copy of program whose instruction stream is program's
// own followed by a copy of prelude's, so the prelude's first instruction
// lands at index len(program.Insns). Only instructions are merged:
// prelude's tables and relocations are not carried over.
func splice(program, prelude *difo.Difo) (*difo.Difo, error) {
	merged := *program
	merged.Insns = append(append([]difo.Insn{}, program.Insns...), prelude.Insns...)
	return &merged, nil
}

// PlannerResolver resolves kernel-relative externs against a bpfmap.Role
// table built by the map planner, the concrete SymbolResolver production
// code uses.
type PlannerResolver struct {
	Roles map[string]bpfmap.Role
	Maps  map[bpfmap.Role]uint32 // role -> created map id
}

func (r *PlannerResolver) ResolveKernel(ref difo.ExternRef) (uint32, bool) {
	role, ok := r.Roles[refKey(ref)]
	if !ok {
		return 0, false
	}
	id, ok := r.Maps[role]
	return id, ok
}

func (r *PlannerResolver) ResolveUser(ref difo.ExternRef) bool {
	return true
}

func refKey(ref difo.ExternRef) string {
	return fmt.Sprintf("%d:%d", ref.Kind, ref.ID)
}
