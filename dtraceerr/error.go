// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package dtraceerr classifies failures raised anywhere in the compilation
// and runtime pipeline into the four kinds described by the error handling
// design: compile-time, load-time, runtime in-kernel faults, and
// consumer-side conditions. It plays the role the teacher's package-level
// sentinel errors (ErrInvalidBaseRelocVA, ErrInvalidBasicRelocSizeOfBloc,
// ...) play in reloc.go, generalized with a Kind tag so callers can branch
// on category without string matching.
package dtraceerr

import (
	"errors"
	"fmt"
)

// Kind classifies an Error into one of the four categories from the error
// handling design.
type Kind int

const (
	// Compile covers malformed IR, unresolved labels, symbol overflow,
	// displacement overflow, and type mismatches surfaced from the
	// typecheck boundary.
	Compile Kind = iota
	// Load covers kernel verifier rejection, map-creation failure, and
	// insufficient privileges. Load errors are non-recoverable: the caller
	// must roll back any ECBs already installed.
	Load
	// Fault covers runtime in-kernel faults reported as error records.
	// The tracing session continues unless a destructive action was denied.
	Fault
	// Consumer covers short reads and nonzero drop counters observed by
	// the poll loop. The consumer surfaces counts and continues.
	Consumer
)

func (k Kind) String() string {
	switch k {
	case Compile:
		return "compile"
	case Load:
		return "load"
	case Fault:
		return "fault"
	case Consumer:
		return "consumer"
	default:
		return "unknown"
	}
}

// Error carries a Kind, an optional source position or probe id for
// context, and the wrapped cause. Unknown kernel error codes are never
// discarded: they are always preserved verbatim inside Cause.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Wrap attaches a Kind and context to cause. Wrap(nil, ...) returns nil so
// callers can write `return dtraceerr.Wrap(Fault, "probe 3", err)` unguarded.
func Wrap(kind Kind, context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Context: context, Cause: cause}
}

// Is reports whether err is a *Error of the given kind, unwrapping through
// any wrapping layers in between.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

var (
	// ErrDisplacementOverflow is returned by the assembler when a branch
	// target's displacement does not fit in a signed 16-bit field.
	ErrDisplacementOverflow = errors.New("branch displacement exceeds ±32767 instructions")

	// ErrUnboundLabel is returned by Builder.Finish when a label was
	// allocated but never bound to an instruction.
	ErrUnboundLabel = errors.New("label never bound to an instruction")

	// ErrRegisterExhausted is returned by the allocator when every
	// register is both active and spilled.
	ErrRegisterExhausted = errors.New("no register available to allocate or spill")

	// ErrRegisterAlreadySpilled is returned by Xalloc when the requested
	// register is already spilled.
	ErrRegisterAlreadySpilled = errors.New("requested register is already spilled")

	// ErrSpeculationExhausted is returned, wrapped as a Fault, by the
	// speculation table's Write, Commit and Discard for an out-of-range id
	// or a slot that is not active. Speculate itself reports that no slot
	// is free by returning 0.
	ErrSpeculationExhausted = errors.New("no free speculation slot")

	// ErrMapFull is returned when an associative or dynamic-variable map
	// has no room for a new create-if-absent entry.
	ErrMapFull = errors.New("map is full")
)
