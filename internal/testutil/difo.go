// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package testutil holds fixtures shared across package test suites so
// each one doesn't reinvent the same minimal compiled object.
package testutil

import "github.com/saferwall/dtrace-go/difo"

// SingleInsnDifo returns a one-instruction Difo, the smallest object the
// linker and consumer tests need to exercise their plumbing without
// depending on the difo package's own builder tests.
func SingleInsnDifo(op difo.Opcode) *difo.Difo {
	return &difo.Difo{Insns: []difo.Insn{{Op: op}}}
}
