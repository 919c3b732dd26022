// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package probe

// Built-in variable ids occupy a fixed namespace below UserVarBase.
// User-defined variables are assigned ids at and above UserVarBase.
const (
	VarCurthread uint32 = iota
	VarTimestamp
	VarEPID
	VarPRID
	VarArg0
	VarArg1
	VarArg2
	VarArg3
	VarArg4
	VarArg5
	VarArg6
	VarArg7
	VarArg8
	VarArg9
	VarStackdepth
	VarPid
	VarTid
	VarUid
	VarGid
	VarCurcpu

	// UserVarBase is the first id available to a user-defined variable.
	UserVarBase
)

// IsBuiltin reports whether id names a built-in variable.
func IsBuiltin(id uint32) bool {
	return id < UserVarBase
}

// ArgVar returns the built-in id for argN, N in 0..9.
func ArgVar(n int) (uint32, bool) {
	if n < 0 || n > 9 {
		return 0, false
	}
	return VarArg0 + uint32(n), true
}
