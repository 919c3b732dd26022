// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package probe

import "fmt"

// FaultKind enumerates the fault conditions a kernel program can report
// via an error record.
type FaultKind uint8

const (
	FaultIllegalOp FaultKind = iota
	FaultBadAddress
	FaultDivideByZero
	FaultNoScratch
	FaultIllegalDeref
	FaultTupleKeyMismatch
	FaultSpeculationBusy
	FaultDrop
)

func (k FaultKind) String() string {
	switch k {
	case FaultIllegalOp:
		return "illegal-op"
	case FaultBadAddress:
		return "bad-address"
	case FaultDivideByZero:
		return "divide-by-zero"
	case FaultNoScratch:
		return "no-scratch"
	case FaultIllegalDeref:
		return "illegal-deref"
	case FaultTupleKeyMismatch:
		return "tuple-key-mismatch"
	case FaultSpeculationBusy:
		return "speculation-busy"
	case FaultDrop:
		return "drop"
	default:
		return "unknown-fault"
	}
}

// ErrorEPID is the reserved EPID a kernel program emits error records
// under, distinct from any user-assigned EPID namespace.
const ErrorEPID = 0

// ErrorRecord is the decoded six-argument payload of an error record:
// a reserved always-zero field, the probe id, the statement id, the
// program offset at which the fault occurred, its kind, and a
// fault-specific value (the faulting address, the divisor, and so on).
type ErrorRecord struct {
	Reserved    uint64
	ProbeID     uint32
	StatementID uint32
	Offset      uint32
	Kind        FaultKind
	Value       uint64
}

func (e ErrorRecord) String() string {
	return fmt.Sprintf("probe=%d stmt=%d off=%d kind=%s value=%#x", e.ProbeID, e.StatementID, e.Offset, e.Kind, e.Value)
}

// DecodeErrorRecord parses the fixed six-field layout out of b: an 8-byte
// always-zero field, four 4-byte fields (probe id, statement id, offset,
// fault kind), and an 8-byte fault-specific value.
func DecodeErrorRecord(b []byte) (ErrorRecord, error) {
	const size = 8 + 4 + 4 + 4 + 4 + 8
	if len(b) < size {
		return ErrorRecord{}, fmt.Errorf("error record too short: %d bytes", len(b))
	}
	le64 := func(off int) uint64 {
		var v uint64
		for i := 7; i >= 0; i-- {
			v = v<<8 | uint64(b[off+i])
		}
		return v
	}
	le32 := func(off int) uint32 {
		var v uint32
		for i := 3; i >= 0; i-- {
			v = v<<8 | uint32(b[off+i])
		}
		return v
	}
	return ErrorRecord{
		Reserved:    le64(0),
		ProbeID:     le32(8),
		StatementID: le32(12),
		Offset:      le32(16),
		Kind:        FaultKind(le32(20)),
		Value:       le64(24),
	}, nil
}
