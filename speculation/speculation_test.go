// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package speculation

import "testing"

func TestSpeculateExhaustion(t *testing.T) {
	tbl := NewTable(2)
	a := tbl.Speculate()
	b := tbl.Speculate()
	c := tbl.Speculate()

	if a == 0 || b == 0 || a == b {
		t.Fatalf("expected two distinct nonzero ids, got %d %d", a, b)
	}
	if c != 0 {
		t.Fatalf("Speculate on exhausted table = %d, want 0", c)
	}
}

func TestCommitBlocksFurtherSpeculate(t *testing.T) {
	tbl := NewTable(1)
	id := tbl.Speculate()
	if err := tbl.Commit(id); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if !tbl.Draining(id) {
		t.Fatalf("slot %d not marked draining after Commit", id)
	}
	if tbl.Speculate() != 0 {
		t.Fatalf("Speculate succeeded against a draining table")
	}
}

func TestDrainToZeroFreesSlot(t *testing.T) {
	tbl := NewTable(1)
	id := tbl.Speculate()
	tbl.Write(id)
	tbl.Write(id)
	tbl.Commit(id)

	tbl.Drain(id, 1)
	if tbl.Free(id) {
		t.Fatalf("slot freed before written counter reached zero")
	}
	tbl.Drain(id, 1)
	if !tbl.Free(id) {
		t.Fatalf("slot not freed once written counter reached zero")
	}
	if got := tbl.Speculate(); got != id {
		t.Fatalf("Speculate after drain = %d, want reused id %d", got, id)
	}
}

func TestWriteRejectedOnDrainingSlot(t *testing.T) {
	tbl := NewTable(1)
	id := tbl.Speculate()
	tbl.Commit(id)
	if err := tbl.Write(id); err == nil {
		t.Fatalf("Write succeeded on a draining slot")
	}
}

func TestDiscardDropsRecordsOnDrain(t *testing.T) {
	tbl := NewTable(1)
	id := tbl.Speculate()
	tbl.Write(id)
	if err := tbl.Discard(id); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	tbl.Drain(id, 1)
	if !tbl.Free(id) {
		t.Fatalf("discarded slot did not return to free after drain")
	}
}
