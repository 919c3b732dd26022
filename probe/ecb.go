// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package probe

import (
	"sync"

	"github.com/saferwall/dtrace-go/difo"
	"github.com/saferwall/dtrace-go/dtraceerr"
)

// ECB (enabled control block) binds one probe to the compiled action
// programs that fire when it trips, tagged by its enabled-probe id.
type ECB struct {
	EPID    uint32
	Probe   Descriptor
	Actions []*difo.Difo
}

// Registry tracks live ECBs by probe id and hands out EPIDs, mirroring the
// attach/detach contract: Detach is idempotent, and a numeric probe id
// (distinct from the EPID) is the caller's handle for later detach.
type Registry struct {
	mu      sync.Mutex
	nextID  uint32
	nextEP  uint32
	probes  map[uint32]*ECB
}

// NewRegistry returns an empty ECB registry.
func NewRegistry() *Registry {
	return &Registry{probes: make(map[uint32]*ECB), nextID: 1, nextEP: 1}
}

// Attach validates desc, compiles nothing itself (actions arrive already
// built), and installs a new ECB, returning its probe id and EPID.
func (r *Registry) Attach(desc Descriptor, actions []*difo.Difo) (probeID uint32, epid uint32, err error) {
	if err := desc.Validate(); err != nil {
		return 0, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	probeID = r.nextID
	epid = r.nextEP
	r.nextID++
	r.nextEP++
	r.probes[probeID] = &ECB{EPID: epid, Probe: desc, Actions: actions}
	return probeID, epid, nil
}

// Detach frees the ECB for probeID. It is idempotent: detaching an id that
// is already gone (or was never attached) is not an error.
func (r *Registry) Detach(probeID uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.probes, probeID)
	return nil
}

// Lookup returns the ECB for probeID, if any.
func (r *Registry) Lookup(probeID uint32) (*ECB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.probes[probeID]
	return e, ok
}

// ByEPID finds the ECB whose EPID matches epid, used by the consumer to
// resolve a ring record back to its action list.
func (r *Registry) ByEPID(epid uint32) (*ECB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.probes {
		if e.EPID == epid {
			return e, true
		}
	}
	return nil, false
}

// RollbackAttach detaches every probe id in ids, used when a multi-probe
// attach fails partway through and the already-installed ECBs must be
// undone.
func (r *Registry) RollbackAttach(ids []uint32) error {
	var first error
	for _, id := range ids {
		if err := r.Detach(id); err != nil && first == nil {
			first = dtraceerr.Wrap(dtraceerr.Load, "rollback detach", err)
		}
	}
	return first
}
