// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package consumer ties the map planner, the ring-buffer poll loop, the
// aggregation engine, and the probe registry into one façade: attach
// probes, poll for records, read aggregation snapshots, and optionally
// verify a signed probe manifest or export firing counts as a pprof
// profile.
package consumer

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"go.mozilla.org/pkcs7"
	"golang.org/x/mod/semver"

	"github.com/saferwall/dtrace-go/agg"
	"github.com/saferwall/dtrace-go/bpfmap"
	"github.com/saferwall/dtrace-go/difo"
	"github.com/saferwall/dtrace-go/dtraceerr"
	"github.com/saferwall/dtrace-go/dtracelog"
	"github.com/saferwall/dtrace-go/probe"
	"github.com/saferwall/dtrace-go/ringbuf"
)

// Version is the toolchain's reported version string.
const Version = "v0.1.0"

// MinCompatibleVersion is the oldest consumer-side version a Session built
// by this package's NewSession is willing to interoperate with over the
// wire record format (EPID layout, RecDesc encoding). Bumped only on a
// breaking change to that format.
const MinCompatibleVersion = "v0.1.0"

// CheckCompat reports whether version is at least MinCompatibleVersion,
// using semantic version ordering rather than a string comparison so
// "v0.10.0" correctly compares greater than "v0.9.0".
func CheckCompat(version string) bool {
	return semver.Compare(version, MinCompatibleVersion) >= 0
}

// ProbeData is one decoded record delivered to a consumer callback: its
// EPID, the record descriptor that describes its field layout, and the raw
// payload bytes following the 4-byte EPID prefix.
type ProbeData struct {
	EPID    uint32
	Desc    []difo.RecDesc
	Payload []byte
}

// ConsumerFunc receives one ProbeData per decoded record.
type ConsumerFunc func(ProbeData)

// Session is the top-level façade a CLI or embedding program drives: the
// map planner, the per-CPU ring set, the probe registry, and the
// aggregation engine for one tracing run.
type Session struct {
	Maps *bpfmap.Planner
	Ring *ringbuf.PebSet
	Agg  *agg.Engine

	registry *probe.Registry
	created  map[bpfmap.Role]bpfmap.Map
	log      *dtracelog.Helper
}

// NewSession wires an empty probe registry and aggregation engine and
// returns a Session with no ring set attached; a ring set is supplied with
// WithRing. cfg is not used: no maps are planned or created, and Maps is
// left nil.
func NewSession(cfg bpfmap.Config, log *dtracelog.Helper) (*Session, error) {
	if log == nil {
		log = dtracelog.Default()
	}
	return &Session{
		Agg:      agg.NewEngine(),
		registry: probe.NewRegistry(),
		log:      log,
	}, nil
}

// WithRing attaches an already-constructed PebSet to the session, the seam
// tests use in place of a real kernel-backed ring set.
func (s *Session) WithRing(set *ringbuf.PebSet) *Session {
	s.Ring = set
	return s
}

// VerifyManifest checks that the probe manifest at path parses as pkcs7
// signed data whose signature verifies. Attach does not consult it; a
// caller that wants manifest gating calls it before Attach.
func (s *Session) VerifyManifest(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return dtraceerr.Wrap(dtraceerr.Load, "read manifest", err)
	}
	p7, err := pkcs7.Parse(raw)
	if err != nil {
		return dtraceerr.Wrap(dtraceerr.Load, "parse manifest signature", err)
	}
	if err := p7.Verify(); err != nil {
		return dtraceerr.Wrap(dtraceerr.Load, "verify manifest signature", err)
	}
	return nil
}

// Attach installs one ECB per probe, returning the installed set. If
// installing any probe past the first fails, every ECB already installed
// in this call is rolled back and the error is returned (spec.md §7
// load-time non-recoverable failure handling).
func (s *Session) Attach(probes []probe.Descriptor, actions [][]*difo.Difo) ([]probe.ECB, error) {
	if len(probes) != len(actions) {
		return nil, dtraceerr.Wrap(dtraceerr.Load, "attach", fmt.Errorf("%d probes but %d action lists", len(probes), len(actions)))
	}

	var installed []uint32
	var ecbs []probe.ECB
	for i, desc := range probes {
		id, epid, err := s.registry.Attach(desc, actions[i])
		if err != nil {
			s.registry.RollbackAttach(installed)
			return nil, err
		}
		installed = append(installed, id)
		ecbs = append(ecbs, probe.ECB{EPID: epid, Probe: desc, Actions: actions[i]})
	}
	return ecbs, nil
}

// Detach frees the ECB installed under probeID. Idempotent.
func (s *Session) Detach(probeID uint32) error {
	return s.registry.Detach(probeID)
}

// Poll drains the session's ring set, decoding each record's EPID and
// resolving it back to the owning ECB's record descriptor before invoking
// cb. It returns when ctx is cancelled.
func (s *Session) Poll(ctx context.Context, cb ConsumerFunc) error {
	if s.Ring == nil {
		return dtraceerr.Wrap(dtraceerr.Consumer, "poll", fmt.Errorf("no ring set attached"))
	}
	return s.Ring.Poll(ctx, func(rec ringbuf.Record) {
		if len(rec.Data) < 4 {
			s.log.Warnf("short record from cpu=%d: %d bytes", rec.CPU, len(rec.Data))
			return
		}
		epid := binary.LittleEndian.Uint32(rec.Data[:4])
		var desc []difo.RecDesc
		if ecb, ok := s.registry.ByEPID(epid); ok && len(ecb.Actions) > 0 {
			desc = ecb.Actions[0].Record
		}
		cb(ProbeData{EPID: epid, Desc: desc, Payload: rec.Data[4:]})
	})
}

// Snapshot returns the current aggregation results, sorted for display.
func (s *Session) Snapshot() []agg.Result {
	results := s.Agg.Snapshot()
	s.Agg.Sort(results)
	return results
}

// Close releases every map the session created.
func (s *Session) Close() error {
	var first error
	for _, m := range s.created {
		if err := m.Close(); err != nil && first == nil {
			first = err
		}
	}
	if s.Ring != nil {
		if err := s.Ring.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
