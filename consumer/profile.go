// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package consumer

import (
	"io"
	"time"

	"github.com/google/pprof/profile"
)

// FireCounts maps a probe's EPID to how many times it fired during a
// session, the raw input ExportProfile turns into a pprof sample type.
type FireCounts map[uint32]int64

// ExportProfile writes counts as a pprof profile to w, one sample per
// EPID, so probe-firing rates can be inspected with any pprof-compatible
// tool instead of a bespoke report format.
func ExportProfile(counts FireCounts, w io.Writer) error {
	p := &profile.Profile{
		SampleType:    []*profile.ValueType{{Type: "firings", Unit: "count"}},
		TimeNanos:     0,
		DurationNanos: int64(time.Second),
	}

	functions := make(map[uint32]*profile.Function)
	locations := make(map[uint32]*profile.Location)
	var nextID uint64 = 1

	for epid := range counts {
		fn := &profile.Function{ID: nextID, Name: epidName(epid)}
		nextID++
		loc := &profile.Location{ID: nextID, Line: []profile.Line{{Function: fn}}}
		nextID++
		functions[epid] = fn
		locations[epid] = loc
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
	}

	for epid, count := range counts {
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{locations[epid]},
			Value:    []int64{count},
		})
	}

	return p.Write(w)
}

func epidName(epid uint32) string {
	return "epid#" + itoa(epid)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
