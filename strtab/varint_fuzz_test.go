// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package strtab

import "testing"

// FuzzDecode exercises Decode against untrusted wire bytes: a varint
// prefix read off a ring-buffer record. It must never panic, and any
// value it does decode must re-encode to bytes that decode back to the
// same value.
func FuzzDecode(f *testing.F) {
	f.Add([]byte{0x00})
	f.Add([]byte{0xff, 0, 0, 0, 0, 0, 0, 0, 0})
	f.Add([]byte{0x80})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, b []byte) {
		v, n, err := Decode(b)
		if err != nil {
			return
		}
		if n <= 0 || n > len(b) {
			t.Fatalf("Decode consumed %d bytes from a %d-byte input", n, len(b))
		}
		reenc := Encode(v)
		v2, n2, err := Decode(reenc)
		if err != nil {
			t.Fatalf("re-decode of re-encoded value %d failed: %v", v, err)
		}
		if v2 != v || n2 != len(reenc) {
			t.Fatalf("round trip mismatch: v=%d v2=%d n2=%d len=%d", v, v2, n2, len(reenc))
		}
	})
}
