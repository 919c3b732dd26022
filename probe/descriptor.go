// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package probe models probe identity, the enabled-control-block binding
// between a probe and its compiled actions, attach/detach lifecycle, and
// the fault and built-in-variable enumerations the kernel program surfaces
// back to the compiler and the consumer.
package probe

import "github.com/saferwall/dtrace-go/dtraceerr"

// Field length bounds for a probe tuple, in bytes.
const (
	MaxProviderLen = 64
	MaxModuleLen   = 64
	MaxFunctionLen = 128
	MaxNameLen     = 64
)

// Descriptor identifies a probe by its four-part tuple. Provider and Name
// are opaque at this layer; only their byte lengths are validated here.
type Descriptor struct {
	Provider string
	Module   string
	Function string
	Name     string
}

// Validate checks every field against its maximum length.
func (d Descriptor) Validate() error {
	if len(d.Provider) > MaxProviderLen {
		return dtraceerr.Wrap(dtraceerr.Compile, "probe provider", errTooLong(len(d.Provider), MaxProviderLen))
	}
	if len(d.Module) > MaxModuleLen {
		return dtraceerr.Wrap(dtraceerr.Compile, "probe module", errTooLong(len(d.Module), MaxModuleLen))
	}
	if len(d.Function) > MaxFunctionLen {
		return dtraceerr.Wrap(dtraceerr.Compile, "probe function", errTooLong(len(d.Function), MaxFunctionLen))
	}
	if len(d.Name) > MaxNameLen {
		return dtraceerr.Wrap(dtraceerr.Compile, "probe name", errTooLong(len(d.Name), MaxNameLen))
	}
	return nil
}

type lengthError struct {
	got, max int
}

func (e *lengthError) Error() string {
	return "field exceeds maximum length"
}

func errTooLong(got, max int) error {
	return &lengthError{got: got, max: max}
}
