// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package dtracelog wraps the kratos logging helper so every component in
// the tracing pipeline logs through the same filtered, leveled sink instead
// of reaching for the stdlib log package directly.
package dtracelog

import (
	"os"

	"github.com/go-kratos/kratos/v2/log"
)

// Helper is the logging handle threaded through the compiler, the map
// planner, and the consumer session. Constructors in this module that take
// a *Helper substitute Default() when given nil.
type Helper = log.Helper

// New builds a Helper over logger that drops anything below level. A nil
// logger defaults to a stdout logger, mirroring the default the teacher's
// pe.File.New falls back to when Options.Logger is unset.
func New(logger log.Logger, level log.Level) *Helper {
	if logger == nil {
		logger = log.NewStdLogger(os.Stdout)
	}
	return log.NewHelper(log.NewFilter(logger, log.FilterLevel(level)))
}

// Default returns the package-wide fallback helper, filtered at LevelError.
func Default() *Helper {
	return New(nil, log.LevelError)
}

// Debug builds a Helper filtered at LevelDebug, for CLI -v flags.
func Debug() *Helper {
	return New(nil, log.LevelDebug)
}
