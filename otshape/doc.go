/*
Package otshape compiles feature patterns and drives lookup application.

A Pattern is the compiled, immutable plan for shaping runs of one
script/language pair: the ordered feature units (groups of simultaneously
active features) with their lookup indices, for GSUB and GPOS. Patterns are
built once — either manually through a PatternBuilder, or resolved from a
font's script and feature lists — and may be shared across shaping passes.

Shape applies a pattern to an album of glyphs.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otshape

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otengine.shape'
func tracer() tracing.Trace {
	return tracing.Select("otengine.shape")
}

// errShaper wraps a message as a user-facing shaping error.
func errShaper(x string) error {
	return fmt.Errorf("OpenType text shaping: %s", x)
}

// assert panics when condition is false.
func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
