/*
Package otlayout applies OpenType layout lookups to glyph albums.

The package provides the mutable glyph sequence under shaping (Album), a
filtered bidirectional cursor over it (Locator), and the Processor which
dispatches GSUB/GPOS lookup subtables, including extension indirection and
chained-context matching with nested lookups.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otlayout

import (
	"errors"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otengine.layout'
func tracer() tracing.Trace {
	return tracing.Select("otengine.layout")
}

// Errors surfaced by lookup application. Bounds and structural errors abort
// the current lookup application; the shaping driver continues with the next
// locator position.
var (
	// ErrMalformedSubtable flags a subtable field with an impossible value.
	ErrMalformedSubtable = errors.New("malformed lookup subtable")
	// ErrNestedLookupTooDeep flags a font whose context lookups nest deeper
	// than the engine's recursion guard allows.
	ErrNestedLookupTooDeep = errors.New("nested lookup recursion too deep")
)

// assert panics when condition is false. Used for programming-contract
// violations, never for font data errors.
func assert(condition bool, msg string) {
	if !condition {
		panic(msg)
	}
}
