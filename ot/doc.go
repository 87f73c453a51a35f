/*
Package ot navigates the binary data of OpenType layout tables.

The package reads GSUB, GPOS and GDEF tables directly from a font's bytes,
without copying them into parsed structures. Every table-typed value is a
byte segment; derived sub-tables are segments whose origin is the referenced
table, so that intra-table offsets stay relative to the new base.

Package ot deliberately stops at the level of lookups, coverage tables and
class definitions. Applying lookups to glyph runs is the business of package
otlayout; compiling feature plans is the business of package otshape.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"errors"
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otengine.ot'
func tracer() tracing.Trace {
	return tracing.Select("otengine.ot")
}

// ErrTruncatedTable flags a read crossing the end of a table segment.
var ErrTruncatedTable = errors.New("truncated table: read exceeds segment bounds")

// errFontFormat produces user level errors for font parsing.
func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}
