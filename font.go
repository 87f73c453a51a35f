/*
Package otengine applies OpenType layout lookups (GSUB and GPOS) to runs
of glyphs.

The engine operates on three central notions:

▪︎ An "album" is the mutable ordered sequence of glyph slots under shaping
(package otlayout).

▪︎ A "locator" is a filtered cursor over an album, honoring per-lookup
ignore rules (package otlayout).

▪︎ A "pattern" is a compiled, immutable plan of features and lookup indices
for one script/language pair (package otshape).

The root package holds the font container (ScalableFont) and the convenience
functions FromBinary, LoadFont and ApplyLayout on top of the sub-packages.

# Status

Does not yet contain methods for font collections (*.ttc), e.g.,
/System/Library/Fonts/Helvetica.ttc on Mac OS.

# Links

OpenType explained:
https://docs.microsoft.com/en-us/typography/opentype/

______________________________________________________________________

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otengine

import (
	"os"

	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'otengine'
func tracer() tracing.Trace {
	return tracing.Select("otengine")
}

// ScalableFont is the container for an outline font (TTF or OTF): the raw
// bytes the layout engine navigates, together with the decoded SFNT
// structure used for container-level queries (naming, metrics).
//
// The lookup engine itself never consults the SFNT member; it exists for
// clients and for diagnostics output.
type ScalableFont struct {
	Fontname string
	Filepath string     // file path, empty for in-memory fonts
	Binary   []byte     // raw data
	SFNT     *sfnt.Font // decoded container
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseOpenTypeFont(bytez)
	if err != nil {
		return nil, err
	}
	f.Filepath = fontfile
	tracer().Debugf("loaded font %s from %s", f.Fontname, fontfile)
	return f, nil
}

// ParseOpenTypeFont wraps in-memory OpenType data (TTF or OTF) into a
// ScalableFont. The bytes must not change afterwards.
func ParseOpenTypeFont(fbytes []byte) (*ScalableFont, error) {
	sf, err := sfnt.Parse(fbytes)
	if err != nil {
		return nil, err
	}
	f := &ScalableFont{Binary: fbytes, SFNT: sf}
	f.Fontname = fullName(sf)
	return f, nil
}

// fullName extracts the font's full name from the decoded container.
func fullName(sf *sfnt.Font) string {
	name, err := sf.Name(nil, sfnt.NameIDFull)
	if err != nil {
		return "<unknown font name>"
	}
	return name
}
