package otengine

import (
	"github.com/go-text/typesetting/language"
	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/otengine/otlayout"
	"github.com/npillmayer/otengine/otshape"
	xlanguage "golang.org/x/text/language"
)

// FromBinary parses raw OpenType bytes and returns a decoded font.
//
// The input is expected to contain a complete single-font SFNT stream.
// It must not change after parsing for the font to be usable.
//
// The SFNT container is decoded as well, to pick up the font's name for
// diagnostics; fonts whose container tables are incomplete (no 'name',
// 'cmap', …) are still usable for lookup application.
func FromBinary(data []byte) (*ot.Font, error) {
	otf, err := ot.Parse(data)
	if err != nil {
		return nil, err
	}
	if f, err := ParseOpenTypeFont(data); err == nil {
		otf.Fontname = f.Fontname
	} else {
		tracer().Debugf("font container not fully decodable: %v", err)
	}
	return otf, nil
}

// LoadFont loads an OpenType font from a file and decodes its layout tables.
func LoadFont(fontfile string) (*ot.Font, error) {
	f, err := LoadOpenTypeFont(fontfile)
	if err != nil {
		return nil, err
	}
	otf, err := ot.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	otf.Fontname = f.Fontname
	return otf, nil
}

// ApplyLayout applies the font's default layout features for a script and
// language to a sequence of glyph IDs and returns the resulting glyphs, with
// slots removed by substitutions dropped.
//
// This is a convenience API for simple uses. Clients who need feature masks,
// positioning output or pattern reuse should build a pattern through package
// otshape and drive an album directly.
func ApplyLayout(otf *ot.Font, script language.Script, lang xlanguage.Tag,
	glyphs []ot.GlyphIndex) ([]ot.GlyphIndex, error) {
	//
	if otf == nil || len(glyphs) == 0 {
		return nil, nil
	}
	pattern, err := otshape.BuildPattern(otf,
		otshape.ScriptTag(script), otshape.LanguageTag(lang),
		otshape.ScriptDirection(script), nil, nil)
	if err != nil {
		return nil, err
	}
	defer pattern.Release()
	album := otlayout.NewAlbum(len(glyphs))
	for i, g := range glyphs {
		album.Add(g, i)
	}
	if err := otshape.Shape(pattern, album); err != nil {
		return nil, err
	}
	out := make([]ot.GlyphIndex, 0, album.Len())
	for i := 0; i < album.Len(); i++ {
		if album.Traits(i)&otlayout.GlyphTraitRemoved != 0 {
			continue
		}
		out = append(out, album.Glyph(i))
	}
	return out, nil
}
