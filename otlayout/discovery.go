package otlayout

import "github.com/npillmayer/otengine/ot"

// DiscoverGlyphs seeds the traits of every album slot from GDEF's glyph
// class definition. Without a GDEF table (or without a glyph class def in
// it), slots keep their current traits.
func DiscoverGlyphs(album *Album, gdef *ot.GDefTable) {
	if album == nil || gdef == nil || gdef.GlyphClassDef.IsVoid() {
		return
	}
	for i := 0; i < album.Len(); i++ {
		album.InsertTraits(i, glyphTraits(gdef, album.Glyph(i)))
	}
}

// glyphTraits derives trait bits for a single glyph from its GDEF glyph class.
func glyphTraits(gdef *ot.GDefTable, glyph ot.GlyphIndex) GlyphTrait {
	if gdef == nil || gdef.GlyphClassDef.IsVoid() {
		return GlyphTraitNone
	}
	switch ot.GlyphClassDefEnum(gdef.GlyphClassDef.Lookup(glyph)) {
	case ot.BaseGlyph:
		return GlyphTraitBase
	case ot.LigatureGlyph:
		return GlyphTraitLigature
	case ot.MarkGlyph:
		return GlyphTraitMark
	case ot.ComponentGlyph:
		return GlyphTraitComponent
	}
	return GlyphTraitNone
}
