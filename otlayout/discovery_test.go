package otlayout

import (
	"testing"

	"github.com/npillmayer/otengine/internal/synthfont"
	"github.com/npillmayer/otengine/ot"
)

func TestDiscoverGlyphs(t *testing.T) {
	gdef, err := ot.ParseGDef(synthfont.GDEF(
		synthfont.ClassDef1(10, 1, 2, 3, 4), nil,
	))
	if err != nil {
		t.Fatal(err)
	}
	album := makeAlbum(10, 11, 12, 13, 99)
	DiscoverGlyphs(album, gdef)
	expected := []GlyphTrait{
		GlyphTraitBase, GlyphTraitLigature, GlyphTraitMark, GlyphTraitComponent,
		GlyphTraitNone, // glyph 99 is unlisted
	}
	for i, want := range expected {
		if album.Traits(i) != want {
			t.Errorf("slot %d: expected traits %04x, got %04x", i, want, album.Traits(i))
		}
	}
}

func TestDiscoverGlyphsWithoutGDef(t *testing.T) {
	album := makeAlbum(10, 11)
	DiscoverGlyphs(album, nil)
	for i := 0; i < album.Len(); i++ {
		if album.Traits(i) != GlyphTraitNone {
			t.Errorf("slot %d: expected no traits without GDEF", i)
		}
	}
}
