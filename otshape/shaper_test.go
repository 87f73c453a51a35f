package otshape

import (
	"testing"

	"github.com/npillmayer/otengine/internal/synthfont"
	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/otengine/otlayout"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/text/unicode/bidi"
)

// A synthetic font: GSUB ligates f+i, GPOS kerns A+V, GDEF classifies the
// glyphs.
const (
	glyphF  = 11
	glyphI  = 12
	glyphFI = 99
	glyphA  = 33
	glyphV  = 34
)

func makeTestFont(t *testing.T) *ot.Font {
	t.Helper()
	gsub := synthfont.LayoutTable(
		[]synthfont.ScriptEntry{{Tag: "DFLT", RequiredFeature: -1, Features: []uint16{0}}},
		[]synthfont.FeatureEntry{{Tag: "liga", Lookups: []uint16{0}}},
		synthfont.LookupList(
			synthfont.Lookup(4, 0,
				synthfont.LigatureSubst(synthfont.Coverage1(glyphF),
					[]synthfont.Ligature{{Glyph: glyphFI, Components: []uint16{glyphI}}})),
		),
	)
	gpos := synthfont.LayoutTable(
		[]synthfont.ScriptEntry{{Tag: "DFLT", RequiredFeature: -1, Features: []uint16{0}}},
		[]synthfont.FeatureEntry{{Tag: "kern", Lookups: []uint16{0}}},
		synthfont.LookupList(
			synthfont.Lookup(2, 0,
				synthfont.PairPos1(synthfont.Coverage1(glyphA), 0x0004, 0,
					[]synthfont.PairValue{{SecondGlyph: glyphV, Value1: []int16{-80}}})),
		),
	)
	gdef := synthfont.GDEF(synthfont.ClassDef2(
		synthfont.Range{Start: glyphF, End: glyphI, Value: 1},
		synthfont.Range{Start: glyphA, End: glyphV, Value: 1},
	), nil)
	otf, err := ot.Parse(synthfont.SFNT(map[string][]byte{
		"GSUB": gsub, "GPOS": gpos, "GDEF": gdef,
	}))
	if err != nil {
		t.Fatalf("cannot parse synthetic font: %v", err)
	}
	return otf
}

func TestShapeEndToEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.shape")
	defer teardown()
	//
	otf := makeTestFont(t)
	pattern, err := BuildPattern(otf, ot.T("DFLT"), ot.T("dflt"), bidi.LeftToRight, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer pattern.Release()
	if pattern.GSubUnitCount != 1 || pattern.GPosUnitCount != 1 {
		t.Fatalf("expected (1,1) units, got (%d,%d)",
			pattern.GSubUnitCount, pattern.GPosUnitCount)
	}
	//
	album := otlayout.NewAlbum(4)
	for i, g := range []ot.GlyphIndex{glyphF, glyphI, glyphA, glyphV} {
		album.Add(g, i)
	}
	if err := Shape(pattern, album); err != nil {
		t.Fatal(err)
	}
	if album.Glyph(0) != glyphFI {
		t.Errorf("expected ligature at slot 0, is %d", album.Glyph(0))
	}
	if album.Traits(1)&otlayout.GlyphTraitRemoved == 0 {
		t.Errorf("expected slot 1 removed by the ligature")
	}
	if pos := album.Position(2); pos.XAdvance != -80 {
		t.Errorf("expected kerning XAdvance -80 on slot 2, is %d", pos.XAdvance)
	}
	if pos := album.Position(3); pos != (otlayout.Position{}) {
		t.Errorf("expected no adjustment on slot 3, is %+v", pos)
	}
	if album.Len() != 4 {
		t.Errorf("expected stable slot count, is %d", album.Len())
	}
}

func TestShapeFeatureMaskConfinement(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.shape")
	defer teardown()
	//
	otf := makeTestFont(t)
	pattern, err := BuildPattern(otf, ot.T("DFLT"), ot.T("dflt"), bidi.LeftToRight,
		map[ot.Tag]uint16{ot.T("liga"): 0x01, ot.T("kern"): 0x01}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer pattern.Release()
	//
	album := otlayout.NewAlbum(4)
	for i, g := range []ot.GlyphIndex{glyphF, glyphI, glyphF, glyphI} {
		album.Add(g, i)
	}
	// the second f carries a foreign feature bit: the liga unit's locator
	// must not stop there
	album.SetFeatureMask(0, 0x01)
	album.SetFeatureMask(1, 0x01)
	album.SetFeatureMask(2, 0x02)
	album.SetFeatureMask(3, 0x01)
	if err := Shape(pattern, album); err != nil {
		t.Fatal(err)
	}
	if album.Glyph(0) != glyphFI {
		t.Errorf("expected first pair ligated, slot 0 is %d", album.Glyph(0))
	}
	if album.Glyph(2) != glyphF {
		t.Errorf("expected masked-out f unchanged, slot 2 is %d", album.Glyph(2))
	}
}

func TestShapeWithEmptyPattern(t *testing.T) {
	otf := makeTestFont(t)
	pattern := NewPattern()
	builder := NewPatternBuilder(pattern)
	builder.SetFont(otf)
	builder.Build()
	builder.Finalize()
	defer pattern.Release()
	//
	album := otlayout.NewAlbum(2)
	album.Add(glyphF, 0)
	album.Add(glyphI, 1)
	if err := Shape(pattern, album); err != nil {
		t.Fatal(err)
	}
	if album.Glyph(0) != glyphF || album.Glyph(1) != glyphI {
		t.Errorf("expected album unchanged by empty pattern")
	}
	// traits are still discovered
	if album.Traits(0)&otlayout.GlyphTraitBase == 0 {
		t.Errorf("expected glyph discovery to run")
	}
}

func TestShapeRejectsNilArguments(t *testing.T) {
	if err := Shape(nil, otlayout.NewAlbum(0)); err == nil {
		t.Errorf("expected error for nil pattern")
	}
	if err := Shape(NewPattern(), nil); err == nil {
		t.Errorf("expected error for nil album")
	}
	if err := Shape(NewPattern(), otlayout.NewAlbum(0)); err == nil {
		t.Errorf("expected error for pattern without font")
	}
}
