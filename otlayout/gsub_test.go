package otlayout

import (
	"testing"

	"github.com/npillmayer/otengine/internal/synthfont"
	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// makeProcessor builds a processor over a synthetic lookup list.
func makeProcessor(t *testing.T, album *Album, gdef *ot.GDefTable,
	kind FeatureKind, lookups ...[]byte) *Processor {
	//
	t.Helper()
	table, err := ot.ParseLayoutTable(synthfont.LayoutTable(nil, nil,
		synthfont.LookupList(lookups...)))
	if err != nil {
		t.Fatalf("cannot parse synthetic layout table: %v", err)
	}
	return NewProcessor(album, table, gdef, kind)
}

// applyAt positions the processor's locator at a slot and applies a lookup.
func applyAt(t *testing.T, proc *Processor, slot, lookupIndex int) (bool, error) {
	t.Helper()
	loc := proc.Locator()
	loc.SetLookupFlag(0)
	loc.Reset(0, proc.Album().Len())
	loc.JumpTo(slot)
	if !loc.MoveNext() {
		t.Fatalf("cannot position locator at slot %d", slot)
	}
	return proc.ApplyLookup(lookupIndex)
}

func TestSingleSubstFormat1(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	album := makeAlbum(10, 11)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(1, 0, synthfont.SingleSubst1(synthfont.Coverage1(10), 100)),
	)
	applied, err := applyAt(t, proc, 0, 0)
	if err != nil || !applied {
		t.Fatalf("expected application, got applied=%v err=%v", applied, err)
	}
	if album.Glyph(0) != 110 {
		t.Errorf("expected glyph 10+100=110, is %d", album.Glyph(0))
	}
	applied, err = applyAt(t, proc, 1, 0)
	if err != nil || applied {
		t.Errorf("expected uncovered glyph 11 not to apply, applied=%v err=%v", applied, err)
	}
}

func TestSingleSubstFormat2(t *testing.T) {
	album := makeAlbum(10, 12)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(1, 0,
			synthfont.SingleSubst2(synthfont.Coverage1(10, 12), 50, 52)),
	)
	if applied, err := applyAt(t, proc, 1, 0); err != nil || !applied {
		t.Fatalf("expected application, got applied=%v err=%v", applied, err)
	}
	if album.Glyph(1) != 52 {
		t.Errorf("expected substitute 52 via coverage index, is %d", album.Glyph(1))
	}
}

func TestSingleSubstRefreshesTraits(t *testing.T) {
	// glyph 10 is a base, its substitute 60 is a mark
	gdef, err := ot.ParseGDef(synthfont.GDEF(
		synthfont.ClassDef2(
			synthfont.Range{Start: 10, End: 10, Value: 1},
			synthfont.Range{Start: 60, End: 60, Value: 3},
		), nil))
	if err != nil {
		t.Fatal(err)
	}
	album := makeAlbum(10)
	DiscoverGlyphs(album, gdef)
	proc := makeProcessor(t, album, gdef, FeatureKindSubstitution,
		synthfont.Lookup(1, 0, synthfont.SingleSubst1(synthfont.Coverage1(10), 50)),
	)
	if applied, _ := applyAt(t, proc, 0, 0); !applied {
		t.Fatal("expected application")
	}
	if album.Traits(0) != GlyphTraitMark {
		t.Errorf("expected traits re-derived from GDEF, got %04x", album.Traits(0))
	}
}

func TestMultipleSubst(t *testing.T) {
	album := makeAlbum(10, 11)
	album.SetFeatureMask(0, 0x04)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(2, 0,
			synthfont.MultipleSubst(synthfont.Coverage1(10), []uint16{70, 71, 72})),
	)
	if applied, err := applyAt(t, proc, 0, 0); err != nil || !applied {
		t.Fatalf("expected application, got applied=%v err=%v", applied, err)
	}
	if album.Len() != 4 {
		t.Fatalf("expected album to grow to 4 slots, is %d", album.Len())
	}
	for i, want := range []ot.GlyphIndex{70, 71, 72, 11} {
		if album.Glyph(i) != want {
			t.Errorf("slot %d: expected glyph %d, is %d", i, want, album.Glyph(i))
		}
	}
	for i := 0; i < 3; i++ {
		if album.FeatureMask(i) != 0x04 {
			t.Errorf("slot %d: expected feature mask copied to expansion", i)
		}
		if album.Association(i) != 0 {
			t.Errorf("slot %d: expected association preserved", i)
		}
	}
	// traversal continues over the inserted glyphs, starting at slot 1
	loc := proc.Locator()
	if !loc.MoveNext() || loc.Index() != 1 {
		t.Errorf("expected cursor to continue at slot 1, is %d", loc.Index())
	}
}

func TestMultipleSubstEmptySequenceIsMalformed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	album := makeAlbum(10)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(2, 0,
			synthfont.MultipleSubst(synthfont.Coverage1(10), []uint16{})),
	)
	applied, err := applyAt(t, proc, 0, 0)
	if applied || err == nil {
		t.Errorf("expected malformed-subtable error for empty sequence, applied=%v err=%v",
			applied, err)
	}
	if album.Glyph(0) != 10 || album.Len() != 1 {
		t.Errorf("expected album untouched on failure")
	}
}

func TestAlternateSubst(t *testing.T) {
	album := makeAlbum(10)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(3, 0,
			synthfont.AlternateSubst(synthfont.Coverage1(10), []uint16{80, 81})),
	)
	if applied, err := applyAt(t, proc, 0, 0); err != nil || !applied {
		t.Fatalf("expected application, got applied=%v err=%v", applied, err)
	}
	if album.Glyph(0) != 80 {
		t.Errorf("expected first alternate 80, is %d", album.Glyph(0))
	}
}

func TestLigatureSubstWithIgnoredMark(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	album := makeAlbum(10, 20, 11) // A, mark, B
	album.SetTraits(1, GlyphTraitMark)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(4, uint16(ot.LOOKUP_FLAG_IGNORE_MARKS),
			synthfont.LigatureSubst(synthfont.Coverage1(10),
				[]synthfont.Ligature{{Glyph: 90, Components: []uint16{11}}})),
	)
	if applied, err := applyAt(t, proc, 0, 0); err != nil || !applied {
		t.Fatalf("expected ligature application, got applied=%v err=%v", applied, err)
	}
	if album.Glyph(0) != 90 {
		t.Errorf("expected ligature glyph 90 at slot 0, is %d", album.Glyph(0))
	}
	if album.Traits(0)&GlyphTraitLigature == 0 {
		t.Errorf("expected ligature trait on slot 0")
	}
	if album.Traits(1)&GlyphTraitRemoved != 0 {
		t.Errorf("expected mark slot to survive the ligature")
	}
	if album.Traits(2)&GlyphTraitRemoved == 0 {
		t.Errorf("expected component slot 2 to be marked removed")
	}
	if album.Association(2) != 0 {
		t.Errorf("expected component associated with ligature slot, is %d", album.Association(2))
	}
	if album.Len() != 3 {
		t.Errorf("ligature substitution must not change slot count")
	}
}

func TestLigatureSubstNoMatch(t *testing.T) {
	album := makeAlbum(10, 12)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(4, 0,
			synthfont.LigatureSubst(synthfont.Coverage1(10),
				[]synthfont.Ligature{{Glyph: 90, Components: []uint16{11}}})),
	)
	if applied, err := applyAt(t, proc, 0, 0); err != nil || applied {
		t.Errorf("expected component mismatch not to apply, applied=%v err=%v", applied, err)
	}
	if album.Glyph(0) != 10 {
		t.Errorf("expected album untouched")
	}
}
