package otlayout

import (
	"errors"
	"testing"

	"github.com/npillmayer/otengine/internal/synthfont"
	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

// The end-to-end chained-context scenario: album [A M B C] with a mark
// between backtrack and input, lookup flag IgnoreMarks, backtrack [cov(A)],
// input [cov(B) cov(C)], and a context record substituting B.
func TestChainContextEndToEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	const A, M, B, C = 1, 2, 3, 4
	album := makeAlbum(A, M, B, C)
	album.SetTraits(1, GlyphTraitMark)
	chain := synthfont.ChainContext3(
		[][]byte{synthfont.Coverage1(A)},
		[][]byte{synthfont.Coverage1(B), synthfont.Coverage1(C)},
		nil,
		synthfont.SequenceLookup{SequenceIndex: 0, LookupIndex: 1},
	)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(6, uint16(ot.LOOKUP_FLAG_IGNORE_MARKS), chain),
		synthfont.Lookup(1, 0, synthfont.SingleSubst2(synthfont.Coverage1(B), 30)),
	)
	// drive like the shaping loop: try lookup 0 at every position
	loc := proc.Locator()
	loc.SetLookupFlag(0)
	loc.Reset(0, album.Len())
	var appliedAt, resumedAt []int
	for loc.MoveNext() {
		applied, err := proc.ApplyLookup(0)
		if err != nil {
			t.Fatalf("lookup application failed: %v", err)
		}
		if applied {
			appliedAt = append(appliedAt, loc.Index())
		} else {
			resumedAt = append(resumedAt, loc.Index())
		}
	}
	if len(appliedAt) != 1 || appliedAt[0] != 2 {
		t.Fatalf("expected chain to apply exactly at slot 2, applied at %v", appliedAt)
	}
	if album.Glyph(2) != 30 {
		t.Errorf("expected nested lookup to substitute B -> 30, is %d", album.Glyph(2))
	}
	// the outer cursor resumes at C (slot 3), not before
	found := false
	for _, idx := range resumedAt {
		if idx == 3 {
			found = true
		}
		if idx > 2 && idx != 3 {
			t.Errorf("unexpected position %d after chain application", idx)
		}
	}
	if !found {
		t.Errorf("expected outer cursor to resume at slot 3, positions were %v", resumedAt)
	}
	if album.Glyph(0) != A || album.Glyph(1) != M || album.Glyph(3) != C {
		t.Errorf("expected surrounding glyphs untouched")
	}
}

func TestChainContextNoBacktrackMatch(t *testing.T) {
	const A, B, C = 1, 3, 4
	album := makeAlbum(9, B, C) // wrong backtrack glyph
	chain := synthfont.ChainContext3(
		[][]byte{synthfont.Coverage1(A)},
		[][]byte{synthfont.Coverage1(B), synthfont.Coverage1(C)},
		nil,
		synthfont.SequenceLookup{SequenceIndex: 0, LookupIndex: 1},
	)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(6, 0, chain),
		synthfont.Lookup(1, 0, synthfont.SingleSubst2(synthfont.Coverage1(B), 30)),
	)
	if applied, err := applyAt(t, proc, 1, 0); err != nil || applied {
		t.Errorf("expected backtrack mismatch, applied=%v err=%v", applied, err)
	}
}

func TestChainContextAtRunBoundary(t *testing.T) {
	// backtrack and lookahead both required, but the run is too short;
	// the matcher must answer NotMatched, never panic
	const B = 3
	album := makeAlbum(B)
	chain := synthfont.ChainContext3(
		[][]byte{synthfont.Coverage1(1)},
		[][]byte{synthfont.Coverage1(B)},
		[][]byte{synthfont.Coverage1(4)},
		synthfont.SequenceLookup{SequenceIndex: 0, LookupIndex: 0},
	)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(6, 0, chain),
	)
	if applied, err := applyAt(t, proc, 0, 0); err != nil || applied {
		t.Errorf("expected boundary miss, applied=%v err=%v", applied, err)
	}
}

func TestChainContextEmptyInput(t *testing.T) {
	album := makeAlbum(1, 2)
	chain := synthfont.ChainContext3(nil, nil, nil,
		synthfont.SequenceLookup{SequenceIndex: 0, LookupIndex: 0})
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(6, 0, chain),
	)
	applied, err := applyAt(t, proc, 0, 0)
	if err != nil || applied {
		t.Errorf("expected empty input to be NotMatched, applied=%v err=%v", applied, err)
	}
}

func TestContextFormat3(t *testing.T) {
	const A, B = 1, 2
	album := makeAlbum(A, B)
	context := synthfont.Context3(
		[][]byte{synthfont.Coverage1(A), synthfont.Coverage1(B)},
		synthfont.SequenceLookup{SequenceIndex: 1, LookupIndex: 1},
	)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(5, 0, context),
		synthfont.Lookup(1, 0, synthfont.SingleSubst1(synthfont.Coverage1(B), 10)),
	)
	if applied, err := applyAt(t, proc, 0, 0); err != nil || !applied {
		t.Fatalf("expected context application, applied=%v err=%v", applied, err)
	}
	if album.Glyph(0) != A || album.Glyph(1) != B+10 {
		t.Errorf("expected nested lookup at sequence index 1, album is [%d %d]",
			album.Glyph(0), album.Glyph(1))
	}
}

func TestExtensionIndirection(t *testing.T) {
	album := makeAlbum(10)
	inner := synthfont.SingleSubst1(synthfont.Coverage1(10), 7)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(7, 0, synthfont.Extension(1, inner)),
	)
	if applied, err := applyAt(t, proc, 0, 0); err != nil || !applied {
		t.Fatalf("expected extension-wrapped application, applied=%v err=%v", applied, err)
	}
	if album.Glyph(0) != 17 {
		t.Errorf("expected glyph 17 after extension indirection, is %d", album.Glyph(0))
	}
}

func TestExtensionWrappingExtensionIsMalformed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	album := makeAlbum(10)
	inner := synthfont.Extension(1, synthfont.SingleSubst1(synthfont.Coverage1(10), 7))
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(7, 0, synthfont.Extension(7, inner)),
	)
	applied, err := applyAt(t, proc, 0, 0)
	if applied || !errors.Is(err, ErrMalformedSubtable) {
		t.Errorf("expected malformed-subtable error, applied=%v err=%v", applied, err)
	}
}

func TestNestedLookupRecursionGuard(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	const A = 1
	album := makeAlbum(A)
	// lookup 0 invokes itself at its own input position
	chain := synthfont.ChainContext3(nil,
		[][]byte{synthfont.Coverage1(A)},
		nil,
		synthfont.SequenceLookup{SequenceIndex: 0, LookupIndex: 0},
	)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(6, 0, chain),
	)
	applied, err := applyAt(t, proc, 0, 0)
	if !errors.Is(err, ErrNestedLookupTooDeep) {
		t.Errorf("expected recursion guard to trip, applied=%v err=%v", applied, err)
	}
}

// A nested multiple substitution grows the album inside the context span;
// the outer locator must widen its range by the grown count, stay valid
// against the album's new version, and resume at the correct post-growth
// position.
func TestChainContextNestedMultipleSubstGrowsAlbum(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	const A, B, C = 1, 2, 3
	album := makeAlbum(A, B, C)
	chain := synthfont.ChainContext3(nil,
		[][]byte{synthfont.Coverage1(B)},
		[][]byte{synthfont.Coverage1(C)},
		synthfont.SequenceLookup{SequenceIndex: 0, LookupIndex: 1},
	)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(6, 0, chain),
		synthfont.Lookup(2, 0,
			synthfont.MultipleSubst(synthfont.Coverage1(B), []uint16{70, 71, 72})),
	)
	if applied, err := applyAt(t, proc, 1, 0); err != nil || !applied {
		t.Fatalf("expected chain with nested expansion to apply, applied=%v err=%v", applied, err)
	}
	if album.Len() != 5 {
		t.Fatalf("expected album grown to 5 slots, is %d", album.Len())
	}
	for i, want := range []ot.GlyphIndex{A, 70, 71, 72, C} {
		if album.Glyph(i) != want {
			t.Errorf("slot %d: expected glyph %d, is %d", i, want, album.Glyph(i))
		}
	}
	// the outer locator's range was widened by the grown count and its
	// version snapshot renewed: iterating past the pre-growth limit (3)
	// must neither trip the staleness assert nor skip the shifted C
	loc := proc.Locator()
	var yielded []int
	for loc.MoveNext() {
		yielded = append(yielded, loc.Index())
	}
	if len(yielded) != 3 || yielded[0] != 2 || yielded[1] != 3 || yielded[2] != 4 {
		t.Errorf("expected outer cursor to resume over slots [2 3 4], got %v", yielded)
	}
}

// A nested ligature consumes the second input glyph; the outer cursor must
// resume behind the removed slot.
func TestChainContextNestedLigatureRemovesSlot(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.layout")
	defer teardown()
	//
	const A, B, C, D = 1, 2, 3, 4
	album := makeAlbum(A, B, C, D)
	chain := synthfont.ChainContext3(nil,
		[][]byte{synthfont.Coverage1(B), synthfont.Coverage1(C)},
		nil,
		synthfont.SequenceLookup{SequenceIndex: 0, LookupIndex: 1},
	)
	proc := makeProcessor(t, album, nil, FeatureKindSubstitution,
		synthfont.Lookup(6, 0, chain),
		synthfont.Lookup(4, 0,
			synthfont.LigatureSubst(synthfont.Coverage1(B),
				[]synthfont.Ligature{{Glyph: 99, Components: []uint16{C}}})),
	)
	if applied, err := applyAt(t, proc, 1, 0); err != nil || !applied {
		t.Fatalf("expected chain with nested ligature to apply, applied=%v err=%v", applied, err)
	}
	if album.Glyph(1) != 99 {
		t.Errorf("expected ligature glyph at slot 1, is %d", album.Glyph(1))
	}
	if album.Traits(2)&GlyphTraitRemoved == 0 {
		t.Fatalf("expected slot 2 to be removed by the nested ligature")
	}
	// the outer cursor skips the removed slot and resumes at D
	loc := proc.Locator()
	if !loc.MoveNext() || loc.Index() != 3 {
		t.Errorf("expected outer cursor to resume at slot 3, is %d", loc.Index())
	}
}
