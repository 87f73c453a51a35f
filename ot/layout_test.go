package ot

import (
	"testing"

	"github.com/npillmayer/otengine/internal/synthfont"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
)

func TestCoverageFormat1(t *testing.T) {
	cov, err := ParseCoverage(synthfont.Coverage1(10, 20, 30, 40))
	require.NoError(t, err)
	for i, g := range []GlyphIndex{10, 20, 30, 40} {
		inx, ok := cov.Match(g)
		require.True(t, ok, "glyph %d should be covered", g)
		require.Equal(t, i, inx, "coverage index of glyph %d", g)
	}
	for _, g := range []GlyphIndex{0, 9, 11, 41, 65535} {
		if _, ok := cov.Match(g); ok {
			t.Errorf("glyph %d should not be covered", g)
		}
	}
}

func TestCoverageFormat2(t *testing.T) {
	cov, err := ParseCoverage(synthfont.Coverage2(
		synthfont.Range{Start: 10, End: 12, Value: 0},
		synthfont.Range{Start: 20, End: 20, Value: 3},
		synthfont.Range{Start: 30, End: 31, Value: 4},
	))
	require.NoError(t, err)
	expected := map[GlyphIndex]int{10: 0, 11: 1, 12: 2, 20: 3, 30: 4, 31: 5}
	for g, want := range expected {
		inx, ok := cov.Match(g)
		require.True(t, ok, "glyph %d should be covered", g)
		require.Equal(t, want, inx, "coverage index of glyph %d", g)
	}
	for _, g := range []GlyphIndex{9, 13, 19, 21, 29, 32} {
		if _, ok := cov.Match(g); ok {
			t.Errorf("glyph %d should not be covered", g)
		}
	}
}

func TestCoverageTruncated(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.ot")
	defer teardown()
	//
	full := synthfont.Coverage1(10, 20, 30, 40)
	if _, err := ParseCoverage(Data(full).Slice(0, 6)); err == nil {
		t.Errorf("expected truncated coverage table to fail parsing")
	}
	if _, err := ParseCoverage(Data{}); err == nil {
		t.Errorf("expected empty coverage table to fail parsing")
	}
}

func TestClassDefFormat1(t *testing.T) {
	cdef, err := ParseClassDef(synthfont.ClassDef1(10, 1, 2, 1))
	require.NoError(t, err)
	require.Equal(t, 1, cdef.Lookup(10))
	require.Equal(t, 2, cdef.Lookup(11))
	require.Equal(t, 1, cdef.Lookup(12))
	require.Equal(t, 0, cdef.Lookup(9), "glyph below range gets default class")
	require.Equal(t, 0, cdef.Lookup(13), "glyph above range gets default class")
}

func TestClassDefFormat2(t *testing.T) {
	cdef, err := ParseClassDef(synthfont.ClassDef2(
		synthfont.Range{Start: 5, End: 9, Value: 2},
		synthfont.Range{Start: 20, End: 22, Value: 3},
	))
	require.NoError(t, err)
	require.Equal(t, 2, cdef.Lookup(5))
	require.Equal(t, 2, cdef.Lookup(9))
	require.Equal(t, 3, cdef.Lookup(21))
	require.Equal(t, 0, cdef.Lookup(10), "unlisted glyph gets default class")
	require.Equal(t, 0, cdef.Lookup(4))
}

func TestLookupParsing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.ot")
	defer teardown()
	//
	sub1 := synthfont.SingleSubst1(synthfont.Coverage1(10), 5)
	sub2 := synthfont.SingleSubst1(synthfont.Coverage1(20), 7)
	list, err := ParseLookupList(synthfont.LookupList(
		synthfont.Lookup(uint16(GSubLookupTypeSingle), 0x0008, sub1, sub2),
	))
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	lookup, err := list.Lookup(0)
	require.NoError(t, err)
	require.Equal(t, GSubLookupTypeSingle, lookup.Type)
	require.Equal(t, LOOKUP_FLAG_IGNORE_MARKS, lookup.Flag)
	require.Equal(t, 2, lookup.SubtableCount())
	require.Equal(t, uint16(1), lookup.Subtable(0).U16(0), "subtable 0 format")
	require.Equal(t, uint16(5), lookup.Subtable(0).U16(4), "subtable 0 delta")
	require.Equal(t, uint16(7), lookup.Subtable(1).U16(4), "subtable 1 delta")
	//
	if _, err := list.Lookup(1); err == nil {
		t.Errorf("expected out-of-range lookup index to fail")
	}
}

func TestLayoutTableNavigation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.ot")
	defer teardown()
	//
	gsub := synthfont.LayoutTable(
		[]synthfont.ScriptEntry{
			{Tag: "arab", RequiredFeature: -1, Features: []uint16{0, 1}},
			{Tag: "latn", RequiredFeature: 1, Features: []uint16{0}},
		},
		[]synthfont.FeatureEntry{
			{Tag: "ccmp", Lookups: []uint16{0, 2}},
			{Tag: "liga", Lookups: []uint16{1}},
		},
		synthfont.LookupList(
			synthfont.Lookup(1, 0, synthfont.SingleSubst1(synthfont.Coverage1(1), 1)),
			synthfont.Lookup(1, 0, synthfont.SingleSubst1(synthfont.Coverage1(2), 1)),
			synthfont.Lookup(1, 0, synthfont.SingleSubst1(synthfont.Coverage1(3), 1)),
		),
	)
	table, err := ParseLayoutTable(gsub)
	require.NoError(t, err)
	require.Equal(t, []Tag{T("arab"), T("latn")}, table.ScriptList.Tags())
	require.Equal(t, 3, table.LookupList.Len())
	//
	script, ok := table.Script(T("arab"))
	require.True(t, ok)
	langSys, ok := script.LangSys(T("URD ")) // unlisted: falls back to default
	require.True(t, ok)
	require.Equal(t, -1, langSys.Required)
	require.Equal(t, []int{0, 1}, langSys.FeatureIndices)
	//
	script, ok = table.Script(T("latn"))
	require.True(t, ok)
	langSys, ok = script.LangSys(T("dflt"))
	require.True(t, ok)
	require.Equal(t, 1, langSys.Required)
	//
	feature, ok := table.FeatureRecord(0)
	require.True(t, ok)
	require.Equal(t, T("ccmp"), feature.Tag)
	require.Equal(t, []uint16{0, 2}, feature.LookupIndices)
	//
	if _, ok := table.Script(T("grek")); ok {
		t.Errorf("expected script grek to be absent")
	}
	if _, ok := table.FeatureRecord(7); ok {
		t.Errorf("expected feature record 7 to be absent")
	}
}

func TestFontParse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "otengine.ot")
	defer teardown()
	//
	gsub := synthfont.LayoutTable(
		[]synthfont.ScriptEntry{{Tag: "DFLT", RequiredFeature: -1, Features: []uint16{0}}},
		[]synthfont.FeatureEntry{{Tag: "liga", Lookups: []uint16{0}}},
		synthfont.LookupList(
			synthfont.Lookup(1, 0, synthfont.SingleSubst1(synthfont.Coverage1(1), 1)),
		),
	)
	gdef := synthfont.GDEF(synthfont.ClassDef1(1, 1, 1, 3), nil)
	font := synthfont.SFNT(map[string][]byte{"GSUB": gsub, "GDEF": gdef})
	otf, err := Parse(font)
	require.NoError(t, err)
	require.NotNil(t, otf.GSub)
	require.NotNil(t, otf.GDef)
	require.Nil(t, otf.GPos)
	require.Equal(t, 2, len(otf.TableTags()))
	require.False(t, otf.Table(T("GSUB")).IsVoid())
	require.True(t, otf.Table(T("cmap")).IsVoid())
}
