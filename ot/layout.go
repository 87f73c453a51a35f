package ot

/*
From https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2:

OpenType Layout consists of five tables: the Glyph Substitution table (GSUB),
the Glyph Positioning table (GPOS), the Baseline table (BASE),
the Justification table (JSTF), and the Glyph Definition table (GDEF).
These tables use some of the same data formats.
*/

import "sort"

// LayoutTableLookupFlag is a flag type for layout tables (GPOS and GSUB).
type LayoutTableLookupFlag uint16

// Lookup flags of layout tables (GPOS and GSUB)
const ( // LookupFlag bit enumeration
	// Note that the RIGHT_TO_LEFT flag is used only for GPOS type 3 lookups and is ignored
	// otherwise. It is not used by client software in determining text direction.
	LOOKUP_FLAG_RIGHT_TO_LEFT             LayoutTableLookupFlag = 0x0001
	LOOKUP_FLAG_IGNORE_BASE_GLYPHS        LayoutTableLookupFlag = 0x0002 // If set, skips over base glyphs
	LOOKUP_FLAG_IGNORE_LIGATURES          LayoutTableLookupFlag = 0x0004 // If set, skips over ligatures
	LOOKUP_FLAG_IGNORE_MARKS              LayoutTableLookupFlag = 0x0008 // If set, skips over all combining marks
	LOOKUP_FLAG_USE_MARK_FILTERING_SET    LayoutTableLookupFlag = 0x0010 // If set, lookup table structure is followed by a MarkFilteringSet field
	LOOKUP_FLAG_reserved                  LayoutTableLookupFlag = 0x00E0 // For future use (set to zero)
	LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK LayoutTableLookupFlag = 0xFF00 // If not zero, skips over all marks of attachment type different from specified
)

// LayoutTableLookupType identifies the kind of work a lookup performs.
// Enum values are different for GPOS and GSUB.
type LayoutTableLookupType uint16

// GSUB lookup types
const (
	GSubLookupTypeSingle          LayoutTableLookupType = 1
	GSubLookupTypeMultiple        LayoutTableLookupType = 2
	GSubLookupTypeAlternate       LayoutTableLookupType = 3
	GSubLookupTypeLigature        LayoutTableLookupType = 4
	GSubLookupTypeContext         LayoutTableLookupType = 5
	GSubLookupTypeChainingContext LayoutTableLookupType = 6
	GSubLookupTypeExtension       LayoutTableLookupType = 7
	GSubLookupTypeReverseChaining LayoutTableLookupType = 8
)

// GPOS lookup types
const (
	GPosLookupTypeSingle          LayoutTableLookupType = 1
	GPosLookupTypePair            LayoutTableLookupType = 2
	GPosLookupTypeCursive         LayoutTableLookupType = 3
	GPosLookupTypeMarkToBase      LayoutTableLookupType = 4
	GPosLookupTypeMarkToLigature  LayoutTableLookupType = 5
	GPosLookupTypeMarkToMark      LayoutTableLookupType = 6
	GPosLookupTypeContext         LayoutTableLookupType = 7
	GPosLookupTypeChainingContext LayoutTableLookupType = 8
	GPosLookupTypeExtension       LayoutTableLookupType = 9
)

// --- Coverage table --------------------------------------------------------

// Coverage denotes an indexed set of glyphs.
// Each lookup subtable (except an Extension subtable) references a Coverage
// table, which specifies all the glyphs affected by the substitution or
// positioning operation described in the subtable. If a glyph does not appear
// in a Coverage table, the client can skip that subtable.
type Coverage struct {
	format uint16
	count  int
	data   Data // records, starting after the 4-byte header
}

// ParseCoverage interprets a segment as a coverage table (format 1 or 2).
func ParseCoverage(b Data) (Coverage, error) {
	format, err := b.ReadU16(0)
	if err != nil {
		return Coverage{}, err
	}
	count, err := b.ReadU16(2)
	if err != nil {
		return Coverage{}, err
	}
	var recordSize int
	switch format {
	case 1:
		recordSize = 2 // glyphArray[count]
	case 2:
		recordSize = 6 // rangeRecords[count]: start, end, startCoverageIndex
	default:
		return Coverage{}, errFontFormat("coverage table format")
	}
	if _, err := b.view(4, int(count)*recordSize); count > 0 && err != nil {
		return Coverage{}, err
	}
	return Coverage{format: format, count: int(count), data: b.Subdata(4)}, nil
}

// Match returns the coverage index for a glyph, and true if present.
func (c Coverage) Match(g GlyphIndex) (int, bool) {
	if c.count == 0 {
		return 0, false
	}
	if c.format == 1 {
		// glyph array, sorted ascending
		inx := sort.Search(c.count, func(i int) bool {
			return GlyphIndex(c.data.U16(i*2)) >= g
		})
		if inx < c.count && GlyphIndex(c.data.U16(inx*2)) == g {
			return inx, true
		}
		return 0, false
	}
	// range records, sorted ascending by start glyph
	inx := sort.Search(c.count, func(i int) bool {
		return GlyphIndex(c.data.U16(i*6+2)) >= g // end glyph of range i
	})
	if inx < c.count {
		start := GlyphIndex(c.data.U16(inx * 6))
		if start <= g {
			startCoverageIndex := int(c.data.U16(inx*6 + 4))
			return startCoverageIndex + int(g-start), true
		}
	}
	return 0, false
}

// Contains reports whether a glyph is present in the coverage.
func (c Coverage) Contains(g GlyphIndex) bool {
	_, ok := c.Match(g)
	return ok
}

// --- Class definition tables -----------------------------------------------

// GlyphClassDefEnum lists the glyph classes of a GDEF 'GlyphClassDef' table.
type GlyphClassDefEnum uint16

const (
	BaseGlyph      GlyphClassDefEnum = 1 // single character, spacing glyph
	LigatureGlyph  GlyphClassDefEnum = 2 // multiple character, spacing glyph
	MarkGlyph      GlyphClassDefEnum = 3 // non-spacing combining glyph
	ComponentGlyph GlyphClassDefEnum = 4 // part of single character, spacing glyph
)

// ClassDefinitions groups glyphs into classes, denoted as integer values.
//
// From the spec:
// For efficiency and ease of representation, a font developer can group glyph
// indices to form glyph classes. Class assignments vary in meaning from one
// lookup subtable to another.
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#class-definition-table)
type ClassDefinitions struct {
	format uint16
	count  int
	start  GlyphIndex // glyph ID of the first entry in a format-1 table
	data   Data       // class value array (format 1) or class range records (format 2)
}

// ParseClassDef interprets a segment as a class definition table (format 1 or 2).
func ParseClassDef(b Data) (ClassDefinitions, error) {
	format, err := b.ReadU16(0)
	if err != nil {
		return ClassDefinitions{}, err
	}
	switch format {
	case 1:
		start, err := b.ReadU16(2)
		if err != nil {
			return ClassDefinitions{}, err
		}
		count, err := b.ReadU16(4)
		if err != nil {
			return ClassDefinitions{}, err
		}
		if _, err := b.view(6, int(count)*2); count > 0 && err != nil {
			return ClassDefinitions{}, err
		}
		return ClassDefinitions{
			format: 1, count: int(count), start: GlyphIndex(start), data: b.Subdata(6),
		}, nil
	case 2:
		count, err := b.ReadU16(2)
		if err != nil {
			return ClassDefinitions{}, err
		}
		if _, err := b.view(4, int(count)*6); count > 0 && err != nil {
			return ClassDefinitions{}, err
		}
		return ClassDefinitions{format: 2, count: int(count), data: b.Subdata(4)}, nil
	}
	return ClassDefinitions{}, errFontFormat("class definition table format")
}

// Lookup returns the class defined for a glyph, or 0 (= default class).
func (cdef ClassDefinitions) Lookup(glyph GlyphIndex) int {
	if cdef.count == 0 {
		return 0
	}
	if cdef.format == 1 {
		if glyph < cdef.start || glyph >= cdef.start+GlyphIndex(cdef.count) {
			return 0
		}
		return int(cdef.data.U16(int(glyph-cdef.start) * 2))
	}
	// class range records, sorted ascending by start glyph
	inx := sort.Search(cdef.count, func(i int) bool {
		return GlyphIndex(cdef.data.U16(i*6+2)) >= glyph // end glyph of range i
	})
	if inx < cdef.count && GlyphIndex(cdef.data.U16(inx*6)) <= glyph {
		return int(cdef.data.U16(inx*6 + 4))
	}
	return 0
}

// IsVoid reports whether the class definition holds no entries.
func (cdef ClassDefinitions) IsVoid() bool {
	return cdef.count == 0
}

// --- Lookup tables ---------------------------------------------------------

// A Lookup table defines the specific conditions, type, and results of a
// substitution or positioning action that is used to implement a feature.
// Each Lookup table may contain only one type of information (LookupType),
// determined by whether the lookup is part of a GSUB or GPOS table.
type Lookup struct {
	Type             LayoutTableLookupType
	Flag             LayoutTableLookupFlag
	loc              Data  // segment of the lookup table, origin for subtable offsets
	subTables        array // array of offsets to lookup subtables
	markFilteringSet uint16
}

// viewLookup reads a Lookup from a segment. It first parses the header and
// after that the subtable offset list.
func viewLookup(b Data) (Lookup, error) {
	if b.Size() < 6 {
		return Lookup{}, ErrTruncatedTable
	}
	lookup := Lookup{loc: b}
	lookup.Type = LayoutTableLookupType(b.U16(0))
	lookup.Flag = LayoutTableLookupFlag(b.U16(2))
	var err error
	if lookup.subTables, err = parseArray16(b, 4, 2); err != nil {
		return Lookup{}, err
	}
	if lookup.Flag&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		mfs, err := b.ReadU16(6 + lookup.subTables.Len()*2)
		if err != nil {
			return Lookup{}, err
		}
		lookup.markFilteringSet = mfs
	}
	return lookup, nil
}

// SubtableCount returns the number of subtables of this lookup.
func (l Lookup) SubtableCount() int {
	return l.subTables.Len()
}

// Subtable returns the segment of subtable #i, with the subtable's start as
// its origin. Void segment on out-of-range index or corrupt offset.
func (l Lookup) Subtable(i int) Data {
	offset := l.subTables.Get(i)
	if offset.IsVoid() {
		return Data{}
	}
	return l.loc.Subdata(int(offset.U16(0)))
}

// MarkFilteringSet returns the mark filtering set index for this lookup.
// Only meaningful if LOOKUP_FLAG_USE_MARK_FILTERING_SET is set.
func (l Lookup) MarkFilteringSet() uint16 {
	return l.markFilteringSet
}

// A LookupList table contains an array of offsets to Lookup tables. The font
// developer defines the lookup sequence in the lookup array to control the
// order in which a text-processing client applies lookup data to glyph
// substitution or positioning operations.
// (See https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#lookup-list-table)
type LookupList struct {
	base    Data
	offsets array
}

// ParseLookupList interprets a segment as a lookup list.
func ParseLookupList(b Data) (LookupList, error) {
	offsets, err := parseArray16(b, 0, 2)
	if err != nil {
		return LookupList{}, err
	}
	return LookupList{base: b, offsets: offsets}, nil
}

// Len returns the number of lookups in the list.
func (ll LookupList) Len() int {
	return ll.offsets.Len()
}

// Lookup returns lookup #i of the list.
func (ll LookupList) Lookup(i int) (Lookup, error) {
	offset := ll.offsets.Get(i)
	if offset.IsVoid() {
		return Lookup{}, errFontFormat("lookup list index out of range")
	}
	return viewLookup(ll.base.Subdata(int(offset.U16(0))))
}

// SequenceLookupRecord identifies a nested lookup to apply at a position
// within a matched input sequence.
type SequenceLookupRecord struct {
	SequenceIndex   uint16
	LookupListIndex uint16
}

// --- Layout tables ---------------------------------------------------------

// LayoutTable is a base type for the layout tables GSUB and GPOS, which share
// their top-level structure: a script list, a feature list and a lookup list.
type LayoutTable struct {
	base        Data
	ScriptList  TagRecordMap
	FeatureList TagRecordMap
	LookupList  LookupList
}

// ParseLayoutTable interprets a segment as a GSUB or GPOS table
// (header version 1.0 or 1.1).
func ParseLayoutTable(b Data) (*LayoutTable, error) {
	major, err := b.ReadU16(0)
	if err != nil {
		return nil, err
	}
	minor := b.U16(2)
	if major != 1 || minor > 1 {
		return nil, errFontFormat("unsupported layout table version")
	}
	t := &LayoutTable{base: b}
	scriptOffset := int(b.U16(4))
	featureOffset := int(b.U16(6))
	lookupOffset := int(b.U16(8))
	if scriptOffset > 0 {
		scripts := b.Subdata(scriptOffset)
		t.ScriptList = parseTagRecordMap(scripts, 0, scripts, "ScriptList", "Script")
	}
	if featureOffset > 0 {
		features := b.Subdata(featureOffset)
		t.FeatureList = parseTagRecordMap(features, 0, features, "FeatureList", "Feature")
	}
	if lookupOffset > 0 {
		if t.LookupList, err = ParseLookupList(b.Subdata(lookupOffset)); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// --- Tag record map --------------------------------------------------------

// TagRecordMap is a map-like view on sub-tables which map a tag to a
// referenced table:
//
// | Type    | Name         | Descr.                  |
// |---------|--------------|-------------------------|
// | uint16  | Count        | # records               |
// | Records | Array[Count] | tag + offset per record |
//
// The script list, the feature list, and the language-system records of a
// script table all share this shape.
type TagRecordMap struct {
	name    string
	target  string
	base    Data
	records array
}

// parseTagRecordMap creates a map-like interpretation on a segment. The
// record array is read at `offset` within b; destination offsets found in the
// records are resolved relative to `base`.
func parseTagRecordMap(b Data, offset int, base Data, name, target string) TagRecordMap {
	const recordSize = 6 // Tag = 4 bytes + offset value = 2 bytes
	records, err := parseArray16(b, offset, recordSize)
	if err != nil {
		tracer().Errorf("corrupt %s table: %v", name, err)
		return TagRecordMap{}
	}
	return TagRecordMap{name: name, target: target, base: base, records: records}
}

// Len returns the number of tag records in the map.
func (m TagRecordMap) Len() int {
	return m.records.Len()
}

// Name returns the OpenType name of the table this map is part of.
func (m TagRecordMap) Name() string {
	return m.name
}

// Get returns the tag and destination segment of record #i.
func (m TagRecordMap) Get(i int) (Tag, Data) {
	rec := m.records.Get(i)
	if rec.IsVoid() {
		return 0, Data{}
	}
	tag := MakeTag(rec.Bytes()[:4])
	return tag, m.base.Subdata(int(rec.U16(4)))
}

// LookupTag returns the segment a given tag maps to, or a void segment.
//
// TODO binary search for large N; record counts observed in practice are small
func (m TagRecordMap) LookupTag(tag Tag) Data {
	for i := 0; i < m.records.Len(); i++ {
		t, dest := m.Get(i)
		if t == tag {
			tracer().Debugf("%s record map found tag (%s)", m.name, tag)
			return dest
		}
	}
	return Data{}
}

// Tags returns all the tags which the map uses as keys, in record order.
func (m TagRecordMap) Tags() []Tag {
	tags := make([]Tag, 0, m.records.Len())
	for i := 0; i < m.records.Len(); i++ {
		t, _ := m.Get(i)
		tags = append(tags, t)
	}
	return tags
}

// --- Scripts, language systems and features --------------------------------

// Script is the view on a script table: an optional default language system
// plus language-system records keyed by tag.
type Script struct {
	base    Data
	langSys TagRecordMap
}

// Script returns the script table for a script tag, if present in the layout
// table's script list.
func (t *LayoutTable) Script(tag Tag) (Script, bool) {
	if t == nil {
		return Script{}, false
	}
	b := t.ScriptList.LookupTag(tag)
	if b.IsVoid() {
		return Script{}, false
	}
	return Script{base: b, langSys: parseTagRecordMap(b, 2, b, "Script", "LangSys")}, true
}

// LangSysTags returns the language-system tags the script table lists.
func (s Script) LangSysTags() []Tag {
	return s.langSys.Tags()
}

// LangSys returns the language system for a tag, falling back to the script's
// default language system for an unlisted tag. ok is false if neither exists.
func (s Script) LangSys(tag Tag) (LangSys, bool) {
	if b := s.langSys.LookupTag(tag); !b.IsVoid() {
		return viewLangSys(b)
	}
	if defaultOffset := int(s.base.U16(0)); defaultOffset > 0 {
		return viewLangSys(s.base.Subdata(defaultOffset))
	}
	return LangSys{}, false
}

// LangSys is a language-system table: an optional required feature plus
// indices into the layout table's feature list.
type LangSys struct {
	Required       int // index of required feature, or -1
	FeatureIndices []int
}

func viewLangSys(b Data) (LangSys, bool) {
	required, err := b.ReadU16(2)
	if err != nil {
		return LangSys{}, false
	}
	indices, err := parseArray16(b, 4, 2)
	if err != nil {
		return LangSys{}, false
	}
	ls := LangSys{Required: -1}
	if required != 0xFFFF {
		ls.Required = int(required)
	}
	ls.FeatureIndices = make([]int, indices.Len())
	for i := range ls.FeatureIndices {
		ls.FeatureIndices[i] = int(indices.Get(i).U16(0))
	}
	return ls, true
}

// Feature is the view on a feature table: the lookup-list indices implementing
// the feature.
type Feature struct {
	Tag           Tag
	LookupIndices []uint16
}

// FeatureRecord returns feature #i of the layout table's feature list.
func (t *LayoutTable) FeatureRecord(i int) (Feature, bool) {
	if t == nil || i < 0 || i >= t.FeatureList.Len() {
		return Feature{}, false
	}
	tag, b := t.FeatureList.Get(i)
	if b.IsVoid() {
		return Feature{}, false
	}
	indices, err := parseArray16(b, 2, 2) // skip featureParamsOffset
	if err != nil {
		return Feature{}, false
	}
	f := Feature{Tag: tag, LookupIndices: make([]uint16, indices.Len())}
	for j := range f.LookupIndices {
		f.LookupIndices[j] = indices.Get(j).U16(0)
	}
	return f, true
}
