// Package synthfont assembles synthetic OpenType table fragments for tests.
//
// All builders return raw big-endian bytes with the built table's start at
// offset 0, so results nest: a coverage table built here can be handed to a
// subtable builder, which records the offset it placed the coverage at.
package synthfont

// Buf accumulates big-endian binary data.
type Buf []byte

// U16 appends 16-bit values.
func (b *Buf) U16(values ...uint16) {
	for _, v := range values {
		*b = append(*b, byte(v>>8), byte(v))
	}
}

// I16 appends signed 16-bit values.
func (b *Buf) I16(values ...int16) {
	for _, v := range values {
		b.U16(uint16(v))
	}
}

// U32 appends 32-bit values.
func (b *Buf) U32(values ...uint32) {
	for _, v := range values {
		*b = append(*b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

// Tag appends a 4-character tag.
func (b *Buf) Tag(tag string) {
	for len(tag) < 4 {
		tag += " "
	}
	*b = append(*b, tag[:4]...)
}

// Raw appends bytes verbatim.
func (b *Buf) Raw(data []byte) {
	*b = append(*b, data...)
}

// --- Coverage and class definitions ----------------------------------------

// Coverage1 builds a format-1 coverage table. Glyphs must be sorted ascending.
func Coverage1(glyphs ...uint16) []byte {
	var b Buf
	b.U16(1, uint16(len(glyphs)))
	b.U16(glyphs...)
	return b
}

// Range is a (start, end, value) triple for range-based tables; value is the
// start coverage index (coverage format 2) or the class (class def format 2).
type Range struct {
	Start, End, Value uint16
}

// Coverage2 builds a format-2 coverage table. Ranges must be sorted ascending.
func Coverage2(ranges ...Range) []byte {
	var b Buf
	b.U16(2, uint16(len(ranges)))
	for _, r := range ranges {
		b.U16(r.Start, r.End, r.Value)
	}
	return b
}

// ClassDef1 builds a format-1 class definition: classes[i] is the class of
// glyph start+i.
func ClassDef1(start uint16, classes ...uint16) []byte {
	var b Buf
	b.U16(1, start, uint16(len(classes)))
	b.U16(classes...)
	return b
}

// ClassDef2 builds a format-2 class definition. Ranges must be sorted ascending.
func ClassDef2(ranges ...Range) []byte {
	var b Buf
	b.U16(2, uint16(len(ranges)))
	for _, r := range ranges {
		b.U16(r.Start, r.End, r.Value)
	}
	return b
}

// --- GDEF ------------------------------------------------------------------

// GDEF builds a GDEF table. glyphClasses and markAttach are class definition
// tables (either may be nil). With markSets non-empty, a version 1.2 header
// and a MarkGlyphSets table (one coverage per set) are emitted.
func GDEF(glyphClasses, markAttach []byte, markSets ...[]byte) []byte {
	var b Buf
	headerSize := 12
	if len(markSets) > 0 {
		b.U32(0x00010002)
		headerSize = 14
	} else {
		b.U32(0x00010000)
	}
	at := headerSize
	classDefOffset, at := place(&at, glyphClasses)
	markAttachOffset, at := place(&at, markAttach)
	b.U16(uint16(classDefOffset)) // glyphClassDefOffset
	b.U16(0, 0)                   // attachList, ligCaretList
	b.U16(uint16(markAttachOffset))
	if len(markSets) > 0 {
		b.U16(uint16(at)) // markGlyphSetsDefOffset
	}
	b.Raw(glyphClasses)
	b.Raw(markAttach)
	if len(markSets) > 0 {
		// MarkGlyphSets: format, count, coverageOffsets32[count]
		var mgs Buf
		mgs.U16(1, uint16(len(markSets)))
		covAt := 4 + len(markSets)*4
		for _, set := range markSets {
			mgs.U32(uint32(covAt))
			covAt += len(set)
		}
		for _, set := range markSets {
			mgs.Raw(set)
		}
		b.Raw(mgs)
	}
	return b
}

// place reserves room for a nested table and returns its offset (0 for nil).
func place(at *int, table []byte) (int, int) {
	if len(table) == 0 {
		return 0, *at
	}
	offset := *at
	*at += len(table)
	return offset, *at
}

// --- GSUB subtables --------------------------------------------------------

// SingleSubst1 builds a GSUB type-1 format-1 subtable (glyph += delta).
func SingleSubst1(coverage []byte, delta uint16) []byte {
	var b Buf
	b.U16(1, 6, delta)
	b.Raw(coverage)
	return b
}

// SingleSubst2 builds a GSUB type-1 format-2 subtable (explicit substitutes,
// indexed by coverage index).
func SingleSubst2(coverage []byte, substitutes ...uint16) []byte {
	var b Buf
	covOffset := 6 + len(substitutes)*2
	b.U16(2, uint16(covOffset), uint16(len(substitutes)))
	b.U16(substitutes...)
	b.Raw(coverage)
	return b
}

// MultipleSubst builds a GSUB type-2 format-1 subtable; sequences are indexed
// by coverage index.
func MultipleSubst(coverage []byte, sequences ...[]uint16) []byte {
	var b Buf
	seqAt := 6 + len(sequences)*2
	sequenceTables := make([][]byte, len(sequences))
	for i, seq := range sequences {
		var s Buf
		s.U16(uint16(len(seq)))
		s.U16(seq...)
		sequenceTables[i] = s
	}
	covOffset := seqAt
	for _, s := range sequenceTables {
		covOffset += len(s)
	}
	b.U16(1, uint16(covOffset), uint16(len(sequences)))
	for _, s := range sequenceTables {
		b.U16(uint16(seqAt))
		seqAt += len(s)
	}
	for _, s := range sequenceTables {
		b.Raw(s)
	}
	b.Raw(coverage)
	return b
}

// AlternateSubst builds a GSUB type-3 format-1 subtable; alternate sets are
// indexed by coverage index.
func AlternateSubst(coverage []byte, alternateSets ...[]uint16) []byte {
	// same wire shape as multiple substitution
	sub := MultipleSubst(coverage, alternateSets...)
	sub[1] = 1 // format stays 1; wire shape identical
	return sub
}

// Ligature describes one ligature rule: the first component is implied by the
// coverage table, Components list the remaining glyphs.
type Ligature struct {
	Glyph      uint16
	Components []uint16
}

// LigatureSubst builds a GSUB type-4 format-1 subtable; ligature sets are
// indexed by coverage index.
func LigatureSubst(coverage []byte, ligatureSets ...[]Ligature) []byte {
	setTables := make([][]byte, len(ligatureSets))
	for i, set := range ligatureSets {
		var s Buf
		s.U16(uint16(len(set)))
		ligAt := 2 + len(set)*2
		ligTables := make([][]byte, len(set))
		for j, lig := range set {
			var l Buf
			l.U16(lig.Glyph, uint16(len(lig.Components)+1))
			l.U16(lig.Components...)
			ligTables[j] = l
		}
		for _, l := range ligTables {
			s.U16(uint16(ligAt))
			ligAt += len(l)
		}
		for _, l := range ligTables {
			s.Raw(l)
		}
		setTables[i] = s
	}
	var b Buf
	setAt := 6 + len(setTables)*2
	covOffset := setAt
	for _, s := range setTables {
		covOffset += len(s)
	}
	b.U16(1, uint16(covOffset), uint16(len(setTables)))
	for _, s := range setTables {
		b.U16(uint16(setAt))
		setAt += len(s)
	}
	for _, s := range setTables {
		b.Raw(s)
	}
	b.Raw(coverage)
	return b
}

// SequenceLookup is a (sequenceIndex, lookupListIndex) pair of a context rule.
type SequenceLookup struct {
	SequenceIndex uint16
	LookupIndex   uint16
}

// ChainContext3 builds a chained sequence context subtable, format 3.
// Backtrack coverages are given in reverse text order, as stored in fonts.
func ChainContext3(backtrack, input, lookahead [][]byte, records ...SequenceLookup) []byte {
	var b Buf
	b.U16(3)
	coverages := make([][]byte, 0, len(backtrack)+len(input)+len(lookahead))
	headerSize := 2 + // format
		2 + len(backtrack)*2 +
		2 + len(input)*2 +
		2 + len(lookahead)*2 +
		2 + len(records)*4
	covAt := headerSize
	writeOffsets := func(covs [][]byte) {
		b.U16(uint16(len(covs)))
		for _, cov := range covs {
			b.U16(uint16(covAt))
			covAt += len(cov)
			coverages = append(coverages, cov)
		}
	}
	writeOffsets(backtrack)
	writeOffsets(input)
	writeOffsets(lookahead)
	b.U16(uint16(len(records)))
	for _, rec := range records {
		b.U16(rec.SequenceIndex, rec.LookupIndex)
	}
	for _, cov := range coverages {
		b.Raw(cov)
	}
	return b
}

// Context3 builds a sequence context subtable, format 3.
func Context3(input [][]byte, records ...SequenceLookup) []byte {
	var b Buf
	b.U16(3, uint16(len(input)), uint16(len(records)))
	covAt := 6 + len(input)*2 + len(records)*4
	for _, cov := range input {
		b.U16(uint16(covAt))
		covAt += len(cov)
	}
	for _, rec := range records {
		b.U16(rec.SequenceIndex, rec.LookupIndex)
	}
	for _, cov := range input {
		b.Raw(cov)
	}
	return b
}

// Extension builds an extension subtable (format 1) wrapping an inner
// subtable of the given lookup type.
func Extension(innerType uint16, inner []byte) []byte {
	var b Buf
	b.U16(1, innerType)
	b.U32(8)
	b.Raw(inner)
	return b
}

// --- GPOS subtables --------------------------------------------------------

// SinglePos1 builds a GPOS type-1 format-1 subtable. The value record must
// match valueFormat (one int16 per set format bit, in bit order).
func SinglePos1(coverage []byte, valueFormat uint16, value ...int16) []byte {
	var b Buf
	covOffset := 6 + len(value)*2
	b.U16(1, uint16(covOffset), valueFormat)
	b.I16(value...)
	b.Raw(coverage)
	return b
}

// PairValue is one pair record of a pair-positioning subtable.
type PairValue struct {
	SecondGlyph uint16
	Value1      []int16
	Value2      []int16
}

// PairPos1 builds a GPOS type-2 format-1 subtable; pair sets are indexed by
// the coverage index of the first glyph.
func PairPos1(coverage []byte, valueFormat1, valueFormat2 uint16, pairSets ...[]PairValue) []byte {
	setTables := make([][]byte, len(pairSets))
	for i, set := range pairSets {
		var s Buf
		s.U16(uint16(len(set)))
		for _, pv := range set {
			s.U16(pv.SecondGlyph)
			s.I16(pv.Value1...)
			s.I16(pv.Value2...)
		}
		setTables[i] = s
	}
	var b Buf
	setAt := 10 + len(setTables)*2
	covOffset := setAt
	for _, s := range setTables {
		covOffset += len(s)
	}
	b.U16(1, uint16(covOffset), valueFormat1, valueFormat2, uint16(len(setTables)))
	for _, s := range setTables {
		b.U16(uint16(setAt))
		setAt += len(s)
	}
	for _, s := range setTables {
		b.Raw(s)
	}
	b.Raw(coverage)
	return b
}

// Anchor is a design-unit anchor point.
type Anchor struct {
	X, Y int16
}

// MarkRecord assigns a mark glyph (by mark coverage index) a class and anchor.
type MarkRecord struct {
	Class  uint16
	Anchor Anchor
}

// MarkToBase builds a GPOS type-4 format-1 subtable. baseAnchors holds one
// row per base coverage index with markClassCount anchors each.
func MarkToBase(markCoverage, baseCoverage []byte, markClassCount uint16,
	marks []MarkRecord, baseAnchors [][]Anchor) []byte {
	//
	markArray := buildMarkArray(marks)
	baseArray := buildAnchorMatrix(len(baseAnchors), int(markClassCount), baseAnchors)
	var b Buf
	at := 12
	markCovOffset, at := place(&at, markCoverage)
	baseCovOffset, at := place(&at, baseCoverage)
	markArrayOffset, at := place(&at, markArray)
	baseArrayOffset, _ := place(&at, baseArray)
	b.U16(1, uint16(markCovOffset), uint16(baseCovOffset), markClassCount,
		uint16(markArrayOffset), uint16(baseArrayOffset))
	b.Raw(markCoverage)
	b.Raw(baseCoverage)
	b.Raw(markArray)
	b.Raw(baseArray)
	return b
}

func buildMarkArray(marks []MarkRecord) []byte {
	var b Buf
	b.U16(uint16(len(marks)))
	anchorAt := 2 + len(marks)*4
	for _, m := range marks {
		b.U16(m.Class, uint16(anchorAt))
		anchorAt += 6
	}
	for _, m := range marks {
		b.U16(1)
		b.I16(m.Anchor.X, m.Anchor.Y)
	}
	return b
}

func buildAnchorMatrix(rows, cols int, anchors [][]Anchor) []byte {
	var b Buf
	b.U16(uint16(rows))
	anchorAt := 2 + rows*cols*2
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.U16(uint16(anchorAt))
			anchorAt += 6
		}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			b.U16(1)
			b.I16(anchors[i][j].X, anchors[i][j].Y)
		}
	}
	return b
}

// --- Lookups, lookup lists, layout tables ----------------------------------

// Lookup builds a lookup table from subtables.
func Lookup(lookupType, flag uint16, subtables ...[]byte) []byte {
	var b Buf
	b.U16(lookupType, flag, uint16(len(subtables)))
	subAt := 6 + len(subtables)*2
	if flag&0x0010 != 0 { // USE_MARK_FILTERING_SET: room for the set index
		subAt += 2
	}
	for _, sub := range subtables {
		b.U16(uint16(subAt))
		subAt += len(sub)
	}
	if flag&0x0010 != 0 {
		b.U16(0) // markFilteringSet index; tests overwrite if needed
	}
	for _, sub := range subtables {
		b.Raw(sub)
	}
	return b
}

// LookupList builds a lookup list from lookups.
func LookupList(lookups ...[]byte) []byte {
	var b Buf
	b.U16(uint16(len(lookups)))
	lookupAt := 2 + len(lookups)*2
	for _, l := range lookups {
		b.U16(uint16(lookupAt))
		lookupAt += len(l)
	}
	for _, l := range lookups {
		b.Raw(l)
	}
	return b
}

// FeatureEntry describes one feature of a layout table.
type FeatureEntry struct {
	Tag     string
	Lookups []uint16
}

// ScriptEntry describes one script with a single default language system.
type ScriptEntry struct {
	Tag             string
	RequiredFeature int // index into the feature list, or -1
	Features        []uint16
}

// LayoutTable assembles a complete GSUB or GPOS table with a script list, a
// feature list and a lookup list.
func LayoutTable(scripts []ScriptEntry, features []FeatureEntry, lookupList []byte) []byte {
	scriptList := buildScriptList(scripts)
	featureList := buildFeatureList(features)
	var b Buf
	at := 10
	scriptOffset, at := place(&at, scriptList)
	featureOffset, at := place(&at, featureList)
	lookupOffset, _ := place(&at, lookupList)
	b.U16(1, 0) // version 1.0
	b.U16(uint16(scriptOffset), uint16(featureOffset), uint16(lookupOffset))
	b.Raw(scriptList)
	b.Raw(featureList)
	b.Raw(lookupList)
	return b
}

func buildScriptList(scripts []ScriptEntry) []byte {
	scriptTables := make([][]byte, len(scripts))
	for i, script := range scripts {
		// Script table with a default language system only
		var langSys Buf
		langSys.U16(0) // lookupOrderOffset
		if script.RequiredFeature >= 0 {
			langSys.U16(uint16(script.RequiredFeature))
		} else {
			langSys.U16(0xFFFF)
		}
		langSys.U16(uint16(len(script.Features)))
		langSys.U16(script.Features...)
		var s Buf
		s.U16(4, 0) // defaultLangSysOffset, langSysCount
		s.Raw(langSys)
		scriptTables[i] = s
	}
	var b Buf
	b.U16(uint16(len(scripts)))
	scriptAt := 2 + len(scripts)*6
	for i, script := range scripts {
		b.Tag(script.Tag)
		b.U16(uint16(scriptAt))
		scriptAt += len(scriptTables[i])
	}
	for _, s := range scriptTables {
		b.Raw(s)
	}
	return b
}

func buildFeatureList(features []FeatureEntry) []byte {
	featureTables := make([][]byte, len(features))
	for i, feature := range features {
		var f Buf
		f.U16(0, uint16(len(feature.Lookups))) // featureParamsOffset, lookupIndexCount
		f.U16(feature.Lookups...)
		featureTables[i] = f
	}
	var b Buf
	b.U16(uint16(len(features)))
	featureAt := 2 + len(features)*6
	for i, feature := range features {
		b.Tag(feature.Tag)
		b.U16(uint16(featureAt))
		featureAt += len(featureTables[i])
	}
	for _, f := range featureTables {
		b.Raw(f)
	}
	return b
}

// SFNT assembles a minimal single-font table directory around raw tables.
// Checksums are left zero; the parser does not verify them.
func SFNT(tables map[string][]byte) []byte {
	var b Buf
	b.U32(0x00010000)
	b.U16(uint16(len(tables)), 0, 0, 0)
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	// deterministic order
	for i := 0; i < len(tags); i++ {
		for j := i + 1; j < len(tags); j++ {
			if tags[j] < tags[i] {
				tags[i], tags[j] = tags[j], tags[i]
			}
		}
	}
	at := 12 + len(tags)*16
	for _, tag := range tags {
		b.Tag(tag)
		b.U32(0) // checksum
		b.U32(uint32(at))
		b.U32(uint32(len(tables[tag])))
		at += len(tables[tag])
	}
	for _, tag := range tags {
		b.Raw(tables[tag])
	}
	return b
}
