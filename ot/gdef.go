package ot

// GDefTable, the Glyph Definition table, provides various glyph properties
// used in OpenType layout processing.
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/gdef)
//
// The engine consumes three of its sub-tables: the glyph class definition
// (seeding glyph traits), the mark attachment class definition and the mark
// glyph sets (both honored by the locator's ignore rules).
type GDefTable struct {
	Version            uint32
	GlyphClassDef      ClassDefinitions
	MarkAttachClassDef ClassDefinitions
	markGlyphSets      []Coverage
}

// ParseGDef interprets a segment as a GDEF table.
func ParseGDef(b Data) (*GDefTable, error) {
	if b.Size() < 12 {
		return nil, ErrTruncatedTable
	}
	g := &GDefTable{Version: b.U32(0)}
	if major := b.U16(0); major != 1 {
		return nil, errFontFormat("unsupported GDEF table version")
	}
	var err error
	if classDefOffset := int(b.U16(4)); classDefOffset > 0 {
		if g.GlyphClassDef, err = ParseClassDef(b.Subdata(classDefOffset)); err != nil {
			return nil, err
		}
	}
	if markAttachOffset := int(b.U16(10)); markAttachOffset > 0 {
		if g.MarkAttachClassDef, err = ParseClassDef(b.Subdata(markAttachOffset)); err != nil {
			return nil, err
		}
	}
	if g.Version >= 0x00010002 && b.Size() >= 14 {
		if markGlyphSetsOffset := int(b.U16(12)); markGlyphSetsOffset > 0 {
			if err = g.parseMarkGlyphSets(b.Subdata(markGlyphSetsOffset)); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// MarkGlyphSets table:
//
// | Type     | Name                            |
// |----------|---------------------------------|
// | uint16   | format                          |
// | uint16   | markGlyphSetCount               |
// | Offset32 | coverageOffsets[markGlyphSetCount] |
func (g *GDefTable) parseMarkGlyphSets(b Data) error {
	format, err := b.ReadU16(0)
	if err != nil {
		return err
	}
	if format != 1 {
		tracer().Errorf("unsupported MarkGlyphSets format %d, ignoring", format)
		return nil
	}
	count := int(b.U16(2))
	if _, err := b.view(4, count*4); count > 0 && err != nil {
		return err
	}
	g.markGlyphSets = make([]Coverage, count)
	for i := range count {
		cov, err := ParseCoverage(b.Subdata(int(b.U32(4 + i*4))))
		if err != nil {
			return err
		}
		g.markGlyphSets[i] = cov
	}
	return nil
}

// MarkGlyphSetCount returns the number of mark glyph sets, 0 for GDEF
// versions before 1.2.
func (g *GDefTable) MarkGlyphSetCount() int {
	return len(g.markGlyphSets)
}

// MarkGlyphSetCovers reports whether mark glyph set #setIndex contains a
// glyph. Out-of-range set indices cover nothing.
func (g *GDefTable) MarkGlyphSetCovers(setIndex int, glyph GlyphIndex) bool {
	if g == nil || setIndex < 0 || setIndex >= len(g.markGlyphSets) {
		return false
	}
	return g.markGlyphSets[setIndex].Contains(glyph)
}
