package otlayout

import "github.com/npillmayer/otengine/ot"

// GSUB subtable appliers. Every applier operates at the locator's current
// position and reports whether it rewrote the album there. Out-of-range
// indices are treated as not matched; impossible counts (an empty output
// sequence, a zero component count) surface ErrMalformedSubtable, and reads
// past a table's end surface ot.ErrTruncatedTable.

// applySingleSubst applies a Single Substitution subtable.
//
// Format 1 calculates output glyphs by adding a constant delta to the input
// glyph ID. Format 2 provides an array of output glyphs indexed by coverage
// index.
func (proc *Processor) applySingleSubst(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	cov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	at := proc.locator.Index()
	covIndex, ok := cov.Match(proc.glyphAt(at))
	if !ok {
		return false, nil
	}
	switch format {
	case 1:
		delta, err := subtable.ReadU16(4)
		if err != nil {
			return false, err
		}
		// deltaGlyphID arithmetic is modulo 65536
		glyph := ot.GlyphIndex(uint16(proc.glyphAt(at)) + delta)
		tracer().Debugf("GSUB 1.1: subst %d for %d", glyph, proc.glyphAt(at))
		proc.setGlyph(at, glyph)
		return true, nil
	case 2:
		glyphCount := int(subtable.U16(4))
		if covIndex >= glyphCount {
			return false, nil
		}
		glyph, err := subtable.ReadU16(6 + covIndex*2)
		if err != nil {
			return false, err
		}
		tracer().Debugf("GSUB 1.2: subst %d for %d", glyph, proc.glyphAt(at))
		proc.setGlyph(at, ot.GlyphIndex(glyph))
		return true, nil
	}
	tracer().Debugf("single substitution format %d not supported", format)
	return false, nil
}

// applyMultipleSubst applies a Multiple Substitution subtable (format 1): one
// glyph is replaced by a sequence of glyphs. The album grows by the surplus
// slot count; the locator's range is extended accordingly.
func (proc *Processor) applyMultipleSubst(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 1 {
		tracer().Debugf("multiple substitution format %d not supported", format)
		return false, nil
	}
	cov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	at := proc.locator.Index()
	covIndex, ok := cov.Match(proc.glyphAt(at))
	if !ok {
		return false, nil
	}
	sequenceCount := int(subtable.U16(4))
	if covIndex >= sequenceCount {
		return false, nil
	}
	seqOffset, err := subtable.ReadU16(6 + covIndex*2)
	if err != nil {
		return false, err
	}
	sequence := subtable.Subdata(int(seqOffset))
	glyphCount := int(sequence.U16(0))
	if glyphCount == 0 {
		// the spec requires at least one output glyph
		return false, ErrMalformedSubtable
	}
	if _, err := sequence.ReadU16(2 + glyphCount*2 - 2); err != nil {
		return false, err
	}
	association := proc.album.Association(at)
	proc.setGlyph(at, ot.GlyphIndex(sequence.U16(2)))
	if glyphCount > 1 {
		proc.locator.ReserveGlyphs(glyphCount - 1)
		for i := 1; i < glyphCount; i++ {
			slot := at + i
			proc.setGlyph(slot, ot.GlyphIndex(sequence.U16(2+i*2)))
			proc.album.SetFeatureMask(slot, proc.album.FeatureMask(at))
			proc.album.SetAssociation(slot, association)
		}
	}
	tracer().Debugf("GSUB 2.1: subst %d glyphs for %d", glyphCount, proc.glyphAt(at))
	return true, nil
}

// applyAlternateSubst applies an Alternate Substitution subtable (format 1).
// Without a caller-selected alternate, the first alternate is taken.
func (proc *Processor) applyAlternateSubst(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 1 {
		tracer().Debugf("alternate substitution format %d not supported", format)
		return false, nil
	}
	cov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	at := proc.locator.Index()
	covIndex, ok := cov.Match(proc.glyphAt(at))
	if !ok {
		return false, nil
	}
	setCount := int(subtable.U16(4))
	if covIndex >= setCount {
		return false, nil
	}
	setOffset, err := subtable.ReadU16(6 + covIndex*2)
	if err != nil {
		return false, err
	}
	alternateSet := subtable.Subdata(int(setOffset))
	glyphCount := int(alternateSet.U16(0))
	if glyphCount == 0 {
		return false, nil
	}
	glyph, err := alternateSet.ReadU16(2)
	if err != nil {
		return false, err
	}
	tracer().Debugf("GSUB 3.1: subst %d for %d", glyph, proc.glyphAt(at))
	proc.setGlyph(at, ot.GlyphIndex(glyph))
	return true, nil
}

// applyLigatureSubst applies a Ligature Substitution subtable (format 1): a
// sequence of glyphs is replaced by a single ligature glyph. Component slots
// are not deleted; they are tagged GlyphTraitRemoved and associated with the
// ligature slot, so that cluster bookkeeping survives.
func (proc *Processor) applyLigatureSubst(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 1 {
		tracer().Debugf("ligature substitution format %d not supported", format)
		return false, nil
	}
	cov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	at := proc.locator.Index()
	covIndex, ok := cov.Match(proc.glyphAt(at))
	if !ok {
		return false, nil
	}
	setCount := int(subtable.U16(4))
	if covIndex >= setCount {
		return false, nil
	}
	setOffset, err := subtable.ReadU16(6 + covIndex*2)
	if err != nil {
		return false, err
	}
	// LigatureSet: all ligatures beginning with the same glyph.
	ligatureSet := subtable.Subdata(int(setOffset))
	ligatureCount := int(ligatureSet.U16(0))
	for i := 0; i < ligatureCount; i++ {
		ligOffset, err := ligatureSet.ReadU16(2 + i*2)
		if err != nil {
			return false, err
		}
		// Ligature table (glyph components for one ligature):
		// uint16 | ligatureGlyph                        | glyph to substitute
		// uint16 | componentCount                       | # components, incl. the first
		// uint16 | componentGlyphIDs[componentCount-1]  | components 1..n-1
		ligature := ligatureSet.Subdata(int(ligOffset))
		componentCount := int(ligature.U16(2))
		if componentCount == 0 {
			return false, ErrMalformedSubtable
		}
		if componentCount > 1 {
			if _, err := ligature.ReadU16(4 + (componentCount-1)*2 - 2); err != nil {
				return false, err
			}
		}
		cursor := at
		match := true
		components := make([]int, 0, componentCount-1)
		for j := 1; j < componentCount; j++ {
			cursor = proc.locator.GetAfter(cursor)
			if cursor == InvalidIndex ||
				proc.glyphAt(cursor) != ot.GlyphIndex(ligature.U16(4+(j-1)*2)) {
				match = false
				break
			}
			components = append(components, cursor)
		}
		if !match {
			continue
		}
		ligatureGlyph := ot.GlyphIndex(ligature.U16(0))
		tracer().Debugf("GSUB 4.1: subst ligature %d for %d components", ligatureGlyph, componentCount)
		proc.setGlyph(at, ligatureGlyph)
		proc.album.InsertTraits(at, GlyphTraitLigature)
		for _, slot := range components {
			proc.album.InsertTraits(slot, GlyphTraitRemoved)
			proc.album.SetAssociation(slot, at)
		}
		return true, nil
	}
	return false, nil
}
