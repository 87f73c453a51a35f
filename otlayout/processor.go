package otlayout

import "github.com/npillmayer/otengine/ot"

// FeatureKind selects the family of subtable appliers a lookup belongs to.
type FeatureKind uint8

const (
	FeatureKindSubstitution FeatureKind = iota + 1 // GSUB
	FeatureKindPositioning                         // GPOS
)

// MaxNestingDepth caps the recursion depth of nested context lookups, as a
// defense against adversarial fonts.
const MaxNestingDepth = 64

// Processor applies the lookups of one layout table to an album.
//
// A processor owns its locator; nested context application temporarily
// re-scopes the locator to the matched input span and merges the cursor state
// back afterwards, so that the outer traversal resumes at the correct next
// glyph.
type Processor struct {
	album   *Album
	locator Locator
	table   *ot.LayoutTable
	gdef    *ot.GDefTable
	kind    FeatureKind
	depth   int
}

// NewProcessor creates a processor for one album and one layout table (GSUB
// for FeatureKindSubstitution, GPOS for FeatureKindPositioning). gdef may be
// nil.
func NewProcessor(album *Album, table *ot.LayoutTable, gdef *ot.GDefTable, kind FeatureKind) *Processor {
	assert(album != nil, "processor: album must not be nil")
	assert(kind == FeatureKindSubstitution || kind == FeatureKindPositioning,
		"processor: invalid feature kind")
	proc := &Processor{album: album, table: table, gdef: gdef, kind: kind}
	proc.locator.Init(album, gdef)
	return proc
}

// Album returns the album under processing.
func (proc *Processor) Album() *Album {
	return proc.album
}

// Locator returns the processor's locator. The shaping driver scopes and
// iterates it between lookup applications.
func (proc *Processor) Locator() *Locator {
	return &proc.locator
}

// ApplyLookup applies lookup #lookupIndex of the processor's layout table at
// the locator's current position. Subtables are tried in order; the first one
// that applies wins. Returns whether any subtable applied.
func (proc *Processor) ApplyLookup(lookupIndex int) (bool, error) {
	if proc.table == nil {
		return false, nil
	}
	lookup, err := proc.table.LookupList.Lookup(lookupIndex)
	if err != nil {
		return false, err
	}
	proc.locator.SetLookupFlag(lookup.Flag)
	proc.locator.SetMarkFilteringSet(lookup.MarkFilteringSet())
	for i := 0; i < lookup.SubtableCount(); i++ {
		subtable := lookup.Subtable(i)
		if subtable.IsVoid() {
			tracer().Errorf("lookup %d: subtable %d unreadable, skipping", lookupIndex, i)
			continue
		}
		applied, err := proc.applySubtable(lookup.Type, subtable)
		if err != nil {
			return false, err
		}
		if applied {
			tracer().Debugf("lookup %d applied at %d", lookupIndex, proc.locator.Index())
			return true, nil
		}
	}
	return false, nil
}

// applySubtable dispatches a subtable to the applier for (lookup type ×
// feature kind).
func (proc *Processor) applySubtable(ltype ot.LayoutTableLookupType, subtable ot.Data) (bool, error) {
	if proc.kind == FeatureKindSubstitution {
		return proc.applySubstSubtable(ltype, subtable)
	}
	return proc.applyPosSubtable(ltype, subtable)
}

func (proc *Processor) applySubstSubtable(ltype ot.LayoutTableLookupType, subtable ot.Data) (bool, error) {
	switch ltype {
	case ot.GSubLookupTypeSingle:
		return proc.applySingleSubst(subtable)
	case ot.GSubLookupTypeMultiple:
		return proc.applyMultipleSubst(subtable)
	case ot.GSubLookupTypeAlternate:
		return proc.applyAlternateSubst(subtable)
	case ot.GSubLookupTypeLigature:
		return proc.applyLigatureSubst(subtable)
	case ot.GSubLookupTypeContext:
		return proc.applyContextSubtable(subtable)
	case ot.GSubLookupTypeChainingContext:
		return proc.applyChainContextSubtable(subtable)
	case ot.GSubLookupTypeExtension:
		return proc.applyExtensionSubtable(subtable)
	case ot.GSubLookupTypeReverseChaining:
		// reverse chaining runs outside the forward driver; not applied here
		tracer().Debugf("reverse chaining substitution not applicable in forward pass")
		return false, nil
	}
	tracer().Errorf("unknown GSUB lookup type %d", ltype)
	return false, nil
}

func (proc *Processor) applyPosSubtable(ltype ot.LayoutTableLookupType, subtable ot.Data) (bool, error) {
	switch ltype {
	case ot.GPosLookupTypeSingle:
		return proc.applySinglePos(subtable)
	case ot.GPosLookupTypePair:
		return proc.applyPairPos(subtable)
	case ot.GPosLookupTypeCursive:
		return proc.applyCursivePos(subtable)
	case ot.GPosLookupTypeMarkToBase:
		return proc.applyMarkToBasePos(subtable)
	case ot.GPosLookupTypeMarkToLigature:
		return proc.applyMarkToLigaturePos(subtable)
	case ot.GPosLookupTypeMarkToMark:
		return proc.applyMarkToMarkPos(subtable)
	case ot.GPosLookupTypeContext:
		return proc.applyContextSubtable(subtable)
	case ot.GPosLookupTypeChainingContext:
		return proc.applyChainContextSubtable(subtable)
	case ot.GPosLookupTypeExtension:
		return proc.applyExtensionSubtable(subtable)
	}
	tracer().Errorf("unknown GPOS lookup type %d", ltype)
	return false, nil
}

// applyExtensionSubtable resolves extension indirection (format 1): the inner
// lookup type and a 32-bit offset to the wrapped subtable, which is then
// dispatched as if the enclosing lookup had the inner type.
func (proc *Processor) applyExtensionSubtable(ext ot.Data) (bool, error) {
	format, err := ext.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 1 {
		tracer().Debugf("extension subtable format %d not supported", format)
		return false, nil
	}
	innerType := ot.LayoutTableLookupType(ext.U16(2))
	offset, err := ext.ReadU32(4)
	if err != nil {
		return false, err
	}
	extensionType := ot.GSubLookupTypeExtension
	if proc.kind == FeatureKindPositioning {
		extensionType = ot.GPosLookupTypeExtension
	}
	if innerType == extensionType {
		tracer().Errorf("extension subtable wraps another extension")
		return false, ErrMalformedSubtable
	}
	inner := ext.Subdata(int(offset))
	if inner.IsVoid() {
		return false, ot.ErrTruncatedTable
	}
	return proc.applySubtable(innerType, inner)
}

// --- Contextual lookups ----------------------------------------------------

// applyContextSubtable matches a sequence context subtable. Only format 3
// (coverage-based, one input pattern) is matched; formats 1 and 2 are
// recognized but not applied.
func (proc *Processor) applyContextSubtable(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 3 {
		tracer().Debugf("sequence context format %d not applied", format)
		return false, nil
	}
	// SequenceContextFormat3:
	// uint16   | format
	// uint16   | glyphCount
	// uint16   | seqLookupCount
	// Offset16 | coverageOffsets[glyphCount]
	// SequenceLookupRecord | seqLookupRecords[seqLookupCount]
	inputCount := int(subtable.U16(2))
	recordCount := int(subtable.U16(4))
	if inputCount == 0 {
		return false, nil // never dereference coverage[0]
	}
	input, err := coverageOffsets(subtable, 6, inputCount)
	if err != nil {
		return false, err
	}
	records, err := sequenceLookupRecords(subtable, 6+inputCount*2, recordCount)
	if err != nil {
		return false, err
	}
	last, ok := proc.matchInput(subtable, input)
	if !ok {
		return false, nil
	}
	if err := proc.applyContextRecord(records, proc.locator.Index(), last-proc.locator.Index()+1); err != nil {
		return false, err
	}
	return true, nil
}

// applyChainContextSubtable matches a chained sequence context subtable
// (backtrack / input / lookahead coverage sequences). Only format 3 is
// matched; formats 1 and 2 are recognized but not applied.
func (proc *Processor) applyChainContextSubtable(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 3 {
		tracer().Debugf("chained sequence context format %d not applied", format)
		return false, nil
	}
	// ChainedSequenceContextFormat3:
	// uint16   | format
	// uint16   | backtrackGlyphCount
	// Offset16 | backtrackCoverageOffsets[backtrackGlyphCount]
	// uint16   | inputGlyphCount
	// Offset16 | inputCoverageOffsets[inputGlyphCount]
	// uint16   | lookaheadGlyphCount
	// Offset16 | lookaheadCoverageOffsets[lookaheadGlyphCount]
	// uint16   | seqLookupCount
	// SequenceLookupRecord | seqLookupRecords[seqLookupCount]
	at := 2
	backtrackCount := int(subtable.U16(at))
	backtrack, err := coverageOffsets(subtable, at+2, backtrackCount)
	if err != nil {
		return false, err
	}
	at += 2 + backtrackCount*2
	inputCount := int(subtable.U16(at))
	if inputCount == 0 {
		return false, nil // never dereference coverage[0]
	}
	input, err := coverageOffsets(subtable, at+2, inputCount)
	if err != nil {
		return false, err
	}
	at += 2 + inputCount*2
	lookaheadCount := int(subtable.U16(at))
	lookahead, err := coverageOffsets(subtable, at+2, lookaheadCount)
	if err != nil {
		return false, err
	}
	at += 2 + lookaheadCount*2
	recordCount := int(subtable.U16(at))
	records, err := sequenceLookupRecords(subtable, at+2, recordCount)
	if err != nil {
		return false, err
	}
	//
	lastInput, ok := proc.matchInput(subtable, input)
	if !ok {
		return false, nil
	}
	// Backtrack sequences are in reverse text order: the k-th entry matches
	// the k-th glyph before the input.
	cursor := proc.locator.Index()
	for _, covOffset := range backtrack {
		cursor = proc.locator.GetBefore(cursor)
		if cursor == InvalidIndex || !proc.coversGlyph(subtable, covOffset, cursor) {
			return false, nil
		}
	}
	cursor = lastInput
	for _, covOffset := range lookahead {
		cursor = proc.locator.GetAfter(cursor)
		if cursor == InvalidIndex || !proc.coversGlyph(subtable, covOffset, cursor) {
			return false, nil
		}
	}
	if err := proc.applyContextRecord(records, proc.locator.Index(), lastInput-proc.locator.Index()+1); err != nil {
		return false, err
	}
	return true, nil
}

// matchInput matches a sequence of input coverages against the album,
// starting at the locator's current position. Returns the album index of the
// last matched input glyph.
func (proc *Processor) matchInput(subtable ot.Data, input []uint16) (int, bool) {
	cursor := proc.locator.Index()
	if !proc.coversGlyph(subtable, input[0], cursor) {
		return InvalidIndex, false
	}
	for _, covOffset := range input[1:] {
		cursor = proc.locator.GetAfter(cursor)
		if cursor == InvalidIndex || !proc.coversGlyph(subtable, covOffset, cursor) {
			return InvalidIndex, false
		}
	}
	return cursor, true
}

// coversGlyph tests the album glyph at a slot index against a coverage table
// referenced at covOffset from the subtable's origin.
func (proc *Processor) coversGlyph(subtable ot.Data, covOffset uint16, index int) bool {
	cov, err := ot.ParseCoverage(subtable.Subdata(int(covOffset)))
	if err != nil {
		tracer().Errorf("unreadable coverage table: %v", err)
		return false
	}
	return cov.Contains(proc.album.Glyph(index))
}

// applyContextRecord applies the nested lookups of a matched context over the
// input span [start, start+count).
//
// The processor's locator is re-scoped to the span for each record; the outer
// locator takes over the nested cursor state afterwards, so that glyphs
// consumed or inserted by nested lookups are not revisited.
func (proc *Processor) applyContextRecord(records []ot.SequenceLookupRecord, start, count int) error {
	if proc.depth >= MaxNestingDepth {
		return ErrNestedLookupTooDeep
	}
	proc.depth++
	defer func() { proc.depth-- }()
	//
	outer := proc.locator
	lenBefore := proc.album.Len()
	for _, record := range records {
		// Make the locator cover only the context range.
		grown := proc.album.Len() - lenBefore
		proc.locator.Reset(start, count+grown)
		// Skip the glyphs up to the sequence index and apply the lookup
		// at the position reached.
		if !proc.locator.Skip(int(record.SequenceIndex)) {
			continue
		}
		if !proc.locator.MoveNext() {
			continue
		}
		if _, err := proc.ApplyLookup(int(record.LookupListIndex)); err != nil {
			proc.locator = outer
			return err
		}
	}
	// Take the state of the context locator so that input glyphs are skipped
	// properly by the outer traversal.
	if grown := proc.album.Len() - lenBefore; grown > 0 {
		outer.AdjustLimit(grown)
	}
	outer.TakeState(&proc.locator)
	proc.locator = outer
	return nil
}

// --- Small shared helpers --------------------------------------------------

// coverageOffsets reads count uint16 coverage offsets at `offset`.
func coverageOffsets(b ot.Data, offset, count int) ([]uint16, error) {
	if count < 0 {
		return nil, ErrMalformedSubtable
	}
	if _, err := b.ReadU16(offset + count*2 - 2); count > 0 && err != nil {
		return nil, err
	}
	offsets := make([]uint16, count)
	for i := range offsets {
		offsets[i] = b.U16(offset + i*2)
	}
	return offsets, nil
}

// sequenceLookupRecords reads count sequence lookup records at `offset`.
func sequenceLookupRecords(b ot.Data, offset, count int) ([]ot.SequenceLookupRecord, error) {
	if count < 0 {
		return nil, ErrMalformedSubtable
	}
	if _, err := b.ReadU16(offset + count*4 - 2); count > 0 && err != nil {
		return nil, err
	}
	records := make([]ot.SequenceLookupRecord, count)
	for i := range records {
		records[i] = ot.SequenceLookupRecord{
			SequenceIndex:   b.U16(offset + i*4),
			LookupListIndex: b.U16(offset + i*4 + 2),
		}
	}
	return records, nil
}

// glyphAt is a short-hand for the album glyph at a slot index.
func (proc *Processor) glyphAt(index int) ot.GlyphIndex {
	return proc.album.Glyph(index)
}

// setGlyph substitutes the glyph at a slot and re-derives its traits from
// GDEF, keeping the slot's feature mask.
func (proc *Processor) setGlyph(index int, glyph ot.GlyphIndex) {
	proc.album.SetGlyph(index, glyph)
	proc.album.SetTraits(index, glyphTraits(proc.gdef, glyph))
}
