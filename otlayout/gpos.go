package otlayout

import (
	"math/bits"

	"github.com/npillmayer/otengine/ot"
)

// GPOS subtable appliers. Positioning never changes the album's length; it
// accumulates adjustments in the slots' Position records and tracks
// attachments.

// ValueRecord format bits (see
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#value-record)
const (
	valueFormatXPlacement uint16 = 0x0001
	valueFormatYPlacement uint16 = 0x0002
	valueFormatXAdvance   uint16 = 0x0004
	valueFormatYAdvance   uint16 = 0x0008
	valueFormatDeviceBits uint16 = 0x00F0 // device table offsets, parsed over but unused
)

// valueRecordSize returns the byte size of a value record with the given format.
func valueRecordSize(format uint16) int {
	return bits.OnesCount16(format&0x00FF) * 2
}

// parseValueRecord reads a value record at byte offset `at`. Device table
// offsets are skipped; scaling devices is a rasterization concern.
func parseValueRecord(b ot.Data, at int, format uint16) (Position, error) {
	var pos Position
	size := valueRecordSize(format)
	if size == 0 {
		return pos, nil
	}
	if _, err := b.ReadU16(at + size - 2); err != nil {
		return pos, err
	}
	if format&valueFormatXPlacement != 0 {
		pos.XPlacement = int32(b.I16(at))
		at += 2
	}
	if format&valueFormatYPlacement != 0 {
		pos.YPlacement = int32(b.I16(at))
		at += 2
	}
	if format&valueFormatXAdvance != 0 {
		pos.XAdvance = int32(b.I16(at))
		at += 2
	}
	if format&valueFormatYAdvance != 0 {
		pos.YAdvance = int32(b.I16(at))
	}
	return pos, nil
}

// parseAnchor reads an anchor table (any format; only the design-unit
// coordinates are used).
func parseAnchor(anchor ot.Data) (x, y int32, ok bool) {
	if anchor.Size() < 6 {
		return 0, 0, false
	}
	return int32(anchor.I16(2)), int32(anchor.I16(4)), true
}

// applySinglePos applies a Single Adjustment subtable (format 1: one value
// record for all covered glyphs; format 2: one value record per coverage
// index).
func (proc *Processor) applySinglePos(subtable ot.Data) (bool, error) {
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
	valueFormat := subtable.U16(4)
	switch format {
	case 1:
		value, err := parseValueRecord(subtable, 6, valueFormat)
		if err != nil {
			return false, err
		}
		proc.album.AdjustPosition(at, value)
		return true, nil
	case 2:
		valueCount := int(subtable.U16(6))
		if covIndex >= valueCount {
			return false, nil
		}
		value, err := parseValueRecord(subtable, 8+covIndex*valueRecordSize(valueFormat), valueFormat)
		if err != nil {
			return false, err
		}
		proc.album.AdjustPosition(at, value)
		return true, nil
	}
	tracer().Debugf("single adjustment format %d not supported", format)
	return false, nil
}

// applyPairPos applies a Pair Adjustment subtable. Format 1 keys pairs by the
// second glyph's ID, format 2 by glyph classes. The second glyph of the pair
// is the next non-ignored glyph after the current one.
func (proc *Processor) applyPairPos(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	cov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	first := proc.locator.Index()
	covIndex, ok := cov.Match(proc.glyphAt(first))
	if !ok {
		return false, nil
	}
	second := proc.locator.GetAfter(first)
	if second == InvalidIndex {
		return false, nil
	}
	valueFormat1 := subtable.U16(4)
	valueFormat2 := subtable.U16(6)
	size1, size2 := valueRecordSize(valueFormat1), valueRecordSize(valueFormat2)
	switch format {
	case 1:
		pairSetCount := int(subtable.U16(8))
		if covIndex >= pairSetCount {
			return false, nil
		}
		pairSetOffset, err := subtable.ReadU16(10 + covIndex*2)
		if err != nil {
			return false, err
		}
		pairSet := subtable.Subdata(int(pairSetOffset))
		pairCount := int(pairSet.U16(0))
		recordSize := 2 + size1 + size2
		for i := 0; i < pairCount; i++ {
			recordAt := 2 + i*recordSize
			secondGlyph, err := pairSet.ReadU16(recordAt)
			if err != nil {
				return false, err
			}
			if ot.GlyphIndex(secondGlyph) != proc.glyphAt(second) {
				continue
			}
			return proc.adjustPair(pairSet, recordAt+2, first, second, valueFormat1, valueFormat2)
		}
		return false, nil
	case 2:
		classDef1, err := ot.ParseClassDef(subtable.Subdata(int(subtable.U16(8))))
		if err != nil {
			return false, err
		}
		classDef2, err := ot.ParseClassDef(subtable.Subdata(int(subtable.U16(10))))
		if err != nil {
			return false, err
		}
		class1Count := int(subtable.U16(12))
		class2Count := int(subtable.U16(14))
		class1 := classDef1.Lookup(proc.glyphAt(first))
		class2 := classDef2.Lookup(proc.glyphAt(second))
		if class1 >= class1Count || class2 >= class2Count {
			return false, nil
		}
		recordSize := size1 + size2
		recordAt := 16 + (class1*class2Count+class2)*recordSize
		return proc.adjustPair(subtable, recordAt, first, second, valueFormat1, valueFormat2)
	}
	tracer().Debugf("pair adjustment format %d not supported", format)
	return false, nil
}

// adjustPair reads value1/value2 at recordAt and applies them to the pair.
func (proc *Processor) adjustPair(b ot.Data, recordAt, first, second int, valueFormat1, valueFormat2 uint16) (bool, error) {
	value1, err := parseValueRecord(b, recordAt, valueFormat1)
	if err != nil {
		return false, err
	}
	value2, err := parseValueRecord(b, recordAt+valueRecordSize(valueFormat1), valueFormat2)
	if err != nil {
		return false, err
	}
	proc.album.AdjustPosition(first, value1)
	proc.album.AdjustPosition(second, value2)
	tracer().Debugf("GPOS pair: adjust glyphs at %d and %d", first, second)
	return true, nil
}

// applyCursivePos applies a Cursive Attachment subtable (format 1): the exit
// anchor of the current glyph is aligned with the entry anchor of the next.
func (proc *Processor) applyCursivePos(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 1 {
		tracer().Debugf("cursive attachment format %d not supported", format)
		return false, nil
	}
	cov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	current := proc.locator.Index()
	currIndex, ok := cov.Match(proc.glyphAt(current))
	if !ok {
		return false, nil
	}
	next := proc.locator.GetAfter(current)
	if next == InvalidIndex {
		return false, nil
	}
	nextIndex, ok := cov.Match(proc.glyphAt(next))
	if !ok {
		return false, nil
	}
	entryExitCount := int(subtable.U16(4))
	if currIndex >= entryExitCount || nextIndex >= entryExitCount {
		return false, nil
	}
	// EntryExitRecord: entryAnchorOffset, exitAnchorOffset
	exitOffset := int(subtable.U16(6 + currIndex*4 + 2))
	entryOffset := int(subtable.U16(6 + nextIndex*4))
	if exitOffset == 0 || entryOffset == 0 {
		return false, nil
	}
	exitX, exitY, ok1 := parseAnchor(subtable.Subdata(exitOffset))
	entryX, entryY, ok2 := parseAnchor(subtable.Subdata(entryOffset))
	if !ok1 || !ok2 {
		return false, ot.ErrTruncatedTable
	}
	// Align the entry point of the next glyph with the exit point of the
	// current one: trim the current advance to the exit point and lift the
	// next glyph to the exit height.
	currPos := proc.album.Position(current)
	proc.album.AdjustPosition(current, Position{
		XAdvance: exitX + currPos.XPlacement - currPos.XAdvance,
	})
	proc.album.AdjustPosition(next, Position{
		XPlacement: -entryX,
		YPlacement: exitY - entryY,
	})
	proc.album.Attach(next, current)
	tracer().Debugf("GPOS cursive: attach %d to %d", next, current)
	return true, nil
}

// applyMarkToBasePos applies a Mark-to-Base Attachment subtable (format 1).
// The base glyph is the closest preceding non-mark glyph.
func (proc *Processor) applyMarkToBasePos(subtable ot.Data) (bool, error) {
	return proc.applyMarkAttachment(subtable, func(index int) bool {
		return proc.album.Traits(index)&GlyphTraitMark == 0
	})
}

// applyMarkToMarkPos applies a Mark-to-Mark Attachment subtable (format 1).
// The attachment target is the immediately preceding mark glyph.
func (proc *Processor) applyMarkToMarkPos(subtable ot.Data) (bool, error) {
	return proc.applyMarkAttachment(subtable, func(index int) bool {
		return proc.album.Traits(index)&GlyphTraitMark != 0
	})
}

// applyMarkAttachment implements the shared shape of mark-to-base and
// mark-to-mark subtables:
//
// uint16   | format (= 1)
// Offset16 | markCoverageOffset
// Offset16 | baseCoverageOffset
// uint16   | markClassCount
// Offset16 | markArrayOffset
// Offset16 | baseArrayOffset
func (proc *Processor) applyMarkAttachment(subtable ot.Data, acceptsTarget func(int) bool) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 1 {
		tracer().Debugf("mark attachment format %d not supported", format)
		return false, nil
	}
	markCov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	mark := proc.locator.Index()
	markIndex, ok := markCov.Match(proc.glyphAt(mark))
	if !ok {
		return false, nil
	}
	target, ok := proc.findAttachmentTarget(mark, acceptsTarget)
	if !ok {
		return false, nil
	}
	baseCov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(4))))
	if err != nil {
		return false, err
	}
	targetIndex, ok := baseCov.Match(proc.glyphAt(target))
	if !ok {
		return false, nil
	}
	markClassCount := int(subtable.U16(6))
	markArray := subtable.Subdata(int(subtable.U16(8)))
	baseArray := subtable.Subdata(int(subtable.U16(10)))
	markClass, markX, markY, err := markAnchor(markArray, markIndex)
	if err != nil {
		return false, err
	}
	if markClass >= markClassCount {
		return false, ErrMalformedSubtable
	}
	// BaseArray: baseCount, baseRecords[baseCount] à markClassCount anchors
	baseCount := int(baseArray.U16(0))
	if targetIndex >= baseCount {
		return false, nil
	}
	anchorOffset, err := baseArray.ReadU16(2 + (targetIndex*markClassCount+markClass)*2)
	if err != nil {
		return false, err
	}
	if anchorOffset == 0 {
		return false, nil // NULL anchor: no attachment for this class
	}
	baseX, baseY, ok := parseAnchor(baseArray.Subdata(int(anchorOffset)))
	if !ok {
		return false, ot.ErrTruncatedTable
	}
	proc.album.AdjustPosition(mark, Position{
		XPlacement: baseX - markX,
		YPlacement: baseY - markY,
	})
	proc.album.Attach(mark, target)
	tracer().Debugf("GPOS mark attachment: attach %d to %d", mark, target)
	return true, nil
}

// findAttachmentTarget walks backwards from the mark, over removed and mark
// slots, to the closest slot accepted by the predicate.
func (proc *Processor) findAttachmentTarget(mark int, accepts func(int) bool) (int, bool) {
	for index := mark - 1; index >= 0; index-- {
		if proc.album.Traits(index)&GlyphTraitRemoved != 0 {
			continue
		}
		if accepts(index) {
			return index, true
		}
		if proc.album.Traits(index)&GlyphTraitMark == 0 {
			break // a non-mark slot interrupts the search
		}
	}
	return InvalidIndex, false
}

// applyMarkToLigaturePos applies a Mark-to-Ligature Attachment subtable
// (format 1). The ligature component the mark attaches to is the last one;
// finer component resolution needs cluster information from the caller.
func (proc *Processor) applyMarkToLigaturePos(subtable ot.Data) (bool, error) {
	format, err := subtable.ReadU16(0)
	if err != nil {
		return false, err
	}
	if format != 1 {
		tracer().Debugf("mark-to-ligature format %d not supported", format)
		return false, nil
	}
	markCov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(2))))
	if err != nil {
		return false, err
	}
	mark := proc.locator.Index()
	markIndex, ok := markCov.Match(proc.glyphAt(mark))
	if !ok {
		return false, nil
	}
	ligature, ok := proc.findAttachmentTarget(mark, func(index int) bool {
		return proc.album.Traits(index)&GlyphTraitLigature != 0
	})
	if !ok {
		return false, nil
	}
	ligCov, err := ot.ParseCoverage(subtable.Subdata(int(subtable.U16(4))))
	if err != nil {
		return false, err
	}
	ligIndex, ok := ligCov.Match(proc.glyphAt(ligature))
	if !ok {
		return false, nil
	}
	markClassCount := int(subtable.U16(6))
	markArray := subtable.Subdata(int(subtable.U16(8)))
	ligatureArray := subtable.Subdata(int(subtable.U16(10)))
	markClass, markX, markY, err := markAnchor(markArray, markIndex)
	if err != nil {
		return false, err
	}
	if markClass >= markClassCount {
		return false, ErrMalformedSubtable
	}
	ligatureCount := int(ligatureArray.U16(0))
	if ligIndex >= ligatureCount {
		return false, nil
	}
	attachOffset, err := ligatureArray.ReadU16(2 + ligIndex*2)
	if err != nil {
		return false, err
	}
	// LigatureAttach: componentCount, componentRecords à markClassCount anchors
	ligatureAttach := ligatureArray.Subdata(int(attachOffset))
	componentCount := int(ligatureAttach.U16(0))
	if componentCount == 0 {
		return false, ErrMalformedSubtable
	}
	component := componentCount - 1
	anchorOffset, err := ligatureAttach.ReadU16(2 + (component*markClassCount+markClass)*2)
	if err != nil {
		return false, err
	}
	if anchorOffset == 0 {
		return false, nil
	}
	ligX, ligY, ok := parseAnchor(ligatureAttach.Subdata(int(anchorOffset)))
	if !ok {
		return false, ot.ErrTruncatedTable
	}
	proc.album.AdjustPosition(mark, Position{
		XPlacement: ligX - markX,
		YPlacement: ligY - markY,
	})
	proc.album.Attach(mark, ligature)
	tracer().Debugf("GPOS mark-to-ligature: attach %d to %d", mark, ligature)
	return true, nil
}

// markAnchor reads mark record #markIndex of a MarkArray: its class and its
// anchor coordinates.
func markAnchor(markArray ot.Data, markIndex int) (class int, x, y int32, err error) {
	markCount := int(markArray.U16(0))
	if markIndex >= markCount {
		return 0, 0, 0, ErrMalformedSubtable
	}
	// MarkRecord: markClass, markAnchorOffset (from MarkArray start)
	class = int(markArray.U16(2 + markIndex*4))
	anchorOffset, rerr := markArray.ReadU16(2 + markIndex*4 + 2)
	if rerr != nil {
		return 0, 0, 0, rerr
	}
	var ok bool
	x, y, ok = parseAnchor(markArray.Subdata(int(anchorOffset)))
	if !ok {
		return 0, 0, 0, ot.ErrTruncatedTable
	}
	return class, x, y, nil
}
