package otlayout

import "github.com/npillmayer/otengine/ot"

// InvalidIndex is returned by locator queries that find no slot.
const InvalidIndex = -1

// Locator is a filtered bidirectional cursor over a glyph album.
//
// A locator visits the slots of a half-open range [start, limit) of album
// indices, skipping slots that are ignored under the current lookup flag and
// feature mask. Locators are plain values: nested context application copies
// a locator, re-scopes the copy, and merges the copy's cursor state back via
// TakeState.
//
// A locator snapshots the album's version; operating on a locator after the
// album changed structurally, without an intervening Reset, ReserveGlyphs or
// AdjustLimit,
// is a contract violation.
type Locator struct {
	album   *Album
	gdef    *ot.GDefTable
	version uint64
	start   int
	limit   int
	state   int // next candidate index
	index   int // last index MoveNext yielded, or InvalidIndex
	// ignoreMask packs antiFeatureMask<<16 | ignoredTraits for a one-AND
	// test against slot masks.
	ignoreMask uint32
	lookupFlag ot.LayoutTableLookupFlag
	markFilter uint16 // mark filtering set index, valid with USE_MARK_FILTERING_SET
}

// Init binds the locator to an album and caches the GDEF sub-tables the
// ignore rules consult. gdef may be nil.
func (loc *Locator) Init(album *Album, gdef *ot.GDefTable) {
	assert(album != nil, "locator: album must not be nil")
	loc.album = album
	loc.gdef = gdef
	loc.version = 0
	loc.start = 0
	loc.limit = 0
	loc.state = 0
	loc.index = InvalidIndex
	loc.ignoreMask = 0
	loc.lookupFlag = 0
	loc.markFilter = 0
}

// Reset scopes the locator to the album range [index, index+count) and
// rewinds it. Snapshots the album version.
func (loc *Locator) Reset(index, count int) {
	assert(index >= 0 && count >= 0 && index+count <= loc.album.Len(),
		"locator: reset range exceeds album")
	loc.version = loc.album.Version()
	loc.start = index
	loc.limit = index + count
	loc.state = index
	loc.index = InvalidIndex
}

// ReserveGlyphs asks the album to insert count slots at the locator's current
// state index and extends the locator's range accordingly. The locator's
// index is undefined until the next MoveNext.
func (loc *Locator) ReserveGlyphs(count int) {
	assert(loc.version == loc.album.Version(), "locator: stale album version")
	loc.album.ReserveGlyphs(loc.state, count)
	loc.version = loc.album.Version()
	loc.limit += count
}

// SetFeatureMask confines the locator to slots whose feature mask lies within
// mask.
func (loc *Locator) SetFeatureMask(mask uint16) {
	loc.ignoreMask = uint32(antiFeatureMask(mask))<<16 | loc.ignoreMask&0xFFFF
}

// SetLookupFlag recomputes the ignored glyph traits from an OpenType lookup
// flag. Removed slots are always ignored.
func (loc *Locator) SetLookupFlag(flag ot.LayoutTableLookupFlag) {
	traits := GlyphTraitRemoved
	if flag&ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS != 0 {
		traits |= GlyphTraitBase
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_LIGATURES != 0 {
		traits |= GlyphTraitLigature
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_MARKS != 0 {
		traits |= GlyphTraitMark
	}
	loc.lookupFlag = flag
	loc.ignoreMask = loc.ignoreMask&^uint32(0xFFFF) | uint32(traits)
}

// SetMarkFilteringSet selects the mark glyph set consulted when the lookup
// flag has LOOKUP_FLAG_USE_MARK_FILTERING_SET.
func (loc *Locator) SetMarkFilteringSet(setIndex uint16) {
	loc.markFilter = setIndex
}

// isIgnored implements the locator's filter predicate.
func (loc *Locator) isIgnored(index int) bool {
	mask := loc.album.Mask(index)
	if loc.ignoreMask&mask != 0 {
		return true
	}
	if GlyphTrait(mask)&GlyphTraitMark != 0 {
		if loc.lookupFlag&ot.LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK != 0 && loc.gdef != nil {
			attachClass := int(loc.lookupFlag >> 8)
			if loc.gdef.MarkAttachClassDef.Lookup(loc.album.Glyph(index)) != attachClass {
				return true
			}
		}
		if loc.lookupFlag&ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 && loc.gdef != nil {
			if !loc.gdef.MarkGlyphSetCovers(int(loc.markFilter), loc.album.Glyph(index)) {
				return true
			}
		}
	}
	return false
}

// MoveNext advances the cursor to the next non-ignored slot within the
// locator's range and reports whether one was found.
func (loc *Locator) MoveNext() bool {
	assert(loc.state <= loc.limit, "locator: invalid cursor state")
	assert(loc.version == loc.album.Version(), "locator: stale album version")
	for loc.state < loc.limit {
		index := loc.state
		loc.state++
		if !loc.isIgnored(index) {
			loc.index = index
			return true
		}
	}
	return false
}

// Skip advances the cursor count times; false if the range is exhausted first.
func (loc *Locator) Skip(count int) bool {
	for ; count > 0; count-- {
		if !loc.MoveNext() {
			return false
		}
	}
	return true
}

// JumpTo positions the cursor's state at index.
//
// NOTE:
//
//	It is legal to jump to the limit index so that MoveNext returns false
//	thereafter.
func (loc *Locator) JumpTo(index int) {
	assert(index >= 0 && index <= loc.limit, "locator: jump index out of range")
	assert(loc.version == loc.album.Version(), "locator: stale album version")
	loc.state = index
}

// Index returns the slot index the last MoveNext yielded, or InvalidIndex.
func (loc *Locator) Index() int {
	return loc.index
}

// GetAfter returns the smallest non-ignored index > index within the
// locator's range, or InvalidIndex. Does not mutate the cursor.
func (loc *Locator) GetAfter(index int) int {
	assert(index < loc.limit, "locator: index out of range")
	assert(loc.version == loc.album.Version(), "locator: stale album version")
	for index++; index < loc.limit; index++ {
		if !loc.isIgnored(index) {
			return index
		}
	}
	return InvalidIndex
}

// GetBefore returns the largest non-ignored index < index within the
// locator's range, or InvalidIndex. Does not mutate the cursor.
func (loc *Locator) GetBefore(index int) int {
	assert(index < loc.limit, "locator: index out of range")
	assert(loc.version == loc.album.Version(), "locator: stale album version")
	for index--; index >= loc.start; index-- {
		if !loc.isIgnored(index) {
			return index
		}
	}
	return InvalidIndex
}

// TakeState copies the sibling's cursor state, so that glyphs the sibling
// consumed or inserted are not revisited. Both locators must belong to the
// same album. If the sibling grew the album, call AdjustLimit first.
func (loc *Locator) TakeState(sibling *Locator) {
	assert(loc.album == sibling.album, "locator: siblings must share an album")
	assert(sibling.state <= loc.limit, "locator: sibling state exceeds limit")
	loc.state = sibling.state
}

// AdjustLimit re-synchronizes a locator with an album that grew by delta
// slots while a sibling locator was active. The locator's range is widened
// and its version snapshot renewed.
func (loc *Locator) AdjustLimit(delta int) {
	assert(delta >= 0, "locator: album may only grow")
	assert(loc.limit+delta <= loc.album.Len(), "locator: adjusted limit exceeds album")
	loc.limit += delta
	loc.version = loc.album.Version()
}
