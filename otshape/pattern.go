package otshape

import (
	"sync/atomic"

	"github.com/npillmayer/otengine/ot"
	"golang.org/x/text/unicode/bidi"
)

// TagRange is a half-open slice [Start, Start+Count) into a pattern's feature
// tag list.
type TagRange struct {
	Start int
	Count int
}

// FeatureUnit is a group of features that are active simultaneously, covering
// a contiguous slice of the pattern's feature tags. Units are the smallest
// granule of shaping execution: the driver iterates the album once per unit.
type FeatureUnit struct {
	CoveredRange  TagRange
	FeatureMask   uint16   // OR of the masks of all features in CoveredRange
	LookupIndexes []uint16 // union of the features' lookup indices, ascending, deduplicated
}

// Pattern is a compiled feature plan for one script/language pair. It is
// immutable after the builder finishes and may be shared across concurrent
// shaping passes (each pass owns its own album and locator).
//
// Patterns are reference-counted: NewPattern returns a pattern holding one
// reference; Retain/Release adjust the count.
type Pattern struct {
	refcount int32
	Font     *ot.Font
	ScriptTag, LanguageTag ot.Tag
	DefaultDirection       bidi.Direction
	// FeatureTags lists every feature tag referenced, in insertion order:
	// the tags of all GSUB units first, then the tags of all GPOS units.
	FeatureTags []ot.Tag
	// FeatureUnits is partitioned as GSubUnitCount GSUB units followed by
	// GPosUnitCount GPOS units, each partition in completion order.
	FeatureUnits  []FeatureUnit
	GSubUnitCount int
	GPosUnitCount int
}

// NewPattern creates an empty pattern holding one reference.
func NewPattern() *Pattern {
	return &Pattern{refcount: 1, DefaultDirection: bidi.LeftToRight}
}

// Retain acquires an additional reference to the pattern.
func (p *Pattern) Retain() *Pattern {
	atomic.AddInt32(&p.refcount, 1)
	return p
}

// Release drops a reference. When the last reference is released, the
// pattern's storage is detached; using the pattern afterwards is a
// programming error.
func (p *Pattern) Release() {
	if n := atomic.AddInt32(&p.refcount, -1); n == 0 {
		p.FeatureTags = nil
		p.FeatureUnits = nil
	} else {
		assert(n > 0, "pattern: release without matching retain")
	}
}

// GSubUnits returns the pattern's substitution units.
func (p *Pattern) GSubUnits() []FeatureUnit {
	return p.FeatureUnits[:p.GSubUnitCount]
}

// GPosUnits returns the pattern's positioning units.
func (p *Pattern) GPosUnits() []FeatureUnit {
	return p.FeatureUnits[p.GSubUnitCount : p.GSubUnitCount+p.GPosUnitCount]
}

// UnitTags returns the feature tags covered by a unit.
func (p *Pattern) UnitTags(u FeatureUnit) []ot.Tag {
	return p.FeatureTags[u.CoveredRange.Start : u.CoveredRange.Start+u.CoveredRange.Count]
}
