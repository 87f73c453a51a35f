package otshape

import (
	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/otengine/otlayout"
	"golang.org/x/text/unicode/bidi"
)

// PatternBuilder compiles a feature list into a Pattern.
//
// The call protocol mirrors the pattern's structure:
//
//	builder := NewPatternBuilder(pattern)
//	builder.SetFont(f); builder.SetScript(...); builder.SetLanguage(...)
//	builder.BeginFeatures(otlayout.FeatureKindSubstitution)
//	builder.AddFeature(tag, mask); builder.AddLookup(lli); ...
//	builder.MakeFeatureUnit()       // seals one unit
//	...
//	builder.EndFeatures()
//	builder.BeginFeatures(otlayout.FeatureKindPositioning)
//	...
//	builder.EndFeatures()
//	builder.Build()
//	builder.Finalize()
//
// All substitution features must be added before any positioning feature.
// EndFeatures with features pending since the last MakeFeatureUnit commits
// them as an implicit unit.
type PatternBuilder struct {
	pattern *Pattern
	kind    otlayout.FeatureKind // current feature kind; 0 = outside Begin/End
	// accumulator for the unit under construction
	tags    []ot.Tag
	masks   []uint16
	lookups [][]uint16 // per accumulated feature, sorted ascending, deduplicated
}

// NewPatternBuilder binds a builder to an empty pattern.
func NewPatternBuilder(pattern *Pattern) *PatternBuilder {
	assert(pattern != nil, "pattern builder: pattern must not be nil")
	return &PatternBuilder{pattern: pattern}
}

// SetFont sets the font the pattern compiles features of.
func (b *PatternBuilder) SetFont(font *ot.Font) {
	b.pattern.Font = font
}

// SetScript sets the pattern's script tag and default text direction.
func (b *PatternBuilder) SetScript(tag ot.Tag, direction bidi.Direction) {
	b.pattern.ScriptTag = tag
	b.pattern.DefaultDirection = direction
}

// SetLanguage sets the pattern's language tag.
func (b *PatternBuilder) SetLanguage(tag ot.Tag) {
	b.pattern.LanguageTag = tag
}

// BeginFeatures opens a run of features of one kind. Substitution features
// must precede positioning features.
func (b *PatternBuilder) BeginFeatures(kind otlayout.FeatureKind) {
	assert(b.kind == 0, "pattern builder: features already begun")
	assert(len(b.tags) == 0, "pattern builder: unit accumulator not empty")
	if kind == otlayout.FeatureKindSubstitution {
		assert(b.pattern.GPosUnitCount == 0,
			"pattern builder: substitution features must precede positioning features")
	}
	b.kind = kind
}

// AddFeature appends a feature to the unit under construction. If the tag
// already occurs within the open unit, its mask bits are OR-ed with the
// existing entry; no duplicate tag is emitted.
func (b *PatternBuilder) AddFeature(tag ot.Tag, mask uint16) {
	assert(b.kind != 0, "pattern builder: AddFeature outside BeginFeatures")
	for i, t := range b.tags {
		if t == tag {
			b.masks[i] |= mask
			return
		}
	}
	b.tags = append(b.tags, tag)
	b.masks = append(b.masks, mask)
	b.lookups = append(b.lookups, nil)
}

// AddLookup inserts a lookup-list index into the most recently added
// feature's lookup list, keeping the list sorted ascending and deduplicated.
// Insertion sort: the lists are small.
func (b *PatternBuilder) AddLookup(lookupListIndex uint16) {
	assert(len(b.tags) > 0, "pattern builder: AddLookup without a feature")
	last := len(b.lookups) - 1
	b.lookups[last] = insertLookupIndex(b.lookups[last], lookupListIndex)
}

func insertLookupIndex(list []uint16, lli uint16) []uint16 {
	at := 0
	for at < len(list) && list[at] < lli {
		at++
	}
	if at < len(list) && list[at] == lli {
		return list
	}
	list = append(list, 0)
	copy(list[at+1:], list[at:])
	list[at] = lli
	return list
}

// MakeFeatureUnit seals the unit under construction: the accumulated feature
// tags are appended to the pattern's tag list, the unit's mask is the OR of
// the member masks, and its lookup indices are the sorted, deduplicated union
// of the members' lists. A unit with zero lookups is still emitted.
func (b *PatternBuilder) MakeFeatureUnit() {
	assert(b.kind != 0, "pattern builder: MakeFeatureUnit outside BeginFeatures")
	unit := FeatureUnit{
		CoveredRange: TagRange{Start: len(b.pattern.FeatureTags), Count: len(b.tags)},
	}
	var merged []uint16
	for i := range b.tags {
		unit.FeatureMask |= b.masks[i]
		for _, lli := range b.lookups[i] {
			merged = insertLookupIndex(merged, lli)
		}
	}
	unit.LookupIndexes = merged
	b.pattern.FeatureTags = append(b.pattern.FeatureTags, b.tags...)
	b.pattern.FeatureUnits = append(b.pattern.FeatureUnits, unit)
	if b.kind == otlayout.FeatureKindSubstitution {
		b.pattern.GSubUnitCount++
	} else {
		b.pattern.GPosUnitCount++
	}
	b.tags = b.tags[:0]
	b.masks = b.masks[:0]
	b.lookups = b.lookups[:0]
	tracer().Debugf("feature unit #%d sealed with %d features, %d lookups",
		len(b.pattern.FeatureUnits)-1, unit.CoveredRange.Count, len(unit.LookupIndexes))
}

// EndFeatures closes the open run of features. Features accumulated since the
// last MakeFeatureUnit are committed as an implicit unit.
func (b *PatternBuilder) EndFeatures() {
	assert(b.kind != 0, "pattern builder: EndFeatures without BeginFeatures")
	if len(b.tags) > 0 {
		b.MakeFeatureUnit()
	}
	b.kind = 0
}

// Build finalizes the pattern. The unit partition (GSUB units before GPOS
// units) is tracked during unit sealing; Build checks the protocol was
// completed.
func (b *PatternBuilder) Build() {
	assert(b.kind == 0, "pattern builder: Build with open feature run")
	assert(b.pattern.GSubUnitCount+b.pattern.GPosUnitCount == len(b.pattern.FeatureUnits),
		"pattern builder: unit partition out of sync")
}

// Finalize releases builder-owned scratch storage. The pattern is now
// immutable and externally referenced; the builder must not be used again.
func (b *PatternBuilder) Finalize() {
	b.tags = nil
	b.masks = nil
	b.lookups = nil
	b.pattern = nil
}
