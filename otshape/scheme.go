package otshape

import (
	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/otengine/otlayout"
	"golang.org/x/text/unicode/bidi"
)

// Scheme resolution: walking a layout table's script list down to the
// features of one script/language pair and feeding them to a pattern builder.

// dfltScriptTag is the OpenType fallback for scripts not listed in a font.
var dfltScriptTag = ot.T("DFLT")

// ResolveFeatures looks up the language system for (script, language) in a
// layout table — falling back to the script's default language system and to
// the DFLT script — and adds the language system's features to the builder:
// the required feature first, then the listed features in font order, each
// sealed as its own feature unit. Feature masks are taken from the masks map
// (absent tags get mask 0). featureFilter, if non-nil, restricts which
// feature tags are added.
//
// The builder must have an open feature run matching the layout table's kind.
// Returns the number of features added.
func ResolveFeatures(table *ot.LayoutTable, script, language ot.Tag,
	masks map[ot.Tag]uint16, featureFilter func(ot.Tag) bool, builder *PatternBuilder) int {
	//
	if table == nil || builder == nil {
		return 0
	}
	scr, ok := table.Script(script)
	if !ok {
		tracer().Debugf("script %s not in font, trying %s", script, dfltScriptTag)
		if scr, ok = table.Script(dfltScriptTag); !ok {
			return 0
		}
	}
	langSys, ok := scr.LangSys(language)
	if !ok {
		return 0
	}
	count := 0
	if langSys.Required >= 0 {
		count += addFeatureUnit(table, langSys.Required, masks, featureFilter, builder)
	}
	for _, featureIndex := range langSys.FeatureIndices {
		count += addFeatureUnit(table, featureIndex, masks, featureFilter, builder)
	}
	return count
}

func addFeatureUnit(table *ot.LayoutTable, featureIndex int,
	masks map[ot.Tag]uint16, featureFilter func(ot.Tag) bool, builder *PatternBuilder) int {
	//
	feature, ok := table.FeatureRecord(featureIndex)
	if !ok {
		tracer().Errorf("feature index %d not in feature list", featureIndex)
		return 0
	}
	if featureFilter != nil && !featureFilter(feature.Tag) {
		return 0
	}
	builder.AddFeature(feature.Tag, masks[feature.Tag])
	for _, lookupIndex := range feature.LookupIndices {
		builder.AddLookup(lookupIndex)
	}
	builder.MakeFeatureUnit()
	return 1
}

// BuildPattern compiles a complete pattern for a font and a script/language
// pair: the GSUB features first, then the GPOS features, each language
// system's features in font order. masks assigns feature masks (confinement
// bits) to feature tags; it may be nil. featureFilter, if non-nil, restricts
// which feature tags take part.
func BuildPattern(font *ot.Font, script, language ot.Tag, direction bidi.Direction,
	masks map[ot.Tag]uint16, featureFilter func(ot.Tag) bool) (*Pattern, error) {
	//
	if font == nil {
		return nil, errShaper("font must not be nil")
	}
	pattern := NewPattern()
	builder := NewPatternBuilder(pattern)
	builder.SetFont(font)
	builder.SetScript(script, direction)
	builder.SetLanguage(language)
	builder.BeginFeatures(otlayout.FeatureKindSubstitution)
	n := ResolveFeatures(font.GSub, script, language, masks, featureFilter, builder)
	builder.EndFeatures()
	builder.BeginFeatures(otlayout.FeatureKindPositioning)
	n += ResolveFeatures(font.GPos, script, language, masks, featureFilter, builder)
	builder.EndFeatures()
	builder.Build()
	builder.Finalize()
	tracer().Debugf("pattern for %s/%s compiled with %d features", script, language, n)
	return pattern, nil
}
