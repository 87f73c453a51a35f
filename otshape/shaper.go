package otshape

import "github.com/npillmayer/otengine/otlayout"

// Shape applies a pattern to an album: glyph traits are discovered from GDEF,
// then every feature unit is executed in order — all GSUB units first, then
// all GPOS units.
//
// For each unit the album is traversed once through a locator confined to the
// unit's feature mask; at every position the unit's lookups are tried in
// ascending index order and the first one that applies wins.
//
// Bounds and structural errors in font data abort the current lookup
// application and shaping continues at the next position; the album is never
// corrupted by a failed application.
func Shape(pattern *Pattern, album *otlayout.Album) error {
	if pattern == nil || album == nil {
		return errShaper("pattern and album must not be nil")
	}
	font := pattern.Font
	if font == nil {
		return errShaper("pattern has no font")
	}
	otlayout.DiscoverGlyphs(album, font.GDef)
	if len(pattern.FeatureUnits) == 0 {
		return nil
	}
	if pattern.GSubUnitCount > 0 && font.GSub != nil {
		proc := otlayout.NewProcessor(album, font.GSub, font.GDef, otlayout.FeatureKindSubstitution)
		for _, unit := range pattern.GSubUnits() {
			applyFeatureUnit(proc, unit)
		}
	}
	if pattern.GPosUnitCount > 0 && font.GPos != nil {
		proc := otlayout.NewProcessor(album, font.GPos, font.GDef, otlayout.FeatureKindPositioning)
		for _, unit := range pattern.GPosUnits() {
			applyFeatureUnit(proc, unit)
		}
	}
	return nil
}

// applyFeatureUnit traverses the whole album once and applies the unit's
// lookups at every position the locator yields.
func applyFeatureUnit(proc *otlayout.Processor, unit FeatureUnit) {
	if len(unit.LookupIndexes) == 0 {
		return
	}
	album := proc.Album()
	locator := proc.Locator()
	locator.SetFeatureMask(unit.FeatureMask)
	locator.SetLookupFlag(0) // start with removed slots ignored only
	locator.Reset(0, album.Len())
	for locator.MoveNext() {
		for _, lookupIndex := range unit.LookupIndexes {
			applied, err := proc.ApplyLookup(int(lookupIndex))
			if err != nil {
				tracer().Errorf("lookup %d aborted: %v", lookupIndex, err)
				break
			}
			if applied {
				break // first applied lookup wins at this position
			}
		}
	}
}
