package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/otengine/ot"
	"github.com/npillmayer/otengine/otlayout"
	"github.com/npillmayer/otengine/otshape"
	"github.com/pterm/pterm"
	"golang.org/x/text/unicode/bidi"
)

func (intp *Intp) printTables() {
	tags := intp.font.TableTags()
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.String()
	}
	pterm.Info.Printfln("font contains %d tables:", len(tags))
	pterm.Println(strings.Join(names, " "))
}

func (intp *Intp) printScripts() {
	printScriptList := func(name string, table *ot.LayoutTable) {
		if table == nil {
			pterm.Info.Printfln("font has no %s table", name)
			return
		}
		rows := pterm.TableData{{"script", "language systems"}}
		for _, tag := range table.ScriptList.Tags() {
			script, ok := table.Script(tag)
			if !ok {
				continue
			}
			langs := make([]string, 0, 4)
			for _, l := range script.LangSysTags() {
				langs = append(langs, l.String())
			}
			rows = append(rows, []string{tag.String(), strings.Join(langs, " ")})
		}
		pterm.Info.Printfln("%s scripts:", name)
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
	printScriptList("GSUB", intp.font.GSub)
	printScriptList("GPOS", intp.font.GPos)
}

// argTag pads a command argument to 4 characters, so that short tags like
// 'URD' can be typed without their trailing spaces.
func argTag(s string) ot.Tag {
	for len(s) < 4 {
		s += " "
	}
	return ot.T(s[:4])
}

func (intp *Intp) printFeatures(scriptArg, langArg string) error {
	script, lang := argTag(scriptArg), argTag(langArg)
	printLangSys := func(name string, table *ot.LayoutTable) {
		if table == nil {
			return
		}
		scr, ok := table.Script(script)
		if !ok {
			pterm.Info.Printfln("%s: script %s not present", name, script)
			return
		}
		langSys, ok := scr.LangSys(lang)
		if !ok {
			pterm.Info.Printfln("%s: no language system for %s", name, lang)
			return
		}
		rows := pterm.TableData{{"feature", "lookups"}}
		indices := langSys.FeatureIndices
		if langSys.Required >= 0 {
			indices = append([]int{langSys.Required}, indices...)
		}
		for _, inx := range indices {
			feature, ok := table.FeatureRecord(inx)
			if !ok {
				continue
			}
			lookups := make([]string, len(feature.LookupIndices))
			for i, l := range feature.LookupIndices {
				lookups[i] = strconv.Itoa(int(l))
			}
			rows = append(rows, []string{feature.Tag.String(), strings.Join(lookups, ",")})
		}
		pterm.Info.Printfln("%s features for %s/%s:", name, script, lang)
		pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	}
	printLangSys("GSUB", intp.font.GSub)
	printLangSys("GPOS", intp.font.GPos)
	return nil
}

func (intp *Intp) buildPattern(scriptArg, langArg string) (*otshape.Pattern, error) {
	return otshape.BuildPattern(intp.font, argTag(scriptArg), argTag(langArg),
		bidi.LeftToRight, nil, nil)
}

func (intp *Intp) printPattern(scriptArg, langArg string) error {
	pattern, err := intp.buildPattern(scriptArg, langArg)
	if err != nil {
		return err
	}
	defer pattern.Release()
	rows := pterm.TableData{{"unit", "kind", "features", "mask", "lookups"}}
	for i, unit := range pattern.FeatureUnits {
		kind := "GSUB"
		if i >= pattern.GSubUnitCount {
			kind = "GPOS"
		}
		tags := make([]string, 0, unit.CoveredRange.Count)
		for _, tag := range pattern.UnitTags(unit) {
			tags = append(tags, tag.String())
		}
		lookups := make([]string, len(unit.LookupIndexes))
		for j, l := range unit.LookupIndexes {
			lookups[j] = strconv.Itoa(int(l))
		}
		rows = append(rows, []string{
			strconv.Itoa(i), kind, strings.Join(tags, " "),
			fmt.Sprintf("0x%04x", unit.FeatureMask), strings.Join(lookups, ","),
		})
	}
	pterm.Info.Printfln("pattern with %d GSUB and %d GPOS units:",
		pattern.GSubUnitCount, pattern.GPosUnitCount)
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	return nil
}

func (intp *Intp) shape(scriptArg, langArg, glyphArg string) error {
	pattern, err := intp.buildPattern(scriptArg, langArg)
	if err != nil {
		return err
	}
	defer pattern.Release()
	fields := strings.Split(glyphArg, ",")
	album := otlayout.NewAlbum(len(fields))
	for i, field := range fields {
		gid, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil {
			return fmt.Errorf("glyph ID '%s' is not a number", field)
		}
		album.Add(ot.GlyphIndex(gid), i)
	}
	pterm.Info.Printfln("album before: %s", albumString(album))
	if err := otshape.Shape(pattern, album); err != nil {
		return err
	}
	pterm.Info.Printfln("album after:  %s", albumString(album))
	return nil
}

func albumString(album *otlayout.Album) string {
	sb := strings.Builder{}
	for i := 0; i < album.Len(); i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		if album.Traits(i)&otlayout.GlyphTraitRemoved != 0 {
			sb.WriteString("(" + strconv.Itoa(int(album.Glyph(i))) + ")")
			continue
		}
		sb.WriteString(strconv.Itoa(int(album.Glyph(i))))
		pos := album.Position(i)
		if pos != (otlayout.Position{}) {
			sb.WriteString(fmt.Sprintf("@(%d,%d|%d,%d)",
				pos.XPlacement, pos.YPlacement, pos.XAdvance, pos.YAdvance))
		}
	}
	return sb.String()
}
