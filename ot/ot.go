package ot

import "fmt"

// GlyphIndex is a glyph identifier within a font.
type GlyphIndex uint16

// Tag is a core data type used throughout OpenType tables: a 4-byte array,
// usually representing 4 ASCII characters ("fourcc").
type Tag uint32

// T returns a Tag from a (4-letter) string.
// If the string's length is not 4, returns Tag(0).
func T(str string) Tag {
	if len(str) != 4 {
		return Tag(0)
	}
	return MakeTag([]byte(str))
}

// MakeTag creates a Tag from the first 4 bytes of b.
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) < 4 {
		b = append(b, []byte{0, 0, 0, 0}...)
	}
	return Tag(u32(b))
}

// String returns the tag as 4 characters.
func (t Tag) String() string {
	return fmt.Sprintf("%c%c%c%c", byte(t>>24), byte(t>>16), byte(t>>8), byte(t))
}

// --- Font ------------------------------------------------------------------

// Font gives access to the layout tables of an OpenType font.
//
// Only the tables relevant for lookup application are interpreted (GSUB, GPOS,
// GDEF). All other tables remain accessible as raw segments via Table.
type Font struct {
	Fontname string
	tables   map[Tag]Data
	GSub     *LayoutTable // layout table GSUB, or nil
	GPos     *LayoutTable // layout table GPOS, or nil
	GDef     *GDefTable   // glyph definition table GDEF, or nil
}

// sfntHeaderSize is the byte size of the table directory header,
// tableRecordSize of one table record.
const (
	sfntHeaderSize  = 12
	tableRecordSize = 16
)

// Parse decodes the table directory of a single-font SFNT stream and
// interprets the layout tables. The input must not change after parsing for
// the font to be usable.
func Parse(data []byte) (*Font, error) {
	b := Data(data)
	if b.Size() < sfntHeaderSize {
		return nil, errFontFormat("table directory truncated")
	}
	version := b.U32(0)
	switch version {
	case 0x00010000, 0x4F54544F: // TrueType outlines, 'OTTO'
	case 0x74727565: // 'true', Apple legacy
	default:
		return nil, errFontFormat(fmt.Sprintf("unsupported SFNT version 0x%08x", version))
	}
	numTables := int(b.U16(4))
	if b.Size() < sfntHeaderSize+numTables*tableRecordSize {
		return nil, errFontFormat("table directory truncated")
	}
	otf := &Font{tables: make(map[Tag]Data, numTables)}
	for i := range numTables {
		rec := b.Slice(sfntHeaderSize+i*tableRecordSize, sfntHeaderSize+(i+1)*tableRecordSize)
		tag := Tag(rec.U32(0))
		offset, length := int(rec.U32(8)), int(rec.U32(12))
		if offset < 0 || length < 0 || offset+length > b.Size() {
			tracer().Errorf("font table %s exceeds font data, skipping", tag)
			continue
		}
		otf.tables[tag] = b.Slice(offset, offset+length)
	}
	var err error
	if gsub, ok := otf.tables[T("GSUB")]; ok {
		if otf.GSub, err = ParseLayoutTable(gsub); err != nil {
			return nil, err
		}
	}
	if gpos, ok := otf.tables[T("GPOS")]; ok {
		if otf.GPos, err = ParseLayoutTable(gpos); err != nil {
			return nil, err
		}
	}
	if gdef, ok := otf.tables[T("GDEF")]; ok {
		if otf.GDef, err = ParseGDef(gdef); err != nil {
			return nil, err
		}
	}
	return otf, nil
}

// Table returns the raw segment of the font table for a given tag, or a void
// segment if the font does not contain the table.
func (otf *Font) Table(tag Tag) Data {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return Data{}
}

// TableTags returns a list of tags, one for each table contained in the font.
func (otf *Font) TableTags() []Tag {
	var tags = make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	return tags
}

// Layout returns the layout table for a feature kind: GSUB for substitution,
// GPOS for positioning. May be nil.
func (otf *Font) Layout(gpos bool) *LayoutTable {
	if gpos {
		return otf.GPos
	}
	return otf.GSub
}
