package opentype

import (
	"sort"

	"github.com/npillmayer/fontloom/core/font/opentype/ot"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/language"
)

// FontType returns the font type, encoded in the font header, as a string.
func (f *Font) FontType() string {
	if f.OT.Header == nil {
		return "<empty>"
	}
	switch f.OT.Header.FontType {
	case 0x4f54544f: // OTTO
		return "OpenType (CFF outlines)"
	case 0x00010000:
		return "TrueType"
	case 0x74727565: // true
		return "TrueType (Mac legacy)"
	}
	return "<unknown>"
}

// Windows language IDs for name records, by base language
var windowsLanguageIDs = map[string]uint16{
	"en": 0x0409,
	"de": 0x0407,
	"fr": 0x040c,
	"it": 0x0410,
	"es": 0x0c0a,
	"nl": 0x0413,
	"pt": 0x0816,
	"sv": 0x041d,
	"ru": 0x0419,
	"ja": 0x0411,
	"zh": 0x0804,
}

// NameInfo returns a map with selected fields from OpenType table `name`.
// Will include (if available in the font) "family", "subfamily", "fullname",
// "version" and "postscript". Names are taken in language lang, if the font
// carries localized names for it, otherwise in English.
func (f *Font) NameInfo(lang language.Tag) map[string]string {
	langID := uint16(0x0409)
	if base, conf := lang.Base(); conf != language.No {
		if id, ok := windowsLanguageIDs[base.String()]; ok {
			langID = id
		}
	}
	names := make(map[string]string)
	for field, id := range map[string]uint16{
		"family":     ot.NameFamily,
		"subfamily":  ot.NameSubfamily,
		"fullname":   ot.NameFullName,
		"version":    5,
		"postscript": ot.NamePostScript,
	} {
		if s := f.localizedName(id, langID); s != "" {
			names[field] = s
		}
	}
	return names
}

func (f *Font) localizedName(id, langID uint16) string {
	for _, nr := range f.OT.Name.Records {
		if nr.NameID == id && nr.PlatformID == 3 && nr.LanguageID == langID {
			return nr.Value
		}
	}
	return f.OT.Name.Lookup(id)
}

// LayoutTables returns a list of tag strings, one for each layout-table a font includes.
//
// From the OpenType specification:
// OpenType Layout makes use of five tables: GSUB, GPOS, BASE, JSTF, and GDEF.
func (f *Font) LayoutTables() []string {
	var lt []string
	for _, tag := range f.OT.TableTags() {
		switch tag.String() {
		case "GSUB", "GPOS", "BASE", "JSTF", "GDEF":
			lt = append(lt, tag.String())
		}
	}
	sort.Strings(lt)
	return lt
}

// --- Glyph information -----------------------------------------------------

// GlyphInfo contains all the metric information for a glyph.
type GlyphInfo struct {
	Name      string      // PostScript name of the glyph, if the font has glyph names
	CodePoint rune        // code-point mapped to the glyph by cmap, or 0
	Advance   sfnt.Units  // advance width
	LSB, RSB  sfnt.Units  // side bearings
	BBox      BoundingBox // bounding box
}

// BoundingBox describes the bounding box of a glyph.
type BoundingBox struct {
	MinX, MinY sfnt.Units
	MaxX, MaxY sfnt.Units
}

// Empty is a predicate: has this box a zero area?
func (bbox BoundingBox) Empty() bool {
	return bbox.MaxX-bbox.MinX == 0 || bbox.MaxY-bbox.MinY == 0
}

// Dx is the horizontal extent of this box.
func (bbox BoundingBox) Dx() sfnt.Units {
	return bbox.MaxX - bbox.MinX
}

// Dy is the vertical extent of this box.
func (bbox BoundingBox) Dy() sfnt.Units {
	return bbox.MaxY - bbox.MinY
}

// GlyphInfo retrieves information about a glyph from tables hmtx, glyf, post
// and cmap.
func (f *Font) GlyphInfo(gid ot.GlyphIndex) GlyphInfo {
	adv, lsb := f.OT.HMtx.HMetrics(gid)
	info := GlyphInfo{
		Advance: sfnt.Units(adv),
		LSB:     sfnt.Units(lsb),
	}
	info.Name, _ = f.OT.Post.GlyphName(gid)
	if gid != 0 {
		info.CodePoint = f.OT.CMap.GlyphIndexMap.ReverseLookup(gid)
	}
	if f.OT.Glyf != nil {
		bb := f.OT.Glyf.BBox(gid)
		info.BBox = BoundingBox{
			MinX: sfnt.Units(bb.XMin),
			MinY: sfnt.Units(bb.YMin),
			MaxX: sfnt.Units(bb.XMax),
			MaxY: sfnt.Units(bb.YMax),
		}
	}
	// RSB calculation: rsb = aw - (lsb + xMax - xMin)
	// From the OpenType specification:
	// If a glyph has no contours, xMax/xMin are not defined. The left side bearing indicated
	// in the 'hmtx' table for such glyphs should be zero.
	if !info.BBox.Empty() { // leave RSB for empty bboxes
		info.RSB = info.Advance - (info.LSB + info.BBox.Dx())
	}
	return info
}
