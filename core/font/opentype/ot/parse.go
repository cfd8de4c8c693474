package ot

import (
	"fmt"

	"github.com/npillmayer/fontloom/core"
)

// Code comment often will cite passage from the
// OpenType specification version 1.8.4;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Parse parses an OpenType font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
//
// Parse returns an error with code core.EFORMAT if the font is malformed: a table
// checksum does not match, a required table is missing, or a table is truncated.
// No partial font is returned in this case.
func Parse(font []byte) (*Font, error) {
	src := binarySegm(font)
	tag, err := src.tag(0)
	if err != nil {
		return nil, errFontFormat("font header")
	}
	if tag == T("ttcf") {
		return nil, errFontFormat("font collection; use ParseCollection")
	}
	return parseFontAt(src, 0)
}

// ParseCollection parses a TrueType/OpenType font collection ('ttcf') and
// returns every font it contains. For a font file containing a single font,
// the result contains exactly one font.
func ParseCollection(font []byte) ([]*Font, error) {
	src := binarySegm(font)
	r := fieldReader{b: src}
	tag := Tag(r.u32(0))
	if tag != T("ttcf") {
		otf, err := Parse(font)
		if err != nil {
			return nil, err
		}
		return []*Font{otf}, nil
	}
	// TTC header: ttcTag, majorVersion, minorVersion, numFonts, tableDirectoryOffsets[numFonts]
	numFonts := int(r.u32(8))
	if r.err != nil || numFonts == 0 {
		return nil, errFontFormat("collection header")
	}
	offsets, err := viewArray(src, 12, numFonts, 4)
	if err != nil {
		return nil, errFontFormat("collection header")
	}
	fonts := make([]*Font, numFonts)
	for i := range fonts {
		dir := int(offsets.Get(i).U32(0))
		tracer().Debugf("collection font #%d at offset %d", i, dir)
		if fonts[i], err = parseFontAt(src, dir); err != nil {
			return nil, err
		}
	}
	return fonts, nil
}

// parseFontAt parses a table directory at offset dir. Table offsets are
// relative to the start of src, even for fonts in collections.
func parseFontAt(src binarySegm, dir int) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	r := fieldReader{b: src}
	h := FontHeader{
		FontType:   r.u32(dir),
		TableCount: r.u16(dir + 4),
	}
	if r.err != nil {
		return nil, errFontFormat("font header")
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == 0x4f54544f || // OTTO
		h.FontType == 0x00010000 || // TrueType
		h.FontType == 0x74727565) { // true
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	otf := &Font{Header: &h, tables: make(map[Tag]Table)}
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	buf, err := src.view(dir+12, 16*int(h.TableCount))
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if tag < prevTag {
			return nil, errFontFormat("table order")
		}
		prevTag = tag
		checksum, off, size := u32(b[4:8]), u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // "all tables must begin on four byte boundries".
			return nil, errFontFormat("invalid table offset")
		}
		data, err := src.view(int(off), int(size))
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("table %s out of bounds", tag))
		}
		if sum := TableChecksum(tag, data); sum != checksum {
			tracer().Errorf("checksum of table %s is %x, expected %x", tag, sum, checksum)
			return nil, errFontFormat(fmt.Sprintf("checksum mismatch for table %s", tag))
		}
		var t Table
		if decode, ok := tableDecoders[tag]; ok {
			if t, err = decode(tag, data, off, size); err != nil {
				if core.Code(err) != core.EFORMAT {
					err = errTableFormat(tag, err)
				}
				return nil, err
			}
		} else {
			tracer().Debugf("font contains table (%s), will not be interpreted", tag)
			t = newTable(tag, data, off, size)
		}
		t.Self().tableBase.checksum = checksum
		otf.tables[tag] = t
	}
	if err := extractRequiredTables(otf); err != nil {
		return nil, err
	}
	if err := linkTables(otf); err != nil {
		return nil, err
	}
	return otf, nil
}

// TableChecksum calculates the checksum of a table: the sum of its big-endian
// uint32 words, with the table zero-padded to a multiple of 4 bytes, modulo 2^32.
// For table 'head' the word containing checkSumAdjustment (byte offset 8) is
// excluded.
func TableChecksum(tag Tag, data []byte) uint32 {
	var sum uint32
	n := len(data)
	for i := 0; i < n; i += 4 {
		if tag == T("head") && i == 8 {
			continue
		}
		var word [4]byte
		copy(word[:], data[i:min(i+4, n)])
		sum += u32(word[:])
	}
	return sum
}

// tableDecoder is a function to decode a table's bytes into a table type.
type tableDecoder func(tag Tag, b binarySegm, offset, size uint32) (Table, error)

// tableDecoders maps table tags to decoders. It is populated at package init
// and never modified afterwards.
var tableDecoders map[Tag]tableDecoder

func init() {
	tableDecoders = map[Tag]tableDecoder{
		T("head"): parseHead,
		T("hhea"): parseHHea,
		T("hmtx"): parseHMtx,
		T("maxp"): parseMaxP,
		T("name"): parseName,
		T("post"): parsePost,
		T("OS/2"): parseOS2,
		T("cmap"): parseCMap,
		T("loca"): parseLoca,
		T("glyf"): parseGlyf,
		T("kern"): parseKern,
		T("GSUB"): parseGSub,
		T("GPOS"): parseGPos,
	}
}

// According to the OpenType spec, the following tables are
// required for the font to function correctly.
var RequiredTables = []string{
	"cmap", "head", "hhea", "hmtx", "maxp", "name", "OS/2", "post",
}

// Consistency check and shortcuts to essential tables, including layout tables.
func extractRequiredTables(otf *Font) error {
	for _, tag := range RequiredTables {
		h := otf.tables[T(tag)]
		if h == nil {
			return errFontFormat("missing required table " + tag)
		}
	}
	otf.Head = otf.tables[T("head")].Self().AsHead()
	otf.HHea = otf.tables[T("hhea")].Self().AsHHea()
	otf.HMtx = otf.tables[T("hmtx")].Self().AsHMtx()
	otf.MaxP = otf.tables[T("maxp")].Self().AsMaxP()
	otf.Name = otf.tables[T("name")].Self().AsName()
	otf.Post = otf.tables[T("post")].Self().AsPost()
	otf.OS2 = otf.tables[T("OS/2")].Self().AsOS2()
	otf.CMap = otf.tables[T("cmap")].Self().AsCMap()
	// Exactly one of CFF or TrueType outlines
	cff := otf.tables[T("CFF ")]
	loca, glyf := otf.tables[T("loca")], otf.tables[T("glyf")]
	switch {
	case cff != nil && (loca != nil || glyf != nil):
		return errFontFormat("font has both CFF and TrueType outlines")
	case cff != nil:
		otf.CFF = cff
	case loca != nil && glyf != nil:
		otf.Loca = loca.Self().AsLoca()
		otf.Glyf = glyf.Self().AsGlyf()
	default:
		return errFontFormat("font has neither CFF nor loca/glyf outlines")
	}
	if k := otf.tables[T("kern")]; k != nil {
		otf.Kern = k.Self().AsKern()
	}
	if g := otf.tables[T("GSUB")]; g != nil {
		otf.Layout.GSub = g.Self().AsGSub()
	}
	if g := otf.tables[T("GPOS")]; g != nil {
		otf.Layout.GPos = g.Self().AsGPos()
	}
	return nil
}

// linkTables decodes the parts of tables which depend on values of other
// tables.
//
// The number of glyphs in the font is restricted only by the value stated in
// the 'maxp' table; hmtx needs numberOfHMetrics from 'hhea', loca needs the
// offset format from 'head'.
func linkTables(otf *Font) error {
	numGlyphs := otf.MaxP.NumGlyphs
	if err := otf.HMtx.decode(int(otf.HHea.NumberOfHMetrics), numGlyphs); err != nil {
		return errTableFormat(T("hmtx"), err)
	}
	if err := otf.Post.decodeNames(numGlyphs); err != nil {
		return errTableFormat(T("post"), err)
	}
	if otf.Loca != nil {
		if otf.Head.IndexToLocFormat == 1 {
			otf.Loca.inx2loc = longLocaVersion
		}
		otf.Loca.locCnt = numGlyphs
		if err := otf.Glyf.decode(otf.Loca); err != nil {
			return errTableFormat(T("glyf"), err)
		}
	}
	otf.OS2.deriveHeights(otf.Head.UnitsPerEm)
	otf.CMap.symbolFallback(otf.OS2)
	return nil
}
