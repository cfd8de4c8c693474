package ot

import (
	"fmt"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// --- Head table ------------------------------------------------------------

// HeadTable gives global information about the font.
type HeadTable struct {
	tableBase
	Flags            uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm       uint16 // values 16 … 16384 are valid
	BBox             BBox   // bounding box for all glyphs
	MacStyle         uint16 // bit 0 = bold, bit 1 = italic
	IndexToLocFormat uint16 // needed to interpret loca table
}

// BBox is a bounding box in font units.
type BBox struct {
	XMin, YMin, XMax, YMax sfnt.Units
}

func (bb BBox) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", bb.XMin, bb.YMin, bb.XMax, bb.YMax)
}

func readBBox(r *fieldReader, off int) BBox {
	return BBox{
		XMin: sfnt.Units(r.i16(off)),
		YMin: sfnt.Units(r.i16(off + 2)),
		XMax: sfnt.Units(r.i16(off + 4)),
		YMax: sfnt.Units(r.i16(off + 6)),
	}
}

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormat("size of head table")
	}
	t := &HeadTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	r := fieldReader{b: b}
	if magic := r.u32(12); magic != 0x5f0f3cf5 {
		return nil, errFontFormat(fmt.Sprintf("head table magic number %x", magic))
	}
	t.Flags = r.u16(16)
	t.UnitsPerEm = r.u16(18)
	t.BBox = readBBox(&r, 36)
	t.MacStyle = r.u16(44)
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat = r.u16(50)
	if r.err != nil {
		return nil, errTableFormat(tag, r.err)
	}
	if t.UnitsPerEm == 0 {
		return nil, errFontFormat("head table: units per em is 0")
	}
	return t, nil
}

// --- HHea table ------------------------------------------------------------

// HHeaTable contains information for horizontal layout.
type HHeaTable struct {
	tableBase
	Ascender         int16
	Descender        int16
	LineGap          int16
	AdvanceWidthMax  uint16
	NumberOfHMetrics int
}

func parseHHea(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	tracer().Debugf("HHea table has size %d", size)
	if size < 36 {
		return nil, errFontFormat("hhea table incomplete")
	}
	t := &HHeaTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	r := fieldReader{b: b}
	t.Ascender = r.i16(4)
	t.Descender = r.i16(6)
	t.LineGap = r.i16(8)
	t.AdvanceWidthMax = r.u16(10)
	t.NumberOfHMetrics = int(r.u16(34))
	if t.NumberOfHMetrics == 0 {
		return nil, errFontFormat("hhea table: number of h-metrics is 0")
	}
	return t, r.err
}

// --- HMtx table ------------------------------------------------------------

// HMtxTable contains metric information for the horizontal layout each of the glyphs in
// the font. Each element in the contained hMetrics-array has two parts: the advance width
// and left side bearing. The value NumberOfHMetrics is taken from the `hhea` table. In
// a monospaced font, only one entry is required but that entry may not be omitted.
// Optionally, an array of left side bearings follows.
// The corresponding glyphs are assumed to have the same
// advance width as that found in the last entry in the hMetrics array.
type HMtxTable struct {
	tableBase
	NumberOfHMetrics int
	advances         []uint16
	lsbs             []int16
}

// Dependencies (taken from Apple Developer page about TrueType):
// The value of the numOfLongHorMetrics field is found in the 'hhea' (Horizontal Header)
// table. Fonts that lack an 'hhea' table must not have an 'hmtx' table.
func parseHMtx(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &HMtxTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t, nil
}

// decode reads the advance widths and side bearings. It is called after
// hhea and maxp have been parsed.
func (t *HMtxTable) decode(numberOfHMetrics, numGlyphs int) error {
	if numberOfHMetrics > numGlyphs {
		return fmt.Errorf("%d h-metrics for %d glyphs", numberOfHMetrics, numGlyphs)
	}
	t.NumberOfHMetrics = numberOfHMetrics
	metrics, err := viewArray(t.data, 0, numberOfHMetrics, 4)
	if err != nil {
		return err
	}
	bearings, err := viewArray(t.data, metrics.Size(), numGlyphs-numberOfHMetrics, 2)
	if err != nil {
		return err
	}
	t.advances = make([]uint16, numGlyphs)
	t.lsbs = make([]int16, numGlyphs)
	for g := 0; g < numGlyphs; g++ {
		if g < numberOfHMetrics {
			m := metrics.Get(g)
			t.advances[g] = m.U16(0)
			t.lsbs[g] = int16(m.U16(2))
			continue
		}
		t.advances[g] = t.advances[numberOfHMetrics-1]
		t.lsbs[g] = int16(bearings.Get(g - numberOfHMetrics).U16(0))
	}
	return nil
}

// HMetrics returns the advance width and left side bearing of a glyph.
// For glyphs outside the font's range, zero values are returned.
func (t *HMtxTable) HMetrics(g GlyphIndex) (uint16, int16) {
	if int(g) >= len(t.advances) {
		return 0, 0
	}
	return t.advances[g], t.lsbs[g]
}

// --- MaxP table ------------------------------------------------------------

// MaxPTable establishes the memory requirements for this font.
// The 'maxp' table contains a count for the number of glyphs in the font.
// Whenever this value changes, other tables which depend on it should also be updated.
type MaxPTable struct {
	tableBase
	NumGlyphs int
}

// Fonts with CFF data must use Version 0.5 of this table, specifying only
// the numGlyphs field. Fonts with TrueType outlines must use Version 1.0 of
// this table, where all data is required.
func parseMaxP(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 6 {
		return nil, errFontFormat("maxp table incomplete")
	}
	t := &MaxPTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	n, _ := b.u16(4)
	t.NumGlyphs = int(n)
	return t, nil
}

// --- Name table ------------------------------------------------------------

// Name IDs of frequently used name records.
const (
	NameFamily          uint16 = 1
	NameSubfamily       uint16 = 2
	NameFullName        uint16 = 4
	NamePostScript      uint16 = 6
	NameTypographicFam  uint16 = 16
	NameTypographicSubf uint16 = 17
)

// NameRecord is a decoded entry of table 'name'.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Value      string
}

// NameTable holds the decoded name records of a font. Records with a
// platform/encoding combination we cannot decode are dropped.
type NameTable struct {
	tableBase
	Records []NameRecord
}

func parseName(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &NameTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	count, err := b.u16(2)
	if err != nil {
		return nil, errFontFormat("name section corrupt")
	}
	strOffset, err := b.u16(4)
	if err != nil {
		return nil, errFontFormat("name section corrupt")
	}
	recs, err := viewArray(b, 6, int(count), 12)
	if err != nil {
		return nil, errFontFormat("name section corrupt")
	}
	tracer().Debugf("name table has %d strings, starting at %d", recs.Len(), strOffset)
	utf16 := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	for i := 0; i < recs.Len(); i++ {
		rec := recs.Get(i)
		nr := NameRecord{
			PlatformID: rec.U16(0),
			EncodingID: rec.U16(2),
			LanguageID: rec.U16(4),
			NameID:     rec.U16(6),
		}
		str, err := b.view(int(strOffset)+int(rec.U16(10)), int(rec.U16(8)))
		if err != nil {
			return nil, errFontFormat("name record out of bounds")
		}
		var s []byte
		switch {
		case nr.PlatformID == 0 || (nr.PlatformID == 3 && (nr.EncodingID <= 1 || nr.EncodingID == 10)):
			s, err = utf16.NewDecoder().Bytes(str)
		case nr.PlatformID == 1 && nr.EncodingID == 0:
			s, err = charmap.Macintosh.NewDecoder().Bytes(str)
		default:
			tracer().Debugf("unsupported platform/encoding combination for name-table")
			continue
		}
		if err != nil {
			tracer().Debugf("cannot decode name record #%d: %v", i, err)
			continue
		}
		nr.Value = string(s)
		t.Records = append(t.Records, nr)
	}
	return t, nil
}

// Lookup returns the string for a name ID, preferring Windows English
// names, then other Unicode-encoded names, then Macintosh names.
// If no record for id exists, an empty string is returned.
func (t *NameTable) Lookup(id uint16) string {
	best, rank := "", 0
	for _, nr := range t.Records {
		if nr.NameID != id {
			continue
		}
		r := 1 // Macintosh
		switch {
		case nr.PlatformID == 3 && nr.EncodingID == 1 && nr.LanguageID == 0x409:
			r = 4
		case nr.PlatformID == 3:
			r = 3
		case nr.PlatformID == 0:
			r = 2
		}
		if r > rank {
			best, rank = nr.Value, r
		}
	}
	return best
}

// PostScriptName returns name ID 6 of the font.
func (t *NameTable) PostScriptName() string {
	return t.Lookup(NamePostScript)
}

// FamilyName returns the typographic family name, if present, otherwise name ID 1.
func (t *NameTable) FamilyName() string {
	if n := t.Lookup(NameTypographicFam); n != "" {
		return n
	}
	return t.Lookup(NameFamily)
}

// SubfamilyName returns the typographic subfamily name, if present, otherwise name ID 2.
func (t *NameTable) SubfamilyName() string {
	if n := t.Lookup(NameTypographicSubf); n != "" {
		return n
	}
	return t.Lookup(NameSubfamily)
}

// --- Post table ------------------------------------------------------------

// PostTable contains additional information needed to use TrueType or OpenType
// fonts on PostScript printers, most notably glyph names.
type PostTable struct {
	tableBase
	Version            uint32  // 0x00010000, 0x00020000, 0x00025000 or 0x00030000
	ItalicAngle        float64 // in counter-clockwise degrees from the vertical
	UnderlinePosition  int16
	UnderlineThickness int16
	IsFixedPitch       bool
	names              []string
	byName             map[string]GlyphIndex
}

func parsePost(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 32 {
		return nil, errFontFormat("post table incomplete")
	}
	t := &PostTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	r := fieldReader{b: b}
	t.Version = r.u32(0)
	t.ItalicAngle = r.fixed(4)
	t.UnderlinePosition = r.i16(8)
	t.UnderlineThickness = r.i16(10)
	t.IsFixedPitch = r.u32(12) != 0
	switch t.Version {
	case 0x00010000, 0x00020000, 0x00025000, 0x00030000:
	default:
		return nil, errFontFormat(fmt.Sprintf("post table version %x", t.Version))
	}
	return t, r.err
}

// decodeNames decodes the glyph names of post table formats 1.0 and 2.0.
// Format 3.0 fonts do not carry glyph names; format 2.5 is deprecated and
// ignored.
func (t *PostTable) decodeNames(numGlyphs int) error {
	switch t.Version {
	case 0x00010000:
		t.names = macGlyphNames[:min(numGlyphs, len(macGlyphNames))]
	case 0x00020000:
		inx, err := parseArray(t.data, 32, 2)
		if err != nil {
			return err
		}
		// Pascal strings follow the glyph name index
		var strs []string
		for pos := 34 + inx.Size(); pos < len(t.data); {
			n := int(t.data[pos])
			s, err := t.data.view(pos+1, n)
			if err != nil {
				return err
			}
			strs = append(strs, string(s))
			pos += n + 1
		}
		t.names = make([]string, inx.Len())
		for g := range t.names {
			i := int(inx.Get(g).U16(0))
			switch {
			case i < len(macGlyphNames):
				t.names[g] = macGlyphNames[i]
			case i-len(macGlyphNames) < len(strs):
				t.names[g] = strs[i-len(macGlyphNames)]
			default:
				return fmt.Errorf("glyph name index %d out of range", i)
			}
		}
	}
	t.byName = make(map[string]GlyphIndex, len(t.names))
	for g, name := range t.names {
		if _, dup := t.byName[name]; !dup {
			t.byName[name] = GlyphIndex(g)
		}
	}
	return nil
}

// GlyphName returns the PostScript name of glyph g, if the font carries glyph names.
func (t *PostTable) GlyphName(g GlyphIndex) (string, bool) {
	if int(g) >= len(t.names) {
		return "", false
	}
	return t.names[g], true
}

// GlyphByName returns the glyph with a given PostScript name.
func (t *PostTable) GlyphByName(name string) (GlyphIndex, bool) {
	g, ok := t.byName[name]
	return g, ok
}

// GlyphNames returns all glyph names of the font, indexed by glyph.
// For fonts without glyph names, nil is returned.
func (t *PostTable) GlyphNames() []string {
	return t.names
}

// --- OS/2 table ------------------------------------------------------------

// OS2Table consists of a set of metrics and other data that are required in
// OpenType fonts.
type OS2Table struct {
	tableBase
	Version         uint16
	WeightClass     uint16 // 100 … 1000
	WidthClass      uint16 // 1 (ultra-condensed) … 9 (ultra-expanded)
	FsSelection     uint16
	FirstCharIndex  uint16
	TypoAscender    int16
	TypoDescender   int16
	TypoLineGap     int16
	XHeight         int16
	CapHeight       int16
	HasXHeight      bool // false for versions < 2: XHeight and CapHeight are derived
	HasTypoMetrics  bool
	hasFirstCharInx bool
}

// Bits of fsSelection
const (
	FsSelectionItalic  uint16 = 0x0001
	FsSelectionBold    uint16 = 0x0020
	FsSelectionRegular uint16 = 0x0040
	FsSelectionOblique uint16 = 0x0200
)

func parseOS2(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 64 {
		return nil, errFontFormat("OS/2 table incomplete")
	}
	t := &OS2Table{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	r := fieldReader{b: b}
	t.Version = r.u16(0)
	t.WeightClass = r.u16(4)
	t.WidthClass = r.u16(6)
	t.FsSelection = r.u16(62)
	if size >= 66 {
		t.FirstCharIndex = r.u16(64)
		t.hasFirstCharInx = true
	}
	if size >= 74 {
		t.TypoAscender = r.i16(68)
		t.TypoDescender = r.i16(70)
		t.TypoLineGap = r.i16(72)
		t.HasTypoMetrics = true
	}
	if t.Version >= 2 && size >= 90 {
		t.XHeight = r.i16(86)
		t.CapHeight = r.i16(88)
		t.HasXHeight = true
	}
	return t, r.err
}

// deriveHeights sets x-height and cap-height for OS/2 tables which do not
// carry them: x-height is half an em, cap-height is 0.7 em.
func (t *OS2Table) deriveHeights(unitsPerEm uint16) {
	if t.HasXHeight {
		return
	}
	t.XHeight = int16(int(unitsPerEm) / 2)
	t.CapHeight = int16(int(unitsPerEm) * 7 / 10)
}

// --- Loca table ------------------------------------------------------------

// LocaTable stores the offsets to the locations of the glyphs in the font,
// relative to the beginning of the glyph data table.
// By definition, index zero points to the “missing character”, which is the character
// that appears if a character is not found in the font. The missing character is
// commonly represented by a blank box or a space.
type LocaTable struct {
	tableBase
	inx2loc func(t *LocaTable, gid GlyphIndex) uint32 // returns glyph location for glyph gid
	locCnt  int                                       // number of glyphs
}

// Dependencies (taken from Apple Developer page about TrueType):
// The size of entries in the 'loca' table must be appropriate for the value of the
// indexToLocFormat field of the 'head' table. The number of entries must be the same
// as the numGlyphs field of the 'maxp' table, plus one.
func parseLoca(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &LocaTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.inx2loc = shortLocaVersion // may get changed by font consistency check
	t.self = t
	return t, nil
}

// IndexToLocation offsets, indexed by glyph IDs, which provide the location of each
// glyph data block within the 'glyf' table. gid may be equal to the number
// of glyphs, returning the end of the last glyph.
func (t *LocaTable) IndexToLocation(gid GlyphIndex) uint32 {
	return t.inx2loc(t, gid)
}

func shortLocaVersion(t *LocaTable, gid GlyphIndex) uint32 {
	// in case of error link to 'missing character' at location 0
	if int(gid) > t.locCnt {
		return 0
	}
	loc, err := t.data.u16(int(gid) * 2)
	if err != nil {
		return 0
	}
	return uint32(loc) * 2
}

func longLocaVersion(t *LocaTable, gid GlyphIndex) uint32 {
	// in case of error link to 'missing character' at location 0
	if int(gid) > t.locCnt {
		return 0
	}
	loc, err := t.data.u32(int(gid) * 4)
	if err != nil {
		return 0
	}
	return loc
}

// --- Glyf table ------------------------------------------------------------

// GlyfTable holds the bounding boxes of the font's TrueType glyphs.
// Glyph outlines are not interpreted.
type GlyfTable struct {
	tableBase
	boxes []BBox
}

func parseGlyf(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &GlyfTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	return t, nil
}

// decode reads the glyph headers for every glyph located by loca.
// Glyphs without outline (e.g., space) get a zero bounding box.
func (t *GlyfTable) decode(loca *LocaTable) error {
	t.boxes = make([]BBox, loca.locCnt)
	for g := range t.boxes {
		from, to := loca.IndexToLocation(GlyphIndex(g)), loca.IndexToLocation(GlyphIndex(g+1))
		if to <= from {
			continue
		}
		hdr, err := t.data.view(int(from), 10)
		if err != nil {
			return fmt.Errorf("glyph %d out of bounds", g)
		}
		r := fieldReader{b: hdr}
		t.boxes[g] = readBBox(&r, 2)
	}
	return nil
}

// BBox returns the bounding box of glyph g.
func (t *GlyfTable) BBox(g GlyphIndex) BBox {
	if int(g) >= len(t.boxes) {
		return BBox{}
	}
	return t.boxes[g]
}

// --- Kern table ------------------------------------------------------------

// KernTable gives information about kerning and kern pairs.
// The kerning table contains the values that control the inter-character spacing for
// the glyphs in a font. OpenType™ fonts containing CFF outlines are not supported
// by the 'kern' table and must use the GPOS OpenType Layout table.
//
// Only format 0 sub-tables with horizontal kerning values are interpreted
// (as does MS Windows).
type KernTable struct {
	tableBase
	pairs map[uint32]int16
}

func parseKern(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &KernTable{tableBase: makeTableBase(tag, b, offset, size), pairs: make(map[uint32]int16)}
	t.self = t
	if size < 4 {
		return t, nil
	}
	var N, suboffset int
	apple := u32(b) == 0x00010000
	if apple {
		tracer().Debugf("font has Apple TTF kern table format")
		n, _ := b.u32(4) // number of kerning tables is uint32
		N, suboffset = int(n), 8
	} else {
		tracer().Debugf("font has OTF (MS) kern table format")
		n, _ := b.u16(2) // number of kerning tables is uint16
		N, suboffset = int(n), 4
	}
	tracer().Debugf("kern table has %d sub-tables", N)
	for i := 0; i < N; i++ { // read in N sub-tables
		r := fieldReader{b: b}
		var length, headerlen int
		var format uint8
		var horizontal, usable bool
		if apple {
			// length u32, coverage u16, tupleIndex u16
			length, headerlen = int(r.u32(suboffset)), 8
			coverage := r.u16(suboffset + 4)
			format = uint8(coverage & 0xff)
			horizontal = coverage&0x8000 == 0
			usable = coverage&0x6000 == 0 // no cross-stream, no variation
		} else {
			// version u16, length u16, coverage u16
			length, headerlen = int(r.u16(suboffset+2)), 6
			coverage := r.u16(suboffset + 4)
			format = uint8(coverage >> 8)
			horizontal = coverage&0x1 != 0
			usable = coverage&0x6 == 0 // no minimum values, no cross-stream
		}
		if r.err != nil {
			return nil, errFontFormat("kern table format")
		}
		if format != 0 || !horizontal || !usable {
			tracer().Infof("kern sub-table format %d not supported, ignoring sub-table", format)
			suboffset += length
			continue
		}
		npairs, err := b.u16(suboffset + headerlen)
		if err != nil {
			return nil, errFontFormat("kern table format")
		}
		// For some fonts, size calculation of kern sub-tables is off; see
		// https://github.com/fonttools/fonttools/issues/314#issuecomment-118116527
		// We therefore rely on the number of pairs only.
		pairs, err := viewArray(b, suboffset+headerlen+8, int(npairs), 6)
		if err != nil {
			return nil, errFontFormat("kern sub-table size exceeds kern table bounds")
		}
		for j := 0; j < pairs.Len(); j++ {
			p := pairs.Get(j)
			t.pairs[p.U32(0)] = int16(p.U16(4))
		}
		suboffset += headerlen + 8 + pairs.Size()
	}
	tracer().Debugf("table kern has %d pairs", len(t.pairs))
	return t, nil
}

// Kerning returns the horizontal kerning value for a pair of glyphs, in font units.
func (t *KernTable) Kerning(left, right GlyphIndex) (int16, bool) {
	v, ok := t.pairs[uint32(left)<<16|uint32(right)]
	return v, ok
}

// Len returns the number of kerning pairs.
func (t *KernTable) Len() int {
	return len(t.pairs)
}
