/*
Package ottest synthesizes OpenType font files for tests.

Fonts are described by a Font value, listing glyphs with their metrics, names
and code-points, plus optional kerning pairs and layout tables. Bytes
assembles a complete sfnt file with valid table checksums, which may then be
tampered with by tests. Subtable helpers produce the binary form of GSUB and
GPOS lookup subtables.

	f := ottest.Font{UnitsPerEm: 1000, Glyphs: []ottest.Glyph{
		{Name: ".notdef", Advance: 500},
		{Name: "A", Rune: 'A', Advance: 600},
	}}
	data := f.Bytes()

The package does not depend on the font decoder; font data produced here is
meant to be decoded by the code under test.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ottest

import (
	"encoding/binary"
	"math"
	"math/bits"
	"sort"
)

// Glyph describes a glyph of a synthesized font.
type Glyph struct {
	Name    string
	Rune    rune // 0 for glyphs not reachable by cmap
	Advance uint16
	LSB     int16
	BBox    [4]int16 // xMin, yMin, xMax, yMax; all zero for glyphs without outline
}

// Pair is a kerning pair in font units.
type Pair struct {
	Left, Right uint16
	Value       int16
}

// Font describes a TrueType-flavoured OpenType font. Zero values are replaced
// by sensible defaults, see Defaults.
type Font struct {
	Family, Subfamily string
	UnitsPerEm        uint16
	Ascender          int16
	Descender         int16
	LineGap           int16
	Weight, Width     uint16
	FsSelection       uint16
	OS2Version        uint16 // versions < 2 carry neither x-height nor cap-height
	XHeight           int16
	CapHeight         int16
	ItalicAngle       float64
	FixedPitch        bool
	Glyphs            []Glyph // glyph 0 should be .notdef
	Kern              []Pair  // becomes table 'kern'
	GSub, GPos        *Layout
	// Tables replaces generated tables or adds extra ones. A nil value removes
	// a generated table from the font.
	Tables map[string][]byte
}

// Defaults fills in zero values.
func (f *Font) Defaults() {
	if f.Family == "" {
		f.Family = "Fixture"
	}
	if f.Subfamily == "" {
		f.Subfamily = "Regular"
	}
	if f.UnitsPerEm == 0 {
		f.UnitsPerEm = 1000
	}
	if f.Ascender == 0 && f.Descender == 0 {
		f.Ascender, f.Descender = 800, -200
	}
	if f.Weight == 0 {
		f.Weight = 400
	}
	if f.Width == 0 {
		f.Width = 5
	}
	if f.OS2Version == 0 {
		f.OS2Version = 4
	}
	if f.OS2Version >= 2 && f.XHeight == 0 {
		f.XHeight, f.CapHeight = 500, 700
	}
	if len(f.Glyphs) == 0 {
		f.Glyphs = []Glyph{{Name: ".notdef", Advance: 500}}
	}
}

// Bytes returns the binary sfnt representation of the font.
func (f *Font) Bytes() []byte {
	return Build(f.GenerateTables())
}

// GenerateTables returns the tables of the font, keyed by tag.
func (f *Font) GenerateTables() map[string][]byte {
	f.Defaults()
	tables := map[string][]byte{
		"head": f.head(),
		"hhea": f.hhea(),
		"hmtx": f.hmtx(),
		"maxp": f.maxp(),
		"name": f.name(),
		"OS/2": f.os2(),
		"post": f.post(),
		"cmap": f.cmap(),
	}
	tables["loca"], tables["glyf"] = f.glyf()
	if len(f.Kern) > 0 {
		tables["kern"] = f.kern()
	}
	if f.GSub != nil {
		tables["GSUB"] = f.GSub.Bytes()
	}
	if f.GPos != nil {
		tables["GPOS"] = f.GPos.Bytes()
	}
	for tag, data := range f.Tables {
		if data == nil {
			delete(tables, tag)
			continue
		}
		tables[tag] = data
	}
	return tables
}

func (f *Font) bbox() [4]int16 {
	var bb [4]int16
	for _, g := range f.Glyphs {
		bb[0], bb[1] = min(bb[0], g.BBox[0]), min(bb[1], g.BBox[1])
		bb[2], bb[3] = max(bb[2], g.BBox[2]), max(bb[3], g.BBox[3])
	}
	return bb
}

func (f *Font) head() []byte {
	w := &writer{}
	w.u32(0x00010000, 0x00010000, 0, 0x5f0f3cf5) // version, revision, checkSumAdjustment, magic
	w.u16(0x000b, f.UnitsPerEm)                   // flags, unitsPerEm
	w.u32(0, 0, 0, 0)                             // created, modified
	bb := f.bbox()
	w.i16(bb[0], bb[1], bb[2], bb[3])
	var macStyle uint16
	if f.FsSelection&0x20 != 0 {
		macStyle |= 1
	}
	if f.FsSelection&0x01 != 0 {
		macStyle |= 2
	}
	w.u16(macStyle, 8) // macStyle, lowestRecPPEM
	w.i16(2, 1, 0)     // fontDirectionHint, indexToLocFormat = long, glyphDataFormat
	return w.b
}

func (f *Font) hhea() []byte {
	w := &writer{}
	w.u32(0x00010000)
	w.i16(f.Ascender, f.Descender, f.LineGap)
	var maxAdv uint16
	for _, g := range f.Glyphs {
		maxAdv = max(maxAdv, g.Advance)
	}
	w.u16(maxAdv)
	w.i16(0, 0, 0, 1, 0, 0) // minLSB, minRSB, xMaxExtent, caretSlopeRise/Run, caretOffset
	w.i16(0, 0, 0, 0, 0)    // reserved, metricDataFormat
	w.u16(uint16(len(f.Glyphs)))
	return w.b
}

func (f *Font) hmtx() []byte {
	w := &writer{}
	for _, g := range f.Glyphs {
		w.u16(g.Advance)
		w.i16(g.LSB)
	}
	return w.b
}

func (f *Font) maxp() []byte {
	w := &writer{}
	w.u32(0x00010000)
	w.u16(uint16(len(f.Glyphs)))
	w.pad(26)
	return w.b
}

// name writes Windows Unicode names in English for family, subfamily,
// full name and PostScript name.
func (f *Font) name() []byte {
	full := f.Family + " " + f.Subfamily
	ps := f.Family + "-" + f.Subfamily
	names := []struct {
		id  uint16
		val string
	}{{1, f.Family}, {2, f.Subfamily}, {4, full}, {6, ps}}
	w := &writer{}
	w.u16(0, uint16(len(names)), uint16(6+12*len(names)))
	strs := &writer{}
	for _, n := range names {
		s := utf16be(n.val)
		w.u16(3, 1, 0x409, n.id, uint16(len(s)), uint16(len(strs.b)))
		strs.bytes(s)
	}
	w.bytes(strs.b)
	return w.b
}

func utf16be(s string) []byte {
	var b []byte
	for _, r := range s {
		if r > 0xffff {
			r1, r2 := 0xd800+((r-0x10000)>>10), 0xdc00+((r-0x10000)&0x3ff)
			b = binary.BigEndian.AppendUint16(b, uint16(r1))
			b = binary.BigEndian.AppendUint16(b, uint16(r2))
			continue
		}
		b = binary.BigEndian.AppendUint16(b, uint16(r))
	}
	return b
}

func (f *Font) os2() []byte {
	w := &writer{}
	w.u16(f.OS2Version, 500, f.Weight, f.Width, 0) // version, xAvgCharWidth, weight, width, fsType
	w.pad(20)                                      // sub- and superscript metrics, strikeout
	w.pad(2 + 10 + 16)                             // family class, panose, unicode ranges
	w.bytes([]byte("NONE"))
	first, last := f.charRange()
	w.u16(f.FsSelection, first, last)
	w.i16(f.Ascender, f.Descender, f.LineGap)
	w.u16(uint16(f.Ascender), uint16(-f.Descender))
	if f.OS2Version < 1 {
		return w.b
	}
	w.u32(1, 0) // code page ranges
	if f.OS2Version < 2 {
		return w.b
	}
	w.i16(f.XHeight, f.CapHeight)
	w.u16(0, 32, 1) // defaultChar, breakChar, maxContext
	return w.b
}

func (f *Font) charRange() (uint16, uint16) {
	first, last := uint16(0xffff), uint16(0)
	for _, g := range f.Glyphs {
		if g.Rune == 0 {
			continue
		}
		r := uint16(min(g.Rune, 0xffff))
		first, last = min(first, r), max(last, r)
	}
	if first > last {
		return 0, 0
	}
	return first, last
}

func (f *Font) post() []byte {
	w := &writer{}
	w.u32(0x00020000, uint32(int32(math.Round(f.ItalicAngle*65536))))
	w.i16(-100, 50) // underline position and thickness
	var fixed uint32
	if f.FixedPitch {
		fixed = 1
	}
	w.u32(fixed, 0, 0, 0, 0)
	w.u16(uint16(len(f.Glyphs)))
	for i, g := range f.Glyphs {
		if g.Name == ".notdef" {
			w.u16(0)
			continue
		}
		w.u16(uint16(258 + i))
	}
	return append(w.b, f.postStrings()...)
}

// postStrings writes one Pascal string per glyph index starting at 258 + i,
// using an empty string for .notdef glyphs.
func (f *Font) postStrings() []byte {
	w := &writer{}
	for _, g := range f.Glyphs {
		name := g.Name
		if name == ".notdef" {
			name = ""
		}
		w.bytes([]byte{byte(len(name))})
		w.bytes([]byte(name))
	}
	return w.b
}

// cmap writes a single (3,1) format 4 subtable with one segment per code-point.
func (f *Font) cmap() []byte {
	type entry struct{ r, g uint16 }
	var entries []entry
	for i, g := range f.Glyphs {
		if g.Rune > 0 && g.Rune < 0xffff {
			entries = append(entries, entry{uint16(g.Rune), uint16(i)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].r < entries[j].r })
	entries = append(entries, entry{0xffff, 0})
	n := len(entries)
	sub := &writer{}
	es := bits.Len(uint(n)) - 1
	sub.u16(4, uint16(16+8*n), 0, uint16(2*n), uint16(2<<es), uint16(es), uint16(2*n-2<<es))
	for _, e := range entries {
		sub.u16(e.r)
	}
	sub.u16(0)
	for _, e := range entries {
		sub.u16(e.r)
	}
	for _, e := range entries {
		sub.u16(e.g - e.r) // modulo 65536
	}
	for range entries {
		sub.u16(0)
	}
	w := &writer{}
	w.u16(0, 1)
	w.u16(3, 1)
	w.u32(12)
	w.bytes(sub.b)
	return w.b
}

// glyf writes glyph headers without outline data. Glyphs with an empty
// bounding box have no glyph data.
func (f *Font) glyf() ([]byte, []byte) {
	loca, glyf := &writer{}, &writer{}
	for _, g := range f.Glyphs {
		loca.u32(uint32(len(glyf.b)))
		if g.BBox == [4]int16{} {
			continue
		}
		glyf.i16(0, g.BBox[0], g.BBox[1], g.BBox[2], g.BBox[3])
		glyf.u16(0) // instruction length, keeps glyphs aligned
	}
	loca.u32(uint32(len(glyf.b)))
	if len(glyf.b) == 0 {
		glyf.u16(0)
	}
	return loca.b, glyf.b
}

// kern writes a Microsoft-style kern table with one format 0 subtable.
func (f *Font) kern() []byte {
	pairs := append([]Pair(nil), f.Kern...)
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
	n := len(pairs)
	es := bits.Len(uint(n)) - 1
	w := &writer{}
	w.u16(0, 1)                      // version, nTables
	w.u16(0, uint16(14+6*n), 0x0001) // version, length, coverage: horizontal, format 0
	w.u16(uint16(n), uint16(6<<es), uint16(es), uint16(6*n-6<<es))
	for _, p := range pairs {
		w.u16(p.Left, p.Right)
		w.i16(p.Value)
	}
	return w.b
}

// --- Assembling an sfnt file -----------------------------------------------

// Build assembles an sfnt file with TrueType outlines from a set of tables.
// Table checksums and the head table's checkSumAdjustment are set.
func Build(tables map[string][]byte) []byte {
	tags := make([]string, 0, len(tables))
	for tag := range tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	n := len(tags)
	es := bits.Len(uint(n)) - 1
	w := &writer{}
	w.u32(0x00010000)
	w.u16(uint16(n), uint16(16<<es), uint16(es), uint16(16*n-16<<es))
	offset := 12 + 16*n
	var body writer
	headAt := -1
	for _, tag := range tags {
		data := tables[tag]
		if tag == "head" && len(data) >= 12 {
			data = append([]byte(nil), data...)
			binary.BigEndian.PutUint32(data[8:12], 0)
			headAt = offset + len(body.b)
		}
		w.bytes([]byte(tag + "    ")[:4])
		w.u32(Checksum(tag, data), uint32(offset+len(body.b)), uint32(len(data)))
		body.bytes(data)
		for len(body.b)%4 != 0 {
			body.b = append(body.b, 0)
		}
	}
	font := append(w.b, body.b...)
	if headAt >= 0 {
		adj := 0xb1b0afba - Checksum("", font)
		binary.BigEndian.PutUint32(font[headAt+8:], adj)
	}
	return font
}

// Checksum calculates an sfnt table checksum. For table 'head' the
// checkSumAdjustment field is skipped.
func Checksum(tag string, data []byte) uint32 {
	var sum uint32
	for i := 0; i < len(data); i += 4 {
		if tag == "head" && i == 8 {
			continue
		}
		var word [4]byte
		copy(word[:], data[i:])
		sum += binary.BigEndian.Uint32(word[:])
	}
	return sum
}

// Collection assembles a font collection ('ttcf', version 1.0) from sfnt
// files produced by Build. Tables are not shared between fonts.
func Collection(fonts ...[]byte) []byte {
	w := &writer{}
	w.bytes([]byte("ttcf"))
	w.u16(1, 0)
	w.u32(uint32(len(fonts)))
	base := 12 + 4*len(fonts)
	var body []byte
	for _, font := range fonts {
		at := base + len(body)
		w.u32(uint32(at))
		font = append([]byte(nil), font...)
		n := int(binary.BigEndian.Uint16(font[4:]))
		for i := 0; i < n; i++ {
			rec := font[12+16*i:]
			off := binary.BigEndian.Uint32(rec[8:])
			binary.BigEndian.PutUint32(rec[8:], off+uint32(at))
		}
		body = append(body, font...)
		for len(body)%4 != 0 {
			body = append(body, 0)
		}
	}
	return append(w.b, body...)
}

// TableRange locates a table within an sfnt file.
func TableRange(font []byte, tag string) (offset, length int, ok bool) {
	if len(font) < 12 {
		return 0, 0, false
	}
	n := int(binary.BigEndian.Uint16(font[4:]))
	for i := 0; i < n && 12+16*i+16 <= len(font); i++ {
		rec := font[12+16*i:]
		if string(rec[:4]) == tag {
			return int(binary.BigEndian.Uint32(rec[8:])), int(binary.BigEndian.Uint32(rec[12:])), true
		}
	}
	return 0, 0, false
}

// --- Byte writer -----------------------------------------------------------

type writer struct {
	b []byte
}

func (w *writer) u16(v ...uint16) {
	for _, x := range v {
		w.b = binary.BigEndian.AppendUint16(w.b, x)
	}
}

func (w *writer) i16(v ...int16) {
	for _, x := range v {
		w.b = binary.BigEndian.AppendUint16(w.b, uint16(x))
	}
}

func (w *writer) u32(v ...uint32) {
	for _, x := range v {
		w.b = binary.BigEndian.AppendUint32(w.b, x)
	}
}

func (w *writer) bytes(b []byte) {
	w.b = append(w.b, b...)
}

func (w *writer) pad(n int) {
	w.b = append(w.b, make([]byte, n)...)
}

// patch16 overwrites the uint16 at position at.
func (w *writer) patch16(at int, v uint16) {
	binary.BigEndian.PutUint16(w.b[at:], v)
}

// link appends sub and patches its offset, relative to the start of w,
// into position at.
func (w *writer) link(at int, sub []byte) {
	w.patch16(at, uint16(len(w.b)))
	w.bytes(sub)
}
