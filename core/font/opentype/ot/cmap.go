package ot

/*
Some of the code in this file follows the cmap code of the Go core team,
available from https://github.com/golang/image/tree/master/font/sfnt.

   Copyright 2017 The Go Authors. All rights reserved.
   Use of this source code is governed by a BSD-style
   license that can be found in the LICENSE file.
*/

import "fmt"

// CMapTable represents an OpenType cmap table, i.e. the table to receive glyphs
// from code-points.
//
// See https://docs.microsoft.com/de-de/typography/opentype/spec/cmap
//
// Consulting the cmap table is a very frequent operation on fonts. We therefore
// construct an internal representation of the lookup table. A cmap table may contain
// more than one lookup table, but we will only instantiate the most appropriate one.
// Clients who need access to all the lookup tables will have to parse them themselves.
type CMapTable struct {
	tableBase
	GlyphIndexMap CMapGlyphIndex
	PlatformID    uint16 // platform of the selected subtable
	EncodingID    uint16 // encoding of the selected subtable
	Format        uint16 // format of the selected subtable
}

// cmapPreference lists (platform, encoding) combinations in order of preference.
// Full Unicode repertoires come first, then BMP-only ones, then legacy and
// symbol encodings.
var cmapPreference = [][2]uint16{
	{0, 4}, {0, 3}, {3, 10}, {3, 1}, {0, 2}, {0, 1}, {0, 0}, {3, 0},
}

// The various cmap formats are described at
// https://www.microsoft.com/typography/otspec/cmap.htm
//
// From the spec.: Of the seven available formats, not all are commonly used today.
// Formats 4 or 12 are appropriate for most new fonts, depending on the Unicode character
// repertoire supported. Format 14 is used in many applications for support of Unicode
// variation sequences. Some platforms also make use for format 13 for a last-resort
// fallback font. Other subtable formats are not recommended for use in new fonts.
// Application developers, however, should anticipate that any of the formats may be used
// in fonts.
//
// We support formats 0, 4, 6, 12 and 13. Format 14 (variation sequences) is not
// supported.
func parseCMap(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &CMapTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	// encoding records: platformID u16, encodingID u16, subtableOffset u32
	recs, err := parseArray(b, 2, 8)
	if err != nil {
		return nil, errFontFormat("cmap table header")
	}
	tracer().Debugf("cmap table has %d encoding records", recs.Len())
	for _, pref := range cmapPreference {
		for i := 0; i < recs.Len(); i++ {
			rec := recs.Get(i)
			pid, psid := rec.U16(0), rec.U16(2)
			if pid != pref[0] || psid != pref[1] {
				continue
			}
			link, err := parseLink32(rec, 4, b)
			if err != nil {
				return nil, errFontFormat("cmap encoding record")
			}
			sub, err := link.Jump()
			if err != nil {
				return nil, errFontFormat("cmap subtable offset")
			}
			format, err := sub.u16(0)
			if err != nil {
				return nil, errFontFormat("cmap subtable format")
			}
			tracer().Debugf("checking cmap subtable (%d | %d | %d)", pid, psid, format)
			inx, err := makeGlyphIndex(sub, format)
			if err != nil {
				return nil, err
			}
			if inx == nil { // unsupported format, try next subtable
				continue
			}
			t.GlyphIndexMap = inx
			t.PlatformID, t.EncodingID, t.Format = pid, psid, format
			return t, nil
		}
	}
	return nil, errFontFormat("no supported cmap subtable")
}

// Dispatcher to create the correct implementation of a CMapGlyphIndex from a given format.
// Returns nil for unsupported formats.
func makeGlyphIndex(b binarySegm, format uint16) (CMapGlyphIndex, error) {
	switch format {
	case 0:
		return makeGlyphIndexFormat0(b)
	case 4:
		return makeGlyphIndexFormat4(b)
	case 6:
		return makeGlyphIndexFormat6(b)
	case 12:
		return makeGlyphIndexFormat12(b, false)
	case 13:
		return makeGlyphIndexFormat12(b, true)
	}
	return nil, nil
}

// symbolFallback handles Windows symbol fonts: if the font has a symbol cmap
// without a glyph for space, space maps to the glyph of the font's first
// character.
func (t *CMapTable) symbolFallback(os2 *OS2Table) {
	if t.PlatformID != 3 || t.EncodingID != 0 || os2 == nil || !os2.hasFirstCharInx {
		return
	}
	if t.GlyphIndexMap.Lookup(' ') != 0 {
		return
	}
	space := t.GlyphIndexMap.Lookup(rune(os2.FirstCharIndex))
	tracer().Debugf("symbol font: mapping space to glyph %d of U+%04X", space, os2.FirstCharIndex)
	t.GlyphIndexMap = symbolGlyphIndex{CMapGlyphIndex: t.GlyphIndexMap, space: space}
}

// CMapGlyphIndex represents a CMap table index to receive a glyph index from
// a code-point.
type CMapGlyphIndex interface {
	Lookup(rune) GlyphIndex        // central activiy of CMap
	ReverseLookup(GlyphIndex) rune // this is non-standard, but helps with tests
}

type symbolGlyphIndex struct {
	CMapGlyphIndex
	space GlyphIndex
}

func (s symbolGlyphIndex) Lookup(r rune) GlyphIndex {
	if r == ' ' {
		return s.space
	}
	return s.CMapGlyphIndex.Lookup(r)
}

// --- Format 0 --------------------------------------------------------------

// Format 0: Byte encoding table. This was the standard character-to-glyph-index
// mapping subtable for the Apple Roman character set.
type format0GlyphIndex [256]byte

func makeGlyphIndexFormat0(b binarySegm) (CMapGlyphIndex, error) {
	glyphs, err := b.view(6, 256)
	if err != nil {
		return nil, errFontFormat("cmap format 0 subtable bounds overflow")
	}
	var f0 format0GlyphIndex
	copy(f0[:], glyphs)
	return f0, nil
}

func (f0 format0GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || r > 255 {
		return 0
	}
	return GlyphIndex(f0[r])
}

func (f0 format0GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	for c, g := range f0 {
		if gid != 0 && GlyphIndex(g) == gid {
			return rune(c)
		}
	}
	return 0
}

// --- Format 4 --------------------------------------------------------------

// Format 4: Segment mapping to delta values
// This is the standard character-to-glyph-index mapping subtable for fonts that support
// only Unicode Basic Multilingual Plane characters (U+0000 to U+FFFF).
//
// This format is used when the character codes for the characters represented by a font
// fall into several contiguous ranges, possibly with holes in some or all of the ranges
// (that is, some of the codes in a range may not have a representation in the font).
type format4GlyphIndex struct {
	entries  []cmapEntry16
	glyphIds array
}

// Format 4 holds four parallel arrays to describe the segments (one segment for
// each contiguous range of codes).
// see https://docs.microsoft.com/en-us/typography/opentype/spec/cmap#format-4-segment-mapping-to-delta-values
type cmapEntry16 struct {
	end, start, delta, offset uint16
}

func (f4 format4GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < 0 || uint32(r) > 0xffff { // format 4 is for BMP code-points only
		return 0 // return index for 'missing character'
	}
	c := uint16(r)
	N := len(f4.entries)
	for i, j := 0, N; i < j; {
		h := i + (j-i)/2 // do a binary search on f4.entries (which may get large)
		entry := &f4.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else if entry.offset == 0 {
			return GlyphIndex(c + entry.delta)
		} else {
			// The spec describes the calculation the find the link into the glyph ID array
			// as follows:
			// “The character code offset from startCode is added to the idRangeOffset value.
			//  This sum is used as an offset from the current location within idRangeOffset
			//  itself to index out the correct glyphIdArray value. This obscure indexing
			//  trick works because glyphIdArray immediately follows idRangeOffset in the
			//  font file.”
			// We already sliced the cmap into sub-segments, so this will not work for us.
			// Instead, we will calculate a clean index into the glyph ID array, which
			// requires us to reverse some of the pre-calculations in the font.
			//
			// First cut off the trailing part of offset which results from
			// skipping over to the start of the glyph ID array:
			deltaToEndOfEntries := (N - h) * 2 // 2 = byte size of offset array entry
			offset := int(entry.offset) - deltaToEndOfEntries
			// Now normalize the index into the glyph ID array
			index := offset / 2 // offset is in bytes, we need an array index
			index += int(c - entry.start)
			glyphInx := f4.glyphIds.Get(index).U16(0)
			if glyphInx > 0 {
				// If the value obtained from the indexing operation is not 0 (which indicates
				// missingGlyph), idDelta[i] is added to it to get the glyph index
				glyphInx += entry.delta
			}
			return GlyphIndex(glyphInx) // will be 0 in case of indexing error
		}
	}
	return GlyphIndex(0)
}

// ReverseLookup retrieves a code-point for a given glyph. The Cmap tables do not
// support this operation, thus this operation is inefficient.
// However, for testing and debugging purposes it is often useful.
func (f4 format4GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	for _, entry := range f4.entries {
		if entry.end < entry.start || entry.start == 0xffff {
			break
		}
		for c := int(entry.start); c <= int(entry.end); c++ {
			if f4.Lookup(rune(c)) == gid {
				return rune(c)
			}
		}
	}
	return 0
}

// The format's data is divided into three parts, which must occur in the following order:
//
// - A four-word header gives parameters for an optimized search of the segment list;
// - Four parallel arrays describe the segments (one segment for each contiguous range of codes);
// - A variable-length array of glyph IDs (unsigned words).
func makeGlyphIndexFormat4(b binarySegm) (CMapGlyphIndex, error) {
	const headerSize = 14
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap subtable bounds overflow")
	}
	size := int(b.U16(2))
	segCount := int(b.U16(6))
	if segCount&1 != 0 {
		tracer().Debugf("cmap format 4 segment count is %d", segCount)
		return nil, errFontFormat("cmap table format, illegal segment count")
	}
	segCount /= 2
	eLength := 8*segCount + 2
	if size > b.Size() {
		// some fonts get the length wrong; trust the data we have
		size = b.Size()
	}
	if headerSize+eLength > size {
		return nil, errFontFormat("cmap internal structure")
	}
	b = b[headerSize:size]
	endCodes, _ := viewArray(b, 0, segCount, 2)
	next := endCodes.Size() + 2 // 2 is a padding entry in the cmap table
	startCodes, _ := viewArray(b, next, segCount, 2)
	next += startCodes.Size()
	deltas, _ := viewArray(b, next, segCount, 2)
	next += deltas.Size()
	offsets, _ := viewArray(b, next, segCount, 2)
	next += offsets.Size()
	entries := make([]cmapEntry16, segCount)
	for i := range entries {
		entries[i] = cmapEntry16{
			end:    endCodes.Get(i).U16(0),
			start:  startCodes.Get(i).U16(0),
			delta:  deltas.Get(i).U16(0),
			offset: offsets.Get(i).U16(0),
		}
	}
	glyphTable, _ := viewArray(b, next, (len(b)-next)/2, 2)
	tracer().Debugf("cmap format 4 glyph table starts at offset %d", next)
	return format4GlyphIndex{
		entries:  entries,
		glyphIds: glyphTable,
	}, nil
}

// --- Format 6 --------------------------------------------------------------

// Format 6: Trimmed table mapping. A dense array of glyph IDs for a single
// contiguous range of character codes.
type format6GlyphIndex struct {
	first  rune
	glyphs []GlyphIndex
}

func makeGlyphIndexFormat6(b binarySegm) (CMapGlyphIndex, error) {
	first, err := b.u16(6)
	if err != nil {
		return nil, errFontFormat("cmap format 6 subtable header")
	}
	glyphs, err := parseArray(b, 8, 2)
	if err != nil {
		return nil, errFontFormat("cmap format 6 subtable bounds overflow")
	}
	return format6GlyphIndex{first: rune(first), glyphs: glyphs.glyphs()}, nil
}

func (f6 format6GlyphIndex) Lookup(r rune) GlyphIndex {
	if r < f6.first || int(r-f6.first) >= len(f6.glyphs) {
		return 0
	}
	return f6.glyphs[r-f6.first]
}

func (f6 format6GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	for i, g := range f6.glyphs {
		if gid != 0 && g == gid {
			return f6.first + rune(i)
		}
	}
	return 0
}

// --- Format 12 and 13 ------------------------------------------------------

type cmapEntry32 struct {
	start, end, delta uint32
}

// Each sequential map group record specifies a character range and the starting glyph ID
// mapped from the first character. Glyph IDs for subsequent characters follow in sequence.
//
// Format 13 (many-to-one range mappings) has the identical layout, but maps every
// character of a group to the same glyph.
type format12GlyphIndex struct {
	entries  []cmapEntry32
	constant bool // format 13
}

func (f12 format12GlyphIndex) Lookup(r rune) GlyphIndex {
	c := uint32(r)
	for i, j := 0, len(f12.entries); i < j; {
		h := i + (j-i)/2 // do a binary search on f12.entries (which may get large)
		entry := &f12.entries[h]
		if c < entry.start {
			j = h
		} else if entry.end < c {
			i = h + 1
		} else if f12.constant {
			return GlyphIndex(entry.delta)
		} else {
			return GlyphIndex(c - entry.start + entry.delta)
		}
	}
	return 0
}

// ReverseLookup retrieves a code-point for a given glyph. The Cmap tables do not
// support this operation, thus this operation is inefficient.
// However, for testing and debugging purposes it is often useful.
func (f12 format12GlyphIndex) ReverseLookup(gid GlyphIndex) rune {
	if gid == 0 {
		return 0
	}
	cid := uint32(gid)
	for _, entry := range f12.entries {
		if f12.constant {
			if entry.delta == cid {
				return rune(entry.start)
			}
			continue
		}
		if cid >= entry.delta && cid-entry.delta <= entry.end-entry.start {
			return rune(entry.start + cid - entry.delta)
		}
	}
	return 0
}

// This is the standard character-to-glyph-index mapping subtable for fonts supporting
// Unicode character repertoires that include supplementary-plane characters (U+10000 to
// U+10FFFF).
//
// Format 12 is similar to format 4 in that it defines segments for sparse representation.
// It differs, however, in that it uses 32-bit character codes, and Glyph ID lookup
// and calculation is a lot simpler.
func makeGlyphIndexFormat12(b binarySegm, constant bool) (CMapGlyphIndex, error) {
	const headerSize = 16
	if headerSize > b.Size() {
		return nil, errFontFormat("cmap subtable bounds overflow")
	}
	grpCount := int(b.U32(12))
	// SequentialMapGroup Record:
	// Type     Name            Description
	// uint32   startCharCode   First character code in this group
	// uint32   endCharCode     Last character code in this group
	// uint32   startGlyphID    Glyph index corresponding to the starting character code
	groups, err := viewArray(b, headerSize, grpCount, 12) // 12 is byte size of group-record
	if err != nil {
		return nil, errFontFormat(fmt.Sprintf("cmap internal structure, %d groups", grpCount))
	}
	entries := make([]cmapEntry32, grpCount)
	for i := range entries {
		g := groups.Get(i)
		entries[i] = cmapEntry32{
			start: g.U32(0),
			end:   g.U32(4),
			delta: g.U32(8),
		}
	}
	return format12GlyphIndex{
		entries:  entries,
		constant: constant,
	}, nil
}
