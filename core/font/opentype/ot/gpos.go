package ot

import (
	"fmt"
	"math/bits"
	"strconv"
)

// GPosTable is a type representing an OpenType GPOS table
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/gpos).
type GPosTable struct {
	tableBase
	LayoutTable
}

func parseGPos(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &GPosTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	var err error
	if t.LayoutTable, err = parseLayoutTable(tag, b, true); err != nil {
		return nil, err
	}
	return t, nil
}

var _ Table = &GPosTable{}

// GPOS Table
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#table-organization

// GPOS Lookup Type Enumeration
const (
	GPosLookupTypeSingle            LayoutTableLookupType = 1 // Adjust position of a single glyph
	GPosLookupTypePair              LayoutTableLookupType = 2 // Adjust position of a pair of glyphs
	GPosLookupTypeCursive           LayoutTableLookupType = 3 // Attach cursive glyphs
	GPosLookupTypeMarkToBase        LayoutTableLookupType = 4 // Attach a combining mark to a base glyph
	GPosLookupTypeMarkToLigature    LayoutTableLookupType = 5 // Attach a combining mark to a ligature
	GPosLookupTypeMarkToMark        LayoutTableLookupType = 6 // Attach a combining mark to another mark
	GPosLookupTypeContextPos        LayoutTableLookupType = 7 // Position one or more glyphs in context
	GPosLookupTypeChainedContextPos LayoutTableLookupType = 8 // Position one or more glyphs in chained context
	GPosLookupTypeExtensionPos      LayoutTableLookupType = 9 // Extension mechanism for other positionings
)

const gposLookupTypeNames = "Single|Pair|Cursive|MarkToBase|MarkToLigature|MarkToMark|ContextPos|Chained|Ext"

var gposLookupTypeInx = [...]int{0, 7, 12, 20, 31, 46, 57, 68, 76, 80}

// GPosString interprets a layout table lookup type as a GPOS table type.
func (lt LayoutTableLookupType) GPosString() string {
	if lt >= GPosLookupTypeSingle && lt <= GPosLookupTypeExtensionPos {
		i := lt - 1
		return gposLookupTypeNames[gposLookupTypeInx[i] : gposLookupTypeInx[i+1]-1]
	}
	return strconv.Itoa(int(lt))
}

func parseGPosSubtable(b binarySegm, typ LayoutTableLookupType) (LookupSubtable, error) {
	format, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	hdr := subtableHeader{lookupType: typ, format: format}
	switch typ {
	case GPosLookupTypeSingle:
		return parseSinglePos(b, hdr)
	case GPosLookupTypePair:
		return parsePairPos(b, hdr)
	case GPosLookupTypeCursive:
		return parseCursivePos(b, hdr)
	case GPosLookupTypeMarkToBase, GPosLookupTypeMarkToMark:
		return parseMarkAttachment(b, hdr)
	case GPosLookupTypeMarkToLigature, GPosLookupTypeContextPos, GPosLookupTypeChainedContextPos:
		tracer().Debugf("GPOS lookup type %s not supported", typ.GPosString())
		return unsupportedSubtable{lookupType: typ, format: format}, nil
	}
	return nil, fmt.Errorf("illegal GPOS lookup type %d", typ)
}

// --- Value records ---------------------------------------------------------

// ValueFormat is a bit-field, flagging which fields a ValueRecord contains.
type ValueFormat uint16

// Value format flags
const (
	ValueXPlacement ValueFormat = 0x0001
	ValueYPlacement ValueFormat = 0x0002
	ValueXAdvance   ValueFormat = 0x0004
	ValueYAdvance   ValueFormat = 0x0008
	ValueXPlaDevice ValueFormat = 0x0010
	ValueYPlaDevice ValueFormat = 0x0020
	ValueXAdvDevice ValueFormat = 0x0040
	ValueYAdvDevice ValueFormat = 0x0080
)

// size returns the byte size of a value record with this format.
func (vf ValueFormat) size() int {
	return 2 * bits.OnesCount16(uint16(vf&0x00ff))
}

// ValueRecord describes all the variables and values used to adjust the position
// of a glyph or set of glyphs. Device table offsets are skipped.
type ValueRecord struct {
	XPlacement int16
	YPlacement int16
	XAdvance   int16
	YAdvance   int16
}

func readValueRecord(b binarySegm, off int, vf ValueFormat) (ValueRecord, error) {
	vr := ValueRecord{}
	r := fieldReader{b: b}
	fields := []*int16{&vr.XPlacement, &vr.YPlacement, &vr.XAdvance, &vr.YAdvance}
	for i, f := range []ValueFormat{ValueXPlacement, ValueYPlacement, ValueXAdvance, ValueYAdvance} {
		if vf&f != 0 {
			*fields[i] = r.i16(off)
			off += 2
		}
	}
	return vr, r.err
}

// Anchor is an anchor point in font units. Formats 2 and 3 of anchor tables
// carry additional hinting data, which is ignored.
type Anchor struct {
	X, Y int16
}

func parseAnchorAt(base binarySegm, offset uint16) (*Anchor, error) {
	link := link16{base: base, offset: offset}
	if link.IsNull() {
		return nil, nil
	}
	b, err := link.Jump()
	if err != nil {
		return nil, err
	}
	r := fieldReader{b: b}
	a := &Anchor{X: r.i16(2), Y: r.i16(4)}
	return a, r.err
}

// --- Single adjustment -----------------------------------------------------

// LookupType 1: Single Adjustment Positioning Subtable
//
// A single adjustment positioning subtable (SinglePos) is used to adjust the placement
// or advance of a single glyph. Format 1 applies the same value to all covered glyphs,
// format 2 has a value record per covered glyph.
type singlePos struct {
	subtableHeader
	coverage Coverage
	values   []ValueRecord
}

func parseSinglePos(b binarySegm, hdr subtableHeader) (LookupSubtable, error) {
	sub := &singlePos{subtableHeader: hdr}
	var err error
	if sub.coverage, err = parseCoverageAt(b, 2); err != nil {
		return nil, err
	}
	vf := ValueFormat(b.U16(4))
	switch hdr.format {
	case 1:
		vr, err := readValueRecord(b, 6, vf)
		if err != nil {
			return nil, err
		}
		sub.values = []ValueRecord{vr}
	case 2:
		recs, err := parseArray(b, 6, vf.size())
		if err != nil {
			return nil, err
		}
		sub.values = make([]ValueRecord, recs.Len())
		for i := range sub.values {
			if sub.values[i], err = readValueRecord(recs.Get(i), 0, vf); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("illegal single positioning format %d", hdr.format)
	}
	return sub, nil
}

func (sub *singlePos) adjustment(g GlyphIndex) (ValueRecord, bool) {
	inx, ok := sub.coverage.Index(g)
	if !ok {
		return ValueRecord{}, false
	}
	if sub.format == 1 {
		return sub.values[0], true
	}
	if inx >= len(sub.values) {
		return ValueRecord{}, false
	}
	return sub.values[inx], true
}

// --- Pair adjustment -------------------------------------------------------

// LookupType 2: Pair Adjustment Positioning Subtable
//
// A pair adjustment positioning subtable (PairPos) is used to adjust the placement or
// advances of two glyphs in relation to one another—for instance, to specify kerning
// data for pairs of glyphs.
//
// Format 1 uses explicit pair sets per first glyph, format 2 uses class
// definitions for both glyphs and a matrix of class pairs. Pair sets are searched
// in the font's binary data.
type pairPos struct {
	subtableHeader
	coverage   Coverage
	vf1, vf2   ValueFormat
	pairSets   []array          // format 1, records: secondGlyph, value1, value2
	classDef1  ClassDefinitions // format 2
	classDef2  ClassDefinitions // format 2
	class2Cnt  int              // format 2
	class1Recs array            // format 2, records of class2Cnt pairs of value records
}

func parsePairPos(b binarySegm, hdr subtableHeader) (LookupSubtable, error) {
	sub := &pairPos{subtableHeader: hdr}
	var err error
	if sub.coverage, err = parseCoverageAt(b, 2); err != nil {
		return nil, err
	}
	r := fieldReader{b: b}
	sub.vf1, sub.vf2 = ValueFormat(r.u16(4)), ValueFormat(r.u16(6))
	pairSize := sub.vf1.size() + sub.vf2.size()
	switch hdr.format {
	case 1:
		offsets, err := parseArray(b, 8, 2)
		if err != nil {
			return nil, err
		}
		sets, err := offsets.offsets16(b)
		if err != nil {
			return nil, err
		}
		sub.pairSets = make([]array, len(sets))
		for i, set := range sets {
			if set == nil {
				continue
			}
			// PairSet: pairValueCount, PairValueRecord{secondGlyph, valueRecord1, valueRecord2}
			if sub.pairSets[i], err = parseArray(set, 0, 2+pairSize); err != nil {
				return nil, err
			}
		}
	case 2:
		cd1, cd2 := link16{base: b, offset: r.u16(8)}, link16{base: b, offset: r.u16(10)}
		class1Cnt, class2Cnt := int(r.u16(12)), int(r.u16(14))
		if r.err != nil {
			return nil, r.err
		}
		if sub.classDef1, err = parseClassDefAt(cd1); err != nil {
			return nil, err
		}
		if sub.classDef2, err = parseClassDefAt(cd2); err != nil {
			return nil, err
		}
		sub.class2Cnt = class2Cnt
		if sub.class1Recs, err = viewArray(b, 16, class1Cnt, class2Cnt*pairSize); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("illegal pair positioning format %d", hdr.format)
	}
	return sub, nil
}

func parseClassDefAt(link link16) (ClassDefinitions, error) {
	if link.IsNull() { // every glyph is in class 0
		return ClassDefinitions{Format: 1}, nil
	}
	b, err := link.Jump()
	if err != nil {
		return ClassDefinitions{}, err
	}
	return parseClassDefinitions(b)
}

func (sub *pairPos) adjustment(a, b GlyphIndex) (ValueRecord, ValueRecord, bool) {
	inx, ok := sub.coverage.Index(a)
	if !ok {
		return ValueRecord{}, ValueRecord{}, false
	}
	size1 := sub.vf1.size()
	var rec binarySegm
	if sub.format == 1 {
		if inx >= len(sub.pairSets) {
			return ValueRecord{}, ValueRecord{}, false
		}
		set := sub.pairSets[inx]
		// pair value records are ordered by second glyph: binary search
		i, j := 0, set.Len()
		for i < j {
			h := i + (j-i)/2
			second := GlyphIndex(set.Get(h).U16(0))
			if second < b {
				i = h + 1
			} else {
				j = h
			}
		}
		if i >= set.Len() || GlyphIndex(set.Get(i).U16(0)) != b {
			return ValueRecord{}, ValueRecord{}, false
		}
		rec = set.Get(i)[2:]
	} else {
		c1, c2 := sub.classDef1.Class(a), sub.classDef2.Class(b)
		if c1 >= sub.class1Recs.Len() || c2 >= sub.class2Cnt {
			return ValueRecord{}, ValueRecord{}, false
		}
		pairSize := size1 + sub.vf2.size()
		rec = sub.class1Recs.Get(c1)[c2*pairSize:]
	}
	v1, err1 := readValueRecord(rec, 0, sub.vf1)
	v2, err2 := readValueRecord(rec, size1, sub.vf2)
	if err1 != nil || err2 != nil {
		return ValueRecord{}, ValueRecord{}, false
	}
	return v1, v2, true
}

// --- Cursive attachment ----------------------------------------------------

// LookupType 3: Cursive Attachment Positioning Subtable
//
// Each covered glyph has an entry and an exit anchor, either of which may be absent.
type cursivePos struct {
	subtableHeader
	coverage Coverage
	entries  []*Anchor
	exits    []*Anchor
}

func parseCursivePos(b binarySegm, hdr subtableHeader) (LookupSubtable, error) {
	if hdr.format != 1 {
		return nil, fmt.Errorf("illegal cursive attachment format %d", hdr.format)
	}
	sub := &cursivePos{subtableHeader: hdr}
	var err error
	if sub.coverage, err = parseCoverageAt(b, 2); err != nil {
		return nil, err
	}
	// EntryExitRecord: entryAnchorOffset, exitAnchorOffset (from beginning of subtable)
	recs, err := parseArray(b, 4, 4)
	if err != nil {
		return nil, err
	}
	sub.entries, sub.exits = make([]*Anchor, recs.Len()), make([]*Anchor, recs.Len())
	for i := 0; i < recs.Len(); i++ {
		rec := recs.Get(i)
		if sub.entries[i], err = parseAnchorAt(b, rec.U16(0)); err != nil {
			return nil, err
		}
		if sub.exits[i], err = parseAnchorAt(b, rec.U16(2)); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func (sub *cursivePos) anchors(g GlyphIndex) (*Anchor, *Anchor, bool) {
	inx, ok := sub.coverage.Index(g)
	if !ok || inx >= len(sub.entries) {
		return nil, nil, false
	}
	return sub.entries[inx], sub.exits[inx], true
}

// --- Mark attachment -------------------------------------------------------

// LookupType 4: Mark-to-Base Attachment Positioning Subtable and
// LookupType 6: Mark-to-Mark Attachment Positioning Subtable
//
// Both types have identical structure: a coverage table for marks and one for bases
// (or preceding marks), a mark array assigning a class and an anchor to each mark,
// and a base array with one anchor per mark class for each base.
type markAttachment struct {
	subtableHeader
	markCoverage Coverage
	baseCoverage Coverage
	markClasses  []uint16
	markAnchors  []*Anchor
	baseAnchors  [][]*Anchor // [base][mark class]
}

func parseMarkAttachment(b binarySegm, hdr subtableHeader) (LookupSubtable, error) {
	if hdr.format != 1 {
		return nil, fmt.Errorf("illegal mark attachment format %d", hdr.format)
	}
	sub := &markAttachment{subtableHeader: hdr}
	var err error
	if sub.markCoverage, err = parseCoverageAt(b, 2); err != nil {
		return nil, err
	}
	if sub.baseCoverage, err = parseCoverageAt(b, 4); err != nil {
		return nil, err
	}
	r := fieldReader{b: b}
	classCount := int(r.u16(6))
	markArrayLink, baseArrayLink := link16{base: b, offset: r.u16(8)}, link16{base: b, offset: r.u16(10)}
	if r.err != nil {
		return nil, r.err
	}
	// MarkArray: markCount, MarkRecord{markClass, markAnchorOffset (from MarkArray)}
	markArray, err := markArrayLink.Jump()
	if err != nil {
		return nil, err
	}
	marks, err := parseArray(markArray, 0, 4)
	if err != nil {
		return nil, err
	}
	sub.markClasses, sub.markAnchors = make([]uint16, marks.Len()), make([]*Anchor, marks.Len())
	for i := 0; i < marks.Len(); i++ {
		rec := marks.Get(i)
		sub.markClasses[i] = rec.U16(0)
		if sub.markAnchors[i], err = parseAnchorAt(markArray, rec.U16(2)); err != nil {
			return nil, err
		}
	}
	// BaseArray: baseCount, BaseRecord{baseAnchorOffsets[markClassCount] (from BaseArray)}
	baseArray, err := baseArrayLink.Jump()
	if err != nil {
		return nil, err
	}
	bases, err := parseArray(baseArray, 0, 2*classCount)
	if err != nil {
		return nil, err
	}
	sub.baseAnchors = make([][]*Anchor, bases.Len())
	for i := range sub.baseAnchors {
		rec := bases.Get(i)
		sub.baseAnchors[i] = make([]*Anchor, classCount)
		for c := 0; c < classCount; c++ {
			if sub.baseAnchors[i][c], err = parseAnchorAt(baseArray, rec.U16(2*c)); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}

// attach returns the offset to apply to a mark, relative to the base's origin.
func (sub *markAttachment) attach(mark, base GlyphIndex) (int, int, bool) {
	mi, ok := sub.markCoverage.Index(mark)
	if !ok || mi >= len(sub.markClasses) {
		return 0, 0, false
	}
	bi, ok := sub.baseCoverage.Index(base)
	if !ok || bi >= len(sub.baseAnchors) {
		return 0, 0, false
	}
	class := int(sub.markClasses[mi])
	if class >= len(sub.baseAnchors[bi]) {
		return 0, 0, false
	}
	ba, ma := sub.baseAnchors[bi][class], sub.markAnchors[mi]
	if ba == nil || ma == nil {
		return 0, 0, false
	}
	return int(ba.X) - int(ma.X), int(ba.Y) - int(ma.Y), true
}

// --- Positioning operations ------------------------------------------------

type singleAdjuster interface {
	adjustment(GlyphIndex) (ValueRecord, bool)
}

type pairAdjuster interface {
	adjustment(GlyphIndex, GlyphIndex) (ValueRecord, ValueRecord, bool)
}

type cursiveAttacher interface {
	anchors(GlyphIndex) (*Anchor, *Anchor, bool)
}

type markAttacher interface {
	attach(GlyphIndex, GlyphIndex) (int, int, bool)
}

// SingleAdjustment returns the value record for glyph g.
func (l *Lookup) SingleAdjustment(g GlyphIndex) (ValueRecord, bool) {
	for i := 0; i < l.SubTableCount(); i++ {
		if sub, ok := l.Subtable(i).(singleAdjuster); ok {
			if vr, ok := sub.adjustment(g); ok {
				return vr, true
			}
		}
	}
	return ValueRecord{}, false
}

// PairAdjustment returns the value records for the glyph pair (a, b).
// Kerning is the XAdvance of the first value record.
func (l *Lookup) PairAdjustment(a, b GlyphIndex) (ValueRecord, ValueRecord, bool) {
	for i := 0; i < l.SubTableCount(); i++ {
		if sub, ok := l.Subtable(i).(pairAdjuster); ok {
			if v1, v2, ok := sub.adjustment(a, b); ok {
				return v1, v2, true
			}
		}
	}
	return ValueRecord{}, ValueRecord{}, false
}

// CursiveAnchors returns the entry and exit anchors of glyph g. Either may be nil.
func (l *Lookup) CursiveAnchors(g GlyphIndex) (*Anchor, *Anchor, bool) {
	for i := 0; i < l.SubTableCount(); i++ {
		if sub, ok := l.Subtable(i).(cursiveAttacher); ok {
			if entry, exit, ok := sub.anchors(g); ok {
				return entry, exit, true
			}
		}
	}
	return nil, nil, false
}

// MarkToBase returns the offset (dx, dy) to position mark relative to base,
// i.e., the base anchor minus the mark anchor. For mark-to-mark lookups, base
// is the preceding mark.
func (l *Lookup) MarkToBase(mark, base GlyphIndex) (int, int, bool) {
	for i := 0; i < l.SubTableCount(); i++ {
		if sub, ok := l.Subtable(i).(markAttacher); ok {
			if dx, dy, ok := sub.attach(mark, base); ok {
				return dx, dy, true
			}
		}
	}
	return 0, 0, false
}

// SingleAdjustment returns the first matching single adjustment of the lookups.
func (fl FeatureLookups) SingleAdjustment(g GlyphIndex) (ValueRecord, bool) {
	for _, l := range fl {
		if vr, ok := l.SingleAdjustment(g); ok {
			return vr, true
		}
	}
	return ValueRecord{}, false
}

// PairAdjustment returns the first matching pair adjustment of the lookups.
func (fl FeatureLookups) PairAdjustment(a, b GlyphIndex) (ValueRecord, ValueRecord, bool) {
	for _, l := range fl {
		if v1, v2, ok := l.PairAdjustment(a, b); ok {
			return v1, v2, true
		}
	}
	return ValueRecord{}, ValueRecord{}, false
}

// CursiveAnchors returns the first matching cursive anchors of the lookups.
func (fl FeatureLookups) CursiveAnchors(g GlyphIndex) (*Anchor, *Anchor, bool) {
	for _, l := range fl {
		if entry, exit, ok := l.CursiveAnchors(g); ok {
			return entry, exit, true
		}
	}
	return nil, nil, false
}

// MarkToBase returns the first matching mark attachment of the lookups.
func (fl FeatureLookups) MarkToBase(mark, base GlyphIndex) (int, int, bool) {
	for _, l := range fl {
		if dx, dy, ok := l.MarkToBase(mark, base); ok {
			return dx, dy, true
		}
	}
	return 0, 0, false
}
