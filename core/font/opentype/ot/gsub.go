package ot

import (
	"fmt"
	"strconv"
)

// GSubTable is a type representing an OpenType GSUB table
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/gsub).
type GSubTable struct {
	tableBase
	LayoutTable
}

func parseGSub(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	t := &GSubTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	var err error
	if t.LayoutTable, err = parseLayoutTable(tag, b, false); err != nil {
		return nil, err
	}
	return t, nil
}

var _ Table = &GSubTable{}

// GSUB Table Lookup Type
// https://docs.microsoft.com/en-us/typography/opentype/spec/gsub#table-organization

// GSUB Lookup Type Enumeration
const (
	GSubLookupTypeSingle          LayoutTableLookupType = 1 // Replace one glyph with one glyph
	GSubLookupTypeMultiple        LayoutTableLookupType = 2 // Replace one glyph with more than one glyph
	GSubLookupTypeAlternate       LayoutTableLookupType = 3 // Replace one glyph with one of many glyphs
	GSubLookupTypeLigature        LayoutTableLookupType = 4 // Replace multiple glyphs with one glyph
	GSubLookupTypeContext         LayoutTableLookupType = 5 // Replace one or more glyphs in context
	GSubLookupTypeChainingContext LayoutTableLookupType = 6 // Replace one or more glyphs in chained context
	GSubLookupTypeExtensionSubs   LayoutTableLookupType = 7 // Extension mechanism for other substitutions
	GSubLookupTypeReverseChaining LayoutTableLookupType = 8 // Applied in reverse order, replace single glyph in chaining context
)

const gsubLookupTypeNames = "Single|Multiple|Alternate|Ligature|Context|Chaining|Extension|Reverse"

var gsubLookupTypeInx = [...]int{0, 7, 16, 26, 35, 43, 52, 62, 70}

// GSubString interprets a layout table lookup type as a GSUB table type.
func (lt LayoutTableLookupType) GSubString() string {
	if lt >= GSubLookupTypeSingle && lt <= GSubLookupTypeReverseChaining {
		i := lt - 1
		return gsubLookupTypeNames[gsubLookupTypeInx[i] : gsubLookupTypeInx[i+1]-1]
	}
	return strconv.Itoa(int(lt))
}

func parseGSubSubtable(b binarySegm, typ LayoutTableLookupType) (LookupSubtable, error) {
	format, err := b.u16(0)
	if err != nil {
		return nil, err
	}
	hdr := subtableHeader{lookupType: typ, format: format}
	switch typ {
	case GSubLookupTypeSingle:
		return parseSingleSubst(b, hdr)
	case GSubLookupTypeMultiple, GSubLookupTypeAlternate:
		return parseSequenceSubst(b, hdr)
	case GSubLookupTypeLigature:
		return parseLigatureSubst(b, hdr)
	case GSubLookupTypeContext, GSubLookupTypeChainingContext, GSubLookupTypeReverseChaining:
		tracer().Debugf("GSUB lookup type %s not supported", typ.GSubString())
		return unsupportedSubtable{lookupType: typ, format: format}, nil
	}
	return nil, fmt.Errorf("illegal GSUB lookup type %d", typ)
}

// --- Single substitution ---------------------------------------------------

// LookupType 1: Single Substitution Subtable
//
// Single substitution (SingleSubst) subtables tell a client to replace a single glyph
// with another glyph. Format 1 adds a delta (modulo 65536) to the input glyph ID,
// format 2 selects a substitute from an array by coverage index.
type singleSubst struct {
	subtableHeader
	coverage    Coverage
	delta       uint16       // format 1
	substitutes []GlyphIndex // format 2
}

func parseSingleSubst(b binarySegm, hdr subtableHeader) (LookupSubtable, error) {
	sub := &singleSubst{subtableHeader: hdr}
	var err error
	if sub.coverage, err = parseCoverageAt(b, 2); err != nil {
		return nil, err
	}
	switch hdr.format {
	case 1:
		sub.delta, err = b.u16(4)
	case 2:
		var glyphs array
		glyphs, err = parseArray(b, 4, 2)
		sub.substitutes = glyphs.glyphs()
	default:
		err = fmt.Errorf("illegal single substitution format %d", hdr.format)
	}
	return sub, err
}

func (sub *singleSubst) substitute(g GlyphIndex) (GlyphIndex, bool) {
	inx, ok := sub.coverage.Index(g)
	if !ok {
		return 0, false
	}
	if sub.format == 1 {
		return GlyphIndex(uint16(g) + sub.delta), true
	}
	if inx >= len(sub.substitutes) {
		return 0, false
	}
	return sub.substitutes[inx], true
}

// --- Multiple and alternate substitution ------------------------------------

// LookupType 2: Multiple Substitution Subtable and
// LookupType 3: Alternate Substitution Subtable
//
// Both types share their structure: a coverage table and, per covered glyph,
// an offset to a sequence of glyphs. For multiple substitution the sequence
// replaces the input glyph, for alternate substitution it lists alternatives
// of which one may be chosen.
type sequenceSubst struct {
	subtableHeader
	coverage  Coverage
	sequences [][]GlyphIndex
}

func parseSequenceSubst(b binarySegm, hdr subtableHeader) (LookupSubtable, error) {
	if hdr.format != 1 {
		return nil, fmt.Errorf("illegal substitution format %d for lookup type %d",
			hdr.format, hdr.lookupType)
	}
	sub := &sequenceSubst{subtableHeader: hdr}
	var err error
	if sub.coverage, err = parseCoverageAt(b, 2); err != nil {
		return nil, err
	}
	offsets, err := parseArray(b, 4, 2)
	if err != nil {
		return nil, err
	}
	seqs, err := offsets.offsets16(b)
	if err != nil {
		return nil, err
	}
	sub.sequences = make([][]GlyphIndex, len(seqs))
	for i, seq := range seqs {
		if seq == nil {
			continue
		}
		glyphs, err := parseArray(seq, 0, 2)
		if err != nil {
			return nil, err
		}
		sub.sequences[i] = glyphs.glyphs()
	}
	return sub, nil
}

func (sub *sequenceSubst) sequence(g GlyphIndex) ([]GlyphIndex, bool) {
	inx, ok := sub.coverage.Index(g)
	if !ok || inx >= len(sub.sequences) {
		return nil, false
	}
	return sub.sequences[inx], true
}

// substitute returns the first alternate for alternate substitutions, and
// the sequence's only glyph for multiple substitutions with a sequence of length 1.
func (sub *sequenceSubst) substitute(g GlyphIndex) (GlyphIndex, bool) {
	seq, ok := sub.sequence(g)
	if !ok || len(seq) == 0 {
		return 0, false
	}
	if sub.lookupType == GSubLookupTypeMultiple && len(seq) != 1 {
		return 0, false
	}
	return seq[0], true
}

// --- Ligature substitution -------------------------------------------------

// LookupType 4: Ligature Substitution Subtable
//
// A Ligature Substitution (LigatureSubst) subtable identifies ligature substitutions
// where a single glyph replaces multiple glyphs. One LigatureSubst subtable can specify
// any number of ligature substitutions. Ligatures are grouped in LigatureSets by their
// first component glyph.
type ligatureSubst struct {
	subtableHeader
	coverage Coverage
	sets     [][]ligature
}

type ligature struct {
	glyph      GlyphIndex
	components []GlyphIndex // starting with the second component
}

func parseLigatureSubst(b binarySegm, hdr subtableHeader) (LookupSubtable, error) {
	if hdr.format != 1 {
		return nil, fmt.Errorf("illegal ligature substitution format %d", hdr.format)
	}
	sub := &ligatureSubst{subtableHeader: hdr}
	var err error
	if sub.coverage, err = parseCoverageAt(b, 2); err != nil {
		return nil, err
	}
	offsets, err := parseArray(b, 4, 2)
	if err != nil {
		return nil, err
	}
	sets, err := offsets.offsets16(b)
	if err != nil {
		return nil, err
	}
	sub.sets = make([][]ligature, len(sets))
	for i, set := range sets {
		if set == nil {
			continue
		}
		// LigatureSet: ligatureCount, ligatureOffsets (from beginning of LigatureSet)
		ligOffsets, err := parseArray(set, 0, 2)
		if err != nil {
			return nil, err
		}
		ligs, err := ligOffsets.offsets16(set)
		if err != nil {
			return nil, err
		}
		for _, lig := range ligs {
			if lig == nil {
				continue
			}
			// Ligature: ligatureGlyph, componentCount, componentGlyphIDs[componentCount-1]
			r := fieldReader{b: lig}
			glyph, count := r.u16(0), int(r.u16(2))
			if r.err != nil || count == 0 {
				return nil, fmt.Errorf("ligature table corrupt")
			}
			comps, err := viewArray(lig, 4, count-1, 2)
			if err != nil {
				return nil, err
			}
			sub.sets[i] = append(sub.sets[i], ligature{
				glyph:      GlyphIndex(glyph),
				components: comps.glyphs(),
			})
		}
	}
	return sub, nil
}

func (sub *ligatureSubst) ligature(g GlyphIndex, next []GlyphIndex) (GlyphIndex, bool) {
	inx, ok := sub.coverage.Index(g)
	if !ok || inx >= len(sub.sets) {
		return 0, false
	}
	for _, lig := range sub.sets[inx] {
		if equalGlyphs(lig.components, next) {
			return lig.glyph, true
		}
	}
	return 0, false
}

func equalGlyphs(a, b []GlyphIndex) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Substitution operations -----------------------------------------------

type singleSubstituter interface {
	substitute(GlyphIndex) (GlyphIndex, bool)
}

type sequenceSubstituter interface {
	sequence(GlyphIndex) ([]GlyphIndex, bool)
}

type ligatureSubstituter interface {
	ligature(GlyphIndex, []GlyphIndex) (GlyphIndex, bool)
}

// SubstituteSingle applies a single, alternate or (one-to-one) multiple
// substitution to glyph g. For alternate substitutions the first alternate is
// returned.
func (l *Lookup) SubstituteSingle(g GlyphIndex) (GlyphIndex, bool) {
	for i := 0; i < l.SubTableCount(); i++ {
		if sub, ok := l.Subtable(i).(singleSubstituter); ok {
			if out, ok := sub.substitute(g); ok {
				return out, true
			}
		}
	}
	return 0, false
}

// SubstituteSequence applies a multiple or alternate substitution to glyph g,
// returning the substitute sequence or the set of alternates, respectively.
func (l *Lookup) SubstituteSequence(g GlyphIndex) ([]GlyphIndex, bool) {
	for i := 0; i < l.SubTableCount(); i++ {
		if sub, ok := l.Subtable(i).(sequenceSubstituter); ok {
			if out, ok := sub.sequence(g); ok {
				return out, true
			}
		}
	}
	return nil, false
}

// Ligature looks for a ligature with first component g and remaining
// components next.
func (l *Lookup) Ligature(g GlyphIndex, next ...GlyphIndex) (GlyphIndex, bool) {
	for i := 0; i < l.SubTableCount(); i++ {
		if sub, ok := l.Subtable(i).(ligatureSubstituter); ok {
			if out, ok := sub.ligature(g, next); ok {
				return out, true
			}
		}
	}
	return 0, false
}

// SubstituteSingle applies the first matching single substitution of the lookups.
func (fl FeatureLookups) SubstituteSingle(g GlyphIndex) (GlyphIndex, bool) {
	for _, l := range fl {
		if out, ok := l.SubstituteSingle(g); ok {
			return out, true
		}
	}
	return 0, false
}

// SubstituteSequence applies the first matching sequence substitution of the lookups.
func (fl FeatureLookups) SubstituteSequence(g GlyphIndex) ([]GlyphIndex, bool) {
	for _, l := range fl {
		if out, ok := l.SubstituteSequence(g); ok {
			return out, true
		}
	}
	return nil, false
}

// Ligature returns the first matching ligature of the lookups.
func (fl FeatureLookups) Ligature(g GlyphIndex, next ...GlyphIndex) (GlyphIndex, bool) {
	for _, l := range fl {
		if out, ok := l.Ligature(g, next...); ok {
			return out, true
		}
	}
	return 0, false
}
