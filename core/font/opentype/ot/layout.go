package ot

import (
	"fmt"
	"sort"
)

/*
From https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2:

OpenType Layout consists of five tables: the Glyph Substitution table (GSUB),
the Glyph Positioning table (GPOS), the Baseline table (BASE),
the Justification table (JSTF), and the Glyph Definition table (GDEF).
These tables use some of the same data formats.

We support GSUB and GPOS.
*/

// --- Layout tables ---------------------------------------------------------

// LayoutTable is a base type for layout tables.
// OpenType specifies two such tables–GPOS and GSUB–which share some of their
// structure.
//
// Script list, feature list and the headers of the lookups are decoded when the
// font is parsed. Lookup subtables are decoded on first access.
type LayoutTable struct {
	Major, Minor uint16
	Scripts      map[Tag]*Script
	Features     []Feature
	LookupList   *LookupList
	scriptTags   []Tag
}

// Script is a script table of a layout table. It has a default language
// system and named language systems.
type Script struct {
	DefaultLangSys *LangSys // may be nil
	LangSys        map[Tag]*LangSys
}

// LangSys is a language system table. It lists the features available for a
// script/language combination by index into the feature list.
type LangSys struct {
	RequiredFeature int // -1 if unused
	FeatureIndices  []uint16
}

// Feature is an entry of the feature list, referencing lookups by index into
// the lookup list.
type Feature struct {
	Tag           Tag
	LookupIndices []uint16
}

// Fallback flags the fallbacks which have been taken while resolving the
// lookups for a feature.
type Fallback uint8

// Fallbacks during feature resolution
const (
	ScriptFallback   Fallback = 1 << iota // requested script not found, used DFLT
	LanguageFallback                      // requested language not found, used default language system
)

// ScriptTags returns the tags of all scripts of the table, in table order.
func (t *LayoutTable) ScriptTags() []Tag {
	return t.scriptTags
}

// Lookups resolves a feature for a script and an optional language to the
// sequence of lookups implementing it. lang may be 0 for the default language system.
//
// If the script is not present, the default script 'DFLT' is tried and the
// fallback is flagged in the result. If a language is requested but not present,
// the script's default language system is used and the fallback is flagged.
// If the feature is not available, the result is empty.
func (t *LayoutTable) Lookups(feature, script, lang Tag) (FeatureLookups, Fallback) {
	var fb Fallback
	s, ok := t.Scripts[script]
	if !ok && script != DFLT {
		tracer().Debugf("script %s not found in layout table, trying %s", script, DFLT)
		fb |= ScriptFallback
		s, ok = t.Scripts[DFLT]
	}
	if !ok {
		return nil, fb
	}
	lsys := s.DefaultLangSys
	if lang != 0 {
		if l, ok := s.LangSys[lang]; ok {
			lsys = l
		} else {
			tracer().Debugf("language %s not found for script, using default", lang)
			fb |= LanguageFallback
		}
	}
	if lsys == nil {
		return nil, fb
	}
	var lookups FeatureLookups
	for _, fi := range lsys.featureIndices() {
		if int(fi) >= len(t.Features) || t.Features[fi].Tag != feature {
			continue
		}
		tracer().Debugf("feature %s found at index %d", feature, fi)
		for _, li := range t.Features[fi].LookupIndices {
			if lookup := t.LookupList.Lookup(int(li)); lookup != nil {
				lookups = append(lookups, lookup)
			}
		}
		break
	}
	return lookups, fb
}

func (lsys *LangSys) featureIndices() []uint16 {
	if lsys.RequiredFeature < 0 {
		return lsys.FeatureIndices
	}
	return append([]uint16{uint16(lsys.RequiredFeature)}, lsys.FeatureIndices...)
}

// parseLayoutTable decodes the common structure of GSUB and GPOS.
func parseLayoutTable(tag Tag, b binarySegm, isGPos bool) (LayoutTable, error) {
	lyt := LayoutTable{}
	r := fieldReader{b: b}
	lyt.Major, lyt.Minor = r.u16(0), r.u16(2)
	if r.err != nil || lyt.Major != 1 {
		return lyt, errFontFormat(fmt.Sprintf("%s table version %d.%d", tag, lyt.Major, lyt.Minor))
	}
	var err error
	if lyt.Scripts, lyt.scriptTags, err = parseScriptList(b); err != nil {
		return lyt, errTableFormat(tag, err)
	}
	if lyt.Features, err = parseFeatureList(b); err != nil {
		return lyt, errTableFormat(tag, err)
	}
	if lyt.LookupList, err = parseLookupList(b, isGPos); err != nil {
		return lyt, errTableFormat(tag, err)
	}
	tracer().Debugf("%s table has %d scripts, %d features, %d lookups", tag,
		len(lyt.Scripts), len(lyt.Features), lyt.LookupList.Len())
	return lyt, nil
}

// ScriptList: scriptCount, ScriptRecord{scriptTag, scriptOffset}
func parseScriptList(b binarySegm) (map[Tag]*Script, []Tag, error) {
	link, err := parseLink16(b, 4, b)
	if err != nil {
		return nil, nil, err
	}
	scripts := make(map[Tag]*Script)
	if link.IsNull() {
		return scripts, nil, nil
	}
	sl, err := link.Jump()
	if err != nil {
		return nil, nil, err
	}
	recs, err := parseArray(sl, 0, 6)
	if err != nil {
		return nil, nil, err
	}
	tags := make([]Tag, 0, recs.Len())
	for i := 0; i < recs.Len(); i++ {
		rec := recs.Get(i)
		tag := Tag(rec.U32(0))
		sb, err := link16{base: sl, offset: rec.U16(4)}.Jump()
		if err != nil {
			return nil, nil, err
		}
		script, err := parseScript(sb)
		if err != nil {
			return nil, nil, err
		}
		scripts[tag] = script
		tags = append(tags, tag)
	}
	return scripts, tags, nil
}

// Script: defaultLangSysOffset, langSysCount, LangSysRecord{langSysTag, langSysOffset}
func parseScript(b binarySegm) (*Script, error) {
	script := &Script{LangSys: make(map[Tag]*LangSys)}
	dflt, err := parseLink16(b, 0, b)
	if err != nil {
		return nil, err
	}
	if !dflt.IsNull() {
		lb, err := dflt.Jump()
		if err != nil {
			return nil, err
		}
		if script.DefaultLangSys, err = parseLangSys(lb); err != nil {
			return nil, err
		}
	}
	recs, err := parseArray(b, 2, 6)
	if err != nil {
		return nil, err
	}
	for i := 0; i < recs.Len(); i++ {
		rec := recs.Get(i)
		lb, err := link16{base: b, offset: rec.U16(4)}.Jump()
		if err != nil {
			return nil, err
		}
		lsys, err := parseLangSys(lb)
		if err != nil {
			return nil, err
		}
		script.LangSys[Tag(rec.U32(0))] = lsys
	}
	return script, nil
}

// LangSys: lookupOrderOffset (reserved), requiredFeatureIndex, featureIndexCount, featureIndices
func parseLangSys(b binarySegm) (*LangSys, error) {
	req, err := b.u16(2)
	if err != nil {
		return nil, err
	}
	inx, err := parseArray(b, 4, 2)
	if err != nil {
		return nil, err
	}
	lsys := &LangSys{RequiredFeature: int(req), FeatureIndices: inx.u16s()}
	if req == 0xffff {
		lsys.RequiredFeature = -1
	}
	return lsys, nil
}

// FeatureList: featureCount, FeatureRecord{featureTag, featureOffset}
// Feature: featureParamsOffset, lookupIndexCount, lookupListIndices
func parseFeatureList(b binarySegm) ([]Feature, error) {
	link, err := parseLink16(b, 6, b)
	if err != nil || link.IsNull() {
		return nil, err
	}
	fl, err := link.Jump()
	if err != nil {
		return nil, err
	}
	recs, err := parseArray(fl, 0, 6)
	if err != nil {
		return nil, err
	}
	features := make([]Feature, recs.Len())
	for i := range features {
		rec := recs.Get(i)
		fb, err := link16{base: fl, offset: rec.U16(4)}.Jump()
		if err != nil {
			return nil, err
		}
		inx, err := parseArray(fb, 2, 2)
		if err != nil {
			return nil, err
		}
		features[i] = Feature{Tag: Tag(rec.U32(0)), LookupIndices: inx.u16s()}
	}
	return features, nil
}

// --- Lookups ---------------------------------------------------------------

// LayoutTableLookupFlag is a flag type for layout tables (GPOS and GSUB).
type LayoutTableLookupFlag uint16

// Lookup flags of layout tables (GPOS and GSUB)
const ( // LookupFlag bit enumeration
	// Note that the RIGHT_TO_LEFT flag is used only for GPOS type 3 lookups and is ignored
	// otherwise. It is not used by client software in determining text direction.
	LOOKUP_FLAG_RIGHT_TO_LEFT             LayoutTableLookupFlag = 0x0001
	LOOKUP_FLAG_IGNORE_BASE_GLYPHS        LayoutTableLookupFlag = 0x0002 // If set, skips over base glyphs
	LOOKUP_FLAG_IGNORE_LIGATURES          LayoutTableLookupFlag = 0x0004 // If set, skips over ligatures
	LOOKUP_FLAG_IGNORE_MARKS              LayoutTableLookupFlag = 0x0008 // If set, skips over all combining marks
	LOOKUP_FLAG_USE_MARK_FILTERING_SET    LayoutTableLookupFlag = 0x0010 // If set, indicates that the lookup table structure is followed by a MarkFilteringSet field.
	LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK LayoutTableLookupFlag = 0xFF00 // If not zero, skips over all marks of attachment type different from specified.
)

// LayoutTableLookupType is a type identifier for layout lookup records (GPOS and GSUB).
// Enum values are different for GPOS and GSUB.
type LayoutTableLookupType uint16

// A LookupList table contains an array of offsets to Lookup tables (lookupOffsets).
// The font developer defines the Lookup sequence in the Lookup array to control the order
// in which a text-processing client applies lookup data to glyph substitution or
// positioning operations. (See
// https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#lookup-list-table).
type LookupList struct {
	lookups []*Lookup
	isGPos  bool
}

// LookupList: lookupCount, lookupOffsets (from beginning of LookupList)
func parseLookupList(b binarySegm, isGPos bool) (*LookupList, error) {
	ll := &LookupList{isGPos: isGPos}
	link, err := parseLink16(b, 8, b)
	if err != nil || link.IsNull() {
		return ll, err
	}
	lb, err := link.Jump()
	if err != nil {
		return nil, err
	}
	offsets, err := parseArray(lb, 0, 2)
	if err != nil {
		return nil, err
	}
	locs, err := offsets.offsets16(lb)
	if err != nil {
		return nil, err
	}
	ll.lookups = make([]*Lookup, len(locs))
	for i, loc := range locs {
		if loc == nil {
			continue
		}
		if ll.lookups[i], err = parseLookup(loc, i, isGPos); err != nil {
			return nil, err
		}
	}
	return ll, nil
}

// Len returns the number of lookups in the list.
func (ll *LookupList) Len() int {
	if ll == nil {
		return 0
	}
	return len(ll.lookups)
}

// Lookup returns lookup #i, or nil if i is out of range.
func (ll *LookupList) Lookup(i int) *Lookup {
	if ll == nil || i < 0 || i >= len(ll.lookups) {
		return nil
	}
	return ll.lookups[i]
}

// Lookup tables are contained in a LookupList.
// A Lookup table defines the specific conditions, type, and results of a substitution or
// positioning action that is used to implement a feature. For example, a substitution
// operation requires a list of target glyph indices to be replaced, a list of replacement
// glyph indices, and a description of the type of substitution action.
//
// Each Lookup table may contain only one type of information (LookupType), determined by
// whether the lookup is part of a GSUB or GPOS table. GSUB supports eight LookupTypes,
// and GPOS supports nine LookupTypes
//
// Subtables are decoded on first access and cached. Decoding is not
// synchronized; see the package documentation.
type Lookup struct {
	Index            int // position in the lookup list
	Type             LayoutTableLookupType
	Flag             LayoutTableLookupFlag
	MarkFilteringSet uint16 // Index (base 0) into GDEF mark glyph sets structure, if flag is set
	isGPos           bool
	loc              binarySegm       // offset start for sub-tables
	subTables        array            // Array of offsets to lookup subrecords, from beginning of Lookup table
	subTablesCache   []LookupSubtable // cache for sub-tables already parsed
}

// Lookup: lookupType, lookupFlag, subTableCount, subtableOffsets, [markFilteringSet]
func parseLookup(b binarySegm, inx int, isGPos bool) (*Lookup, error) {
	r := fieldReader{b: b}
	lookup := &Lookup{Index: inx, isGPos: isGPos, loc: b}
	lookup.Type = LayoutTableLookupType(r.u16(0))
	lookup.Flag = LayoutTableLookupFlag(r.u16(2))
	if r.err != nil {
		return nil, r.err
	}
	var err error
	if lookup.subTables, err = parseArray(b, 4, 2); err != nil {
		return nil, err
	}
	if lookup.Flag&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		lookup.MarkFilteringSet = r.u16(6 + lookup.subTables.Size())
	}
	lookup.subTablesCache = make([]LookupSubtable, lookup.subTables.Len())
	tracer().Debugf("lookup #%d has type %s and %d sub-tables", inx, lookup.TypeString(),
		lookup.subTables.Len())
	return lookup, r.err
}

// IsGPos returns true for lookups of table GPOS.
func (l *Lookup) IsGPos() bool {
	return l.isGPos
}

// TypeString returns the name of the lookup type.
func (l *Lookup) TypeString() string {
	if l.isGPos {
		return l.Type.GPosString()
	}
	return l.Type.GSubString()
}

// SubTableCount returns the number of subtables of the lookup.
func (l *Lookup) SubTableCount() int {
	return l.subTables.Len()
}

// Subtable returns subtable #i of the lookup. The subtable is decoded on
// first access and memoized. Subtables which cannot be decoded are reported
// and replaced by a subtable which never matches.
func (l *Lookup) Subtable(i int) LookupSubtable {
	if i < 0 || i >= len(l.subTablesCache) {
		return nil
	}
	if l.subTablesCache[i] != nil {
		return l.subTablesCache[i]
	}
	sub, err := l.parseSubtable(i)
	if err != nil {
		tracer().Errorf("lookup #%d, subtable #%d: %v", l.Index, i, err)
		sub = unsupportedSubtable{lookupType: l.Type}
	}
	l.subTablesCache[i] = sub
	return sub
}

func (l *Lookup) parseSubtable(i int) (LookupSubtable, error) {
	link := link16{base: l.loc, offset: l.subTables.Get(i).U16(0)}
	b, err := link.Jump()
	if err != nil {
		return nil, err
	}
	typ := l.Type
	if (l.isGPos && typ == GPosLookupTypeExtensionPos) || (!l.isGPos && typ == GSubLookupTypeExtensionSubs) {
		// Extension: format, extensionLookupType, extensionOffset32 (from this subtable)
		r := fieldReader{b: b}
		typ = LayoutTableLookupType(r.u16(2))
		ext := link32{base: b, offset: r.u32(4)}
		if r.err != nil {
			return nil, r.err
		}
		if b, err = ext.Jump(); err != nil {
			return nil, err
		}
		tracer().Debugf("extension subtable wraps lookup type %d", typ)
	}
	if l.isGPos {
		return parseGPosSubtable(b, typ)
	}
	return parseGSubSubtable(b, typ)
}

// LookupSubtable is a type for OpenType Lookup Subtables, which are the basis for Lookup operations
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#lookup-table).
//
// “Each LookupType may occur in one or more subtable formats. The ‘best’ format depends on
// the type of substitution and the resulting storage efficiency. When glyph information
// is best presented in more than one format, a single lookup may define more than
// one subtable, as long as all the subtables are for the same LookupType.”
//
// Extension subtables are transparent: LookupType reports the type of the
// wrapped subtable.
type LookupSubtable interface {
	LookupType() LayoutTableLookupType
	Format() uint16
}

type subtableHeader struct {
	lookupType LayoutTableLookupType
	format     uint16
}

func (h subtableHeader) LookupType() LayoutTableLookupType { return h.lookupType }
func (h subtableHeader) Format() uint16                    { return h.format }

// unsupportedSubtable stands for subtables we do not interpret, i.e.
// contextual and chained contextual lookups. It never matches.
type unsupportedSubtable struct {
	lookupType LayoutTableLookupType
	format     uint16
}

func (u unsupportedSubtable) LookupType() LayoutTableLookupType { return u.lookupType }
func (u unsupportedSubtable) Format() uint16                    { return u.format }

// --- Coverage table module -------------------------------------------------

// Coverage denotes an indexed set of glyphs.
// Each LookupSubtable (except an Extension LookupType subtable) in a lookup references
// a Coverage table (Coverage), which specifies all the glyphs affected by a
// substitution or positioning operation described in the subtable.
// If a glyph does not appear in a Coverage table, the client can skip that
// subtable and move immediately to the next subtable.
type Coverage struct {
	Format uint16
	glyphs []GlyphIndex  // format 1, sorted
	ranges []rangeRecord // format 2, sorted by start and non-overlapping
}

type rangeRecord struct {
	from, to GlyphIndex
	index    uint16
}

func parseCoverage(b binarySegm) (Coverage, error) {
	cov := Coverage{}
	var err error
	if cov.Format, err = b.u16(0); err != nil {
		return cov, err
	}
	switch cov.Format {
	case 1:
		glyphs, err := parseArray(b, 2, 2)
		if err != nil {
			return cov, err
		}
		cov.glyphs = glyphs.glyphs()
	case 2:
		recs, err := parseArray(b, 2, 6)
		if err != nil {
			return cov, err
		}
		cov.ranges = make([]rangeRecord, recs.Len())
		for i := range cov.ranges {
			rec := recs.Get(i)
			cov.ranges[i] = rangeRecord{
				from:  GlyphIndex(rec.U16(0)),
				to:    GlyphIndex(rec.U16(2)),
				index: rec.U16(4),
			}
		}
	default:
		return cov, fmt.Errorf("illegal coverage format %d", cov.Format)
	}
	tracer().Debugf("coverage format = %d, count = %d", cov.Format, len(cov.glyphs)+len(cov.ranges))
	return cov, nil
}

// parseCoverageAt reads a coverage offset at off within subtable b.
func parseCoverageAt(b binarySegm, off int) (Coverage, error) {
	link, err := parseLink16(b, off, b)
	if err != nil {
		return Coverage{}, err
	}
	cb, err := link.Jump()
	if err != nil {
		return Coverage{}, err
	}
	return parseCoverage(cb)
}

// Index returns the coverage index of glyph g. If g is not covered, false is returned.
func (c Coverage) Index(g GlyphIndex) (int, bool) {
	if c.Format == 1 {
		i := sort.Search(len(c.glyphs), func(i int) bool { return c.glyphs[i] >= g })
		if i < len(c.glyphs) && c.glyphs[i] == g {
			return i, true
		}
		return 0, false
	}
	i := sort.Search(len(c.ranges), func(i int) bool { return c.ranges[i].to >= g })
	if i < len(c.ranges) && c.ranges[i].from <= g {
		rec := c.ranges[i]
		return int(rec.index) + int(g-rec.from), true
	}
	return 0, false
}

// Glyphs returns all covered glyphs, ordered by coverage index.
func (c Coverage) Glyphs() []GlyphIndex {
	if c.Format == 1 {
		return c.glyphs
	}
	var glyphs []GlyphIndex
	for _, rec := range c.ranges {
		for g := int(rec.from); g <= int(rec.to); g++ {
			glyphs = append(glyphs, GlyphIndex(g))
		}
	}
	return glyphs
}

// --- Class definition tables -----------------------------------------------

// ClassDefinitions groups glyphs into classes, denoted as integer values.
//
// From the spec:
// For efficiency and ease of representation, a font developer can group glyph indices
// to form glyph classes. Class assignments vary in meaning from one lookup subtable
// to another. For example, in the GSUB and GPOS tables, classes are used to describe
// glyph contexts. GDEF tables also use the idea of glyph classes.
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#class-definition-table)
type ClassDefinitions struct {
	Format  uint16       // format version 1 or 2
	start   GlyphIndex   // glyph ID of the first entry in a format-1 table
	classes []uint16     // format 1: array of class values, one per glyph ID
	ranges  []classRange // format 2: ordered by start glyph ID
}

type classRange struct {
	from, to GlyphIndex
	class    uint16
}

func parseClassDefinitions(b binarySegm) (ClassDefinitions, error) {
	cdef := ClassDefinitions{}
	var err error
	if cdef.Format, err = b.u16(0); err != nil {
		return cdef, err
	}
	switch cdef.Format {
	case 1:
		start, err := b.u16(2)
		if err != nil {
			return cdef, err
		}
		values, err := parseArray(b, 4, 2)
		if err != nil {
			return cdef, err
		}
		cdef.start, cdef.classes = GlyphIndex(start), values.u16s()
	case 2:
		recs, err := parseArray(b, 2, 6)
		if err != nil {
			return cdef, err
		}
		cdef.ranges = make([]classRange, recs.Len())
		for i := range cdef.ranges {
			rec := recs.Get(i)
			cdef.ranges[i] = classRange{
				from:  GlyphIndex(rec.U16(0)),
				to:    GlyphIndex(rec.U16(2)),
				class: rec.U16(4),
			}
		}
	default:
		return cdef, fmt.Errorf("illegal format %d of class definition table", cdef.Format)
	}
	return cdef, nil
}

// Class returns the class defined for a glyph, or 0 (= default class).
func (cdef ClassDefinitions) Class(glyph GlyphIndex) int {
	if cdef.Format == 1 {
		if glyph < cdef.start || int(glyph-cdef.start) >= len(cdef.classes) {
			return 0
		}
		return int(cdef.classes[glyph-cdef.start])
	}
	i := sort.Search(len(cdef.ranges), func(i int) bool { return cdef.ranges[i].to >= glyph })
	if i < len(cdef.ranges) && cdef.ranges[i].from <= glyph {
		return int(cdef.ranges[i].class)
	}
	return 0
}

// --- Feature lookups -------------------------------------------------------

// FeatureLookups is the sequence of lookups implementing a feature. Its
// operations try every lookup in order; within a lookup, subtables are tried in
// declaration order. The first match wins.
type FeatureLookups []*Lookup
