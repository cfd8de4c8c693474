package ottest

import (
	"sort"
)

// Layout describes a GSUB or GPOS table. Every script gets a default language
// system and one language system per entry of Languages, all of which list
// every feature.
type Layout struct {
	Scripts   []string // defaults to "latn"
	Languages []string
	Features  []Feature
	Lookups   []Lookup
}

// Feature references lookups by index.
type Feature struct {
	Tag     string
	Lookups []uint16
}

// Lookup is a lookup of a given type with subtables in binary form.
type Lookup struct {
	Type      uint16
	Flag      uint16
	Subtables [][]byte
}

// Bytes returns the binary form of the layout table, version 1.0.
func (lyt *Layout) Bytes() []byte {
	scripts := lyt.Scripts
	if len(scripts) == 0 {
		scripts = []string{"latn"}
	}
	w := &writer{}
	w.u16(1, 0, 0, 0, 0) // version, scriptList, featureList, lookupList
	w.link(4, lyt.scriptList(scripts))
	w.link(6, lyt.featureList())
	w.link(8, lyt.lookupList())
	return w.b
}

func (lyt *Layout) langSys() []byte {
	w := &writer{}
	w.u16(0, 0xffff, uint16(len(lyt.Features)))
	for i := range lyt.Features {
		w.u16(uint16(i))
	}
	return w.b
}

func (lyt *Layout) scriptList(scripts []string) []byte {
	scripts = append([]string(nil), scripts...)
	sort.Strings(scripts)
	w := &writer{}
	w.u16(uint16(len(scripts)))
	for _, s := range scripts {
		w.bytes(tag(s))
		w.u16(0)
	}
	for i := range scripts {
		w.link(2+6*i+4, lyt.script())
	}
	return w.b
}

func (lyt *Layout) script() []byte {
	langs := append([]string(nil), lyt.Languages...)
	sort.Strings(langs)
	w := &writer{}
	w.u16(0, uint16(len(langs)))
	for _, l := range langs {
		w.bytes(tag(l))
		w.u16(0)
	}
	w.link(0, lyt.langSys())
	for i := range langs {
		w.link(4+6*i+4, lyt.langSys())
	}
	return w.b
}

func (lyt *Layout) featureList() []byte {
	w := &writer{}
	w.u16(uint16(len(lyt.Features)))
	for _, f := range lyt.Features {
		w.bytes(tag(f.Tag))
		w.u16(0)
	}
	for i, f := range lyt.Features {
		fw := &writer{}
		fw.u16(0, uint16(len(f.Lookups)))
		fw.u16(f.Lookups...)
		w.link(2+6*i+4, fw.b)
	}
	return w.b
}

func (lyt *Layout) lookupList() []byte {
	w := &writer{}
	w.u16(uint16(len(lyt.Lookups)))
	w.pad(2 * len(lyt.Lookups))
	for i, l := range lyt.Lookups {
		lw := &writer{}
		lw.u16(l.Type, l.Flag, uint16(len(l.Subtables)))
		lw.pad(2 * len(l.Subtables))
		for j, sub := range l.Subtables {
			lw.link(6+2*j, sub)
		}
		w.link(2+2*i, lw.b)
	}
	return w.b
}

func tag(s string) []byte {
	return []byte(s + "    ")[:4]
}

// --- Common structures -----------------------------------------------------

// Coverage returns a format 1 coverage table for a set of glyphs.
func Coverage(glyphs ...uint16) []byte {
	glyphs = sortedUnique(glyphs)
	w := &writer{}
	w.u16(1, uint16(len(glyphs)))
	w.u16(glyphs...)
	return w.b
}

// Range is a glyph range with an associated value, i.e. a start coverage
// index or a class.
type Range struct {
	From, To, Value uint16
}

// CoverageRanges returns a format 2 coverage table.
func CoverageRanges(ranges ...Range) []byte {
	w := &writer{}
	w.u16(2, uint16(len(ranges)))
	for _, r := range ranges {
		w.u16(r.From, r.To, r.Value)
	}
	return w.b
}

// ClassDef returns a format 1 class definition table.
func ClassDef(start uint16, classes ...uint16) []byte {
	w := &writer{}
	w.u16(1, start, uint16(len(classes)))
	w.u16(classes...)
	return w.b
}

// ClassDefRanges returns a format 2 class definition table.
func ClassDefRanges(ranges ...Range) []byte {
	w := &writer{}
	w.u16(2, uint16(len(ranges)))
	for _, r := range ranges {
		w.u16(r.From, r.To, r.Value)
	}
	return w.b
}

func sortedUnique(glyphs []uint16) []uint16 {
	s := append([]uint16(nil), glyphs...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	u := s[:0]
	for i, g := range s {
		if i == 0 || g != s[i-1] {
			u = append(u, g)
		}
	}
	return u
}

func keys[V any](m map[uint16]V) []uint16 {
	k := make([]uint16, 0, len(m))
	for g := range m {
		k = append(k, g)
	}
	return sortedUnique(k)
}

// Extension wraps a subtable of the given lookup type into an extension
// subtable (GSUB type 7, GPOS type 9).
func Extension(lookupType uint16, sub []byte) []byte {
	w := &writer{}
	w.u16(1, lookupType)
	w.u32(8)
	w.bytes(sub)
	return w.b
}

// --- GSUB ------------------------------------------------------------------

// GSUB lookup types
const (
	GSubSingle    uint16 = 1
	GSubMultiple  uint16 = 2
	GSubAlternate uint16 = 3
	GSubLigature  uint16 = 4
	GSubContext   uint16 = 5
	GSubExtension uint16 = 7
)

// SingleSubst returns a format 2 single substitution subtable.
func SingleSubst(subst map[uint16]uint16) []byte {
	glyphs := keys(subst)
	w := &writer{}
	w.u16(2, 0, uint16(len(glyphs)))
	for _, g := range glyphs {
		w.u16(subst[g])
	}
	w.link(2, Coverage(glyphs...))
	return w.b
}

// SingleSubstDelta returns a format 1 single substitution subtable.
func SingleSubstDelta(delta int16, glyphs ...uint16) []byte {
	w := &writer{}
	w.u16(1, 0)
	w.i16(delta)
	w.link(2, Coverage(glyphs...))
	return w.b
}

// SequenceSubst returns a multiple or alternate substitution subtable.
// Both share the same format.
func SequenceSubst(seqs map[uint16][]uint16) []byte {
	glyphs := keys(seqs)
	w := &writer{}
	w.u16(1, 0, uint16(len(glyphs)))
	w.pad(2 * len(glyphs))
	w.link(2, Coverage(glyphs...))
	for i, g := range glyphs {
		sw := &writer{}
		sw.u16(uint16(len(seqs[g])))
		sw.u16(seqs[g]...)
		w.link(6+2*i, sw.b)
	}
	return w.b
}

// Ligature maps a sequence of component glyphs to a ligature glyph.
type Ligature struct {
	Glyph      uint16
	Components []uint16 // at least 1
}

// LigatureSubst returns a ligature substitution subtable.
func LigatureSubst(ligs ...Ligature) []byte {
	sets := make(map[uint16][]Ligature)
	for _, l := range ligs {
		sets[l.Components[0]] = append(sets[l.Components[0]], l)
	}
	firsts := keys(sets)
	w := &writer{}
	w.u16(1, 0, uint16(len(firsts)))
	w.pad(2 * len(firsts))
	w.link(2, Coverage(firsts...))
	for i, g := range firsts {
		set := sets[g]
		sw := &writer{}
		sw.u16(uint16(len(set)))
		sw.pad(2 * len(set))
		for j, l := range set {
			lw := &writer{}
			lw.u16(l.Glyph, uint16(len(l.Components)))
			lw.u16(l.Components[1:]...)
			sw.link(2+2*j, lw.b)
		}
		w.link(6+2*i, sw.b)
	}
	return w.b
}

// ContextSubst returns a format 3 contextual substitution subtable without
// any lookup records. It serves as a subtable of a kind which decoders may
// not interpret.
func ContextSubst(glyph uint16) []byte {
	w := &writer{}
	w.u16(3, 1, 0, 0) // format, glyphCount, substitutionCount, coverage
	w.link(6, Coverage(glyph))
	return w.b
}

// --- GPOS ------------------------------------------------------------------

// GPOS lookup types
const (
	GPosSingle     uint16 = 1
	GPosPair       uint16 = 2
	GPosCursive    uint16 = 3
	GPosMarkToBase uint16 = 4
	GPosMarkToMark uint16 = 6
	GPosExtension  uint16 = 9
)

// Anchor is an anchor point in font units.
type Anchor struct {
	X, Y int16
}

func (a Anchor) bytes() []byte {
	w := &writer{}
	w.u16(1)
	w.i16(a.X, a.Y)
	return w.b
}

// SinglePos returns a format 1 single positioning subtable, adjusting
// x-placement and x-advance of every glyph by the same values.
func SinglePos(xPlacement, xAdvance int16, glyphs ...uint16) []byte {
	w := &writer{}
	w.u16(1, 0, 0x0005)
	w.i16(xPlacement, xAdvance)
	w.link(2, Coverage(glyphs...))
	return w.b
}

// PairPos1 returns a format 1 pair positioning subtable, adjusting the
// x-advance of the first glyph of every pair.
func PairPos1(pairs ...Pair) []byte {
	sets := make(map[uint16][]Pair)
	for _, p := range pairs {
		sets[p.Left] = append(sets[p.Left], p)
	}
	firsts := keys(sets)
	w := &writer{}
	w.u16(1, 0, 0x0004, 0, uint16(len(firsts)))
	w.pad(2 * len(firsts))
	w.link(2, Coverage(firsts...))
	for i, g := range firsts {
		set := sets[g]
		sort.Slice(set, func(i, j int) bool { return set[i].Right < set[j].Right })
		sw := &writer{}
		sw.u16(uint16(len(set)))
		for _, p := range set {
			sw.u16(p.Right)
			sw.i16(p.Value)
		}
		w.link(10+2*i, sw.b)
	}
	return w.b
}

// PairPos2 returns a format 2 pair positioning subtable for the same
// adjustments as PairPos1. Every first glyph and every second glyph gets a
// class of its own.
func PairPos2(pairs ...Pair) []byte {
	var lefts, rights []uint16
	for _, p := range pairs {
		lefts, rights = append(lefts, p.Left), append(rights, p.Right)
	}
	lefts, rights = sortedUnique(lefts), sortedUnique(rights)
	class1, class2 := classesOf(lefts), classesOf(rights)
	n1, n2 := len(lefts)+1, len(rights)+1
	matrix := make([]int16, n1*n2)
	for _, p := range pairs {
		matrix[int(class1[p.Left])*n2+int(class2[p.Right])] = p.Value
	}
	w := &writer{}
	w.u16(2, 0, 0x0004, 0, 0, 0, uint16(n1), uint16(n2))
	w.i16(matrix...)
	w.link(2, Coverage(lefts...))
	w.link(8, classDefFor(lefts, class1))
	w.link(10, classDefFor(rights, class2))
	return w.b
}

func classesOf(glyphs []uint16) map[uint16]uint16 {
	classes := make(map[uint16]uint16, len(glyphs))
	for i, g := range glyphs {
		classes[g] = uint16(i + 1)
	}
	return classes
}

func classDefFor(glyphs []uint16, classes map[uint16]uint16) []byte {
	ranges := make([]Range, len(glyphs))
	for i, g := range glyphs {
		ranges[i] = Range{From: g, To: g, Value: classes[g]}
	}
	return ClassDefRanges(ranges...)
}

// Cursive holds entry and exit anchors of a glyph; either may be nil.
type Cursive struct {
	Entry, Exit *Anchor
}

// CursivePos returns a cursive attachment subtable.
func CursivePos(anchors map[uint16]Cursive) []byte {
	glyphs := keys(anchors)
	w := &writer{}
	w.u16(1, 0, uint16(len(glyphs)))
	w.pad(4 * len(glyphs))
	w.link(2, Coverage(glyphs...))
	for i, g := range glyphs {
		c := anchors[g]
		if c.Entry != nil {
			w.link(6+4*i, c.Entry.bytes())
		}
		if c.Exit != nil {
			w.link(6+4*i+2, c.Exit.bytes())
		}
	}
	return w.b
}

// MarkToBasePos returns a mark-to-base (or mark-to-mark) attachment subtable
// with a single mark class.
func MarkToBasePos(marks, bases map[uint16]Anchor) []byte {
	markGlyphs, baseGlyphs := keys(marks), keys(bases)
	w := &writer{}
	w.u16(1, 0, 0, 1, 0, 0) // format, markCoverage, baseCoverage, classCount, markArray, baseArray
	w.link(2, Coverage(markGlyphs...))
	w.link(4, Coverage(baseGlyphs...))
	mw := &writer{}
	mw.u16(uint16(len(markGlyphs)))
	mw.pad(4 * len(markGlyphs))
	for i, g := range markGlyphs {
		mw.patch16(2+4*i, 0) // class
		mw.link(2+4*i+2, marks[g].bytes())
	}
	w.link(8, mw.b)
	bw := &writer{}
	bw.u16(uint16(len(baseGlyphs)))
	bw.pad(2 * len(baseGlyphs))
	for i, g := range baseGlyphs {
		bw.link(2+2*i, bases[g].bytes())
	}
	w.link(10, bw.b)
	return w.b
}
