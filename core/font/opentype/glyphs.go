package opentype

import (
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype/ot"
	"seehuhn.de/go/postscript/type1/names"
)

// default script for layout features
var latn = ot.T("latn")

type glyphKey struct {
	r rune
	v font.Variant
}

type glyphPair [2]ot.GlyphIndex

type ligatureResult struct {
	g  ot.GlyphIndex
	ok bool
}

type queryCache struct {
	glyphs    map[glyphKey]font.GlyphMetrics
	kerning   map[glyphPair]float64
	ligatures map[glyphPair]ligatureResult
	features  map[ot.Tag]ot.FeatureLookups
}

func newQueryCache() *queryCache {
	return &queryCache{
		glyphs:    make(map[glyphKey]font.GlyphMetrics),
		kerning:   make(map[glyphPair]float64),
		ligatures: make(map[glyphPair]ligatureResult),
		features:  make(map[ot.Tag]ot.FeatureLookups),
	}
}

// Glyph returns the metrics for the glyph of code-point r in variant v.
// If the font has no glyph for v, the normal glyph is returned and a warning
// is issued. If the font has no glyph for r at all, a font.MissingGlyphError
// is returned.
func (f *Font) Glyph(r rune, v font.Variant) (font.GlyphMetrics, error) {
	key := glyphKey{r, v}
	if gm, ok := f.cache.glyphs[key]; ok {
		return gm, nil
	}
	gid := f.OT.CMap.GlyphIndexMap.Lookup(r)
	if gid == 0 {
		tracer().Debugf("%s does not contain glyph for %#U", f.Name(), r)
		return font.GlyphMetrics{}, font.MissingGlyphError{Font: f.Name(), Char: r}
	}
	if v != font.VariantNormal && r != ' ' {
		if vg, ok := f.variantGlyph(r, gid, v); ok {
			gid = vg
		} else {
			f.Warn("%s: no %s variant found for %#U, falling back to the normal glyph", f.Name(), v, r)
		}
	}
	gm := f.GlyphMetrics(gid)
	f.cache.glyphs[key] = gm
	return gm, nil
}

// variantGlyph finds a variant of glyph gid, which is the normal glyph for r.
// GSUB features are tried first, then glyph names.
func (f *Font) variantGlyph(r rune, gid ot.GlyphIndex, v font.Variant) (ot.GlyphIndex, bool) {
	var feature ot.Tag
	switch v {
	case font.VariantSmallCapital:
		feature = ot.T("smcp")
	case font.VariantOldstyleFigures:
		feature = ot.T("onum")
	default:
		return 0, false
	}
	if g, ok := f.gsub(feature).SubstituteSingle(gid); ok {
		return g, true
	}
	if f.names == nil {
		return 0, false
	}
	var candidates []string
	if name, ok := f.OT.Post.GlyphName(gid); ok {
		candidates = append(candidates, name)
	}
	candidates = append(candidates, names.FromUnicode(r))
	name, ok := f.names.Variant(v, candidates...)
	if !ok {
		return 0, false
	}
	return f.OT.Post.GlyphByName(name)
}

// GlyphMetrics returns the metrics for a glyph index. Fonts with CFF outlines
// report the font's bounding box for every glyph.
func (f *Font) GlyphMetrics(gid ot.GlyphIndex) font.GlyphMetrics {
	adv, _ := f.OT.HMtx.HMetrics(gid)
	gm := font.GlyphMetrics{Width: float64(adv), Code: int(gid)}
	gm.Name, _ = f.OT.Post.GlyphName(gid)
	if f.OT.Glyf != nil {
		gm.BBox = bboxOf(f.OT.Glyf.BBox(gid))
	} else {
		gm.BBox = f.metrics.BBox
	}
	return gm
}

// Kerning returns the kerning for two glyphs in font units. Kerning is taken
// from GPOS feature 'kern' or, if the font has no GPOS kerning for the pair,
// from table kern. A pair without kerning returns 0.
func (f *Font) Kerning(a, b font.GlyphMetrics) float64 {
	pair := glyphPair{ot.GlyphIndex(a.Code), ot.GlyphIndex(b.Code)}
	if k, ok := f.cache.kerning[pair]; ok {
		return k
	}
	var k float64
	if v1, _, ok := f.gpos(ot.T("kern")).PairAdjustment(pair[0], pair[1]); ok {
		k = float64(v1.XAdvance)
	} else if f.OT.Kern != nil {
		if kern, ok := f.OT.Kern.Kerning(pair[0], pair[1]); ok {
			k = float64(kern)
		}
	}
	f.cache.kerning[pair] = k
	return k
}

// Ligature returns the ligature glyph for a pair of glyphs, if GSUB feature
// 'liga' defines one.
func (f *Font) Ligature(a, b font.GlyphMetrics) (font.GlyphMetrics, bool) {
	pair := glyphPair{ot.GlyphIndex(a.Code), ot.GlyphIndex(b.Code)}
	lig, cached := f.cache.ligatures[pair]
	if !cached {
		lig.g, lig.ok = f.gsub(ot.T("liga")).Ligature(pair[0], pair[1])
		f.cache.ligatures[pair] = lig
	}
	if !lig.ok {
		return font.GlyphMetrics{}, false
	}
	return f.GlyphMetrics(lig.g), true
}

// --- Features --------------------------------------------------------------

// Cache keys for GPOS features are distinguished from GSUB features by
// flipping the tag's high bit, which is never set in a valid tag.
const gposMark ot.Tag = 0x80000000

func (f *Font) gsub(feature ot.Tag) ot.FeatureLookups {
	if f.OT.Layout.GSub == nil {
		return nil
	}
	return f.lookups(&f.OT.Layout.GSub.LayoutTable, feature, feature)
}

func (f *Font) gpos(feature ot.Tag) ot.FeatureLookups {
	if f.OT.Layout.GPos == nil {
		return nil
	}
	return f.lookups(&f.OT.Layout.GPos.LayoutTable, feature, feature|gposMark)
}

func (f *Font) lookups(table *ot.LayoutTable, feature, key ot.Tag) ot.FeatureLookups {
	if fl, ok := f.cache.features[key]; ok {
		return fl
	}
	fl, fallback := table.Lookups(feature, f.script, f.lang)
	if fallback&ot.ScriptFallback != 0 {
		f.Warn("%s does not support script %s, using default script", f.Name(), f.script)
	}
	if fallback&ot.LanguageFallback != 0 {
		tracer().Debugf("%s has no language system %s, using default", f.Name(), f.lang)
	}
	f.cache.features[key] = fl
	return fl
}
