/*
Package type1 handles PostScript Type 1 fonts.

A Type 1 font is described by its Adobe Font Metrics (AFM) file, which
provides everything needed for typesetting: glyph widths and bounding boxes,
kerning pairs and ligatures. The font program itself (PFA or PFB file) is read
and stored as is, to be embedded into output documents; it is never
interpreted.

Characters are mapped to glyphs by PostScript glyph names, following the
Adobe Glyph List. Variant glyphs (small capitals, oldstyle figures) are found
by the naming conventions for glyph name suffixes.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package type1

import (
	"fmt"
	"os"
	"strings"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/schuko/tracing"
	"seehuhn.de/go/postscript/type1/names"
)

// tracer writes to trace with key 'fontloom.fonts'
func tracer() tracing.Trace {
	return tracing.Select("fontloom.fonts")
}

// Font is a Type 1 font. It implements font.Font.
type Font struct {
	font.Warner
	AFM     *AFM
	Program *Program // nil for core fonts
	style   font.Style
	metrics font.Metrics
	names   *font.GlyphNames
	glyphs  map[glyphKey]font.GlyphMetrics
}

var _ font.Font = (*Font)(nil)

type glyphKey struct {
	r rune
	v font.Variant
}

// Option configures loading of a Type 1 font.
type Option func(*options)

type options struct {
	style    *font.Style
	core     bool
	warnings func(string)
}

// WithStyle sets the style of the font, overriding the style derived from
// the AFM data.
func WithStyle(s font.Style) Option {
	return func(o *options) {
		o.style = &s
	}
}

// CoreFont marks a font as one of the standard fonts every PostScript
// interpreter provides. No font program is read for core fonts.
func CoreFont() Option {
	return func(o *options) {
		o.core = true
	}
}

// WithWarningHandler installs a warning handler before the AFM file is parsed.
func WithWarningHandler(h func(string)) Option {
	return func(o *options) {
		o.warnings = h
	}
}

// Load reads a Type 1 font from basename.afm and, unless the font is a core
// font, its program from basename.pfb or, if that does not exist, basename.pfa.
func Load(basename string, opts ...Option) (*Font, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	afmFile, err := os.Open(basename + ".afm")
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot open AFM file for %s", basename)
	}
	defer afmFile.Close()
	p := &Parser{}
	p.SetWarningHandler(o.warnings)
	afm, err := p.Parse(afmFile)
	if err != nil {
		return nil, err
	}
	f := New(afm)
	f.SetWarningHandler(o.warnings)
	if o.style != nil {
		f.style = *o.style
	}
	if !o.core {
		if f.Program, err = loadProgram(basename); err != nil {
			return nil, err
		}
	}
	tracer().Infof("loaded Type 1 font %s from %s", f.Name(), basename)
	return f, nil
}

func loadProgram(basename string) (*Program, error) {
	if pfb, err := os.Open(basename + ".pfb"); err == nil {
		defer pfb.Close()
		return ReadPFB(pfb)
	}
	pfa, err := os.Open(basename + ".pfa")
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "no font program for %s", basename)
	}
	defer pfa.Close()
	return ReadPFA(pfa)
}

// New creates a font from AFM data.
func New(afm *AFM) *Font {
	f := &Font{
		AFM:    afm,
		glyphs: make(map[glyphKey]font.GlyphMetrics),
	}
	f.names = font.NewGlyphNames(afm.Order)
	f.metrics = font.Metrics{
		Ascender:    afm.Number("Ascender", 750),
		Descender:   afm.Number("Descender", -250),
		LineGap:     200,
		CapHeight:   afm.Number("CapHeight", 700),
		XHeight:     afm.Number("XHeight", 500),
		StemV:       afm.Number("StdVW", 50),
		ItalicAngle: afm.Number("ItalicAngle", 0),
		FixedPitch:  afm.Boolean("IsFixedPitch"),
	}
	if bb := afm.Numbers("FontBBox"); len(bb) == 4 {
		f.metrics.BBox = font.BBox{XMin: bb[0], YMin: bb[1], XMax: bb[2], YMax: bb[3]}
	}
	f.style = styleOf(afm)
	return f
}

// styleOf derives the style from the AFM keywords Weight and ItalicAngle and
// from the font's full name.
func styleOf(afm *AFM) font.Style {
	s := font.RegularStyle
	if w, err := font.ParseWeight(afm.String("Weight")); err == nil {
		s.Weight = w
	}
	fullname := strings.ToLower(afm.String("FullName"))
	switch {
	case strings.Contains(fullname, "oblique"):
		s.Slant = font.SlantOblique
	case strings.Contains(fullname, "italic") || afm.Number("ItalicAngle", 0) != 0:
		s.Slant = font.SlantItalic
	}
	for _, word := range strings.Fields(fullname) {
		if w, err := font.ParseWidth(word); err == nil {
			s.Width = w
		}
	}
	return s
}

// Name returns the PostScript name of the font.
func (f *Font) Name() string {
	return f.AFM.String("FontName")
}

// UnitsPerEm is 1000 for all Type 1 fonts.
func (f *Font) UnitsPerEm() int {
	return 1000
}

// Metrics returns font-wide metrics. Values missing from the AFM file are
// set to defaults.
func (f *Font) Metrics() font.Metrics {
	return f.metrics
}

// Style returns the font's style.
func (f *Font) Style() font.Style {
	return f.style
}

// Glyph returns the metrics for the glyph of code-point r in variant v.
// If the font has no glyph for v, the normal glyph is returned and a warning
// is issued. If the font has no glyph for r at all, a font.MissingGlyphError
// is returned.
func (f *Font) Glyph(r rune, v font.Variant) (font.GlyphMetrics, error) {
	key := glyphKey{r, v}
	if gm, ok := f.glyphs[key]; ok {
		return gm, nil
	}
	candidates := glyphNames(r)
	name, ok := f.names.Variant(font.VariantNormal, candidates...)
	if !ok {
		tracer().Debugf("%s does not contain glyph for %#U", f.Name(), r)
		return font.GlyphMetrics{}, font.MissingGlyphError{Font: f.Name(), Char: r}
	}
	if v != font.VariantNormal && r != ' ' {
		if vname, ok := f.names.Variant(v, candidates...); ok {
			name = vname
		} else {
			f.Warn("%s: no %s variant found for %#U, falling back to the normal glyph", f.Name(), v, r)
		}
	}
	gm := f.metricsFor(f.AFM.Glyphs[name])
	f.glyphs[key] = gm
	return gm, nil
}

// glyphNames lists the PostScript glyph names a font might use for r.
func glyphNames(r rune) []string {
	candidates := []string{names.FromUnicode(r)}
	for _, name := range []string{fmt.Sprintf("uni%04X", r), fmt.Sprintf("u%04X", r)} {
		if name != candidates[0] {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

func (f *Font) metricsFor(cm *CharMetric) font.GlyphMetrics {
	code, ok := f.AFM.Encoding[cm.Name]
	if !ok {
		code = -1
	}
	return font.GlyphMetrics{
		Name:  cm.Name,
		Width: cm.WX,
		BBox:  cm.BBox,
		Code:  code,
	}
}

// Kerning returns the kerning for a pair of glyphs, 0 if the AFM file does not
// list the pair.
func (f *Font) Kerning(a, b font.GlyphMetrics) float64 {
	return f.AFM.Kerning[KernPair{a.Name, b.Name}]
}

// Ligature returns the ligature for a pair of glyphs, as defined in the
// character metrics of a.
func (f *Font) Ligature(a, b font.GlyphMetrics) (font.GlyphMetrics, bool) {
	cm, ok := f.AFM.Glyphs[a.Name]
	if !ok {
		return font.GlyphMetrics{}, false
	}
	lig, ok := f.AFM.Glyphs[cm.Ligatures[b.Name]]
	if !ok {
		return font.GlyphMetrics{}, false
	}
	return f.metricsFor(lig), true
}
