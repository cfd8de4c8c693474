/*
Package opentype handles OpenType fonts.

An OpenType font (opentype.Font) implements interface font.Font on top of the
tables decoded by package ot. Glyphs are found through the font's cmap,
kerning is taken from GPOS feature 'kern' (falling back to the legacy 'kern'
table) and ligatures from GSUB feature 'liga'. Small capitals and oldstyle
figures are looked up via GSUB features 'smcp' and 'onum'; fonts without
these features are searched for variant glyphs by glyph name.

Layout features are resolved for script 'latn' and the default language
system, unless a client selects a language with Font.SetLanguage.

Results of glyph, kerning and ligature queries are cached per font. The
caches are not synchronized (see package font).

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package opentype

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype/ot"
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontloom.fonts'
func tracer() tracing.Trace {
	return tracing.Select("fontloom.fonts")
}

// Font is an OpenType font. It implements font.Font.
type Font struct {
	font.Warner
	OT      *ot.Font // decoded font tables
	Path    string   // file path, if loaded from a file
	style   font.Style
	metrics font.Metrics
	names   *font.GlyphNames // glyph names from table post, nil if font has none
	script  ot.Tag           // script for layout features
	lang    ot.Tag           // language system for layout features, 0 for default
	cache   *queryCache
}

var _ font.Font = (*Font)(nil)

// Parse decodes an OpenType font from its binary representation.
// Font collections are rejected; use ParseCollection instead.
func Parse(data []byte) (*Font, error) {
	otf, err := ot.Parse(data)
	if err != nil {
		return nil, err
	}
	return New(otf), nil
}

// ParseCollection decodes every font of a TrueType/OpenType collection.
// A single font file is treated as a collection of one font.
func ParseCollection(data []byte) ([]*Font, error) {
	otfs, err := ot.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	fonts := make([]*Font, len(otfs))
	for i, otf := range otfs {
		fonts[i] = New(otf)
	}
	return fonts, nil
}

// Load reads and decodes an OpenType font file (.otf, .ttf).
// For collections (.ttc, .otc) the first font is returned.
func Load(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read font file %s", path)
	}
	var f *Font
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttc", ".otc":
		fonts, err := ParseCollection(data)
		if err != nil {
			return nil, err
		}
		f = fonts[0]
	default:
		if f, err = Parse(data); err != nil {
			return nil, err
		}
	}
	f.Path = path
	tracer().Infof("loaded font %s from %s", f.Name(), path)
	return f, nil
}

// New wraps decoded font tables into a Font.
func New(otf *ot.Font) *Font {
	f := &Font{OT: otf, script: latn, cache: newQueryCache()}
	f.style = styleOf(otf)
	f.metrics = metricsOf(otf)
	if names := otf.Post.GlyphNames(); len(names) > 0 {
		f.names = font.NewGlyphNames(names)
	}
	return f
}

// Name returns the PostScript name of the font.
func (f *Font) Name() string {
	if name := f.OT.Name.PostScriptName(); name != "" {
		return name
	}
	return f.OT.Name.FamilyName()
}

// UnitsPerEm returns the size of the em square in font units.
func (f *Font) UnitsPerEm() int {
	return int(f.OT.Head.UnitsPerEm)
}

// Metrics returns font-wide metrics in font units.
func (f *Font) Metrics() font.Metrics {
	return f.metrics
}

// Style returns weight, slant and width of the font, as declared in table OS/2.
func (f *Font) Style() font.Style {
	return f.style
}

func styleOf(otf *ot.Font) font.Style {
	s := font.RegularStyle
	if w := otf.OS2.WeightClass; w > 0 && w <= 1000 {
		s.Weight = font.Weight(w)
	}
	if w := otf.OS2.WidthClass; w >= 1 && w <= 9 {
		s.Width = font.Width(w)
	}
	switch {
	case otf.OS2.FsSelection&ot.FsSelectionOblique != 0:
		s.Slant = font.SlantOblique
	case otf.OS2.FsSelection&ot.FsSelectionItalic != 0:
		s.Slant = font.SlantItalic
	}
	return s
}

// Ascender, descender and line gap are taken from the typographic metrics of
// table OS/2. Fonts which leave them empty use the values from table hhea.
func metricsOf(otf *ot.Font) font.Metrics {
	os2, hhea := otf.OS2, otf.HHea
	m := font.Metrics{
		Ascender:    float64(hhea.Ascender),
		Descender:   float64(hhea.Descender),
		LineGap:     float64(hhea.LineGap),
		CapHeight:   float64(os2.CapHeight),
		XHeight:     float64(os2.XHeight),
		StemV:       50,
		ItalicAngle: otf.Post.ItalicAngle,
		FixedPitch:  otf.Post.IsFixedPitch,
		BBox:        bboxOf(otf.Head.BBox),
	}
	if os2.HasTypoMetrics && (os2.TypoAscender != 0 || os2.TypoDescender != 0) {
		m.Ascender = float64(os2.TypoAscender)
		m.Descender = float64(os2.TypoDescender)
		m.LineGap = float64(os2.TypoLineGap)
	}
	return m
}

func bboxOf(bb ot.BBox) font.BBox {
	return font.BBox{
		XMin: float64(bb.XMin),
		YMin: float64(bb.YMin),
		XMax: float64(bb.XMax),
		YMax: float64(bb.YMax),
	}
}
