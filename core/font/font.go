package font

import (
	"errors"
	"fmt"
	"math"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/dimen"
)

// Font is a scalable font of a given style. Metrics are in font units.
//
// Fonts are constructed once from a font file and are read-only thereafter,
// with the exception of caches for lookups. These caches are not
// synchronized, i.e. a Font must not be queried concurrently by more than one
// goroutine unless clients synchronize access.
type Font interface {
	Name() string                                    // PostScript name of the font
	UnitsPerEm() int                                 // size of the em square in font units
	Metrics() Metrics                                // font-wide metrics in font units
	Style() Style                                    // weight, slant and width
	Glyph(r rune, v Variant) (GlyphMetrics, error)   // glyph for a Unicode code-point
	Kerning(a, b GlyphMetrics) float64               // kerning for a pair of glyphs, in font units
	Ligature(a, b GlyphMetrics) (GlyphMetrics, bool) // ligature glyph for a pair of glyphs
}

// GlyphMetrics holds information about a single glyph of a font.
// Values are in font units. GlyphMetrics are immutable values and are
// meaningful only in the context of the font which produced them.
type GlyphMetrics struct {
	Name  string  // PostScript glyph name, may be empty for OpenType fonts
	Width float64 // advance width
	BBox  BBox    // bounding box of the glyph's outline
	Code  int     // glyph index (OpenType) or character code (Type1, -1 if unencoded)
}

func (gm GlyphMetrics) String() string {
	if gm.Name == "" {
		return fmt.Sprintf("glyph[#%d|%g]", gm.Code, gm.Width)
	}
	return fmt.Sprintf("glyph[%s|%g]", gm.Name, gm.Width)
}

// BBox is a bounding box in font units.
type BBox struct {
	XMin, YMin, XMax, YMax float64
}

func (bb BBox) String() string {
	return fmt.Sprintf("(%g,%g,%g,%g)", bb.XMin, bb.YMin, bb.XMax, bb.YMax)
}

// Width returns the horizontal extent of a bounding box.
func (bb BBox) Width() float64 {
	return bb.XMax - bb.XMin
}

// Height returns the vertical extent of a bounding box.
func (bb BBox) Height() float64 {
	return bb.YMax - bb.YMin
}

// Metrics is a set of font-wide metrics. Descender usually is negative.
type Metrics struct {
	Ascender    float64
	Descender   float64
	LineGap     float64
	CapHeight   float64
	XHeight     float64
	StemV       float64
	ItalicAngle float64 // degrees counter-clockwise from the vertical
	BBox        BBox    // union of all glyph bounding boxes
	FixedPitch  bool
}

// InPoints returns the metrics relative to the em square, i.e. the metrics of
// the font at a size of 1 point. ItalicAngle and FixedPitch are unchanged.
func (m Metrics) InPoints(unitsPerEm int) Metrics {
	u := float64(unitsPerEm)
	if u <= 0 {
		u = 1000
	}
	m.Ascender /= u
	m.Descender /= u
	m.LineGap /= u
	m.CapHeight /= u
	m.XHeight /= u
	m.StemV /= u
	m.BBox = BBox{m.BBox.XMin / u, m.BBox.YMin / u, m.BBox.XMax / u, m.BBox.YMax / u}
	return m
}

// InPoints converts a value in font units of f to points at a font size of
// 1 point.
func InPoints(f Font, v float64) float64 {
	upem := f.UnitsPerEm()
	if upem <= 0 {
		return v / 1000
	}
	return v / float64(upem)
}

// ScaledMetrics are font metrics for a font at a given size.
type ScaledMetrics struct {
	Size      dimen.Dimen
	Ascender  dimen.Dimen
	Descender dimen.Dimen
	LineGap   dimen.Dimen
	CapHeight dimen.Dimen
	XHeight   dimen.Dimen
}

// Scaled returns the metrics of f set at size.
func Scaled(f Font, size dimen.Dimen) ScaledMetrics {
	m := f.Metrics()
	return ScaledMetrics{
		Size:      size,
		Ascender:  Scale(f, m.Ascender, size),
		Descender: Scale(f, m.Descender, size),
		LineGap:   Scale(f, m.LineGap, size),
		CapHeight: Scale(f, m.CapHeight, size),
		XHeight:   Scale(f, m.XHeight, size),
	}
}

// Scale converts a value in font units of f to a dimension, with f set at size.
func Scale(f Font, v float64, size dimen.Dimen) dimen.Dimen {
	return dimen.Dimen(math.Round(InPoints(f, v) * float64(size)))
}

// --- Errors ----------------------------------------------------------------

// MissingGlyphError is returned by Font.Glyph if a font has no glyph for a
// code-point.
type MissingGlyphError struct {
	Font string
	Char rune
}

func (e MissingGlyphError) Error() string {
	return fmt.Sprintf("font %s does not contain a glyph for U+%04X (%q)", e.Font, e.Char, e.Char)
}

// ErrorCode is core.EMISSING for missing glyphs.
func (e MissingGlyphError) ErrorCode() int {
	return core.EMISSING
}

// UserMessage is part of interface core.AppError.
func (e MissingGlyphError) UserMessage() string {
	return e.Error()
}

var _ core.AppError = MissingGlyphError{}

// IsMissingGlyph is true if err signals a missing glyph.
func IsMissingGlyph(err error) bool {
	var mg MissingGlyphError
	return errors.As(err, &mg)
}

// IsFormatError is true if err has been caused by malformed font data.
func IsFormatError(err error) bool {
	return err != nil && core.Code(err) == core.EFORMAT
}
