package opentype

import (
	"testing"

	"github.com/npillmayer/fontloom/core/dimen"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype/ot"
	"github.com/npillmayer/fontloom/core/font/opentype/ot/ottest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

// Glyphs of the test font
const (
	gNotdef = iota
	gSpace
	gA
	gV
	ga
	gaSmcp
	gf
	gi
	gfi
	gOne
	gOneOld
	gb
)

func fixture() *ottest.Font {
	return &ottest.Font{
		Family:     "Fixture",
		UnitsPerEm: 1000,
		Ascender:   750,
		Descender:  -250,
		LineGap:    200,
		Glyphs: []ottest.Glyph{
			{Name: ".notdef", Advance: 500},
			{Name: "space", Rune: ' ', Advance: 250},
			{Name: "A", Rune: 'A', Advance: 600, BBox: [4]int16{10, 0, 590, 700}},
			{Name: "V", Rune: 'V', Advance: 550, BBox: [4]int16{5, 0, 545, 700}},
			{Name: "a", Rune: 'a', Advance: 500, BBox: [4]int16{30, -10, 470, 480}},
			{Name: "a.smcp", Advance: 520, BBox: [4]int16{10, 0, 510, 520}},
			{Name: "f", Rune: 'f', Advance: 300, BBox: [4]int16{20, 0, 330, 720}},
			{Name: "i", Rune: 'i', Advance: 280, BBox: [4]int16{40, 0, 240, 700}},
			{Name: "f_i", Advance: 560, BBox: [4]int16{20, 0, 540, 720}},
			{Name: "one", Rune: '1', Advance: 500, BBox: [4]int16{50, 0, 450, 700}},
			{Name: "one.oldstyle", Advance: 480, BBox: [4]int16{50, 0, 430, 480}},
			{Name: "b", Rune: 'b', Advance: 510, BBox: [4]int16{40, -10, 480, 720}},
		},
	}
}

// kernFixture is a font with CFF outlines and a single GPOS kerning pair.
func kernFixture() *ottest.Font {
	f := fixture()
	f.GPos = &ottest.Layout{
		Features: []ottest.Feature{{Tag: "kern", Lookups: []uint16{0}}},
		Lookups: []ottest.Lookup{
			{Type: ottest.GPosPair, Subtables: [][]byte{
				ottest.PairPos1(ottest.Pair{Left: gA, Right: gV, Value: -50}),
			}},
		},
	}
	f.Tables = map[string][]byte{"loca": nil, "glyf": nil, "CFF ": {1, 0, 4, 1}}
	return f
}

// gsubFixture adds GSUB features smcp and liga.
func gsubFixture() *ottest.Font {
	f := fixture()
	f.GSub = &ottest.Layout{
		Features: []ottest.Feature{
			{Tag: "smcp", Lookups: []uint16{0}},
			{Tag: "liga", Lookups: []uint16{1}},
		},
		Lookups: []ottest.Lookup{
			{Type: ottest.GSubSingle, Subtables: [][]byte{
				ottest.SingleSubst(map[uint16]uint16{ga: gaSmcp}),
			}},
			{Type: ottest.GSubLigature, Subtables: [][]byte{
				ottest.LigatureSubst(ottest.Ligature{Glyph: gfi, Components: []uint16{gf, gi}}),
			}},
		},
	}
	return f
}

func parse(t *testing.T, f *ottest.Font) *Font {
	t.Helper()
	otf, err := Parse(f.Bytes())
	require.NoError(t, err, "cannot parse test font")
	return otf
}

func countWarnings(f *Font) *int {
	n := 0
	f.SetWarningHandler(func(string) { n++ })
	return &n
}

func TestKerningEndToEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	f := parse(t, kernFixture())
	require.Nil(t, f.OT.Glyf)
	assert.Equal(t, 1000, f.UnitsPerEm())
	A, err := f.Glyph('A', font.VariantNormal)
	require.NoError(t, err)
	V, err := f.Glyph('V', font.VariantNormal)
	require.NoError(t, err)
	assert.Equal(t, -50.0, f.Kerning(A, V))
	assert.InDelta(t, -0.05, font.InPoints(f, f.Kerning(A, V)), 1e-9)
	assert.Equal(t, 0.0, f.Kerning(V, A))
	assert.Equal(t, f.Metrics().BBox, A.BBox) // no glyf table
}

func TestKerningFromKernTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	fx := fixture()
	fx.Kern = []ottest.Pair{{Left: gA, Right: gV, Value: -40}}
	f := parse(t, fx)
	A, _ := f.Glyph('A', font.VariantNormal)
	V, _ := f.Glyph('V', font.VariantNormal)
	assert.Equal(t, -40.0, f.Kerning(A, V))
	assert.Equal(t, 0.0, f.Kerning(V, A))
	assert.Equal(t, -40.0, f.Kerning(A, V)) // cached
}

func TestGlyph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	f := parse(t, fixture())
	g, err := f.Glyph('a', font.VariantNormal)
	require.NoError(t, err)
	assert.Equal(t, font.GlyphMetrics{
		Name:  "a",
		Width: 500,
		BBox:  font.BBox{XMin: 30, YMin: -10, XMax: 470, YMax: 480},
		Code:  ga,
	}, g)
	_, err = f.Glyph('Z', font.VariantNormal)
	require.Error(t, err)
	assert.True(t, font.IsMissingGlyph(err))
	// space has no variants and does not warn
	warnings := countWarnings(f)
	_, err = f.Glyph(' ', font.VariantSmallCapital)
	assert.NoError(t, err)
	assert.Equal(t, 0, *warnings)
}

func TestSmallCapitalsByFeature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	f := parse(t, gsubFixture())
	warnings := countWarnings(f)
	g, err := f.Glyph('a', font.VariantSmallCapital)
	require.NoError(t, err)
	assert.Equal(t, "a.smcp", g.Name)
	assert.Equal(t, 520.0, g.Width)
	assert.Equal(t, 0, *warnings)
	//
	g, err = f.Glyph('b', font.VariantSmallCapital)
	require.NoError(t, err)
	assert.Equal(t, "b", g.Name)
	assert.Equal(t, 1, *warnings)
	_, _ = f.Glyph('b', font.VariantSmallCapital)
	assert.Equal(t, 1, *warnings)
}

func TestVariantsByGlyphName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	f := parse(t, fixture()) // no GSUB
	warnings := countWarnings(f)
	g, err := f.Glyph('a', font.VariantSmallCapital)
	require.NoError(t, err)
	assert.Equal(t, "a.smcp", g.Name)
	g, err = f.Glyph('1', font.VariantOldstyleFigures)
	require.NoError(t, err)
	assert.Equal(t, gOneOld, g.Code)
	assert.Equal(t, 0, *warnings)
	g, err = f.Glyph('1', font.VariantSmallCapital)
	require.NoError(t, err)
	assert.Equal(t, gOne, g.Code)
	assert.Equal(t, 1, *warnings)
}

func TestLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	f := parse(t, gsubFixture())
	ff, _ := f.Glyph('f', font.VariantNormal)
	i, _ := f.Glyph('i', font.VariantNormal)
	lig, ok := f.Ligature(ff, i)
	require.True(t, ok)
	assert.Equal(t, "f_i", lig.Name)
	assert.Equal(t, 560.0, lig.Width)
	_, ok = f.Ligature(i, ff)
	assert.False(t, ok)
	//
	f = parse(t, fixture())
	_, ok = f.Ligature(ff, i)
	assert.False(t, ok)
}

func TestSetLanguage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	assert.Equal(t, latn, ScriptTagForScript(language.MustParseScript("Latn")))
	assert.Equal(t, ot.T("cyrl"), ScriptTagForScript(language.MustParseScript("Cyrl")))
	assert.Equal(t, ot.DFLT, ScriptTagForScript(language.MustParseScript("Runr")))
	assert.Equal(t, ot.T("DEU "), LanguageTagForLanguage(language.German, language.High))
	assert.Equal(t, ot.T("DEU "), LanguageTagForLanguage(language.MustParse("de-AT"), language.High))
	assert.Equal(t, ot.Tag(0), LanguageTagForLanguage(language.MustParse("sw"), language.High))
	assert.Equal(t, ot.Tag(0), LanguageTagForLanguage(language.MustParse("sw-TZ"), language.High))
	assert.Equal(t, ot.Tag(0), LanguageTagForLanguage(language.MustParse("gsw"), language.High))
	//
	fx := gsubFixture()
	fx.GSub.Languages = []string{"DEU"}
	f := parse(t, fx)
	warnings := countWarnings(f)
	f.SetLanguage(language.German)
	ff, _ := f.Glyph('f', font.VariantNormal)
	i, _ := f.Glyph('i', font.VariantNormal)
	_, ok := f.Ligature(ff, i)
	assert.True(t, ok)
	assert.Equal(t, 0, *warnings)
	//
	f.SetLanguage(language.Russian) // script 'cyrl' is not supported by the font
	_, ok = f.Ligature(ff, i)
	assert.False(t, ok)
	assert.Equal(t, 1, *warnings)
}

func TestMetricsAndStyle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	fx := fixture()
	fx.Weight, fx.Width, fx.FsSelection = 700, 3, 0x0001
	fx.ItalicAngle = -12
	f := parse(t, fx)
	assert.Equal(t, font.Style{Weight: font.WeightBold, Slant: font.SlantItalic, Width: font.WidthCondensed},
		f.Style())
	m := f.Metrics()
	assert.Equal(t, 750.0, m.Ascender)
	assert.Equal(t, -250.0, m.Descender)
	assert.Equal(t, 700.0, m.CapHeight)
	assert.Equal(t, 500.0, m.XHeight)
	assert.Equal(t, -12.0, m.ItalicAngle)
	assert.Equal(t, "Fixture-Regular", f.Name())
	sm := font.Scaled(f, 10*dimen.BP)
	assert.Equal(t, 5*dimen.BP, sm.XHeight)
	//
	fx = fixture()
	fx.FsSelection = 0x0201 // italic and oblique
	assert.Equal(t, font.SlantOblique, parse(t, fx).Style().Slant)
}

func TestGlyphInfo(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	f := parse(t, fixture())
	info := f.GlyphInfo(gA)
	assert.Equal(t, "A", info.Name)
	assert.Equal(t, 'A', info.CodePoint)
	assert.EqualValues(t, 600, info.Advance)
	assert.EqualValues(t, 580, info.BBox.Dx())
	assert.EqualValues(t, 20, info.RSB) // 600 - (0 + 580)
	assert.Equal(t, "TrueType", f.FontType())
	assert.Equal(t, "Fixture", f.NameInfo(language.German)["family"])
	assert.Empty(t, f.LayoutTables())
	assert.Equal(t, []string{"GSUB"}, parse(t, gsubFixture()).LayoutTables())
}

func TestTypefaceOfOpenTypeFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	regular := parse(t, fixture())
	fx := fixture()
	fx.Subfamily, fx.Weight = "Black", 900
	black := parse(t, fx)
	tf, err := font.NewTypeface("Fixture", regular, black)
	require.NoError(t, err)
	assert.Same(t, black, tf.Font(font.WeightBold, font.SlantUpright, font.WidthNormal))
	assert.Same(t, regular, tf.Font(font.WeightRegular, font.SlantItalic, font.WidthNormal))
	_, err = font.NewTypeface("Fixture", regular, parse(t, fixture()))
	assert.Error(t, err)
}
