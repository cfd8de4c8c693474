package fontregistry

import (
	"testing"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype"
	"github.com/npillmayer/fontloom/core/font/opentype/ot/ottest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureFont(t *testing.T, subfamily string, weight uint16, fsSelection uint16) *opentype.Font {
	fx := &ottest.Font{
		Family:      "Fixture",
		Subfamily:   subfamily,
		Weight:      weight,
		FsSelection: fsSelection,
		Glyphs: []ottest.Glyph{
			{Name: ".notdef", Advance: 500},
			{Name: "A", Rune: 'A', Advance: 600},
		},
	}
	f, err := opentype.Parse(fx.Bytes())
	require.NoError(t, err)
	return f
}

func TestRegistry(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	fr := NewRegistry()
	regular := fixtureFont(t, "Regular", 400, 0)
	bold := fixtureFont(t, "Bold", 700, 0)
	fr.StoreFont("Fixture", regular)
	fr.StoreFont("fixture.ttf", bold)
	fr.StoreFont("Fixture", fixtureFont(t, "Regular", 400, 0)) // ignored
	assert.Equal(t, []string{"fixture"}, fr.Names())
	tf, err := fr.Typeface("Fixture")
	require.NoError(t, err)
	assert.Equal(t, 2, tf.Len())
	f, err := fr.Font("fixture", font.Style{Weight: font.WeightBlack, Width: font.WidthNormal})
	require.NoError(t, err)
	assert.Same(t, bold, f)
	//
	italic := fixtureFont(t, "Italic", 400, 0x0001)
	fr.StoreFont("Fixture", italic)
	tf, err = fr.Typeface("Fixture")
	require.NoError(t, err)
	assert.Equal(t, 3, tf.Len())
	fr.LogFontList()
}

func TestFallback(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	fr := NewRegistry()
	tf, err := fr.Typeface("Nonexisting Sans")
	require.Error(t, err)
	assert.Equal(t, core.EMISSING, core.Code(err))
	require.NotNil(t, tf)
	f := tf.Font(font.WeightBold, font.SlantItalic, font.WidthNormal)
	assert.Equal(t, "GoRegular", f.Name())
	tf2, _ := fr.Typeface("Another Sans")
	assert.Same(t, tf, tf2)
}

func TestNormalizeFontname(t *testing.T) {
	assert.Equal(t, "times_new_roman", NormalizeFontname(" Times New Roman "))
	assert.Equal(t, "gentiumplus-r", NormalizeFontname("GentiumPlus-R.ttf"))
	assert.Equal(t, "font.v2", NormalizeFontname("Font.v2"))
	assert.Equal(t, "gentium-italic-bold",
		StyledFontname("Gentium", font.Style{Weight: font.WeightBold, Slant: font.SlantItalic}))
}

func TestGuessStyle(t *testing.T) {
	for name, want := range map[string]font.Style{
		"GentiumPlus-R.ttf":            font.RegularStyle,
		"Go-Regular.ttf":               font.RegularStyle,
		"Roboto-BoldItalic.ttf":        {Weight: font.WeightBold, Slant: font.SlantItalic, Width: font.WidthNormal},
		"OpenSans-Light.ttf":           {Weight: font.WeightLight, Width: font.WidthNormal},
		"OpenSans_Condensed-Bold.ttf":  {Weight: font.WeightBold, Width: font.WidthCondensed},
		"Inconsolata-xbold.otf":        {Weight: font.WeightExtraBold, Width: font.WidthNormal},
		"SourceSerif4-SemiBold.otf":    {Weight: font.WeightDemiBold, Width: font.WidthNormal},
		"/usr/share/fonts/Lato-Black":  {Weight: font.WeightBlack, Width: font.WidthNormal},
		"DejaVuSans-Oblique.ttf":       {Weight: font.WeightRegular, Slant: font.SlantOblique, Width: font.WidthNormal},
		"Cantarell-VF.otf":             font.RegularStyle,
		"NotoSans-ExtraCondensed.ttf":  {Weight: font.WeightRegular, Width: font.WidthExtraCondensed},
		"NotoSans-ExtraBoldItalic.ttf": {Weight: font.WeightExtraBold, Slant: font.SlantItalic, Width: font.WidthNormal},
	} {
		assert.Equal(t, want, GuessStyle(name), name)
	}
	assert.True(t, Matches("/fonts/Roboto-BoldItalic.ttf", "roboto",
		font.Style{Weight: font.WeightBold, Slant: font.SlantItalic}))
	assert.False(t, Matches("/fonts/Roboto-BoldItalic.ttf", "roboto", font.RegularStyle))
}

func TestClosestMatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	descs := []Descriptor{
		{Family: "Anonymous Pro", Variants: []string{"regular", "italic", "700", "700italic"}},
		{Family: "Antic", Variants: []string{"regular"}},
	}
	d, v, c := ClosestMatch(descs, "anonymous", font.Style{Weight: font.WeightBold, Slant: font.SlantItalic})
	assert.Equal(t, "Anonymous Pro", d.Family)
	assert.Equal(t, "700italic", v)
	assert.Equal(t, PerfectConfidence, c)
	_, v, c = ClosestMatch(descs, "Antic", font.Style{Weight: font.WeightMedium})
	assert.Equal(t, "regular", v)
	assert.Equal(t, (PerfectConfidence+HighConfidence)/2, c)
	_, _, c = ClosestMatch(descs, "Antic", font.Style{Weight: font.WeightRegular, Slant: font.SlantItalic})
	assert.Equal(t, LowConfidence, c) // weight matches, slant does not
	_, _, c = ClosestMatch(descs, "Garamond", font.RegularStyle)
	assert.Equal(t, NoConfidence, c)
}
