package type1

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalAFM = `StartFontMetrics 4.1
Comment Synthetic font for tests
FontName Fixture-Regular
FullName Fixture Regular
FamilyName Fixture
Weight Bold
ItalicAngle 0
IsFixedPitch false
FontBBox -50 -250 1000 900
EncodingScheme FontSpecific
CapHeight 680
StartCharMetrics 8
C 32 ; WX 250 ; N space ; B 0 0 0 0 ;
C 65 ; WX 600 ; N A ; B 10 0 590 700 ;
C 86 ; WX 550 ; N V ; B 5 0 545 700 ;
C 97 ; WX 500 ; N a ; B 30 -10 470 480 ;
C -1 ; WX 520 ; N a.smcp ; B 10 0 510 520 ;
C 102 ; WX 300 ; N f ; B 20 0 330 720 ; L i fi ; L l fl ;
C 105 ; WX 280 ; N i ; B 40 0 240 700 ;
CH <FB01> ; WX 560 ; N fi ; B 20 0 540 720 ;
EndCharMetrics
StartKernData
StartKernPairs 1
KPX A V -50
EndKernPairs
EndKernData
EndFontMetrics
`

func TestParseMinimalAFM(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	afm, err := ParseAFM(strings.NewReader(minimalAFM))
	require.NoError(t, err)
	assert.Equal(t, "4.1", afm.Version)
	assert.Equal(t, "Fixture-Regular", afm.String("FontName"))
	assert.Equal(t, 680.0, afm.Number("CapHeight", 700))
	assert.Equal(t, 500.0, afm.Number("XHeight", 500))
	assert.Equal(t, []float64{-50, -250, 1000, 900}, afm.Numbers("FontBBox"))
	assert.False(t, afm.Boolean("IsFixedPitch"))
	assert.Equal(t, []string{"space", "A", "V", "a", "a.smcp", "f", "i", "fi"}, afm.Order)
	want := &CharMetric{
		Code:      102,
		Name:      "f",
		WX:        300,
		BBox:      font.BBox{XMin: 20, XMax: 330, YMax: 720},
		Ligatures: map[string]string{"i": "fi", "l": "fl"},
	}
	if diff := cmp.Diff(want, afm.Glyphs["f"]); diff != "" {
		t.Errorf("glyph f mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0xfb01, afm.Glyphs["fi"].Code)
	assert.Equal(t, -50.0, afm.Kerning[KernPair{"A", "V"}])
	assert.Equal(t, []KernPair{{"A", "V"}}, afm.KernPairs())
	// font specific encoding
	assert.Equal(t, 65, afm.Encoding["A"])
	_, ok := afm.Encoding["a.smcp"]
	assert.False(t, ok)
}

func TestCharMetricFragments(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	afm, err := ParseAFM(strings.NewReader(`StartFontMetrics 3.0
StartCharMetrics 3
C 1 ; W0X 400 ; N one ;
C 2 ; W 410 20 ; N two ;
C 3 ; WX 420 ; WY 30 ; N three ;
EndCharMetrics
EndFontMetrics
`))
	require.NoError(t, err)
	want := map[string]*CharMetric{
		"one":   {Code: 1, Name: "one", WX: 400},
		"two":   {Code: 2, Name: "two", WX: 410, WY: 20},
		"three": {Code: 3, Name: "three", WX: 420, WY: 30},
	}
	if diff := cmp.Diff(want, afm.Glyphs); diff != "" {
		t.Errorf("char metrics mismatch (-want +got):\n%s", diff)
	}
}

func TestSectionsAndKerning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	src := `StartFontMetrics 4.1
MetricsSets 0
StartDirection 0
UnderlinePosition -100
UnderlineThickness 50
ItalicAngle -12.5
CharWidth 600 0
IsFixedPitch true
EndDirection
StartCharMetrics 2
C 65 ; WX 600 ; N A ;
C 86 ; WX 600 ; N V ;
EndCharMetrics
StartKernData
StartTrackKern 1
TrackKern -1 6 0.1 72 -1.5
EndTrackKern
StartKernPairs0 3
KPX A V -30
KP V A -20 0
KPY A A 5
EndKernPairs0
EndKernData
StartComposites 1
CC Aacute 2 ; PCC A 0 0 ; PCC acute 160 170 ;
EndComposites
EndFontMetrics
` + "\x1a"
	p := &Parser{}
	warnings := 0
	p.SetWarningHandler(func(string) { warnings++ })
	afm, err := p.Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 1, warnings) // composites
	assert.Equal(t, -12.5, afm.Number("ItalicAngle", 0))
	assert.Equal(t, []float64{600, 0}, afm.Numbers("CharWidth"))
	assert.True(t, afm.Boolean("IsFixedPitch"))
	assert.Equal(t, -30.0, afm.Kerning[KernPair{"A", "V"}])
	assert.Equal(t, -20.0, afm.Kerning[KernPair{"V", "A"}])
	assert.Len(t, afm.Kerning, 2)
	assert.Equal(t, []TrackKern{{Degree: -1, MinSize: 6, MinKern: 0.1, MaxSize: 72, MaxKern: -1.5}},
		afm.TrackKern)
	assert.Equal(t, 65, afm.Encoding["A"])
}

func TestStandardEncoding(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	afm, err := ParseAFM(strings.NewReader(`StartFontMetrics 2.0
EncodingScheme AdobeStandardEncoding
StartCharMetrics 1
C 39 ; WX 222 ; N quoteright ;
EndCharMetrics
EndFontMetrics
`))
	require.NoError(t, err)
	assert.Equal(t, 39, afm.Encoding["quoteright"])
	assert.Equal(t, 0xe1, afm.Encoding["AE"]) // not in the font, but in the encoding
	assert.Equal(t, 65, afm.Encoding["A"])
}

func TestMalformedAFM(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	for name, src := range map[string]string{
		"mismatched End": "StartFontMetrics 4.1\nStartCharMetrics 0\nEndKernData\nEndFontMetrics\n",
		"unterminated":   "StartFontMetrics 4.1\nFontName X\n",
		"unknown key":    "StartFontMetrics 4.1\nFontWeirdness 3\nEndFontMetrics\n",
		"bad number":     "StartFontMetrics 4.1\nCapHeight high\nEndFontMetrics\n",
		"bad bbox":       "StartFontMetrics 4.1\nFontBBox 1 2 3\nEndFontMetrics\n",
		"bad fragment":   "StartFontMetrics 4.1\nStartCharMetrics 1\nC 65 ; XX 1 ; N A ;\nEndCharMetrics\nEndFontMetrics\n",
		"no glyph name":  "StartFontMetrics 4.1\nStartCharMetrics 1\nC 65 ; WX 600 ;\nEndCharMetrics\nEndFontMetrics\n",
		"bad kern pair":  "StartFontMetrics 4.1\nStartKernData\nStartKernPairs 1\nKPX A -50\nEndKernPairs\nEndKernData\nEndFontMetrics\n",
	} {
		_, err := ParseAFM(strings.NewReader(src))
		if assert.Error(t, err, name) {
			assert.True(t, font.IsFormatError(err), "%s: expected format error, have %v", name, err)
		}
	}
}
