package ot

import (
	"testing"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font/opentype/ot/ottest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Glyphs of the test font
const (
	gNotdef = iota
	gSpace
	gA
	gV
	gf
	gi
	gfi
	gaSmcp
	ga
	gAcute
	gCount
)

func testFont() *ottest.Font {
	return &ottest.Font{
		UnitsPerEm: 1000,
		Glyphs: []ottest.Glyph{
			{Name: ".notdef", Advance: 500, BBox: [4]int16{50, 0, 450, 700}},
			{Name: "space", Rune: ' ', Advance: 250},
			{Name: "A", Rune: 'A', Advance: 600, BBox: [4]int16{10, 0, 590, 700}},
			{Name: "V", Rune: 'V', Advance: 550, BBox: [4]int16{5, 0, 545, 700}},
			{Name: "f", Rune: 'f', Advance: 300, LSB: 20, BBox: [4]int16{20, 0, 330, 720}},
			{Name: "i", Rune: 'i', Advance: 280, BBox: [4]int16{40, 0, 240, 700}},
			{Name: "f_i", Advance: 560, BBox: [4]int16{20, 0, 540, 720}},
			{Name: "a.smcp", Advance: 520, BBox: [4]int16{10, 0, 510, 520}},
			{Name: "a", Rune: 'a', Advance: 500, BBox: [4]int16{30, -10, 470, 480}},
			{Name: "acutecomb", Rune: 0x301, Advance: 0, BBox: [4]int16{-200, 550, -50, 700}},
		},
		Kern: []ottest.Pair{{Left: gA, Right: gV, Value: -50}},
	}
}

func parseFixture(t *testing.T, f *ottest.Font) *Font {
	t.Helper()
	otf, err := Parse(f.Bytes())
	if err != nil {
		core.UserError(err)
		t.Fatalf("cannot parse test font: %v", err)
	}
	return otf
}

func TestParseFixture(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	otf := parseFixture(t, testFont())
	assert.Equal(t, gCount, otf.NumGlyphs())
	assert.Equal(t, uint16(1000), otf.Head.UnitsPerEm)
	assert.Equal(t, uint16(1), otf.Head.IndexToLocFormat)
	assert.Equal(t, "(-200,-10,590,720)", otf.Head.BBox.String())
	assert.Equal(t, int16(800), otf.HHea.Ascender)
	assert.Equal(t, int16(-200), otf.HHea.Descender)
	assert.Equal(t, "Fixture", otf.Name.FamilyName())
	assert.Equal(t, "Fixture-Regular", otf.Name.PostScriptName())
	assert.Equal(t, uint16(3), otf.CMap.PlatformID)
	assert.Equal(t, uint16(4), otf.CMap.Format)
	//
	adv, lsb := otf.HMtx.HMetrics(gf)
	if adv != 300 || lsb != 20 {
		t.Errorf("expected h-metrics of 'f' to be 300/20, are %d/%d", adv, lsb)
	}
	if adv, _ = otf.HMtx.HMetrics(gCount); adv != 0 {
		t.Errorf("expected advance of non-existent glyph to be 0, is %d", adv)
	}
	if bbox := otf.Glyf.BBox(gA); bbox.XMax != 590 || bbox.YMax != 700 {
		t.Errorf("expected bounding box of 'A' to end at (590,700), is %v", bbox)
	}
	if bbox := otf.Glyf.BBox(gSpace); bbox != (BBox{}) {
		t.Errorf("expected empty bounding box for space, is %v", bbox)
	}
}

func TestNameRecords(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	otf := parseFixture(t, testFont())
	require.Len(t, otf.Name.Records, 4)
	for i, id := range []uint16{1, 2, 4, 6} {
		nr := otf.Name.Records[i]
		assert.Equal(t, uint16(3), nr.PlatformID)
		assert.Equal(t, uint16(1), nr.EncodingID)
		assert.Equal(t, uint16(0x409), nr.LanguageID)
		assert.Equal(t, id, nr.NameID)
	}
	assert.Equal(t, "Fixture Regular", otf.Name.Lookup(NameFullName))
}

func TestCMapLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	otf := parseFixture(t, testFont())
	cmap := otf.CMap.GlyphIndexMap
	for r, g := range map[rune]GlyphIndex{'A': gA, 'V': gV, 'a': ga, ' ': gSpace, 0x301: gAcute} {
		if x := cmap.Lookup(r); x != g {
			t.Errorf("expected %q to map to glyph %d, is %d", r, g, x)
		}
	}
	if x := cmap.Lookup('Z'); x != 0 {
		t.Errorf("expected unmapped 'Z' to map to .notdef, is %d", x)
	}
	if x := cmap.Lookup(0x1F600); x != 0 {
		t.Errorf("expected code-point outside BMP to map to .notdef, is %d", x)
	}
	if r := cmap.ReverseLookup(gV); r != 'V' {
		t.Errorf("expected glyph %d to be 'V', is %q", gV, r)
	}
	if r := cmap.ReverseLookup(gfi); r != 0 {
		t.Errorf("expected ligature glyph to have no code-point, has %q", r)
	}
}

func TestPostNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	otf := parseFixture(t, testFont())
	names := otf.Post.GlyphNames()
	require.Len(t, names, gCount)
	assert.Equal(t, ".notdef", names[gNotdef])
	assert.Equal(t, "f_i", names[gfi])
	g, ok := otf.Post.GlyphByName("a.smcp")
	assert.True(t, ok)
	assert.Equal(t, GlyphIndex(gaSmcp), g)
	_, ok = otf.Post.GlyphByName("b.smcp")
	assert.False(t, ok)
	_, ok = otf.Post.GlyphName(gCount)
	assert.False(t, ok)
	assert.Equal(t, int16(-100), otf.Post.UnderlinePosition)
}

func TestOS2Heights(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	f := testFont()
	f.XHeight, f.CapHeight = 480, 690
	otf := parseFixture(t, f)
	assert.True(t, otf.OS2.HasXHeight)
	assert.Equal(t, int16(480), otf.OS2.XHeight)
	assert.Equal(t, int16(690), otf.OS2.CapHeight)
	//
	f = testFont()
	f.OS2Version = 1
	otf = parseFixture(t, f)
	assert.False(t, otf.OS2.HasXHeight)
	assert.Equal(t, int16(500), otf.OS2.XHeight) // half an em
	assert.Equal(t, int16(700), otf.OS2.CapHeight)
	assert.Equal(t, int16(800), otf.OS2.TypoAscender)
}

func TestKernTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	otf := parseFixture(t, testFont())
	require.NotNil(t, otf.Kern)
	assert.Equal(t, 1, otf.Kern.Len())
	k, ok := otf.Kern.Kerning(gA, gV)
	assert.True(t, ok)
	assert.Equal(t, int16(-50), k)
	_, ok = otf.Kern.Kerning(gV, gA)
	assert.False(t, ok)
}

func TestMalformedFonts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	for name, tables := range map[string]map[string][]byte{
		"missing OS/2":     {"OS/2": nil},
		"missing cmap":     {"cmap": nil},
		"CFF and glyf":     {"CFF ": {1, 0, 4, 1}},
		"no outlines":      {"loca": nil, "glyf": nil},
		"truncated head":   {"head": make([]byte, 20)},
		"no h-metrics":     {"hhea": make([]byte, 36)},
		"post version 4.0": {"post": append([]byte{0, 4, 0, 0}, make([]byte, 28)...)},
	} {
		f := testFont()
		f.Tables = tables
		_, err := Parse(f.Bytes())
		if err == nil {
			t.Errorf("%s: expected error, font has been accepted", name)
			continue
		}
		if !assert.Equal(t, core.EFORMAT, core.Code(err), name) {
			t.Logf("%s: error is %v", name, err)
		}
	}
}

func TestChecksumMismatch(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	data := testFont().Bytes()
	off, _, ok := ottest.TableRange(data, "hmtx")
	require.True(t, ok)
	data[off+1] ^= 0x01
	_, err := Parse(data)
	require.Error(t, err)
	assert.Equal(t, core.EFORMAT, core.Code(err))
	//
	data = testFont().Bytes()
	off, _, _ = ottest.TableRange(data, "head")
	data[off+8] ^= 0xff // checkSumAdjustment does not take part in the checksum
	_, err = Parse(data)
	assert.NoError(t, err)
}

func TestTruncatedFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	data := testFont().Bytes()
	for _, n := range []int{0, 3, 11, 40, len(data) / 2} {
		if _, err := Parse(data[:n]); core.Code(err) != core.EFORMAT {
			t.Errorf("expected font truncated to %d bytes to be rejected, error is %v", n, err)
		}
	}
}
