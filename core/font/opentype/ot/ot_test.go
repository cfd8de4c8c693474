package ot

import (
	"testing"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font/opentype/ot/ottest"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

func TestLookupRecordTypeString(t *testing.T) {
	if GSubLookupTypeChainingContext.GSubString() != "Chaining" {
		t.Errorf("expected GSubLookupTypeChainingContext to have string 'Chaining', has %s",
			GSubLookupTypeChainingContext.GSubString())
	}
	if GSubLookupTypeReverseChaining.GSubString() != "Reverse" {
		t.Errorf("expected GSubLookupTypeReverseChaining to have string 'Reverse', has %s",
			GSubLookupTypeReverseChaining.GSubString())
	}
	if GPosLookupTypeMarkToLigature.GPosString() != "MarkToLigature" {
		t.Errorf("expected GPosLookupTypeMarkToLigature to have string 'MarkToLigature', has %s",
			GPosLookupTypeMarkToLigature.GPosString())
	}
	if GPosLookupTypeExtensionPos.GPosString() != "Ext" {
		t.Errorf("expected GPosLookupTypeExtensionPos to have string 'Ext', has %s",
			GPosLookupTypeExtensionPos.GPosString())
	}
	if LayoutTableLookupType(42).GPosString() != "42" {
		t.Errorf("expected illegal lookup type to print as number")
	}
}

func TestTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	tag := Tag(0x636d6170)
	if tag.String() != "cmap" {
		t.Errorf("expected tag 0x636d6170 to be 'cmap', is %s", tag.String())
	}
	tag = MakeTag([]byte("cmap"))
	if tag.String() != "cmap" {
		t.Errorf("expected tag MakeTag(cmap) to be 'cmap', is %s", tag.String())
	}
	tag = T("cmap")
	if tag.String() != "cmap" {
		t.Errorf("expected tag T(cmap) to be 'cmap', is %s", tag.String())
	}
	if T("CFF") != T("CFF ") {
		t.Errorf("expected short tags to be padded with spaces")
	}
}

func TestTableName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	tb := tableBase{}
	tb.name = 0x636d6170
	s := tb.Self().NameTag().String()
	if s != "cmap" {
		t.Errorf("expected table name to be cmap, is %v", s)
	}
}

func TestChecksum(t *testing.T) {
	data := []byte{0, 0, 0, 1, 0, 0, 0, 2, 0xff}
	if sum := TableChecksum(T("test"), data); sum != 3+0xff000000 {
		t.Errorf("expected checksum to be ff000003, is %x", sum)
	}
	head := []byte{0, 0, 0, 1, 0, 0, 0, 2, 0xab, 0xcd, 0xef, 0x01, 0, 0, 0, 4}
	if sum := TableChecksum(T("head"), head); sum != 7 {
		t.Errorf("expected head checksum to skip checkSumAdjustment, is %x", sum)
	}
	if sum := ottest.Checksum("head", head); sum != 7 {
		t.Errorf("expected fixture checksum to agree, is %x", sum)
	}
}

// Go Regular is decoded by golang.org/x/image/font/sfnt as well; both decoders
// have to agree.
func TestGoRegular(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	otf, err := Parse(goregular.TTF)
	if err != nil {
		core.UserError(err)
		t.Fatal(err)
	}
	sf, err := sfnt.Parse(goregular.TTF)
	require.NoError(t, err)
	var buf sfnt.Buffer
	//
	assert.Equal(t, uint32(0x00010000), otf.Header.FontType)
	assert.Equal(t, 14, len(otf.TableTags()))
	assert.Equal(t, sf.NumGlyphs(), otf.NumGlyphs())
	assert.Equal(t, uint16(sf.UnitsPerEm()), otf.Head.UnitsPerEm)
	assert.Equal(t, uint16(2048), otf.Head.UnitsPerEm)
	assert.Equal(t, "(-440,-543,2160,2291)", otf.Head.BBox.String())
	assert.Equal(t, 711, otf.HHea.NumberOfHMetrics)
	assert.Nil(t, otf.Kern)
	assert.Nil(t, otf.Layout.GSub)
	assert.Nil(t, otf.Layout.GPos)
	assert.Nil(t, otf.CFF)
	//
	family, _ := sf.Name(&buf, sfnt.NameIDFamily)
	assert.Equal(t, family, otf.Name.FamilyName())
	assert.Equal(t, "Go", otf.Name.FamilyName())
	assert.Equal(t, "Regular", otf.Name.SubfamilyName())
	assert.Equal(t, "GoRegular", otf.Name.PostScriptName())
	assert.Equal(t, "Go Regular", otf.Name.Lookup(NameFullName))
	//
	ppem := fixed.I(int(otf.Head.UnitsPerEm))
	for _, r := range "AVaf fi?" {
		gid, err := sf.GlyphIndex(&buf, r)
		require.NoError(t, err)
		g := otf.CMap.GlyphIndexMap.Lookup(r)
		if g != GlyphIndex(gid) {
			t.Errorf("expected glyph index of %q to be %d, is %d", r, gid, g)
		}
		adv, err := sf.GlyphAdvance(&buf, gid, ppem, font.HintingNone)
		require.NoError(t, err)
		w, _ := otf.HMtx.HMetrics(g)
		if fixed.I(int(w)) != adv {
			t.Errorf("expected advance of %q to be %d, is %d", r, adv.Round(), w)
		}
	}
	assert.Equal(t, GlyphIndex(36), otf.CMap.GlyphIndexMap.Lookup('A'))
	assert.Equal(t, 'A', otf.CMap.GlyphIndexMap.ReverseLookup(36))
	w, _ := otf.HMtx.HMetrics(711) // beyond numberOfHMetrics
	assert.Equal(t, uint16(1139), w)
	//
	name, ok := otf.Post.GlyphName(707)
	assert.True(t, ok)
	assert.Equal(t, "uniFB01", name)
	name, _ = otf.Post.GlyphName(36)
	assert.Equal(t, "A", name)
	g, ok := otf.Post.GlyphByName("zero.empty")
	assert.True(t, ok)
	assert.Equal(t, GlyphIndex(711), g)
	//
	assert.Equal(t, uint16(400), otf.OS2.WeightClass)
	assert.Equal(t, uint16(5), otf.OS2.WidthClass)
	assert.Equal(t, int16(1086), otf.OS2.XHeight)
	assert.Equal(t, int16(1480), otf.OS2.CapHeight)
	assert.True(t, otf.OS2.HasXHeight)
	assert.Equal(t, int16(-275), otf.Post.UnderlinePosition)
	assert.Equal(t, 0.0, otf.Post.ItalicAngle)
	assert.False(t, otf.Post.IsFixedPitch)
	//
	bbox := otf.Glyf.BBox(36)
	if bbox.XMin >= bbox.XMax || bbox.YMin >= bbox.YMax {
		t.Errorf("expected 'A' to have a non-empty bounding box, is %v", bbox)
	}
	if bbox.XMax > otf.Head.BBox.XMax || bbox.YMin < otf.Head.BBox.YMin {
		t.Errorf("expected bounding box of 'A' to lie within font bounding box, is %v", bbox)
	}
	if space := otf.Glyf.BBox(3); space != (BBox{}) {
		t.Errorf("expected space to have an empty bounding box, is %v", space)
	}
}

func TestTableAccess(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	otf, err := Parse(goregular.TTF)
	require.NoError(t, err)
	if otf.Table(T("OS/2")).Self().AsOS2() != otf.OS2 {
		t.Errorf("expected OS/2 table to be accessible by tag")
	}
	if otf.Table(T("head")).Self().AsOS2() != nil {
		t.Errorf("expected head table not to convert to OS/2")
	}
	fpgm := otf.Table(T("fpgm"))
	if fpgm == nil {
		t.Fatalf("expected generic table for fpgm")
	}
	if fpgm.Self().NameTag() != T("fpgm") {
		t.Errorf("expected generic table to know its tag, is %s", fpgm.Self().NameTag())
	}
	off, size := fpgm.Extent()
	if int(size) != len(fpgm.Binary()) || off == 0 {
		t.Errorf("expected extent of fpgm to match its binary, is %d/%d", off, size)
	}
	if TableChecksum(T("fpgm"), fpgm.Binary()) != fpgm.Checksum() {
		t.Errorf("expected declared checksum to match")
	}
	if otf.Table(T("GSUB")) != nil {
		t.Errorf("expected Go Regular to have no GSUB table")
	}
}

func TestCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.fonts")
	defer teardown()
	//
	fixture := testFont()
	ttc := ottest.Collection(goregular.TTF, fixture.Bytes())
	fonts, err := ParseCollection(ttc)
	require.NoError(t, err)
	require.Len(t, fonts, 2)
	assert.Equal(t, "Go", fonts[0].Name.FamilyName())
	assert.Equal(t, "Fixture", fonts[1].Name.FamilyName())
	//
	_, err = Parse(ttc)
	if core.Code(err) != core.EFORMAT {
		t.Errorf("expected Parse to reject collections, error is %v", err)
	}
	fonts, err = ParseCollection(goregular.TTF)
	require.NoError(t, err)
	assert.Len(t, fonts, 1)
}
