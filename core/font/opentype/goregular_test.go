package opentype

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/text/language"
)

type GoRegularTestSuite struct {
	suite.Suite
	font     *Font
	warnings int
	teardown func()
}

func TestGoRegular(t *testing.T) {
	suite.Run(t, new(GoRegularTestSuite))
}

func (s *GoRegularTestSuite) SetupSuite() {
	s.teardown = gotestingadapter.QuickConfig(s.T(), "fontloom.fonts")
	path := filepath.Join(s.T().TempDir(), "Go-Regular.ttf")
	s.Require().NoError(os.WriteFile(path, goregular.TTF, 0o644))
	f, err := Load(path)
	s.Require().NoError(err)
	s.Equal(path, f.Path)
	f.SetWarningHandler(func(string) { s.warnings++ })
	s.font = f
}

func (s *GoRegularTestSuite) TearDownSuite() {
	s.teardown()
}

func (s *GoRegularTestSuite) SetupTest() {
	s.warnings = 0
}

func (s *GoRegularTestSuite) TestNames() {
	s.Equal("GoRegular", s.font.Name())
	s.Equal(2048, s.font.UnitsPerEm())
	s.Equal("TrueType", s.font.FontType())
	s.Empty(s.font.LayoutTables())
	s.Equal("Go", s.font.NameInfo(language.English)["family"])
}

func (s *GoRegularTestSuite) TestMetrics() {
	m := s.font.Metrics()
	s.Equal(1579.0, m.Ascender)
	s.Equal(-395.0, m.Descender)
	s.Equal(393.0, m.LineGap)
	s.Equal(1086.0, m.XHeight)
	s.Equal(1480.0, m.CapHeight)
	s.Equal(font.BBox{XMin: -440, YMin: -543, XMax: 2160, YMax: 2291}, m.BBox)
	s.Equal(font.RegularStyle, s.font.Style())
}

func (s *GoRegularTestSuite) TestGlyphs() {
	A, err := s.font.Glyph('A', font.VariantNormal)
	s.Require().NoError(err)
	s.Equal("A", A.Name)
	s.Equal(1366.0, A.Width)
	s.Equal(36, A.Code)
	V, err := s.font.Glyph('V', font.VariantNormal)
	s.Require().NoError(err)
	s.Equal(0.0, s.font.Kerning(A, V))
	f, _ := s.font.Glyph('f', font.VariantNormal)
	i, _ := s.font.Glyph('i', font.VariantNormal)
	_, ok := s.font.Ligature(f, i)
	s.False(ok)
	s.Equal(0, s.warnings)
}

func (s *GoRegularTestSuite) TestMissingVariants() {
	g, err := s.font.Glyph('A', font.VariantSmallCapital)
	s.Require().NoError(err)
	s.Equal(36, g.Code)
	s.Equal(1, s.warnings)
	_, err = s.font.Glyph('0', font.VariantOldstyleFigures)
	s.Require().NoError(err)
	s.Equal(2, s.warnings)
}

func (s *GoRegularTestSuite) TestMissingGlyph() {
	_, err := s.font.Glyph('一', font.VariantNormal)
	s.True(font.IsMissingGlyph(err))
	s.Equal(core.EMISSING, core.Code(err))
}
