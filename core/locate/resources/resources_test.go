package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/fontregistry"
	"github.com/npillmayer/fontloom/core/font/opentype/ot/ottest"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func fixtureBytes(subfamily string, weight uint16) []byte {
	fx := &ottest.Font{
		Family:    "Fixture Sans",
		Subfamily: subfamily,
		Weight:    weight,
		Glyphs: []ottest.Glyph{
			{Name: ".notdef", Advance: 500},
			{Name: "A", Rune: 'A', Advance: 600},
		},
	}
	return fx.Bytes()
}

// googleFonts simulates the Google Fonts download list for a single family.
func googleFonts(t *testing.T) (*httptest.Server, *atomic.Int32) {
	downloads := &atomic.Int32{}
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("family") != "Fixture Sans" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		family := GoogleFamily{}
		family.Manifest.Files = []GoogleFile{{Filename: "OFL.txt", Contents: "Open Font License"}}
		family.Manifest.FileRefs = []GoogleFileRef{
			{Filename: "FixtureSans[wght].ttf", URL: srv.URL + "/files/variable"},
			{Filename: "static/FixtureSans-Regular.ttf", URL: srv.URL + "/files/regular"},
			{Filename: "static/FixtureSans-Bold.ttf", URL: srv.URL + "/files/bold"},
			{Filename: "static/FixtureSans-Thin.ttf", URL: srv.URL + "/files/thin"},
			{Filename: "../escape.ttf", URL: srv.URL + "/files/regular"},
		}
		data, _ := json.Marshal(family)
		w.Write([]byte(")]}'\n"))
		w.Write(data)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		downloads.Add(1)
		switch strings.TrimPrefix(r.URL.Path, "/files/") {
		case "variable", "regular":
			w.Write(fixtureBytes("Regular", 400))
		case "bold":
			w.Write(fixtureBytes("Bold", 700))
		default:
			http.NotFound(w, r)
		}
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, downloads
}

func TestCacheFromConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.resources")
	defer teardown()
	//
	dir := filepath.Join(t.TempDir(), "fonts")
	c, err := CacheFromConfig(testconfig.Conf{
		"app-key":        "fontloom-test",
		"font-cache-dir": dir,
	})
	require.NoError(t, err)
	assert.Equal(t, dir, c.Dir())
	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())
	assert.Equal(t, filepath.Join(dir, "Fixture Sans"), c.FamilyPath("Fixture Sans"))
	assert.Empty(t, c.Installed())
	//
	_, err = CacheFromConfig(testconfig.Conf{})
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestInstallGoogleFamily(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.resources")
	defer teardown()
	//
	srv, downloads := googleFonts(t)
	c, err := NewCache(t.TempDir(), WithListURL(srv.URL+"/list?family=%s"))
	require.NoError(t, err)
	dir, err := c.InstallGoogleFamily(context.Background(), "Fixture Sans")
	require.NoError(t, err)
	assert.Equal(t, c.FamilyPath("Fixture Sans"), dir)
	assert.Equal(t, []string{"Fixture Sans"}, c.Installed())
	license, err := os.ReadFile(filepath.Join(dir, "OFL.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Open Font License", string(license))
	assert.Equal(t, int32(4), downloads.Load(), "escaping file name must not be downloaded")
	_, err = os.Stat(filepath.Join(dir, "static", "FixtureSans-Thin.ttf"))
	assert.True(t, os.IsNotExist(err), "file not found must be skipped")
	//
	files, err := c.StaticFontFiles("Fixture Sans")
	require.NoError(t, err)
	require.Len(t, files, 2)
	for _, f := range files {
		assert.Equal(t, "static", filepath.Base(filepath.Dir(f)))
	}
	//
	_, err = c.InstallGoogleFamily(context.Background(), "fixture sans")
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestGoogleTypeface(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.resources")
	defer teardown()
	//
	srv, downloads := googleFonts(t)
	c, err := NewCache(t.TempDir(), WithListURL(srv.URL+"/list?family=%s"))
	require.NoError(t, err)
	tf, err := c.GoogleTypeface(context.Background(), "Fixture Sans")
	require.NoError(t, err)
	assert.Equal(t, 2, tf.Len())
	bold := tf.Font(font.WeightBold, font.SlantUpright, font.WidthNormal)
	assert.Equal(t, font.WeightBold, bold.Style().Weight)
	n := downloads.Load()
	tf2, err := c.GoogleTypeface(context.Background(), "Fixture Sans")
	require.NoError(t, err)
	assert.Same(t, tf, tf2)
	assert.Equal(t, n, downloads.Load())
	//
	_, err = c.GoogleTypeface(context.Background(), "Unknown Sans")
	assert.Equal(t, core.EMISSING, core.Code(err))
}

func TestParseFontConfigList(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.resources")
	defer teardown()
	//
	list := `
/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf: DejaVu Sans:style=Book
/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf: DejaVu Sans:style=Bold
/usr/share/fonts/truetype/dejavu/DejaVuSans-BoldOblique.ttf: DejaVu Sans:style=Bold Oblique
/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc: Noto Sans CJK JP,Noto Sans CJK JP Regular:style=Regular
/usr/share/fonts/truetype/lato/Lato-SemiboldItalic.ttf: Lato,Lato Semibold:style=Semibold Italic,Italic
broken line
`
	descs, err := ParseFontConfigList(strings.NewReader(list))
	require.NoError(t, err)
	require.Len(t, descs, 4)
	assert.Equal(t, []string{"regular"}, descs[0].Variants)
	assert.Equal(t, []string{"700"}, descs[1].Variants)
	assert.Equal(t, []string{"700italic"}, descs[2].Variants)
	assert.Equal(t, "Lato", descs[3].Family)
	assert.Equal(t, []string{"600italic"}, descs[3].Variants)
	//
	d, v, conf := fontregistry.ClosestMatch(descs, "dejavu",
		font.Style{Weight: font.WeightBold, Slant: font.SlantOblique})
	assert.Equal(t, "/usr/share/fonts/truetype/dejavu/DejaVuSans-BoldOblique.ttf", d.Path)
	assert.Equal(t, "700italic", v)
	assert.Equal(t, fontregistry.HighConfidence, conf)
}

func TestFontConfigFontFromCachedList(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.resources")
	defer teardown()
	//
	c, err := NewCache(t.TempDir())
	require.NoError(t, err)
	list := "/fonts/Go-Bold.ttf: Go:style=Bold\n/fonts/Go-Regular.ttf: Go:style=Regular\n"
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), fontConfigList), []byte(list), 0644))
	d, v := c.FontConfigFont("go", font.RegularStyle)
	assert.Equal(t, "/fonts/Go-Regular.ttf", d.Path)
	assert.Equal(t, "regular", v)
	d, _ = c.FontConfigFont("garamond", font.RegularStyle)
	assert.Equal(t, "", d.Path)
	//
	c, err = NewCache(t.TempDir())
	require.NoError(t, err)
	d, _ = c.FontConfigFont("go", font.RegularStyle)
	assert.Equal(t, "", d.Path, "fontconfig is not configured")
}

func TestLoadFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.resources")
	defer teardown()
	//
	dir := t.TempDir()
	path := filepath.Join(dir, "Go-Regular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))
	f, err := LoadFont(path)
	require.NoError(t, err)
	assert.Equal(t, "GoRegular", f.Name())
	//
	_, err = LoadFont(filepath.Join(dir, "missing.afm"))
	assert.Equal(t, core.EMISSING, core.Code(err))
	_, err = LoadFont(filepath.Join(dir, "font.woff2"))
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestResolveTypeface(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontloom.resources")
	defer teardown()
	//
	srv, _ := googleFonts(t)
	c, err := NewCache(t.TempDir(), WithListURL(srv.URL+"/list?family=%s"))
	require.NoError(t, err)
	fr := fontregistry.NewRegistry()
	promise := ResolveTypeface(context.Background(), fr, c, "Fixture Sans", font.RegularStyle)
	tf, err := promise.Typeface()
	require.NoError(t, err)
	assert.Equal(t, 2, tf.Len())
	assert.Equal(t, []string{"fixture_sans"}, fr.Names())
	//
	promise = ResolveTypeface(context.Background(), fr, nil, "Nonexisting Fixture Serif", font.RegularStyle)
	tf, err = promise.Typeface()
	assert.Equal(t, core.EMISSING, core.Code(err))
	require.NotNil(t, tf)
	assert.Equal(t, "fallback", tf.Name())
}
