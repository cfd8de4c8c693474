package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype"
)

// GoogleFamily is the download list of a font family, as delivered by
// Google Fonts.
type GoogleFamily struct {
	Manifest struct {
		Files    []GoogleFile    `json:"files"`
		FileRefs []GoogleFileRef `json:"fileRefs"`
	} `json:"manifest"`
}

// GoogleFile is a (text) file delivered inline, e.g. a license.
type GoogleFile struct {
	Filename string `json:"filename"`
	Contents string `json:"contents"`
}

// GoogleFileRef is a file to download, e.g. a font file.
type GoogleFileRef struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// xssiPrefix is prepended to JSON responses of Google Fonts: ")]}'\n".
const xssiPrefix = 5

// InstallGoogleFamily downloads a font family from Google Fonts into the cache
// and returns the family's directory. Family names are case-sensitive.
// If Google Fonts does not know the family, an error with code
// core.EMISSING is returned.
func (c *Cache) InstallGoogleFamily(ctx context.Context, name string) (string, error) {
	family, err := c.fetchGoogleFamily(ctx, name)
	if err != nil {
		return "", err
	}
	dir := c.FamilyPath(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", core.WrapError(err, core.EINVALID, "cannot create directory for family %s", name)
	}
	for _, f := range family.Manifest.Files {
		if !filepath.IsLocal(f.Filename) {
			tracer().Errorf("skipping suspicious file name %q in family %s", f.Filename, name)
			continue
		}
		path := filepath.Join(dir, f.Filename)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return dir, core.WrapError(err, core.EINVALID, "cannot create directory for %s", path)
		}
		if err := os.WriteFile(path, []byte(f.Contents), 0644); err != nil {
			return dir, core.WrapError(err, core.EINVALID, "cannot write %s", path)
		}
	}
	for _, ref := range family.Manifest.FileRefs {
		if !filepath.IsLocal(ref.Filename) {
			tracer().Errorf("skipping suspicious file name %q in family %s", ref.Filename, name)
			continue
		}
		tracer().Infof("downloading %s", ref.Filename)
		if err := c.DownloadFile(ctx, filepath.Join(dir, ref.Filename), ref.URL); err != nil {
			return dir, err
		}
	}
	return dir, nil
}

func (c *Cache) fetchGoogleFamily(ctx context.Context, name string) (*GoogleFamily, error) {
	listURL := fmt.Sprintf(c.listURL, url.PathEscape(name))
	tracer().Infof("typeface %s is not installed; searching Google Fonts", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, core.WrapError(err, core.EINVALID, "invalid Google Fonts URL %s", listURL)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, core.WrapError(err, core.ECONNECTION, "cannot reach Google Fonts")
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, core.Error(core.EMISSING,
			"Google Fonts has no family %s (names are case-sensitive)", name)
	default:
		return nil, core.Error(core.ECONNECTION, "Google Fonts request not OK: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.WrapError(err, core.ECONNECTION, "cannot read Google Fonts response")
	}
	if len(body) < xssiPrefix {
		return nil, core.Error(core.EINVALID, "Google Fonts response too short")
	}
	family := &GoogleFamily{}
	if err := json.Unmarshal(body[xssiPrefix:], family); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot decode file list for family %s", name)
	}
	return family, nil
}

// StaticFontFiles lists the font files (.ttf, .otf) of a cached family.
// If the family contains a 'static' folder, only files below that folder are
// considered; families often place variable fonts at the top level.
func (c *Cache) StaticFontFiles(family string) ([]string, error) {
	dir := c.FamilyPath(family)
	if fi, err := os.Stat(filepath.Join(dir, "static")); err == nil && fi.IsDir() {
		dir = filepath.Join(dir, "static")
	}
	var ttf, otf []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".ttf":
			ttf = append(ttf, path)
		case ".otf":
			otf = append(otf, path)
		}
		return nil
	})
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot list fonts of family %s", family)
	}
	return append(ttf, otf...), nil
}

// GoogleTypeface returns a typeface for a Google Fonts family. If the family
// is not present in the cache, it will be installed first.
// Typefaces are loaded once per cache.
func (c *Cache) GoogleTypeface(ctx context.Context, name string) (*font.Typeface, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tf, ok := c.typefaces[name]; ok {
		return tf, nil
	}
	if !c.isInstalled(name) {
		if _, err := c.InstallGoogleFamily(ctx, name); err != nil {
			return nil, err
		}
	}
	paths, err := c.StaticFontFiles(name)
	if err != nil {
		return nil, err
	}
	fonts := make([]font.Font, 0, len(paths))
	styles := make(map[font.Style]bool)
	for _, path := range paths {
		f, err := opentype.Load(path)
		if err != nil {
			tracer().Errorf("skipping font %s: %v", path, err)
			continue
		}
		if styles[f.Style()] {
			tracer().Infof("skipping font %s: duplicate style %s", path, f.Style())
			continue
		}
		styles[f.Style()] = true
		fonts = append(fonts, f)
	}
	if len(fonts) == 0 {
		return nil, core.Error(core.EMISSING, "family %s contains no usable fonts", name)
	}
	tf, err := font.NewTypeface(name, fonts...)
	if err != nil {
		return nil, err
	}
	c.typefaces[name] = tf
	return tf, nil
}
