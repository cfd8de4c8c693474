package resources

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/flopp/go-findfont"
	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/fontregistry"
	"github.com/npillmayer/fontloom/core/font/opentype"
	"github.com/npillmayer/fontloom/core/font/type1"
)

// NotFound returns an application error for a missing font.
func NotFound(name string) error {
	return core.Error(core.EMISSING, "font not found: %s", name)
}

// LoadFont loads a font file, selecting the font format by file extension:
// OpenType and TrueType fonts (.otf, .ttf, .ttc, .otc) or Type 1 fonts (.afm,
// with the font program in a .pfb or .pfa file of the same base name).
func LoadFont(path string) (font.Font, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".otf", ".ttf", ".ttc", ".otc":
		return opentype.Load(path)
	case ".afm", ".pfb", ".pfa":
		return type1.Load(strings.TrimSuffix(path, filepath.Ext(path)))
	}
	return nil, core.Error(core.EINVALID, "unknown font file type: %s", path)
}

// FindSystemFont searches the platform's font directories for a font file.
// name is a file name, with or without extension, e.g. "DejaVuSans-Bold".
func FindSystemFont(name string) (string, error) {
	path, err := findfont.Find(name)
	if err != nil || path == "" {
		return "", core.WrapError(err, core.EMISSING, "no system font %s", name)
	}
	tracer().Debugf("%s is a system font: %s", name, path)
	return path, nil
}

// --- Fonts -----------------------------------------------------------------

type typefacePlusErr struct {
	typeface *font.Typeface
	err      error
}

// TypefacePromise delivers a typeface once it has been loaded.
type TypefacePromise interface {
	Typeface() (*font.Typeface, error)
	Await(ctx context.Context) (*font.Typeface, error)
}

type typefaceLoader struct {
	await func(ctx context.Context) (*font.Typeface, error)
}

func (loader typefaceLoader) Typeface() (*font.Typeface, error) {
	return loader.await(context.Background())
}

func (loader typefaceLoader) Await(ctx context.Context) (*font.Typeface, error) {
	return loader.await(ctx)
}

// ResolveTypeface resolves a typeface by name. Sources are searched in turn:
//
//   - the registry
//   - fonts installed on the system
//   - fonts listed by fontconfig (if configured for the cache)
//   - Google Fonts, downloading the family into the cache
//
// Fonts found are stored in the registry. cache may be nil, which skips the
// last two sources. If the typeface cannot be found, the promise delivers the
// registry's fallback typeface together with an error.
func ResolveTypeface(ctx context.Context, fr *fontregistry.Registry, cache *Cache, name string,
	style font.Style) TypefacePromise {
	//
	ch := make(chan typefacePlusErr, 1)
	go func(ch chan<- typefacePlusErr) {
		result := typefacePlusErr{}
		result.typeface, result.err = resolveTypeface(ctx, fr, cache, name, style)
		ch <- result
		close(ch)
	}(ch)
	return typefaceLoader{
		await: func(ctx context.Context) (*font.Typeface, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case r := <-ch:
				return r.typeface, r.err
			}
		},
	}
}

func resolveTypeface(ctx context.Context, fr *fontregistry.Registry, cache *Cache, name string,
	style font.Style) (*font.Typeface, error) {
	//
	if tf, err := fr.Typeface(name); err == nil {
		return tf, nil
	}
	if path, err := FindSystemFont(name); err == nil {
		if f, err := LoadFont(path); err == nil {
			fr.StoreFont(name, f)
			return fr.Typeface(name)
		}
	}
	if cache != nil {
		if desc, _ := cache.FontConfigFont(name, style); desc.Path != "" {
			tracer().Debugf("found %s as fontconfig font %s", name, desc.Path)
			if f, err := LoadFont(desc.Path); err == nil {
				fr.StoreFont(name, f)
				return fr.Typeface(name)
			}
		}
		tf, err := cache.GoogleTypeface(ctx, name)
		if err == nil {
			for _, s := range tf.Styles() {
				fr.StoreFont(name, tf.StyledFont(s))
			}
			return fr.Typeface(name)
		}
		tracer().Infof("cannot resolve %s from Google Fonts: %v", name, err)
	}
	tf, _ := fr.Typeface(name)
	return tf, NotFound(name)
}
