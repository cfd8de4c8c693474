package resources

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/fontregistry"
	"github.com/npillmayer/schuko"
)

// GoogleListURL is the Google Fonts endpoint listing the files of a family.
// The family name replaces the '%s' verb.
const GoogleListURL = "https://fonts.google.com/download/list?family=%s"

// Cache is a local directory holding font families, one sub-directory per
// family. Caches are safe for concurrent use.
type Cache struct {
	dir     string
	client  *http.Client
	listURL string
	fclist  string // absolute path of the fontconfig 'fc-list' binary, if any
	//
	mu        sync.Mutex
	typefaces map[string]*font.Typeface
	fc        struct {
		once  sync.Once
		descs []fontregistry.Descriptor
	}
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithHTTPClient sets the client for downloads (default http.DefaultClient).
func WithHTTPClient(client *http.Client) CacheOption {
	return func(c *Cache) {
		c.client = client
	}
}

// WithListURL replaces GoogleListURL.
func WithListURL(u string) CacheOption {
	return func(c *Cache) {
		c.listURL = u
	}
}

// WithFontConfig sets the path of the fontconfig 'fc-list' binary.
func WithFontConfig(fclist string) CacheOption {
	return func(c *Cache) {
		c.fclist = fclist
	}
}

// NewCache creates a cache in dir. Non-existing folders will be created as
// necessary (with permissions 755).
func NewCache(dir string, opts ...CacheOption) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "cannot create font cache directory %s", dir)
	}
	c := &Cache{
		dir:       dir,
		client:    http.DefaultClient,
		listURL:   GoogleListURL,
		typefaces: make(map[string]*font.Typeface),
	}
	for _, opt := range opts {
		opt(c)
	}
	tracer().Infof("caching fonts in %s", dir)
	return c, nil
}

// CacheFromConfig creates a cache from an application configuration.
// If key `font-cache-dir` is set, it names the cache directory. Otherwise the
// base cache directory is taken from `os.UserCacheDir()`, plus an application
// specific key, taken as `app-key` from the configuration, plus "fonts".
// Key `fontconfig` may point to the 'fc-list' binary.
func CacheFromConfig(conf schuko.Configuration, opts ...CacheOption) (*Cache, error) {
	dir := conf.GetString("font-cache-dir")
	if dir == "" {
		appkey := conf.GetString("app-key")
		tracer().Debugf("config[app-key] = %s", appkey)
		if appkey == "" {
			return nil, core.Error(core.EMISSING, "application key is not set")
		}
		cachedir, err := os.UserCacheDir()
		if err != nil {
			return nil, core.WrapError(err, core.EMISSING, "user cache directory not set")
		}
		dir = filepath.Join(cachedir, appkey, "fonts")
	}
	if fc := conf.GetString("fontconfig"); fc != "" {
		opts = append([]CacheOption{WithFontConfig(fc)}, opts...)
	}
	return NewCache(dir, opts...)
}

// Dir returns the cache's directory.
func (c *Cache) Dir() string {
	return c.dir
}

// FamilyPath returns the directory for a font family within the cache.
// The directory may not exist.
func (c *Cache) FamilyPath(name string) string {
	return filepath.Join(c.dir, name)
}

// Installed returns the names of all families present in the cache.
func (c *Cache) Installed() []string {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		tracer().Errorf("cannot read font cache: %v", err)
		return nil
	}
	var families []string
	for _, e := range entries {
		if e.IsDir() {
			families = append(families, e.Name())
		}
	}
	sort.Strings(families)
	return families
}

func (c *Cache) isInstalled(name string) bool {
	fi, err := os.Stat(c.FamilyPath(name))
	return err == nil && fi.IsDir()
}

// DownloadFile will download a url to a local file (usually located in the
// cache directory). Parent folders are created as necessary.
// Resources reported as forbidden or not found are skipped without error.
func (c *Cache) DownloadFile(ctx context.Context, path string, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.WrapError(err, core.EINVALID, "invalid download URL %s", url)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return core.WrapError(err, core.ECONNECTION, "cannot download %s", url)
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusForbidden:
		tracer().Infof("skipping %s: %s", url, resp.Status)
		return nil
	default:
		return core.Error(core.ECONNECTION, "cannot download %s: %s", url, resp.Status)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return core.WrapError(err, core.EINVALID, "cannot create directory for %s", path)
	}
	out, err := os.Create(path)
	if err != nil {
		return core.WrapError(err, core.EINVALID, "cannot create %s", path)
	}
	defer out.Close()
	_, err = io.Copy(out, resp.Body)
	return err
}
