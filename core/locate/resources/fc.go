package resources

import (
	"bufio"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/fontregistry"
)

const fontConfigList = "fontlist.txt"

// FontConfigFont searches for a locally installed font variant using the fontconfig
// system (https://www.freedesktop.org/wiki/Software/fontconfig/).
// fontconfig has to be configured for the cache by setting the absolute path
// of the 'fc-list' binary (see WithFontConfig).
//
// The output of fc-list is copied to the cache directory once. Subsequent
// calls will use the cached entries to search for a font, given a name
// pattern and a style.
//
// We call the binary instead of using the C library because of possible version
// issues. If fontconfig is not configured or no font matches with at least
// high confidence, FontConfigFont returns an empty font descriptor and an
// empty variant name.
func (c *Cache) FontConfigFont(pattern string, style font.Style) (desc fontregistry.Descriptor, variant string) {
	c.fc.once.Do(func() {
		c.fc.descs = c.loadFontConfigList()
		tracer().Infof("loaded fontconfig list with %d entries", len(c.fc.descs))
	})
	if len(c.fc.descs) == 0 {
		return
	}
	var confidence fontregistry.MatchConfidence
	desc, variant, confidence = fontregistry.ClosestMatch(c.fc.descs, pattern, style)
	tracer().Debugf("closest fontconfig match confidence for %s|%s = %d", desc.Family, variant, confidence)
	if confidence > fontregistry.LowConfidence {
		return
	}
	return fontregistry.Descriptor{}, ""
}

func (c *Cache) loadFontConfigList() []fontregistry.Descriptor {
	listfile := filepath.Join(c.dir, fontConfigList)
	if _, err := os.Stat(listfile); err != nil {
		if err = c.runFontConfig(listfile); err != nil {
			if core.Code(err) != core.EMISSING {
				core.UserError(err)
			}
			return nil
		}
	}
	fc, err := os.Open(listfile)
	if err != nil {
		err = core.WrapError(err, core.EINVALID,
			"fontconfig font list cannot be opened: %s", listfile)
		core.UserError(err)
		return nil
	}
	defer fc.Close()
	descs, err := ParseFontConfigList(fc)
	if err != nil {
		err = core.WrapError(err, core.EINVALID,
			"encountered a problem during reading of fontconfig font list: %s", listfile)
		core.UserError(err)
	}
	return descs
}

func (c *Cache) runFontConfig(listfile string) error {
	if c.fclist == "" {
		tracer().Infof("fontconfig not configured: key 'fontconfig' should point to location of 'fc-list' binary")
		return core.Error(core.EMISSING, "fontconfig not configured")
	}
	if !filepath.IsAbs(c.fclist) {
		return core.Error(core.EINVALID, "fontconfig binary fc-list must point to absolute path: %s", c.fclist)
	}
	if fi, err := os.Stat(c.fclist); err != nil || (fi.Mode().Perm()&0100) == 0 {
		return core.WrapError(err, core.EINVALID,
			"fontconfig configuration points to an invalid binary: %s", c.fclist)
	}
	out, err := os.Create(listfile)
	if err == nil {
		fccmd := exec.Command(c.fclist)
		fccmd.Stdout = out
		err = fccmd.Run()
		out.Close()
	}
	if err != nil {
		os.Remove(listfile)
		return core.WrapError(err, core.EINVALID,
			"fontconfig output file cannot be created: %s", listfile)
	}
	return nil
}

// ParseFontConfigList reads the output of 'fc-list', i.e. lines of the form
//
//	/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf: DejaVu Sans:style=Bold
//
// and returns a descriptor for each font file. Font collections are skipped.
func ParseFontConfigList(r io.Reader) ([]fontregistry.Descriptor, error) {
	var descs []fontregistry.Descriptor
	scanner := bufio.NewScanner(r)
	ttc := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		if len(fields) < 3 {
			continue
		}
		fontpath := strings.TrimSpace(fields[0])
		fontname := strings.TrimSpace(fields[1])
		fontname = strings.TrimPrefix(fontname, ".")
		if comma := strings.IndexByte(fontname, ','); comma > 0 {
			fontname = fontname[:comma] // alternative family names
		}
		if strings.HasSuffix(fontpath, ".ttc") {
			ttc++
			continue
		}
		desc := fontregistry.Descriptor{
			Family: fontname,
			Path:   fontpath,
		}
		if v := fontConfigVariant(strings.ToLower(fields[2])); v != "" {
			desc.Variants = []string{v}
		}
		descs = append(descs, desc)
	}
	if ttc > 0 {
		tracer().Infof("skipping %d platform fonts: font collections are not considered", ttc)
	}
	return descs, scanner.Err()
}

// fontConfigVariant translates a fontconfig style to a Google-style variant name.
func fontConfigVariant(style string) string {
	style = strings.TrimPrefix(strings.TrimSpace(style), "style=")
	if comma := strings.IndexByte(style, ','); comma > 0 {
		style = style[:comma]
	}
	italic := strings.Contains(style, "italic") || strings.Contains(style, "oblique")
	weight := ""
	switch {
	case strings.Contains(style, "black"), strings.Contains(style, "heavy"):
		weight = "900"
	case strings.Contains(style, "extrabold"), strings.Contains(style, "extra bold"):
		weight = "800"
	case strings.Contains(style, "semibold"), strings.Contains(style, "semi bold"),
		strings.Contains(style, "demibold"):
		weight = "600"
	case strings.Contains(style, "bold"):
		weight = "700"
	case strings.Contains(style, "medium"):
		weight = "500"
	case strings.Contains(style, "extralight"), strings.Contains(style, "extra light"):
		weight = "200"
	case strings.Contains(style, "light"):
		weight = "300"
	case strings.Contains(style, "thin"):
		weight = "100"
	case strings.Contains(style, "regular"), strings.Contains(style, "book"),
		strings.Contains(style, "text"), strings.Contains(style, "roman"):
		weight = "regular"
	case italic:
		return "italic"
	default:
		return ""
	}
	if italic {
		if weight == "regular" {
			return "italic"
		}
		return weight + "italic"
	}
	return weight
}
