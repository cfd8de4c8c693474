package fontregistry

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/gofont/goregular"
)

// Registry is a type for holding information about loaded fonts.
type Registry struct {
	sync.Mutex
	fonts     map[string][]font.Font
	typefaces map[string]*font.Typeface
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	fr := &Registry{
		fonts:     make(map[string][]font.Font),
		typefaces: make(map[string]*font.Typeface),
	}
	return fr
}

// StoreFont pushes a font into the registry if it isn't contained yet.
//
// The font will be stored as a member of the typeface with the normalized
// font name as a key. If the typeface already contains a font with the same
// style, that font will not be overridden.
func (fr *Registry) StoreFont(name string, f font.Font) {
	if f == nil {
		tracer().Errorf("registry cannot store null font")
		return
	}
	key := NormalizeFontname(name)
	fr.Lock()
	defer fr.Unlock()
	for _, g := range fr.fonts[key] {
		if g.Style() == f.Style() {
			tracer().Debugf("registry already has a font %s for %s", f.Style(), key)
			return
		}
	}
	tracer().Debugf("registry stores font %s as %s (%s)", f.Name(), key, f.Style())
	fr.fonts[key] = append(fr.fonts[key], f)
	delete(fr.typefaces, key)
}

// StoreTypeface registers all fonts of a typeface.
func (fr *Registry) StoreTypeface(tf *font.Typeface) {
	for _, s := range tf.Styles() {
		fr.StoreFont(tf.Name(), tf.StyledFont(s))
	}
}

// Typeface returns the typeface registered under name.
//
// If no typeface can be produced, Typeface will return a typeface holding the
// fallback font, together with an error.
func (fr *Registry) Typeface(name string) (*font.Typeface, error) {
	key := NormalizeFontname(name)
	tracer().Debugf("registry searches for typeface %s", key)
	fr.Lock()
	defer fr.Unlock()
	if tf, ok := fr.typefaces[key]; ok {
		return tf, nil
	}
	if fonts, ok := fr.fonts[key]; ok {
		tf, err := font.NewTypeface(name, fonts...)
		if err == nil {
			tracer().Infof("font registry has fonts for %s, creates typeface", key)
			fr.typefaces[key] = tf
			return tf, nil
		}
		tracer().Errorf("cannot create typeface %s: %v", name, err)
	}
	tracer().Infof("registry does not contain typeface %s", key)
	err := core.Error(core.EMISSING, "typeface %s not found in registry", name)
	tf, ok := fr.typefaces["fallback"]
	if !ok {
		f, ferr := FallbackFont()
		if ferr != nil {
			return nil, ferr
		}
		tf, _ = font.NewTypeface("fallback", f)
		tracer().Infof("font registry caches fallback typeface")
		fr.typefaces["fallback"] = tf
	}
	return tf, err
}

// Font returns the font of a registered typeface which matches a style best.
// If the typeface is unknown, a fallback font is returned, together with an
// error.
func (fr *Registry) Font(name string, style font.Style) (font.Font, error) {
	tf, err := fr.Typeface(name)
	if tf == nil {
		return nil, err
	}
	return tf.StyledFont(style), err
}

// Names returns the normalized names of all registered typefaces.
func (fr *Registry) Names() []string {
	fr.Lock()
	defer fr.Unlock()
	names := make([]string, 0, len(fr.fonts))
	for k := range fr.fonts {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// LogFontList is a helper function to dump the list of known fonts and typefaces
// in a registry to the trace-file (log-level Info).
func (fr *Registry) LogFontList() {
	level := tracer().GetTraceLevel()
	tracer().SetTraceLevel(tracing.LevelInfo)
	tracer().Infof("--- registered fonts ---")
	fr.Lock()
	for k, fonts := range fr.fonts {
		for _, f := range fonts {
			tracer().Infof("font [%s] = %v (%s)", k, f.Name(), f.Style())
		}
	}
	for k, tf := range fr.typefaces {
		tracer().Infof("typeface [%s] = %d fonts", k, tf.Len())
	}
	fr.Unlock()
	tracer().Infof("------------------------")
	tracer().SetTraceLevel(level)
}

// FallbackFont returns the font used if no other font can be found: Go Regular.
func FallbackFont() (font.Font, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NormalizeFontname returns the key for a font name: lowercase, without file
// extension, with spaces replaced by underscores.
func NormalizeFontname(fname string) string {
	fname = strings.TrimSpace(fname)
	fname = strings.ReplaceAll(fname, " ", "_")
	if dot := strings.LastIndex(fname, "."); dot > 0 {
		switch strings.ToLower(fname[dot:]) {
		case ".ttf", ".otf", ".ttc", ".otc", ".afm", ".pfb", ".pfa":
			fname = fname[:dot]
		}
	}
	return strings.ToLower(fname)
}

// StyledFontname appends style indicators to a normalized font name.
func StyledFontname(fname string, style font.Style) string {
	fname = NormalizeFontname(fname)
	switch style.Slant {
	case font.SlantItalic, font.SlantOblique:
		fname += "-italic"
	}
	switch {
	case style.Weight <= font.WeightLight:
		fname += "-light"
	case style.Weight >= font.WeightDemiBold:
		fname += "-bold"
	}
	return fname
}

// GuessStyle trys to guess a font's style from the font's file name.
func GuessStyle(fontfilename string) font.Style {
	fontfilename = path.Base(fontfilename)
	ext := path.Ext(fontfilename)
	fontfilename = strings.ToLower(fontfilename[:len(fontfilename)-len(ext)])
	style := font.RegularStyle
	s := strings.Split(fontfilename, "-")
	if len(s) > 1 {
		switch s[len(s)-1] {
		case "xlight":
			style.Weight = font.WeightExtraLight
			return style
		case "r":
			return style
		case "b":
			style.Weight = font.WeightBold
			return style
		case "xbold":
			style.Weight = font.WeightExtraBold
			return style
		}
	}
	for _, part := range strings.FieldsFunc(fontfilename, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	}) {
		part = strings.TrimSuffix(part, "italic")
		part = strings.TrimSuffix(part, "oblique")
		if _, err := strconv.Atoi(part); err == nil || part == "" {
			continue // version numbers and the like
		}
		if w, err := font.ParseWeight(part); err == nil {
			style.Weight = w
		}
		if w, err := font.ParseWidth(part); err == nil {
			style.Width = w
		}
	}
	if strings.Contains(fontfilename, "italic") {
		style.Slant = font.SlantItalic
	} else if strings.Contains(fontfilename, "oblique") {
		style.Slant = font.SlantOblique
	}
	return style
}

// Matches returns true if a font's filename contains pattern and indicators
// for a given style. Widths are not considered.
func Matches(fontfilename, pattern string, style font.Style) bool {
	basename := path.Base(fontfilename)
	basename = basename[:len(basename)-len(path.Ext(basename))]
	basename = strings.ToLower(basename)
	tracer().Debugf("basename of font = %s", basename)
	if !strings.Contains(basename, strings.ToLower(pattern)) {
		return false
	}
	s := GuessStyle(basename)
	return s.Slant == style.Slant && s.Weight == style.Weight
}

// --- Matching font descriptors ---------------------------------------------

// Descriptor describes a font family available from a font source (e.g., a
// system font list), without loading it.
type Descriptor struct {
	Family   string
	Path     string
	Variants []string // variant names, e.g. "regular", "700italic"
}

// MatchConfidence is a type for expressing the confidence level of font matching.
type MatchConfidence int

// Confidence levels
const (
	NoConfidence      MatchConfidence = 0
	LowConfidence     MatchConfidence = 2
	HighConfidence    MatchConfidence = 3
	PerfectConfidence MatchConfidence = 4
)

// ClosestMatch scans a list of font descriptors and returns the closest match
// for a given set of parameters.
// If no variant matches, returns `NoConfidence`.
func ClosestMatch(fdescs []Descriptor, pattern string, style font.Style) (
	match Descriptor, variant string, confidence MatchConfidence) {
	//
	r, err := regexp.Compile(strings.ToLower(pattern))
	if err != nil {
		tracer().Errorf("invalid font name pattern")
		return
	}
	for _, fdesc := range fdescs {
		if !r.MatchString(strings.ToLower(fdesc.Family)) {
			continue
		}
		for _, v := range fdesc.Variants {
			s := MatchSlant(v, style.Slant)
			w := MatchWeight(v, style.Weight)
			if (s+w)/2 > confidence {
				confidence = (s + w) / 2
				variant = v
				match = fdesc
			}
		}
	}
	return
}

// MatchSlant trys to match a font-variant to a given slant.
func MatchSlant(variantName string, slant font.Slant) MatchConfidence {
	variantName = strings.ToLower(variantName)
	switch slant {
	case font.SlantUpright:
		if strings.Contains(variantName, "italic") || strings.Contains(variantName, "obliq") {
			return NoConfidence
		}
		switch variantName {
		case "regular", "400":
			return PerfectConfidence
		}
		return HighConfidence
	case font.SlantItalic:
		if strings.Contains(variantName, "italic") {
			return PerfectConfidence
		}
		if strings.Contains(variantName, "obliq") {
			return HighConfidence
		}
		return NoConfidence
	case font.SlantOblique:
		if strings.Contains(variantName, "obliq") {
			return PerfectConfidence
		}
		if strings.Contains(variantName, "italic") {
			return HighConfidence
		}
		return NoConfidence
	}
	return NoConfidence
}

// MatchWeight trys to match a font-variant to a given weight. Variant names
// follow the conventions of Google Fonts: a numeric weight, optionally
// followed by "italic", or one of "regular", "italic", "bold".
func MatchWeight(variantName string, weight font.Weight) MatchConfidence {
	variantName = strings.ToLower(variantName)
	variantName = strings.TrimSuffix(variantName, "italic")
	variantName = strings.TrimSuffix(variantName, "oblique")
	var vw font.Weight
	switch variantName {
	case "", "regular", "normal", "text":
		vw = font.WeightRegular
	default:
		w, err := font.ParseWeight(variantName)
		if err != nil {
			return NoConfidence
		}
		vw = w
	}
	d := int(vw) - int(weight)
	if d < 0 {
		d = -d
	}
	switch {
	case d == 0:
		return PerfectConfidence
	case d <= 100:
		return HighConfidence
	case d <= 200:
		return LowConfidence
	}
	return NoConfidence
}
