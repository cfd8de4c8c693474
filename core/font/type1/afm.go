package type1

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/fontloom/core/font"
	"seehuhn.de/go/postscript/psenc"
)

// FontSpecific is the encoding scheme of fonts which define their own encoding
// by the character codes of their glyphs.
const FontSpecific = "FontSpecific"

// AFM holds the data of an Adobe Font Metrics file.
//
// Global keywords are stored in Header, typed according to the keyword: strings
// as string, numbers as float64, integers as int, booleans as bool and
// number tuples (e.g. FontBBox) as []float64.
type AFM struct {
	Version   string                 // AFM format version of StartFontMetrics
	Header    map[string]interface{} // global keywords
	Glyphs    map[string]*CharMetric // by glyph name
	Order     []string               // glyph names in file order
	Kerning   map[KernPair]float64   // horizontal kerning by pair of glyph names
	TrackKern []TrackKern
	Encoding  map[string]int // glyph name to character code
}

// CharMetric is a line of section CharMetrics.
type CharMetric struct {
	Code      int // -1 for glyphs not encoded
	Name      string
	WX, WY    float64
	BBox      font.BBox
	Ligatures map[string]string // successor glyph name to ligature glyph name
}

// KernPair is a pair of glyph names.
type KernPair struct {
	Left, Right string
}

// TrackKern is an entry of section TrackKern.
type TrackKern struct {
	Degree           int
	MinSize, MinKern float64
	MaxSize, MaxKern float64
}

// --- Keyword table ---------------------------------------------------------

type valueKind uint8

const (
	kindString valueKind = iota
	kindNumber
	kindInteger
	kindBoolean
	kindNumbers
)

type keyword struct {
	kind  valueKind
	count int // for kindNumbers
}

var keywords = map[string]keyword{
	"FontName":           {kind: kindString},
	"FullName":           {kind: kindString},
	"FamilyName":         {kind: kindString},
	"Weight":             {kind: kindString},
	"FontBBox":           {kind: kindNumbers, count: 4},
	"Version":            {kind: kindString},
	"Notice":             {kind: kindString},
	"EncodingScheme":     {kind: kindString},
	"MappingScheme":      {kind: kindInteger},
	"EscChar":            {kind: kindInteger},
	"CharacterSet":       {kind: kindString},
	"Characters":         {kind: kindInteger},
	"IsBaseFont":         {kind: kindBoolean},
	"VVector":            {kind: kindNumbers, count: 2},
	"IsFixedV":           {kind: kindBoolean},
	"CapHeight":          {kind: kindNumber},
	"XHeight":            {kind: kindNumber},
	"Ascender":           {kind: kindNumber},
	"Descender":          {kind: kindNumber},
	"StdHW":              {kind: kindNumber},
	"StdVW":              {kind: kindNumber},
	"UnderlinePosition":  {kind: kindNumber},
	"UnderlineThickness": {kind: kindNumber},
	"ItalicAngle":        {kind: kindNumber},
	"CharWidth":          {kind: kindNumbers, count: 2},
	"IsFixedPitch":       {kind: kindBoolean},
}

// accepted, but not interpreted
var ignoredKeywords = map[string]bool{
	"Comment":     true,
	"MetricsSets": true,
	"IsCIDFont":   true,
}

var sections = map[string]bool{
	"FontMetrics": true,
	"Direction":   true,
	"CharMetrics": true,
	"KernData":    true,
	"KernPairs":   true,
	"KernPairs0":  true,
	"KernPairs1":  true,
	"TrackKern":   true,
	"Composites":  true,
}

// --- Parser ----------------------------------------------------------------

// Parser reads AFM files. Warnings (e.g., for composite glyphs, which are not
// supported) are issued through the embedded Warner.
type Parser struct {
	font.Warner
}

// ParseAFM parses an AFM file with a default parser.
func ParseAFM(r io.Reader) (*AFM, error) {
	p := &Parser{}
	return p.Parse(r)
}

type afmParser struct {
	*Parser
	afm      *AFM
	sections []string
	lineno   int
}

// Parse reads an AFM file. Malformed input results in an error with code
// core.EFORMAT.
func (p *Parser) Parse(r io.Reader) (*AFM, error) {
	ap := &afmParser{
		Parser: p,
		afm: &AFM{
			Header:  make(map[string]interface{}),
			Glyphs:  make(map[string]*CharMetric),
			Kerning: make(map[KernPair]float64),
		},
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		ap.lineno++
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "\x1a") { // EOF marker
			break
		}
		if line == "" {
			continue
		}
		if err := ap.line(line); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, core.WrapError(err, core.EFORMAT, "cannot read AFM data")
	}
	if len(ap.sections) > 0 {
		return nil, ap.errorf("section %s not terminated", ap.current())
	}
	ap.resolveEncoding()
	return ap.afm, nil
}

func (ap *afmParser) errorf(format string, v ...interface{}) error {
	format = "AFM line %d: " + format
	return core.Error(core.EFORMAT, format, append([]interface{}{ap.lineno}, v...)...)
}

func (ap *afmParser) current() string {
	if len(ap.sections) == 0 {
		return ""
	}
	return ap.sections[len(ap.sections)-1]
}

func (ap *afmParser) line(line string) error {
	key, rest := splitKey(line)
	if key == "Comment" {
		return nil
	}
	if name, ok := strings.CutPrefix(key, "Start"); ok && sections[name] {
		return ap.start(name, rest)
	}
	if name, ok := strings.CutPrefix(key, "End"); ok && sections[name] {
		if name != ap.current() {
			return ap.errorf("End%s does not match Start%s", name, ap.current())
		}
		ap.sections = ap.sections[:len(ap.sections)-1]
		return nil
	}
	switch ap.current() {
	case "CharMetrics":
		return ap.charMetric(line)
	case "KernPairs", "KernPairs0", "KernPairs1":
		return ap.kernPair(key, rest)
	case "TrackKern":
		return ap.trackKern(key, rest)
	case "Composites":
		return nil
	case "KernData":
		return ap.errorf("unexpected line in KernData: %q", line)
	}
	return ap.global(key, rest)
}

func (ap *afmParser) start(section, arg string) error {
	switch section {
	case "FontMetrics":
		ap.afm.Version = arg
	case "Composites":
		ap.Warn("composite glyphs are not supported, skipping %s composites", arg)
	}
	tracer().Debugf("AFM: start of section %s", section)
	ap.sections = append(ap.sections, section)
	return nil
}

// global stores a global keyword, typed according to the keyword table.
func (ap *afmParser) global(key, rest string) error {
	kw, ok := keywords[key]
	if !ok {
		if ignoredKeywords[key] {
			return nil
		}
		return ap.errorf("unknown keyword %s", key)
	}
	var err error
	var v interface{}
	switch kw.kind {
	case kindString:
		v = rest
	case kindNumber:
		v, err = strconv.ParseFloat(rest, 64)
	case kindInteger:
		v, err = parseInt(rest)
	case kindBoolean:
		v = rest == "true"
	case kindNumbers:
		var nums []float64
		nums, err = parseNumbers(strings.Fields(rest), kw.count)
		v = nums
	}
	if err != nil {
		return ap.errorf("invalid value for %s: %q", key, rest)
	}
	ap.afm.Header[key] = v
	return nil
}

// charMetric parses a line like
//
//	C 65 ; WX 600 ; N A ; B 10 0 590 700 ;
func (ap *afmParser) charMetric(line string) error {
	cm := &CharMetric{Code: -1}
	for _, fragment := range strings.Split(line, ";") {
		ff := strings.Fields(fragment)
		if len(ff) == 0 {
			continue
		}
		var err error
		switch ff[0] {
		case "C":
			err = need(ff, 2)
			if err == nil {
				cm.Code, err = parseInt(ff[1])
			}
		case "CH":
			err = need(ff, 2)
			if err == nil {
				var c int64
				c, err = strconv.ParseInt(strings.Trim(ff[1], "<>"), 16, 32)
				cm.Code = int(c)
			}
		case "WX", "W0X":
			err = need(ff, 2)
			if err == nil {
				cm.WX, err = strconv.ParseFloat(ff[1], 64)
			}
		case "WY", "W0Y":
			err = need(ff, 2)
			if err == nil {
				cm.WY, err = strconv.ParseFloat(ff[1], 64)
			}
		case "W", "W0":
			var w []float64
			w, err = parseNumbers(ff[1:], 2)
			if err == nil {
				cm.WX, cm.WY = w[0], w[1]
			}
		case "N":
			err = need(ff, 2)
			if err == nil {
				cm.Name = ff[1]
			}
		case "B":
			var b []float64
			b, err = parseNumbers(ff[1:], 4)
			if err == nil {
				cm.BBox = font.BBox{XMin: b[0], YMin: b[1], XMax: b[2], YMax: b[3]}
			}
		case "L":
			err = need(ff, 3)
			if err == nil {
				if cm.Ligatures == nil {
					cm.Ligatures = make(map[string]string)
				}
				cm.Ligatures[ff[1]] = ff[2]
			}
		default:
			return ap.errorf("unknown character metric %s", ff[0])
		}
		if err != nil {
			return ap.errorf("invalid character metric %q", strings.TrimSpace(fragment))
		}
	}
	if cm.Name == "" {
		return ap.errorf("character metric without glyph name")
	}
	if _, dup := ap.afm.Glyphs[cm.Name]; !dup {
		ap.afm.Order = append(ap.afm.Order, cm.Name)
	}
	ap.afm.Glyphs[cm.Name] = cm
	return nil
}

// kernPair parses lines
//
//	KPX A V -50
//	KP A V -50 0
//
// Vertical kerning (KPY) is skipped.
func (ap *afmParser) kernPair(key, rest string) error {
	ff := strings.Fields(rest)
	var n int
	switch key {
	case "KPX", "KPY":
		n = 3
	case "KP":
		n = 4
	default:
		return ap.errorf("unknown kerning keyword %s", key)
	}
	if len(ff) != n {
		return ap.errorf("%s needs %d values", key, n)
	}
	if key == "KPY" {
		return nil
	}
	v, err := strconv.ParseFloat(ff[2], 64)
	if err != nil {
		return ap.errorf("invalid kerning value %q", ff[2])
	}
	ap.afm.Kerning[KernPair{ff[0], ff[1]}] = v
	return nil
}

func (ap *afmParser) trackKern(key, rest string) error {
	if key != "TrackKern" {
		return ap.errorf("unknown track kerning keyword %s", key)
	}
	ff := strings.Fields(rest)
	if len(ff) != 5 {
		return ap.errorf("TrackKern needs 5 values")
	}
	degree, err := parseInt(ff[0])
	if err != nil {
		return ap.errorf("invalid track kerning degree %q", ff[0])
	}
	v, err := parseNumbers(ff[1:], 4)
	if err != nil {
		return ap.errorf("invalid track kerning values")
	}
	ap.afm.TrackKern = append(ap.afm.TrackKern, TrackKern{
		Degree:  degree,
		MinSize: v[0], MinKern: v[1],
		MaxSize: v[2], MaxKern: v[3],
	})
	return nil
}

// resolveEncoding sets the mapping of glyph names to character codes.
// Font-specific encodings are taken from the glyph codes; otherwise the
// encoding is selected by name. Fonts without an encoding scheme are treated
// as font-specific.
func (ap *afmParser) resolveEncoding() {
	enc := make(map[string]int)
	scheme := ap.afm.String("EncodingScheme")
	switch scheme {
	case "AdobeStandardEncoding":
		for name, code := range psenc.StandardEncodingRev {
			enc[name] = int(code)
		}
	default:
		if scheme != FontSpecific && scheme != "" {
			ap.Warn("unknown encoding scheme %q, using character codes of glyphs", scheme)
		}
		for name, cm := range ap.afm.Glyphs {
			if cm.Code > -1 {
				enc[name] = cm.Code
			}
		}
	}
	ap.afm.Encoding = enc
}

// --- Accessing header values -----------------------------------------------

// String returns a string-valued header entry, or "".
func (afm *AFM) String(key string) string {
	s, _ := afm.Header[key].(string)
	return s
}

// Number returns a numeric header entry. If the entry is absent, dflt is
// returned.
func (afm *AFM) Number(key string, dflt float64) float64 {
	switch v := afm.Header[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return dflt
}

// Boolean returns a boolean header entry, false if absent.
func (afm *AFM) Boolean(key string) bool {
	b, _ := afm.Header[key].(bool)
	return b
}

// Numbers returns a header entry holding a tuple of numbers.
func (afm *AFM) Numbers(key string) []float64 {
	n, _ := afm.Header[key].([]float64)
	return n
}

// KernPairs returns all kerning pairs, sorted by glyph names.
func (afm *AFM) KernPairs() []KernPair {
	pairs := make([]KernPair, 0, len(afm.Kerning))
	for p := range afm.Kerning {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
	return pairs
}

// --- Helpers ---------------------------------------------------------------

func splitKey(line string) (string, string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

func need(ff []string, n int) error {
	if len(ff) < n {
		return core.Error(core.EFORMAT, "%s needs %d values", ff[0], n-1)
	}
	return nil
}

// parseInt accepts AFM integers, which may be written in decimal or (for
// character codes) as <hex>.
func parseInt(s string) (int, error) {
	if strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">") {
		n, err := strconv.ParseInt(s[1:len(s)-1], 16, 32)
		return int(n), err
	}
	return strconv.Atoi(s)
}

func parseNumbers(ff []string, count int) ([]float64, error) {
	if len(ff) != count {
		return nil, core.Error(core.EFORMAT, "expected %d numbers, have %d", count, len(ff))
	}
	nums := make([]float64, count)
	for i, f := range ff {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}
