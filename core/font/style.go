package font

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/fontloom/core"
)

// Weight is the stroke thickness of a font, on a scale from 1 to 1000.
// It corresponds to OpenType's usWeightClass and CSS font-weight.
type Weight uint16

// Named weights, from lightest to heaviest.
const (
	WeightHairline   Weight = 50
	WeightThin       Weight = 100
	WeightUltraLight Weight = 150
	WeightExtraLight Weight = 200
	WeightLight      Weight = 300
	WeightBook       Weight = 350
	WeightRegular    Weight = 400
	WeightMedium     Weight = 500
	WeightDemiBold   Weight = 600
	WeightBold       Weight = 700
	WeightExtraBold  Weight = 800
	WeightHeavy      Weight = 850
	WeightBlack      Weight = 900
	WeightExtraBlack Weight = 950
	WeightUltraBlack Weight = 1000
)

var weightNames = []struct {
	name string
	w    Weight
}{
	{"hairline", WeightHairline},
	{"thin", WeightThin},
	{"ultra-light", WeightUltraLight},
	{"extra-light", WeightExtraLight},
	{"light", WeightLight},
	{"book", WeightBook},
	{"regular", WeightRegular},
	{"medium", WeightMedium},
	{"demi-bold", WeightDemiBold},
	{"bold", WeightBold},
	{"extra-bold", WeightExtraBold},
	{"heavy", WeightHeavy},
	{"black", WeightBlack},
	{"extra-black", WeightExtraBlack},
	{"ultra-black", WeightUltraBlack},
}

func (w Weight) String() string {
	for _, wn := range weightNames {
		if wn.w == w {
			return wn.name
		}
	}
	return strconv.Itoa(int(w))
}

// ParseWeight accepts a weight name (e.g., "demi-bold", "Semibold", "normal")
// or a numeric weight in the range 1…1000.
func ParseWeight(s string) (Weight, error) {
	n := normalizeStyleName(s)
	switch n {
	case "normal", "roman", "plain":
		return WeightRegular, nil
	case "semi-bold":
		return WeightDemiBold, nil
	case "ultra-bold":
		return WeightExtraBold, nil
	}
	for _, wn := range weightNames {
		if wn.name == n {
			return wn.w, nil
		}
	}
	if w, err := strconv.Atoi(n); err == nil && w > 0 && w <= 1000 {
		return Weight(w), nil
	}
	return WeightRegular, core.Error(core.EINVALID, "unknown font weight: %q", s)
}

// Slant is the posture of a font.
type Slant uint8

// Slants
const (
	SlantUpright Slant = iota
	SlantOblique
	SlantItalic
)

func (s Slant) String() string {
	switch s {
	case SlantUpright:
		return "upright"
	case SlantOblique:
		return "oblique"
	case SlantItalic:
		return "italic"
	}
	return fmt.Sprintf("slant(%d)", int(s))
}

// ParseSlant accepts "upright" (or "normal", "roman"), "oblique" and "italic".
func ParseSlant(s string) (Slant, error) {
	switch normalizeStyleName(s) {
	case "upright", "normal", "roman", "regular":
		return SlantUpright, nil
	case "oblique", "slanted":
		return SlantOblique, nil
	case "italic", "cursive":
		return SlantItalic, nil
	}
	return SlantUpright, core.Error(core.EINVALID, "unknown font slant: %q", s)
}

// Width is the horizontal proportion of a font, on a scale from 1
// (ultra-condensed) to 9 (ultra-expanded).
// It corresponds to OpenType's usWidthClass.
type Width uint8

// Named widths. WidthCondensed, WidthNormal and WidthExtended are the ones
// used for Type1 fonts.
const (
	WidthUltraCondensed Width = 1
	WidthExtraCondensed Width = 2
	WidthCondensed      Width = 3
	WidthSemiCondensed  Width = 4
	WidthNormal         Width = 5
	WidthSemiExtended   Width = 6
	WidthExtended       Width = 7
	WidthExtraExtended  Width = 8
	WidthUltraExtended  Width = 9
)

var widthNames = [...]string{"", "ultra-condensed", "extra-condensed", "condensed",
	"semi-condensed", "normal", "semi-extended", "extended", "extra-extended",
	"ultra-extended"}

func (w Width) String() string {
	if w > 0 && int(w) < len(widthNames) {
		return widthNames[w]
	}
	return fmt.Sprintf("width(%d)", int(w))
}

// ParseWidth accepts width names ("condensed", "semi-expanded", …) or
// numeric width classes 1…9.
func ParseWidth(s string) (Width, error) {
	n := normalizeStyleName(s)
	n = strings.ReplaceAll(n, "expanded", "extended")
	if n == "regular" || n == "medium" {
		n = "normal"
	}
	for i, name := range widthNames {
		if i > 0 && name == n {
			return Width(i), nil
		}
	}
	if w, err := strconv.Atoi(n); err == nil && w >= 1 && w <= 9 {
		return Width(w), nil
	}
	return WidthNormal, core.Error(core.EINVALID, "unknown font width: %q", s)
}

func normalizeStyleName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", "-")
	s = strings.ReplaceAll(s, " ", "-")
	for _, prefix := range []string{"hair", "ultra", "extra", "semi", "demi"} {
		if strings.HasPrefix(s, prefix) && len(s) > len(prefix) && s[len(prefix)] != '-' {
			s = prefix + "-" + s[len(prefix):]
			break
		}
	}
	if s == "hair-line" {
		s = "hairline"
	}
	return s
}

// Style is the combination of weight, slant and width of a font.
type Style struct {
	Weight Weight
	Slant  Slant
	Width  Width
}

// RegularStyle is the style of a regular, upright, normal width font.
var RegularStyle = Style{Weight: WeightRegular, Slant: SlantUpright, Width: WidthNormal}

func (s Style) String() string {
	return fmt.Sprintf("%s %s %s", s.Width, s.Weight, s.Slant)
}

// --- Variants --------------------------------------------------------------

// Variant selects an alternative glyph design for a character.
type Variant uint8

// Variants. Fonts without support for a variant fall back to VariantNormal.
const (
	VariantNormal Variant = iota
	VariantSmallCapital
	VariantOldstyleFigures
)

func (v Variant) String() string {
	switch v {
	case VariantNormal:
		return "normal"
	case VariantSmallCapital:
		return "small capital"
	case VariantOldstyleFigures:
		return "oldstyle figures"
	}
	return fmt.Sprintf("variant(%d)", int(v))
}

// Suffixes returns the glyph name suffixes fonts use for glyphs of variant v,
// in order of preference. VariantNormal has no suffixes.
func (v Variant) Suffixes() []string {
	switch v {
	case VariantSmallCapital:
		return []string{".smcp", ".sc", "small"}
	case VariantOldstyleFigures:
		return []string{".oldstyle"}
	}
	return nil
}
