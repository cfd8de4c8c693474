/*
Package dimen implements dimensions and units.

Dimensions are used to express font metrics for a font set at a given size.
Font metrics are stored in font units; package font converts them to
dimensions with font.Scaled.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package dimen

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/npillmayer/fontloom/core"
)

// Online dimension conversion for print:
// http://www.unitconversion.org/unit_converter/typography-ex.html

// Dimen is a dimension type.
// Values are in scaled big points (different from TeX).
type Dimen int32

// Some pre-defined dimensions
const (
	Zero Dimen = 0
	SP   Dimen = 1       // scaled point = BP / 65536
	BP   Dimen = 65536   // big point (PDF) = 1/72 inch
	PX   Dimen = 65536   // "pixels"
	PT   Dimen = 65291   // printers point 1/72.27 inch
	MM   Dimen = 185771  // millimeters
	CM   Dimen = 1857710 // centimeters
	IN   Dimen = 4718592 // inch
)

// Infinity is the largest possible dimension
const Infinity = math.MaxInt32

// Stringer implementation.
func (d Dimen) String() string {
	return fmt.Sprintf("%dsp", int32(d))
}

// Points returns a dimension in big (PDF) points.
func (d Dimen) Points() float64 {
	return float64(d) / float64(BP)
}

// FromPoints converts a value in big (PDF) points to a dimension.
func FromPoints(pt float64) Dimen {
	return Dimen(math.Round(pt * float64(BP)))
}

// ---------------------------------------------------------------------------

var dimenPattern = regexp.MustCompile(`^([+\-]?[0-9]+(?:\.[0-9]+)?)(%|[cminpxtsbCMINPXTSB]{2})?$`)

// ParseDimen parses a string to return a dimension. Syntax is CSS Unit,
// e.g. "11pt" or "2.5mm". A number without unit is in scaled points.
// If a percentage value is given (`80%`), the second return value will be true
// and the dimension will be the plain percentage number.
func ParseDimen(s string) (Dimen, bool, error) {
	d := dimenPattern.FindStringSubmatch(s)
	if len(d) < 2 {
		return 0, false, errDimenFormat(s)
	}
	scale := SP
	ispcnt := false
	if len(d) > 2 {
		switch d[2] {
		case "pt", "PT":
			scale = PT
		case "mm", "MM":
			scale = MM
		case "bp", "px", "BP", "PX":
			scale = BP
		case "cm", "CM":
			scale = CM
		case "in", "IN":
			scale = IN
		case "sp", "SP", "":
			scale = SP
		case "%":
			scale, ispcnt = 1, true
		default:
			return 0, false, errDimenFormat(s)
		}
	}
	n, err := strconv.ParseFloat(d[1], 64)
	if err != nil {
		return 0, false, errDimenFormat(s)
	}
	v := math.Round(n * float64(scale))
	if math.Abs(v) > Infinity {
		return 0, false, errDimenFormat(s)
	}
	return Dimen(v), ispcnt, nil
}

func errDimenFormat(s string) error {
	return core.Error(core.EINVALID, "format error parsing dimension %q", s)
}

// ---------------------------------------------------------------------------

// Min returns the smaller of two dimensions.
func Min(a, b Dimen) Dimen {
	if a < b {
		return a
	}
	return b
}

// Max returns the greater of two dimensions.
func Max(a, b Dimen) Dimen {
	if a > b {
		return a
	}
	return b
}
