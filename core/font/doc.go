/*
Package font is for typeface and font handling.

There is a certain confusion in the nomenclature of typesetting. We will
stick to the following definitions:

* A "typeface" is a family of fonts. An example is "Helvetica".
A typeface maps a style, i.e. a (width, slant, weight) triple, to a font.

* A "font" is a variant of a typeface with a certain weight, slant and width.
An example is "Helvetica regular". Fonts are scalable; metrics are given in
font units and are converted to points with InPoints or Scaled.

Please note that Go (Golang) does use the terms "font" and "face"
differently–actually more or less in an opposite manner.

Fonts come in different formats. Package opentype implements Font for
OpenType and TrueType fonts, package type1 implements it for Type1 fonts
described by Adobe Font Metrics files. Clients of this package should
not need to know which one they are using.

Requesting a style a typeface does not offer is not an error: Typeface.Font
will select the closest font available and issue a warning. Warnings are
written to the trace with key 'fontloom.fonts' and may additionally be
intercepted with SetWarningHandler.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package font

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'fontloom.fonts'
func tracer() tracing.Trace {
	return tracing.Select("fontloom.fonts")
}
