/*
Package fontregistry manages a registry for loaded fonts.

Fonts are registered under a normalized family name and grouped into
typefaces. Clients ask for a typeface by name; if the registry does not
know the name, it hands out a typeface built from a fallback font (Go
Regular), together with an error.

Registries are safe for concurrent use. Fonts themselves are not (see package
font); a font handed out by a registry should be queried from one goroutine
at a time.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontregistry

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'fontloom.fonts'
func tracer() tracing.Trace {
	return tracing.Select("fontloom.fonts")
}
