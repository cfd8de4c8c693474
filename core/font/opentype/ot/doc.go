/*
Package ot decodes OpenType (sfnt) font files and gives access to their tables
and layout features.

Intended audience for this package are font implementations which need glyph
metrics, kerning and substitution information, and tools which want to inspect
the internal structure of an OpenType font file.

Package `ot` decodes a font eagerly when it is parsed, with one exception:
subtables of GSUB and GPOS lookups are reachable only through chains of
offsets, and a font may contain hundreds of them. These are decoded on first
access and then memoized. The memoization is not synchronized: concurrent
first access to the same lookup of the same Font from more than one goroutine
is a data race. Fonts are usually loaded and queried by one goroutine before
being shared read-only; clients with a different usage pattern will have to
synchronize access themselves. Independent Font instances share no state.

# Tables

Every table of a font is accessible through `Font.Table`, at least as a
generic table exposing its bytes. Tables important for font metrics are
decoded into Go types:

	otf, err := ot.Parse(fontbytes)
	head := otf.Table(ot.T("head")).Self().AsHead()
	fmt.Println(head.UnitsPerEm)

Table decoders are registered in a static map from table tag to decoder.
Tags without a decoder become generic tables. Checksums of every table are
verified during parsing; a mismatch, a truncated table or a missing required
table is reported as an error with code core.EFORMAT.

# Layout

GSUB and GPOS share a common structure of scripts, language systems, features
and lookups. `LayoutTable.Lookups` resolves a feature for a script and language
to a sequence of lookups, which in turn offer operations such as

	lookups, _ := otf.Layout.GPos.Lookups(ot.T("kern"), ot.T("latn"), 0)
	v1, _, ok := lookups.PairAdjustment(glyphA, glyphV)

Subtables are tried in declaration order and the first match wins.
Contextual and chained contextual lookups are decoded as such but never match.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>

Parts of the cmap code have originally been copied over from
golang.org/x/image/font/sfnt/cmap.go, as the cmap-routines are not accessible
through the sfnt package's API.

	Copyright 2017 The Go Authors. All rights reserved.
	Use of this source code is governed by a BSD-style
	license that can be found in the LICENSE file.
*/
package ot

import (
	"fmt"

	"github.com/npillmayer/fontloom/core"
	"github.com/npillmayer/schuko/tracing"
)

// Valuable resource:
// http://opentypecookbook.com/

// tracer writes to trace with key 'fontloom.fonts'
func tracer() tracing.Trace {
	return tracing.Select("fontloom.fonts")
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.Error(core.EFORMAT, "OpenType font format: %s", x)
}

// errTableFormat wraps a low-level decoding error for table t.
func errTableFormat(t Tag, err error) error {
	return errFontFormat(fmt.Sprintf("table %s: %v", t, err))
}
