package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/npillmayer/fontloom/core/font"
	"github.com/npillmayer/fontloom/core/font/opentype"
	"github.com/npillmayer/fontloom/core/font/opentype/ot"
	"github.com/pterm/pterm"
	"golang.org/x/text/language"
)

// Command is a parsed input line: a verb and its arguments.
type Command struct {
	Verb string
	Args []string
}

func parseCommand(line string) Command {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Verb: strings.ToLower(fields[0]), Args: fields[1:]}
}

func (cmd Command) arg(i int) string {
	if i < len(cmd.Args) {
		return cmd.Args[i]
	}
	return ""
}

var errNotOpenType = errors.New("command is available for OpenType fonts only")

func (intp *Intp) execute(cmd Command) (bool, error) {
	tracer().Debugf("cmd = %v", cmd)
	var rows [][]string
	var err error
	switch cmd.Verb {
	case "quit", "exit":
		return true, nil
	case "info":
		rows = intp.info()
	case "tables":
		rows, err = intp.tables()
	case "glyph":
		rows, err = intp.glyph(cmd.arg(0), cmd.arg(1))
	case "kern":
		rows, err = intp.kern(cmd.arg(0), cmd.arg(1))
	case "liga":
		rows, err = intp.liga(cmd.arg(0), cmd.arg(1))
	case "scripts":
		rows, err = intp.scripts(cmd.arg(0))
	case "lookups":
		rows, err = intp.lookups(cmd.arg(0), cmd.arg(1), cmd.arg(2), cmd.arg(3))
	default:
		help()
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return false, pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func (intp *Intp) otf() (*opentype.Font, error) {
	if f, ok := intp.font.(*opentype.Font); ok {
		return f, nil
	}
	return nil, errNotOpenType
}

func (intp *Intp) info() [][]string {
	f := intp.font
	m := f.Metrics()
	scaled := font.Scaled(f, intp.size)
	rows := [][]string{
		{"Property", "Value", "At " + intp.size.String()},
		{"name", f.Name(), ""},
		{"style", f.Style().String(), ""},
		{"units per em", strconv.Itoa(f.UnitsPerEm()), ""},
		{"ascender", num(m.Ascender), scaled.Ascender.String()},
		{"descender", num(m.Descender), scaled.Descender.String()},
		{"line gap", num(m.LineGap), scaled.LineGap.String()},
		{"cap height", num(m.CapHeight), scaled.CapHeight.String()},
		{"x-height", num(m.XHeight), scaled.XHeight.String()},
		{"bbox", fmt.Sprintf("%v", m.BBox), ""},
	}
	if otf, err := intp.otf(); err == nil {
		rows = append(rows, []string{"font type", otf.FontType(), ""})
		names := otf.NameInfo(language.English)
		keys := make([]string, 0, len(names))
		for k := range names {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{k, names[k], ""})
		}
	}
	return rows
}

func (intp *Intp) tables() ([][]string, error) {
	otf, err := intp.otf()
	if err != nil {
		return nil, err
	}
	tags := otf.OT.TableTags()
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	rows := [][]string{{"Tag", "Offset", "Size", "Checksum"}}
	for _, tag := range tags {
		t := otf.OT.Table(tag)
		offset, size := t.Extent()
		rows = append(rows, []string{tag.String(), strconv.Itoa(int(offset)),
			strconv.Itoa(int(size)), fmt.Sprintf("%08x", t.Checksum())})
	}
	return rows, nil
}

func (intp *Intp) glyph(char, variant string) ([][]string, error) {
	r, err := parseRune(char)
	if err != nil {
		return nil, err
	}
	v := font.VariantNormal
	switch strings.ToLower(variant) {
	case "":
	case "smcp":
		v = font.VariantSmallCapital
	case "onum":
		v = font.VariantOldstyleFigures
	default:
		return nil, fmt.Errorf("unknown variant %q, expected smcp or onum", variant)
	}
	g, err := intp.font.Glyph(r, v)
	if err != nil {
		return nil, err
	}
	rows := [][]string{
		{"Property", "Value"},
		{"code-point", fmt.Sprintf("%U", r)},
		{"name", g.Name},
		{"code", strconv.Itoa(g.Code)},
		{"width", num(g.Width)},
		{"width at " + intp.size.String(), font.Scale(intp.font, g.Width, intp.size).String()},
		{"bbox", fmt.Sprintf("%v", g.BBox)},
	}
	if otf, err := intp.otf(); err == nil {
		info := otf.GlyphInfo(ot.GlyphIndex(g.Code))
		rows = append(rows, []string{"side bearings", fmt.Sprintf("%d / %d", info.LSB, info.RSB)})
	}
	return rows, nil
}

func (intp *Intp) pair(a, b string) (font.GlyphMetrics, font.GlyphMetrics, error) {
	var ga, gb font.GlyphMetrics
	ra, err := parseRune(a)
	if err != nil {
		return ga, gb, err
	}
	rb, err := parseRune(b)
	if err != nil {
		return ga, gb, err
	}
	if ga, err = intp.font.Glyph(ra, font.VariantNormal); err != nil {
		return ga, gb, err
	}
	gb, err = intp.font.Glyph(rb, font.VariantNormal)
	return ga, gb, err
}

func (intp *Intp) kern(a, b string) ([][]string, error) {
	ga, gb, err := intp.pair(a, b)
	if err != nil {
		return nil, err
	}
	k := intp.font.Kerning(ga, gb)
	return [][]string{
		{"Pair", "Kerning", "At " + intp.size.String()},
		{ga.String() + " " + gb.String(), num(k), font.Scale(intp.font, k, intp.size).String()},
	}, nil
}

func (intp *Intp) liga(a, b string) ([][]string, error) {
	ga, gb, err := intp.pair(a, b)
	if err != nil {
		return nil, err
	}
	lig, ok := intp.font.Ligature(ga, gb)
	if !ok {
		return nil, fmt.Errorf("no ligature for %s %s", ga, gb)
	}
	return [][]string{
		{"Pair", "Ligature", "Width"},
		{ga.String() + " " + gb.String(), lig.String(), num(lig.Width)},
	}, nil
}

func (intp *Intp) layoutTable(which string) (*ot.LayoutTable, error) {
	otf, err := intp.otf()
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(which) {
	case "GSUB":
		if otf.OT.Layout.GSub != nil {
			return &otf.OT.Layout.GSub.LayoutTable, nil
		}
	case "GPOS":
		if otf.OT.Layout.GPos != nil {
			return &otf.OT.Layout.GPos.LayoutTable, nil
		}
	default:
		return nil, fmt.Errorf("layout table must be GSUB or GPOS, is %q", which)
	}
	return nil, fmt.Errorf("font has no table %s", strings.ToUpper(which))
}

func (intp *Intp) scripts(which string) ([][]string, error) {
	lyt, err := intp.layoutTable(which)
	if err != nil {
		return nil, err
	}
	rows := [][]string{{"Script", "Languages"}}
	for _, tag := range lyt.ScriptTags() {
		var langs []string
		for l := range lyt.Scripts[tag].LangSys {
			langs = append(langs, l.String())
		}
		sort.Strings(langs)
		rows = append(rows, []string{tag.String(), strings.Join(langs, " ")})
	}
	return rows, nil
}

func (intp *Intp) lookups(which, feature, script, lang string) ([][]string, error) {
	lyt, err := intp.layoutTable(which)
	if err != nil {
		return nil, err
	}
	if feature == "" {
		return nil, errors.New("usage: lookups <GSUB|GPOS> <feature> [script [language]]")
	}
	scr := ot.DFLT
	if script != "" {
		scr = ot.T(script)
	} else if _, ok := lyt.Scripts[ot.DFLT]; !ok && len(lyt.ScriptTags()) > 0 {
		scr = lyt.ScriptTags()[0]
	}
	var lng ot.Tag
	if lang != "" {
		lng = ot.T(lang)
	}
	lookups, fb := lyt.Lookups(ot.T(feature), scr, lng)
	if fb&ot.ScriptFallback != 0 {
		pterm.Warning.Printfln("script %s not found, using %s", scr, ot.DFLT)
	}
	if fb&ot.LanguageFallback != 0 {
		pterm.Warning.Printfln("language %s not found, using default", lng)
	}
	if len(lookups) == 0 {
		return nil, fmt.Errorf("feature %s not available", feature)
	}
	rows := [][]string{{"Lookup", "Type", "Flags", "Subtables"}}
	for _, l := range lookups {
		rows = append(rows, []string{strconv.Itoa(l.Index), l.TypeString(),
			fmt.Sprintf("%#04x", uint16(l.Flag)), strconv.Itoa(l.SubTableCount())})
	}
	return rows, nil
}

// parseRune accepts a single character or a code-point in the form U+0041.
func parseRune(s string) (rune, error) {
	if s == "" {
		return 0, errors.New("character expected")
	}
	if len(s) > 2 && strings.EqualFold(s[:2], "U+") {
		n, err := strconv.ParseUint(s[2:], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid code-point %q", s)
		}
		return rune(n), nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return 0, fmt.Errorf("single character expected, have %q", s)
	}
	return r, nil
}

func num(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func help() {
	pterm.Info.Println("Commands")
	pterm.Println(`
	info                                   font names, style and metrics
	tables                                 table directory (OpenType)
	glyph <char> [smcp|onum]               glyph metrics, optionally of a variant
	kern <char> <char>                     kerning of a pair of glyphs
	liga <char> <char>                     ligature of a pair of glyphs
	scripts <GSUB|GPOS>                    scripts and languages of a layout table
	lookups <GSUB|GPOS> <feature> [script [lang]]
	                                       lookups implementing a feature
	quit                                   leave

	Characters may be given as code-points, e.g. U+00E9.
	`)
}
