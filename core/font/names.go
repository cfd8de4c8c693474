package font

import (
	"strings"

	"github.com/derekparker/trie"
)

// GlyphNames is an index of the glyph names of a font. It is used to find
// variant glyphs by name, e.g. "a.smcp" as the small capital variant of "a".
//
// Fonts do not agree on a naming convention for variant glyphs. GlyphNames
// tries the suffixes of a variant in order (see Variant.Suffixes) and
// remembers the first one which exists in the font. Subsequent lookups for
// this variant will use the remembered suffix only.
type GlyphNames struct {
	names    *trie.Trie
	suffixes map[Variant]string
}

// NewGlyphNames creates an index from a list of glyph names. Payload for each
// name is an arbitrary value, e.g. a glyph index; names and payload are
// paired by position. If payload is shorter than names, missing values are
// the name's position.
func NewGlyphNames(names []string, payload ...interface{}) *GlyphNames {
	gn := &GlyphNames{
		names:    trie.New(),
		suffixes: make(map[Variant]string),
	}
	for i, name := range names {
		if name == "" {
			continue
		}
		if _, exists := gn.names.Find(name); exists {
			continue // first one wins
		}
		var meta interface{} = i
		if i < len(payload) {
			meta = payload[i]
		}
		gn.names.Add(name, meta)
	}
	return gn
}

// Lookup returns the payload of a glyph name.
func (gn *GlyphNames) Lookup(name string) (interface{}, bool) {
	if gn == nil || name == "" {
		return nil, false
	}
	node, ok := gn.names.Find(name)
	if !ok {
		return nil, false
	}
	return node.Meta(), true
}

// Variants lists all glyph names of the index which start with base followed by
// a dot, e.g. "a.sc" and "a.smcp" for "a".
func (gn *GlyphNames) Variants(base string) []string {
	if gn == nil || base == "" {
		return nil
	}
	return gn.names.PrefixSearch(base + ".")
}

// Variant finds the name of the variant v of a glyph, given candidate names
// of the normal glyph. If v is VariantNormal, it returns the first candidate
// present in the index.
func (gn *GlyphNames) Variant(v Variant, candidates ...string) (string, bool) {
	if gn == nil {
		return "", false
	}
	if v == VariantNormal {
		for _, c := range candidates {
			if _, ok := gn.names.Find(c); ok {
				return c, true
			}
		}
		return "", false
	}
	if suffix, ok := gn.suffixes[v]; ok {
		return gn.withSuffix(suffix, candidates)
	}
	for _, suffix := range v.Suffixes() {
		if name, ok := gn.withSuffix(suffix, candidates); ok {
			tracer().Debugf("glyph names use suffix %q for %s", suffix, v)
			gn.suffixes[v] = suffix
			return name, true
		}
	}
	return "", false
}

func (gn *GlyphNames) withSuffix(suffix string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if c == "" || strings.HasSuffix(c, suffix) {
			continue
		}
		if _, ok := gn.names.Find(c + suffix); ok {
			return c + suffix, true
		}
	}
	return "", false
}
