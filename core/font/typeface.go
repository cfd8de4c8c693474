package font

import (
	"strings"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/npillmayer/fontloom/core"
)

// Typeface is a family of fonts, addressed by style.
//
// A typeface holds at most one font for each (width, slant, weight) triple.
// Fonts are organized in three levels: widths, then slants per width, then
// weights per slant. Typeface.Font resolves a requested style in that order,
// using a Strategy for each dimension.
type Typeface struct {
	Warner
	name     string
	widths   *treemap.Map // Width → *treemap.Map (Slant → *treemap.Map (Weight → Font))
	count    int
	weightSt Strategy
	slantSt  Strategy
	widthSt  Strategy
}

// NewTypeface creates a typeface from a set of fonts. It is an error to
// add more than one font for a style, and it is an error to create a typeface
// without fonts.
func NewTypeface(name string, fonts ...Font) (*Typeface, error) {
	tf := &Typeface{
		name:     name,
		widths:   treemap.NewWithIntComparator(),
		weightSt: NearestWeight,
		slantSt:  SlantAlternatives,
		widthSt:  NearestWidth,
	}
	if len(fonts) == 0 {
		return nil, core.Error(core.EINVALID, "typeface %s: no fonts", name)
	}
	for _, f := range fonts {
		if f == nil {
			return nil, core.Error(core.EINVALID, "typeface %s: font is nil", name)
		}
		s := f.Style()
		weights := tf.weights(s.Width, s.Slant, true)
		if other, exists := weights.Get(int(s.Weight)); exists {
			return nil, core.Error(core.EINVALID, "typeface %s: fonts %s and %s have identical style (%s)",
				name, other.(Font).Name(), f.Name(), s)
		}
		weights.Put(int(s.Weight), f)
		tf.count++
	}
	tracer().Debugf("typeface %s has %d fonts", name, tf.count)
	return tf, nil
}

func (tf *Typeface) weights(width Width, slant Slant, create bool) *treemap.Map {
	var slants *treemap.Map
	if s, ok := tf.widths.Get(int(width)); ok {
		slants = s.(*treemap.Map)
	} else if create {
		slants = treemap.NewWithIntComparator()
		tf.widths.Put(int(width), slants)
	} else {
		return nil
	}
	if w, ok := slants.Get(int(slant)); ok {
		return w.(*treemap.Map)
	} else if !create {
		return nil
	}
	weights := treemap.NewWithIntComparator()
	slants.Put(int(slant), weights)
	return weights
}

// Name returns the name of the typeface.
func (tf *Typeface) Name() string {
	return tf.name
}

// Len returns the number of fonts of the typeface.
func (tf *Typeface) Len() int {
	return tf.count
}

// Styles lists the styles available, ordered by width, slant and weight.
func (tf *Typeface) Styles() []Style {
	styles := make([]Style, 0, tf.count)
	wit := tf.widths.Iterator()
	for wit.Next() {
		sit := wit.Value().(*treemap.Map).Iterator()
		for sit.Next() {
			for _, w := range sit.Value().(*treemap.Map).Keys() {
				styles = append(styles, Style{
					Weight: Weight(w.(int)),
					Slant:  Slant(sit.Key().(int)),
					Width:  Width(wit.Key().(int)),
				})
			}
		}
	}
	return styles
}

// SetStrategies replaces the strategies for resolving styles. A nil argument
// leaves the respective strategy unchanged.
func (tf *Typeface) SetStrategies(weight, slant, width Strategy) {
	if weight != nil {
		tf.weightSt = weight
	}
	if slant != nil {
		tf.slantSt = slant
	}
	if width != nil {
		tf.widthSt = width
	}
}

// Font returns the font of the typeface which is closest to the requested
// style. Width is resolved first, then slant within the chosen width, then
// weight within the chosen slant. If the font returned differs in style from
// the requested one, a warning is issued.
func (tf *Typeface) Font(weight Weight, slant Slant, width Width) Font {
	wd, ok := tf.widthSt.Nearest(int(width), tf.widths)
	if !ok {
		panic("typeface without fonts") // NewTypeface prevents this
	}
	slants, _ := tf.widths.Get(wd)
	sl, _ := tf.slantSt.Nearest(int(slant), slants.(*treemap.Map))
	weights, _ := slants.(*treemap.Map).Get(sl)
	wg, _ := tf.weightSt.Nearest(int(weight), weights.(*treemap.Map))
	f, _ := weights.(*treemap.Map).Get(wg)
	requested := Style{Weight: weight, Slant: slant, Width: width}
	if available := (Style{Weight(wg), Slant(sl), Width(wd)}); available != requested {
		tf.Warn("%s has no %s style available, falling back to %s", tf.name, requested, available)
	}
	return f.(Font)
}

// StyledFont is a shortcut for tf.Font(s.Weight, s.Slant, s.Width).
func (tf *Typeface) StyledFont(s Style) Font {
	return tf.Font(s.Weight, s.Slant, s.Width)
}

// --- Strategies ------------------------------------------------------------

// Strategy selects a value for one dimension of a style, given a requested
// value and the values available. Keys of available are ints and are
// mapped to sub-maps or fonts; Nearest returns one of the keys.
// Nearest returns false if and only if available is empty.
type Strategy interface {
	Nearest(requested int, available *treemap.Map) (int, bool)
}

// NearestWeight selects the closest weight available. If two weights are
// equally close, the heavier one is selected.
var NearestWeight Strategy = numericStrategy{towardsGreater: true}

// NearestWidth selects the closest width available. If two widths are
// equally close, the more condensed one is selected.
var NearestWidth Strategy = numericStrategy{towardsGreater: false}

// SlantAlternatives selects the requested slant if available, otherwise
// tries a fixed list of alternatives:
//
//	upright → oblique, italic
//	oblique → italic, upright
//	italic  → oblique, upright
var SlantAlternatives Strategy = alternativesStrategy{
	int(SlantUpright): {int(SlantOblique), int(SlantItalic)},
	int(SlantOblique): {int(SlantItalic), int(SlantUpright)},
	int(SlantItalic):  {int(SlantOblique), int(SlantUpright)},
}

type numericStrategy struct {
	towardsGreater bool
}

func (s numericStrategy) Nearest(requested int, available *treemap.Map) (int, bool) {
	if available == nil || available.Empty() {
		return 0, false
	}
	fk, _ := available.Floor(requested)
	ck, _ := available.Ceiling(requested)
	if fk == nil {
		return ck.(int), true
	} else if ck == nil {
		return fk.(int), true
	}
	lower, upper := fk.(int), ck.(int)
	dl, du := requested-lower, upper-requested
	switch {
	case dl < du:
		return lower, true
	case du < dl:
		return upper, true
	case s.towardsGreater:
		return upper, true
	}
	return lower, true
}

type alternativesStrategy map[int][]int

func (s alternativesStrategy) Nearest(requested int, available *treemap.Map) (int, bool) {
	if available == nil || available.Empty() {
		return 0, false
	}
	if _, ok := available.Get(requested); ok {
		return requested, true
	}
	for _, alt := range s[requested] {
		if _, ok := available.Get(alt); ok {
			return alt, true
		}
	}
	k, _ := available.Min()
	return k.(int), true
}

// --- Type families ---------------------------------------------------------

// TypeFamily groups typefaces intended to be used together in a document.
// Any of them may be nil.
type TypeFamily struct {
	Serif    *Typeface
	Sans     *Typeface
	Mono     *Typeface
	Cursive  *Typeface
	Symbol   *Typeface
	Dingbats *Typeface
}

// Typeface returns a member of the family by its generic name ("serif",
// "sans", "sans-serif", "mono", "monospace", "cursive", "symbol", "dingbats").
func (fam TypeFamily) Typeface(generic string) *Typeface {
	switch strings.ToLower(generic) {
	case "serif":
		return fam.Serif
	case "sans", "sans-serif":
		return fam.Sans
	case "mono", "monospace":
		return fam.Mono
	case "cursive":
		return fam.Cursive
	case "symbol":
		return fam.Symbol
	case "dingbats":
		return fam.Dingbats
	}
	return nil
}
