package opentype

import (
	"github.com/npillmayer/fontloom/core/font/opentype/ot"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// see https://unicode.org/iso15924/iso15924-codes.html
var script2opentype = map[string]string{
	"Zzzz": "DFLT", // unknown
	//
	"Arab": "arab", // Arabic
	"Armn": "armn", // Armenian
	"Beng": "bng2", // Bengali
	"Cyrl": "cyrl", // Cyrillic
	"Deva": "dev2", // Devanagari
	"Ethi": "ethi", // Ethiopic
	"Geor": "geor", // Georgian
	"Grek": "grek", // Greek
	"Gujr": "gjr2", // Not gujr
	"Guru": "gur2", // Not guru
	"Hang": "hang", // Hangul
	"Hani": "hani", // Han
	"Hans": "hani", // Han (simplified)
	"Hant": "hani", // Han (traditional)
	"Hebr": "hebr", // Hebrew
	"Hira": "kana", // Hiragana shares the tag with Katakana
	"Jpan": "kana", // Japanese
	"Kana": "kana", // Katakana
	"Khmr": "khmr", // Khmer
	"Knda": "knd2", // Kannada
	"Kore": "hang", // Korean
	"Laoo": "lao ", // Lao
	"Latn": "latn", // Latin
	"Mlym": "mlm2", // Malayalam
	"Mong": "mong", // Mongolian
	"Mymr": "mym2", // Not mymr
	"Orya": "ory2", // Oriya
	"Sinh": "sinh", // Sinhala
	"Syrc": "syrc", // Syriac
	"Taml": "tml2", // Tamil
	"Telu": "tel2", // Telugu
	"Thaa": "thaa", // Thaana
	"Thai": "thai", // Thai
	"Tibt": "tibt", // Tibetan
}

// Languages with an OpenType language system tag.
var supportedLanguages = map[language.Tag]string{
	language.Arabic:     "ARA",
	language.Chinese:    "ZHS",
	language.Czech:      "CSY",
	language.Danish:     "DAN",
	language.Dutch:      "NLD",
	language.English:    "ENG",
	language.Finnish:    "FIN",
	language.French:     "FRA",
	language.German:     "DEU",
	language.Greek:      "ELL",
	language.Hebrew:     "IWR",
	language.Hungarian:  "HUN",
	language.Italian:    "ITA",
	language.Japanese:   "JAN",
	language.Norwegian:  "NOR",
	language.Polish:     "PLK",
	language.Portuguese: "PTG",
	language.Romanian:   "ROM",
	language.Russian:    "RUS",
	language.Spanish:    "ESP",
	language.Swedish:    "SVE",
	language.Turkish:    "TRK",
}

// We will try to match user-preferred language against supported languages.
var supportedLanguagesMatcher language.Matcher

func init() {
	// prepare the language matcher with our list of supported languages
	langs := make([]language.Tag, 0, len(supportedLanguages))
	for l := range supportedLanguages {
		langs = append(langs, l)
	}
	supportedLanguagesMatcher = language.NewMatcher(langs)
}

// ScriptTagForScript returns the appropriate OpenType script tag for a given ISO 15924
// script code. It will return the DFLT-tag for unknown or unsupported scripts.
func ScriptTagForScript(script language.Script) ot.Tag {
	if otScr, ok := script2opentype[script.String()]; ok {
		return ot.T(otScr)
	}
	return ot.DFLT
}

// LanguageTagForLanguage returns the appropriate OpenType language tag for a given
// BCP 47 language tag.
// If there is no supported language that can be matched with a confidence of at
// least conf, 0 will be returned, denoting the default language system.
func LanguageTagForLanguage(lang language.Tag, conf language.Confidence) ot.Tag {
	l, _, c := supportedLanguagesMatcher.Match(lang)
	tracer().Debugf("OpenType language matched %s (%s) : %s", display.English.Tags().Name(l),
		display.Self.Name(l), c)
	if c < conf { // if matcher's confidence level is not high enough
		return 0
	}
	lb, _ := l.Base()
	if rb, _ := lang.Base(); lb != rb {
		return 0 // the matcher falls back to related languages, e.g. sw -> en
	}
	base, _ := language.Compose(l.Base()) // re-package l to cleanly match base language constant
	if ltag, ok := supportedLanguages[base]; ok {
		return ot.T(ltag)
	}
	return 0
}

// SetLanguage selects the script and language system used to resolve layout
// features, e.g. language.German for 'latn'/'DEU '. The script is inferred from
// lang. Fonts default to script 'latn' and the default language system.
// Cached query results are dropped.
func (f *Font) SetLanguage(lang language.Tag) {
	script, _ := lang.Script()
	f.script = ScriptTagForScript(script)
	f.lang = LanguageTagForLanguage(lang, language.High)
	tracer().Debugf("%s resolves layout features for %s/%s", f.Name(), f.script, f.lang)
	f.cache = newQueryCache()
}
