package otshape

import (
	"strings"

	"github.com/go-text/typesetting/language"
	"github.com/npillmayer/otengine/ot"
	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/unicode/bidi"
)

// Mapping Unicode scripts and BCP-47 languages to OpenType layout tags.

var (
	// OpenType script tag `DFLT`, for features that are not script-specific.
	tagDefaultScript = ot.T("DFLT")
	// OpenType language tag `dflt`, the default language system.
	tagDefaultLanguage = ot.T("dflt")
)

// ScriptTag returns the OpenType script tag for a Unicode script.
//
// Indic scripts map to their version-2 tags; the legacy Indic tags describe
// shaping models this engine does not implement.
func ScriptTag(script language.Script) ot.Tag {
	switch script {
	case 0:
		return tagDefaultScript
	case language.Bengali:
		return ot.T("bng2")
	case language.Devanagari:
		return ot.T("dev2")
	case language.Gujarati:
		return ot.T("gjr2")
	case language.Gurmukhi:
		return ot.T("gur2")
	case language.Kannada:
		return ot.T("knd2")
	case language.Malayalam:
		return ot.T("mlm2")
	case language.Oriya:
		return ot.T("ory2")
	case language.Tamil:
		return ot.T("tml2")
	case language.Telugu:
		return ot.T("tel2")
	case language.Myanmar:
		return ot.T("mym2")

	/* KATAKANA and HIRAGANA both map to 'kana' */
	case language.Hiragana, language.Katakana:
		return ot.T("kana")

	/* Spaces at the end are preserved, unlike ISO 15924 */
	case language.Lao:
		return ot.T("lao ")
	case language.Yi:
		return ot.T("yi  ")
	case language.Nko:
		return ot.T("nko ")
	case language.Vai:
		return ot.T("vai ")
	}
	/* Else, just change first char to lowercase and return */
	return ot.Tag(uint32(script) | 0x20000000)
}

// ScriptDirection returns the default text direction of a script.
func ScriptDirection(script language.Script) bidi.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana,
		language.Nko, language.Adlam, language.Mandaic, language.Samaritan:
		return bidi.RightToLeft
	}
	return bidi.LeftToRight
}

// otLanguageExceptions lists languages whose OpenType language system tag is
// not the uppercased ISO 639-3 code.
var otLanguageExceptions = map[string]string{
	"fas": "FAR ", // Persian
	"msa": "MLY ", // Malay
	"swa": "SWK ", // Swahili
	"cym": "WEL ", // Welsh
	"gla": "GAE ", // Scottish Gaelic
	"ron": "ROM ", // Romanian
}

// LanguageTag converts a BCP-47 language to an OpenType language system tag.
// Unrecognized languages yield the default language system tag `dflt`.
func LanguageTag(lang xlanguage.Tag) ot.Tag {
	base, conf := lang.Base()
	if conf == xlanguage.No {
		return tagDefaultLanguage
	}
	iso := base.ISO3()
	if iso == "" {
		return tagDefaultLanguage
	}
	if exception, ok := otLanguageExceptions[iso]; ok {
		return ot.T(exception)
	}
	return ot.T((strings.ToUpper(iso) + " ")[:4])
}
