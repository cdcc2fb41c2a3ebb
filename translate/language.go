package translate

import "strings"

// SourceLanguage is fixed: captions are always recognized as English.
const SourceLanguage = "en"

type Language string

const (
	Spanish    Language = "es"
	French     Language = "fr"
	German     Language = "de"
	Italian    Language = "it"
	Portuguese Language = "pt"
)

// Languages is the selectable set, in menu order.
var Languages = []Language{Spanish, French, German, Italian, Portuguese}

var languageNames = map[Language]string{
	Spanish:    "Spanish",
	French:     "French",
	German:     "German",
	Italian:    "Italian",
	Portuguese: "Portuguese",
}

func (l Language) Code() string { return string(l) }

func (l Language) Name() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return string(l)
}

// Next cycles through Languages; unknown values restart at the first entry.
func (l Language) Next() Language {
	for i, lang := range Languages {
		if lang == l {
			return Languages[(i+1)%len(Languages)]
		}
	}
	return Languages[0]
}

// ParseLanguage accepts a two-letter code or an English name, case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, lang := range Languages {
		if s == string(lang) || s == strings.ToLower(lang.Name()) {
			return lang, true
		}
	}
	return "", false
}

// LangPair renders the endpoint's "source|target" pair.
func LangPair(target Language) string {
	return SourceLanguage + "|" + string(target)
}
