// Package language maps target-language identifiers to the names used in
// translation prompts. Both ISO codes and English names are accepted on the
// command line.
package language

import (
	"sort"
	"strings"
)

// Language is one supported translation target.
type Language struct {
	Code string
	Name string
}

// Languages maps code -> Language for the supported translation targets.
var Languages = map[string]Language{
	"ar": {Code: "ar", Name: "Arabic"},
	"bn": {Code: "bn", Name: "Bengali"},
	"cs": {Code: "cs", Name: "Czech"},
	"da": {Code: "da", Name: "Danish"},
	"de": {Code: "de", Name: "German"},
	"el": {Code: "el", Name: "Greek"},
	"en": {Code: "en", Name: "English"},
	"es": {Code: "es", Name: "Spanish"},
	"fi": {Code: "fi", Name: "Finnish"},
	"fr": {Code: "fr", Name: "French"},
	"he": {Code: "he", Name: "Hebrew"},
	"hi": {Code: "hi", Name: "Hindi"},
	"hu": {Code: "hu", Name: "Hungarian"},
	"id": {Code: "id", Name: "Indonesian"},
	"it": {Code: "it", Name: "Italian"},
	"ja": {Code: "ja", Name: "Japanese"},
	"ko": {Code: "ko", Name: "Korean"},
	"nl": {Code: "nl", Name: "Dutch"},
	"no": {Code: "no", Name: "Norwegian"},
	"pl": {Code: "pl", Name: "Polish"},
	"pt": {Code: "pt", Name: "Portuguese"},
	"ro": {Code: "ro", Name: "Romanian"},
	"ru": {Code: "ru", Name: "Russian"},
	"sv": {Code: "sv", Name: "Swedish"},
	"th": {Code: "th", Name: "Thai"},
	"tr": {Code: "tr", Name: "Turkish"},
	"uk": {Code: "uk", Name: "Ukrainian"},
	"vi": {Code: "vi", Name: "Vietnamese"},
	"zh": {Code: "zh", Name: "Chinese"},
}

// Resolve accepts a language code or an English name, case-insensitively, and
// returns the canonical entry.
func Resolve(input string) (Language, bool) {
	needle := strings.TrimSpace(input)
	if needle == "" {
		return Language{}, false
	}
	if lang, ok := Languages[strings.ToLower(needle)]; ok {
		return lang, true
	}
	for _, lang := range Languages {
		if strings.EqualFold(lang.Name, needle) {
			return lang, true
		}
	}
	return Language{}, false
}

// GetSupportedLanguages returns all entries sorted by English name.
func GetSupportedLanguages() []Language {
	out := make([]Language, 0, len(Languages))
	for _, lang := range Languages {
		out = append(out, lang)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
