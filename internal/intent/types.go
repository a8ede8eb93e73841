package intent

import "strings"

// LanguageAny is the reserved language bucket for training phrases that are
// not tagged with a specific language.
const LanguageAny = "any"

// IntentExample is a single named intent with its labeled training phrases.
//
// Phrases can be given flat via Examples (treated as language-agnostic) or
// per language code via Localized (e.g. "en", "ms", "zh"). Both fields may be
// set; they are merged at index build time.
type IntentExample struct {
	Intent    string              `koanf:"intent" json:"intent"`
	Examples  []string            `koanf:"examples" json:"examples,omitempty"`
	Localized map[string][]string `koanf:"localized" json:"localized,omitempty"`
}

// normalized returns the canonical language -> phrases representation,
// dropping blank phrases. Flat examples land in the LanguageAny bucket.
func (e IntentExample) normalized() map[string][]string {
	out := make(map[string][]string)

	add := func(lang string, phrases []string) {
		for _, p := range phrases {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			out[lang] = append(out[lang], p)
		}
	}

	add(LanguageAny, e.Examples)
	for lang, phrases := range e.Localized {
		lang = strings.TrimSpace(strings.ToLower(lang))
		if lang == "" {
			lang = LanguageAny
		}
		add(lang, phrases)
	}
	return out
}

// MatchResult is a scored intent match. Score is a normalized similarity in
// [0,1] where 1 means identical meaning.
type MatchResult struct {
	Intent string  `json:"intent"`
	Score  float64 `json:"score"`
}

// Stats reports aggregate index statistics after initialization.
type Stats struct {
	// TotalIntents is the number of intents with at least one retained example.
	TotalIntents int `json:"total_intents"`
	// TotalExamples is the number of indexed training phrases across all
	// intents and languages.
	TotalExamples int `json:"total_examples"`
}
