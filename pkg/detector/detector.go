package detector

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pemistahl/lingua-go"

	"github.com/dtnitsch/notion-clipper/pkg/splitter"
)

// Detector guesses the language of scraped text so the splitter can pick
// a pattern table. The lingua models load on first use.
type Detector struct {
	once sync.Once
	d    lingua.LanguageDetector

	languages []lingua.Language
}

// New returns a detector over the languages clips usually arrive in.
func New() *Detector {
	return &Detector{
		languages: []lingua.Language{lingua.English, lingua.Japanese, lingua.Chinese, lingua.Korean},
	}
}

func (d *Detector) detector() lingua.LanguageDetector {
	d.once.Do(func() {
		d.d = lingua.NewLanguageDetectorBuilder().
			FromLanguages(d.languages...).
			Build()
	})
	return d.d
}

// Detect returns an ISO-639-1 code ("en", "ja", ...) or "" when unsure.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	// Kana is unambiguous and skips loading the models.
	if hasKana(text) {
		return "ja"
	}
	lang, ok := d.detector().DetectLanguageOf(sample(text))
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

// PatternsFor returns the splitter table for a language code.
func PatternsFor(lang string) []splitter.Pattern {
	switch lang {
	case "ja", "zh", "ko":
		return splitter.JapanesePatterns()
	}
	return splitter.DefaultPatterns()
}

func hasKana(s string) bool {
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}

// sample caps the text handed to lingua; a few thousand runes decide it.
func sample(s string) string {
	const limit = 4000
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
