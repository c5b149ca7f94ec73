package cleaner

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// languageSampleRunes bounds how much text the detector reads.
const languageSampleRunes = 2000

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectLanguage returns the ISO 639-1 code of text's language, or "" when
// the detector is not confident.
func DetectLanguage(text string) string {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English, lingua.Italian, lingua.French, lingua.German,
				lingua.Spanish, lingua.Portuguese, lingua.Dutch,
			).
			WithMinimumRelativeDistance(0.1).
			WithLowAccuracyMode().
			Build()
	})

	runes := []rune(text)
	if len(runes) > languageSampleRunes {
		runes = runes[:languageSampleRunes]
	}

	lang, ok := detector.DetectLanguageOf(string(runes))
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
