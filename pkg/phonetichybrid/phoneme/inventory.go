package phoneme

import "strings"

// Class is the broad articulatory class used to pick a scoring strategy.
type Class int

const (
	Other Class = iota
	Vowel
	Plosive
	Fricative
	Nasal
)

func (c Class) String() string {
	switch c {
	case Vowel:
		return "vowel"
	case Plosive:
		return "plosive"
	case Fricative:
		return "fricative"
	case Nasal:
		return "nasal"
	default:
		return "other"
	}
}

// Formants are reference F1/F2 targets in Hz.
type Formants struct {
	F1 float64
	F2 float64
}

// vowelTargets holds reference formants per language. Turkish values follow
// the classic Turkish vowel chart, English values Peterson and Barney.
var vowelTargets = map[string]map[string]Formants{
	"tr": {
		"a": {800, 1300},
		"e": {550, 1900},
		"ɛ": {650, 1800},
		"i": {300, 2300},
		"o": {500, 900},
		"u": {350, 800},
		"y": {300, 1800},
		"ɯ": {400, 1200},
		"ø": {450, 1500},
	},
	"en": {
		"i": {270, 2290},
		"ɪ": {390, 1990},
		"ɛ": {530, 1840},
		"æ": {660, 1720},
		"ɑ": {730, 1090},
		"ɔ": {570, 840},
		"ʊ": {440, 1020},
		"u": {300, 870},
		"ʌ": {640, 1190},
		"ɝ": {490, 1350},
		"ə": {500, 1500},
	},
}

// DefaultLanguage is used when a caller does not name one.
const DefaultLanguage = "tr"

var (
	plosives = set("p", "t", "k", "b", "d", "ɡ", "g", "q", "c", "ɟ", "ʔ",
		"d͡ʒ", "t͡ʃ", "dʒ", "tʃ", "t͡s", "d͡z")
	fricatives = set("f", "v", "s", "z", "ʃ", "ʒ", "h", "x", "ɣ", "ç", "θ", "ð", "ɸ", "β", "ʝ", "ɦ")
	nasals     = set("m", "n", "ŋ", "ɲ", "ɱ")
	vowels     = set("a", "e", "ɛ", "i", "o", "u", "y", "ɯ", "ø", "œ", "ɪ", "æ", "ɑ", "ɒ",
		"ɔ", "ʊ", "ʌ", "ə", "ɝ", "ɜ", "ɐ", "ɤ", "ɨ", "ʉ")
)

func set(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// Normalize strips stress, length and syllable marks so a symbol can be
// looked up in the inventory.
func Normalize(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'ˈ', 'ˌ', 'ː', 'ˑ', '.', '\'':
			return -1
		}
		return r
	}, strings.TrimSpace(symbol))
}

// Classify returns the broad class of an IPA symbol. Unknown symbols are Other.
func Classify(symbol string) Class {
	s := Normalize(symbol)
	if _, ok := plosives[s]; ok {
		return Plosive
	}
	if _, ok := fricatives[s]; ok {
		return Fricative
	}
	if _, ok := nasals[s]; ok {
		return Nasal
	}
	if _, ok := vowels[s]; ok {
		return Vowel
	}
	return Other
}

// VowelTarget returns the reference formants of a vowel in lang. Unknown
// languages fall back to DefaultLanguage.
func VowelTarget(lang, symbol string) (Formants, bool) {
	table, ok := vowelTargets[lang]
	if !ok {
		table = vowelTargets[DefaultLanguage]
	}
	f, ok := table[Normalize(symbol)]
	return f, ok
}

// Languages lists the languages with vowel reference tables.
func Languages() []string {
	return []string{"en", "tr"}
}

// CountVowels estimates the syllable count of a transcription.
func CountVowels(seq []string) int {
	n := 0
	for _, p := range seq {
		if Classify(p) == Vowel {
			n++
		}
	}
	return n
}
