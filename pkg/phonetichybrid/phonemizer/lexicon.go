package phonemizer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Lexicon is an in-memory pronunciation dictionary.
type Lexicon struct {
	entries map[string][]string // "lang\x00word" -> phonemes
	lang    string
}

// NewLexicon creates an empty lexicon whose untagged entries belong to lang.
func NewLexicon(lang string) *Lexicon {
	return &Lexicon{entries: make(map[string][]string), lang: lang}
}

func lexKey(lang, word string) string {
	return lang + "\x00" + NormalizeWord(word, lang)
}

// Add registers a pronunciation, replacing any previous one.
func (l *Lexicon) Add(word, lang string, phonemes []string) {
	if lang == "" {
		lang = l.lang
	}
	cp := make([]string, len(phonemes))
	copy(cp, phonemes)
	l.entries[lexKey(lang, word)] = cp
}

// Len returns the number of entries.
func (l *Lexicon) Len() int { return len(l.entries) }

// LoadLexicon reads a tab-separated dictionary.
// Format: word<TAB>phoneme1 phoneme2 ... or word<TAB>lang<TAB>phonemes.
func LoadLexicon(r io.Reader, defaultLang string) (*Lexicon, error) {
	l := NewLexicon(defaultLang)
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, "\t")
		var word, lang, phon string
		switch len(parts) {
		case 2:
			word, phon = parts[0], parts[1]
		case 3:
			word, lang, phon = parts[0], parts[1], parts[2]
		default:
			return nil, fmt.Errorf("line %d: expected 2 or 3 tab-separated fields, got %d", lineNum, len(parts))
		}

		phonemes := ParseIPA(phon)
		if word == "" || len(phonemes) == 0 {
			return nil, fmt.Errorf("line %d: empty word or pronunciation", lineNum)
		}
		l.Add(word, lang, phonemes)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadLexiconFile opens path and parses it with LoadLexicon.
func LoadLexiconFile(path, defaultLang string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()
	return LoadLexicon(f, defaultLang)
}

func (l *Lexicon) Transcribe(_ context.Context, word, lang string) ([]string, error) {
	if lang == "" {
		lang = l.lang
	}
	ph, ok := l.entries[lexKey(lang, word)]
	if !ok {
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnknownWord, word, lang)
	}
	out := make([]string, len(ph))
	copy(out, ph)
	return out, nil
}
