package phonemizer

import (
	"context"
	"strings"
)

// Store persists transcriptions between runs.
type Store interface {
	GetPronunciation(word, lang string) ([]string, bool, error)
	PutPronunciation(word, lang string, phonemes []string) error
}

// Logger is the subset of the project logger used here.
type Logger interface {
	Warnf(format string, args ...any)
}

// Cached consults Store before delegating to Next and records new results.
// Store failures never fail a transcription.
type Cached struct {
	Next  Transcriber
	Store Store
	Log   Logger
}

func (c *Cached) Transcribe(ctx context.Context, word, lang string) ([]string, error) {
	key := NormalizeWord(word, lang)
	if ph, ok, err := c.Store.GetPronunciation(key, lang); err != nil {
		c.warnf("pronunciation cache read for %q: %v", key, err)
	} else if ok && len(ph) > 0 {
		return ph, nil
	}

	ph, err := c.Next.Transcribe(ctx, word, lang)
	if err != nil {
		return nil, err
	}
	if err := c.Store.PutPronunciation(key, lang, ph); err != nil {
		c.warnf("pronunciation cache write for %q (%s): %v", key, strings.Join(ph, " "), err)
	}
	return ph, nil
}

// Available defers to the wrapped transcriber.
func (c *Cached) Available(ctx context.Context) error {
	return Available(ctx, c.Next)
}

func (c *Cached) warnf(format string, args ...any) {
	if c.Log != nil {
		c.Log.Warnf(format, args...)
	}
}
