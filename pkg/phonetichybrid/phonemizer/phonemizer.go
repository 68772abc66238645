package phonemizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnavailable means no transcription backend could serve the request.
	ErrUnavailable = errors.New("phonemizer unavailable")
	// ErrUnknownWord is returned by dictionary backends for missing words.
	ErrUnknownWord = errors.New("word not in lexicon")
)

// Transcriber turns a word into an ordered list of IPA phoneme symbols.
type Transcriber interface {
	Transcribe(ctx context.Context, word, lang string) ([]string, error)
}

// Checker is implemented by transcribers that can report availability.
type Checker interface {
	Available(ctx context.Context) error
}

// Available reports whether t can serve requests. Transcribers without a
// health probe are assumed available.
func Available(ctx context.Context, t Transcriber) error {
	if c, ok := t.(Checker); ok {
		return c.Available(ctx)
	}
	return nil
}

// NormalizeWord lowercases and trims a target word. Turkish dotted and
// dotless i are folded with Turkish casing rules when lang is tr.
func NormalizeWord(word, lang string) string {
	w := strings.TrimSpace(word)
	if strings.HasPrefix(lang, "tr") {
		w = strings.NewReplacer("I", "ı", "İ", "i").Replace(w)
	}
	return strings.ToLower(w)
}

// Chain tries each transcriber in order and returns the first success.
type Chain []Transcriber

func (c Chain) Transcribe(ctx context.Context, word, lang string) ([]string, error) {
	var errs []error
	for _, t := range c {
		ph, err := t.Transcribe(ctx, word, lang)
		if err == nil && len(ph) > 0 {
			return ph, nil
		}
		if err != nil {
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no transcription for %q", ErrUnavailable, word)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// Available succeeds when any member is available.
func (c Chain) Available(ctx context.Context) error {
	var errs []error
	for _, t := range c {
		err := Available(ctx, t)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return fmt.Errorf("%w: empty chain", ErrUnavailable)
	}
	return errors.Join(errs...)
}
