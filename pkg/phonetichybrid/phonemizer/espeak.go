package phonemizer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultEspeakTimeout = 5 * time.Second

// Espeak transcribes words by running espeak-ng.
type Espeak struct {
	Binary  string
	Timeout time.Duration
}

// NewEspeak returns an eSpeak NG transcriber using the espeak-ng binary on PATH.
func NewEspeak() *Espeak {
	return &Espeak{Binary: "espeak-ng", Timeout: defaultEspeakTimeout}
}

func (e *Espeak) binary() string {
	if e.Binary == "" {
		return "espeak-ng"
	}
	return e.Binary
}

// Available runs espeak-ng --version.
func (e *Espeak) Available(ctx context.Context) error {
	bin, err := exec.LookPath(e.binary())
	if err != nil {
		return fmt.Errorf("%w: %s not found", ErrUnavailable, e.binary())
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout())
	defer cancel()
	if out, err := exec.CommandContext(ctx, bin, "--version").CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s --version: %v (%s)", ErrUnavailable, bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (e *Espeak) timeout() time.Duration {
	if e.Timeout <= 0 {
		return defaultEspeakTimeout
	}
	return e.Timeout
}

// Transcribe returns the IPA phonemes of word with stress marks removed.
// Affricates keep their tie bar, e.g. d͡ʒ.
func (e *Espeak) Transcribe(ctx context.Context, word, lang string) ([]string, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("empty word")
	}
	if lang == "" {
		lang = "tr"
	}

	bin, err := exec.LookPath(e.binary())
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrUnavailable, e.binary())
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout())
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-q", "-v", lang, "--ipa", "--sep", "--tie", word)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: espeak-ng timed out: %v", ErrUnavailable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: espeak-ng failed: %v (%s)", ErrUnavailable, err, strings.TrimSpace(stderr.String()))
	}

	phonemes := ParseIPA(stdout.String())
	if len(phonemes) == 0 {
		return nil, fmt.Errorf("%w: espeak-ng returned no phonemes for %q", ErrUnavailable, word)
	}
	return phonemes, nil
}

// ParseIPA splits separator-delimited espeak IPA output into phonemes,
// dropping stress marks, pause markers and empty tokens.
func ParseIPA(out string) []string {
	var phonemes []string
	for _, tok := range strings.Fields(out) {
		tok = strings.Map(func(r rune) rune {
			switch r {
			case 'ˈ', 'ˌ', '_', '-':
				return -1
			}
			return r
		}, tok)
		if tok != "" {
			phonemes = append(phonemes, tok)
		}
	}
	return phonemes
}
