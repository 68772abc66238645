package recognizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

// ErrUnavailable means the recognizer could not produce a result. Callers
// degrade to acoustic-only scoring rather than failing.
var ErrUnavailable = errors.New("recognizer unavailable")

// Recognition is the recognizer's transcript of an utterance.
type Recognition struct {
	Text       string
	Confidence float64 // in [0, 1]
}

// Recognizer turns a waveform into text with a confidence.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, w audio.Waveform) (Recognition, error)
}

// defaultConfidence is reported when a backend recognizes speech but does
// not return a confidence value.
const defaultConfidence = 0.85

// Backend names accepted by New.
const (
	BackendAzure   = "azure"
	BackendWhisper = "whisper"
	BackendStatic  = "static"
	BackendNone    = "none"
)

// Config selects and configures a recognizer backend.
type Config struct {
	Backend string

	// Azure
	AzureKey    string
	AzureRegion string
	Language    string // BCP-47 locale such as tr-TR

	// Whisper compatible endpoint
	WhisperURL   string
	WhisperKey   string
	WhisperModel string

	HTTPClient *http.Client
}

// New builds the backend named by cfg.Backend. An empty backend selects
// Azure when credentials are present and none otherwise.
func New(cfg Config) (Recognizer, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	if backend == "" {
		backend = BackendNone
		if cfg.AzureKey != "" && cfg.AzureRegion != "" {
			backend = BackendAzure
		}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	switch backend {
	case BackendAzure:
		if cfg.AzureKey == "" || cfg.AzureRegion == "" {
			return nil, fmt.Errorf("azure recognizer needs a key and a region")
		}
		return NewAzure(cfg.AzureKey, cfg.AzureRegion, cfg.Language, client), nil
	case BackendWhisper:
		if cfg.WhisperURL == "" {
			return nil, fmt.Errorf("whisper recognizer needs an endpoint url")
		}
		return NewWhisper(cfg.WhisperURL, cfg.WhisperKey, cfg.WhisperModel, cfg.Language, client), nil
	case BackendNone:
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown recognizer backend %q", cfg.Backend)
	}
}

// Disabled always reports ErrUnavailable.
type Disabled struct{}

func (Disabled) Name() string { return BackendNone }

func (Disabled) Recognize(context.Context, audio.Waveform) (Recognition, error) {
	return Recognition{}, fmt.Errorf("%w: no backend configured", ErrUnavailable)
}

// Static returns a fixed recognition. It is used for offline runs and tests.
type Static struct {
	Result Recognition
	Err    error
}

func (Static) Name() string { return BackendStatic }

func (s Static) Recognize(ctx context.Context, _ audio.Waveform) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}
	if s.Err != nil {
		return Recognition{}, s.Err
	}
	return s.Result, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// shortLanguage returns the primary subtag of a locale ("tr-TR" -> "tr").
func shortLanguage(locale string) string {
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		return strings.ToLower(locale[:i])
	}
	return strings.ToLower(locale)
}
