package phonetichybrid

import (
	"os"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phoneme"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
)

type Config struct {
	DBPath      string
	TempDir     string
	SampleRate  int
	Language    string
	LexiconPath string
	Recognizer  recognizer.Recognizer
	Transcriber phonemizer.Transcriber
	Logger      Logger
	Storage     Storage
	Metrics     *Metrics
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.Language = lang
	}
}

// WithLexicon adds a TSV pronunciation lexicon consulted before eSpeak.
func WithLexicon(path string) Option {
	return func(c *Config) {
		c.LexiconPath = path
	}
}

func WithRecognizer(rec recognizer.Recognizer) Option {
	return func(c *Config) {
		c.Recognizer = rec
	}
}

// WithTranscriber replaces the default lexicon/eSpeak chain. The
// pronunciation cache still wraps it.
func WithTranscriber(t phonemizer.Transcriber) Option {
	return func(c *Config) {
		c.Transcriber = t
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:     "phonetichybrid.sqlite3",
		TempDir:    os.TempDir(),
		SampleRate: audio.DefaultSampleRate,
		Language:   phoneme.DefaultLanguage,
		Logger:     nil,
	}
}

// ResolveConfig applies opts to the defaults and returns the result.
func ResolveConfig(opts ...Option) Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return *cfg
}
