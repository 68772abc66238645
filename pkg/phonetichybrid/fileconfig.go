package phonetichybrid

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
)

// FileConfig is the optional YAML configuration shared by the CLI and the
// server. Empty fields leave defaults and flags untouched.
type FileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Storage struct {
		DBPath  string `yaml:"db_path"`
		TempDir string `yaml:"temp_dir"`
	} `yaml:"storage"`
	Audio struct {
		SampleRate int `yaml:"sample_rate"`
	} `yaml:"audio"`
	Analysis struct {
		Language string `yaml:"language"`
		Lexicon  string `yaml:"lexicon"`
	} `yaml:"analysis"`
	Recognizer struct {
		Backend      string `yaml:"backend"`
		AzureRegion  string `yaml:"azure_region"`
		Locale       string `yaml:"locale"`
		WhisperURL   string `yaml:"whisper_url"`
		WhisperModel string `yaml:"whisper_model"`
	} `yaml:"recognizer"`
	LogLevel string `yaml:"log_level"`
}

// LoadFileConfig reads a YAML config. A missing file yields an empty config.
func LoadFileConfig(path string) (*FileConfig, error) {
	var cfg FileConfig
	if path == "" {
		return &cfg, nil
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config %s: %w", path, err)
	}
	return &cfg, nil
}

// Options converts the file settings into service options.
func (c *FileConfig) Options() []Option {
	var opts []Option
	if c.Storage.DBPath != "" {
		opts = append(opts, WithDBPath(c.Storage.DBPath))
	}
	if c.Storage.TempDir != "" {
		opts = append(opts, WithTempDir(c.Storage.TempDir))
	}
	if c.Audio.SampleRate > 0 {
		opts = append(opts, WithSampleRate(c.Audio.SampleRate))
	}
	if c.Analysis.Language != "" {
		opts = append(opts, WithLanguage(c.Analysis.Language))
	}
	if c.Analysis.Lexicon != "" {
		opts = append(opts, WithLexicon(c.Analysis.Lexicon))
	}
	return opts
}

// RecognizerConfig merges the file settings with credentials from the
// environment. Secrets are only read from the environment.
func (c *FileConfig) RecognizerConfig() recognizer.Config {
	rc := recognizer.Config{
		Backend:      firstNonEmpty(os.Getenv("RECOGNIZER_BACKEND"), c.Recognizer.Backend),
		AzureKey:     os.Getenv("AZURE_SPEECH_KEY"),
		AzureRegion:  firstNonEmpty(os.Getenv("AZURE_REGION"), c.Recognizer.AzureRegion),
		Language:     firstNonEmpty(os.Getenv("RECOGNIZER_LOCALE"), c.Recognizer.Locale),
		WhisperURL:   firstNonEmpty(os.Getenv("WHISPER_URL"), c.Recognizer.WhisperURL),
		WhisperKey:   os.Getenv("WHISPER_API_KEY"),
		WhisperModel: firstNonEmpty(os.Getenv("WHISPER_MODEL"), c.Recognizer.WhisperModel),
	}
	return rc
}

// LoadEnv loads .env style files into the process environment without
// overriding variables that are already set. It reports whether any file
// was loaded.
func LoadEnv(files ...string) bool {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return false
	}
	return godotenv.Load(existing...) == nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
