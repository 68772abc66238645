package phonetichybrid

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
server:
  port: "9090"
storage:
  db_path: /var/lib/phonetic/history.db
audio:
  sample_rate: 22050
analysis:
  language: en
recognizer:
  backend: whisper
  whisper_url: http://localhost:8000
log_level: debug
`

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	fc, err := LoadFileConfig(path)
	if err != nil {
		t.Fatalf("LoadFileConfig: %v", err)
	}
	if fc.Server.Port != "9090" || fc.Audio.SampleRate != 22050 || fc.LogLevel != "debug" {
		t.Errorf("unexpected config %+v", fc)
	}

	cfg := defaultConfig()
	for _, opt := range fc.Options() {
		opt(cfg)
	}
	if cfg.DBPath != "/var/lib/phonetic/history.db" || cfg.SampleRate != 22050 || cfg.Language != "en" {
		t.Errorf("options not applied: %+v", cfg)
	}
	if cfg.TempDir != os.TempDir() {
		t.Errorf("unset temp dir should keep default, got %q", cfg.TempDir)
	}
}

func TestLoadFileConfigMissing(t *testing.T) {
	fc, err := LoadFileConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if len(fc.Options()) != 0 {
		t.Errorf("empty config produced options")
	}
}

func TestLoadFileConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("audio: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(path); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRecognizerConfigPrefersEnvironment(t *testing.T) {
	t.Setenv("RECOGNIZER_BACKEND", "")
	t.Setenv("AZURE_SPEECH_KEY", "k")
	t.Setenv("AZURE_REGION", "westeurope")
	t.Setenv("WHISPER_URL", "")
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("RECOGNIZER_LOCALE", "")

	var fc FileConfig
	fc.Recognizer.Backend = "azure"
	fc.Recognizer.AzureRegion = "eastus"
	fc.Recognizer.Locale = "tr-TR"

	rc := fc.RecognizerConfig()
	if rc.Backend != "azure" || rc.AzureKey != "k" || rc.AzureRegion != "westeurope" || rc.Language != "tr-TR" {
		t.Errorf("unexpected recognizer config %+v", rc)
	}
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("PHONETIC_TEST_LOADENV=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PHONETIC_TEST_LOADENV") })

	if LoadEnv(filepath.Join(dir, "missing.env")) {
		t.Error("missing file reported as loaded")
	}
	if !LoadEnv(envFile) {
		t.Fatal("env file not loaded")
	}
	if got := os.Getenv("PHONETIC_TEST_LOADENV"); got != "from-file" {
		t.Errorf("PHONETIC_TEST_LOADENV = %q", got)
	}
}
