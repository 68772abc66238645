package main

import (
	"bytes"
	"flag"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		positional []string
		flags      []string
	}{
		{"empty", nil, nil, nil},
		{"positional only", []string{"a.wav"}, []string{"a.wav"}, nil},
		{"flags only", []string{"--word", "ev"}, nil, []string{"--word", "ev"}},
		{"mixed", []string{"a.wav", "--word", "ev", "--json"}, []string{"a.wav"}, []string{"--word", "ev", "--json"}},
		{"several words", []string{"kitap", "ev", "-lang", "tr"}, []string{"kitap", "ev"}, []string{"-lang", "tr"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, fl := splitArgs(tt.args)
			if !reflect.DeepEqual(pos, tt.positional) {
				t.Errorf("positional = %q, want %q", pos, tt.positional)
			}
			if !reflect.DeepEqual(fl, tt.flags) {
				t.Errorf("flags = %q, want %q", fl, tt.flags)
			}
		})
	}
}

func TestParseBatchFile(t *testing.T) {
	input := "# recordings\n" +
		"pencere.wav\tpencere\n" +
		"\n" +
		"/data/hello.wav\thello\ten\n"

	items, err := parseBatchFile(strings.NewReader(input), "/batch")
	if err != nil {
		t.Fatalf("parseBatchFile failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}

	if items[0].AudioPath != filepath.Join("/batch", "pencere.wav") || items[0].Word != "pencere" || items[0].Language != "" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
	if items[1].AudioPath != "/data/hello.wav" || items[1].Word != "hello" || items[1].Language != "en" {
		t.Errorf("unexpected second item: %+v", items[1])
	}
}

func TestParseBatchFileErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"one column", "only.wav\n", "line 1"},
		{"too many columns", "a.wav\tev\ttr\textra\n", "line 1"},
		{"empty word", "ok.wav\tev\nb.wav\t \n", "line 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseBatchFile(strings.NewReader(tt.input), ".")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestScoreBar(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "░░░░"},
		{0.5, "██░░"},
		{1, "████"},
		{1.7, "████"},
		{-1, "░░░░"},
	}
	for _, tt := range tests {
		if got := scoreBar(tt.score, 4); got != tt.want {
			t.Errorf("scoreBar(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestCommonFlagsIsSet(t *testing.T) {
	t.Setenv("PHONETIC_DB_PATH", "")
	t.Setenv("PHONETIC_LANGUAGE", "")

	var c commonFlags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.register(fs)
	if err := fs.Parse([]string{"--lang", "en"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if !c.isSet("lang", "PHONETIC_LANGUAGE") {
		t.Error("lang should be set")
	}
	if c.isSet("db", "PHONETIC_DB_PATH") {
		t.Error("db should not be set")
	}
	if c.language() != "en" {
		t.Errorf("language() = %q, want en", c.language())
	}

	t.Setenv("PHONETIC_DB_PATH", "/tmp/x.sqlite3")
	if !c.isSet("db", "PHONETIC_DB_PATH") {
		t.Error("db should be set through the environment")
	}
}

func TestPrintResult(t *testing.T) {
	text := "pencere"
	conf := 0.92
	r := &models.AnalysisResult{
		ID:                    "abc",
		Word:                  "pencere",
		Language:              "tr",
		RecognizedText:        &text,
		RecognitionConfidence: &conf,
		PhonemesTarget:        "p e n",
		Overall:               0.812,
		Grade:                 models.GradeB,
		GradeLabel:            models.GradeB.Label("tr"),
		AnalysisMethod:        models.HybridMethod("azure"),
		Segments: []models.SegmentResult{
			{Index: 0, Phoneme: "p", Class: "plosive", Start: 0, End: 0.1, Score: 0.75},
		},
		CreatedAt: time.Now(),
	}

	var buf bytes.Buffer
	printResult(&buf, r)
	out := buf.String()

	for _, want := range []string{"0.812", "/p e n/", `"pencere"`, "0.92", "plosive", "ID:        abc"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
