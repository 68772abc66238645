package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func lexicon() *phonemizer.Lexicon {
	lex := phonemizer.NewLexicon("tr")
	lex.Add("pencere", "tr", []string{"p", "e", "n", "d͡ʒ", "e", "ɾ", "e"})
	lex.Add("ev", "tr", []string{"e", "v"})
	return lex
}

func newEngine(t *testing.T, rec recognizer.Recognizer) *Engine {
	t.Helper()
	e, err := New(Config{
		Transcriber: lexicon(),
		Recognizer:  rec,
		Language:    "tr",
		Now:         func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// voiced builds a harmonic-rich 150 Hz tone with a decaying envelope.
func voiced(seconds float64) audio.Waveform {
	const sr = 16000
	n := int(seconds * sr)
	s := make([]float64, n)
	for i := range s {
		tm := float64(i) / sr
		v := 0.0
		for h := 1; h <= 12; h++ {
			v += math.Sin(2*math.Pi*150*float64(h)*tm) / float64(h)
		}
		s[i] = 0.2 * v
	}
	return audio.Waveform{Samples: s, SampleRate: sr}
}

func TestAnalyzePencere(t *testing.T) {
	rec := recognizer.Static{Result: recognizer.Recognition{Text: "pencere", Confidence: 0.9}}
	e := newEngine(t, rec)

	res, err := e.Analyze(context.Background(), voiced(1.0), "pencere")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if res.PhonemesTarget != "p e n d͡ʒ e ɾ e" {
		t.Errorf("PhonemesTarget = %q", res.PhonemesTarget)
	}
	if res.PhonemeCount != 7 || len(res.Segments) != 7 {
		t.Fatalf("got %d phonemes and %d segments, want 7", res.PhonemeCount, len(res.Segments))
	}
	if len(res.SegmentScores) != 5 {
		t.Errorf("SegmentScores has %d keys, want 5 distinct phonemes", len(res.SegmentScores))
	}
	if res.SegmentScores["e"] != res.Segments[6].Score {
		t.Errorf("repeated phoneme should keep the last score: %v vs %v", res.SegmentScores["e"], res.Segments[6].Score)
	}
	if res.Segments[6].End != res.DurationSec {
		t.Errorf("last segment ends at %v, duration %v", res.Segments[6].End, res.DurationSec)
	}
	if res.AnalysisMethod != "static_hybrid" {
		t.Errorf("AnalysisMethod = %q", res.AnalysisMethod)
	}
	if res.RecognizedText == nil || *res.RecognizedText != "pencere" {
		t.Errorf("RecognizedText = %v", res.RecognizedText)
	}
	if res.RecognitionConfidence == nil || *res.RecognitionConfidence != 0.9 {
		t.Errorf("RecognitionConfidence = %v", res.RecognitionConfidence)
	}
	if res.Overall < 0 || res.Overall > 1 {
		t.Errorf("Overall %v out of range", res.Overall)
	}
	if res.GradeLabel != res.Grade.Label("tr") {
		t.Errorf("GradeLabel = %q", res.GradeLabel)
	}
	if !res.CreatedAt.Equal(fixedNow) {
		t.Errorf("CreatedAt = %v", res.CreatedAt)
	}
	for _, s := range res.Segments {
		if s.Score < 0 || s.Score > 1 {
			t.Errorf("segment %d score %v out of range", s.Index, s.Score)
		}
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	e := newEngine(t, recognizer.Static{Result: recognizer.Recognition{Text: "ev", Confidence: 0.7}})
	w := voiced(0.5)

	first, err := e.Analyze(context.Background(), w, "ev")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for i := 0; i < 3; i++ {
		again, err := e.Analyze(context.Background(), w, "ev")
		if err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%+v\n%+v", i, first, again)
		}
	}
}

func TestAnalyzeSilenceGradesF(t *testing.T) {
	e := newEngine(t, recognizer.Static{Result: recognizer.Recognition{Text: "pencere", Confidence: 0.9}})
	silence := audio.Waveform{Samples: make([]float64, 16000), SampleRate: 16000}

	res, err := e.Analyze(context.Background(), silence, "pencere")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	for _, s := range res.Segments {
		want := 0.3
		if s.Class == "other" {
			want = 0.75
		}
		if s.Score != want {
			t.Errorf("segment %q scored %v on silence, want %v", s.Phoneme, s.Score, want)
		}
	}
	if res.Grade != models.GradeF {
		t.Errorf("Grade = %s (overall %v), want F", res.Grade, res.Overall)
	}
}

func TestAnalyzeRecognizerDown(t *testing.T) {
	e := newEngine(t, recognizer.Static{Err: recognizer.ErrUnavailable})

	res, err := e.Analyze(context.Background(), voiced(0.5), "ev")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.AnalysisMethod != models.MethodAcousticOnly {
		t.Errorf("AnalysisMethod = %q, want acoustic_only", res.AnalysisMethod)
	}
	if res.RecognizedText != nil || res.RecognitionConfidence != nil {
		t.Errorf("expected no recognition fields, got %v %v", res.RecognizedText, res.RecognitionConfidence)
	}
}

func TestAnalyzeOutOfRangeConfidence(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		method     string
		wantConf   *float64
	}{
		{"nan", math.NaN(), models.MethodAcousticOnly, nil},
		{"infinite", math.Inf(1), models.MethodAcousticOnly, nil},
		{"above one", 1.7, models.HybridMethod(recognizer.BackendStatic), ptr(1)},
		{"negative", -0.2, models.HybridMethod(recognizer.BackendStatic), ptr(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t, recognizer.Static{Result: recognizer.Recognition{Text: "ev", Confidence: tt.confidence}})

			res, err := e.Analyze(context.Background(), voiced(0.5), "ev")
			if err != nil {
				t.Fatalf("Analyze: %v", err)
			}
			if res.AnalysisMethod != tt.method {
				t.Errorf("AnalysisMethod = %q, want %q", res.AnalysisMethod, tt.method)
			}
			if math.IsNaN(res.Overall) || res.Overall < 0 || res.Overall > 1 {
				t.Errorf("Overall = %f, want a value in [0, 1]", res.Overall)
			}
			switch {
			case tt.wantConf == nil && res.RecognitionConfidence != nil:
				t.Errorf("RecognitionConfidence = %v, want nil", *res.RecognitionConfidence)
			case tt.wantConf != nil && (res.RecognitionConfidence == nil || *res.RecognitionConfidence != *tt.wantConf):
				t.Errorf("RecognitionConfidence = %v, want %v", res.RecognitionConfidence, *tt.wantConf)
			}
			if _, err := json.Marshal(res); err != nil {
				t.Errorf("json.Marshal: %v", err)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }

func TestAnalyzeNilRecognizerIsAcoustic(t *testing.T) {
	e := newEngine(t, nil)
	res, err := e.Analyze(context.Background(), voiced(0.5), "ev")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.AnalysisMethod != models.MethodAcousticOnly {
		t.Errorf("AnalysisMethod = %q", res.AnalysisMethod)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	e := newEngine(t, recognizer.Disabled{})

	tests := []struct {
		name  string
		wave  audio.Waveform
		word  string
		kind  Kind
		stage Stage
		is    error
	}{
		{"empty word", voiced(0.2), "   ", KindInput, StageReceived, ErrEmptyWord},
		{"empty audio", audio.Waveform{SampleRate: 16000}, "ev", KindInput, StageReceived, audio.ErrEmpty},
		{"bad rate", audio.Waveform{Samples: []float64{0.1}, SampleRate: 0}, "ev", KindInput, StageReceived, audio.ErrMalformed},
		{"unknown word", voiced(0.2), "kelime", KindDependency, StageTranscribed, phonemizer.ErrUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Analyze(context.Background(), tt.wave, tt.word)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := KindOf(err); got != tt.kind {
				t.Errorf("KindOf = %s, want %s", got, tt.kind)
			}
			var ae *AnalysisError
			if !errors.As(err, &ae) || ae.Stage != tt.stage {
				t.Errorf("stage = %v, want %s", ae, tt.stage)
			}
			if !errors.Is(err, tt.is) {
				t.Errorf("error %v does not wrap %v", err, tt.is)
			}
		})
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	e := newEngine(t, recognizer.Static{Result: recognizer.Recognition{Text: "ev", Confidence: 1}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Analyze(ctx, voiced(0.2), "ev")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if KindOf(err) != KindInternal {
		t.Errorf("KindOf = %s", KindOf(err))
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("plain errors should be internal")
	}
}

func TestNewRequiresTranscriber(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error without transcriber")
	}
}

type recordingLogger struct {
	debug []string
}

func (l *recordingLogger) Infof(string, ...any) {}
func (l *recordingLogger) Warnf(string, ...any) {}
func (l *recordingLogger) Debugf(format string, args ...any) {
	l.debug = append(l.debug, fmt.Sprintf(format, args...))
}

func TestAnalyzeReportsStagesInOrder(t *testing.T) {
	log := &recordingLogger{}
	e, err := New(Config{
		Transcriber: lexicon(),
		Recognizer:  recognizer.Static{Result: recognizer.Recognition{Text: "ev", Confidence: 0.8}},
		Language:    "tr",
		Logger:      log,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Analyze(context.Background(), voiced(0.5), "ev"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	stages := []Stage{
		StageReceived, StageTranscribed, StageRecognized, StageFeaturesExtracted,
		StageSegmented, StageScored, StageAggregated, StageDone,
	}
	if len(log.debug) != len(stages) {
		t.Fatalf("got %d stage lines, want %d: %q", len(log.debug), len(stages), log.debug)
	}
	for i, st := range stages {
		if !strings.HasPrefix(log.debug[i], fmt.Sprintf("%q: %s", "ev", st)) {
			t.Errorf("line %d = %q, want stage %s", i, log.debug[i], st)
		}
	}
}
