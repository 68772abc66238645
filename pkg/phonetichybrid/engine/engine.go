package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/features"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phoneme"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/scoring"
)

// Logger is the logging surface the engine needs.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Debugf(string, ...any) {}

// Config wires the engine's collaborators and parameters.
type Config struct {
	Transcriber phonemizer.Transcriber
	Recognizer  recognizer.Recognizer
	Language    string // phoneme/vowel table language, e.g. "tr"
	Features    features.Config
	Scoring     scoring.Config
	Aggregation scoring.AggregatorConfig
	Logger      Logger
	// Now stamps results; nil means time.Now.
	Now func() time.Time
}

// Engine runs the analysis pipeline. It keeps no per-call state and may be
// shared by concurrent callers.
type Engine struct {
	transcriber phonemizer.Transcriber
	recognizer  recognizer.Recognizer
	language    string
	extractor   *features.Extractor
	scorer      *scoring.Scorer
	aggregator  *scoring.Aggregator
	log         Logger
	now         func() time.Time
}

// New validates cfg and builds an Engine. Transcriber is required; a nil
// Recognizer makes every analysis acoustic only.
func New(cfg Config) (*Engine, error) {
	if cfg.Transcriber == nil {
		return nil, errors.New("engine: transcriber is required")
	}
	if cfg.Recognizer == nil {
		cfg.Recognizer = recognizer.Disabled{}
	}
	if cfg.Language == "" {
		cfg.Language = phoneme.DefaultLanguage
	}
	if cfg.Logger == nil {
		cfg.Logger = nopLogger{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Scoring == (scoring.Config{}) {
		cfg.Scoring = scoring.DefaultConfig()
	}
	cfg.Scoring.Language = cfg.Language
	if len(cfg.Aggregation.Thresholds) == 0 {
		cfg.Aggregation = scoring.DefaultAggregatorConfig()
	}

	return &Engine{
		transcriber: cfg.Transcriber,
		recognizer:  cfg.Recognizer,
		language:    cfg.Language,
		extractor:   features.NewExtractor(cfg.Features),
		scorer:      scoring.NewScorer(cfg.Scoring),
		aggregator:  scoring.NewAggregator(cfg.Aggregation),
		log:         cfg.Logger,
		now:         cfg.Now,
	}, nil
}

// Analyze scores one utterance of word in the engine language.
func (e *Engine) Analyze(ctx context.Context, w audio.Waveform, word string) (*models.AnalysisResult, error) {
	return e.AnalyzeIn(ctx, w, word, e.language)
}

// AnalyzeIn scores one utterance of word in lang.
//
// A phonemizer failure aborts the analysis with KindDependency. A recognizer
// failure does not: the result is scored acoustically and tagged
// acoustic_only.
func (e *Engine) AnalyzeIn(ctx context.Context, w audio.Waveform, word, lang string) (*models.AnalysisResult, error) {
	if lang == "" {
		lang = e.language
	}

	// Received
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fail(StageReceived, KindInput, ErrEmptyWord)
	}
	if err := w.Validate(); err != nil {
		return nil, fail(StageReceived, KindInput, err)
	}
	e.reached(word, StageReceived, "%d samples at %d Hz", len(w.Samples), w.SampleRate)

	// Transcribed
	target, err := e.transcriber.Transcribe(ctx, word, lang)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fail(StageTranscribed, KindInternal, ctx.Err())
		}
		return nil, fail(StageTranscribed, KindDependency, fmt.Errorf("%w: %w", phonemizer.ErrUnavailable, err))
	}
	e.reached(word, StageTranscribed, "/%s/", strings.Join(target, " "))

	// Recognized
	method := models.MethodAcousticOnly
	var recognizedText *string
	var confidence *float64
	rec, err := e.recognizer.Recognize(ctx, w)
	if err == nil && (math.IsNaN(rec.Confidence) || math.IsInf(rec.Confidence, 0)) {
		err = fmt.Errorf("%w: non-finite confidence %v", recognizer.ErrUnavailable, rec.Confidence)
	}
	switch {
	case err == nil:
		text, conf := rec.Text, math.Min(math.Max(rec.Confidence, 0), 1)
		recognizedText, confidence = &text, &conf
		method = models.HybridMethod(e.recognizer.Name())
	case ctx.Err() != nil:
		return nil, fail(StageRecognized, KindInternal, ctx.Err())
	default:
		e.log.Warnf("recognizer %s failed, scoring acoustically: %v", e.recognizer.Name(), err)
	}
	e.reached(word, StageRecognized, "%s", method)

	// FeaturesExtracted
	extracted, err := e.extractor.Extract(w)
	if err != nil {
		if errors.Is(err, audio.ErrMalformed) || errors.Is(err, audio.ErrEmpty) {
			return nil, fail(StageFeaturesExtracted, KindInput, err)
		}
		return nil, fail(StageFeaturesExtracted, KindInternal, err)
	}
	duration := extracted.Summary.Duration
	e.reached(word, StageFeaturesExtracted, "%d frames, %.3fs", len(extracted.Frames), duration)

	// Segmented
	segments := phoneme.Split(target, duration)
	e.reached(word, StageSegmented, "%d segments", len(segments))

	// Scored
	scores := make([]float64, len(segments))
	results := make([]models.SegmentResult, len(segments))
	byPhoneme := make(map[string]float64, len(segments))
	for i, seg := range segments {
		local := extracted.Window(seg.Start, seg.End)
		score := scoring.Round3(e.scorer.ScoreIn(lang, seg, local))
		scores[i] = score
		byPhoneme[seg.Symbol] = score
		results[i] = models.SegmentResult{
			Index:   seg.Index,
			Phoneme: seg.Symbol,
			Class:   phoneme.Classify(seg.Symbol).String(),
			Start:   scoring.Round3(seg.Start),
			End:     scoring.Round3(seg.End),
			Score:   score,
		}
	}
	e.reached(word, StageScored, "%v", scores)

	// Aggregated
	global := scoring.GlobalQuality(extracted.Summary.ActiveRatio(), extracted.Summary.VoicedRatio())
	agg := e.aggregator.Aggregate(scores, confidence, global)
	e.reached(word, StageAggregated, "overall %.3f grade %s", agg.Overall, agg.Grade)

	result := &models.AnalysisResult{
		Word:                  word,
		Language:              lang,
		RecognizedText:        recognizedText,
		RecognitionConfidence: confidence,
		PhonemesTarget:        strings.Join(target, " "),
		SegmentScores:         byPhoneme,
		Segments:              results,
		Overall:               agg.Overall,
		Grade:                 agg.Grade,
		GradeLabel:            agg.Grade.Label(lang),
		AnalysisMethod:        method,
		DurationSec:           scoring.Round3(duration),
		PhonemeCount:          len(target),
		CreatedAt:             e.now().UTC(),
	}
	e.reached(word, StageDone, "")
	return result, nil
}

// reached logs that the analysis of word completed stage.
func (e *Engine) reached(word string, stage Stage, format string, args ...any) {
	if format == "" {
		e.log.Debugf("%q: %s", word, stage)
		return
	}
	e.log.Debugf("%q: %s: "+format, append([]any{word, stage}, args...)...)
}
