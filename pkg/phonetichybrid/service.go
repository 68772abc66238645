package phonetichybrid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/logger"
	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/engine"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phoneme"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/recognizer"
)

// phoneticService is the default implementation of the Service interface.
type phoneticService struct {
	engine      *engine.Engine
	recognizer  *recognizer.Manager
	transcriber phonemizer.Transcriber
	storage     Storage
	metrics     *Metrics
	log         Logger
	config      *Config
	stop        context.CancelFunc
}

func NewService(opts ...Option) (Service, error) {
	return newService(opts...)
}

func newService(opts ...Option) (*phoneticService, error) {
	resolved := ResolveConfig(opts...)
	cfg := &resolved

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().WithPrefix("phonetichybrid")
	}

	var stor Storage
	var err error
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		stor, err = NewSQLiteStorage(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	base := cfg.Transcriber
	if base == nil {
		var chain phonemizer.Chain
		if cfg.LexiconPath != "" {
			lex, err := phonemizer.LoadLexiconFile(cfg.LexiconPath, cfg.Language)
			if err != nil {
				stor.Close()
				return nil, fmt.Errorf("failed to load lexicon: %w", err)
			}
			cfg.Logger.Infof("Loaded %d lexicon entries from %s", lex.Len(), cfg.LexiconPath)
			chain = append(chain, lex)
		}
		base = append(chain, phonemizer.NewEspeak())
	}
	transcriber := &phonemizer.Cached{Next: base, Store: stor, Log: cfg.Logger}

	rec := cfg.Recognizer
	if rec == nil {
		rec = recognizer.Disabled{}
	}
	ctx, stop := context.WithCancel(context.Background())
	manager := recognizer.NewManager(rec, cfg.Logger)
	manager.Start(ctx)

	eng, err := engine.New(engine.Config{
		Transcriber: transcriber,
		Recognizer:  manager,
		Language:    cfg.Language,
		Logger:      cfg.Logger,
	})
	if err != nil {
		stop()
		stor.Close()
		return nil, err
	}

	return &phoneticService{
		engine:      eng,
		recognizer:  manager,
		transcriber: transcriber,
		storage:     stor,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
		config:      cfg,
		stop:        stop,
	}, nil
}

// Analyze converts the file at audioPath and scores it.
func (s *phoneticService) Analyze(ctx context.Context, audioPath, word, lang string) (*models.AnalysisResult, error) {
	start := time.Now()
	if strings.TrimSpace(word) == "" {
		return nil, s.failed(&engine.AnalysisError{Stage: engine.StageReceived, Kind: engine.KindInput, Err: engine.ErrEmptyWord})
	}

	s.log.Infof("Analyzing %q from %s", word, audioPath)
	w, err := audio.LoadFile(ctx, audioPath, s.config.TempDir, s.config.SampleRate)
	if err != nil {
		kind := engine.KindInput
		if errors.Is(err, audio.ErrFFmpegMissing) {
			kind = engine.KindDependency
		}
		return nil, s.failed(&engine.AnalysisError{Stage: engine.StageReceived, Kind: kind, Err: err})
	}
	return s.analyze(ctx, w, word, lang, start)
}

func (s *phoneticService) AnalyzeWaveform(ctx context.Context, w audio.Waveform, word, lang string) (*models.AnalysisResult, error) {
	return s.analyze(ctx, w, word, lang, time.Now())
}

func (s *phoneticService) analyze(ctx context.Context, w audio.Waveform, word, lang string, start time.Time) (*models.AnalysisResult, error) {
	res, err := s.engine.AnalyzeIn(ctx, w, word, lang)
	if err != nil {
		return nil, s.failed(err)
	}

	// Persisting is best effort; the caller still gets the result.
	if _, err := s.storage.SaveAnalysis(res); err != nil {
		s.log.Warnf("Failed to store analysis of %q: %v", res.Word, err)
		res.ID = ""
	}

	s.metrics.RecordAnalysis(res, time.Since(start))
	s.log.Infof("Analysis %s: %q overall=%.3f grade=%s method=%s", res.ID, res.Word, res.Overall, res.Grade, res.AnalysisMethod)
	return res, nil
}

func (s *phoneticService) failed(err error) error {
	kind := engine.KindOf(err)
	s.metrics.RecordError(kind.String())
	if kind == engine.KindInternal {
		s.log.Errorf("Analysis failed: %v", err)
	} else {
		s.log.Warnf("Analysis rejected: %v", err)
	}
	return err
}

// AnalyzeBatch analyses items in order. Failures are reported per item and
// never abort the batch, except cancellation of ctx.
func (s *phoneticService) AnalyzeBatch(ctx context.Context, items []BatchItem) []BatchResult {
	out := make([]BatchResult, len(items))
	for i, item := range items {
		out[i] = BatchResult{Index: i, Word: item.Word}
		if err := ctx.Err(); err != nil {
			out[i].Error = err.Error()
			continue
		}
		res, err := s.Analyze(ctx, item.AudioPath, item.Word, item.Language)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Result = res
		out[i].Overall = res.Overall
	}
	return out
}

// Phonemes transcribes word without analysing audio.
func (s *phoneticService) Phonemes(ctx context.Context, word, lang string) (*models.PhonemeInfo, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, engine.ErrEmptyWord
	}
	if lang == "" {
		lang = s.config.Language
	}

	ph, err := s.transcriber.Transcribe(ctx, word, lang)
	s.metrics.RecordPhonemeLookup(err == nil)
	if err != nil {
		return nil, fmt.Errorf("transcribing %q: %w", word, err)
	}

	return &models.PhonemeInfo{
		Word:          word,
		Language:      lang,
		Phonemes:      ph,
		PhonemeString: strings.Join(ph, " "),
		Count:         len(ph),
		Syllables:     phoneme.CountVowels(ph),
	}, nil
}

func (s *phoneticService) GetAnalysis(id string) (*models.AnalysisResult, error) {
	return s.storage.GetAnalysis(id)
}

func (s *phoneticService) ListAnalyses(word string, limit int) ([]models.AnalysisSummary, error) {
	return s.storage.ListAnalyses(word, limit)
}

func (s *phoneticService) DeleteAnalysis(id string) error {
	return s.storage.DeleteAnalysis(id)
}

// Health probes every collaborator. It never fails; unhealthy parts are
// reported as not ready.
func (s *phoneticService) Health(ctx context.Context) models.HealthStatus {
	status := models.HealthStatus{
		RecognizerBackend: s.recognizer.Name(),
		RecognizerReady:   s.recognizer.Ready(),
		PhonemizerReady:   true,
		DatabaseReady:     true,
	}
	if err := phonemizer.Available(ctx, s.transcriber); err != nil {
		s.log.Debugf("phonemizer unavailable: %v", err)
		status.PhonemizerReady = false
	}
	if err := s.storage.Ping(); err != nil {
		s.log.Debugf("database unavailable: %v", err)
		status.DatabaseReady = false
	}
	return status
}

// Close stops recognizer warm-up and releases storage.
func (s *phoneticService) Close() error {
	s.stop()
	return s.storage.Close()
}
