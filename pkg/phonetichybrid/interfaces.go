package phonetichybrid

import (
	"context"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/audio"
)

type Service interface {
	// Analyze loads an audio file of any ffmpeg-readable format and scores it
	// against word. An empty lang uses the service default.
	Analyze(ctx context.Context, audioPath, word, lang string) (*models.AnalysisResult, error)
	AnalyzeWaveform(ctx context.Context, w audio.Waveform, word, lang string) (*models.AnalysisResult, error)
	AnalyzeBatch(ctx context.Context, items []BatchItem) []BatchResult
	Phonemes(ctx context.Context, word, lang string) (*models.PhonemeInfo, error)
	GetAnalysis(id string) (*models.AnalysisResult, error)
	ListAnalyses(word string, limit int) ([]models.AnalysisSummary, error)
	DeleteAnalysis(id string) error
	Health(ctx context.Context) models.HealthStatus
	Close() error
}

type Storage interface {
	SaveAnalysis(result *models.AnalysisResult) (string, error)
	GetAnalysis(id string) (*models.AnalysisResult, error)
	ListAnalyses(word string, limit int) ([]models.AnalysisSummary, error)
	DeleteAnalysis(id string) error
	GetPronunciation(word, lang string) ([]string, bool, error)
	PutPronunciation(word, lang string, phonemes []string) error
	Ping() error
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
