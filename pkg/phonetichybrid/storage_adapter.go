package phonetichybrid

import (
	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/storage"
)

// ErrNotFound is returned for unknown analysis ids.
var ErrNotFound = storage.ErrNotFound

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) SaveAnalysis(result *models.AnalysisResult) (string, error) {
	return s.db.SaveAnalysis(result)
}

func (s *storageAdapter) GetAnalysis(id string) (*models.AnalysisResult, error) {
	return s.db.GetAnalysis(id)
}

func (s *storageAdapter) ListAnalyses(word string, limit int) ([]models.AnalysisSummary, error) {
	return s.db.ListAnalyses(word, limit)
}

func (s *storageAdapter) DeleteAnalysis(id string) error {
	return s.db.DeleteAnalysis(id)
}

func (s *storageAdapter) GetPronunciation(word, lang string) ([]string, bool, error) {
	return s.db.GetPronunciation(word, lang)
}

func (s *storageAdapter) PutPronunciation(word, lang string, phonemes []string) error {
	return s.db.PutPronunciation(word, lang, phonemes)
}

func (s *storageAdapter) Ping() error {
	return s.db.Ping()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
