//go:build !js && !wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phonemizer"
	"github.com/phonetichybrid/phonetichybrid/pkg/utils"
)

const DefaultDBFile = "phonetichybrid.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned when an analysis id does not exist.
var ErrNotFound = errors.New("analysis not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Analysis struct {
	ID             string                 `gorm:"primaryKey;type:varchar(36)"`
	Word           string                 `gorm:"index:idx_analysis_word"`
	Language       string                 `gorm:"type:varchar(8)"`
	RecognizedText *string
	Confidence     *float64
	PhonemesTarget string
	SegmentScores  map[string]float64     `gorm:"serializer:json"`
	Segments       []models.SegmentResult `gorm:"serializer:json"`
	Overall        float64
	Grade          string `gorm:"type:varchar(1)"`
	Method         string
	DurationSec    float64
	PhonemeCount   int
	CreatedAt      time.Time `gorm:"index:idx_analysis_created"`
}

type Pronunciation struct {
	ID        uint     `gorm:"primaryKey;autoIncrement"`
	Word      string   `gorm:"uniqueIndex:idx_pron_unique,priority:1"`
	Language  string   `gorm:"uniqueIndex:idx_pron_unique,priority:2;type:varchar(8)"`
	Phonemes  []string `gorm:"serializer:json"`
	UpdatedAt time.Time
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("PHONETIC_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !os.IsExist(err) {
		if filepath.Dir(dbPath) != "." {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Analysis{}, &Pronunciation{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Ping checks the connection is usable.
func (c *DBClient) Ping() error {
	if c == nil || c.db == nil {
		return errors.New(errDBClientNil)
	}
	return c.db.Ping()
}

func toRow(r *models.AnalysisResult) Analysis {
	return Analysis{
		ID:             r.ID,
		Word:           r.Word,
		Language:       r.Language,
		RecognizedText: r.RecognizedText,
		Confidence:     r.RecognitionConfidence,
		PhonemesTarget: r.PhonemesTarget,
		SegmentScores:  r.SegmentScores,
		Segments:       r.Segments,
		Overall:        r.Overall,
		Grade:          string(r.Grade),
		Method:         r.AnalysisMethod,
		DurationSec:    r.DurationSec,
		PhonemeCount:   r.PhonemeCount,
		CreatedAt:      r.CreatedAt,
	}
}

func (a Analysis) toResult() *models.AnalysisResult {
	grade := models.Grade(a.Grade)
	return &models.AnalysisResult{
		ID:                    a.ID,
		Word:                  a.Word,
		Language:              a.Language,
		RecognizedText:        a.RecognizedText,
		RecognitionConfidence: a.Confidence,
		PhonemesTarget:        a.PhonemesTarget,
		SegmentScores:         a.SegmentScores,
		Segments:              a.Segments,
		Overall:               a.Overall,
		Grade:                 grade,
		GradeLabel:            grade.Label(a.Language),
		AnalysisMethod:        a.Method,
		DurationSec:           a.DurationSec,
		PhonemeCount:          a.PhonemeCount,
		CreatedAt:             a.CreatedAt.UTC(),
	}
}

// SaveAnalysis stores r, assigning an id and timestamp when they are unset.
// It returns the stored id.
func (c *DBClient) SaveAnalysis(r *models.AnalysisResult) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	if r == nil {
		return "", errors.New("nil analysis")
	}
	if r.ID == "" {
		r.ID = utils.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	row := toRow(r)
	if err := c.DB.Create(&row).Error; err != nil {
		return "", fmt.Errorf("creating analysis: %w", err)
	}
	return row.ID, nil
}

func (c *DBClient) GetAnalysis(id string) (*models.AnalysisResult, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var row Analysis
	err := c.DB.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying analysis: %w", err)
	}
	return row.toResult(), nil
}

// ListAnalyses returns the newest analyses first. An empty word matches all;
// limit <= 0 means no limit.
func (c *DBClient) ListAnalyses(word string, limit int) ([]models.AnalysisSummary, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	q := c.DB.Model(&Analysis{}).Order("created_at DESC").Order("id")
	if w := strings.TrimSpace(word); w != "" {
		q = q.Where("word = ?", w)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []Analysis
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}

	out := make([]models.AnalysisSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.AnalysisSummary{
			ID:             r.ID,
			Word:           r.Word,
			Overall:        r.Overall,
			Grade:          models.Grade(r.Grade),
			AnalysisMethod: r.Method,
			CreatedAt:      r.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (c *DBClient) DeleteAnalysis(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Where("id = ?", id).Delete(&Analysis{})
	if res.Error != nil {
		return fmt.Errorf("deleting analysis: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (c *DBClient) CountAnalyses() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var n int64
	if err := c.DB.Model(&Analysis{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting analyses: %w", err)
	}
	return n, nil
}

// GetPronunciation looks up a cached transcription.
func (c *DBClient) GetPronunciation(word, lang string) ([]string, bool, error) {
	if c == nil || c.DB == nil {
		return nil, false, errors.New(errDBClientNil)
	}
	var row Pronunciation
	err := c.DB.Where("word = ? AND language = ?", word, lang).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying pronunciation: %w", err)
	}
	return row.Phonemes, true, nil
}

// PutPronunciation inserts or replaces a cached transcription.
func (c *DBClient) PutPronunciation(word, lang string, phonemes []string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	row := Pronunciation{Word: word, Language: lang, Phonemes: phonemes}
	err := c.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "word"}, {Name: "language"}},
		DoUpdates: clause.AssignmentColumns([]string{"phonemes", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("storing pronunciation: %w", err)
	}
	return nil
}

var _ phonemizer.Store = (*DBClient)(nil)
