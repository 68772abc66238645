package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
	"github.com/phonetichybrid/phonetichybrid/pkg/phonetichybrid/phoneme"
)

const (
	// MaxUploadBytes bounds multipart uploads.
	MaxUploadBytes = 25 << 20

	// MaxBatchWords is the largest phoneme batch accepted in one request.
	MaxBatchWords = 100

	// MaxWordLength guards against pasting whole sentences as a word.
	MaxWordLength = 64

	DefaultListLimit = 50
)

// AnalyzeRequest carries the form fields of POST /api/analyze
type AnalyzeRequest struct {
	Word     string
	Language string
}

// Validate checks if the request is valid
func (r *AnalyzeRequest) Validate() error {
	r.Word = strings.TrimSpace(r.Word)
	r.Language = strings.TrimSpace(r.Language)
	if err := validateWord(r.Word); err != nil {
		return err
	}
	return validateLanguage(r.Language)
}

// PhonemeRequest is the request body for POST /api/phonemes
type PhonemeRequest struct {
	Word     string `json:"word"`
	Language string `json:"language,omitempty"`
}

// Validate checks if the request is valid
func (r *PhonemeRequest) Validate() error {
	r.Word = strings.TrimSpace(r.Word)
	if err := validateWord(r.Word); err != nil {
		return err
	}
	return validateLanguage(r.Language)
}

// PhonemeBatchRequest is the request body for POST /api/phonemes/batch
type PhonemeBatchRequest struct {
	Words    []string `json:"words"`
	Language string   `json:"language,omitempty"`
}

// Validate checks if the request is valid
func (r *PhonemeBatchRequest) Validate() error {
	if len(r.Words) == 0 {
		return fmt.Errorf("words cannot be empty")
	}
	if len(r.Words) > MaxBatchWords {
		return fmt.Errorf("too many words: %d (maximum: %d)", len(r.Words), MaxBatchWords)
	}
	return validateLanguage(r.Language)
}

func validateWord(word string) error {
	if word == "" {
		return fmt.Errorf("word is required")
	}
	if len([]rune(word)) > MaxWordLength {
		return fmt.Errorf("word too long: %d characters (maximum: %d)", len([]rune(word)), MaxWordLength)
	}
	return nil
}

func validateLanguage(lang string) error {
	if lang == "" {
		return nil
	}
	for _, l := range phoneme.Languages() {
		if l == lang {
			return nil
		}
	}
	return fmt.Errorf("unsupported language %q (supported: %s)", lang, strings.Join(phoneme.Languages(), ", "))
}

// PhonemeBatchItem is one word of a batch transcription
type PhonemeBatchItem struct {
	Word   string              `json:"word"`
	Result *models.PhonemeInfo `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// PhonemeBatchResponse is the response for POST /api/phonemes/batch
type PhonemeBatchResponse struct {
	Results []PhonemeBatchItem `json:"results"`
	Count   int                `json:"count"`
	Failed  int                `json:"failed"`
}

// ListAnalysesResponse is the response for GET /api/analyses
type ListAnalysesResponse struct {
	Analyses []models.AnalysisSummary `json:"analyses"`
	Count    int                      `json:"count"`
}

// DeleteAnalysisResponse is the response for DELETE /api/analyses/{id}
type DeleteAnalysisResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
	models.HealthStatus
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
