package phonetichybrid

import "github.com/phonetichybrid/phonetichybrid/pkg/models"

// BatchItem is one utterance of a batch analysis.
type BatchItem struct {
	AudioPath string `json:"audio_path"`
	Word      string `json:"word"`
	Language  string `json:"language,omitempty"`
}

// BatchResult reports one item of a batch in input order. A failed item
// carries Error and an Overall of 0.
type BatchResult struct {
	Index   int                    `json:"index"`
	Word    string                 `json:"word"`
	Overall float64                `json:"overall"`
	Result  *models.AnalysisResult `json:"result,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
