package models

import "time"

// Grade is the letter grade derived from an overall score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

var gradeLabels = map[string]map[Grade]string{
	"tr": {
		GradeA: "Mükemmel",
		GradeB: "İyi",
		GradeC: "Orta",
		GradeD: "Geliştirilebilir",
		GradeF: "Zayıf",
	},
	"en": {
		GradeA: "Excellent",
		GradeB: "Good",
		GradeC: "Fair",
		GradeD: "Needs improvement",
		GradeF: "Poor",
	},
}

// Label returns the human readable label for the grade in the given locale.
// Unknown locales fall back to English.
func (g Grade) Label(locale string) string {
	labels, ok := gradeLabels[locale]
	if !ok {
		labels = gradeLabels["en"]
	}
	return labels[g]
}

// Analysis method tags.
const (
	MethodAcousticOnly = "acoustic_only"
	hybridSuffix       = "_hybrid"
)

// HybridMethod returns the method tag for a result that blended the named
// recognizer backend with acoustic scoring.
func HybridMethod(backend string) string {
	return backend + hybridSuffix
}

// SegmentResult is one scored phoneme segment, in utterance order.
type SegmentResult struct {
	Index   int     `json:"index"`
	Phoneme string  `json:"phoneme"`
	Class   string  `json:"class"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Score   float64 `json:"score"`
}

// AnalysisResult is the complete assessment of one utterance against one word.
type AnalysisResult struct {
	ID                    string             `json:"id,omitempty"`
	Word                  string             `json:"word"`
	Language              string             `json:"language"`
	RecognizedText        *string            `json:"recognized_text"`
	RecognitionConfidence *float64           `json:"recognition_confidence"`
	PhonemesTarget        string             `json:"phonemes_target"`
	SegmentScores         map[string]float64 `json:"segment_scores"`
	Segments              []SegmentResult    `json:"segments"`
	Overall               float64            `json:"overall"`
	Grade                 Grade              `json:"grade"`
	GradeLabel            string             `json:"grade_label"`
	AnalysisMethod        string             `json:"analysis_method"`
	DurationSec           float64            `json:"duration_sec"`
	PhonemeCount          int                `json:"phoneme_count"`
	CreatedAt             time.Time          `json:"created_at,omitzero"`
}

// PhonemeInfo describes the transcription of a single word.
type PhonemeInfo struct {
	Word          string   `json:"word"`
	Language      string   `json:"language"`
	Phonemes      []string `json:"phonemes"`
	PhonemeString string   `json:"phoneme_string"`
	Count         int      `json:"count"`
	Syllables     int      `json:"syllables"`
}
