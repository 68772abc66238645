package models

import "time"

// AnalysisSummary is the compact history row returned by list queries.
type AnalysisSummary struct {
	ID             string    `json:"id"`
	Word           string    `json:"word"`
	Overall        float64   `json:"overall"`
	Grade          Grade     `json:"grade"`
	AnalysisMethod string    `json:"analysis_method"`
	CreatedAt      time.Time `json:"created_at"`
}

// HealthStatus reports readiness of the engine's collaborators.
type HealthStatus struct {
	RecognizerBackend string `json:"recognizer_backend"`
	RecognizerReady   bool   `json:"recognizer_ready"`
	PhonemizerReady   bool   `json:"phonemizer_ready"`
	DatabaseReady     bool   `json:"database_ready"`
}
