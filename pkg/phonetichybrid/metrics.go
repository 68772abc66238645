package phonetichybrid

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
)

// Metrics holds the Prometheus collectors for analyses.
type Metrics struct {
	registry *prometheus.Registry

	AnalysesTotal       *prometheus.CounterVec
	AnalysisDuration    *prometheus.HistogramVec
	AnalysisErrors      *prometheus.CounterVec
	OverallScore        prometheus.Histogram
	RecognizerFallbacks prometheus.Counter
	PhonemeLookups      *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance on its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "phonetichybrid"
	}

	registry := prometheus.NewRegistry()

	analysesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of completed analyses",
		},
		[]string{"method", "grade"},
	)

	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Wall time of one analysis in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"method"},
	)

	analysisErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_errors_total",
			Help:      "Failed analyses by error kind",
		},
		[]string{"kind"},
	)

	overallScore := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "overall_score",
			Help:      "Distribution of overall pronunciation scores",
			Buckets:   []float64{0.6, 0.7, 0.8, 0.9, 1},
		},
	)

	recognizerFallbacks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognizer_fallbacks_total",
			Help:      "Analyses scored acoustically because the recognizer was unavailable",
		},
	)

	phonemeLookups := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phoneme_lookups_total",
			Help:      "Phoneme transcription requests",
		},
		[]string{"status"},
	)

	registry.MustRegister(
		analysesTotal,
		analysisDuration,
		analysisErrors,
		overallScore,
		recognizerFallbacks,
		phonemeLookups,
		collectors.NewGoCollector(),
	)

	return &Metrics{
		registry:            registry,
		AnalysesTotal:       analysesTotal,
		AnalysisDuration:    analysisDuration,
		AnalysisErrors:      analysisErrors,
		OverallScore:        overallScore,
		RecognizerFallbacks: recognizerFallbacks,
		PhonemeLookups:      phonemeLookups,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAnalysis records a successful analysis. A nil receiver is a no-op.
func (m *Metrics) RecordAnalysis(r *models.AnalysisResult, d time.Duration) {
	if m == nil || r == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(r.AnalysisMethod, string(r.Grade)).Inc()
	m.AnalysisDuration.WithLabelValues(r.AnalysisMethod).Observe(d.Seconds())
	m.OverallScore.Observe(r.Overall)
	if r.AnalysisMethod == models.MethodAcousticOnly {
		m.RecognizerFallbacks.Inc()
	}
}

// RecordError records a failed analysis.
func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.AnalysisErrors.WithLabelValues(kind).Inc()
}

// RecordPhonemeLookup records a transcription request outcome.
func (m *Metrics) RecordPhonemeLookup(ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "error"
	}
	m.PhonemeLookups.WithLabelValues(status).Inc()
}
