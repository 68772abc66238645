package scoring

import (
	"math"

	"github.com/phonetichybrid/phonetichybrid/pkg/models"
)

// GradeThreshold is the minimum overall score for a grade.
type GradeThreshold struct {
	Min   float64
	Grade models.Grade
}

// AggregatorConfig holds the blending weights and grade boundaries.
type AggregatorConfig struct {
	MeanWeight       float64 // weight of the mean segment score in the acoustic score
	MinWeight        float64 // weight of the worst segment score
	ConfidenceWeight float64 // weight of recognizer confidence in the hybrid score
	Thresholds       []GradeThreshold
}

func DefaultAggregatorConfig() AggregatorConfig {
	return AggregatorConfig{
		MeanWeight:       0.7,
		MinWeight:        0.3,
		ConfidenceWeight: 0.4,
		Thresholds: []GradeThreshold{
			{0.9, models.GradeA},
			{0.8, models.GradeB},
			{0.7, models.GradeC},
			{0.6, models.GradeD},
		},
	}
}

// Aggregate is the outcome of combining segment scores.
type Aggregate struct {
	Acoustic float64
	Overall  float64
	Grade    models.Grade
}

// Aggregator combines segment scores and recognizer confidence into an
// overall score and grade. It is stateless.
type Aggregator struct {
	cfg AggregatorConfig
}

func NewAggregator(cfg AggregatorConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate blends scores into an overall value. With no segment scores the
// acoustic component falls back to globalQuality. A nil confidence yields a
// purely acoustic overall score.
func (a *Aggregator) Aggregate(scores []float64, confidence *float64, globalQuality float64) Aggregate {
	acoustic := clamp01(globalQuality)
	if len(scores) > 0 {
		sum, worst := 0.0, math.Inf(1)
		for _, s := range scores {
			sum += s
			worst = math.Min(worst, s)
		}
		mean := sum / float64(len(scores))
		acoustic = clamp01(a.cfg.MeanWeight*mean + a.cfg.MinWeight*worst)
	}

	overall := acoustic
	if confidence != nil {
		c := clamp01(*confidence)
		overall = a.cfg.ConfidenceWeight*c + (1-a.cfg.ConfidenceWeight)*acoustic
	}
	overall = Round3(clamp01(overall))

	return Aggregate{
		Acoustic: Round3(acoustic),
		Overall:  overall,
		Grade:    a.Grade(overall),
	}
}

// Grade maps an overall score onto a letter grade. Boundaries are inclusive.
func (a *Aggregator) Grade(overall float64) models.Grade {
	for _, t := range a.cfg.Thresholds {
		if overall >= t.Min {
			return t.Grade
		}
	}
	return models.GradeF
}

// GlobalQuality is the fallback acoustic score used when no phoneme could be
// scored: half the share of active frames plus half the share of voiced frames.
func GlobalQuality(activeRatio, voicedRatio float64) float64 {
	return clamp01(0.5*clamp01(activeRatio) + 0.5*clamp01(voicedRatio))
}

// Round3 rounds v to three decimals.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
